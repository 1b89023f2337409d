package lua

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gesture/internal/event"
	"github.com/dshills/gesture/internal/event/topic"
	"github.com/dshills/gesture/internal/input/gesture"
	"github.com/dshills/gesture/internal/logging"
)

// hookNames maps gesture topics to the Lua functions that handle them.
var hookNames = map[topic.Topic]string{
	gesture.TopicDragStart:     "on_drag_start",
	gesture.TopicDragMove:      "on_drag_move",
	gesture.TopicDragEnd:       "on_drag_end",
	gesture.TopicSwipe:         "on_swipe",
	gesture.TopicSwipeProgress: "on_swipe_progress",
}

// Tunable is a recognizer whose attributes scripts may change.
type Tunable interface {
	SetAttribute(name, value string) error
}

// HooksOption configures Hooks.
type HooksOption func(*Hooks)

// WithLogger sets the logger used for gesture.log and hook failures.
func WithLogger(l *logging.Logger) HooksOption {
	return func(h *Hooks) {
		if l != nil {
			h.log = l
		}
	}
}

// WithTunable exposes a recognizer to gesture.set under name.
func WithTunable(name string, t Tunable) HooksOption {
	return func(h *Hooks) {
		h.tunables[name] = t
	}
}

// WithStateOptions passes options to the underlying State.
func WithStateOptions(opts ...StateOption) HooksOption {
	return func(h *Hooks) {
		h.stateOpts = append(h.stateOpts, opts...)
	}
}

// HookStats counts hook activity.
type HookStats struct {
	Calls  uint64
	Errors uint64
}

// Hooks dispatches gesture events to Lua functions.
type Hooks struct {
	state     *State
	stateOpts []StateOption
	log       *logging.Logger

	mu       sync.RWMutex
	tunables map[string]Tunable

	calls  atomic.Uint64
	errors atomic.Uint64
}

// NewHooks creates a hook runner with the gesture module installed. Load
// a script with LoadFile or LoadString.
func NewHooks(opts ...HooksOption) *Hooks {
	h := &Hooks{
		log:      logging.Nop(),
		tunables: make(map[string]Tunable),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent("lua")
	h.state = NewState(h.stateOpts...)
	h.state.RegisterModule("gesture", map[string]lua.LGFunction{
		"log": h.luaLog,
		"set": h.luaSet,
	})
	return h
}

// LoadFile runs a hook script.
func (h *Hooks) LoadFile(path string) error {
	if err := h.state.DoFile(path); err != nil {
		return fmt.Errorf("loading hooks %s: %w", path, err)
	}
	h.log.Info("hooks loaded", "path", path, "hooks", h.Defined())
	return nil
}

// LoadString runs hook source.
func (h *Hooks) LoadString(code string) error {
	if err := h.state.DoString(code); err != nil {
		return fmt.Errorf("loading hooks: %w", err)
	}
	return nil
}

// AddTunable exposes a recognizer to gesture.set under name.
func (h *Hooks) AddTunable(name string, t Tunable) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tunables[name] = t
}

// Defined returns the hook functions the loaded script defines, sorted.
func (h *Hooks) Defined() []string {
	var names []string
	for _, name := range hookNames {
		if h.state.HasFunction(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Handle implements event.Handler. Events other than gesture events, and
// gesture events without a hook, are ignored.
func (h *Hooks) Handle(ctx context.Context, ev any) error {
	gev, ok := ev.(gesture.Event)
	if !ok {
		return nil
	}
	name, ok := hookNames[gev.Type]
	if !ok || !h.state.HasFunction(name) {
		return nil
	}

	h.calls.Add(1)
	if _, err := h.state.Call(ctx, name, eventTable(gev)); err != nil {
		h.errors.Add(1)
		h.log.Warn("hook failed", "hook", name, "error", err)
		return &HookError{Hook: name, Err: err}
	}
	return nil
}

// Subscribe registers the hooks for every gesture event on bus.
func (h *Hooks) Subscribe(bus event.Bus) (*event.Subscription, error) {
	return bus.Subscribe(gesture.TopicAll, h)
}

// Stats returns hook counters.
func (h *Hooks) Stats() HookStats {
	return HookStats{Calls: h.calls.Load(), Errors: h.errors.Load()}
}

// Close releases the Lua state.
func (h *Hooks) Close() error {
	return h.state.Close()
}

func (h *Hooks) luaLog(L *lua.LState) int {
	h.log.Info(L.CheckString(1))
	return 0
}

func (h *Hooks) luaSet(L *lua.LState) int {
	name := L.CheckString(1)
	attr := L.CheckString(2)
	value := L.CheckAny(3).String()

	h.mu.RLock()
	t, ok := h.tunables[name]
	h.mu.RUnlock()
	if !ok {
		L.Push(lua.LNil)
		L.Push(lua.LString(fmt.Sprintf("unknown recognizer %q", name)))
		return 2
	}
	if err := t.SetAttribute(attr, value); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func eventTable(ev gesture.Event) map[string]any {
	d := ev.Detail
	t := map[string]any{
		"type":         ev.Type.String(),
		"name":         ev.Name(),
		"pointer":      int(ev.Pointer),
		"direction":    d.Direction.String(),
		"start_x":      d.StartX,
		"start_y":      d.StartY,
		"x":            d.CurrentX,
		"y":            d.CurrentY,
		"dx":           d.DeltaX,
		"dy":           d.DeltaY,
		"distance":     d.Distance,
		"elapsed_ms":   d.Elapsed.Milliseconds(),
		"velocity":     d.Velocity,
		"dragging":     d.IsDragging,
		"was_dragging": d.WasDragging,
		"clean":        d.Clean,
	}
	if ev.Source != nil {
		t["source"] = ev.Source.Name()
	}
	if ev.Target != nil {
		t["target"] = ev.Target.Name()
	}
	return t
}
