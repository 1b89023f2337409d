package replay

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dshills/gesture/internal/app"
	"github.com/dshills/gesture/internal/input/gesture"
	"github.com/dshills/gesture/internal/input/pointer"
	"github.com/dshills/gesture/internal/logging"
	"github.com/dshills/gesture/internal/plugin/lua"
)

// Epoch is the time of a script's t = 0.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Option configures Run.
type Option func(*options)

type options struct {
	log       *logging.Logger
	hooksPath string
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.log = logging.OrNop(l)
	}
}

// WithHooks loads a Lua hook script for the run.
func WithHooks(path string) Option {
	return func(o *options) {
		o.hooksPath = path
	}
}

// Refusal is a capture request a recognizer lost.
type Refusal struct {
	Kind    string
	Pointer pointer.ID
	Err     error
}

// Result is what a replay produced.
type Result struct {
	Events     []gesture.Event
	Rejections []error
	Refusals   []Refusal
	Dispatched int
	Hooks      lua.HookStats
}

// WriteTo writes one line per event.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, ev := range r.Events {
		n, err := fmt.Fprintf(w, "%8s  %s\n", ev.Time.Sub(Epoch).String(), ev)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Run replays script through a fresh scene. Config values a recognizer
// rejects are reported in the result and do not stop the run.
func Run(ctx context.Context, script *Script, opts ...Option) (*Result, error) {
	o := options{log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.WithComponent("replay")

	res := &Result{}
	tree := script.Tree
	if tree == nil {
		tree = app.DefaultTree
	}
	scene, err := app.NewScene(tree,
		app.WithLogger(o.log),
		app.WithContext(ctx),
		app.WithRefusalHook(func(kind string, id pointer.ID, err error) {
			res.Refusals = append(res.Refusals, Refusal{Kind: kind, Pointer: id, Err: err})
		}),
	)
	if err != nil {
		return nil, err
	}
	defer scene.Reset()

	names, values, progress := script.attributes()
	for _, name := range names {
		if err := scene.SetAttribute(name, values[name]); err != nil {
			log.Warn("config rejected", "attribute", name, "value", values[name], "error", err)
			res.Rejections = append(res.Rejections, err)
		}
	}
	if progress != nil {
		if rec, ok := scene.Recognizer(app.KindSwipe); ok {
			if p, ok := rec.(interface{ SetProgress(bool) }); ok {
				p.SetProgress(*progress)
			}
		}
	}

	if _, err := scene.Bus.SubscribeFunc(gesture.TopicAll, func(_ context.Context, ev any) error {
		if gev, ok := ev.(gesture.Event); ok {
			res.Events = append(res.Events, gev)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if o.hooksPath != "" {
		hooks := lua.NewHooks(lua.WithLogger(o.log))
		defer hooks.Close()
		for _, kind := range scene.Kinds() {
			if rec, ok := scene.Recognizer(kind); ok {
				hooks.AddTunable(kind, rec)
			}
		}
		if err := hooks.LoadFile(o.hooksPath); err != nil {
			return nil, err
		}
		if _, err := hooks.Subscribe(scene.Bus); err != nil {
			return nil, err
		}
		defer func() { res.Hooks = hooks.Stats() }()
	}

	for i, st := range script.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ev := pointer.Event{
			Kind:      st.PointerKind(),
			Pointer:   st.PointerID(),
			X:         st.X,
			Y:         st.Y,
			Timestamp: Epoch.Add(time.Duration(st.T) * time.Millisecond),
		}
		if ev.Kind == pointer.KindDown || ev.Kind == pointer.KindMove {
			ev.Buttons = pointer.ButtonPrimary
		}
		scene.Dispatch(ev)
		res.Dispatched++
		log.Debug("replayed step", "index", i, "kind", ev.Kind.String(), "pointer", ev.Pointer.String())
	}

	log.Info("replay finished", "steps", res.Dispatched, "events", len(res.Events), "rejections", len(res.Rejections))
	return res, nil
}
