package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/gesture/internal/component"
	"github.com/dshills/gesture/internal/config"
	"github.com/dshills/gesture/internal/event"
	"github.com/dshills/gesture/internal/input/arbiter"
	"github.com/dshills/gesture/internal/input/gesture"
	"github.com/dshills/gesture/internal/input/pointer"
	"github.com/dshills/gesture/internal/logging"
	"github.com/dshills/gesture/internal/surface"
)

// Recognizer kinds accepted in a tree.
const (
	KindDrag  = "drag"
	KindSwipe = "swipe"
)

// DefaultTree is a swipe wrapping a drag wrapping the button.
var DefaultTree = []string{KindSwipe, KindDrag}

// Recognizer is a gesture recognizer placed in a scene.
type Recognizer interface {
	component.Wrapper
	config.AttributeSetter
	SetBounds(r component.Rect)
	Active() bool
}

// Scene is a component tree with its surface, arbiter and bus: a root, a
// chain of recognizers from outermost to innermost, and the button they
// wrap.
//
// With WithFlickPad the root also holds a second branch, root > swipe >
// pad, drawn above the first. A drag in the main chain captures a moving
// pointer before the swipe around it can, so the pad is where a flick
// reaches a swipe recognizer on its own. The pad covers nothing until
// SetPadBounds gives it an area.
type Scene struct {
	Root    *component.Base
	Button  *component.Base
	Pad     *component.Base
	Surface *surface.Surface
	Arbiter *arbiter.Arbiter
	Bus     event.Bus

	padSwipe    Recognizer
	recognizers []Recognizer
	kinds       []string
	log         *logging.Logger
}

// SceneOption configures a Scene.
type SceneOption func(*sceneOptions)

type sceneOptions struct {
	bus       event.Bus
	log       *logging.Logger
	ctx       context.Context
	bounds    component.Rect
	flickPad  bool
	onRefused func(kind string, id pointer.ID, err error)
}

// WithBus publishes the scene's gesture events on bus. By default the scene
// creates its own.
func WithBus(bus event.Bus) SceneOption {
	return func(o *sceneOptions) {
		o.bus = bus
	}
}

// WithLogger sets the logger shared by the scene's parts.
func WithLogger(l *logging.Logger) SceneOption {
	return func(o *sceneOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithContext sets the context used for publishing.
func WithContext(ctx context.Context) SceneOption {
	return func(o *sceneOptions) {
		o.ctx = ctx
	}
}

// WithBounds sets the area every component in the scene covers.
func WithBounds(r component.Rect) SceneOption {
	return func(o *sceneOptions) {
		o.bounds = r
	}
}

// WithFlickPad adds the swipe-only pad branch.
func WithFlickPad() SceneOption {
	return func(o *sceneOptions) {
		o.flickPad = true
	}
}

// WithRefusalHook is called when a recognizer loses a capture request.
func WithRefusalHook(fn func(kind string, id pointer.ID, err error)) SceneOption {
	return func(o *sceneOptions) {
		o.onRefused = fn
	}
}

// NewScene builds root > tree[0] > ... > tree[n-1] > button. Each tree
// entry is "drag" or "swipe"; an empty tree puts the button directly under
// the root.
func NewScene(tree []string, opts ...SceneOption) (*Scene, error) {
	o := sceneOptions{
		log:    logging.Nop(),
		ctx:    context.Background(),
		bounds: component.Rect{Right: 1 << 16, Bottom: 1 << 16},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bus == nil {
		o.bus = event.NewBus(event.WithErrorHandler(func(ev any, err error) {
			o.log.Warn("gesture event handler failed", "error", err)
		}))
	}

	s := &Scene{
		Root:   component.NewBase("root"),
		Button: component.NewBase("button"),
		Bus:    o.bus,
		log:    o.log.WithComponent("scene"),
	}
	s.Root.SetBounds(o.bounds)
	s.Button.SetBounds(o.bounds)

	surf, err := surface.New(s.Root, surface.WithBus(o.bus), surface.WithLogger(o.log), surface.WithContext(o.ctx))
	if err != nil {
		return nil, &InitError{Component: "surface", Err: err}
	}
	s.Surface = surf
	s.Arbiter = arbiter.New(
		arbiter.WithCapturer(surf),
		arbiter.WithScrollLocker(surf),
		arbiter.WithLogger(o.log),
	)

	var parent component.Node = s.Root
	for _, entry := range tree {
		kind := strings.ToLower(strings.TrimSpace(entry))
		rec, err := s.newRecognizer(kind, o)
		if err != nil {
			return nil, err
		}
		rec.SetBounds(o.bounds)
		if err := component.Append(parent, rec); err != nil {
			return nil, &InitError{Component: kind, Err: err}
		}
		s.recognizers = append(s.recognizers, rec)
		s.kinds = append(s.kinds, kind)
		parent = rec
	}
	if err := component.Append(parent, s.Button); err != nil {
		return nil, &InitError{Component: "button", Err: err}
	}

	if o.flickPad {
		if err := s.addPad(o); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scene) addPad(o sceneOptions) error {
	rec, err := s.newRecognizer(KindSwipe, o)
	if err != nil {
		return err
	}
	pad := component.NewBase("pad")
	if err := component.Append(s.Root, rec); err != nil {
		return &InitError{Component: "pad", Err: err}
	}
	if err := component.Append(rec, pad); err != nil {
		return &InitError{Component: "pad", Err: err}
	}
	s.padSwipe = rec
	s.Pad = pad
	return nil
}

// PadSwipe returns the pad's swipe recognizer, if the scene has a pad.
func (s *Scene) PadSwipe() (Recognizer, bool) {
	return s.padSwipe, s.padSwipe != nil
}

// SetPadBounds moves the pad to r. An empty r disables it. It must be
// called from the goroutine that dispatches pointer events.
func (s *Scene) SetPadBounds(r component.Rect) {
	if s.padSwipe == nil {
		return
	}
	s.padSwipe.SetBounds(r)
	s.Pad.SetBounds(r)
}

// tunables returns the main chain followed by the pad swipe.
func (s *Scene) tunables() []Recognizer {
	all := append([]Recognizer(nil), s.recognizers...)
	if s.padSwipe != nil {
		all = append(all, s.padSwipe)
	}
	return all
}

func (s *Scene) newRecognizer(kind string, o sceneOptions) (Recognizer, error) {
	var opts []gesture.Option
	opts = append(opts, gesture.WithLogger(o.log))
	if o.onRefused != nil {
		hook := o.onRefused
		opts = append(opts, gesture.OnRefused(func(id pointer.ID, err error) {
			hook(kind, id, err)
		}))
	}
	switch kind {
	case KindDrag:
		return gesture.NewDrag(s.Arbiter, opts...), nil
	case KindSwipe:
		return gesture.NewSwipe(s.Arbiter, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecognizer, kind)
	}
}

// Recognizers returns the recognizers from outermost to innermost.
func (s *Scene) Recognizers() []Recognizer {
	return append([]Recognizer(nil), s.recognizers...)
}

// Recognizer returns the outermost recognizer of the given kind.
func (s *Scene) Recognizer(kind string) (Recognizer, bool) {
	for i, k := range s.kinds {
		if k == kind {
			return s.recognizers[i], true
		}
	}
	return nil, false
}

// Kinds returns the tree, outermost first.
func (s *Scene) Kinds() []string {
	return append([]string(nil), s.kinds...)
}

// Apply applies cfg to every recognizer, the pad's included, and logs each
// rejection.
func (s *Scene) Apply(cfg *config.Config) []error {
	recs := s.tunables()
	targets := make([]config.AttributeSetter, len(recs))
	for i, r := range recs {
		targets[i] = r
	}
	errs := cfg.Apply(targets...)
	for _, err := range errs {
		s.log.Warn("configuration rejected", "error", err)
	}
	return errs
}

// SetAttribute sets an attribute on every recognizer that has it. It
// returns the first rejection.
func (s *Scene) SetAttribute(name, value string) error {
	var first error
	found := false
	for _, r := range s.tunables() {
		if !r.HasAttribute(name) {
			continue
		}
		found = true
		if err := r.SetAttribute(name, value); err != nil && first == nil {
			first = err
		}
	}
	if !found {
		return &ComponentError{Component: "scene", Action: "set " + name, Err: gesture.ErrUnknownAttribute}
	}
	return first
}

// Dispatch feeds a pointer event into the scene.
func (s *Scene) Dispatch(ev pointer.Event) bool {
	return s.Surface.Dispatch(ev)
}

// Reset abandons every capture and clears scroll lock.
func (s *Scene) Reset() {
	s.Arbiter.ClearAll()
}
