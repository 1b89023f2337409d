// Package replay loads YAML pointer scripts and replays them through a
// gesture scene, collecting the gesture events they produce.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/gesture/internal/app"
	"github.com/dshills/gesture/internal/input/pointer"
)

// Script errors.
var (
	// ErrEmptyScript indicates a script with no steps.
	ErrEmptyScript = errors.New("script has no steps")

	// ErrInvalidStep indicates a step that cannot be replayed.
	ErrInvalidStep = errors.New("invalid step")

	// ErrInvalidConfig indicates a config value that is not a scalar.
	ErrInvalidConfig = errors.New("invalid config value")
)

// StepError reports a problem with one step. Index is zero-based.
type StepError struct {
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Index, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Script is a pointer script.
type Script struct {
	// Tree lists the recognizers wrapping the button, outermost first.
	// Nil means app.DefaultTree.
	Tree []string `yaml:"tree"`

	// Config maps attribute names to values, plus "progress".
	Config map[string]any `yaml:"config"`

	Steps []Step `yaml:"steps"`
}

// Step is one pointer event. T is milliseconds from the script start.
type Step struct {
	Kind    string  `yaml:"kind"`
	Pointer int     `yaml:"pointer"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	T       int64   `yaml:"t"`
}

// PointerKind returns the parsed kind.
func (s Step) PointerKind() pointer.Kind {
	k, _ := pointer.ParseKind(strings.ToLower(strings.TrimSpace(s.Kind)))
	return k
}

// PointerID returns the pointer, defaulting to 1.
func (s Step) PointerID() pointer.ID {
	if s.Pointer == 0 {
		return 1
	}
	return pointer.ID(s.Pointer)
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a script. Unknown fields are errors.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyScript
		}
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the tree, the config values and every step. Times must
// not go backwards.
func (s *Script) Validate() error {
	for _, kind := range s.Tree {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case app.KindDrag, app.KindSwipe:
		default:
			return fmt.Errorf("tree: %w: %q", app.ErrUnknownRecognizer, kind)
		}
	}
	for name, v := range s.Config {
		if _, err := configValue(name, v); err != nil {
			return err
		}
	}
	if len(s.Steps) == 0 {
		return ErrEmptyScript
	}
	var last int64
	for i, st := range s.Steps {
		if _, ok := pointer.ParseKind(strings.ToLower(strings.TrimSpace(st.Kind))); !ok {
			return &StepError{Index: i, Err: fmt.Errorf("%w: unknown kind %q", ErrInvalidStep, st.Kind)}
		}
		if st.Pointer < 0 {
			return &StepError{Index: i, Err: fmt.Errorf("%w: negative pointer %d", ErrInvalidStep, st.Pointer)}
		}
		if st.T < 0 {
			return &StepError{Index: i, Err: fmt.Errorf("%w: negative time %d", ErrInvalidStep, st.T)}
		}
		if st.T < last {
			return &StepError{Index: i, Err: fmt.Errorf("%w: time %d before %d", ErrInvalidStep, st.T, last)}
		}
		last = st.T
	}
	return nil
}

// attributes returns the config as attribute strings in name order, with
// the progress switch split out.
func (s *Script) attributes() (names []string, values map[string]string, progress *bool) {
	values = make(map[string]string, len(s.Config))
	for name, v := range s.Config {
		if name == keyProgress {
			if on, ok := v.(bool); ok {
				progress = &on
			}
			continue
		}
		str, _ := configValue(name, v)
		values[name] = str
		names = append(names, name)
	}
	sort.Strings(names)
	return names, values, progress
}

const keyProgress = "progress"

func configValue(name string, v any) (string, error) {
	if name == keyProgress {
		if _, ok := v.(bool); !ok {
			return "", fmt.Errorf("config %s: %w: want a boolean", name, ErrInvalidConfig)
		}
		return "", nil
	}
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x), nil
	case string:
		return x, nil
	default:
		return "", fmt.Errorf("config %s: %w: %v", name, ErrInvalidConfig, v)
	}
}
