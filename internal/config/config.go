package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/gesture/internal/logging"
)

// Binding ties a configuration key to a recognizer attribute.
type Binding struct {
	// Key is the dotted TOML key, such as "drag.threshold".
	Key string
	// Env is the environment variable overriding Key.
	Env string
	// Attribute is the recognizer attribute the value is applied to.
	Attribute string
}

// Bindings lists the recognizer thresholds understood by the loader.
var Bindings = []Binding{
	{Key: "drag.threshold", Env: "GESTURE_DRAG_THRESHOLD", Attribute: "drag-threshold"},
	{Key: "swipe.min_distance", Env: "GESTURE_MIN_SWIPE_DISTANCE", Attribute: "min-swipe-distance"},
	{Key: "swipe.max_time", Env: "GESTURE_MAX_SWIPE_TIME", Attribute: "max-swipe-time"},
}

const (
	keyProgress  = "swipe.progress"
	keyLogLevel  = "logging.level"
	keyLogFormat = "logging.format"
	keyLogFile   = "logging.file"

	// EnvLogLevel overrides logging.level.
	EnvLogLevel = "GESTURE_LOG_LEVEL"
)

// Config is a loaded configuration.
type Config struct {
	// Attributes maps recognizer attribute names to raw values. Only
	// settings present in the file or environment appear.
	Attributes map[string]string

	// Progress is the swipe.progress setting, nil when unset.
	Progress *bool

	Logging LoggingConfig

	// Path is the file the configuration was read from, if any.
	Path string

	// Unknown lists keys in the file that the loader does not use.
	Unknown []string
}

// LoggingConfig holds the [logging] table.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// Default returns a configuration that leaves every recognizer at its
// built-in defaults.
func Default() *Config {
	return &Config{
		Attributes: make(map[string]string),
		Logging: LoggingConfig{
			Level:  logging.LevelInfo,
			Format: logging.FormatText,
		},
	}
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	lookupEnv func(string) (string, bool)
}

// WithEnv replaces os.LookupEnv as the source of environment overrides.
// Pass nil to ignore the environment.
func WithEnv(lookup func(string) (string, bool)) LoadOption {
	return func(o *loadOptions) {
		o.lookupEnv = lookup
	}
}

// Load reads path and applies environment overrides. An empty path or a
// missing file yields the defaults plus the environment.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			cfg.Path = path
			if err := cfg.merge(path, data); err != nil {
				return nil, err
			}
		}
	}
	if o.lookupEnv != nil {
		cfg.applyEnv(o.lookupEnv)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML data without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.merge("<data>", data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(source string, data []byte) error {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}

	flat := make(map[string]any)
	flatten("", raw, flat)

	for _, b := range Bindings {
		if v, ok := flat[b.Key]; ok {
			str, ok := formatValue(v)
			if !ok {
				return &ValueError{Key: b.Key, Value: v, Err: fmt.Errorf("%w: want an integer", ErrInvalidValue)}
			}
			c.Attributes[b.Attribute] = str
			delete(flat, b.Key)
		}
	}
	if v, ok := flat[keyProgress]; ok {
		on, isBool := v.(bool)
		if !isBool {
			return &ValueError{Key: keyProgress, Value: v, Err: fmt.Errorf("%w: want a boolean", ErrInvalidValue)}
		}
		c.Progress = &on
		delete(flat, keyProgress)
	}
	for key, dst := range map[string]*string{
		keyLogLevel:  &c.Logging.Level,
		keyLogFormat: &c.Logging.Format,
		keyLogFile:   &c.Logging.File,
	} {
		v, ok := flat[key]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString {
			return &ValueError{Key: key, Value: v, Err: fmt.Errorf("%w: want a string", ErrInvalidValue)}
		}
		*dst = s
		delete(flat, key)
	}

	for key := range flat {
		c.Unknown = append(c.Unknown, key)
	}
	sort.Strings(c.Unknown)
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for _, b := range Bindings {
		if v, ok := lookup(b.Env); ok {
			c.Attributes[b.Attribute] = v
		}
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
}

// Validate checks the logging settings. Threshold values are validated by
// the recognizers when applied.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return &ValueError{Key: keyLogLevel, Value: c.Logging.Level, Err: ErrInvalidValue}
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return &ValueError{Key: keyLogFormat, Value: c.Logging.Format, Err: ErrInvalidValue}
	}
	return nil
}

// LoggerConfig converts the [logging] table for logging.New.
func (c *Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.File = c.Logging.File
	return lc
}

// AttributeSetter is implemented by recognizers.
type AttributeSetter interface {
	SetAttribute(name, value string) error
	HasAttribute(name string) bool
}

// ProgressSetter is implemented by recognizers that can report progress.
type ProgressSetter interface {
	SetProgress(on bool)
}

// Apply hands every configured attribute to each target that has it and
// returns the rejections. Rejected values leave the target unchanged.
func (c *Config) Apply(targets ...AttributeSetter) []error {
	names := make([]string, 0, len(c.Attributes))
	for name := range c.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, t := range targets {
		for _, name := range names {
			if !t.HasAttribute(name) {
				continue
			}
			if err := t.SetAttribute(name, c.Attributes[name]); err != nil {
				errs = append(errs, err)
			}
		}
		if p, ok := t.(ProgressSetter); ok && c.Progress != nil {
			p.SetProgress(*c.Progress)
		}
	}
	return errs
}

func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}

// formatValue renders a decoded TOML value in the string form recognizers
// parse. Only integers and strings qualify; strings are checked when the
// attribute is applied.
func formatValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return "", false
	}
}
