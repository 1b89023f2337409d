// Package app wires configuration, logging, the gesture scene, Lua hooks
// and live reload into a runnable application.
package app

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dshills/gesture/internal/config"
	"github.com/dshills/gesture/internal/logging"
	"github.com/dshills/gesture/internal/plugin/lua"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML configuration file. It may be empty or
	// missing.
	ConfigPath string

	// HooksPath is a Lua hook script to load.
	HooksPath string

	// Tree lists the recognizers wrapping the button, outermost first.
	// Nil means DefaultTree.
	Tree []string

	// Watch reloads ConfigPath when it changes.
	Watch bool

	// FlickPad adds the swipe-only pad to the scene. RunDemo places it.
	FlickPad bool

	// LogLevel overrides the configured level when set.
	LogLevel string

	// LogOutput overrides the log destination when set.
	LogOutput io.Writer

	// Env replaces the process environment for configuration overrides.
	Env func(string) (string, bool)
}

// Application is the central coordinator.
type Application struct {
	opts Options
	log  *logging.Logger

	mu  sync.RWMutex
	cfg *config.Config

	scene   *Scene
	hooks   *lua.Hooks
	watcher *config.Watcher

	running atomic.Bool
	closed  atomic.Bool
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration
	var loadOpts []config.LoadOption
	if app.opts.Env != nil {
		loadOpts = append(loadOpts, config.WithEnv(app.opts.Env))
	}
	cfg, err := config.Load(app.opts.ConfigPath, loadOpts...)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.cfg = cfg

	// 2. Logging
	lc := cfg.LoggerConfig()
	if app.opts.LogLevel != "" {
		if !logging.ValidLevel(app.opts.LogLevel) {
			return &InitError{Component: "logging", Err: fmt.Errorf("%w: level %q", config.ErrInvalidValue, app.opts.LogLevel)}
		}
		lc.Level = app.opts.LogLevel
	}
	if app.opts.LogOutput != nil {
		lc.Output = app.opts.LogOutput
	}
	log, err := logging.New(lc)
	if err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	app.log = log
	for _, key := range cfg.Unknown {
		app.log.Warn("unknown configuration key", "key", key, "path", cfg.Path)
	}

	// 3. Scene
	tree := app.opts.Tree
	if tree == nil {
		tree = DefaultTree
	}
	sceneOpts := []SceneOption{WithLogger(log)}
	if app.opts.FlickPad {
		sceneOpts = append(sceneOpts, WithFlickPad())
	}
	scene, err := NewScene(tree, sceneOpts...)
	if err != nil {
		return err
	}
	app.scene = scene
	scene.Apply(cfg)

	// 4. Hooks
	if app.opts.HooksPath != "" {
		hookOpts := []lua.HooksOption{lua.WithLogger(log)}
		for _, kind := range []string{KindDrag, KindSwipe} {
			if rec, ok := scene.Recognizer(kind); ok {
				hookOpts = append(hookOpts, lua.WithTunable(kind, rec))
			}
		}
		if pad, ok := scene.PadSwipe(); ok {
			hookOpts = append(hookOpts, lua.WithTunable("pad", pad))
		}
		app.hooks = lua.NewHooks(hookOpts...)
		if err := app.hooks.LoadFile(app.opts.HooksPath); err != nil {
			return &InitError{Component: "hooks", Err: err}
		}
		if _, err := app.hooks.Subscribe(scene.Bus); err != nil {
			return &InitError{Component: "hooks", Err: err}
		}
	}

	// 5. Live reload
	if app.opts.Watch && app.opts.ConfigPath != "" {
		w, err := config.Watch(app.opts.ConfigPath, app.reload,
			config.WithWatchLogger(log),
			config.WithLoadOptions(loadOpts...),
		)
		if err != nil {
			return &InitError{Component: "config watcher", Err: err}
		}
		app.watcher = w
	}

	app.log.Info("application initialized",
		"tree", scene.Kinds(), "config", cfg.Path, "hooks", app.opts.HooksPath, "watch", app.watcher != nil)
	return nil
}

// reload applies a configuration read by the watcher. Recognizer
// attributes are mutex-guarded, so this is safe off the dispatch
// goroutine.
func (app *Application) reload(cfg *config.Config, err error) {
	if err != nil {
		app.log.Warn("keeping previous configuration", "error", err)
		return
	}
	app.mu.Lock()
	app.cfg = cfg
	app.mu.Unlock()

	app.scene.Apply(cfg)
	if app.opts.LogLevel == "" {
		app.log.SetLevel(cfg.Logging.Level)
	}
}

// Scene returns the gesture scene.
func (app *Application) Scene() *Scene {
	return app.scene
}

// Config returns the configuration in effect.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.log
}

// Hooks returns the loaded hooks (may be nil).
func (app *Application) Hooks() *lua.Hooks {
	return app.hooks
}

// IsRunning returns true while the demo loop runs.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Close releases the watcher, the hooks and the log file in reverse
// initialization order. It is safe to call more than once.
func (app *Application) Close() error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}
	if app.watcher != nil {
		_ = app.watcher.Close()
	}
	if app.hooks != nil {
		_ = app.hooks.Close()
	}
	if app.scene != nil {
		app.scene.Reset()
	}
	if app.log != nil {
		return app.log.Close()
	}
	return nil
}
