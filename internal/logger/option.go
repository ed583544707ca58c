package logger

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrUnknownLevel is returned for a level name ParseLogLevel does not accept.
var ErrUnknownLevel = errors.New("unknown log level")

var (
	// overridesMu guards overrides.
	//nolint:gochecknoglobals // Overrides apply to every component logger.
	overridesMu sync.RWMutex
	// overrides maps a component name to its own minimum level.
	//nolint:gochecknoglobals // Overrides apply to every component logger.
	overrides = map[string]zapcore.Level{}
)

// componentCore filters entries with its own level instead of the shared one,
// so a single component can be made more or less verbose than the daemon.
type componentCore struct {
	zapcore.Core

	// level is the minimum level written for the component.
	level zapcore.Level
}

// Enabled implements zapcore.LevelEnabler.
func (c *componentCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds the core to ce when the entry passes the component level.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *componentCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}

	return ce.AddCore(ent, c)
}

// With keeps the component level on derived loggers.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *componentCore) With(fields []zapcore.Field) zapcore.Core {
	return &componentCore{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// WithLevel returns an option that makes a logger write from lvl regardless of the shared level.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &componentCore{Core: core, level: lvl}
	})
}

// SetComponentLevels replaces the per-component overrides used by Named,
// e.g. {"mqtt": "debug"}. On error the previous overrides are kept.
func SetComponentLevels(levels map[string]string) error {
	parsed := make(map[string]zapcore.Level, len(levels))

	for component, name := range levels {
		level, ok := ParseLogLevel(name)
		if !ok {
			return fmt.Errorf("%w for %s: %q", ErrUnknownLevel, component, name)
		}

		parsed[component] = level
	}

	overridesMu.Lock()
	overrides = parsed
	overridesMu.Unlock()

	return nil
}

// componentLevel returns the override for component, if any.
func componentLevel(component string) (zapcore.Level, bool) {
	overridesMu.RLock()
	defer overridesMu.RUnlock()

	level, ok := overrides[component]

	return level, ok
}
