// Package logging constructs the single zap.Logger instance for the
// process and the component-tagging convention used everywhere else:
// every log call is a structured entry with a "component" field rather
// than an fmt-interpolated string, matching the teacher's pervasive
// zap.Logger injection (see private/lifecycle, private/migrate).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls log level and output format.
type Config struct {
	Level      string `toml:"level"`       // debug|info|warn|error
	Production bool   `toml:"production"`  // JSON encoding, sampling
	OutputPath string `toml:"output_path"` // "" means stderr
}

// New builds a *zap.Logger per cfg. The returned logger is the root logger
// for the process; every component derives its own via .Named / .With.
func New(cfg Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Production {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelOrDefault(cfg.Level))); err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.OutputPath != "" {
		zcfg.OutputPaths = []string{cfg.OutputPath}
		zcfg.ErrorOutputPaths = []string{cfg.OutputPath}
	}

	return zcfg.Build()
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

// Component returns a child logger tagged with a "component" field, the
// convention used by every package in this module instead of reaching for
// a global logger.
func Component(log *zap.Logger, name string) *zap.Logger {
	return log.With(zap.String("component", name))
}
