package logger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"common-library/internal/application/port/output"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is "json" or "console".
	Format string
	// File, when set, receives entries in addition to stderr.
	File string
}

func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
	}
}

type LoggerAdapter struct {
	sugar *zap.SugaredLogger
}

func NewLoggerAdapter(cfg Config) (*LoggerAdapter, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	switch strings.ToLower(cfg.Format) {
	case "", "console":
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		zcfg.Encoding = "json"
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.File)
	}

	z, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return &LoggerAdapter{sugar: z.Sugar()}, nil
}

// NewFromZap wraps an existing logger, e.g. one built on zaptest/observer.
func NewFromZap(z *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{sugar: z.Sugar()}
}

func NewNop() *LoggerAdapter {
	return NewFromZap(zap.NewNop())
}

func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{sugar: l.sugar.With(key, value)}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{sugar: l.sugar.With(args...)}
}

func (l *LoggerAdapter) Close() error {
	return dropStdStreamSyncErrors(l.sugar.Sync())
}

// dropStdStreamSyncErrors removes the per-output errors of stderr and stdout,
// which cannot be fsynced on most platforms. Errors of other outputs stay.
func dropStdStreamSyncErrors(err error) error {
	var kept []error
	for _, e := range multierr.Errors(err) {
		var pathErr *fs.PathError
		if errors.As(e, &pathErr) && (pathErr.Path == os.Stderr.Name() || pathErr.Path == os.Stdout.Name()) {
			continue
		}
		kept = append(kept, e)
	}
	return multierr.Combine(kept...)
}
