package simviewer

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes through the standard library: debug and info go to
// stdout, warnings and errors to stderr.
type DefaultLogger struct {
	debug atomic.Bool
	out   *log.Logger
	err   *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	if prefix != "" {
		prefix = "[" + prefix + "] "
	}
	flags := log.LstdFlags | log.Lmicroseconds | log.Lmsgprefix
	l := &DefaultLogger{
		out: log.New(os.Stdout, prefix, flags),
		err: log.New(os.Stderr, prefix, flags),
	}
	l.debug.Store(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool    { return l.debug.Load() }
func (l *DefaultLogger) SetDebug(enabled bool) { l.debug.Store(enabled) }

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.DebugEnabled() {
		l.out.Printf("DEBUG: "+format, args...)
	}
}

func (l *DefaultLogger) Infof(format string, args ...any)  { l.out.Printf("INFO: "+format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.err.Printf("WARN: "+format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.err.Printf("ERROR: "+format, args...) }

// ZapLogger adapts a zap logger to Logger. SetDebug moves the shared atomic
// level between debug and the configured level.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
	base  zapcore.Level
}

func NewZapLogger(l *zap.Logger, level zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar(), level: level, base: level.Level()}
}

// NewLogger builds the logger described by cfg: "plain" uses the standard
// library logger, "console" and "json" use zap.
func NewLogger(cfg LoggingConfig) (Logger, error) {
	if cfg.Format == "plain" {
		return NewDefaultLogger(cfg.Prefix, cfg.Level == "debug"), nil
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	if cfg.Prefix != "" {
		l = l.Named(cfg.Prefix)
	}
	return NewZapLogger(l, zapCfg.Level), nil
}

func (l *ZapLogger) DebugEnabled() bool { return l.level.Enabled(zapcore.DebugLevel) }

func (l *ZapLogger) SetDebug(enabled bool) {
	if enabled {
		l.level.SetLevel(zapcore.DebugLevel)
		return
	}
	l.level.SetLevel(l.base)
}

func (l *ZapLogger) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *ZapLogger) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *ZapLogger) Warnf(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *ZapLogger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }

// Sync flushes buffered zap output.
func (l *ZapLogger) Sync() error { return l.sugar.Sync() }

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}
