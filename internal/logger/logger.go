package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log field.
type Field = zap.Field

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})

	// With returns a child logger that adds fields to every entry.
	With(fields ...Field) Logger

	Sync() error
}

type loggerImpl struct {
	base    *zap.Logger
	sugared *zap.SugaredLogger
}

// New builds a zap-backed logger. pretty selects the coloured development
// encoder, otherwise entries are JSON.
func New(level string, pretty bool) Logger {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	if lvl, ok := parseLevel(level); ok {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	base, err := cfg.Build(
		zap.AddStacktrace(zapcore.FatalLevel),
	)
	if err != nil {
		panic(err)
	}
	return wrap(base)
}

// Nop returns a logger that discards everything.
func Nop() Logger { return wrap(zap.NewNop()) }

func wrap(base *zap.Logger) Logger {
	return &loggerImpl{base: base, sugared: base.Sugar()}
}

func parseLevel(lvl string) (zapcore.Level, bool) {
	switch lvl {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

func (l *loggerImpl) Debug(msg string, fields ...Field) { l.base.Debug(msg, fields...) }
func (l *loggerImpl) Info(msg string, fields ...Field)  { l.base.Info(msg, fields...) }
func (l *loggerImpl) Warn(msg string, fields ...Field)  { l.base.Warn(msg, fields...) }
func (l *loggerImpl) Error(msg string, fields ...Field) { l.base.Error(msg, fields...) }

func (l *loggerImpl) Debugf(t string, args ...interface{}) { l.sugared.Debugf(t, args...) }
func (l *loggerImpl) Infof(t string, args ...interface{})  { l.sugared.Infof(t, args...) }
func (l *loggerImpl) Warnf(t string, args ...interface{})  { l.sugared.Warnf(t, args...) }
func (l *loggerImpl) Errorf(t string, args ...interface{}) { l.sugared.Errorf(t, args...) }

func (l *loggerImpl) With(fields ...Field) Logger { return wrap(l.base.With(fields...)) }

func (l *loggerImpl) Sync() error { return l.base.Sync() }

// Field constructors, so callers need not import zap.
func String(key, val string) Field                 { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Error(err error) Field                        { return zap.Error(err) }

// ByteString logs raw line bytes without forcing valid UTF-8.
func ByteString(key string, val []byte) Field { return zap.ByteString(key, val) }
