// Package logging provides structured logging for the EVOLV experiment
// server, backed by zap with a field-map convenience surface.
package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap core behind a field-map API so call sites can attach
// ad-hoc context without building zap fields by hand.
type Logger struct {
	z *zap.Logger
}

// New creates a Logger writing to the given core.
func New(core zapcore.Core) *Logger {
	return &Logger{z: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// WithFields returns a child logger carrying the given fields on every entry.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{z: l.z.With(toZapFields(fields)...)}
}

// WithField returns a child logger with a single extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithError returns a child logger with the error field set.
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func (l *Logger) log(level zapcore.Level, msg string, fields []map[string]interface{}) {
	var zf []zap.Field
	if len(fields) > 0 {
		zf = toZapFields(fields[0])
	}
	if ce := l.z.Check(level, msg); ce != nil {
		ce.Write(zf...)
	}
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(zapcore.DebugLevel, msg, fields)
}

// Info logs a message at info level.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(zapcore.InfoLevel, msg, fields)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(zapcore.WarnLevel, msg, fields)
}

// Error logs a message at error level.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(zapcore.ErrorLevel, msg, fields)
}

// Fatal logs a message at fatal level then exits.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	l.log(zapcore.FatalLevel, msg, fields)
	os.Exit(1)
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return zf
}

// CtxLogger is a logger that can travel in a context.
type CtxLogger struct {
	*Logger
}

type ctxLoggerKey struct{}

// FromContext returns the logger stored in ctx, or a default stderr logger
// when none is present.
func FromContext(ctx context.Context) *CtxLogger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*CtxLogger); ok {
		return logger
	}
	logger, _ := NewLogger(DefaultConfig())
	return &CtxLogger{logger}
}

// WithContext returns a new context carrying the logger.
func (l *CtxLogger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, l)
}
