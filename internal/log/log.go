// Package log provides a small leveled JSON logger. Values that look like
// credentials are masked before they reach the output.
package log

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	z *zap.Logger
}

// New builds a logger writing JSON to stderr. Level comes from
// CVRAG_LOG_LEVEL (default info).
func New() *Logger {
	return NewWithLevel(os.Getenv("CVRAG_LOG_LEVEL"))
}

func NewWithLevel(level string) *Logger {
	lvl := zapcore.InfoLevel
	if level != "" {
		if l, err := zapcore.ParseLevel(strings.ToLower(level)); err == nil {
			lvl = l
		}
	}
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	return &Logger{z: zap.New(core)}
}

// With returns a child logger with the given fields attached to every record.
func (l *Logger) With(kv map[string]string) *Logger {
	fields := make([]zap.Field, 0, len(kv))
	for k, v := range kv {
		fields = append(fields, zap.String(k, maskValue(k, v)))
	}
	return &Logger{z: l.z.With(fields...)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.z.Debug(msg, fields(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.z.Info(msg, fields(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.z.Warn(msg, fields(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.z.Error(msg, fields(kv)...) }

func fields(kv []any) []zap.Field {
	fs := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		if s, ok := kv[i+1].(string); ok {
			fs = append(fs, zap.String(k, maskValue(k, s)))
			continue
		}
		fs = append(fs, zap.Any(k, kv[i+1]))
	}
	return fs
}

var secretKeyParts = []string{"key", "token", "secret", "password", "authorization", "api_key", "apikey", "bearer"}

var secretLike = regexp.MustCompile(`^sk-[A-Za-z0-9_\-]{16,}$`)

// maskValue redacts likely secret values.
func maskValue(key, val string) string {
	lowerK := strings.ToLower(key)
	for _, p := range secretKeyParts {
		if strings.Contains(lowerK, p) {
			return redact(val)
		}
	}
	if strings.HasPrefix(strings.ToLower(val), "bearer ") {
		parts := strings.SplitN(val, " ", 2)
		if len(parts) == 2 {
			return "Bearer " + redact(parts[1])
		}
	}
	if secretLike.MatchString(val) {
		return redact(val)
	}
	return val
}

func redact(s string) string {
	n := len(s)
	if n <= 8 {
		return "***"
	}
	return fmt.Sprintf("%s***%s", s[:4], s[n-4:])
}
