package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is nil until Init; the helpers below are no-ops until then.
var Log *zap.SugaredLogger

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a zap
// level. Anything else is info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ValidLevel reports whether ParseLevel recognises level. Empty counts as
// valid and means info.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Init builds the global logger. Logs go to file when set, otherwise to
// stderr so they do not interleave with chat output on stdout.
func Init(level string, file string) error {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	sink := "stderr"
	if f := strings.TrimSpace(file); f != "" {
		sink = f
	}
	cfg.OutputPaths = []string{sink}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log sink %s: %v\n", sink, err)
		return err
	}
	Log = l.Sugar()
	return nil
}

// Use installs an existing logger, e.g. zaptest or zap.NewNop in tests.
func Use(l *zap.Logger) {
	if l == nil {
		Log = nil
		return
	}
	Log = l.Sugar()
}

func Sync() {
	if Log == nil {
		return
	}
	_ = Log.Sync()
}

func Debug(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Debugw(msg, args...)
}

func Info(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Infow(msg, args...)
}

func Warn(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Warnw(msg, args...)
}

func Error(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Errorw(msg, args...)
}
