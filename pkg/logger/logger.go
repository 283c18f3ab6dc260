// Package logger holds the process logger shared by the syncgen tools and runtime.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured logging.
const (
	FieldClass     = "class"
	FieldMember    = "member"
	FieldCallID    = "call_id"
	FieldComponent = "component"
	FieldCount     = "count"
	FieldError     = "error"
	FieldPackage   = "package"
	FieldReason    = "reason"
	FieldState     = "state"
)

// Logger is the global logger instance.
var Logger *zap.SugaredLogger

func init() {
	// No-op until Initialize so packages can log unconditionally.
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. format is "console" or "json";
// level is any zap level name ("debug", "info", "warn", "error").
// Output always goes to stderr: stdout carries generated source.
func Initialize(format, level string) error {
	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return err
		}
	}

	var zapLogger *zap.Logger
	if strings.EqualFold(format, "json") {
		config := zap.NewProductionConfig()
		config.Level = lvl
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		var err error
		zapLogger, err = config.Build()
		if err != nil {
			return err
		}
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.TimeKey = ""
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapLogger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stderr),
			lvl,
		))
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Named returns a child of the global logger tagged with a component name.
func Named(component string) *zap.SugaredLogger {
	return Logger.Named(component)
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
