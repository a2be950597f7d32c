package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SupportedLevels lists the accepted values for the log level flag.
var SupportedLevels = []string{"debug", "info", "warn", "error"}

// New builds a logger writing to stderr. Format is "console" for humans or
// "json" for log collectors.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("unsupported log level %q, expected one of %s", level, strings.Join(SupportedLevels, ", "))
	}

	var encoderConfig zapcore.EncoderConfig
	switch format {
	case "", "console":
		format = "console"
		encoderConfig = zapcore.EncoderConfig{
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeName:     zapcore.FullNameEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			LevelKey:       "L",
			LineEnding:     "\n",
			MessageKey:     "M",
			NameKey:        "N",
			TimeKey:        "T",
		}
	case "json":
		encoderConfig = zapcore.EncoderConfig{
			CallerKey:      "caller",
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeName:     zapcore.FullNameEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			LevelKey:       "level",
			LineEnding:     "\n",
			MessageKey:     "message",
			NameKey:        "logger",
			StacktraceKey:  "stacktrace",
			TimeKey:        "@timestamp",
		}
	default:
		return nil, fmt.Errorf("unsupported log format %q, expected console or json", format)
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Development:       false,
		DisableCaller:     format == "console",
		DisableStacktrace: true,
		Encoding:          format,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	return config.Build()
}

// Sync returns a function flushing the logger, meant to be deferred.
func Sync(log *zap.Logger) func() {
	return func() {
		// stderr cannot always be synced, e.g. on a terminal
		_ = log.Sync()
	}
}
