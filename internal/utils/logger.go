package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogLevel  = "info"
	logDirectoryMode = 0o755

	// DefaultLogMaxSizeMB is the size at which the log file is rotated.
	DefaultLogMaxSizeMB = 10
	// DefaultLogMaxBackups is the number of rotated log files kept.
	DefaultLogMaxBackups = 3
	// DefaultLogMaxAgeDays is the age after which rotated log files are removed.
	DefaultLogMaxAgeDays = 28
)

// LoggerOptions configures the application logger. An empty FilePath keeps
// logging on the console only. Rotation settings of zero use the defaults.
type LoggerOptions struct {
	Level      string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewApplicationLogger constructs a zap logger configured for human-readable console output
// on stderr. When options.FilePath is set, entries are also written as JSON to a rotated file.
func NewApplicationLogger(options LoggerOptions) (*zap.Logger, error) {
	levelText := strings.TrimSpace(options.Level)
	if levelText == "" {
		levelText = defaultLogLevel
	}
	level, levelError := zapcore.ParseLevel(levelText)
	if levelError != nil {
		return nil, fmt.Errorf("parse log level %q: %w", options.Level, levelError)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.LevelKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""

	if strings.TrimSpace(options.FilePath) == "" {
		return config.Build()
	}

	fileCore, fileCoreError := newRotatingFileCore(options, level)
	if fileCoreError != nil {
		return nil, fileCoreError
	}
	return config.Build(zap.WrapCore(func(consoleCore zapcore.Core) zapcore.Core {
		return zapcore.NewTee(consoleCore, fileCore)
	}))
}

func newRotatingFileCore(options LoggerOptions, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(filepath.Dir(options.FilePath), logDirectoryMode); err != nil {
		return nil, fmt.Errorf("create log directory for %s: %w", options.FilePath, err)
	}
	fileWriter := &lumberjack.Logger{
		Filename:   options.FilePath,
		MaxSize:    valueOrDefault(options.MaxSizeMB, DefaultLogMaxSizeMB),
		MaxBackups: valueOrDefault(options.MaxBackups, DefaultLogMaxBackups),
		MaxAge:     valueOrDefault(options.MaxAgeDays, DefaultLogMaxAgeDays),
		Compress:   true,
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(fileWriter), level), nil
}

func valueOrDefault(value int, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
