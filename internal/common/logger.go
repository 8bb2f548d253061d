package common

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

// GetLogger returns the process-wide logger. Call InitLog once at startup.
func GetLogger() *zap.Logger {
	if logger == nil {
		InitLog()
	}
	return logger
}

// InitLog configures the zap logger with a lumberjack-backed rotating
// writer when LOG_PATH is set, otherwise logs to stderr.
func InitLog() {
	logPath := os.Getenv("LOG_PATH")

	var writeSyncer zapcore.WriteSyncer
	if logPath != "" {
		writeSyncer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10,
			MaxBackups: 10,
			MaxAge:     7,
			LocalTime:  true,
		})
	} else {
		writeSyncer = zapcore.AddSync(os.Stderr)
	}

	customTimeEncoder := func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Local().Format("2006-01-02 15:04:05.000"))
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		CallerKey:      "C",
		NameKey:        "N",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	level := zapcore.InfoLevel
	if os.Getenv("FLEETOPS_DEBUG") != "" {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	logger = zap.New(core, zap.AddCaller())
}
