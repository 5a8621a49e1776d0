package config

import (
	"fmt"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It discards everything until InitLogger runs.
var Logger = zap.NewNop()

// InitLogger initializes the Zap logger with Lumberjack log rotation in the
// LOG_DIR folder (default "logs"). LOG_LEVEL selects the minimum level.
func InitLogger() *zap.Logger {
	logDir := GetEnvDefault("LOG_DIR", "logs")
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		panic(fmt.Sprintf("Failed to create logs directory: %v", err))
	}

	logFile := &lumberjack.Logger{
		Filename:   fmt.Sprintf("%s/%s.log", logDir, time.Now().Format("2006-01-02")),
		MaxSize:    10, // Megabytes
		MaxBackups: 7,
		MaxAge:     28, // Days
		Compress:   true,
	}

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(GetEnvDefault("LOG_LEVEL", "info"))); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(logFile), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(os.Stdout), level),
	)

	Logger = zap.New(core, zap.AddCaller())
	return Logger
}
