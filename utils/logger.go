package utils

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap sugared logger behind the printf-style surface the
// rest of the scraper is written against.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a new structured logger. JSON output in production,
// console output otherwise (APP_ENV).
func NewLogger() *Logger {
	var config zap.Config
	if os.Getenv("APP_ENV") == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a bare production logger rather than starting mute
		logger, _ = zap.NewProduction()
	}
	return &Logger{sugar: logger.Sugar()}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.sugar.Infof(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.sugar.Errorf(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugf(msg, args...)
}

// Sync flushes buffered log entries; call before exit.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}
