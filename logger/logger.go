// Package logger provides structured logging for storecore.
//
// It wraps Uber's zap logger and exposes a global instance configured once at
// startup. The log level is supplied by configuration (LOG_LEVEL).
//
//	logger.InitLogger("debug") // Options: debug, info, warn, error
//
//	logger.Log.Info("code issued",
//	    zap.String("email", email),
//	)
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger

func InitLogger(level string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	Log, err = cfg.Build()
	if err != nil {
		panic(err)
	}
}
