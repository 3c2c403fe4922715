package utils

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the process logger: JSON on stderr, teed into LOG_FILE when
// that variable is set. LOG_LEVEL (debug, info, warn, error) sets the level.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		logger = newLogger(zapcore.Lock(os.Stderr), os.Getenv("LOG_FILE"), os.Getenv("LOG_LEVEL"))
	})
	return logger
}

// newLogger writes JSON lines to console and, when logFile is set, to that
// file as well.
func newLogger(console zapcore.WriteSyncer, logFile, level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if level != "" {
		if l, err := zapcore.ParseLevel(level); err == nil {
			lvl = l
		}
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)
	consoleCore := zapcore.NewCore(enc, console, lvl)
	if logFile == "" {
		return zap.New(consoleCore)
	}
	_ = os.MkdirAll(filepath.Dir(logFile), 0o755)
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zap.New(consoleCore)
	}
	fileCore := zapcore.NewCore(enc, zapcore.AddSync(f), lvl)
	return zap.New(zapcore.NewTee(fileCore, consoleCore))
}
