package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger writes JSON logs to a rotating file under logDir and to stdout.
func NewLogger(logDir, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "walk.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	enc := zapcore.NewJSONEncoder(cfg)
	core := zapcore.NewTee(
		zapcore.NewCore(enc, file, lvl),
		zapcore.NewCore(enc.Clone(), zapcore.Lock(os.Stdout), lvl),
	)
	return zap.New(core), nil
}
