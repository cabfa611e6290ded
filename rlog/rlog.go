// Package rlog provides package-level leveled logging backed by zap.
package rlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar = newLogger().Sugar()
)

func newLogger() *zap.Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		level,
	)
	return zap.New(core)
}

func EnableDebug() {
	level.SetLevel(zapcore.DebugLevel)
}

func Debug(v ...any)                 { sugar.Debug(v...) }
func Debugf(format string, v ...any) { sugar.Debugf(format, v...) }

func Info(v ...any)                 { sugar.Info(v...) }
func Infof(format string, v ...any) { sugar.Infof(format, v...) }

func Warn(v ...any)                 { sugar.Warn(v...) }
func Warnf(format string, v ...any) { sugar.Warnf(format, v...) }

func Error(v ...any)                 { sugar.Error(v...) }
func Errorf(format string, v ...any) { sugar.Errorf(format, v...) }
