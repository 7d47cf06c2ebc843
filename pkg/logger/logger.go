package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	L     *zap.Logger
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = level
	var err error
	L, err = config.Build()
	if err != nil {
		panic(err)
	}
}

// SetLevel 依設定調整全域 log level，無法解析時維持原本的 level
func SetLevel(text string) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(text)); err != nil {
		L.Warn("unknown log level, keeping current", zap.String("level", text))
		return
	}
	level.SetLevel(lvl)
}

// WithComponent 回傳帶有 component 欄位的 logger，供 handler、service、worker、scheduler 使用
func WithComponent(component string) *zap.Logger {
	return L.With(zap.String("component", component))
}

// Sync 在程式結束前 flush 緩衝的 log
func Sync() {
	_ = L.Sync()
}
