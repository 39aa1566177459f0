package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 是全局结构化日志实例，Init 之前为 no-op。
var Logger = zap.NewNop()

// Init 初始化 JSON 格式的 zap 日志，按大小滚动归档。
// logPath 为空时仅输出到标准输出。
func Init(logPath string) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.InfoLevel),
	}

	if logPath != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    50, // MB
			MaxBackups: 7,
			MaxAge:     14, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(encoder, writer, zap.InfoLevel))
	}

	Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// Sync 刷出缓冲日志，进程退出前调用。
func Sync() {
	_ = Logger.Sync()
}
