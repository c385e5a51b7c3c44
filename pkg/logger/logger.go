package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

func init() {
	// 默认只输出到控制台，SetupLogger会升级为控制台+文件双输出
	core := zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stdout), zapcore.InfoLevel)
	sugar = zap.New(core, zap.AddCallerSkip(1)).Sugar()
}

func newEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// SetupLogger 初始化日志配置：同时输出到控制台和按日期命名的日志文件
func SetupLogger() error {
	// 创建日志目录
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %v", err)
	}

	// 生成当前日期的日志文件名
	logFileName := filepath.Join(logDir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %v", err)
	}

	level := parseLevel(os.Getenv("LOG_LEVEL"))

	// 控制台 + 文件双输出
	core := zapcore.NewTee(
		zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(newEncoder(), zapcore.AddSync(logFile), level),
	)

	sugar = zap.New(core, zap.AddCallerSkip(1)).Sugar()
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync 刷新缓冲的日志
func Sync() {
	_ = sugar.Sync()
}

// Debug 记录调试级别的日志
func Debug(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

// Info 记录信息级别的日志
func Info(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

// Warning 记录警告级别的日志
func Warning(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

// Error 记录错误级别的日志
func Error(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}
