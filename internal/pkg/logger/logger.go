package logger

import (
	"fmt"
	"os"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置
type Config struct {
	Level      string
	Format     string // json | console
	Output     string // stdout | file
	FilePath   string
	MaxSize    int // 单个日志文件最大尺寸(MB)
	MaxAge     int // 日志保留天数
	MaxBackups int
	Compress   bool
}

// zapLogger 基于 zap 实现 kratos log.Logger 接口
type zapLogger struct {
	log *zap.Logger
}

// NewLogger 创建 logger
func NewLogger(c *Config) log.Logger {
	level := zapcore.InfoLevel
	if c != nil && c.Level != "" {
		if l, err := zapcore.ParseLevel(c.Level); err == nil {
			level = l
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if c != nil && c.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var ws zapcore.WriteSyncer
	if c != nil && c.Output == "file" && c.FilePath != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    c.MaxSize,
			MaxAge:     c.MaxAge,
			MaxBackups: c.MaxBackups,
			Compress:   c.Compress,
		})
	} else {
		ws = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(encoder, ws, level)
	return &zapLogger{log: zap.New(core)}
}

// Log 按 kratos 的 keyvals 约定输出日志
func (l *zapLogger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 || len(keyvals)%2 != 0 {
		l.log.Warn(fmt.Sprint("keyvalues must appear in pairs: ", keyvals))
		return nil
	}

	fields := make([]zap.Field, 0, len(keyvals)/2)
	var msg string
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}

	switch level {
	case log.LevelDebug:
		l.log.Debug(msg, fields...)
	case log.LevelInfo:
		l.log.Info(msg, fields...)
	case log.LevelWarn:
		l.log.Warn(msg, fields...)
	case log.LevelError:
		l.log.Error(msg, fields...)
	case log.LevelFatal:
		l.log.Fatal(msg, fields...)
	default:
		l.log.Info(msg, fields...)
	}
	return nil
}
