// =============================================================================
// 📝 GeminiFlow 日志
// =============================================================================
// 根据 config.LogConfig 构建 zap.Logger。
// stdout / stderr 直接输出，其余路径视为文件，经 lumberjack 按大小滚动。
// =============================================================================
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/geminiflow/config"
)

// ParseLevel 解析日志级别，未知值回落到 info
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func encoderFor(format string) zapcore.Encoder {
	if format == "console" {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(ec)
}

// sinks 解析输出路径；文件路径使用滚动写入器
func sinks(cfg config.LogConfig) []zapcore.WriteSyncer {
	paths := cfg.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stderr"}
	}
	out := make([]zapcore.WriteSyncer, 0, len(paths))
	for _, p := range paths {
		switch p {
		case "stdout":
			out = append(out, zapcore.Lock(os.Stdout))
		case "stderr":
			out = append(out, zapcore.Lock(os.Stderr))
		default:
			out = append(out, zapcore.AddSync(&lumberjack.Logger{
				Filename:   p,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			}))
		}
	}
	return out
}

// New 构建进程级 logger
func New(cfg config.LogConfig) (*zap.Logger, error) {
	switch cfg.Format {
	case "", "json", "console":
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	core := zapcore.NewCore(
		encoderFor(cfg.Format),
		zapcore.NewMultiWriteSyncer(sinks(cfg)...),
		zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
	)

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

// MustNew 构建失败时回退到 zap.NewProduction
func MustNew(cfg config.LogConfig) *zap.Logger {
	logger, err := New(cfg)
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("invalid log config, falling back to production logger", zap.Error(err))
	}
	return logger
}
