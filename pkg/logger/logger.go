package logger

import (
	"io"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzap "github.com/hertz-contrib/logger/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ContactBook/config"
)

var (
	// Init 之前为 Nop，测试中无需初始化
	Logger = zap.NewNop()
	output io.Closer
)

type level struct {
	zap  zapcore.Level
	hlog hlog.Level
}

var levels = map[string]level{
	"DEBUG": {zapcore.DebugLevel, hlog.LevelDebug},
	"INFO":  {zapcore.InfoLevel, hlog.LevelInfo},
	"WARN":  {zapcore.WarnLevel, hlog.LevelWarn},
	"ERROR": {zapcore.ErrorLevel, hlog.LevelError},
}

func levelOf(name string) level {
	if l, ok := levels[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return l
	}
	return levels["INFO"]
}

// Init 构建 zap logger 并接管 hertz 的 hlog，日志文件打不开时退回 stderr
func Init() {
	cfg := &config.Cfg

	ws, closer, openErr := openOutput(cfg.LoggerOutputPath)
	if openErr != nil {
		ws = zapcore.Lock(os.Stderr)
	}
	output = closer

	lvl := levelOf(cfg.LoggerLevel)
	hz := hertzzap.NewLogger(
		hertzzap.WithCoreEnc(newEncoder(consoleFormat(cfg))),
		hertzzap.WithCoreWs(ws),
		hertzzap.WithCoreLevel(zap.NewAtomicLevelAt(lvl.zap)),
		hertzzap.WithZapOptions(
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
			zap.Fields(
				zap.String("service", cfg.ServiceName),
				zap.String("env", cfg.Environment),
			),
		),
	)
	hlog.SetLogger(hz)
	hlog.SetLevel(lvl.hlog)
	Logger = hz.Logger()

	if openErr != nil {
		Logger.Warn("Failed to open log output, writing to stderr",
			zap.String("path", cfg.LoggerOutputPath),
			zap.Error(openErr),
		)
	}
	Logger.Info("Logger ready",
		zap.Stringer("level", lvl.zap),
		zap.String("format", cfg.LoggerFormat),
	)
}

func Sync() {
	_ = Logger.Sync()
	if output != nil {
		_ = output.Close()
	}
}

// consoleFormat 开发环境总是用彩色文本
func consoleFormat(cfg *config.Config) bool {
	return cfg.IsDevelopment() || strings.EqualFold(cfg.LoggerFormat, "text")
}

func newEncoder(console bool) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder

	if console {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(ec)
}

// openOutput stdout/stderr 直接使用，其他值视为追加写入的文件路径
func openOutput(path string) (zapcore.WriteSyncer, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(path)) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil, nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return zapcore.AddSync(f), f, nil
}
