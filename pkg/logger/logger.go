package logger

import (
	"fmt"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the process logger.
type Config struct {
	Level string // debug | info | warn | error
	Dev   bool   // console encoder with colored levels
	File  string // when set, logs are also written here with daily rotation
}

// Init builds the zap logger used across the service. In Dev mode output is
// human readable; otherwise JSON with ISO8601 timestamps. When Config.File is
// set, a rotating file sink is teed in alongside the console output. Rotated
// files keep a 28 day history and Config.File always points at the current one.
func Init(cfg Config) (*zap.Logger, error) {
	level := levelFromString(cfg.Level)

	var zapCfg zap.Config
	if cfg.Dev {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	}

	if cfg.File != "" {
		fileCore, err := newFileCore(cfg.File, level)
		if err != nil {
			return nil, fmt.Errorf("logger: file sink: %w", err)
		}
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	log, err := zapCfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}

// newFileCore writes JSON entries to path, rotating daily. The plain path is
// a symlink to the active segment so tailing survives rotation.
func newFileCore(path string, level zapcore.Level) (zapcore.Core, error) {
	writer, err := rotatelogs.New(
		path+".%Y-%m-%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(28*24*time.Hour),
	)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(writer),
		level,
	), nil
}

func levelFromString(s string) zapcore.Level {
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
