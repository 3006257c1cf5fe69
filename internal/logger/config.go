package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Backend string

const (
	BackendStd Backend = "std" // text в dev
	BackendZap Backend = "zap" // JSON через slog-zap
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

type Config struct {
	Service    string
	Version    string
	InstanceID string

	Level   slog.Level
	Env     Env
	Backend Backend // по умолчанию: zap для stage/prod, std для dev
	Debug   bool

	// Zap sampling
	SampleInitial    int
	SampleThereafter int

	AddSource bool

	// Output, по умолчанию os.Stdout
	Output io.Writer
}

func (c Config) level() slog.Level {
	if c.Debug && c.Level == 0 {
		return slog.LevelDebug
	}
	return c.Level
}

func (c Config) output() io.Writer {
	if c.Output == nil {
		return os.Stdout
	}
	return c.Output
}

// DetectEnv читает APP_ENV.
func DetectEnv() Env {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))) {
	case "prod", "production":
		return EnvProd
	case "stage", "staging", "preprod", "pre-production":
		return EnvStage
	default:
		return EnvDev
	}
}

// ParseEnv нормализует значение из конфига; пустое значение уходит в DetectEnv.
func ParseEnv(raw string) Env {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return DetectEnv()
	case "prod", "production":
		return EnvProd
	case "stage", "staging":
		return EnvStage
	default:
		return EnvDev
	}
}
