package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/cwrk-planet/chat-service/internal/postgres"
)

// EnvPrefix: префикс переопределений из окружения: CHAT_HTTP_ADDR, CHAT_SECURITY_JWT_SECRET, ...
const EnvPrefix = "chat"

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

type HTTP struct {
	Addr            string        `yaml:"addr"`                               // ":8080"
	ReadTimeout     time.Duration `yaml:"readTimeout" split_words:"true"`     // "15s"
	WriteTimeout    time.Duration `yaml:"writeTimeout" split_words:"true"`    // "30s"
	IdleTimeout     time.Duration `yaml:"idleTimeout" split_words:"true"`     // "60s"
	RequestTimeout  time.Duration `yaml:"requestTimeout" split_words:"true"`  // "30s"
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"` // "10s"
	AllowedOrigins  []string      `yaml:"allowedOrigins" split_words:"true"`  // CORS и WS Origin
}

type GRPC struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`                          // dev|stage|prod
	Service   string `yaml:"service"`                      // chat-service
	Version   string `yaml:"version"`                      // v0.1.0
	Backend   string `yaml:"backend"`                      // std|zap
	AddSource bool   `yaml:"addSource" split_words:"true"` // false|true
	Debug     bool   `yaml:"debug"`                        // false|true
}

type Storage struct {
	Driver string `yaml:"driver"` // postgres|badger
}

type Postgres struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns" split_words:"true"`
	MinConns          int32         `yaml:"minConns" split_words:"true"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime" split_words:"true"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime" split_words:"true"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod" split_words:"true"`
	ApplicationName   string        `yaml:"applicationName" split_words:"true"`
	StatementTimeout  time.Duration `yaml:"statementTimeout" split_words:"true"`
	TxTimeout         time.Duration `yaml:"txTimeout" split_words:"true"`
	Migrate           bool          `yaml:"migrate"` // goose up при старте
}

func (p Postgres) Validate() error {
	if p.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if p.MinConns > 0 && p.MaxConns > 0 && p.MinConns > p.MaxConns {
		return errors.New("postgres.minConns must be <= maxConns")
	}

	return nil
}

func (p Postgres) ToPGConfig() postgres.Config {
	return postgres.Config{
		DSN:               p.DSN,
		MaxConns:          p.MaxConns,
		MinConns:          p.MinConns,
		MaxConnLifetime:   p.MaxConnLifetime,
		MaxConnIdleTime:   p.MaxConnIdleTime,
		HealthCheckPeriod: p.HealthCheckPeriod,
		ApplicationName:   p.ApplicationName,
		StatementTimeout:  p.StatementTimeout,
	}
}

type Badger struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"inMemory" split_words:"true"`
}

type Password struct {
	MinLength  int `yaml:"minLength" split_words:"true"`
	BcryptCost int `yaml:"bcryptCost" split_words:"true"`
}

func (p Password) Validate() error {
	if p.MinLength < 6 {
		return errors.New("security.password.minLength must be >= 6")
	}
	if p.BcryptCost != 0 && (p.BcryptCost < 4 || p.BcryptCost > 18) {
		return errors.New("security.password.bcryptCost must be in [4..18]")
	}

	return nil
}

type JWT struct {
	Secret    string        `yaml:"secret"`                       // обязательно, лучше из CHAT_SECURITY_JWT_SECRET
	Issuer    string        `yaml:"issuer"`                       // обязательно
	Audience  string        `yaml:"audience"`                     // по желанию
	TTL       time.Duration `yaml:"ttl"`                          // напр. 24h
	ClockSkew time.Duration `yaml:"clockSkew" split_words:"true"` // напр. 30s
}

func (j JWT) Validate() error {
	if len(j.Secret) < 16 {
		return errors.New("security.jwt.secret must be at least 16 bytes")
	}
	if j.Issuer == "" {
		return errors.New("security.jwt.issuer is required")
	}
	if j.TTL <= 0 {
		return errors.New("security.jwt.ttl must be > 0")
	}
	if j.ClockSkew < 0 || j.ClockSkew > time.Minute {
		return errors.New("security.jwt.clockSkew must be in [0..1m]")
	}

	return nil
}

type Security struct {
	Password Password `yaml:"password"`
	JWT      JWT      `yaml:"jwt"`
}

func (s Security) Validate() error {
	if err := s.Password.Validate(); err != nil {
		return err
	}
	if err := s.JWT.Validate(); err != nil {
		return err
	}

	return nil
}

type Invites struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweepInterval" split_words:"true"`
}

type WS struct {
	PingEvery    time.Duration `yaml:"pingEvery" split_words:"true"`
	WriteTimeout time.Duration `yaml:"writeTimeout" split_words:"true"`
	SendBuffer   int           `yaml:"sendBuffer" split_words:"true"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Storage  Storage  `yaml:"storage"`
	Postgres Postgres `yaml:"postgres"`
	Badger   Badger   `yaml:"badger"`
	Security Security `yaml:"security"`
	Invites  Invites  `yaml:"invites"`
	WS       WS       `yaml:"ws"`
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}
	switch c.Storage.Driver {
	case DriverPostgres:
		if err := c.Postgres.Validate(); err != nil {
			return err
		}
	case DriverBadger:
		if c.Badger.Path == "" && !c.Badger.InMemory {
			return errors.New("badger.path is required unless badger.inMemory is set")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverBadger, c.Storage.Driver)
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	if c.Invites.TTL <= 0 {
		return errors.New("invites.ttl must be > 0")
	}

	return nil
}

// установка дефолтов, если значения не указаны
func (c *Config) applyDefaults() {
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverPostgres
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Postgres.TxTimeout == 0 {
		c.Postgres.TxTimeout = 5 * time.Second
	}
	if c.Security.Password.MinLength == 0 {
		c.Security.Password.MinLength = 8
	}
	if c.Security.JWT.TTL == 0 {
		c.Security.JWT.TTL = 24 * time.Hour
	}
	if c.Invites.TTL == 0 {
		c.Invites.TTL = time.Hour
	}
	if c.Invites.SweepInterval == 0 {
		c.Invites.SweepInterval = time.Minute
	}
	if c.WS.PingEvery == 0 {
		c.WS.PingEvery = 15 * time.Second
	}
	if c.WS.WriteTimeout == 0 {
		c.WS.WriteTimeout = 5 * time.Second
	}
	if c.WS.SendBuffer == 0 {
		c.WS.SendBuffer = 64
	}
}

// LoadConfig: YAML (CONFIG_PATH или ./config/config.yaml) -> .env -> CHAT_* -> дефолты -> валидация.
func LoadConfig(path ...string) (*Config, error) {
	filename := os.Getenv("CONFIG_PATH")
	if len(path) > 0 && strings.TrimSpace(path[0]) != "" {
		filename = path[0]
	}
	if filename == "" {
		filename = "./config/config.yaml"
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
