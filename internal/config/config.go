package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port      int    `yaml:"port"`       // public checkout API
	AdminPort int    `yaml:"admin_port"` // admin API + /metrics
	BaseURL   string `yaml:"base_url"`   // public origin, used to build redirect URLs
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type MercadoPagoConfig struct {
	PublicKey       string `yaml:"public_key"`
	AccessToken     string `yaml:"access_token"`
	Sandbox         bool   `yaml:"sandbox"`
	SuccessPath     string `yaml:"success_path"`
	FailurePath     string `yaml:"failure_path"`
	WebhookPath     string `yaml:"webhook_path"`
	WidgetContainer string `yaml:"widget_container"` // DOM element id the storefront page provides
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type ProvisionerConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type AdminConfig struct {
	APIKey     string        `yaml:"api_key"`     // login credential
	JWTSecret  string        `yaml:"jwt_secret"`  // HS256 session secret
	SessionTTL time.Duration `yaml:"session_ttl"` // default 30m
}

type ReconcilerConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"` // background sweep cadence
	StaleAfter    time.Duration `yaml:"stale_after"`    // pending payments older than this get re-verified
	Workers       int           `yaml:"workers"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	MercadoPago MercadoPagoConfig `yaml:"mercadopago"`
	Mail        MailConfig        `yaml:"mail"`
	Provisioner ProvisionerConfig `yaml:"provisioner"`
	Admin       AdminConfig       `yaml:"admin"`
	Reconciler  ReconcilerConfig  `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AdminPort == 0 {
		cfg.Server.AdminPort = 8081
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.MercadoPago.SuccessPath == "" {
		cfg.MercadoPago.SuccessPath = "/pago/exito"
	}
	if cfg.MercadoPago.FailurePath == "" {
		cfg.MercadoPago.FailurePath = "/pago/error"
	}
	if cfg.MercadoPago.WebhookPath == "" {
		cfg.MercadoPago.WebhookPath = "/api/v1/pagos/webhook"
	}
	if cfg.MercadoPago.WidgetContainer == "" {
		cfg.MercadoPago.WidgetContainer = "mp-wallet-container"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Reconciler.SweepInterval <= 0 {
		cfg.Reconciler.SweepInterval = 5 * time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}
	if cfg.Reconciler.Workers <= 0 {
		cfg.Reconciler.Workers = 4
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if !dev && cfg.MercadoPago.AccessToken == "" {
		return nil, errors.New("mercadopago.access_token is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
