package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port            int           `yaml:"port" toml:"port"`
	GRPCPort        int           `yaml:"grpc_port" toml:"grpc_port"`
	CORSOrigin      string        `yaml:"cors_origin" toml:"cors_origin"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // postgres | mongo | memory
	URL    string `yaml:"url" toml:"url"`
	Name   string `yaml:"name" toml:"name"` // mongo database name
	Debug  bool   `yaml:"debug" toml:"debug"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
	Required  bool   `yaml:"required" toml:"required"`
}

type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size" toml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size" toml:"max_page_size"`
}

type EmailConfig struct {
	Enabled      bool     `yaml:"enabled" toml:"enabled"`
	SMTPHost     string   `yaml:"smtp_host" toml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port" toml:"smtp_port"`
	SMTPUser     string   `yaml:"smtp_user" toml:"smtp_user"`
	SMTPPassword string   `yaml:"smtp_password" toml:"smtp_password"`
	FromEmail    string   `yaml:"from_email" toml:"from_email"`
	To           []string `yaml:"to" toml:"to"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	BotToken string `yaml:"bot_token" toml:"bot_token"`
	ChatID   int64  `yaml:"chat_id" toml:"chat_id"`
}

type ReportsConfig struct {
	FontPath string `yaml:"font_path" toml:"font_path"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server" toml:"server"`
	Database   DatabaseConfig   `yaml:"database" toml:"database"`
	Auth       AuthConfig       `yaml:"auth" toml:"auth"`
	Pagination PaginationConfig `yaml:"pagination" toml:"pagination"`
	Email      EmailConfig      `yaml:"email" toml:"email"`
	Telegram   TelegramConfig   `yaml:"telegram" toml:"telegram"`
	Reports    ReportsConfig    `yaml:"reports" toml:"reports"`
}

// Load reads .env (if any), the config file, then environment overrides, and fills defaults.
// A missing file at the default path is not an error; the service then runs on env and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config][env][warn] %v", err)
	}

	var cfg Config
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := decodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Printf("[config] %s not found, using environment and defaults", path)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	case ".yaml", ".yml", "":
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

func applyEnv(cfg *Config) error {
	for _, v := range []struct {
		key string
		dst *int
	}{
		{"PORT", &cfg.Server.Port},
		{"GRPC_PORT", &cfg.Server.GRPCPort},
	} {
		if raw, ok := os.LookupEnv(v.key); ok && raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", v.key, err)
			}
			*v.dst = n
		}
	}
	for key, dst := range map[string]*string{
		"DB_DRIVER":          &cfg.Database.Driver,
		"DATABASE_URL":       &cfg.Database.URL,
		"DB_NAME":            &cfg.Database.Name,
		"JWT_SECRET":         &cfg.Auth.JWTSecret,
		"TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
		"SMTP_PASSWORD":      &cfg.Email.SMTPPassword,
	} {
		if raw, ok := os.LookupEnv(key); ok && raw != "" {
			*dst = raw
		}
	}
	if raw, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok && raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.Name == "" {
		c.Database.Name = "taskfigma"
	}
	if c.Pagination.DefaultPageSize <= 0 {
		c.Pagination.DefaultPageSize = 12
	}
	if c.Pagination.MaxPageSize <= 0 {
		c.Pagination.MaxPageSize = 100
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mongo":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for driver %q", c.Database.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		return errors.New("pagination.max_page_size is below default_page_size")
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return errors.New("auth.required needs auth.jwt_secret")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return errors.New("telegram.enabled needs bot_token and chat_id")
	}
	if c.Email.Enabled && (c.Email.SMTPHost == "" || len(c.Email.To) == 0) {
		return errors.New("email.enabled needs smtp_host and at least one recipient")
	}
	return nil
}
