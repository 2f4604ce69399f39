package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from an optional yaml file, then applies
// environment overrides.
type Loader struct {
	useDotEnv bool
	path      string
}

// NewLoader creates a loader that reads ./config.yaml by default.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		path:      "config.yaml",
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the configuration file location (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration. A missing config file is not an
// error; defaults plus environment variables apply.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("未找到 .env 文件，使用系统环境变量")
		}
	}

	path := l.path
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		path = envPath
	}

	cfg := Default()
	loadedFrom := ""
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
		loadedFrom = path
	case os.IsNotExist(err):
		// 无配置文件时使用默认配置
	default:
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &Result{
		Config: cfg,
		Path:   loadedFrom,
	}, nil
}

func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}
	if dir := os.Getenv("DATABASE_DIR"); dir != "" {
		cfg.Database.Dir = dir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if seed := os.Getenv("SEED_FILE"); seed != "" {
		cfg.Seed.SubscribersFile = seed
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的端口号: %d", cfg.Server.Port)
	}
	return nil
}
