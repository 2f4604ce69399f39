package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Web      WebConfig      `yaml:"web"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Seed     SeedConfig     `yaml:"seed"`
}

type ServerConfig struct {
	IP        string `yaml:"ip"`
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	StaticDir string `yaml:"static_dir"`
}

type DatabaseConfig struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

// AuthConfig 会话存储配置
type AuthConfig struct {
	Store StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Type   string          `yaml:"type"`
	Expiry time.Duration   `yaml:"expiry"`
	Redis  AuthRedisStore  `yaml:"redis,omitempty"`
	Memory AuthMemoryStore `yaml:"memory,omitempty"`
}

type AuthRedisStore struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type AuthMemoryStore struct {
	Cleanup time.Duration `yaml:"cleanup"`
}

// SeedConfig 启动时批量导入的数据源
type SeedConfig struct {
	SubscribersFile string `yaml:"subscribers_file"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir: "./web",
		},
		Database: DatabaseConfig{
			Dir:  "./data",
			File: "abonados.db",
		},
		Auth: AuthConfig{
			Store: StoreConfig{
				Type:   "memory",
				Expiry: 24 * time.Hour,
			},
		},
	}
}
