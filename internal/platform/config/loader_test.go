package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_Load(t *testing.T) {
	// 创建临时配置文件
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	configContent := `
server:
  ip: "127.0.0.1"
  port: 9090
  jwt_secret: "test-secret"
log:
  log_level: "debug"
  log_dir: "/tmp/logs"
  log_file: "test.log"
auth:
  store:
    type: "memory"
    expiry: 1h
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader().WithDotEnv(false).WithPath(configFile)
	result, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cfg := result.Config
	if cfg.Server.IP != "127.0.0.1" {
		t.Errorf("expected server IP 127.0.0.1, got %s", cfg.Server.IP)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.JWTSecret != "test-secret" {
		t.Errorf("expected jwt secret test-secret, got %s", cfg.Server.JWTSecret)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Auth.Store.Type != "memory" {
		t.Errorf("expected auth store memory, got %s", cfg.Auth.Store.Type)
	}
	if result.Path != configFile {
		t.Errorf("expected path %s, got %s", configFile, result.Path)
	}
}

func TestLoader_Load_MissingFileUsesDefaults(t *testing.T) {
	loader := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "missing.yaml"))
	result, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if result.Path != "" {
		t.Errorf("expected empty path for defaults, got %s", result.Path)
	}
	if result.Config.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", result.Config.Server.Port)
	}
	if result.Config.Database.File != "abonados.db" {
		t.Errorf("expected default database file, got %s", result.Config.Database.File)
	}
}

func TestLoader_Load_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "env-secret")

	loader := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "missing.yaml"))
	result, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if result.Config.Server.Port != 7070 {
		t.Errorf("expected PORT override 7070, got %d", result.Config.Server.Port)
	}
	if result.Config.Server.JWTSecret != "env-secret" {
		t.Errorf("expected JWT_SECRET override, got %s", result.Config.Server.JWTSecret)
	}
}

func TestLoader_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  &Config{Server: ServerConfig{Port: 8080}},
			wantErr: false,
		},
		{
			name:    "invalid server port",
			config:  &Config{Server: ServerConfig{Port: 70000}},
			wantErr: true,
		},
		{
			name:    "zero port",
			config:  &Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
