package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"CONFIG_FILE", "API_PORT", "LOG_LEVEL", "LOG_FORMAT",
	"STORE_BACKEND", "SPREADSHEET_ID", "SHEET_NAME", "SHEET_ID", "FIRST_COLUMN",
	"GOOGLE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS", "SQLITE_PATH", "STORE_TIMEOUT",
	"APP_PASSWORD", "APP_PASSWORD_HASH", "JWT_SECRET", "SESSION_TTL", "SECURE_COOKIES", "CORS_ORIGINS",
	"LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL", "LLM_TIMEOUT",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME",
	"QDRANT_URL", "QDRANT_API_KEY", "QDRANT_COLLECTION", "QDRANT_VECTOR_SIZE",
}

// clearEnv empties every config variable for the duration of the test and
// moves into a temp dir so no stray .env or bookshelf.toml is picked up.
func clearEnv(t *testing.T) string {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     string
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "sqlite defaults",
			env:  map[string]string{"STORE_BACKEND": "sqlite"},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.APIPort != "9000" || cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
					t.Errorf("ambient defaults = %q %v %q", cfg.APIPort, cfg.LogLevel, cfg.LogFormat)
				}
				if cfg.Location.SheetName != "Sheet1" || cfg.Location.SheetID != -1 || cfg.Location.FirstColumn != "A" || cfg.Location.LastColumn != "G" {
					t.Errorf("Location = %+v", cfg.Location)
				}
				if cfg.StoreTimeout != 10*time.Second || cfg.SessionTTL != 168*time.Hour || cfg.LLMTimeout != 30*time.Second {
					t.Errorf("timeouts = %v %v %v", cfg.StoreTimeout, cfg.SessionTTL, cfg.LLMTimeout)
				}
				if !cfg.SecureCookies {
					t.Error("SecureCookies should default to true")
				}
				if cfg.LLMModelName != "llama-3.3-70b-versatile" {
					t.Errorf("LLMModelName = %q", cfg.LLMModelName)
				}
				if cfg.SimilarEnabled() {
					t.Error("similar books should be disabled without QDRANT_URL")
				}
				if len(cfg.CORSOrigins) != 0 {
					t.Errorf("CORSOrigins = %v, want none", cfg.CORSOrigins)
				}
			},
		},
		{
			name: "sheets with credentials",
			env: map[string]string{
				"SPREADSHEET_ID":     "abc123",
				"SHEET_NAME":         "Books",
				"SHEET_ID":           "-1",
				"GOOGLE_CREDENTIALS": `{"type":"service_account"}`,
				"LOG_LEVEL":          "debug",
				"LOG_FORMAT":         "JSON",
				"CORS_ORIGINS":       "http://localhost:3000, https://books.example.com,",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.StoreBackend != BackendSheets {
					t.Errorf("StoreBackend = %q", cfg.StoreBackend)
				}
				if cfg.Location.SpreadsheetID != "abc123" || cfg.Location.SheetName != "Books" || cfg.Location.SheetID != -1 {
					t.Errorf("Location = %+v", cfg.Location)
				}
				if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
					t.Errorf("logging = %v %q", cfg.LogLevel, cfg.LogFormat)
				}
				if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://books.example.com" {
					t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
				}
			},
		},
		{
			name:    "sheets without spreadsheet id",
			env:     map[string]string{"GOOGLE_CREDENTIALS": "{}"},
			wantErr: "SPREADSHEET_ID",
		},
		{
			name:    "sheets without credentials",
			env:     map[string]string{"SPREADSHEET_ID": "abc"},
			wantErr: "GOOGLE_CREDENTIALS",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"STORE_BACKEND": "excel"},
			wantErr: "STORE_BACKEND",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"STORE_BACKEND": "sqlite", "LOG_LEVEL": "loud"},
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "bad timeout",
			env:     map[string]string{"STORE_BACKEND": "sqlite", "STORE_TIMEOUT": "soon"},
			wantErr: "STORE_TIMEOUT",
		},
		{
			name:    "qdrant without vector size",
			env:     map[string]string{"STORE_BACKEND": "sqlite", "QDRANT_URL": "http://localhost:6334"},
			wantErr: "QDRANT_VECTOR_SIZE is required",
		},
		{
			name:    "qdrant with invalid vector size",
			env:     map[string]string{"STORE_BACKEND": "sqlite", "QDRANT_URL": "http://localhost:6334", "QDRANT_VECTOR_SIZE": "0"},
			wantErr: "greater than 0",
		},
		{
			name: "qdrant enabled",
			env:  map[string]string{"STORE_BACKEND": "sqlite", "QDRANT_URL": "http://localhost:6334", "QDRANT_VECTOR_SIZE": "768"},
			checkConfig: func(t *testing.T, cfg *Config) {
				if !cfg.SimilarEnabled() || cfg.QdrantVectorSize != 768 || cfg.QdrantCollection != "books" {
					t.Errorf("qdrant = %q %d %q", cfg.QdrantURL, cfg.QdrantVectorSize, cfg.QdrantCollection)
				}
			},
		},
		{
			name: "sheet name without SHEET_ID resolves the tab by name",
			env: map[string]string{
				"SPREADSHEET_ID":     "abc123",
				"SHEET_NAME":         "Books",
				"GOOGLE_CREDENTIALS": "{}",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.Location.SheetName != "Books" || cfg.Location.SheetID != -1 {
					t.Errorf("Location = %+v, want Books resolved by name", cfg.Location)
				}
			},
		},
		{
			name: "explicit SHEET_ID 0 is kept",
			env:  map[string]string{"STORE_BACKEND": "sqlite", "SHEET_ID": "0"},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.Location.SheetID != 0 {
					t.Errorf("SheetID = %d, want 0", cfg.Location.SheetID)
				}
			},
		},
		{
			name:    "bad SHEET_ID",
			env:     map[string]string{"STORE_BACKEND": "sqlite", "SHEET_ID": "first"},
			wantErr: "SHEET_ID",
		},
		{
			name: "table starting at column C",
			env:  map[string]string{"STORE_BACKEND": "sqlite", "FIRST_COLUMN": "c"},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.Location.FirstColumn != "C" || cfg.Location.LastColumn != "I" {
					t.Errorf("Location = %s:%s, want C:I", cfg.Location.FirstColumn, cfg.Location.LastColumn)
				}
			},
		},
		{
			name:    "bad FIRST_COLUMN",
			env:     map[string]string{"STORE_BACKEND": "sqlite", "FIRST_COLUMN": "1"},
			wantErr: "FIRST_COLUMN",
		},
		{
			name:    "missing explicit config file",
			env:     map[string]string{"STORE_BACKEND": "sqlite", "CONFIG_FILE": "nope.toml"},
			wantErr: "read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := clearEnv(t)

	content := `
api_port = "8088"
log_format = "json"

[store]
backend = "sqlite"
sqlite_path = "books.db"
sheet_name = "Library"
timeout = "3s"

[auth]
session_ttl = "24h"
secure_cookies = false
cors_origins = ["http://localhost:5173"]

[qdrant]
url = "http://qdrant:6334"
vector_size = 384
`
	if err := os.WriteFile(filepath.Join(dir, "bookshelf.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("API_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != "9100" {
		t.Errorf("APIPort = %q, environment should win over the file", cfg.APIPort)
	}
	if cfg.LogFormat != "json" || cfg.StoreBackend != BackendSQLite || cfg.SQLitePath != "books.db" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Location.SheetName != "Library" || cfg.StoreTimeout != 3*time.Second || cfg.SessionTTL != 24*time.Hour {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.SecureCookies {
		t.Error("SecureCookies should be false from the file")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.QdrantURL != "http://qdrant:6334" || cfg.QdrantVectorSize != 384 {
		t.Errorf("qdrant = %q %d", cfg.QdrantURL, cfg.QdrantVectorSize)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := clearEnv(t)
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("api_port = [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := clearEnv(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("STORE_BACKEND=sqlite\nLLM_MODEL=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv does not override variables that are already set, even to "".
	os.Unsetenv("STORE_BACKEND")
	os.Unsetenv("LLM_MODEL")
	t.Cleanup(func() {
		os.Unsetenv("STORE_BACKEND")
		os.Unsetenv("LLM_MODEL")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMModelName != "from-dotenv" {
		t.Errorf("LLMModelName = %q, want value from .env", cfg.LLMModelName)
	}
}

func TestConfig_ValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "password and secret", cfg: Config{AppPassword: "pw", JWTSecret: "s"}},
		{name: "hash and secret", cfg: Config{AppPasswordHash: "$2a$10$x", JWTSecret: "s"}},
		{name: "no secret", cfg: Config{AppPassword: "pw"}, wantErr: true},
		{name: "no password", cfg: Config{JWTSecret: "s"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.ValidateServer(); (err != nil) != tt.wantErr {
				t.Errorf("ValidateServer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
