package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"bookshelf/internal/tabular"
)

// Store backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

const defaultConfigFile = "bookshelf.toml"

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	StoreBackend string
	// Location addresses the book table in the spreadsheet (or the local sheet for SQLite).
	Location              tabular.Location
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	SQLitePath            string
	StoreTimeout          time.Duration

	AppPassword     string
	AppPasswordHash string
	JWTSecret       string
	SessionTTL      time.Duration
	SecureCookies   bool
	// CORSOrigins are browser origins allowed to call the API with credentials.
	CORSOrigins []string

	LLMBaseURL         string
	LLMAPIKey          string
	LLMModelName       string
	LLMTimeout         time.Duration
	EmbeddingBaseURL   string
	EmbeddingModelName string

	// QdrantURL empty disables similar books.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	QdrantVectorSize int
}

// fileConfig is the layout of bookshelf.toml. Every value is optional and is
// overridden by the matching environment variable.
type fileConfig struct {
	APIPort   string `toml:"api_port"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Store struct {
		Backend       string `toml:"backend"`
		SpreadsheetID string `toml:"spreadsheet_id"`
		SheetName     string `toml:"sheet_name"`
		SheetID       *int64 `toml:"sheet_id"`
		FirstColumn   string `toml:"first_column"`
		Credentials   string `toml:"credentials_file"`
		SQLitePath    string `toml:"sqlite_path"`
		Timeout       string `toml:"timeout"`
	} `toml:"store"`

	Auth struct {
		PasswordHash  string   `toml:"password_hash"`
		SessionTTL    string   `toml:"session_ttl"`
		SecureCookies *bool    `toml:"secure_cookies"`
		CORSOrigins   []string `toml:"cors_origins"`
	} `toml:"auth"`

	LLM struct {
		BaseURL string `toml:"base_url"`
		Model   string `toml:"model"`
		Timeout string `toml:"timeout"`
	} `toml:"llm"`

	Embedding struct {
		BaseURL string `toml:"base_url"`
		Model   string `toml:"model"`
	} `toml:"embedding"`

	Qdrant struct {
		URL        string `toml:"url"`
		Collection string `toml:"collection"`
		VectorSize int    `toml:"vector_size"`
	} `toml:"qdrant"`
}

// values flattens the file into environment variable names.
func (f fileConfig) values() map[string]string {
	v := map[string]string{
		"API_PORT":                       f.APIPort,
		"LOG_LEVEL":                      f.LogLevel,
		"LOG_FORMAT":                     f.LogFormat,
		"STORE_BACKEND":                  f.Store.Backend,
		"SPREADSHEET_ID":                 f.Store.SpreadsheetID,
		"SHEET_NAME":                     f.Store.SheetName,
		"FIRST_COLUMN":                   f.Store.FirstColumn,
		"GOOGLE_APPLICATION_CREDENTIALS": f.Store.Credentials,
		"SQLITE_PATH":                    f.Store.SQLitePath,
		"STORE_TIMEOUT":                  f.Store.Timeout,
		"APP_PASSWORD_HASH":              f.Auth.PasswordHash,
		"SESSION_TTL":                    f.Auth.SessionTTL,
		"LLM_BASE_URL":                   f.LLM.BaseURL,
		"LLM_MODEL":                      f.LLM.Model,
		"LLM_TIMEOUT":                    f.LLM.Timeout,
		"EMBEDDING_BASE_URL":             f.Embedding.BaseURL,
		"EMBEDDING_MODEL_NAME":           f.Embedding.Model,
		"QDRANT_URL":                     f.Qdrant.URL,
		"QDRANT_COLLECTION":              f.Qdrant.Collection,
	}
	if f.Store.SheetID != nil {
		v["SHEET_ID"] = strconv.FormatInt(*f.Store.SheetID, 10)
	}
	if f.Auth.SecureCookies != nil {
		v["SECURE_COOKIES"] = strconv.FormatBool(*f.Auth.SecureCookies)
	}
	if len(f.Auth.CORSOrigins) > 0 {
		v["CORS_ORIGINS"] = strings.Join(f.Auth.CORSOrigins, ",")
	}
	if f.Qdrant.VectorSize != 0 {
		v["QDRANT_VECTOR_SIZE"] = strconv.Itoa(f.Qdrant.VectorSize)
	}
	return v
}

// loader resolves a key from the environment, then the config file, then a default.
type loader struct {
	file map[string]string
}

func (l loader) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := strings.TrimSpace(l.file[key]); value != "" {
		return value
	}
	return defaultValue
}

func (l loader) duration(key, defaultValue string) (time.Duration, error) {
	raw := l.get(key, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 10s or 168h: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// A TOML file named by CONFIG_FILE, or ./bookshelf.toml when present, supplies
// values for anything the environment leaves unset.
func Load() (*Config, error) {
	loadDotEnv()

	path := os.Getenv("CONFIG_FILE")
	required := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	file, err := readFile(path, required)
	if err != nil {
		return nil, err
	}

	return build(loader{file: file.values()})
}

// loadDotEnv loads .env from the current directory, then the nearest parent
// that has one. Environment variables already set take precedence.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func readFile(path string, required bool) (fileConfig, error) {
	var f fileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return f, nil
		}
		return f, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return f, nil
}

func build(l loader) (*Config, error) {
	cfg := &Config{
		APIPort:   l.get("API_PORT", "9000"),
		LogFormat: strings.ToLower(l.get("LOG_FORMAT", "text")),

		StoreBackend:          strings.ToLower(l.get("STORE_BACKEND", BackendSheets)),
		GoogleCredentialsJSON: l.get("GOOGLE_CREDENTIALS", ""),
		GoogleCredentialsFile: l.get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		SQLitePath:            l.get("SQLITE_PATH", "./data/bookshelf.db"),

		AppPassword:     l.get("APP_PASSWORD", ""),
		AppPasswordHash: l.get("APP_PASSWORD_HASH", ""),
		JWTSecret:       l.get("JWT_SECRET", ""),

		LLMBaseURL:         l.get("LLM_BASE_URL", "https://api.groq.com/openai"),
		LLMAPIKey:          l.get("LLM_API_KEY", ""),
		LLMModelName:       l.get("LLM_MODEL", "llama-3.3-70b-versatile"),
		EmbeddingBaseURL:   l.get("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: l.get("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),

		QdrantURL:        l.get("QDRANT_URL", ""),
		QdrantAPIKey:     l.get("QDRANT_API_KEY", ""),
		QdrantCollection: l.get("QDRANT_COLLECTION", "books"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(l.get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	var err error
	if cfg.StoreTimeout, err = l.duration("STORE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = l.duration("SESSION_TTL", "168h"); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = l.duration("LLM_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	cfg.SecureCookies, err = strconv.ParseBool(l.get("SECURE_COOKIES", "true"))
	if err != nil {
		return nil, fmt.Errorf("SECURE_COOKIES must be true or false: %w", err)
	}

	for _, o := range strings.Split(l.get("CORS_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	cfg.Location = tabular.DefaultLocation(l.get("SPREADSHEET_ID", ""), l.get("SHEET_NAME", "Sheet1"))
	// An unset SHEET_ID resolves the tab by SHEET_NAME, so deletes hit the same tab as reads.
	if v := l.get("SHEET_ID", ""); v != "" {
		sheetID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("SHEET_ID must be a valid integer: %w", err)
		}
		cfg.Location.SheetID = sheetID
	}
	if cfg.Location, err = cfg.Location.StartingAt(l.get("FIRST_COLUMN", "A")); err != nil {
		return nil, fmt.Errorf("FIRST_COLUMN: %w", err)
	}

	switch cfg.StoreBackend {
	case BackendSheets:
		if cfg.Location.SpreadsheetID == "" {
			return nil, fmt.Errorf("SPREADSHEET_ID is required when STORE_BACKEND is %s", BackendSheets)
		}
		if cfg.GoogleCredentialsJSON == "" && cfg.GoogleCredentialsFile == "" {
			return nil, fmt.Errorf("GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS is required when STORE_BACKEND is %s", BackendSheets)
		}
	case BackendSQLite:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be %s or %s, got %q", BackendSheets, BackendSQLite, cfg.StoreBackend)
	}
	if err := cfg.Location.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sheet location: %w", err)
	}

	// QDRANT_VECTOR_SIZE must match the output size of the embeddings model.
	// If it changes, the collection must be recreated.
	if cfg.QdrantURL != "" {
		vectorSizeStr := l.get("QDRANT_VECTOR_SIZE", "")
		if vectorSizeStr == "" {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required when QDRANT_URL is set")
		}
		vectorSize, err := strconv.Atoi(vectorSizeStr)
		if err != nil {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
		}
		if vectorSize <= 0 {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
		}
		cfg.QdrantVectorSize = vectorSize
	}

	return cfg, nil
}

// ValidateServer checks the settings only the API server needs.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.AppPassword == "" && c.AppPasswordHash == "" {
		return fmt.Errorf("APP_PASSWORD or APP_PASSWORD_HASH is required")
	}
	return nil
}

// SimilarEnabled reports whether a vector store is configured.
func (c *Config) SimilarEnabled() bool {
	return c.QdrantURL != ""
}
