package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultStoreBackend    = StoreBackendFirestore
	defaultPagesFile       = "data/pages.yaml"
	defaultMenusFile       = "data/menus.yaml"
	defaultCacheTTL        = time.Hour
	defaultCacheMaxEntries = 1024
	defaultLanguage        = "ja"
)

// Store backends understood by the service.
const (
	StoreBackendFirestore = "firestore"
	StoreBackendFile      = "file"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Firestore FirestoreConfig
	File      FileConfig
	Cache     CacheConfig
	I18n      I18nConfig
	Templates TemplatesConfig
	PubSub    PubSubConfig
	Admin     AdminConfig
	Trace     TraceConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StoreConfig selects where pages and named menus are persisted.
type StoreConfig struct {
	Backend string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// FileConfig points at YAML fixtures used by the file backend.
type FileConfig struct {
	PagesPath string
	MenusPath string
}

// CacheConfig controls the arranged menu cache.
type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

// I18nConfig lists the languages menus are rendered in.
type I18nConfig struct {
	Languages       []string
	DefaultLanguage string
}

// TemplatesConfig points at an optional directory overriding the embedded menu templates.
type TemplatesConfig struct {
	Dir string
}

// PubSubConfig configures menu change notifications. An empty topic disables
// publishing; an empty subscription disables cross-instance eviction.
type PubSubConfig struct {
	ProjectID    string
	Topic        string
	Subscription string
}

// AdminConfig secures the named menu administration endpoints.
type AdminConfig struct {
	TokenSecret string
}

// TraceConfig carries the project used to format Cloud Trace resources.
type TraceConfig struct {
	ProjectID string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides and environment variables.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "MENUS_SERVER_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:  durationWithDefault(lookup, "MENUS_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "MENUS_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "MENUS_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(stringWithDefault(lookup, "MENUS_STORE_BACKEND", defaultStoreBackend)),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "MENUS_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "MENUS_FIRESTORE_EMULATOR_HOST", ""),
		},
		File: FileConfig{
			PagesPath: stringWithDefault(lookup, "MENUS_FILE_PAGES", defaultPagesFile),
			MenusPath: stringWithDefault(lookup, "MENUS_FILE_MENUS", defaultMenusFile),
		},
		Cache: CacheConfig{
			TTL:        durationWithDefault(lookup, "MENUS_CACHE_TTL", defaultCacheTTL),
			MaxEntries: intWithDefault(lookup, "MENUS_CACHE_MAX_ENTRIES", defaultCacheMaxEntries),
		},
		I18n: I18nConfig{
			Languages:       lowerAll(csvWithDefault(lookup, "MENUS_LANGUAGES")),
			DefaultLanguage: strings.ToLower(stringWithDefault(lookup, "MENUS_DEFAULT_LANGUAGE", defaultLanguage)),
		},
		Templates: TemplatesConfig{
			Dir: stringWithDefault(lookup, "MENUS_TEMPLATES_DIR", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:    stringWithDefault(lookup, "MENUS_PUBSUB_PROJECT_ID", ""),
			Topic:        stringWithDefault(lookup, "MENUS_PUBSUB_TOPIC", ""),
			Subscription: stringWithDefault(lookup, "MENUS_PUBSUB_SUBSCRIPTION", ""),
		},
		Admin: AdminConfig{
			TokenSecret: stringWithDefault(lookup, "MENUS_ADMIN_TOKEN_SECRET", ""),
		},
		Trace: TraceConfig{
			ProjectID: stringWithDefault(lookup, "MENUS_TRACE_PROJECT_ID", ""),
		},
	}

	if len(cfg.I18n.Languages) == 0 {
		cfg.I18n.Languages = []string{"ja", "en"}
	}
	if !contains(cfg.I18n.Languages, cfg.I18n.DefaultLanguage) {
		cfg.I18n.Languages = append([]string{cfg.I18n.DefaultLanguage}, cfg.I18n.Languages...)
	}
	// Pub/Sub and Cloud Trace share the Firestore project unless told otherwise.
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}
	if cfg.Trace.ProjectID == "" {
		cfg.Trace.ProjectID = cfg.Firestore.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	switch cfg.Store.Backend {
	case StoreBackendFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
	case StoreBackendFile:
		if strings.TrimSpace(cfg.File.PagesPath) == "" {
			missing = append(missing, "File.PagesPath")
		}
		if strings.TrimSpace(cfg.File.MenusPath) == "" {
			missing = append(missing, "File.MenusPath")
		}
	default:
		missing = append(missing, "Store.Backend")
	}
	if cfg.Cache.TTL <= 0 {
		missing = append(missing, "Cache.TTL")
	}
	if cfg.Cache.MaxEntries <= 0 {
		missing = append(missing, "Cache.MaxEntries")
	}
	if cfg.I18n.DefaultLanguage == "" {
		missing = append(missing, "I18n.DefaultLanguage")
	}
	if (cfg.PubSub.Topic != "" || cfg.PubSub.Subscription != "") && cfg.PubSub.ProjectID == "" {
		missing = append(missing, "PubSub.ProjectID")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func lowerAll(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
