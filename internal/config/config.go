package config

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDBFileName = ".folio.db"
	DefaultBlobSubdir = ".folio/blobs"
	DefaultLogLevel   = "info"

	DefaultMaxMediaBytes int64 = 50 << 20
	DefaultMaxFileBytes  int64 = 10 << 20
	DefaultMaxMediaItems       = 10

	DefaultCommentMaxLength  = 500
	DefaultAuthorMaxLength   = 50
	DefaultCommentsPerMinute = 6
	DefaultCommentBurst      = 3

	configFileName           = ".folio.toml"
	configDirEnvKey          = "FOLIO_CONFIG_DIR"
	trustProjectConfigEnvKey = "FOLIO_TRUST_PROJECT_CONFIG"

	dbPathEnvKey            = "FOLIO_DB"
	blobDirEnvKey           = "FOLIO_BLOB_DIR"
	logLevelEnvKey          = "FOLIO_LOG_LEVEL"
	allowedMediaTypesEnvKey = "FOLIO_MEDIA_ALLOWED_TYPES"
)

// MediaConfig bounds the payloads a publication may carry.
type MediaConfig struct {
	MaxMediaBytes     int64    `toml:"max_media_bytes"`
	MaxFileBytes      int64    `toml:"max_file_bytes"`
	MaxMediaItems     int      `toml:"max_media_items"`
	AllowedMediaTypes []string `toml:"allowed_media_types"`
}

// LedgerConfig bounds visitor comments.
type LedgerConfig struct {
	CommentMaxLength  int `toml:"comment_max_length"`
	AuthorMaxLength   int `toml:"author_max_length"`
	CommentsPerMinute int `toml:"comments_per_minute"`
	CommentBurst      int `toml:"comment_burst"`
}

// Config defines runtime configuration for folio.
type Config struct {
	DBPath                   string       `toml:"db_path"`
	BlobDir                  string       `toml:"blob_dir"`
	LogLevel                 string       `toml:"log_level"`
	Media                    MediaConfig  `toml:"media"`
	Ledger                   LedgerConfig `toml:"ledger"`
	TrustedProjectConfigPath string       `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Media: MediaConfig{
			MaxMediaBytes: DefaultMaxMediaBytes,
			MaxFileBytes:  DefaultMaxFileBytes,
			MaxMediaItems: DefaultMaxMediaItems,
		},
		Ledger: LedgerConfig{
			CommentMaxLength:  DefaultCommentMaxLength,
			AuthorMaxLength:   DefaultAuthorMaxLength,
			CommentsPerMinute: DefaultCommentsPerMinute,
			CommentBurst:      DefaultCommentBurst,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"db_path",
	"blob_dir",
	"log_level",
	"media.max_media_bytes",
	"media.max_file_bytes",
	"media.max_media_items",
	"media.allowed_media_types",
	"ledger.comment_max_length",
	"ledger.author_max_length",
	"ledger.comments_per_minute",
	"ledger.comment_burst",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "blob_dir":
		return c.BlobDir, nil
	case "log_level":
		return c.LogLevel, nil
	case "media.max_media_bytes":
		return strconv.FormatInt(c.Media.MaxMediaBytes, 10), nil
	case "media.max_file_bytes":
		return strconv.FormatInt(c.Media.MaxFileBytes, 10), nil
	case "media.max_media_items":
		return strconv.Itoa(c.Media.MaxMediaItems), nil
	case "media.allowed_media_types":
		return strings.Join(c.Media.AllowedMediaTypes, ","), nil
	case "ledger.comment_max_length":
		return strconv.Itoa(c.Ledger.CommentMaxLength), nil
	case "ledger.author_max_length":
		return strconv.Itoa(c.Ledger.AuthorMaxLength), nil
	case "ledger.comments_per_minute":
		return strconv.Itoa(c.Ledger.CommentsPerMinute), nil
	case "ledger.comment_burst":
		return strconv.Itoa(c.Ledger.CommentBurst), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if blobDir := os.Getenv(blobDirEnvKey); blobDir != "" {
		cfg.BlobDir = blobDir
	}
	if level := strings.TrimSpace(os.Getenv(logLevelEnvKey)); level != "" {
		cfg.LogLevel = level
	}
	if raw := strings.TrimSpace(os.Getenv(allowedMediaTypesEnvKey)); raw != "" {
		cfg.Media.AllowedMediaTypes = splitCSV(raw)
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}
	if cfg.BlobDir == "" && cfg.DBPath != "" {
		cfg.BlobDir = filepath.Join(filepath.Dir(cfg.DBPath), filepath.FromSlash(DefaultBlobSubdir))
	}

	cfg.normalize()

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "media.max_media_bytes", "media.max_file_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "media.max_media_items", "ledger.comment_max_length", "ledger.author_max_length",
		"ledger.comments_per_minute", "ledger.comment_burst":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
			return strings.ToLower(value), nil
		}
		return nil, fmt.Errorf("log_level must be one of debug, info, warn, error")
	case "media.allowed_media_types":
		return splitCSV(value), nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func splitCSV(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Media.MaxMediaBytes <= 0 {
		c.Media.MaxMediaBytes = DefaultMaxMediaBytes
	}
	if c.Media.MaxFileBytes <= 0 {
		c.Media.MaxFileBytes = DefaultMaxFileBytes
	}
	if c.Media.MaxMediaItems <= 0 {
		c.Media.MaxMediaItems = DefaultMaxMediaItems
	}
	if c.Ledger.CommentMaxLength <= 0 {
		c.Ledger.CommentMaxLength = DefaultCommentMaxLength
	}
	if c.Ledger.AuthorMaxLength <= 0 {
		c.Ledger.AuthorMaxLength = DefaultAuthorMaxLength
	}
	if c.Ledger.CommentsPerMinute <= 0 {
		c.Ledger.CommentsPerMinute = DefaultCommentsPerMinute
	}
	if c.Ledger.CommentBurst <= 0 {
		c.Ledger.CommentBurst = DefaultCommentBurst
	}
	c.Media.AllowedMediaTypes = normalizeConfiguredMediaTypes(c.Media.AllowedMediaTypes)
}

func normalizeConfiguredMediaTypes(rawValues []string) []string {
	if len(rawValues) == 0 {
		return nil
	}
	out := make([]string, 0, len(rawValues))
	seen := map[string]struct{}{}
	for _, raw := range rawValues {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parsed, _, err := mime.ParseMediaType(raw)
		if err != nil {
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(parsed))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
