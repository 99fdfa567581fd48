package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func chdirTemp(t *testing.T, dir string) {
	t.Helper()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
}

func clearFolioEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configDirEnvKey,
		trustProjectConfigEnvKey,
		dbPathEnvKey,
		blobDirEnvKey,
		logLevelEnvKey,
		allowedMediaTypesEnvKey,
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DBPath != "" {
		t.Fatalf("expected empty db path, got %q", cfg.DBPath)
	}
	if cfg.BlobDir != "" {
		t.Fatalf("expected empty blob dir, got %q", cfg.BlobDir)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Media.MaxMediaBytes != 50*1024*1024 {
		t.Fatalf("expected 50 MiB media limit, got %d", cfg.Media.MaxMediaBytes)
	}
	if cfg.Media.MaxFileBytes != 10*1024*1024 {
		t.Fatalf("expected 10 MiB file limit, got %d", cfg.Media.MaxFileBytes)
	}
	if cfg.Media.MaxMediaItems != DefaultMaxMediaItems {
		t.Fatalf("expected max media items %d, got %d", DefaultMaxMediaItems, cfg.Media.MaxMediaItems)
	}
	if cfg.Ledger.CommentMaxLength != 500 || cfg.Ledger.AuthorMaxLength != 50 {
		t.Fatalf("unexpected ledger length defaults: %+v", cfg.Ledger)
	}
	if cfg.Ledger.CommentsPerMinute != DefaultCommentsPerMinute || cfg.Ledger.CommentBurst != DefaultCommentBurst {
		t.Fatalf("unexpected ledger rate defaults: %+v", cfg.Ledger)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, []byte(`db_path = "/srv/folio.db"
log_level = "warn"

[media]
max_media_items = 4
allowed_media_types = ["image/png", "video/*"]

[ledger]
comment_burst = 5
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/srv/folio.db" {
		t.Fatalf("expected db_path override, got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected log_level 'warn', got %q", cfg.LogLevel)
	}
	if cfg.Media.MaxMediaItems != 4 {
		t.Fatalf("expected max_media_items 4, got %d", cfg.Media.MaxMediaItems)
	}
	if len(cfg.Media.AllowedMediaTypes) != 2 {
		t.Fatalf("expected two allowed types, got %v", cfg.Media.AllowedMediaTypes)
	}
	if cfg.Ledger.CommentBurst != 5 {
		t.Fatalf("expected comment_burst 5, got %d", cfg.Ledger.CommentBurst)
	}
	if cfg.Media.MaxMediaBytes != DefaultMaxMediaBytes {
		t.Fatalf("unset keys should keep defaults, got %d", cfg.Media.MaxMediaBytes)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFile("/nonexistent/path/"+configFileName, &cfg); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("defaults should be preserved")
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte("db_path = \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := Default()
	err := loadFile(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestIsAllowedKey(t *testing.T) {
	for _, key := range AllowedKeys() {
		if !IsAllowedKey(key) {
			t.Fatalf("expected %q to be allowed", key)
		}
	}
	for _, key := range []string{"", "api_url", "media", "ledger.unknown"} {
		if IsAllowedKey(key) {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}

func TestGetKey(t *testing.T) {
	cfg := Default()
	cfg.DBPath = "/tmp/folio.db"
	cfg.BlobDir = "/tmp/blobs"
	cfg.Media.AllowedMediaTypes = []string{"image/png", "video/mp4"}

	cases := map[string]string{
		"db_path":                    "/tmp/folio.db",
		"blob_dir":                   "/tmp/blobs",
		"log_level":                  DefaultLogLevel,
		"media.max_media_bytes":      "52428800",
		"media.max_file_bytes":       "10485760",
		"media.max_media_items":      "10",
		"media.allowed_media_types":  "image/png,video/mp4",
		"ledger.comment_max_length":  "500",
		"ledger.author_max_length":   "50",
		"ledger.comments_per_minute": "6",
		"ledger.comment_burst":       "3",
	}
	for key, want := range cases {
		got, err := cfg.Get(key)
		if err != nil {
			t.Fatalf("get %s: %v", key, err)
		}
		if got != want {
			t.Fatalf("get %s: expected %q, got %q", key, want, got)
		}
	}

	if _, err := cfg.Get("nope"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSetKeyCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", configFileName)
	if err := SetKey(path, "db_path", "/data/folio.db"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/data/folio.db" {
		t.Fatalf("expected db_path to persist, got %q", cfg.DBPath)
	}
}

func TestSetKeyUpdatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte("db_path = \"/a.db\"\nlog_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := SetKey(path, "db_path", "/b.db"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/b.db" {
		t.Fatalf("expected updated db_path, got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected other keys preserved, got log_level %q", cfg.LogLevel)
	}
}

func TestSetKeyLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	if err := SetKey(path, "log_level", "WARN"); err != nil {
		t.Fatalf("set key: %v", err)
	}
	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected lower-cased log level, got %q", cfg.LogLevel)
	}

	if err := SetKey(path, "log_level", "loud"); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestSetKeyInvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	if err := SetKey(path, "api_url", "http://x"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSetNestedMediaKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	if err := SetKey(path, "media.max_media_items", "3"); err != nil {
		t.Fatalf("set max items: %v", err)
	}
	if err := SetKey(path, "media.allowed_media_types", "image/png, image/jpeg"); err != nil {
		t.Fatalf("set allowed types: %v", err)
	}
	if err := SetKey(path, "ledger.comment_burst", "7"); err != nil {
		t.Fatalf("set burst: %v", err)
	}
	if err := SetKey(path, "media.max_file_bytes", "-1"); err == nil {
		t.Fatal("expected error for negative byte limit")
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Media.MaxMediaItems != 3 {
		t.Fatalf("expected max items 3, got %d", cfg.Media.MaxMediaItems)
	}
	if strings.Join(cfg.Media.AllowedMediaTypes, ",") != "image/png,image/jpeg" {
		t.Fatalf("unexpected allowed types: %v", cfg.Media.AllowedMediaTypes)
	}
	if cfg.Ledger.CommentBurst != 7 {
		t.Fatalf("expected burst 7, got %d", cfg.Ledger.CommentBurst)
	}
}

func TestConfigDirOverridePaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	globalPath, err := GlobalPath()
	if err != nil {
		t.Fatalf("global path: %v", err)
	}
	if globalPath != filepath.Join(dir, configFileName) {
		t.Fatalf("unexpected global path: %s", globalPath)
	}

	projectPath, err := ProjectPath()
	if err != nil {
		t.Fatalf("project path: %v", err)
	}
	if projectPath != filepath.Join(dir, configFileName) {
		t.Fatalf("unexpected project path: %s", projectPath)
	}
}

func TestLoadConfigDirOverride(t *testing.T) {
	clearFolioEnv(t)
	configDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(configDir, configFileName), []byte("log_level = \"error\"\n"), 0o644); err != nil {
		t.Fatalf("write override config: %v", err)
	}

	workspace := t.TempDir()
	if err := os.WriteFile(filepath.Join(workspace, configFileName), []byte("log_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("write workspace config: %v", err)
	}
	chdirTemp(t, workspace)

	t.Setenv(configDirEnvKey, configDir)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected config-dir log level, got %q", cfg.LogLevel)
	}
	if cfg.DBPath != filepath.Join(workspace, DefaultDBFileName) {
		t.Fatalf("expected default workspace db path, got %q", cfg.DBPath)
	}
	if cfg.BlobDir != filepath.Join(workspace, ".folio", "blobs") {
		t.Fatalf("expected blob dir next to db, got %q", cfg.BlobDir)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearFolioEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(dbPathEnvKey, "/tmp/override.db")
	t.Setenv(blobDirEnvKey, "/tmp/override-blobs")
	t.Setenv(logLevelEnvKey, "debug")
	t.Setenv(allowedMediaTypesEnvKey, "video/mp4; codecs=avc1, IMAGE/PNG,,image/png")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Fatalf("expected env override for DB path, got %q", cfg.DBPath)
	}
	if cfg.BlobDir != "/tmp/override-blobs" {
		t.Fatalf("expected env override for blob dir, got %q", cfg.BlobDir)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env override for log level, got %q", cfg.LogLevel)
	}
	if strings.Join(cfg.Media.AllowedMediaTypes, ",") != "image/png,video/mp4" {
		t.Fatalf("expected normalized allowed types, got %v", cfg.Media.AllowedMediaTypes)
	}
}

func TestLoadBlobDirFollowsDBPath(t *testing.T) {
	clearFolioEnv(t)
	t.Setenv("HOME", t.TempDir())
	dbDir := t.TempDir()
	t.Setenv(dbPathEnvKey, filepath.Join(dbDir, "site.db"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BlobDir != filepath.Join(dbDir, ".folio", "blobs") {
		t.Fatalf("expected blob dir beside db, got %q", cfg.BlobDir)
	}
}

func TestLoadFallsBackToDefaultsWhenConfiguredEmpty(t *testing.T) {
	clearFolioEnv(t)
	homeDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(homeDir, configFileName), []byte(`log_level = ""

[media]
max_media_items = 0

[ledger]
comments_per_minute = -2
`), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}
	chdirTemp(t, t.TempDir())
	t.Setenv("HOME", homeDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Media.MaxMediaItems != DefaultMaxMediaItems {
		t.Fatalf("expected default max items, got %d", cfg.Media.MaxMediaItems)
	}
	if cfg.Ledger.CommentsPerMinute != DefaultCommentsPerMinute {
		t.Fatalf("expected default comment rate, got %d", cfg.Ledger.CommentsPerMinute)
	}
}

func writeHomeAndProjectConfigs(t *testing.T) (string, string) {
	t.Helper()
	homeDir := t.TempDir()
	workspace := t.TempDir()
	if err := os.WriteFile(filepath.Join(homeDir, configFileName), []byte("log_level = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, configFileName), []byte("log_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}
	chdirTemp(t, workspace)
	t.Setenv("HOME", homeDir)
	return homeDir, workspace
}

func TestLoadIgnoresProjectConfigByDefault(t *testing.T) {
	clearFolioEnv(t)
	writeHomeAndProjectConfigs(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected global log level 'warn', got %q", cfg.LogLevel)
	}
	if cfg.TrustedProjectConfigPath != "" {
		t.Fatalf("expected no trusted project config path, got %q", cfg.TrustedProjectConfigPath)
	}
}

func TestLoadAppliesProjectConfigWhenTrusted(t *testing.T) {
	clearFolioEnv(t)
	_, workspace := writeHomeAndProjectConfigs(t)
	t.Setenv(trustProjectConfigEnvKey, "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected trusted project log level 'debug', got %q", cfg.LogLevel)
	}
	expectedPath := filepath.Join(workspace, configFileName)
	if cfg.TrustedProjectConfigPath != expectedPath {
		t.Fatalf("expected trusted project config path %q, got %q", expectedPath, cfg.TrustedProjectConfigPath)
	}
}

func TestLoadDoesNotTrustProjectConfigOnInvalidEnvValue(t *testing.T) {
	clearFolioEnv(t)
	writeHomeAndProjectConfigs(t)
	t.Setenv(trustProjectConfigEnvKey, "definitely-not-bool")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected global log level with invalid trust env, got %q", cfg.LogLevel)
	}
	if cfg.TrustedProjectConfigPath != "" {
		t.Fatalf("expected no trusted project config path with invalid trust env, got %q", cfg.TrustedProjectConfigPath)
	}
}
