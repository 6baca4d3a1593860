package config

import (
	"os"
	"path/filepath"
	"testing"
)

type mapSource map[string]string

func (m mapSource) Get(key string) (string, bool) {
	val, ok := m[key]
	return val, ok
}

func (m mapSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := m[key]; ok {
		return val
	}
	return defaultValue
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(mapSource{})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.StorageAPIVersion != "2021-12-02" {
		t.Errorf("Unexpected default API version: %s", cfg.StorageAPIVersion)
	}
	if cfg.ServiceBusQueue != "blob-deletions" {
		t.Errorf("Unexpected default queue: %s", cfg.ServiceBusQueue)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Unexpected default retry attempts: %d", cfg.RetryMaxAttempts)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("Unexpected default port: %d", cfg.HTTPPort)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(mapSource{
		"STORAGE_ACCOUNT_NAME":         "devaccount",
		"STORAGE_USE_MANAGED_IDENTITY": "true",
		"CLIENT_RATE_LIMIT_RPS":        "2.5",
		"RETRY_MAX_ATTEMPTS":           "not-a-number",
	})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.StorageAccountName != "devaccount" {
		t.Errorf("Expected devaccount, got %s", cfg.StorageAccountName)
	}
	if !cfg.UseManagedIdentity {
		t.Error("Expected managed identity to be enabled")
	}
	if cfg.ClientRateLimitRPS != 2.5 {
		t.Errorf("Expected 2.5 RPS, got %v", cfg.ClientRateLimitRPS)
	}
	// Malformed numbers fall back to the default.
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default attempts for malformed value, got %d", cfg.RetryMaxAttempts)
	}
}

func TestFileConfigSourceYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("storage:\n  account_name: filedaccount\n  api_version: \"2020-10-02\"\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	source, err := NewFileConfigSource(path)
	if err != nil {
		t.Fatalf("NewFileConfigSource failed: %v", err)
	}

	val, ok := source.Get("storage.account_name")
	if !ok || val != "filedaccount" {
		t.Errorf("Expected filedaccount, got %q (found=%v)", val, ok)
	}
	if _, ok := source.Get("storage.missing"); ok {
		t.Error("Did not expect a value for a missing key")
	}
}

func TestFileConfigSourceUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("a = 1"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := NewFileConfigSource(path); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestCompositeConfigSourcePrecedence(t *testing.T) {
	first := mapSource{"KEY": "first"}
	second := mapSource{"KEY": "second", "ONLY_SECOND": "value"}

	composite := NewCompositeConfigSource(first, second)

	if val, _ := composite.Get("KEY"); val != "first" {
		t.Errorf("Expected first source to win, got %q", val)
	}
	if val, _ := composite.Get("ONLY_SECOND"); val != "value" {
		t.Errorf("Expected fallback to second source, got %q", val)
	}
	if val := composite.GetWithDefault("MISSING", "fallback"); val != "fallback" {
		t.Errorf("Expected default, got %q", val)
	}
}
