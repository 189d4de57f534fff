package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
feed:
  name: "Example Blog"
  url: "https://example.com/feed.xml"

webhook:
  url: "https://hooks.example.com/abc"

settings:
  enabled: true
  timeout: 15
`

	err := os.WriteFile(filepath.Join(tempDir, "example.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 config, got %d", configCache.GetConfigCount())
	}

	config, err := configCache.GetConfig("example")
	if err != nil {
		t.Fatal(err)
	}

	if config.Name != "example" {
		t.Errorf("Expected name 'example', got '%s'", config.Name)
	}
	if config.Feed.Name != "Example Blog" {
		t.Errorf("Expected display name 'Example Blog', got '%s'", config.Feed.Name)
	}
	if config.Feed.URL != "https://example.com/feed.xml" {
		t.Errorf("Expected feed URL 'https://example.com/feed.xml', got '%s'", config.Feed.URL)
	}
	if config.Webhook.URL != "https://hooks.example.com/abc" {
		t.Errorf("Expected webhook URL 'https://hooks.example.com/abc', got '%s'", config.Webhook.URL)
	}
	if config.Settings.Timeout != 15 {
		t.Errorf("Expected timeout 15, got %d", config.Settings.Timeout)
	}
}

func TestConfigCacheLoadConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
feed:
  name: "Example Blog"
  url: "https://example.com/feed.xml"

webhook:
  url: "https://hooks.example.com/abc"

settings:
  enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "example.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err != nil {
		t.Fatal(err)
	}

	config, err := configCache.GetConfig("example")
	if err != nil {
		t.Fatal(err)
	}

	if config.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", config.Settings.Timeout)
	}
}

func TestConfigCacheInvalidConfig(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name: "missing feed URL",
			content: `
feed:
  name: "Example Blog"
webhook:
  url: "https://hooks.example.com/abc"
settings:
  enabled: true
`,
			errPart: "feed URL is required",
		},
		{
			name: "missing webhook URL",
			content: `
feed:
  name: "Example Blog"
  url: "https://example.com/feed.xml"
settings:
  enabled: true
`,
			errPart: "webhook URL is required",
		},
		{
			name: "missing display name",
			content: `
feed:
  url: "https://example.com/feed.xml"
webhook:
  url: "https://hooks.example.com/abc"
settings:
  enabled: true
`,
			errPart: "display name is required",
		},
		{
			name: "negative timeout",
			content: `
feed:
  name: "Example Blog"
  url: "https://example.com/feed.xml"
webhook:
  url: "https://hooks.example.com/abc"
settings:
  enabled: true
  timeout: -5
`,
			errPart: "timeout must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := os.WriteFile(filepath.Join(tempDir, "broken.yml"), []byte(tt.content), 0644)
			if err != nil {
				t.Fatal(err)
			}

			configCache := NewConfigCache(tempDir)
			_, err = configCache.LoadConfig("broken")
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Expected error containing '%s', got: %v", tt.errPart, err)
			}
		})
	}
}

func TestConfigCacheMalformedYAML(t *testing.T) {
	tempDir := t.TempDir()

	err := os.WriteFile(filepath.Join(tempDir, "bad.yml"), []byte("feed: [unclosed"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "bad.yml") {
		t.Errorf("Expected error to name the file, got: %v", err)
	}
}

func TestConfigCacheGetEnabledConfigs(t *testing.T) {
	tempDir := t.TempDir()

	enabled := `
feed:
  name: "Enabled Blog"
  url: "https://example.com/a.xml"
webhook:
  url: "https://hooks.example.com/a"
settings:
  enabled: true
`
	disabled := `
feed:
  name: "Disabled Blog"
  url: "https://example.com/b.xml"
webhook:
  url: "https://hooks.example.com/b"
settings:
  enabled: false
`

	if err := os.WriteFile(filepath.Join(tempDir, "a.yml"), []byte(enabled), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "b.yml"), []byte(disabled), 0644); err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", configCache.GetConfigCount())
	}

	enabledConfigs := configCache.GetEnabledConfigs()
	if len(enabledConfigs) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(enabledConfigs))
	}
	if _, ok := enabledConfigs["a"]; !ok {
		t.Error("Expected 'a' to be enabled")
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache("/nonexistent/targets")
	if err := configCache.Run(); err != nil {
		t.Errorf("Expected missing directory to be tolerated, got: %v", err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 configs, got %d", configCache.GetConfigCount())
	}
}

func TestConfigCacheGetConfigNotFound(t *testing.T) {
	configCache := NewConfigCache(t.TempDir())
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}
	if _, err := configCache.GetConfig("unknown"); err == nil {
		t.Error("Expected error for unknown target")
	}
}
