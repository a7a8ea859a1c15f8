package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-mdtypst/internal/assets"
	"github.com/alnah/go-mdtypst/internal/dateutil"
	"github.com/alnah/go-mdtypst/internal/fileutil"
	"github.com/alnah/go-mdtypst/internal/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Input.DefaultDir != "" || cfg.Output.DefaultDir != "" {
		t.Errorf("directories = %q, %q, want empty", cfg.Input.DefaultDir, cfg.Output.DefaultDir)
	}
	if !cfg.Math.HeadingUnicode {
		t.Error("Math.HeadingUnicode = false, want true")
	}
	if cfg.Math.InlineCodeUnicode {
		t.Error("Math.InlineCodeUnicode = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.RenderTimeout() != 0 || cfg.ExecuteTimeout() != 0 {
		t.Error("default timeouts should be unset")
	}
}

func TestValidateFieldLength(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{"empty value is valid", "", 10, false},
		{"value at limit is valid", "1234567890", 10, false},
		{"value over limit returns error", "12345678901", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFieldLength("render.binary", tt.value, tt.maxLength)
			if tt.wantErr != errors.Is(err, ErrFieldTooLong) {
				t.Errorf("validateFieldLength() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name: "full valid config",
			mutate: func(c *Config) {
				c.Render.FallbackPageWidth = "250pt"
				c.Render.LargePageWidth = "auto"
				c.Execute.Timeout = "1m"
			},
		},
		{
			name:    "negative reference size",
			mutate:  func(c *Config) { c.Render.ReferenceSize = -1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "page width without unit",
			mutate:  func(c *Config) { c.Render.FallbackPageWidth = "300" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "percent page width",
			mutate:  func(c *Config) { c.Render.LargePageWidth = "100%" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative cache size",
			mutate:  func(c *Config) { c.Render.CacheSize = -5 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "unparsable timeout",
			mutate:  func(c *Config) { c.Render.Timeout = "soon" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Execute.Timeout = "0s" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Execute.Concurrency = -1 },
			wantErr: ErrInvalidValue,
		},
		{
			name: "interpreter without command",
			mutate: func(c *Config) {
				c.Execute.Interpreters = map[string]InterpreterConfig{"ruby": {Extension: "rb"}}
			},
			wantErr: ErrInvalidValue,
		},
		{
			name: "interpreter with traversal extension",
			mutate: func(c *Config) {
				c.Execute.Interpreters = map[string]InterpreterConfig{"ruby": {Command: "ruby", Extension: "../rb"}}
			},
			wantErr: fileutil.ErrExtensionPathTraversal,
		},
		{
			name:    "preamble too long",
			mutate:  func(c *Config) { c.Render.Preamble = strings.Repeat("x", MaxPreambleLength+1) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "style name with path",
			mutate:  func(c *Config) { c.Assets.Style = "../site" },
			wantErr: assets.ErrInvalidAssetName,
		},
		{
			name:    "auto date with format",
			mutate:  func(c *Config) { c.Output.Date = "auto:DD/MM/YYYY" },
			wantErr: nil,
		},
		{
			name:    "malformed auto date",
			mutate:  func(c *Config) { c.Output.Date = "automatic" },
			wantErr: dateutil.ErrInvalidDateFormat,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: logging.ErrInvalidLevel,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: logging.ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads config", func(t *testing.T) {
		path := writeConfig(t, `input:
  defaultDir: "docs"
output:
  defaultDir: "public"
  outputsFile: "public/code-outputs.json"
render:
  binary: "/opt/typst/bin/typst"
  fallbackPageWidth: "250pt"
  timeout: "45s"
execute:
  timeout: "2m"
  concurrency: 4
  interpreters:
    ruby:
      command: ruby
      extension: rb
      aliases: [rb]
      errorPrefix: "Error: "
math:
  inlineCodeUnicode: true
log:
  level: debug
  format: json
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Input.DefaultDir != "docs" || cfg.Output.DefaultDir != "public" {
			t.Errorf("directories = %q, %q", cfg.Input.DefaultDir, cfg.Output.DefaultDir)
		}
		if cfg.Render.Binary != "/opt/typst/bin/typst" || cfg.Render.FallbackPageWidth != "250pt" {
			t.Errorf("render = %+v", cfg.Render)
		}
		if cfg.RenderTimeout() != 45*time.Second || cfg.ExecuteTimeout() != 2*time.Minute {
			t.Errorf("timeouts = %s, %s", cfg.RenderTimeout(), cfg.ExecuteTimeout())
		}
		ruby, ok := cfg.Execute.Interpreters["ruby"]
		if !ok || ruby.Command != "ruby" || ruby.Extension != "rb" || len(ruby.Aliases) != 1 {
			t.Errorf("interpreters = %+v", cfg.Execute.Interpreters)
		}
		if !cfg.Math.HeadingUnicode {
			t.Error("absent key should keep its default")
		}
		if !cfg.Math.InlineCodeUnicode {
			t.Error("Math.InlineCodeUnicode = false, want true")
		}
		if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
			t.Errorf("log = %+v", cfg.Log)
		}
	})

	t.Run("explicit false overrides default", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "math:\n  headingUnicode: false\n"))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Math.HeadingUnicode {
			t.Error("Math.HeadingUnicode = true, want false")
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "render: [unclosed"))
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "render:\n  engine: latex\n"))
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("validation runs after parsing", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "execute:\n  timeout: forever\n"))
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})
}

func TestLoadConfig_ByName(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	if err := os.WriteFile("site.yml", []byte("log:\n  level: info\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("site")
	if err != nil {
		t.Fatalf("LoadConfig(site) error = %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}

	_, err = LoadConfig("missing")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("error = %v, want ErrConfigNotFound", err)
	}
	if !strings.Contains(err.Error(), "missing.yaml") || !strings.Contains(err.Error(), "missing.yml") {
		t.Errorf("error should list tried paths, got %q", err)
	}
}
