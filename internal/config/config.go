package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-mdtypst/internal/assets"
	"github.com/alnah/go-mdtypst/internal/dateutil"
	"github.com/alnah/go-mdtypst/internal/fileutil"
	"github.com/alnah/go-mdtypst/internal/logging"
	"github.com/alnah/go-mdtypst/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxPreambleLength = 10000
	MaxLanguageLength = 50
	MaxCommandLength  = 4096
	MaxPrefixLength   = 100
	MaxDateLength     = 100
)

// appName is the directory searched under the user config dir.
const appName = "go-mdtypst"

// pageWidth accepts absolute Typst lengths such as 300pt or 12.5cm.
var pageWidth = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?(pt|mm|cm|in|em)$`)

// Config holds all configuration for a build.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Render  RenderConfig  `yaml:"render"`
	Execute ExecuteConfig `yaml:"execute"`
	Math    MathConfig    `yaml:"math"`
	Assets  AssetsConfig  `yaml:"assets"`
	Log     LogConfig     `yaml:"log"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir  string `yaml:"defaultDir"`  // Default output directory (empty = same as source)
	OutputsFile string `yaml:"outputsFile"` // Execution output map (empty = <outputDir>/code-outputs.json)
	Fragment    bool   `yaml:"fragment"`    // Write bare HTML fragments instead of full pages
	Date        string `yaml:"date"`        // Page date: "auto", "auto:FORMAT" or literal (empty = none)
}

// RenderConfig defines the Typst renderer.
type RenderConfig struct {
	Binary            string  `yaml:"binary"`            // typst executable (default: "typst")
	Root              string  `yaml:"root"`              // --root passed to typst (empty = none)
	Preamble          string  `yaml:"preamble"`          // Prepended to every document (empty = commute import)
	ReferenceSize     float64 `yaml:"referenceSize"`     // Font size in pt that maps to 1em (default: 11)
	LargePageWidth    string  `yaml:"largePageWidth"`    // Page width for percent-width sources (default: "1000pt")
	FallbackPageWidth string  `yaml:"fallbackPageWidth"` // Page width for the retry render (default: "300pt")
	CacheSize         int     `yaml:"cacheSize"`         // Compiled documents kept in memory (default: 128)
	CacheKeep         int     `yaml:"cacheKeep"`         // Entries kept after each render (default: 10)
	Timeout           string  `yaml:"timeout"`           // Per-compile timeout, e.g. "30s"
}

// ExecuteConfig defines code execution.
type ExecuteConfig struct {
	Timeout         string                       `yaml:"timeout"`         // Per-run timeout, e.g. "30s"
	Concurrency     int                          `yaml:"concurrency"`     // Lanes run at once (0 = GOMAXPROCS)
	DefaultLanguage string                       `yaml:"defaultLanguage"` // Language of `code` blocks without :language
	Interpreters    map[string]InterpreterConfig `yaml:"interpreters"`    // Added to or replacing the built-in ones
}

// InterpreterConfig describes one interpreter. The map key is its primary
// language tag.
type InterpreterConfig struct {
	Command      string   `yaml:"command"`
	Args         []string `yaml:"args"`
	Extension    string   `yaml:"extension"`
	Aliases      []string `yaml:"aliases"`
	PreferStderr bool     `yaml:"preferStderr"`
	Statements   bool     `yaml:"statements"`
	Translate    bool     `yaml:"translate"`
	ErrorPrefix  string   `yaml:"errorPrefix"`
}

// MathConfig defines the math passes.
type MathConfig struct {
	HeadingUnicode    bool `yaml:"headingUnicode"`    // Translate heading math to Unicode (default: true)
	InlineCodeUnicode bool `yaml:"inlineCodeUnicode"` // Translate LaTeX names in inline code
}

// AssetsConfig defines the page stylesheet and template.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
	Style    string `yaml:"style"`    // Stylesheet name (default: "default")
	Template string `yaml:"template"` // Page template name (default: "page")
}

// LogConfig defines diagnostics output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: warn)
	Format string `yaml:"format"` // console or json (default: console)
}

// DefaultConfig returns the configuration used when no file is given.
// Empty strings and zero numbers select the library defaults.
func DefaultConfig() *Config {
	return &Config{
		Math: MathConfig{HeadingUnicode: true},
	}
}

// RenderTimeout returns the parsed render timeout, zero when unset.
func (c *Config) RenderTimeout() time.Duration {
	d, _ := parseTimeout(c.Render.Timeout)
	return d
}

// ExecuteTimeout returns the parsed execution timeout, zero when unset.
func (c *Config) ExecuteTimeout() time.Duration {
	d, _ := parseTimeout(c.Execute.Timeout)
	return d
}

// Validate checks value ranges and field lengths. Called automatically by
// LoadConfig, but available for consumers who construct Config manually.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"input.defaultDir", c.Input.DefaultDir, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"output.outputsFile", c.Output.OutputsFile, MaxPathLength},
		{"output.date", c.Output.Date, MaxDateLength},
		{"render.binary", c.Render.Binary, MaxPathLength},
		{"render.root", c.Render.Root, MaxPathLength},
		{"render.preamble", c.Render.Preamble, MaxPreambleLength},
		{"execute.defaultLanguage", c.Execute.DefaultLanguage, MaxLanguageLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
	} {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if _, err := dateutil.ParseSetting(c.Output.Date); err != nil {
		return fmt.Errorf("output.date: %w", err)
	}

	// Render
	if c.Render.ReferenceSize < 0 {
		return fmt.Errorf("%w: render.referenceSize must be positive, got %g", ErrInvalidValue, c.Render.ReferenceSize)
	}
	if err := validatePageWidth("render.largePageWidth", c.Render.LargePageWidth); err != nil {
		return err
	}
	if err := validatePageWidth("render.fallbackPageWidth", c.Render.FallbackPageWidth); err != nil {
		return err
	}
	if c.Render.CacheSize < 0 {
		return fmt.Errorf("%w: render.cacheSize must not be negative, got %d", ErrInvalidValue, c.Render.CacheSize)
	}
	if c.Render.CacheKeep < 0 {
		return fmt.Errorf("%w: render.cacheKeep must not be negative, got %d", ErrInvalidValue, c.Render.CacheKeep)
	}
	if _, err := parseTimeout(c.Render.Timeout); err != nil {
		return fmt.Errorf("render.timeout: %w", err)
	}

	// Execute
	if _, err := parseTimeout(c.Execute.Timeout); err != nil {
		return fmt.Errorf("execute.timeout: %w", err)
	}
	if c.Execute.Concurrency < 0 {
		return fmt.Errorf("%w: execute.concurrency must not be negative, got %d", ErrInvalidValue, c.Execute.Concurrency)
	}
	for lang, interp := range c.Execute.Interpreters {
		if err := interp.validate("execute.interpreters." + lang); err != nil {
			return err
		}
	}

	// Assets
	if c.Assets.Style != "" {
		if err := assets.ValidateAssetName(c.Assets.Style); err != nil {
			return fmt.Errorf("assets.style: %w", err)
		}
	}
	if c.Assets.Template != "" {
		if err := assets.ValidateAssetName(c.Assets.Template); err != nil {
			return fmt.Errorf("assets.template: %w", err)
		}
	}

	// Log
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if err := logging.ValidateFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}

	return nil
}

func (i InterpreterConfig) validate(field string) error {
	if i.Command == "" {
		return fmt.Errorf("%w: %s.command is required", ErrInvalidValue, field)
	}
	if err := validateFieldLength(field+".command", i.Command, MaxCommandLength); err != nil {
		return err
	}
	if err := fileutil.ValidateExtension(i.Extension); err != nil {
		return fmt.Errorf("%s.extension: %w", field, err)
	}
	if err := validateFieldLength(field+".errorPrefix", i.ErrorPrefix, MaxPrefixLength); err != nil {
		return err
	}
	for j, alias := range i.Aliases {
		if err := validateFieldLength(fmt.Sprintf("%s.aliases[%d]", field, j), alias, MaxLanguageLength); err != nil {
			return err
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validatePageWidth(field, value string) error {
	if value == "" || value == "auto" || pageWidth.MatchString(value) {
		return nil
	}
	return fmt.Errorf("%w: %s %q (expected a length such as 300pt)", ErrInvalidValue, field, value)
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidValue, s)
	}
	return d, nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-mdtypst/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, appName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
