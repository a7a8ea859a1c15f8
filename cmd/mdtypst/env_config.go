package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-mdtypst/internal/config"
)

// envPrefix starts every environment variable the CLI reads.
const envPrefix = "MDTYPST_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // MDTYPST_CONFIG: config file name or path
	TypstBin   string // MDTYPST_TYPST_BIN: typst executable
	Timeout    string // MDTYPST_TIMEOUT: per render and per run timeout

	// Tier 2 - I/O
	InputDir    string // MDTYPST_INPUT_DIR: default input directory
	OutputDir   string // MDTYPST_OUTPUT_DIR: default output directory
	OutputsFile string // MDTYPST_OUTPUTS_FILE: output map path

	// Tier 3 - Extended
	Style    string // MDTYPST_STYLE: stylesheet name
	Date     string // MDTYPST_DATE: page date
	LogLevel string // MDTYPST_LOG_LEVEL: log level
	Workers  int    // MDTYPST_WORKERS: parallel documents
}

// knownEnvVars lists valid MDTYPST_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"MDTYPST_CONFIG":    true,
	"MDTYPST_TYPST_BIN": true,
	"MDTYPST_TIMEOUT":   true,
	// Tier 2 - I/O
	"MDTYPST_INPUT_DIR":    true,
	"MDTYPST_OUTPUT_DIR":   true,
	"MDTYPST_OUTPUTS_FILE": true,
	// Tier 3 - Extended
	"MDTYPST_STYLE":     true,
	"MDTYPST_DATE":      true,
	"MDTYPST_LOG_LEVEL": true,
	"MDTYPST_WORKERS":   true,
	// Read by container detection in doctor
	"MDTYPST_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized MDTYPST_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		// Tier 1
		ConfigPath: os.Getenv("MDTYPST_CONFIG"),
		TypstBin:   os.Getenv("MDTYPST_TYPST_BIN"),
		Timeout:    os.Getenv("MDTYPST_TIMEOUT"),
		// Tier 2
		InputDir:    os.Getenv("MDTYPST_INPUT_DIR"),
		OutputDir:   os.Getenv("MDTYPST_OUTPUT_DIR"),
		OutputsFile: os.Getenv("MDTYPST_OUTPUTS_FILE"),
		// Tier 3
		Style:    os.Getenv("MDTYPST_STYLE"),
		Date:     os.Getenv("MDTYPST_DATE"),
		LogLevel: os.Getenv("MDTYPST_LOG_LEVEL"),
	}

	// Parse int for workers
	if workers := os.Getenv("MDTYPST_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDTYPST_* variables.
// Helps catch typos like MDTYPST_TYPST instead of MDTYPST_TYPST_BIN.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// A set variable overrides the config file; CLI flags are applied later
// via mergeFlags, giving: CLI flags > env vars > config file > defaults.
// The timeout is validated with the rest of the config.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1
	if env.TypstBin != "" {
		cfg.Render.Binary = env.TypstBin
	}
	if env.Timeout != "" {
		cfg.Render.Timeout = env.Timeout
		cfg.Execute.Timeout = env.Timeout
	}

	// Tier 2
	if env.InputDir != "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.OutputsFile != "" {
		cfg.Output.OutputsFile = env.OutputsFile
	}

	// Tier 3
	if env.Style != "" {
		cfg.Assets.Style = env.Style
	}
	if env.Date != "" {
		cfg.Output.Date = env.Date
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
}
