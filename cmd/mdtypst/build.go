package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdtypst"
	"github.com/alnah/go-mdtypst/internal/config"
	"github.com/alnah/go-mdtypst/internal/hints"
	"github.com/alnah/go-mdtypst/internal/logging"
)

// Sentinel errors for the build command.
var (
	ErrNoInput        = errors.New("no input specified")
	ErrInvalidTimeout = errors.New("invalid timeout")
	ErrToolchain      = errors.New("typst toolchain unavailable")
	ErrStrictFailures = errors.New("render failures")
)

// DefaultOutputsFile is the output map name, written next to the pages.
const DefaultOutputsFile = "code-outputs.json"

// runBuildCmd parses build flags, runs the build under a signal-aware
// context and returns the exit code.
func runBuildCmd(args []string, env *Environment) int {
	flags, positional, err := parseBuildFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runBuild(ctx, positional, flags, env); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runBuild orchestrates the build of every discovered document.
func runBuild(ctx context.Context, positionalArgs []string, flags *buildFlags, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if err := validateTimeout(flags.timeout); err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	cfg, err := loadBuildConfig(flags, envCfg)
	if err != nil {
		return err
	}

	logger, err := newLogger(env, flags, cfg)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)

	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no markdown files found in %s", inputPath)
	}

	builder, err := mdtypst.NewBuilder(builderOptions(cfg, logger)...)
	if err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	workers = mdtypst.ResolveWorkers(workers)
	logger.Debug().Int("workers", workers).Int("documents", len(files)).Msg("starting build")

	results := buildBatch(ctx, builder, files, workers, cfg.Output.Fragment)

	outputs := make(map[string]string)
	for _, r := range results {
		for _, key := range mdtypst.MergeOutputs(outputs, r.Outputs) {
			logger.Warn().Str("key", key).Str("path", r.InputPath).Msg("duplicate output key, later document wins")
		}
	}
	outputsPath := resolveOutputsPath(cfg, inputPath, outputDir)
	if len(outputs) > 0 || cfg.Output.OutputsFile != "" {
		if err := mdtypst.WriteOutputs(outputsPath, outputs); err != nil {
			return err
		}
		logger.Debug().Str("path", outputsPath).Int("entries", len(outputs)).Msg("output map written")
	}

	summary := printResults(results, flags.common.quiet, flags.common.verbose, env)
	switch {
	case summary.Failed > 0:
		return fmt.Errorf("%d of %d document(s) failed: %w", summary.Failed, len(results), summary.FirstErr)
	case summary.CompilerErr != nil:
		return fmt.Errorf("%w: %w", ErrToolchain, summary.CompilerErr)
	case flags.strict && summary.RenderFailures > 0:
		return fmt.Errorf("%w: %d render error marker(s)", ErrStrictFailures, summary.RenderFailures)
	}
	return nil
}

// loadBuildConfig layers defaults, the config file, the environment and
// the flags, then validates the result.
func loadBuildConfig(flags *buildFlags, envCfg *envConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()

	configName := flags.common.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	if configName != "" {
		var err error
		cfg, err = config.LoadConfig(configName)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateTimeout checks the --timeout flag. Empty means unset.
func validateTimeout(s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fmt.Errorf("%w: %q (use a positive duration such as 30s or 2m)", ErrInvalidTimeout, s)
	}
	return nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *buildFlags, cfg *config.Config) {
	// Render flags
	if flags.render.binary != "" {
		cfg.Render.Binary = flags.render.binary
	}
	if flags.render.root != "" {
		cfg.Render.Root = flags.render.root
	}
	if flags.timeout != "" {
		cfg.Render.Timeout = flags.timeout
		cfg.Execute.Timeout = flags.timeout
	}

	// Execute flags
	if flags.execute.concurrency > 0 {
		cfg.Execute.Concurrency = flags.execute.concurrency
	}
	if flags.execute.defaultLanguage != "" {
		cfg.Execute.DefaultLanguage = flags.execute.defaultLanguage
	}

	// Asset flags
	if flags.assets.style != "" {
		cfg.Assets.Style = flags.assets.style
	}
	if flags.assets.template != "" {
		cfg.Assets.Template = flags.assets.template
	}
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}

	// Output flags
	if flags.mode.outputs != "" {
		cfg.Output.OutputsFile = flags.mode.outputs
	}
	if flags.mode.fragment {
		cfg.Output.Fragment = true
	}
	if flags.mode.date != "" {
		cfg.Output.Date = flags.mode.date
	}

	// Logging
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
}

// newLogger builds the build logger. --verbose and --quiet win over the
// configured level.
func newLogger(env *Environment, flags *buildFlags, cfg *config.Config) (zerolog.Logger, error) {
	level := cfg.Log.Level
	switch {
	case flags.common.verbose:
		level = string(logging.LevelDebug)
	case flags.common.quiet:
		level = string(logging.LevelError)
	}
	return logging.New(env.Stderr, level, cfg.Log.Format)
}

// builderOptions maps the configuration onto library options.
func builderOptions(cfg *config.Config, logger zerolog.Logger) []mdtypst.Option {
	opts := []mdtypst.Option{
		mdtypst.WithLogger(logger),
		mdtypst.WithTypstBinary(cfg.Render.Binary),
		mdtypst.WithTypstRoot(cfg.Render.Root),
		mdtypst.WithPreamble(cfg.Render.Preamble),
		mdtypst.WithReferenceSize(cfg.Render.ReferenceSize),
		mdtypst.WithPageWidths(cfg.Render.LargePageWidth, cfg.Render.FallbackPageWidth),
		mdtypst.WithCache(cfg.Render.CacheSize, cfg.Render.CacheKeep),
		mdtypst.WithConcurrency(cfg.Execute.Concurrency),
		mdtypst.WithDefaultLanguage(cfg.Execute.DefaultLanguage),
		mdtypst.WithHeadingUnicode(cfg.Math.HeadingUnicode),
		mdtypst.WithInlineCodeUnicode(cfg.Math.InlineCodeUnicode),
		mdtypst.WithStyle(cfg.Assets.Style),
		mdtypst.WithTemplate(cfg.Assets.Template),
		mdtypst.WithAssetPath(cfg.Assets.BasePath),
		mdtypst.WithDate(cfg.Output.Date),
	}

	if d := cfg.RenderTimeout(); d > 0 {
		opts = append(opts, mdtypst.WithRenderTimeout(d))
	}
	if d := cfg.ExecuteTimeout(); d > 0 {
		opts = append(opts, mdtypst.WithExecTimeout(d))
	}

	for lang, ic := range cfg.Execute.Interpreters {
		interp := mdtypst.Interpreter{
			Command:      ic.Command,
			Args:         ic.Args,
			Extension:    ic.Extension,
			PreferStderr: ic.PreferStderr,
			Statements:   ic.Statements,
			Translate:    ic.Translate,
			ErrorPrefix:  ic.ErrorPrefix,
		}
		opts = append(opts, mdtypst.WithInterpreter(interp, append([]string{lang}, ic.Aliases...)...))
	}

	return opts
}

// resolveInputPath returns the input from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir returns the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// resolveOutputsPath returns where the output map is written: the
// configured path, else DefaultOutputsFile in the output directory, else
// next to the input.
func resolveOutputsPath(cfg *config.Config, inputPath, outputDir string) string {
	if cfg.Output.OutputsFile != "" {
		return cfg.Output.OutputsFile
	}
	if outputDir != "" {
		return filepath.Join(outputDir, DefaultOutputsFile)
	}
	if info, err := os.Stat(inputPath); err == nil && info.IsDir() {
		return filepath.Join(inputPath, DefaultOutputsFile)
	}
	return filepath.Join(filepath.Dir(inputPath), DefaultOutputsFile)
}

// hintFor returns an actionable hint for well-known failures.
func hintFor(err error) string {
	switch {
	case errors.Is(err, mdtypst.ErrRenderTimeout):
		return hints.ForTimeout()
	case errors.Is(err, ErrToolchain), errors.Is(err, mdtypst.ErrCompilerNotFound):
		return hints.ForTypstNotFound()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, mdtypst.ErrOutputsWrite), errors.Is(err, ErrWriteHTML):
		return hints.ForOutputDirectory()
	}
	return ""
}
