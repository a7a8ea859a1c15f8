package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds typst renderer flags.
type renderFlags struct {
	binary string
	root   string
}

// executeFlags holds code execution flags.
type executeFlags struct {
	concurrency     int
	defaultLanguage string
}

// assetFlags holds page asset flags.
type assetFlags struct {
	style     string
	template  string
	assetPath string
}

// outputFlags holds output mode flags.
type outputFlags struct {
	outputs  string // output map path
	fragment bool   // bare body HTML, no page template
	date     string // page date
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common   commonFlags
	output   string
	workers  int
	timeout  string
	logLevel string
	strict   bool
	render   renderFlags
	execute  executeFlags
	assets   assetFlags
	mode     outputFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addRenderFlags adds renderer flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.binary, "typst", "", "typst executable name or path")
	fs.StringVar(&f.root, "typst-root", "", "project root for typst imports")
}

// addExecuteFlags adds code execution flags to a FlagSet.
func addExecuteFlags(fs *flag.FlagSet, f *executeFlags) {
	fs.IntVar(&f.concurrency, "concurrency", 0, "renders and sessions in flight per document (0 = auto)")
	fs.StringVar(&f.defaultLanguage, "default-language", "", "language of code blocks without :language")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "stylesheet name")
	fs.StringVar(&f.template, "template", "", "page template name")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// addOutputFlags adds output mode flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVar(&f.outputs, "outputs", "", "output map JSON path")
	fs.BoolVar(&f.fragment, "fragment", false, "write body HTML only, without the page template")
	fs.StringVar(&f.date, "date", "", "page date: \"auto\", \"auto:FORMAT\", or literal")
}

// newBuildFlagSet registers every build flag on a new FlagSet.
func newBuildFlagSet(f *buildFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "documents built in parallel (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per render and per run timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&f.strict, "strict", false, "fail when any render produced an error marker")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addExecuteFlags(fs, &f.execute)
	addAssetFlags(fs, &f.assets)
	addOutputFlags(fs, &f.mode)

	return fs
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string) (*buildFlags, []string, error) {
	f := &buildFlags{}
	fs := newBuildFlagSet(f)
	fs.Usage = func() { printBuildUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
