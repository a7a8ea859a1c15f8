package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdtypst/internal/config"
	"github.com/alnah/go-mdtypst/internal/execute"
	"github.com/alnah/go-mdtypst/internal/hints"
	"github.com/alnah/go-mdtypst/internal/render"
)

// versionTimeout bounds each "--version" probe.
const versionTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status       string         `json:"status"` // "ready", "warnings", "errors"
	Typst        binaryInfo     `json:"typst"`
	Interpreters []languageInfo `json:"interpreters"`
	Env          envInfo        `json:"environment"`
	System       systemInfo     `json:"system"`
	Warnings     []string       `json:"warnings,omitempty"`
	Errors       []string       `json:"errors,omitempty"`
}

// binaryInfo holds executable detection results.
type binaryInfo struct {
	Command string `json:"command"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// languageInfo groups the language tags served by one command.
type languageInfo struct {
	binaryInfo
	Languages []string `json:"languages"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 2 = bad flags or config,
// 4 = typst missing, 1 = other errors.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var jsonOutput bool
	var configName string
	fs.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	envCfg := loadEnvConfig()
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	cfg := config.DefaultConfig()
	if configName != "" {
		var err error
		if cfg, err = config.LoadConfig(configName); err != nil {
			fmt.Fprintf(env.Stderr, "error: loading config: %v\n", err)
			return exitCodeFor(err)
		}
	}
	applyEnvConfig(envCfg, cfg)

	result := runDoctor(cfg, env)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	switch {
	case !result.Typst.Found:
		return ExitRender
	case result.Status == "errors":
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(cfg *config.Config, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkTypst(result, cfg, env)
	checkInterpreters(result, cfg, env)
	checkEnvironment(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkTypst locates the typst binary. A missing typst is an error: no
// math, diagram or Typst block can render without it.
func checkTypst(result *doctorResult, cfg *config.Config, env *Environment) {
	command := cfg.Render.Binary
	if command == "" {
		command = render.DefaultBinary
	}
	result.Typst = probe(command, env)
	if !result.Typst.Found {
		result.Errors = append(result.Errors,
			fmt.Sprintf("typst not found (%s)%s", command, hints.ForTypstNotFound()))
	}
}

// checkInterpreters locates the command of every configured language. A
// missing interpreter is a warning: only blocks in that language fail.
func checkInterpreters(result *doctorResult, cfg *config.Config, env *Environment) {
	registry := execute.DefaultRegistry()
	for lang, ic := range cfg.Execute.Interpreters {
		interp := execute.Interpreter{Name: lang, Command: ic.Command, Extension: ic.Extension}
		registry.Register(interp, append([]string{lang}, ic.Aliases...)...)
	}

	byCommand := make(map[string][]string)
	for _, lang := range registry.Languages() {
		interp, _ := registry.Lookup(lang)
		byCommand[interp.Command] = append(byCommand[interp.Command], lang)
	}

	commands := make([]string, 0, len(byCommand))
	for c := range byCommand {
		commands = append(commands, c)
	}
	slices.Sort(commands)

	for _, c := range commands {
		info := languageInfo{binaryInfo: probe(c, env), Languages: byCommand[c]}
		result.Interpreters = append(result.Interpreters, info)
		if !info.Found {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s not found, blocks in %s will fail%s",
					c, strings.Join(info.Languages, ", "), hints.ForInterpreterNotFound(c)))
		}
	}
}

// probe resolves command on PATH and asks it for its version.
func probe(command string, env *Environment) binaryInfo {
	info := binaryInfo{Command: command}
	path, err := env.LookPath(command)
	if err != nil {
		return info
	}
	info.Found = true
	info.Path = path

	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- configured command
	if err == nil {
		info.Version = firstLine(string(out))
	}
	return info
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	// Explicit override (highest priority)
	if os.Getenv("MDTYPST_CONTAINER") == "1" {
		return true, "MDTYPST_CONTAINER=1"
	}
	// Docker
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable: every render and
// every interpreter run goes through a temp file.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "mdtypst-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdtypst doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Typst")
	printBinary(w, r.Typst, "[ERROR]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Interpreters")
	for _, i := range r.Interpreters {
		fmt.Fprintf(w, "  %s:\n", strings.Join(i.Languages, ", "))
		printBinary(w, i.binaryInfo, "[WARN]")
	}
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func printBinary(w io.Writer, b binaryInfo, missing string) {
	if !b.Found {
		fmt.Fprintf(w, "  %s %s not found\n", missing, b.Command)
		return
	}
	fmt.Fprintf(w, "  [OK] Found at %s\n", b.Path)
	if b.Version != "" {
		fmt.Fprintf(w, "  [OK] Version: %s\n", b.Version)
	}
}
