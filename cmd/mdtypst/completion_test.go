package main

// Notes:
// - GenerateCompletion: we test that scripts carry the expected markers. We
//   do not run them in the target shells.
// - getCommands: build flags come from the real FlagSet, so a new flag shows
//   up in completions without edits here.
// These are acceptable gaps: we test observable behavior, not runtime shell behavior.

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGenerateCompletion_SupportedShells - Shell completion script generation
// ---------------------------------------------------------------------------

func TestGenerateCompletion_SupportedShells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		shell        Shell
		wantContains []string
	}{
		{
			name:  "bash",
			shell: ShellBash,
			wantContains: []string{
				"_mdtypst()",
				"complete -F _mdtypst mdtypst",
				"build config doctor completion version help",
				"--typst-root",
				"--output|-o",
				`"debug info warn error"`,
			},
		},
		{
			name:  "zsh",
			shell: ShellZsh,
			wantContains: []string{
				"#compdef mdtypst",
				"bashcompinit",
				"complete -F _mdtypst mdtypst",
			},
		},
		{
			name:  "fish",
			shell: ShellFish,
			wantContains: []string{
				"complete -c mdtypst -f",
				"__fish_use_subcommand -a build",
				"-l output -s o -r -F",
				"-l log-level -x -a 'debug info warn error'",
				"-l strict -d",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := GenerateCompletion(&buf, tt.shell); err != nil {
				t.Fatalf("GenerateCompletion(%s) error = %v", tt.shell, err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("%s script missing %q", tt.shell, want)
				}
			}
		})
	}
}

func TestGenerateCompletion_UnsupportedShell(t *testing.T) {
	t.Parallel()

	err := GenerateCompletion(&bytes.Buffer{}, Shell("powershell"))
	if !errors.Is(err, ErrUnsupportedShell) {
		t.Errorf("error = %v, want ErrUnsupportedShell", err)
	}
}

// ---------------------------------------------------------------------------
// TestGetCommands - Command registry
// ---------------------------------------------------------------------------

func TestGetCommands(t *testing.T) {
	t.Parallel()

	cmds := getCommands()
	if len(cmds) != len(commands) {
		t.Fatalf("got %d commands, want %d", len(cmds), len(commands))
	}
	for i, c := range cmds {
		if c.Name != commands[i] {
			t.Errorf("command %d = %q, want %q", i, c.Name, commands[i])
		}
	}

	build := cmds[0]
	if !build.TakesFiles {
		t.Error("build should take files")
	}

	byName := make(map[string]flagDef)
	for _, f := range build.Flags {
		byName[f.Long] = f
	}

	tests := []struct {
		flag string
		typ  flagType
	}{
		{"output", flagDir},
		{"config", flagFile},
		{"log-level", flagEnum},
		{"strict", flagBool},
		{"workers", flagInt},
		{"date", flagString},
	}
	for _, tt := range tests {
		f, ok := byName[tt.flag]
		if !ok {
			t.Errorf("missing flag --%s", tt.flag)
			continue
		}
		if f.Type != tt.typ {
			t.Errorf("--%s type = %d, want %d", tt.flag, f.Type, tt.typ)
		}
	}
	if byName["output"].Short != "o" {
		t.Errorf("--output short = %q, want o", byName["output"].Short)
	}
}

// ---------------------------------------------------------------------------
// TestRunCompletion - Command entry point
// ---------------------------------------------------------------------------

func TestRunCompletion(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv()
	if err := runCompletion(nil, env); err != nil {
		t.Fatalf("runCompletion() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Usage: mdtypst completion <shell>") {
		t.Errorf("expected usage, got %q", stdout.String())
	}
}
