package process

// Notes:
// - KillProcessGroup is only exercised with an invalid PID. PID 0 would kill
//   the test's own process group. Real termination is covered by
//   TestConfigure_TimeoutKillsChild, which needs a POSIX shell.

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestKillProcessGroup - Invalid PID Handling
// ---------------------------------------------------------------------------

func TestKillProcessGroup_InvalidPID(t *testing.T) {
	t.Parallel()

	KillProcessGroup(999999999)
}

// ---------------------------------------------------------------------------
// TestConfigure
// ---------------------------------------------------------------------------

func TestConfigure_SetsCancel(t *testing.T) {
	t.Parallel()

	cmd := exec.CommandContext(context.Background(), "true")
	Configure(cmd)

	if cmd.Cancel == nil {
		t.Error("Cancel not set")
	}
	if cmd.WaitDelay != WaitDelay {
		t.Errorf("WaitDelay = %v, want %v", cmd.WaitDelay, WaitDelay)
	}
}

func TestConfigure_TimeoutKillsChild(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", "sleep 30 & wait")
	Configure(cmd)

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected error from killed command")
	}
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Errorf("ctx.Err() = %v", ctx.Err())
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("command took %v, group was not killed", elapsed)
	}
}
