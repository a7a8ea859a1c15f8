package execute

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeExecutor echoes the argument of every "print " or "#eval " line of
// the source, one per output line. A source containing failOn exits
// non-zero after printing.
type fakeExecutor struct {
	mu      sync.Mutex
	sources []string
	names   []string
	err     error
	failOn  string
}

func (f *fakeExecutor) Execute(_ context.Context, _ Interpreter, source, displayName string) (string, error) {
	f.mu.Lock()
	f.sources = append(f.sources, source)
	f.names = append(f.names, displayName)
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}

	var out strings.Builder
	for _, line := range strings.Split(source, "\n") {
		for _, prefix := range []string{"print ", "#eval "} {
			if rest, ok := strings.CutPrefix(line, prefix); ok {
				out.WriteString(rest + "\n")
			}
		}
	}
	if f.failOn != "" && strings.Contains(source, f.failOn) {
		return "", &RunError{ExitCode: 1, Output: "Error: " + out.String() + "ValueError: boom\n"}
	}
	return out.String(), nil
}

func (f *fakeExecutor) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sources...)
}

func block(id, session, lang, code string) *Block {
	return &Block{Filename: "intro", ID: id, Session: session, Language: lang, Code: code, Eval: true}
}

// ---------------------------------------------------------------------------
// TestRun - Sessions
// ---------------------------------------------------------------------------

func TestRun_SessionAccumulation(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	b1 := block("intro-1", "s", "python", "print 1")
	b2 := block("intro-2", "s", "python", "print 2")

	outputs, err := New(fe).Run(context.Background(), []*Block{b1, b2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	calls := fe.calls()
	if len(calls) != 2 {
		t.Fatalf("executor called %d times, want 2", len(calls))
	}
	if calls[1] != b1.Code+SessionSeparator+b2.Code {
		t.Errorf("second dispatch = %q, want %q", calls[1], b1.Code+SessionSeparator+b2.Code)
	}
	if outputs["intro::intro-1"] != "1" {
		t.Errorf("first output = %q, want only its own output", outputs["intro::intro-1"])
	}
	if outputs["intro::intro-2"] != "2" {
		t.Errorf("second output = %q, want the new output only", outputs["intro::intro-2"])
	}
}

func TestRun_StandaloneBlocksAreIsolated(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	blocks := []*Block{
		block("intro-1", "", "python", "print a\nprint b"),
		block("intro-2", "", "python", "print c"),
	}

	outputs, err := New(fe).Run(context.Background(), blocks)
	if err != nil {
		t.Fatal(err)
	}
	if outputs["intro::intro-1"] != "a\nb" || outputs["intro::intro-2"] != "c" {
		t.Errorf("outputs = %v", outputs)
	}
	for _, src := range fe.calls() {
		if strings.Contains(src, SessionSeparator) {
			t.Errorf("standalone block received accumulated source %q", src)
		}
	}
}

func TestRun_SessionsSplitByLanguage(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	blocks := []*Block{
		block("a", "s", "python", "print 1"),
		block("b", "s", "py", "print 2"),
		block("c", "s", "python", "print 3"),
	}

	outputs, err := New(fe).Run(context.Background(), blocks)
	if err != nil {
		t.Fatal(err)
	}
	if outputs["intro::b"] != "2" {
		t.Errorf("py block shares the python session: %q", outputs["intro::b"])
	}
	if outputs["intro::c"] != "3" {
		t.Errorf("third output = %q, want 3", outputs["intro::c"])
	}
}

func TestRun_DisplayName(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	if _, err := New(fe).Run(context.Background(), []*Block{block("x", "", "python", "print 1")}); err != nil {
		t.Fatal(err)
	}
	if fe.names[0] != "intro.py" {
		t.Errorf("display name = %q, want intro.py", fe.names[0])
	}
}

// ---------------------------------------------------------------------------
// TestRun - Statement mode
// ---------------------------------------------------------------------------

func TestRun_StatementDiffs(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	b1 := block("l1", "proofs", "lean", "def x := 1\n#eval x\n#eval x + 1")
	b2 := block("l2", "proofs", "lean", "#eval x * 2")

	outputs, err := New(fe).Run(context.Background(), []*Block{b1, b2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want1 := `[{"statement":"def x := 1","output":""},{"statement":"#eval x","output":"x"},{"statement":"#eval x + 1","output":"x + 1"}]`
	if got := outputs["intro::l1"]; got != want1 {
		t.Errorf("first block =\n%s\nwant\n%s", got, want1)
	}
	want2 := `[{"statement":"#eval x * 2","output":"x * 2"}]`
	if got := outputs["intro::l2"]; got != want2 {
		t.Errorf("second block = %s, want %s", got, want2)
	}

	// One run per statement prefix, never repeated.
	if got := len(fe.calls()); got != 4 {
		t.Errorf("executor called %d times, want 4", got)
	}
	if len(b1.Output.Parts) != 3 || b1.Output.Parts[1].Output != "x" {
		t.Errorf("parts = %+v", b1.Output.Parts)
	}
}

func TestRun_StatementRepeatedOutput(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	b := block("l1", "", "lean", "#eval 1\n#eval 1")

	outputs, err := New(fe).Run(context.Background(), []*Block{b})
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"statement":"#eval 1","output":"1"},{"statement":"#eval 1","output":"1"}]`
	if outputs["intro::l1"] != want {
		t.Errorf("output = %s, want %s", outputs["intro::l1"], want)
	}
}

func TestRun_TranslatesSymbols(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	b := block("l1", "", "lean", `#eval \alpha`)
	if _, err := New(fe).Run(context.Background(), []*Block{b}); err != nil {
		t.Fatal(err)
	}
	if got := fe.calls()[0]; got != "#eval α" {
		t.Errorf("dispatched %q, want translated source", got)
	}
}

// ---------------------------------------------------------------------------
// TestRun - Failures
// ---------------------------------------------------------------------------

func TestRun_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	outputs, err := New(fe).Run(context.Background(), []*Block{block("r", "", "ruby", "puts 1")})
	if err != nil {
		t.Fatal(err)
	}
	if outputs["intro::r"] != "Unsupported language: ruby" {
		t.Errorf("output = %q", outputs["intro::r"])
	}
	if len(fe.calls()) != 0 {
		t.Error("unsupported language reached the executor")
	}
}

func TestRun_EvalFalseSkipped(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	skipped := block("a", "s", "python", "print 1")
	skipped.Eval = false
	run := block("b", "s", "python", "print 2")

	outputs, err := New(fe).Run(context.Background(), []*Block{skipped, run})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := outputs["intro::a"]; ok {
		t.Error("eval false block should not be recorded")
	}
	if skipped.Output != nil {
		t.Error("eval false block should have no output")
	}
	if calls := fe.calls(); len(calls) != 1 || calls[0] != "print 2" {
		t.Errorf("dispatched %q", calls)
	}
}

func TestRun_ExecutionErrorIsOutput(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{err: fmt.Errorf("%w after 30s", ErrTimeout)}
	blocks := []*Block{
		block("a", "", "python", "print 1"),
		block("b", "", "lean", "#eval 1"),
	}

	outputs, err := New(fe).Run(context.Background(), blocks)
	if err != nil {
		t.Fatalf("execution errors must not fail the run: %v", err)
	}
	if outputs["intro::a"] != "Error: execution timed out after 30s" {
		t.Errorf("output = %q", outputs["intro::a"])
	}
	if !strings.Contains(outputs["intro::b"], "execution timed out") {
		t.Errorf("statement output = %q", outputs["intro::b"])
	}
}

func TestRun_SessionFailureStaysVisible(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{failOn: "raise"}
	blocks := []*Block{
		block("a", "s1", "python", "print 1"),
		block("b", "s1", "python", "print 2\nraise"),
		block("c", "s1", "python", "print after"),
		block("d", "", "python", "print alone"),
	}

	outputs, err := New(fe).Run(context.Background(), blocks)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"intro::a": "1",
		"intro::b": "Error: 1\n2\nValueError: boom",
		"intro::c": "Error: 1\n2\nafter\nValueError: boom",
		"intro::d": "alone",
	}
	for key, w := range want {
		if outputs[key] != w {
			t.Errorf("%s = %q, want %q", key, outputs[key], w)
		}
	}
}

func TestRun_StatementFailureStaysVisible(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{failOn: "#eval bad"}
	first := block("x", "s1", "lean", "#eval 1\n#eval bad\n#eval 2")
	second := block("y", "s1", "lean", "#eval 3")

	if _, err := New(fe).Run(context.Background(), []*Block{first, second}); err != nil {
		t.Fatal(err)
	}

	parts := first.Output.Parts
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2 (stop at the failing statement): %+v", len(parts), parts)
	}
	if parts[0].Output != "1" {
		t.Errorf("parts[0] = %+v", parts[0])
	}
	if parts[1].Statement != "#eval bad" || !strings.Contains(parts[1].Output, "ValueError: boom") {
		t.Errorf("parts[1] = %+v", parts[1])
	}

	later := second.Output.Parts
	if len(later) != 1 || !strings.Contains(later[0].Output, "ValueError: boom") {
		t.Errorf("later block should show the session error, got %+v", later)
	}
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeExecutor{}).Run(ctx, []*Block{block("a", "", "python", "print 1")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRun_ManyLanes(t *testing.T) {
	t.Parallel()

	fe := &fakeExecutor{}
	var blocks []*Block
	for i := 0; i < 20; i++ {
		session := ""
		if i%2 == 0 {
			session = fmt.Sprintf("s%d", i%4)
		}
		blocks = append(blocks, block(fmt.Sprintf("b%d", i), session, "python", fmt.Sprintf("print %d", i)))
	}

	outputs, err := New(fe, WithConcurrency(3)).Run(context.Background(), blocks)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("intro::b%d", i)
		if outputs[key] != fmt.Sprint(i) {
			t.Errorf("%s = %q, want %d", key, outputs[key], i)
		}
	}
}

// ---------------------------------------------------------------------------
// TestSplitStatements / TestDiff
// ---------------------------------------------------------------------------

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "directives are single units",
			source: "#eval 1\n#check Nat",
			want:   []string{"#eval 1", "#check Nat"},
		},
		{
			name:   "block keyword collects continuation",
			source: "theorem t : 1 = 1 := by\n  rfl\n#eval 2",
			want:   []string{"theorem t : 1 = 1 := by\n  rfl", "#eval 2"},
		},
		{
			name:   "blank lines between units dropped",
			source: "\n\ndef a := 1\n\n\ndef b := 2\n",
			want:   []string{"def a := 1", "def b := 2"},
		},
		{
			name:   "attribute starts a unit",
			source: "def a := 1\n@[simp]\ntheorem x : a = 1 := rfl",
			want:   []string{"def a := 1", "@[simp]\ntheorem x : a = 1 := rfl"},
		},
		{
			name:   "indented keyword continues",
			source: "namespace Foo\n  def a := 1\nend Foo",
			want:   []string{"namespace Foo\n  def a := 1", "end Foo"},
		},
		{
			name:   "leading plain text is a unit",
			source: "x + 1\n#eval x",
			want:   []string{"x + 1", "#eval x"},
		},
		{
			name:   "empty",
			source: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SplitStatements(tt.source)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("SplitStatements() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		prev string
		next string
		want string
	}{
		{"appended", "a\nb\n", "a\nb\nc\n", "c"},
		{"from empty", "", "a\nb", "a\nb"},
		{"nothing new", "a\n", "a\n", ""},
		{"inserted in middle", "a\nc", "a\nb\nc", "b"},
		{"changed line", "a\nwarning 1", "a\nwarning 2\nd", "warning 2\nd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Diff(tt.prev, tt.next); got != tt.want {
				t.Errorf("Diff() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeParts(t *testing.T) {
	t.Parallel()

	parts, ok := DecodeParts(`[{"statement":"#eval 1","output":"1"}]`)
	if !ok || len(parts) != 1 || parts[0].Statement != "#eval 1" || parts[0].Output != "1" {
		t.Errorf("DecodeParts() = %+v, %v", parts, ok)
	}
	if _, ok := DecodeParts("plain output"); ok {
		t.Error("plain text decoded as parts")
	}
	if _, ok := DecodeParts("[not json"); ok {
		t.Error("invalid JSON decoded as parts")
	}
}

// ---------------------------------------------------------------------------
// TestRegistry
// ---------------------------------------------------------------------------

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	tests := []struct {
		lang       string
		command    string
		statements bool
	}{
		{"python", "python3", false},
		{"PY", "python3", false},
		{"lean4", "lean", true},
	}
	for _, tt := range tests {
		i, ok := r.Lookup(tt.lang)
		if !ok {
			t.Errorf("Lookup(%q) missing", tt.lang)
			continue
		}
		if i.Command != tt.command || i.Statements != tt.statements {
			t.Errorf("Lookup(%q) = %+v", tt.lang, i)
		}
	}
	if _, ok := r.Lookup("ruby"); ok {
		t.Error("ruby should not be registered")
	}
	if got := strings.Join(r.Languages(), ","); got != "lean,lean4,py,python,python3" {
		t.Errorf("Languages() = %s", got)
	}
}

// ---------------------------------------------------------------------------
// TestProcessExecutor
// ---------------------------------------------------------------------------

func TestSelectOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		preferStderr bool
		stdout       string
		stderr       string
		want         string
	}{
		{false, "out", "err", "out"},
		{false, " \n", "err", "err"},
		{true, "out", "err", "err"},
		{true, "out", "", "out"},
	}
	for _, tt := range tests {
		if got := selectOutput(tt.preferStderr, tt.stdout, tt.stderr); got != tt.want {
			t.Errorf("selectOutput(%v, %q, %q) = %q, want %q", tt.preferStderr, tt.stdout, tt.stderr, got, tt.want)
		}
	}
}

func TestJoinOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stdout string
		stderr string
		want   string
	}{
		{"2\n", "Traceback\n", "2\nTraceback\n"},
		{"2", "Traceback\n", "2\nTraceback\n"},
		{"", "Traceback\n", "Traceback\n"},
		{"2\n", " \n", "2\n"},
	}
	for _, tt := range tests {
		if got := joinOutput(tt.stdout, tt.stderr); got != tt.want {
			t.Errorf("joinOutput(%q, %q) = %q, want %q", tt.stdout, tt.stderr, got, tt.want)
		}
	}
}

func TestProcessExecutor_NotFound(t *testing.T) {
	t.Parallel()

	e := NewProcessExecutor(time.Second)
	e.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	_, err := e.Execute(context.Background(), Interpreter{Command: "nope", Extension: "x"}, "", "")
	if !errors.Is(err, ErrInterpreterNotFound) {
		t.Errorf("error = %v, want ErrInterpreterNotFound", err)
	}
}

func shell(t *testing.T) Interpreter {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
	return Interpreter{Name: "sh", Command: "sh", Extension: "sh", ErrorPrefix: "Error: "}
}

func TestProcessExecutor_Shell(t *testing.T) {
	t.Parallel()

	sh := shell(t)
	e := NewProcessExecutor(10 * time.Second)

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"stdout", "echo hi", "hi\n"},
		{"stderr when stdout empty", "echo warn >&2", "warn\n"},
		{"temp path replaced", `echo "$0"`, "page.sh\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := e.Execute(context.Background(), sh, tt.source, "page.sh")
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Execute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcessExecutor_Failure(t *testing.T) {
	t.Parallel()

	sh := shell(t)
	e := NewProcessExecutor(10 * time.Second)

	out, err := e.Execute(context.Background(), sh, "echo partial; echo bad >&2; exit 3", "page.sh")
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("error = %v, want ErrRunFailed", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}

	var re *RunError
	if !errors.As(err, &re) {
		t.Fatalf("error %T is not a *RunError", err)
	}
	if re.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", re.ExitCode)
	}
	if re.Output != "Error: partial\nbad\n" {
		t.Errorf("Output = %q", re.Output)
	}
}

func TestProcessExecutor_Timeout(t *testing.T) {
	t.Parallel()

	sh := shell(t)
	e := NewProcessExecutor(100 * time.Millisecond)

	start := time.Now()
	_, err := e.Execute(context.Background(), sh, "sleep 30", "")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("timeout did not stop the process")
	}
}
