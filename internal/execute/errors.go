package execute

import (
	"errors"
	"fmt"
)

// Sentinel errors for code execution.
var (
	ErrTimeout             = errors.New("execution timed out")
	ErrInterpreterNotFound = errors.New("interpreter not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrRunFailed           = errors.New("interpreter exited with an error")
)

// RunError reports a run whose interpreter exited non-zero. Output holds
// what the run printed, prefixed with the interpreter's ErrorPrefix.
type RunError struct {
	ExitCode int
	Output   string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%v (exit status %d)", ErrRunFailed, e.ExitCode)
}

func (e *RunError) Unwrap() error {
	return ErrRunFailed
}

// outputText returns the text recorded for a failed execution: the run's
// own diagnostics when it exited non-zero, the error otherwise.
func outputText(err error) string {
	var re *RunError
	if errors.As(err, &re) {
		return re.Output
	}
	return "Error: " + err.Error()
}
