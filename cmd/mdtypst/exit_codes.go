package main

import (
	"errors"
	"os"

	"github.com/alnah/go-mdtypst"
	"github.com/alnah/go-mdtypst/internal/config"
	"github.com/alnah/go-mdtypst/internal/dateutil"
	"github.com/alnah/go-mdtypst/internal/logging"
)

// Exit codes for the mdtypst CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // All documents built
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitRender  = 4 // typst missing or timing out, or render failures with --strict
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Toolchain errors (exit 4)
	if errors.Is(err, ErrToolchain) ||
		errors.Is(err, ErrStrictFailures) ||
		errors.Is(err, mdtypst.ErrCompilerNotFound) ||
		errors.Is(err, mdtypst.ErrRenderTimeout) {
		return ExitRender
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteHTML) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, mdtypst.ErrOutputsWrite) ||
		errors.Is(err, mdtypst.ErrOutputsRead) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, logging.ErrInvalidFormat) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, mdtypst.ErrEmptyMarkdown) ||
		errors.Is(err, mdtypst.ErrInvalidDate) ||
		errors.Is(err, mdtypst.ErrStyleNotFound) ||
		errors.Is(err, mdtypst.ErrTemplateNotFound) ||
		errors.Is(err, mdtypst.ErrInvalidAssetPath) ||
		errors.Is(err, mdtypst.ErrInvalidTemplate) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}
