package mdtypst

import (
	"errors"

	"github.com/alnah/go-mdtypst/internal/render"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown = errors.New("markdown content cannot be empty")
	ErrInvalidDate   = errors.New("invalid page date")

	// Toolchain errors, recorded in Result.Failures.
	ErrCompilerNotFound = render.ErrCompilerNotFound
	ErrRenderTimeout    = render.ErrTimeout

	// Output map errors.
	ErrOutputsWrite = errors.New("failed to write outputs file")
	ErrOutputsRead  = errors.New("failed to read outputs file")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrInvalidTemplate  = errors.New("invalid page template")
)
