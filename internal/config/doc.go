// Package config loads and validates the YAML configuration of a build:
// input and output locations, the Typst renderer, code interpreters, the
// math passes and logging.
package config
