package mdtypst

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/alnah/go-mdtypst/internal/fileutil"
)

// WriteOutputs writes the output map as a flat JSON object with sorted keys
// and two-space indentation. The file is replaced atomically.
func WriteOutputs(path string, outputs map[string]string) error {
	if outputs == nil {
		outputs = map[string]string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outputs); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputsWrite, err)
	}

	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputsWrite, err)
	}
	return nil
}

// ReadOutputs reads an output map written by WriteOutputs. A missing file
// is an empty map.
func ReadOutputs(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputsRead, err)
	}

	outputs := map[string]string{}
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputsRead, err)
	}
	return outputs, nil
}

// MergeOutputs copies src into dst and returns the keys present in both.
// Values from src win.
func MergeOutputs(dst, src map[string]string) []string {
	var dup []string
	for k, v := range src {
		if _, ok := dst[k]; ok {
			dup = append(dup, k)
		}
		dst[k] = v
	}
	slices.Sort(dup)
	return dup
}
