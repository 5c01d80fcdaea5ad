package preprocess

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// IncludeResolver locates and reads the file named by an #include
// directive. It is the seam between the preprocessor and the
// filesystem, kept generic per this toolchain's own framing of file
// I/O as an external collaborator rather than a component of the
// preprocessor itself.
type IncludeResolver interface {
	// ResolveQuote resolves `#include "path"` relative to fromDir, the
	// directory of the file containing the directive.
	ResolveQuote(fromDir, path string) (data []byte, dir string, err error)
	// ResolveAngle resolves `#include <path>` by searching the
	// resolver's configured system directories. Zero or more than one
	// match is an error.
	ResolveAngle(path string) (data []byte, dir string, err error)
}

// FileIncludeResolver resolves includes against the real filesystem,
// searching SystemDirs in order for angle-form includes.
type FileIncludeResolver struct {
	SystemDirs []string
}

func (r *FileIncludeResolver) ResolveQuote(fromDir, path string) ([]byte, string, error) {
	full := filepath.Join(fromDir, path)
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, "", newDiag(MissingInclude, "cannot read %q: %v", full, err)
	}
	return data, filepath.Dir(full), nil
}

func (r *FileIncludeResolver) ResolveAngle(path string) ([]byte, string, error) {
	var matches []string
	for _, dir := range r.SystemDirs {
		full := filepath.Join(dir, path)
		if _, err := os.Stat(full); err == nil {
			matches = append(matches, full)
		}
	}
	switch len(matches) {
	case 0:
		return nil, "", newDiag(MissingInclude, "no system directory contains %q", path)
	case 1:
		data, err := os.ReadFile(matches[0])
		if err != nil {
			return nil, "", errors.Wrapf(newDiag(MissingInclude, "cannot read %q", matches[0]), "%v", err)
		}
		return data, filepath.Dir(matches[0]), nil
	default:
		return nil, "", newDiag(AmbiguousInclude, "%q found in %d system directories", path, len(matches))
	}
}
