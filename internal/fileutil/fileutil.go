// Package fileutil holds small filesystem helpers shared by the conversion
// pipeline and the command-line tools.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// SwapExt returns the base name of path with its extension replaced by ext.
// The ext argument must include the leading dot.
func SwapExt(path, ext string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + ext
}

// OutputPath derives the destination for an input file: the input's base
// name, extension swapped to ext, placed under dir.
func OutputPath(dir, inputPath, ext string) string {
	return filepath.Join(dir, SwapExt(inputPath, ext))
}

// IsRegular reports whether path exists and is a regular file.
func IsRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
