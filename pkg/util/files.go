package util

import (
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// PartialPath returns a hidden sibling path used while a file is being written.
// The extension is preserved so tools that infer the container from it still work.
func PartialPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, "."+stem+".partial"+ext)
}

// GetExtension returns the lower-cased file extension
func GetExtension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
