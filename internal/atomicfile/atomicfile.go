// Package atomicfile implements crash-safe JSON persistence: write-temp-then-
// rename, so readers of a target path see either the prior file or the full
// new one — never a partial write.
package atomicfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WriteJSON ensures path's parent directory exists, writes v as 2-space
// indented UTF-8 JSON with a trailing newline into a sibling temp directory,
// then renames the file into place. The temp directory is removed once the
// rename has happened (or on any failure).
func WriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomicfile: mkdir %s: %w", dir, err)
	}

	tmpDir, err := os.MkdirTemp(dir, ".atomicfile-tmp-"+uuid.NewString()[:8])
	if err != nil {
		return fmt.Errorf("atomicfile: mkdir temp: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("atomicfile: marshal: %w", err)
	}
	data = append(data, '\n')

	tmpFile := filepath.Join(tmpDir, filepath.Base(path))
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("atomicfile: write temp file: %w", err)
	}

	// Resolve the destination's real parent so the rename can never land
	// outside the intended directory via a symlink swapped in underneath it.
	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("atomicfile: resolve %s: %w", dir, err)
	}
	dest := filepath.Join(realDir, filepath.Base(path))

	if err := os.Rename(tmpFile, dest); err != nil {
		return fmt.Errorf("atomicfile: rename into place: %w", err)
	}
	return nil
}

// ReadJSON reads and unmarshals the JSON document at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("atomicfile: unmarshal %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
