package safefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrOutsideRoot is returned for any path that resolves outside the root.
var ErrOutsideRoot = errors.New("safefs: path escapes root")

// FS resolves archive-relative paths against a fixed extraction root.
type FS struct {
	absRoot string // absolute root with symlinks resolved
}

// New locks all future operations to root, which must be an existing directory.
func New(root string) (*FS, error) {
	if root == "" {
		return nil, errors.New("safefs: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safefs: root is not a directory")
	}
	return &FS{absRoot: abs}, nil
}

// ReadFile reads a regular file below the root.
func (s *FS) ReadFile(rel string) ([]byte, error) {
	p, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("safefs: %s is a directory", rel)
	}
	return os.ReadFile(p)
}

// Stat returns metadata for a path below the root.
func (s *FS) Stat(rel string) (fs.FileInfo, error) {
	p, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// Exists reports whether rel resolves to an existing path below the root.
func (s *FS) Exists(rel string) bool {
	_, err := s.Stat(rel)
	return err == nil
}

// Resolve maps an archive-relative path (forward or OS separators) to an
// absolute, symlink-free path. Absolute inputs and ".." escapes are rejected.
func (s *FS) Resolve(rel string) (string, error) {
	if s == nil {
		return "", errors.New("safefs: filesystem not configured")
	}
	if strings.TrimSpace(rel) == "" {
		return "", errors.New("safefs: empty path")
	}
	if strings.ContainsRune(rel, 0) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." {
		return s.absRoot, nil
	}
	if filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "") {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}

	joined := filepath.Join(s.absRoot, clean)
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", err
	}
	if !HasPathPrefix(resolved, s.absRoot) {
		return "", fmt.Errorf("%w: %q resolves to %s", ErrOutsideRoot, rel, resolved)
	}
	return resolved, nil
}

// HasPathPrefix reports whether path equals root or lies below it.
func HasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path+sep, root)
}
