package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"course-import/internal/safefs"
)

// Scheme prefixes every URI returned by Public.
const Scheme = "public://"

// Public is the managed public file area.
type Public struct {
	root string
}

func NewPublic(root string) (*Public, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("public files root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create public files root: %w", err)
	}
	return &Public{root: abs}, nil
}

func (p *Public) Root() string { return p.root }

// CopyRename copies src to rel below the root. An existing file is never
// replaced: "a.pdf" becomes "a_0.pdf", then "a_1.pdf", and so on. It
// returns the public:// URI of the file written.
func (p *Public) CopyRename(src, rel string) (string, error) {
	rel = path.Clean(strings.TrimPrefix(filepath.ToSlash(rel), Scheme))
	if rel == "." || rel == "/" || strings.HasPrefix(rel, "/") || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("invalid destination %q", rel)
	}
	dest := filepath.Join(p.root, filepath.FromSlash(rel))
	if !safefs.HasPathPrefix(dest, p.root) {
		return "", fmt.Errorf("destination %q escapes public root", rel)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", rel, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, final, err := createUnique(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(final)
		return "", fmt.Errorf("copy to %s: %w", final, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(final)
		return "", fmt.Errorf("close %s: %w", final, err)
	}

	relFinal, err := filepath.Rel(p.root, final)
	if err != nil {
		return "", err
	}
	return Scheme + filepath.ToSlash(relFinal), nil
}

// createUnique opens dest exclusively, trying renamed candidates on collision.
func createUnique(dest string) (*os.File, string, error) {
	dir, base := filepath.Split(dest)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := dest
	for i := 0; ; i++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("create %s: %w", candidate, err)
		}
		if i >= 10000 {
			return nil, "", fmt.Errorf("no free name for %s", dest)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}
