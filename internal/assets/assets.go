package assets

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"strconv"
)

// Tree is the public tree interactive content is served from.
type Tree interface {
	// StageContent copies a package's content directory to
	// <base>/content/<contentID>, dropping any stale content.json first.
	StageContent(ctx context.Context, contentID int64, srcDir string) error
	// StageLibrary copies a library directory to <base>/libraries/<folder>.
	StageLibrary(ctx context.Context, folder, srcDir string) error
}

// DefaultBase is the folder name used when none is configured.
const DefaultBase = "h5p"

func contentPrefix(base string, contentID int64) string {
	return path.Join(base, "content", strconv.FormatInt(contentID, 10))
}

func libraryPrefix(base, folder string) string {
	return path.Join(base, "libraries", folder)
}

// walkFiles calls fn for every regular file below dir with its slash-separated relative path.
func walkFiles(dir string, fn func(abs, rel string) error) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return fn(p, filepath.ToSlash(rel))
	})
}
