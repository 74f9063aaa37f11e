package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Disk keeps the tree on the local filesystem under root/base.
type Disk struct {
	root string
	base string
}

var _ Tree = (*Disk)(nil)

func NewDisk(root, base string) *Disk {
	if strings.TrimSpace(base) == "" {
		base = DefaultBase
	}
	return &Disk{root: root, base: base}
}

func (d *Disk) StageContent(ctx context.Context, contentID int64, srcDir string) error {
	dest := filepath.Join(d.root, filepath.FromSlash(contentPrefix(d.base, contentID)))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("prepare content directory: %w", err)
	}
	if err := os.Remove(filepath.Join(dest, "content.json")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale content.json: %w", err)
	}
	return copyTree(ctx, srcDir, dest)
}

func (d *Disk) StageLibrary(ctx context.Context, folder, srcDir string) error {
	if strings.ContainsAny(folder, `/\`) || folder == "" || folder == "." || folder == ".." {
		return fmt.Errorf("invalid library folder %q", folder)
	}
	dest := filepath.Join(d.root, filepath.FromSlash(libraryPrefix(d.base, folder)))
	return copyTree(ctx, srcDir, dest)
}

func copyTree(ctx context.Context, src, dest string) error {
	return walkFiles(src, func(abs, rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return copyFile(abs, target)
	})
}

func copyFile(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}
