package h5p

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"course-import/internal/archive"
	"course-import/internal/assets"
	"course-import/internal/importerr"
	"course-import/internal/store"
)

// ContentStore creates interactive content rows.
type ContentStore interface {
	CreateH5PContent(ctx context.Context, row store.H5PContentRow) (int64, error)
}

// Resolver imports embedded interactive-content packages.
type Resolver struct {
	Registry store.Registry
	Content  ContentStore
	Assets   assets.Tree
	Logger   *log.Logger
	// MaxEntryBytes caps a single package entry, archive.DefaultMaxEntryBytes when zero.
	MaxEntryBytes int64
	// Warn receives non-fatal problems, such as a dependency that could not be linked.
	Warn func(msg string)
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.New(io.Discard)
}

func (r *Resolver) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.logger().Warn(msg)
	if r.Warn != nil {
		r.Warn(msg)
	}
}

// Import registers the package's libraries, creates its content row,
// links the content to its libraries and stages its assets. workDir is
// the scratch extraction directory; it is removed before Import returns.
func (r *Resolver) Import(ctx context.Context, packagePath, workDir string) (int64, error) {
	const op = "import interactive content"
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			r.logger().Warn("Failed to remove package work dir", "dir", workDir, "err", err)
		}
	}()

	pkg, err := r.unpack(ctx, packagePath, workDir)
	if err != nil {
		return 0, err
	}
	if err := r.registerLibraries(ctx, pkg); err != nil {
		return 0, err
	}

	main := pkg.Meta.MainDependency()
	versions, err := r.Registry.Versions(ctx, main.MachineName)
	if err != nil {
		return 0, importerr.New(importerr.StorageFailure, "look up main library", err)
	}
	mainLib, ok := ResolveVersion(versions, main.MajorVersion, main.MinorVersion)
	if !ok {
		return 0, importerr.Errorf(importerr.InvalidPackage, op, "main library %s is not registered", main)
	}

	contentID, err := r.Content.CreateH5PContent(ctx, store.H5PContentRow{
		LibraryID:          mainLib.ID,
		Title:              pkg.Meta.Title,
		Parameters:         pkg.ContentJSON,
		FilteredParameters: pkg.ContentJSON,
		DisabledFeatures:   0,
		Authors:            "[]",
		Changes:            "[]",
		License:            "U",
	})
	if err != nil {
		return 0, importerr.New(importerr.StorageFailure, "create interactive content", err)
	}

	if err := r.Assets.StageContent(ctx, contentID, pkg.ContentDir()); err != nil {
		return 0, importerr.New(importerr.StorageFailure, "stage content assets", err)
	}
	if err := r.linkDependencies(ctx, contentID, pkg.Meta, mainLib); err != nil {
		return 0, err
	}

	r.logger().Debug("Imported interactive content", "content", contentID, "title", pkg.Meta.Title, "library", main)
	return contentID, nil
}

func (r *Resolver) unpack(ctx context.Context, packagePath, workDir string) (*Package, error) {
	const op = "unpack interactive content"
	zr, err := archive.Open(packagePath)
	if err != nil {
		return nil, importerr.New(importerr.InvalidPackage, op, err)
	}
	defer zr.Close()

	verdict := archive.Validate(ctx, &zr.Reader, archive.Options{MaxEntryBytes: r.MaxEntryBytes, SkipContentScan: true})
	if !verdict.Safe {
		return nil, importerr.New(importerr.InvalidPackage, op, verdict.Err())
	}
	if err := archive.Extract(&zr.Reader, workDir); err != nil {
		return nil, importerr.New(importerr.InvalidPackage, op, err)
	}
	pkg, err := Load(workDir)
	if err != nil {
		return nil, importerr.New(importerr.InvalidPackage, op, err)
	}
	return pkg, nil
}

// registerLibraries adds every bundled library whose exact version is not
// registered yet and stages its files.
func (r *Resolver) registerLibraries(ctx context.Context, pkg *Package) error {
	for _, b := range pkg.Libraries {
		versions, err := r.Registry.Versions(ctx, b.Library.MachineName)
		if err != nil {
			return importerr.New(importerr.StorageFailure, "look up library "+b.Library.MachineName, err)
		}
		if hasExact(versions, b.Library) {
			continue
		}
		id, err := r.Registry.InsertLibrary(ctx, b.Library)
		if err != nil {
			return importerr.New(importerr.StorageFailure, "register library "+b.Folder, err)
		}
		folder := FolderName(b.Library.MachineName, b.Library.MajorVersion, b.Library.MinorVersion)
		if err := r.Assets.StageLibrary(ctx, folder, b.Dir); err != nil {
			return importerr.New(importerr.StorageFailure, "stage library "+folder, err)
		}
		r.logger().Info("Registered library", "library", folder, "patch", b.Library.PatchVersion, "id", id)
	}
	return nil
}

// linkDependencies binds every non-main dependency at weight index+1, then
// the main library last at len(deps)+1.
func (r *Resolver) linkDependencies(ctx context.Context, contentID int64, meta Meta, mainLib store.Library) error {
	deps := meta.PreloadedDependencies
	for i, dep := range deps {
		if dep.MachineName == meta.MainLibrary {
			continue
		}
		versions, err := r.Registry.Versions(ctx, dep.MachineName)
		if err != nil {
			return importerr.New(importerr.StorageFailure, "look up library "+dep.MachineName, err)
		}
		lib, ok := ResolveVersion(versions, dep.MajorVersion, dep.MinorVersion)
		if !ok {
			r.warn("interactive content %d: dependency %s is not registered, skipped", contentID, dep)
			continue
		}
		if err := r.link(ctx, contentID, lib.ID, i+1); err != nil {
			return err
		}
	}
	return r.link(ctx, contentID, mainLib.ID, len(deps)+1)
}

func (r *Resolver) link(ctx context.Context, contentID, libraryID int64, weight int) error {
	err := r.Registry.LinkContentLibrary(ctx, store.ContentLibraryRow{
		ContentID:      contentID,
		LibraryID:      libraryID,
		DependencyType: store.DependencyPreloaded,
		DropCSS:        false,
		Weight:         weight,
	})
	if err != nil {
		return importerr.New(importerr.StorageFailure, "link content library", err)
	}
	return nil
}
