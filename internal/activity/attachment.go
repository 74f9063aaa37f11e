package activity

import (
	"context"
	"path"
	"strings"
	"time"

	"course-import/internal/domain"
	"course-import/internal/importerr"
	"course-import/internal/mappers"
	"course-import/internal/store"
)

// dirFunc returns the public directory a blob is copied to.
type dirFunc func(now time.Time) string

func fixedDir(dir string) dirFunc {
	return func(time.Time) string { return dir }
}

// monthDir partitions by the import month, e.g. "video-thumbnails/2026-10".
func monthDir(prefix string) dirFunc {
	return func(now time.Time) string {
		return path.Join(prefix, now.Format("2006-01"))
	}
}

// attachment copies every blob into public storage and points field at
// the last one. With media set each file is wrapped in a media record
// and the field targets the media instead.
type attachment struct {
	deps    Deps
	dir     dirFunc
	field   string
	display bool
	media   bool
}

func (m attachment) Materialize(ctx context.Context, a domain.Activity) (int64, error) {
	row := mappers.ActivityToRow(a)
	for _, blob := range a.Files {
		target, err := m.store(ctx, a, blob)
		if err != nil {
			return 0, err
		}
		row.Attachment = &store.Attachment{Field: m.field, TargetID: target, Display: m.display}
	}
	return create(ctx, m.deps, row)
}

func (m attachment) store(ctx context.Context, a domain.Activity, blob domain.FileBlob) (int64, error) {
	d := m.deps
	op := "store file " + blob.Path + " of activity " + a.ArchiveID()

	src, err := d.Files.Resolve(blob.Path)
	if err != nil {
		return 0, importerr.New(importerr.MalformedArchive, op, err)
	}
	name := fileName(blob)
	uri, err := d.Public.CopyRename(src, path.Join(m.dir(d.now()), name))
	if err != nil {
		return 0, importerr.New(importerr.StorageFailure, op, err)
	}

	fileID, err := d.Store.CreateFile(ctx, store.FileRow{
		OwnerID:  d.ActorID,
		Filename: name,
		URI:      uri,
		Status:   blob.Status.Int(),
	})
	if err != nil {
		return 0, importerr.New(importerr.StorageFailure, op, err)
	}
	if !m.media {
		return fileID, nil
	}

	mediaID, err := d.Store.CreateMedia(ctx, store.MediaRow{
		Bundle:  blob.Bundle,
		Name:    name,
		FileID:  fileID,
		OwnerID: d.ActorID,
	})
	if err != nil {
		return 0, importerr.New(importerr.StorageFailure, op, err)
	}
	return mediaID, nil
}

// fileName is the blob's declared name reduced to a single path element.
func fileName(blob domain.FileBlob) string {
	name := strings.TrimSpace(strings.ReplaceAll(blob.FileName, `\`, "/"))
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." || name == "" {
		name = path.Base(blob.Path)
	}
	return name
}
