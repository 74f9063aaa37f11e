package activity

import (
	"context"
	"time"

	"course-import/internal/domain"
	"course-import/internal/importerr"
	"course-import/internal/safefs"
	"course-import/internal/storage"
	"course-import/internal/store"
)

// Materializer creates the persisted activity for one source record and
// returns its new id.
type Materializer interface {
	Materialize(ctx context.Context, a domain.Activity) (int64, error)
}

// InteractiveImporter imports an embedded interactive-content package.
type InteractiveImporter interface {
	Import(ctx context.Context, packagePath, workDir string) (int64, error)
}

// Deps are the collaborators shared by every materializer.
type Deps struct {
	Store       store.Entities
	Public      *storage.Public
	Interactive InteractiveImporter
	// Files resolves archive-relative blob paths inside the extraction root.
	Files *safefs.FS
	// WorkDir is scratch space for nested package extraction.
	WorkDir string
	ActorID int64
	Now     func() time.Time
	Warn    func(msg string)
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) warn(msg string) {
	if d.Warn != nil {
		d.Warn(msg)
	}
}

// Set dispatches on the activity tag. The set of tags is closed.
type Set struct {
	byType map[domain.ActivityType]Materializer
}

func NewSet(d Deps) *Set {
	return &Set{byType: map[domain.ActivityType]Materializer{
		domain.LongAnswer:  scalarFields{deps: d},
		domain.FileUpload:  scalarFields{deps: d, allowedExtension: true},
		domain.Scorm:       attachment{deps: d, dir: fixedDir("opigno_scorm"), field: "opigno_scorm_package", display: true},
		domain.TinCan:      attachment{deps: d, dir: fixedDir("opigno_tincan"), field: "opigno_tincan_package", display: true},
		domain.Slide:       attachment{deps: d, dir: monthDir(""), field: "opigno_slide_pdf", display: true, media: true},
		domain.Video:       attachment{deps: d, dir: monthDir("video-thumbnails"), field: "field_video"},
		domain.Interactive: interactive{deps: d},
	}}
}

func (s *Set) Materialize(ctx context.Context, a domain.Activity) (int64, error) {
	tag := a.Tag()
	m, ok := s.byType[tag]
	if !tag.Known() || !ok {
		return 0, importerr.Errorf(importerr.MalformedArchive, "materialize activity "+a.ArchiveID(),
			"unknown activity type %q", tag)
	}
	return m.Materialize(ctx, a)
}

func create(ctx context.Context, d Deps, row store.ActivityRow) (int64, error) {
	id, err := d.Store.CreateActivity(ctx, row)
	if err != nil {
		return 0, importerr.New(importerr.StorageFailure, "create activity", err)
	}
	return id, nil
}
