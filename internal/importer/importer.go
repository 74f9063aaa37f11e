package importer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"course-import/internal/activity"
	"course-import/internal/archive"
	"course-import/internal/assets"
	"course-import/internal/concurrency"
	"course-import/internal/h5p"
	"course-import/internal/importerr"
	"course-import/internal/manifest"
	"course-import/internal/mappers"
	"course-import/internal/remap"
	"course-import/internal/storage"
	"course-import/internal/store"
)

// Config wires an Importer.
type Config struct {
	Store    store.Entities
	Registry store.Registry
	Public   *storage.Public
	Assets   assets.Tree
	Logger   *log.Logger

	// TmpDir is the parent of per-import extraction directories.
	TmpDir        string
	ActorID       int64
	MaxEntryBytes int64
	Workers       concurrency.Options
	Now           func() time.Time
}

// Importer rebuilds a course from an exported archive. Imports must not
// run concurrently for the same actor.
type Importer struct {
	store    store.Entities
	registry store.Registry
	public   *storage.Public
	assets   assets.Tree
	log      *log.Logger

	tmpDir        string
	actorID       int64
	maxEntryBytes int64
	workers       concurrency.Options
	now           func() time.Time
}

func New(cfg Config) (*Importer, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("importer: store is required")
	case cfg.Registry == nil:
		return nil, errors.New("importer: library registry is required")
	case cfg.Public == nil:
		return nil, errors.New("importer: public file storage is required")
	case cfg.Assets == nil:
		return nil, errors.New("importer: asset tree is required")
	}
	im := &Importer{
		store:         cfg.Store,
		registry:      cfg.Registry,
		public:        cfg.Public,
		assets:        cfg.Assets,
		log:           cfg.Logger,
		tmpDir:        cfg.TmpDir,
		actorID:       cfg.ActorID,
		maxEntryBytes: cfg.MaxEntryBytes,
		workers:       cfg.Workers,
		now:           cfg.Now,
	}
	if im.log == nil {
		im.log = log.New(io.Discard)
	}
	if im.tmpDir == "" {
		im.tmpDir = os.TempDir()
	}
	if im.now == nil {
		im.now = time.Now
	}
	return im, nil
}

// run is the state of one import.
type run struct {
	im       *Importer
	log      *log.Logger
	stage    Stage
	remap    *remap.Table
	pending  []pendingLinks
	warnings []string

	courseID   int64
	modules    int
	activities int
	links      int
}

func (r *run) enter(s Stage) {
	r.stage = s
	r.log.Debug("Stage", "stage", s)
}

func (r *run) fail(err error) error {
	return &StageError{Stage: r.stage, Err: err}
}

func (r *run) warn(msg string) {
	r.warnings = append(r.warnings, msg)
}

// Import runs every stage against the archive at archivePath. The
// temporary extraction directory is removed before Import returns.
func (im *Importer) Import(ctx context.Context, archivePath string) (*Result, error) {
	r := &run{
		im:    im,
		log:   im.log.With("archive", filepath.Base(archivePath)),
		remap: remap.New(),
	}

	r.enter(StagePrepare)
	workDir := filepath.Join(im.tmpDir, "coursepkg-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		return nil, r.fail(importerr.New(importerr.StorageFailure, "create temporary directory", err))
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			r.log.Warn("Failed to remove temporary directory", "dir", workDir, "err", err)
		}
	}()

	zr, err := archive.Open(archivePath)
	if err != nil {
		return nil, r.fail(importerr.New(importerr.MalformedArchive, "open archive", err))
	}
	defer zr.Close()

	r.enter(StageValidate)
	verdict := archive.Validate(ctx, &zr.Reader, archive.Options{MaxEntryBytes: im.maxEntryBytes, Workers: im.workers})
	if !verdict.Safe {
		for _, f := range verdict.Findings {
			r.log.Warn("Unsafe entry", "entry", f.Entry, "reason", f.Reason)
		}
		return nil, r.fail(importerr.New(importerr.UnsafeArchive, "validate archive", verdict.Err()))
	}

	r.enter(StageExtract)
	root := filepath.Join(workDir, "archive")
	if err := archive.Extract(&zr.Reader, root); err != nil {
		return nil, r.fail(importerr.New(importerr.StorageFailure, "extract archive", err))
	}

	r.enter(StageManifest)
	dec, err := manifest.Open(root)
	if err != nil {
		return nil, r.fail(err)
	}
	if err := preflight(dec); err != nil {
		return nil, r.fail(err)
	}

	r.enter(StageDecodeCourse)
	course, err := dec.Course()
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(StageCreateCourse)
	row := mappers.CourseToRow(course)
	r.courseID, err = im.store.CreateCourse(ctx, row)
	if err != nil {
		return nil, r.fail(importerr.New(importerr.StorageFailure, "create course", err))
	}
	if err := r.remap.Record(remap.Course, course.ArchiveID(), r.courseID); err != nil {
		return nil, r.fail(err)
	}
	r.log.Info("Created course", "course", r.courseID, "label", row.Label)

	r.enter(StageModules)
	materializers := activity.NewSet(activity.Deps{
		Store:  im.store,
		Public: im.public,
		Interactive: &h5p.Resolver{
			Registry:      im.registry,
			Content:       im.store,
			Assets:        im.assets,
			Logger:        r.log,
			MaxEntryBytes: im.maxEntryBytes,
			Warn:          r.warn,
		},
		Files:   dec.Files(),
		WorkDir: workDir,
		ActorID: im.actorID,
		Now:     im.now,
		Warn:    r.warn,
	})
	m := dec.Manifest()
	for _, entry := range m.Modules {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(err)
		}
		if err := r.importModule(ctx, dec, materializers, entry, m.ActivitiesFor(entry.Name)); err != nil {
			return nil, r.fail(err)
		}
	}

	r.enter(StageParentLinks)
	if err := r.rewriteParentLinks(ctx); err != nil {
		return nil, r.fail(err)
	}

	r.enter(StageDone)
	res := &Result{
		CourseID:    r.courseID,
		CourseLabel: row.Label,
		CoursePath:  CoursePath(r.courseID),
		Modules:     r.modules,
		Activities:  r.activities,
		Links:       r.links,
		Remap:       r.remap.Snapshot(),
		Warnings:    r.warnings,
		Notice:      SuccessNotice(row.Label),
	}
	r.log.Info("Imported course", "course", res.CourseID, "modules", res.Modules, "activities", res.Activities, "links", res.Links, "mappings", r.remap.Len(), "warnings", len(res.Warnings))
	return res, nil
}

func (r *run) importModule(ctx context.Context, dec *manifest.Decoder, set *activity.Set, entry manifest.ModuleEntry, activityPaths []string) error {
	im := r.im
	mod, err := dec.Module(entry.Path)
	if err != nil {
		return err
	}

	moduleID, err := im.store.CreateModule(ctx, mappers.ModuleToRow(mod))
	if err != nil {
		return importerr.New(importerr.StorageFailure, "create module "+mod.ArchiveID(), err)
	}
	if err := r.remap.Record(remap.Module, mod.ArchiveID(), moduleID); err != nil {
		return err
	}
	_, err = im.store.AddGroupContent(ctx, store.GroupContentRow{GroupID: r.courseID, EntityID: moduleID, PluginID: store.ModuleGroupPlugin})
	if err != nil {
		return importerr.New(importerr.StorageFailure, "add module "+mod.ArchiveID()+" to course", err)
	}

	placement, err := im.store.CreateManagedContent(ctx, mappers.ManagedContentToRow(mod.ManagedContent, r.courseID, moduleID))
	if err != nil {
		return importerr.New(importerr.StorageFailure, "place module "+mod.ArchiveID(), err)
	}
	if err := r.remap.Record(remap.Link, mod.ManagedContent.ArchiveID(), placement); err != nil {
		return err
	}

	activityIDs := make([]int64, 0, len(activityPaths))
	for _, p := range activityPaths {
		a, err := dec.Activity(p)
		if err != nil {
			return err
		}
		id, err := set.Materialize(ctx, a)
		if err != nil {
			return err
		}
		if err := r.remap.Record(remap.Activity, a.ArchiveID(), id); err != nil {
			return err
		}
		activityIDs = append(activityIDs, id)
		r.activities++
	}

	if len(mod.ParentLinks) > 0 {
		r.pending = append(r.pending, pendingLinks{moduleID: mod.ArchiveID(), childContentID: placement, links: mod.ParentLinks})
	}

	if err := im.store.AttachActivities(ctx, moduleID, activityIDs); err != nil {
		return importerr.New(importerr.StorageFailure, "attach activities to module "+mod.ArchiveID(), err)
	}
	r.modules++
	r.log.Debug("Imported module", "module", moduleID, "name", mod.Name.String(), "activities", len(activityIDs))
	return nil
}

// preflight checks that every document the manifest names exists before
// any entity is created.
func preflight(dec *manifest.Decoder) error {
	m := dec.Manifest()
	paths := []string{m.Course}
	for _, e := range m.Modules {
		paths = append(paths, e.Path)
		paths = append(paths, m.ActivitiesFor(e.Name)...)
	}
	for _, p := range paths {
		if !dec.Files().Exists(p) {
			return importerr.Errorf(importerr.MalformedArchive, "check manifest", "document %q is missing", p)
		}
	}
	return nil
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
