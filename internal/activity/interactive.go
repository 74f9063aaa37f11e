package activity

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"course-import/internal/domain"
	"course-import/internal/importerr"
	"course-import/internal/mappers"
)

// PackageName is the archive entry holding an activity's interactive content.
func PackageName(contentID string) string {
	return fmt.Sprintf("interactive-content-%s.h5p", contentID)
}

// interactive imports the embedded package. An invalid package is not
// fatal: the activity is created without content and a warning is raised.
type interactive struct {
	deps Deps
}

func (m interactive) Materialize(ctx context.Context, a domain.Activity) (int64, error) {
	row := mappers.ActivityToRow(a)

	contentID, err := m.importPackage(ctx, a)
	switch {
	case err == nil:
		row.H5PContentID = contentID
	case errors.Is(err, importerr.InvalidPackage):
		m.deps.warn(fmt.Sprintf("activity %s (%s): interactive content skipped: %v", a.ArchiveID(), a.Name.String(), err))
	default:
		return 0, err
	}
	return create(ctx, m.deps, row)
}

func (m interactive) importPackage(ctx context.Context, a domain.Activity) (int64, error) {
	const op = "interactive content"
	ref := a.H5PContentID()
	if ref == "" {
		return 0, importerr.Errorf(importerr.InvalidPackage, op, "activity has no content id")
	}
	if m.deps.Interactive == nil {
		return 0, importerr.Errorf(importerr.InvalidPackage, op, "no interactive content importer configured")
	}
	pkg, err := m.deps.Files.Resolve(PackageName(ref))
	if err != nil {
		return 0, importerr.New(importerr.InvalidPackage, op, err)
	}
	workDir := filepath.Join(m.deps.WorkDir, "h5p-"+uuid.NewString())
	return m.deps.Interactive.Import(ctx, pkg, workDir)
}
