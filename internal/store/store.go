package store

import (
	"context"

	"github.com/google/uuid"
)

// Entities creates the rows of the new course graph.
type Entities interface {
	CreateCourse(ctx context.Context, row CourseRow) (int64, error)
	CreateModule(ctx context.Context, row ModuleRow) (int64, error)
	AddGroupContent(ctx context.Context, row GroupContentRow) (int64, error)
	CreateManagedContent(ctx context.Context, row ManagedContentRow) (int64, error)
	CreateManagedLink(ctx context.Context, row ManagedLinkRow) (int64, error)
	CreateActivity(ctx context.Context, row ActivityRow) (int64, error)
	AttachActivities(ctx context.Context, moduleID int64, activityIDs []int64) error
	CreateFile(ctx context.Context, row FileRow) (int64, error)
	CreateMedia(ctx context.Context, row MediaRow) (int64, error)
	CreateH5PContent(ctx context.Context, row H5PContentRow) (int64, error)
}

// Registry is the shared interactive-content library registry. It is
// mutated in place, outside of any import-wide transaction.
type Registry interface {
	// Versions lists every registered version of a machine name.
	Versions(ctx context.Context, machineName string) ([]Library, error)
	InsertLibrary(ctx context.Context, lib Library) (int64, error)
	LinkContentLibrary(ctx context.Context, row ContentLibraryRow) error
}

// Store is a complete persistence backend.
type Store interface {
	Entities
	Registry
	Close() error
}

// Plugin id of a module's membership in a course group.
const ModuleGroupPlugin = "opigno_module_group"

// Dependency kind of every library linked to imported content.
const DependencyPreloaded = "preloaded"

func ensureUUID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
