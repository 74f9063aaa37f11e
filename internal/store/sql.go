package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQL persists rows through database/sql, on SQLite or PostgreSQL.
type SQL struct {
	db      *sql.DB
	dialect Dialect

	schemaOnce sync.Once
	schemaErr  error
}

var _ Store = (*SQL)(nil)

// Open connects with driver ("sqlite3" or "pgx") and creates the schema.
// For sqlite3 a plain file path is accepted as dsn.
func Open(ctx context.Context, driver, dsn string) (*SQL, error) {
	dialect, ok := DialectFor(driver)
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	driverName := "pgx"
	if dialect == SQLite {
		driverName = "sqlite3"
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}
	s := NewSQL(db, dialect)
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// NewSQL wraps an open handle. The schema is created on first use.
func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect}
}

func sqliteDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return "file:" + dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
}

func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQL) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, s.dialect.schema())
	})
	return s.schemaErr
}

// insert runs an INSERT ... RETURNING id.
func (s *SQL) insert(ctx context.Context, table string, cols []string, args ...any) (int64, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id", table, strings.Join(cols, ", "), marks)

	var id int64
	if err := s.db.QueryRowContext(ctx, s.dialect.rebind(q), args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

func (s *SQL) exec(ctx context.Context, query string, args ...any) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
	return err
}

func (s *SQL) CreateCourse(ctx context.Context, r CourseRow) (int64, error) {
	return s.insert(ctx, "courses",
		[]string{"uuid", "langcode", "label", "badge_active", "badge_criteria", "badge_name",
			"badge_description", "guided_navigation", "description", "description_format"},
		ensureUUID(r.UUID), r.Langcode, r.Label, r.BadgeActive, r.BadgeCriteria, r.BadgeName,
		r.BadgeDescription, r.GuidedNavigation, r.Description, r.DescriptionFormat)
}

func (s *SQL) CreateModule(ctx context.Context, r ModuleRow) (int64, error) {
	return s.insert(ctx, "modules",
		[]string{"uuid", "langcode", "name", "status", "random_activity_score", "allow_resume",
			"backwards_navigation", "randomization", "random_activities", "takes", "show_attempt_stats",
			"keep_results", "hide_results", "badge_active", "badge_criteria", "badge_name",
			"badge_description", "description", "description_format"},
		ensureUUID(r.UUID), r.Langcode, r.Name, r.Status, r.RandomActivityScore, r.AllowResume,
		r.BackwardsNavigation, r.Randomization, r.RandomActivities, r.Takes, r.ShowAttemptStats,
		r.KeepResults, r.HideResults, r.BadgeActive, r.BadgeCriteria, r.BadgeName,
		r.BadgeDescription, r.Description, r.DescriptionFormat)
}

func (s *SQL) AddGroupContent(ctx context.Context, r GroupContentRow) (int64, error) {
	return s.insert(ctx, "group_content",
		[]string{"uuid", "group_id", "entity_id", "plugin_id"},
		ensureUUID(r.UUID), r.GroupID, r.EntityID, r.PluginID)
}

func (s *SQL) CreateManagedContent(ctx context.Context, r ManagedContentRow) (int64, error) {
	return s.insert(ctx, "managed_content",
		[]string{"uuid", "group_id", "content_type_id", "entity_id", "success_score_min",
			"is_mandatory", "coordinate_x", "coordinate_y"},
		ensureUUID(r.UUID), r.GroupID, r.ContentTypeID, r.EntityID, r.SuccessScoreMin,
		r.IsMandatory, r.CoordinateX, r.CoordinateY)
}

func (s *SQL) CreateManagedLink(ctx context.Context, r ManagedLinkRow) (int64, error) {
	return s.insert(ctx, "managed_links",
		[]string{"uuid", "group_id", "parent_content_id", "child_content_id", "required_score", "required_activities"},
		ensureUUID(r.UUID), r.GroupID, r.ParentContentID, r.ChildContentID, r.RequiredScore, nullString(r.RequiredActivities))
}

func (s *SQL) CreateActivity(ctx context.Context, r ActivityRow) (int64, error) {
	var field sql.NullString
	var target sql.NullInt64
	var display sql.NullBool
	if a := r.Attachment; a != nil {
		field = sql.NullString{String: a.Field, Valid: true}
		target = sql.NullInt64{Int64: a.TargetID, Valid: true}
		display = sql.NullBool{Bool: a.Display, Valid: true}
	}
	h5p := sql.NullInt64{Int64: r.H5PContentID, Valid: r.H5PContentID != 0}

	return s.insert(ctx, "activities",
		[]string{"uuid", "type", "name", "langcode", "status", "body", "body_format", "evaluation_method",
			"allowed_extension", "attachment_field", "attachment_target_id", "attachment_display", "h5p_content_id"},
		ensureUUID(r.UUID), r.Type, r.Name, r.Langcode, r.Status, r.Body, r.BodyFormat, r.EvaluationMethod,
		r.AllowedExtension, field, target, display, h5p)
}

// AttachActivities appends activities to a module after the ones it already has.
func (s *SQL) AttachActivities(ctx context.Context, moduleID int64, activityIDs []int64) error {
	if len(activityIDs) == 0 {
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var weight int
	row := tx.QueryRowContext(ctx, s.dialect.rebind(`SELECT COUNT(*) FROM module_activities WHERE module_id = ?`), moduleID)
	if err := row.Scan(&weight); err != nil {
		return fmt.Errorf("count module activities: %w", err)
	}
	insert := s.dialect.rebind(`INSERT INTO module_activities (module_id, activity_id, weight) VALUES (?, ?, ?)`)
	for _, id := range activityIDs {
		if _, err := tx.ExecContext(ctx, insert, moduleID, id, weight); err != nil {
			return fmt.Errorf("attach activity %d: %w", id, err)
		}
		weight++
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQL) CreateFile(ctx context.Context, r FileRow) (int64, error) {
	return s.insert(ctx, "files",
		[]string{"uuid", "owner_id", "filename", "uri", "status"},
		ensureUUID(r.UUID), r.OwnerID, r.Filename, r.URI, r.Status)
}

func (s *SQL) CreateMedia(ctx context.Context, r MediaRow) (int64, error) {
	return s.insert(ctx, "media",
		[]string{"uuid", "bundle", "name", "file_id", "owner_id"},
		ensureUUID(r.UUID), r.Bundle, r.Name, r.FileID, r.OwnerID)
}

func (s *SQL) CreateH5PContent(ctx context.Context, r H5PContentRow) (int64, error) {
	return s.insert(ctx, "h5p_content",
		[]string{"uuid", "library_id", "title", "parameters", "filtered_parameters",
			"disabled_features", "authors", "changes", "license"},
		ensureUUID(r.UUID), r.LibraryID, r.Title, r.Parameters, r.FilteredParameters,
		r.DisabledFeatures, r.Authors, r.Changes, r.License)
}

func (s *SQL) Versions(ctx context.Context, machineName string) ([]Library, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
SELECT id, machine_name, title, major_version, minor_version, patch_version,
  runnable, embed_types, preloaded_js, preloaded_css
FROM h5p_libraries WHERE machine_name = ?
ORDER BY major_version, minor_version, patch_version`), machineName)
	if err != nil {
		return nil, fmt.Errorf("query libraries: %w", err)
	}
	defer rows.Close()

	var out []Library
	for rows.Next() {
		var l Library
		if err := rows.Scan(&l.ID, &l.MachineName, &l.Title, &l.MajorVersion, &l.MinorVersion,
			&l.PatchVersion, &l.Runnable, &l.EmbedTypes, &l.PreloadedJS, &l.PreloadedCSS); err != nil {
			return nil, fmt.Errorf("scan library: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQL) InsertLibrary(ctx context.Context, l Library) (int64, error) {
	return s.insert(ctx, "h5p_libraries",
		[]string{"machine_name", "title", "major_version", "minor_version", "patch_version",
			"runnable", "embed_types", "preloaded_js", "preloaded_css"},
		l.MachineName, l.Title, l.MajorVersion, l.MinorVersion, l.PatchVersion,
		l.Runnable, l.EmbedTypes, l.PreloadedJS, l.PreloadedCSS)
}

func (s *SQL) LinkContentLibrary(ctx context.Context, r ContentLibraryRow) error {
	err := s.exec(ctx, `
INSERT INTO h5p_content_libraries (content_id, library_id, dependency_type, drop_css, weight)
VALUES (?, ?, ?, ?, ?)`,
		r.ContentID, r.LibraryID, r.DependencyType, r.DropCSS, r.Weight)
	if err != nil {
		return fmt.Errorf("insert h5p_content_libraries: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
