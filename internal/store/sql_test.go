package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *SQL {
	t.Helper()
	s, err := Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "coursepkg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b, c) VALUES (?, ?, ?)"
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)", Postgres.rebind(q))

	long := "?,?,?,?,?,?,?,?,?,?,?"
	assert.Equal(t, "$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11", Postgres.rebind(long))
}

func TestDialectFor(t *testing.T) {
	d, ok := DialectFor("pgx")
	assert.True(t, ok)
	assert.Equal(t, Postgres, d)

	d, ok = DialectFor("sqlite3")
	assert.True(t, ok)
	assert.Equal(t, SQLite, d)

	_, ok = DialectFor("mysql")
	assert.False(t, ok)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}

func TestSQLiteCourseGraph(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	courseID, err := s.CreateCourse(ctx, CourseRow{Label: "Go", Langcode: "en", BadgeActive: true})
	require.NoError(t, err)
	moduleID, err := s.CreateModule(ctx, ModuleRow{Name: "Basics", Status: true, Takes: 2})
	require.NoError(t, err)
	_, err = s.AddGroupContent(ctx, GroupContentRow{GroupID: courseID, EntityID: moduleID, PluginID: ModuleGroupPlugin})
	require.NoError(t, err)

	parent, err := s.CreateManagedContent(ctx, ManagedContentRow{GroupID: courseID, EntityID: moduleID, IsMandatory: true})
	require.NoError(t, err)
	child, err := s.CreateManagedContent(ctx, ManagedContentRow{GroupID: courseID, EntityID: moduleID})
	require.NoError(t, err)
	assert.NotEqual(t, parent, child)

	refs := `["4-1"]`
	_, err = s.CreateManagedLink(ctx, ManagedLinkRow{GroupID: courseID, ParentContentID: parent, ChildContentID: child, RequiredActivities: &refs})
	require.NoError(t, err)
	_, err = s.CreateManagedLink(ctx, ManagedLinkRow{GroupID: courseID, ParentContentID: parent, ChildContentID: child})
	require.NoError(t, err)

	fileID, err := s.CreateFile(ctx, FileRow{OwnerID: 1, Filename: "a.zip", URI: "public://opigno_scorm/a.zip", Status: 1})
	require.NoError(t, err)
	a1, err := s.CreateActivity(ctx, ActivityRow{Type: "opigno_scorm", Name: "Pkg",
		Attachment: &Attachment{Field: "opigno_scorm_package", TargetID: fileID, Display: true}})
	require.NoError(t, err)
	a2, err := s.CreateActivity(ctx, ActivityRow{Type: "opigno_long_answer", Name: "Essay", Body: "<p>Write</p>"})
	require.NoError(t, err)

	require.NoError(t, s.AttachActivities(ctx, moduleID, []int64{a1}))
	require.NoError(t, s.AttachActivities(ctx, moduleID, []int64{a2}))

	var weight int
	require.NoError(t, s.db.QueryRow(`SELECT weight FROM module_activities WHERE activity_id = ?`, a2).Scan(&weight))
	assert.Equal(t, 1, weight)

	var stored *string
	require.NoError(t, s.db.QueryRow(`SELECT required_activities FROM managed_links ORDER BY id LIMIT 1`).Scan(&stored))
	require.NotNil(t, stored)
	assert.Equal(t, refs, *stored)
}

func TestSQLiteRegistry(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	for _, l := range []Library{
		{MachineName: "H5P.Text", MajorVersion: 1, MinorVersion: 3, PatchVersion: 0},
		{MachineName: "H5P.Text", MajorVersion: 1, MinorVersion: 2, PatchVersion: 3},
		{MachineName: "H5P.Image", MajorVersion: 1, MinorVersion: 0, PatchVersion: 0},
	} {
		_, err := s.InsertLibrary(ctx, l)
		require.NoError(t, err)
	}

	_, err := s.InsertLibrary(ctx, Library{MachineName: "H5P.Text", MajorVersion: 1, MinorVersion: 3})
	assert.Error(t, err, "exact version is unique")

	libs, err := s.Versions(ctx, "H5P.Text")
	require.NoError(t, err)
	require.Len(t, libs, 2)
	assert.Equal(t, 2, libs[0].MinorVersion)
	assert.Equal(t, 3, libs[1].MinorVersion)

	contentID, err := s.CreateH5PContent(ctx, H5PContentRow{LibraryID: libs[1].ID, Title: "Quiz", Authors: "[]", Changes: "[]", License: "U"})
	require.NoError(t, err)
	require.NoError(t, s.LinkContentLibrary(ctx, ContentLibraryRow{ContentID: contentID, LibraryID: libs[1].ID, DependencyType: DependencyPreloaded, Weight: 1}))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM h5p_content_libraries WHERE content_id = ?`, contentID).Scan(&n))
	assert.Equal(t, 1, n)
}
