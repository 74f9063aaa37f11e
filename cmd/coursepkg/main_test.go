package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-import/internal/journal"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	p := filepath.Join(t.TempDir(), "course.opi")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func smallCourse() map[string]string {
	return map[string]string{
		"list_of_files.json": `{"course": "course_1.json", "modules": {"module_2": "module_2.json"}, "activities": {"module_2": ["activity_3.json"]}}`,
		"course_1.json":      `{"1": {"id": [{"value": 1}], "label": [{"value": "Go basics"}]}}`,
		"module_2.json":      `{"2": {"id": [{"value": 2}], "name": [{"value": "Intro"}], "managed_content": {"id": [{"value": 20}]}, "parent_links": []}}`,
		"activity_3.json":    `{"3": {"id": [{"value": 3}], "type": [{"target_id": "opigno_long_answer"}], "name": [{"value": "Essay"}]}}`,
	}
}

// setupEnv points every data location at temporary directories.
func setupEnv(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir())
	data := t.TempDir()
	t.Setenv("COURSEPKG_DATA_DIR", data)
	t.Setenv("COURSEPKG_TMP_DIR", t.TempDir())
	t.Setenv("COURSEPKG_DB_DRIVER", "sqlite3")
	t.Setenv("COURSEPKG_DB_DSN", filepath.Join(data, "coursepkg.db"))
	t.Setenv("COURSEPKG_LOG_LEVEL", "error")
	for _, k := range []string{"ASSETS_S3_ENDPOINT", "ASSETS_S3_ACCESS_KEY", "ASSETS_S3_SECRET_KEY", "ASSETS_S3_BUCKET"} {
		t.Setenv(k, "")
	}
	return data
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestValidateCommand(t *testing.T) {
	setupEnv(t)
	out, _, err := execute(t, "validate", writeZip(t, smallCourse()))
	require.NoError(t, err)
	assert.Contains(t, out, "Archive is valid.")
	assert.Contains(t, out, "course_1.json")
}

func TestValidateCommandUnsafe(t *testing.T) {
	setupEnv(t)
	files := smallCourse()
	files["shell.php"] = "<?php echo 1;"

	_, errOut, err := execute(t, "validate", writeZip(t, files))
	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.code)
	assert.Contains(t, errOut, "Unsafe files detected.")
	assert.Contains(t, errOut, "shell.php")
}

func TestValidateCommandMissingDocument(t *testing.T) {
	setupEnv(t)
	files := smallCourse()
	delete(files, "activity_3.json")

	_, errOut, err := execute(t, "validate", writeZip(t, files))
	require.Error(t, err)
	assert.Contains(t, errOut, "missing: ")
	assert.Contains(t, errOut, "Incorrect archive structure.")
}

func TestImportDryRun(t *testing.T) {
	data := setupEnv(t)

	out, _, err := execute(t, "import", "--dry-run", writeZip(t, smallCourse()))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported course Go basics")
	assert.Contains(t, out, "dry run")

	assert.NoFileExists(t, filepath.Join(data, "coursepkg.db"))

	records, err := filepath.Glob(filepath.Join(data, "journal", "*.json.br"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	entry, err := journal.Read(records[0])
	require.NoError(t, err)
	assert.True(t, entry.DryRun)
	assert.Equal(t, journal.StatusImported, entry.Status)
}

func TestImportWritesDatabaseJournalAndReports(t *testing.T) {
	data := setupEnv(t)
	reports := filepath.Join(t.TempDir(), "reports")

	out, _, err := execute(t, "import", "--report-dir", reports, writeZip(t, smallCourse()))
	require.NoError(t, err)
	assert.Contains(t, out, "/group/1")

	assert.FileExists(t, filepath.Join(data, "coursepkg.db"))
	assert.FileExists(t, filepath.Join(reports, "remap.csv"))
	assert.FileExists(t, filepath.Join(reports, "summary.yaml"))

	records, err := filepath.Glob(filepath.Join(data, "journal", "*.json.br"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	entry, err := journal.Read(records[0])
	require.NoError(t, err)
	assert.Equal(t, journal.StatusImported, entry.Status)
	require.NotNil(t, entry.Result)
	assert.Equal(t, 1, entry.Result.Activities)
}

func TestImportFailureIsJournaled(t *testing.T) {
	data := setupEnv(t)
	files := smallCourse()
	files["list_of_files.json"] = `{"modules": []}`

	_, errOut, err := execute(t, "import", writeZip(t, files))
	require.Error(t, err)
	assert.Contains(t, errOut, "Incorrect archive structure.")

	records, _ := filepath.Glob(filepath.Join(data, "journal", "*.json.br"))
	require.Len(t, records, 1)
	entry, err := journal.Read(records[0])
	require.NoError(t, err)
	assert.Equal(t, journal.StatusFailed, entry.Status)
	assert.Equal(t, "malformed archive", entry.Kind)
	assert.Equal(t, "manifest", entry.Stage)
}

func TestImportRequiresArgument(t *testing.T) {
	setupEnv(t)
	_, _, err := execute(t, "import")
	assert.Error(t, err)
}
