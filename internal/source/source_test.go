package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-import/internal/httpx"
)

func TestFetchLocalPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "course.opi")
	require.NoError(t, os.WriteFile(p, []byte("PK"), 0o644))

	f := &Fetcher{}
	got, err := f.Fetch(context.Background(), p, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, p, got.Path)
	assert.False(t, got.Remote)

	got.Cleanup()
	assert.FileExists(t, p, "local archives are never removed")
}

func TestFetchFileURL(t *testing.T) {
	p := filepath.Join(t.TempDir(), "course.opi")
	require.NoError(t, os.WriteFile(p, []byte("PK"), 0o644))

	got, err := (&Fetcher{}).Fetch(context.Background(), "file://"+p, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, p, got.Path)
}

func TestFetchLocalMissing(t *testing.T) {
	_, err := (&Fetcher{}).Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.opi"), t.TempDir())
	assert.Error(t, err)

	_, err = (&Fetcher{}).Fetch(context.Background(), t.TempDir(), t.TempDir())
	assert.ErrorContains(t, err, "is a directory")

	_, err = (&Fetcher{}).Fetch(context.Background(), "  ", t.TempDir())
	assert.Error(t, err)
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exports/go-course.opi" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("PK-course"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := &Fetcher{HTTP: srv.Client()}
	got, err := f.Fetch(context.Background(), srv.URL+"/exports/go-course.opi", dir)
	require.NoError(t, err)
	assert.True(t, got.Remote)
	assert.Equal(t, "go-course.opi", filepath.Base(got.Path))
	assert.Equal(t, dir, filepath.Dir(filepath.Dir(got.Path)))

	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, "PK-course", string(data))

	got.Cleanup()
	assert.NoFileExists(t, got.Path)
	assert.NoDirExists(t, filepath.Dir(got.Path))
}

func TestFetchSameNameTwiceUsesSeparateDirs(t *testing.T) {
	var served atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, "PK-%d", served.Add(1))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := &Fetcher{HTTP: srv.Client()}
	first, err := f.Fetch(context.Background(), srv.URL+"/course.opi", dir)
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), srv.URL+"/course.opi", dir)
	require.NoError(t, err)
	assert.NotEqual(t, first.Path, second.Path)

	first.Cleanup()
	assert.NoFileExists(t, first.Path)
	data, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, "PK-2", string(data))
	second.Cleanup()

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestFetchHTTPNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dir := t.TempDir()
	f := &Fetcher{HTTP: srv.Client(), Retry: httpx.RetryConfig{MaxAttempts: 1}}
	_, err := f.Fetch(context.Background(), srv.URL+"/missing.opi", dir)
	assert.ErrorContains(t, err, "status=404")

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestFetchHTTPWithoutFileName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PK"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	got, err := (&Fetcher{HTTP: srv.Client()}).Fetch(context.Background(), srv.URL+"/", dir)
	require.NoError(t, err)
	assert.Equal(t, defaultName, filepath.Base(got.Path))
	assert.Equal(t, dir, filepath.Dir(filepath.Dir(got.Path)))
	got.Cleanup()
}

func TestFetchSFTPRequiresCredentials(t *testing.T) {
	_, err := (&Fetcher{}).Fetch(context.Background(), "sftp://course.opi", t.TempDir())
	assert.ErrorContains(t, err, "SFTP_HOST")
}

func TestFetchUnsupportedScheme(t *testing.T) {
	_, err := (&Fetcher{}).Fetch(context.Background(), "ftp://host/course.opi", t.TempDir())
	assert.ErrorContains(t, err, "unsupported scheme")
}
