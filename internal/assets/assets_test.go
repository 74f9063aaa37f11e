package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func TestDiskStageContentReplacesStaleJSON(t *testing.T) {
	root := t.TempDir()
	tree := NewDisk(root, "")

	dest := filepath.Join(root, "h5p", "content", "12")
	writeFiles(t, dest, map[string]string{"content.json": `{"old":true}`, "images/keep.png": "old"})

	src := t.TempDir()
	writeFiles(t, src, map[string]string{"content.json": `{"new":true}`, "images/a.png": "png"})

	require.NoError(t, tree.StageContent(context.Background(), 12, src))

	data, err := os.ReadFile(filepath.Join(dest, "content.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"new":true}`, string(data))
	assert.FileExists(t, filepath.Join(dest, "images", "a.png"))
	assert.FileExists(t, filepath.Join(dest, "images", "keep.png"))
}

func TestDiskStageLibrary(t *testing.T) {
	root := t.TempDir()
	tree := NewDisk(root, "media-h5p")

	src := t.TempDir()
	writeFiles(t, src, map[string]string{"library.json": `{}`, "js/text.js": "x"})

	require.NoError(t, tree.StageLibrary(context.Background(), "H5P.Text-1.3", src))
	assert.FileExists(t, filepath.Join(root, "media-h5p", "libraries", "H5P.Text-1.3", "js", "text.js"))

	assert.Error(t, tree.StageLibrary(context.Background(), "../x", src))
}

func TestS3ConfigComplete(t *testing.T) {
	assert.False(t, S3Config{}.Complete())
	assert.True(t, S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "assets"}.Complete())
}

func TestNewS3Validation(t *testing.T) {
	_, err := NewS3(S3Config{})
	assert.Error(t, err)
	_, err = NewS3(S3Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	s, err := NewS3(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "assets"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBase, s.base)
	assert.Equal(t, "us-east-1", s.region)
}
