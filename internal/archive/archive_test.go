package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	body string
	mode fs.FileMode
}

func buildZip(t *testing.T, entries ...entry) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		if e.mode != 0 {
			hdr.SetMode(e.mode)
		}
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return zr
}

func TestValidateAcceptsCleanPackage(t *testing.T) {
	zr := buildZip(t,
		entry{name: "list_of_files.json", body: `{"course":"course_1.json"}`},
		entry{name: "course_1.json", body: `{"1":{"id":[{"value":1}]}}`},
		entry{name: "files/"},
		entry{name: "files/deck.pdf", body: "%PDF-1.4"},
	)

	v := Validate(context.Background(), zr, Options{})
	assert.True(t, v.Safe)
	assert.Empty(t, v.Findings)
	assert.NoError(t, v.Err())
}

func TestValidateRejectsUnsafeEntries(t *testing.T) {
	testCases := []struct {
		name  string
		entry entry
	}{
		{"traversal", entry{name: "../../etc/passwd", body: "x"}},
		{"nested traversal", entry{name: "files/../../x.txt", body: "x"}},
		{"absolute", entry{name: "/etc/passwd", body: "x"}},
		{"backslash", entry{name: `..\evil.txt`, body: "x"}},
		{"drive letter", entry{name: "C:/evil.txt", body: "x"}},
		{"php extension", entry{name: "files/shell.php", body: "x"}},
		{"phar upper case", entry{name: "files/lib.PHAR", body: "x"}},
		{"htaccess", entry{name: "files/.htaccess", body: "deny"}},
		{"script marker in json", entry{name: "module_1.json", body: `{"x":"<?php system($_GET['c']); ?>"}`}},
		{"short tag in svg", entry{name: "img.svg", body: `<svg><?= 1 ?></svg>`}},
		{"asp marker in html", entry{name: "page.html", body: `<% eval %>`}},
		{"symlink", entry{name: "link", body: "/etc/passwd", mode: fs.ModeSymlink | 0o777}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			zr := buildZip(t, entry{name: "list_of_files.json", body: `{}`}, tc.entry)
			v := Validate(context.Background(), zr, Options{})
			require.False(t, v.Safe)
			require.Len(t, v.Findings, 1)
			assert.Equal(t, tc.entry.name, v.Findings[0].Entry)
			assert.Error(t, v.Err())
		})
	}
}

func TestValidateIgnoresMarkersInBinaryEntries(t *testing.T) {
	zr := buildZip(t, entry{name: "files/raw.bin", body: "<?php"})
	assert.True(t, Validate(context.Background(), zr, Options{}).Safe)
}

func TestValidateEntrySizeCap(t *testing.T) {
	zr := buildZip(t, entry{name: "files/big.pdf", body: "0123456789"})
	v := Validate(context.Background(), zr, Options{MaxEntryBytes: 4})
	require.False(t, v.Safe)
	assert.Equal(t, "entry too large", v.Findings[0].Reason)
}

func TestValidateNilReader(t *testing.T) {
	assert.False(t, Validate(context.Background(), nil, Options{}).Safe)
}

func TestExtractWritesUnderDestination(t *testing.T) {
	zr := buildZip(t,
		entry{name: "list_of_files.json", body: `{"course":"c.json"}`},
		entry{name: "files/a/b.txt", body: "hello"},
	)
	dest := filepath.Join(t.TempDir(), "out")

	require.NoError(t, Extract(zr, dest))

	data, err := os.ReadFile(filepath.Join(dest, "files", "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.FileExists(t, filepath.Join(dest, "list_of_files.json"))
}

func TestExtractRejectsEscape(t *testing.T) {
	parent := t.TempDir()
	dest := filepath.Join(parent, "out")
	zr := buildZip(t, entry{name: "../escaped.txt", body: "x"})

	require.Error(t, Extract(zr, dest))
	assert.NoFileExists(t, filepath.Join(parent, "escaped.txt"))
}

func TestOpen(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("list_of_files.json")
	require.NoError(t, err)
	_, _ = w.Write([]byte(`{}`))
	require.NoError(t, zw.Close())

	p := filepath.Join(t.TempDir(), "course.opi")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))

	zr, err := Open(p)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 1)

	_, err = Open(filepath.Join(t.TempDir(), "missing.opi"))
	assert.Error(t, err)
}

func TestValidateSkipContentScan(t *testing.T) {
	zr := buildZip(t, entry{name: "H5P.Text-1.3/js/tpl.js", body: "var t = '<%= name %>';"})
	assert.False(t, Validate(context.Background(), zr, Options{}).Safe)
	assert.True(t, Validate(context.Background(), zr, Options{SkipContentScan: true}).Safe)

	blocked := buildZip(t, entry{name: "H5P.Text-1.3/x.php", body: ""})
	assert.False(t, Validate(context.Background(), blocked, Options{SkipContentScan: true}).Safe)
}
