package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"course-import/internal/concurrency"
)

// DefaultMaxEntryBytes caps the uncompressed size of a single entry.
const DefaultMaxEntryBytes int64 = 512 << 20

// Executable or server-interpreted extensions never allowed in a package.
var blockedExtensions = map[string]bool{
	"php": true, "php3": true, "php4": true, "php5": true, "php7": true, "phtml": true, "phar": true, "inc": true,
	"pl": true, "py": true, "cgi": true, "asp": true, "aspx": true, "jsp": true,
	"sh": true, "bash": true, "exe": true, "bat": true, "cmd": true, "com": true,
	"vbs": true, "dll": true, "so": true, "htaccess": true,
}

// Text-like extensions whose content is scanned for server-side script markers.
var scannedExtensions = map[string]bool{
	"json": true, "txt": true, "html": true, "htm": true, "xml": true,
	"svg": true, "css": true, "js": true,
}

var scriptMarkers = [][]byte{[]byte("<?php"), []byte("<?="), []byte("<%")}

// Finding is one reason an entry was judged unsafe.
type Finding struct {
	Entry  string
	Reason string
}

func (f Finding) String() string { return fmt.Sprintf("%s: %s", f.Entry, f.Reason) }

// Verdict is the outcome of Validate. The zero value is unsafe.
type Verdict struct {
	Safe     bool
	Findings []Finding
}

func (v Verdict) Err() error {
	if v.Safe {
		return nil
	}
	if len(v.Findings) == 0 {
		return fmt.Errorf("archive rejected")
	}
	return fmt.Errorf("archive rejected: %s", v.Findings[0])
}

// Options tunes Validate.
type Options struct {
	MaxEntryBytes int64
	Workers       concurrency.Options
	// SkipContentScan turns off the script-marker scan. Library bundles
	// ship client-side templates that legitimately contain "<%".
	SkipContentScan bool
}

// Validate inspects every entry name, and the content of text-like
// entries, without writing anything. It fails closed: any finding makes
// the whole archive unsafe.
func Validate(ctx context.Context, r *zip.Reader, opts Options) Verdict {
	if r == nil {
		return Verdict{Findings: []Finding{{Reason: "no archive"}}}
	}
	if opts.MaxEntryBytes <= 0 {
		opts.MaxEntryBytes = DefaultMaxEntryBytes
	}

	var findings []Finding
	var scan []*zip.File
	for _, f := range r.File {
		if reason := checkEntry(f, opts.MaxEntryBytes); reason != "" {
			findings = append(findings, Finding{Entry: f.Name, Reason: reason})
			continue
		}
		if !opts.SkipContentScan && !f.FileInfo().IsDir() && scannedExtensions[extension(f.Name)] {
			scan = append(scan, f)
		}
	}

	errs := concurrency.ForEach(ctx, scan, opts.Workers, func(ctx context.Context, _ int, f *zip.File) error {
		return scanContent(f, opts.MaxEntryBytes)
	})
	for i, err := range errs {
		if err != nil {
			findings = append(findings, Finding{Entry: scan[i].Name, Reason: err.Error()})
		}
	}

	return Verdict{Safe: len(findings) == 0, Findings: findings}
}

func checkEntry(f *zip.File, maxBytes int64) string {
	name := f.Name
	switch {
	case name == "":
		return "empty entry name"
	case strings.ContainsRune(name, 0):
		return "NUL byte in name"
	case strings.Contains(name, `\`):
		return "backslash in name"
	case strings.HasPrefix(name, "/"):
		return "absolute path"
	case len(name) >= 2 && name[1] == ':':
		return "drive letter in name"
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "path traversal"
		}
	}
	if f.Mode()&fs.ModeSymlink != 0 {
		return "symbolic link"
	}
	if blockedExtensions[extension(name)] || strings.EqualFold(path.Base(name), ".htaccess") {
		return "disallowed extension"
	}
	if f.UncompressedSize64 > uint64(maxBytes) {
		return "entry too large"
	}
	return ""
}

func scanContent(f *zip.File, maxBytes int64) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("unreadable: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return fmt.Errorf("unreadable: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return fmt.Errorf("entry too large")
	}
	lower := bytes.ToLower(data)
	for _, m := range scriptMarkers {
		if bytes.Contains(lower, m) {
			return fmt.Errorf("embedded script marker %q", m)
		}
	}
	return nil
}

func extension(name string) string {
	ext := path.Ext(path.Base(name))
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}
