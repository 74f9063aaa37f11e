// Package source turns an import argument into a local archive path.
package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"course-import/internal/httpx"
	"course-import/internal/sftpclient"
)

const defaultName = "course.opi"

// Fetcher resolves local paths, http(s) URLs and sftp://<name> references
// to files in the configured SFTP inbox.
type Fetcher struct {
	HTTP  *http.Client
	Retry httpx.RetryConfig
	SFTP  sftpclient.Config
}

// Fetched is a local copy of an archive. Cleanup removes it together with
// its download directory; it is a no-op for local paths.
type Fetched struct {
	Path    string
	Remote  bool
	Cleanup func()
}

// Fetch makes the archive named by ref available under dir.
func (f *Fetcher) Fetch(ctx context.Context, ref, dir string) (*Fetched, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("source: empty archive reference")
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return local(ref)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		fetched, err := target(dir, path.Base(u.Path))
		if err != nil {
			return nil, err
		}
		if _, err := httpx.DownloadFile(ctx, f.client(), u.String(), fetched.Path, f.Retry); err != nil {
			fetched.Cleanup()
			return nil, fmt.Errorf("source: download %s: %w", u.Redacted(), err)
		}
		return fetched, nil
	case "sftp":
		name := strings.TrimPrefix(u.Opaque+u.Host+u.Path, "/")
		fetched, err := target(dir, name)
		if err != nil {
			return nil, err
		}
		if _, err := sftpclient.Download(ctx, f.SFTP, name, fetched.Path); err != nil {
			fetched.Cleanup()
			return nil, fmt.Errorf("source: %w", err)
		}
		return fetched, nil
	case "file":
		return local(u.Path)
	}
	return nil, fmt.Errorf("source: unsupported scheme %q", u.Scheme)
}

func (f *Fetcher) client() *http.Client {
	if f.HTTP != nil {
		return f.HTTP
	}
	return &http.Client{Timeout: 10 * time.Minute}
}

func local(p string) (*Fetched, error) {
	st, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("source: %s is a directory", p)
	}
	return &Fetched{Path: p, Cleanup: func() {}}, nil
}

// target prepares a private download directory below dir, so concurrent
// fetches of the same name never share a path. Cleanup removes it.
func target(dir, name string) (*Fetched, error) {
	if name == "" || name == "." || name == "/" {
		name = defaultName
	}
	if strings.ContainsAny(name, `/\`) || name == ".." {
		return nil, fmt.Errorf("source: invalid archive name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("source: prepare download dir: %w", err)
	}
	tmp, err := os.MkdirTemp(dir, "fetch-")
	if err != nil {
		return nil, fmt.Errorf("source: prepare download dir: %w", err)
	}
	return &Fetched{
		Path:    filepath.Join(tmp, name),
		Remote:  true,
		Cleanup: func() { os.RemoveAll(tmp) },
	}, nil
}
