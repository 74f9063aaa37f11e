package h5p

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"course-import/internal/domain"
	"course-import/internal/store"
)

// Dependency is one entry of a package's preloadedDependencies list.
type Dependency struct {
	MachineName  string `json:"machineName"`
	MajorVersion int    `json:"majorVersion"`
	MinorVersion int    `json:"minorVersion"`
}

func (d Dependency) String() string {
	return fmt.Sprintf("%s %d.%d", d.MachineName, d.MajorVersion, d.MinorVersion)
}

// Meta is the package's h5p.json.
type Meta struct {
	Title                 string       `json:"title"`
	MainLibrary           string       `json:"mainLibrary"`
	Language              string       `json:"language"`
	EmbedTypes            []string     `json:"embedTypes"`
	PreloadedDependencies []Dependency `json:"preloadedDependencies"`
}

// MainDependency is the dependency entry naming the main library. When the
// main library is not listed its version is unknown (0.0).
func (m Meta) MainDependency() Dependency {
	for _, d := range m.PreloadedDependencies {
		if d.MachineName == m.MainLibrary {
			return d
		}
	}
	return Dependency{MachineName: m.MainLibrary}
}

type assetPath struct {
	Path string `json:"path"`
}

type libraryJSON struct {
	Title        string        `json:"title"`
	MachineName  string        `json:"machineName"`
	MajorVersion int           `json:"majorVersion"`
	MinorVersion int           `json:"minorVersion"`
	PatchVersion int           `json:"patchVersion"`
	Runnable     domain.Scalar `json:"runnable"`
	EmbedTypes   []string      `json:"embedTypes"`
	PreloadedJS  []assetPath   `json:"preloadedJs"`
	PreloadedCSS []assetPath   `json:"preloadedCss"`
}

// BundledLibrary is a library directory shipped inside a package.
type BundledLibrary struct {
	Folder  string
	Dir     string
	Library store.Library
}

// Package is an extracted, structurally valid interactive-content package.
type Package struct {
	Dir         string
	Meta        Meta
	ContentJSON string
	Libraries   []BundledLibrary
}

// ContentDir holds content.json and the content's own assets.
func (p *Package) ContentDir() string { return filepath.Join(p.Dir, "content") }

// Load checks the structure of an extracted package.
func Load(dir string) (*Package, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "h5p.json"))
	if err != nil {
		return nil, fmt.Errorf("read h5p.json: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode h5p.json: %w", err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	meta.MainLibrary = strings.TrimSpace(meta.MainLibrary)
	switch {
	case meta.Title == "":
		return nil, fmt.Errorf("h5p.json: missing title")
	case meta.MainLibrary == "":
		return nil, fmt.Errorf("h5p.json: missing mainLibrary")
	case len(meta.PreloadedDependencies) == 0:
		return nil, fmt.Errorf("h5p.json: missing preloadedDependencies")
	}
	for i, d := range meta.PreloadedDependencies {
		if strings.TrimSpace(d.MachineName) == "" {
			return nil, fmt.Errorf("h5p.json: dependency %d has no machineName", i)
		}
	}

	content, err := os.ReadFile(filepath.Join(dir, "content", "content.json"))
	if err != nil {
		return nil, fmt.Errorf("read content/content.json: %w", err)
	}
	if !json.Valid(content) {
		return nil, fmt.Errorf("content/content.json is not valid JSON")
	}

	libs, err := loadLibraries(dir)
	if err != nil {
		return nil, err
	}
	return &Package{Dir: dir, Meta: meta, ContentJSON: string(content), Libraries: libs}, nil
}

func loadLibraries(dir string) ([]BundledLibrary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list package: %w", err)
	}
	var out []BundledLibrary
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "content" || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		libDir := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(filepath.Join(libDir, "library.json"))
		if err != nil {
			return nil, fmt.Errorf("library %s: read library.json: %w", e.Name(), err)
		}
		var lj libraryJSON
		if err := json.Unmarshal(raw, &lj); err != nil {
			return nil, fmt.Errorf("library %s: decode library.json: %w", e.Name(), err)
		}
		if strings.TrimSpace(lj.MachineName) == "" {
			return nil, fmt.Errorf("library %s: missing machineName", e.Name())
		}
		if !folderMatches(e.Name(), lj) {
			return nil, fmt.Errorf("library folder %s does not match %s %d.%d", e.Name(), lj.MachineName, lj.MajorVersion, lj.MinorVersion)
		}
		out = append(out, BundledLibrary{
			Folder: e.Name(),
			Dir:    libDir,
			Library: store.Library{
				MachineName:  lj.MachineName,
				Title:        lj.Title,
				MajorVersion: lj.MajorVersion,
				MinorVersion: lj.MinorVersion,
				PatchVersion: lj.PatchVersion,
				Runnable:     lj.Runnable.Bool(),
				EmbedTypes:   strings.Join(lj.EmbedTypes, ", "),
				PreloadedJS:  joinPaths(lj.PreloadedJS),
				PreloadedCSS: joinPaths(lj.PreloadedCSS),
			},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Folder < out[j].Folder })
	return out, nil
}

// folderMatches accepts "Machine-Major.Minor" and the older bare "Machine".
func folderMatches(folder string, lj libraryJSON) bool {
	if folder == lj.MachineName {
		return true
	}
	return folder == FolderName(lj.MachineName, lj.MajorVersion, lj.MinorVersion)
}

// FolderName is the canonical library directory name.
func FolderName(machineName string, major, minor int) string {
	return fmt.Sprintf("%s-%d.%d", machineName, major, minor)
}

func joinPaths(ps []assetPath) string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Path)
	}
	return strings.Join(out, ", ")
}
