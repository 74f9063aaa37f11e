package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"course-import/internal/domain"
	"course-import/internal/importerr"
	"course-import/internal/safefs"
)

// FileName is the manifest entry at the archive root.
const FileName = "list_of_files.json"

// ModuleEntry is one module of the manifest, in document order.
type ModuleEntry struct {
	Name string
	Path string
}

// Manifest lists the documents of an extracted package.
type Manifest struct {
	Course     string
	Modules    []ModuleEntry
	Activities map[string][]string
}

// ActivitiesFor returns the activity documents listed under a module name.
func (m *Manifest) ActivitiesFor(module string) []string {
	if m == nil {
		return nil
	}
	return m.Activities[module]
}

type rawManifest struct {
	Course     json.RawMessage `json:"course"`
	Modules    json.RawMessage `json:"modules"`
	Activities json.RawMessage `json:"activities"`
}

// Decoder reads the manifest and the documents it references, lazily,
// from an extraction root.
type Decoder struct {
	fs       *safefs.FS
	manifest *Manifest
}

// Open reads and checks the manifest under root.
func Open(root string) (*Decoder, error) {
	sfs, err := safefs.New(root)
	if err != nil {
		return nil, importerr.New(importerr.MalformedArchive, "open extraction root", err)
	}
	data, err := sfs.ReadFile(FileName)
	if err != nil {
		return nil, importerr.New(importerr.MalformedArchive, "read "+FileName, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return &Decoder{fs: sfs, manifest: m}, nil
}

// Parse decodes manifest bytes. A manifest without a course entry is malformed.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, importerr.New(importerr.MalformedArchive, "decode "+FileName, err)
	}

	var course string
	if len(raw.Course) > 0 && !bytes.Equal(bytes.TrimSpace(raw.Course), []byte("null")) {
		if err := json.Unmarshal(raw.Course, &course); err != nil {
			return nil, importerr.New(importerr.MalformedArchive, "decode course entry", err)
		}
	}
	course = strings.TrimSpace(course)
	if course == "" {
		return nil, importerr.Errorf(importerr.MalformedArchive, "decode "+FileName, "missing course entry")
	}

	m := &Manifest{Course: course, Activities: map[string][]string{}}

	err := eachString(raw.Modules, func(name string, v json.RawMessage) error {
		var p string
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("module %q: %w", name, err)
		}
		m.Modules = append(m.Modules, ModuleEntry{Name: name, Path: p})
		return nil
	})
	if err != nil {
		return nil, importerr.New(importerr.MalformedArchive, "decode modules", err)
	}

	err = eachString(raw.Activities, func(name string, v json.RawMessage) error {
		paths, err := decodePathList(v)
		if err != nil {
			return fmt.Errorf("activities of %q: %w", name, err)
		}
		m.Activities[name] = paths
		return nil
	})
	if err != nil {
		return nil, importerr.New(importerr.MalformedArchive, "decode activities", err)
	}
	return m, nil
}

func (d *Decoder) Manifest() *Manifest { return d.manifest }

// Files is the root-locked view of the extraction root.
func (d *Decoder) Files() *safefs.FS { return d.fs }

func (d *Decoder) Course() (domain.Course, error) {
	data, err := d.read(d.manifest.Course)
	if err != nil {
		return domain.Course{}, err
	}
	c, err := domain.DecodeCourse(data)
	if err != nil {
		return domain.Course{}, importerr.New(importerr.MalformedArchive, d.manifest.Course, err)
	}
	return c, nil
}

func (d *Decoder) Module(path string) (domain.Module, error) {
	data, err := d.read(path)
	if err != nil {
		return domain.Module{}, err
	}
	m, err := domain.DecodeModule(data)
	if err != nil {
		return domain.Module{}, importerr.New(importerr.MalformedArchive, path, err)
	}
	return m, nil
}

func (d *Decoder) Activity(path string) (domain.Activity, error) {
	data, err := d.read(path)
	if err != nil {
		return domain.Activity{}, err
	}
	a, err := domain.DecodeActivity(data)
	if err != nil {
		return domain.Activity{}, importerr.New(importerr.MalformedArchive, path, err)
	}
	return a, nil
}

func (d *Decoder) read(rel string) ([]byte, error) {
	if strings.TrimSpace(rel) == "" {
		return nil, importerr.Errorf(importerr.MalformedArchive, "read document", "empty path")
	}
	data, err := d.fs.ReadFile(rel)
	if err != nil {
		return nil, importerr.New(importerr.MalformedArchive, "read "+rel, err)
	}
	return data, nil
}

// eachString walks a JSON object in document order. null and [] mean empty.
func eachString(raw json.RawMessage, fn func(key string, v json.RawMessage) error) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case json.Delim('{'):
	case json.Delim('['):
		if !dec.More() {
			return nil
		}
		return errors.New("expected object, got non-empty array")
	default:
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if err := fn(key, v); err != nil {
			return err
		}
	}
	return nil
}

// decodePathList accepts a list of paths, or an object of paths keyed by index.
func decodePathList(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var out []string
		err := eachString(trimmed, func(_ string, v json.RawMessage) error {
			var p string
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
		return out, err
	}
	var out []string
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, err
	}
	return out, nil
}
