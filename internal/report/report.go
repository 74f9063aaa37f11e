// Package report renders the outcome of an import for operators.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	yaml "gopkg.in/yaml.v2"

	"course-import/internal/importer"
	"course-import/internal/remap"
)

// Keep header order stable; downstream scripts read columns by position.
var remapHeader = []string{
	"KIND",
	"ARCHIVE_ID",
	"NEW_ID",
}

// WriteRemapCSV writes one row per recorded id mapping.
func WriteRemapCSV(w io.Writer, entries []remap.Entry) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(remapHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{e.Kind.String(), e.ArchiveID, strconv.FormatInt(e.NewID, 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type summary struct {
	Course struct {
		ID    int64  `yaml:"id"`
		Label string `yaml:"label"`
		Path  string `yaml:"path"`
	} `yaml:"course"`
	Counts struct {
		Modules    int `yaml:"modules"`
		Activities int `yaml:"activities"`
		Links      int `yaml:"links"`
	} `yaml:"counts"`
	Remap    map[string]map[string]int64 `yaml:"remap"`
	Warnings []string                    `yaml:"warnings,omitempty"`
	Notice   string                      `yaml:"notice"`
}

// WriteSummaryYAML writes a human-readable summary of res.
func WriteSummaryYAML(w io.Writer, res *importer.Result) error {
	if res == nil {
		return fmt.Errorf("report: nil result")
	}
	var s summary
	s.Course.ID = res.CourseID
	s.Course.Label = res.CourseLabel
	s.Course.Path = res.CoursePath
	s.Counts.Modules = res.Modules
	s.Counts.Activities = res.Activities
	s.Counts.Links = res.Links
	s.Warnings = res.Warnings
	s.Notice = res.Notice

	s.Remap = map[string]map[string]int64{}
	for _, e := range res.Remap {
		ns := e.Kind.String()
		if s.Remap[ns] == nil {
			s.Remap[ns] = map[string]int64{}
		}
		s.Remap[ns][e.ArchiveID] = e.NewID
	}

	out, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("report: serialization failed: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// WriteFiles writes remap.csv and summary.yaml into dir.
func WriteFiles(dir string, res *importer.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create dir: %w", err)
	}
	csvPath := filepath.Join(dir, "remap.csv")
	yamlPath := filepath.Join(dir, "summary.yaml")

	if err := writeFile(csvPath, func(w io.Writer) error { return WriteRemapCSV(w, res.Remap) }); err != nil {
		return nil, err
	}
	if err := writeFile(yamlPath, func(w io.Writer) error { return WriteSummaryYAML(w, res) }); err != nil {
		return nil, err
	}
	return []string{csvPath, yamlPath}, nil
}

func writeFile(p string, fn func(io.Writer) error) error {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("report: write %s: %w", filepath.Base(p), err)
	}
	return f.Close()
}
