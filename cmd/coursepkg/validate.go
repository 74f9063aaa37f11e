package main

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/spf13/cobra"

	"course-import/internal/archive"
	"course-import/internal/importerr"
	"course-import/internal/manifest"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <archive>",
		Short: "Check an archive without importing it",
		Long: `Run the safety checks of an import and verify that every document
the manifest names is present. Nothing is extracted or stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd.Context(), args[0])
		},
	}
}

func (a *app) runValidate(ctx context.Context, path string) error {
	zr, err := archive.Open(path)
	if err != nil {
		return a.validateFailed(importerr.New(importerr.MalformedArchive, "open archive", err))
	}
	defer zr.Close()

	verdict := archive.Validate(ctx, &zr.Reader, archive.Options{MaxEntryBytes: a.cfg.MaxEntryBytes})
	if !verdict.Safe {
		for _, f := range verdict.Findings {
			fmt.Fprintln(a.errOut, warningStyle.Render("  "+f.Entry+": ")+f.Reason)
		}
		return a.validateFailed(importerr.New(importerr.UnsafeArchive, "validate archive", verdict.Err()))
	}

	m, err := readManifest(&zr.Reader)
	if err != nil {
		return a.validateFailed(err)
	}
	if missing := missingDocuments(&zr.Reader, m); len(missing) > 0 {
		for _, p := range missing {
			fmt.Fprintln(a.errOut, warningStyle.Render("  missing: ")+p)
		}
		return a.validateFailed(importerr.Errorf(importerr.MalformedArchive, "check manifest", "%d documents are missing", len(missing)))
	}

	activities := 0
	for _, e := range m.Modules {
		activities += len(m.ActivitiesFor(e.Name))
	}
	fmt.Fprintln(a.out, successStyle.Render("Archive is valid."))
	a.printf("%s%s\n", labelStyle.Render("  course:     "), m.Course)
	a.printf("%s%d\n", labelStyle.Render("  modules:    "), len(m.Modules))
	a.printf("%s%d\n", labelStyle.Render("  activities: "), activities)
	return nil
}

func (a *app) validateFailed(err error) error {
	fmt.Fprint(a.errOut, renderFailure(err, a.verbose))
	return &exitError{code: 1, err: err}
}

func readManifest(r *zip.Reader) (*manifest.Manifest, error) {
	f, err := r.Open(manifest.FileName)
	if err != nil {
		return nil, importerr.New(importerr.MalformedArchive, "read "+manifest.FileName, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, importerr.New(importerr.MalformedArchive, "read "+manifest.FileName, err)
	}
	return manifest.Parse(data)
}

func missingDocuments(r *zip.Reader, m *manifest.Manifest) []string {
	present := make(map[string]bool, len(r.File))
	for _, f := range r.File {
		present[path.Clean(f.Name)] = true
	}
	paths := []string{m.Course}
	for _, e := range m.Modules {
		paths = append(paths, e.Path)
		paths = append(paths, m.ActivitiesFor(e.Name)...)
	}
	var missing []string
	for _, p := range paths {
		if !present[path.Clean(p)] {
			missing = append(missing, p)
		}
	}
	return missing
}
