package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"course-import/internal/assets"
	"course-import/internal/httpx"
	"course-import/internal/importer"
	"course-import/internal/journal"
	"course-import/internal/report"
	"course-import/internal/sftpclient"
	"course-import/internal/source"
	"course-import/internal/storage"
	"course-import/internal/store"
)

type importOptions struct {
	dryRun    bool
	reportDir string
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Import a course archive",
		Long: `Import a course archive from a local path, an http(s) URL or
sftp://<file> in the configured SFTP inbox.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "import into a throwaway in-memory store")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", "", "write remap.csv and summary.yaml into this directory")
	return cmd
}

// backend is everything an import writes to.
type backend struct {
	store    store.Entities
	registry store.Registry
	public   *storage.Public
	assets   assets.Tree
	close    func()
}

func (a *app) runImport(ctx context.Context, ref string, opts importOptions) error {
	started := a.now()

	fetcher := &source.Fetcher{Retry: httpx.DefaultRetryConfig(), SFTP: a.sftpConfig()}
	fetched, err := fetcher.Fetch(ctx, ref, filepath.Join(a.cfg.TmpDir, "coursepkg-downloads"))
	if err != nil {
		return err
	}
	defer fetched.Cleanup()
	a.log.Debug("Fetched archive", "source", ref, "path", fetched.Path)

	var be *backend
	if opts.dryRun {
		be, err = a.dryRunBackend()
	} else {
		be, err = a.backend(ctx)
	}
	if err != nil {
		return err
	}
	defer be.close()

	im, err := importer.New(importer.Config{
		Store:         be.store,
		Registry:      be.registry,
		Public:        be.public,
		Assets:        be.assets,
		Logger:        a.log,
		TmpDir:        a.cfg.TmpDir,
		ActorID:       a.cfg.ActorID,
		MaxEntryBytes: a.cfg.MaxEntryBytes,
	})
	if err != nil {
		return err
	}

	res, importErr := im.Import(ctx, fetched.Path)

	entry := journal.NewEntry(ref, started, a.now(), res, importErr)
	entry.DryRun = opts.dryRun
	if p, err := journal.Write(filepath.Join(a.cfg.DataDir, "journal"), entry); err != nil {
		a.log.Warn("Failed to write journal", "err", err)
	} else {
		a.log.Debug("Wrote journal", "path", p, "dry_run", entry.DryRun)
	}

	if importErr != nil {
		fmt.Fprint(a.errOut, renderFailure(importErr, a.verbose))
		return &exitError{code: 1, err: importErr}
	}

	if opts.reportDir != "" {
		paths, err := report.WriteFiles(opts.reportDir, res)
		if err != nil {
			return err
		}
		for _, p := range paths {
			a.log.Info("Wrote report", "path", p)
		}
	}
	fmt.Fprint(a.out, renderSuccess(res, opts.dryRun))
	return nil
}

func (a *app) backend(ctx context.Context) (*backend, error) {
	db, err := store.Open(ctx, a.cfg.DBDriver, a.cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	registry, err := store.NewCachedRegistry(db, a.cfg.LibraryCache)
	if err != nil {
		db.Close()
		return nil, err
	}
	public, err := storage.NewPublic(filepath.Join(a.cfg.DataDir, "files"))
	if err != nil {
		db.Close()
		return nil, err
	}

	var tree assets.Tree = assets.NewDisk(a.cfg.DataDir, a.cfg.H5PPath)
	if s3 := a.s3Config(); s3.Complete() {
		bucket, err := assets.NewS3(s3)
		if err != nil {
			db.Close()
			return nil, err
		}
		tree = bucket
		a.log.Debug("Using asset bucket", "bucket", s3.Bucket)
	}

	return &backend{
		store:    db,
		registry: registry,
		public:   public,
		assets:   tree,
		close: func() {
			if err := db.Close(); err != nil {
				a.log.Warn("Failed to close database", "err", err)
			}
		},
	}, nil
}

// dryRunBackend keeps every write in memory or under a temporary
// directory removed on close.
func (a *app) dryRunBackend() (*backend, error) {
	if err := os.MkdirAll(a.cfg.TmpDir, 0o755); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(a.cfg.TmpDir, "coursepkg-dryrun-")
	if err != nil {
		return nil, err
	}
	public, err := storage.NewPublic(filepath.Join(dir, "files"))
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	mem := store.NewMemory()
	return &backend{
		store:    mem,
		registry: mem,
		public:   public,
		assets:   assets.NewDisk(dir, a.cfg.H5PPath),
		close:    func() { os.RemoveAll(dir) },
	}, nil
}

func (a *app) sftpConfig() sftpclient.Config {
	return sftpclient.Config{
		Host:                  a.cfg.SFTPHost,
		Port:                  a.cfg.SFTPPort,
		User:                  a.cfg.SFTPUser,
		Pass:                  a.cfg.SFTPPass,
		RemoteDir:             a.cfg.SFTPDir,
		InsecureIgnoreHostKey: a.cfg.SFTPInsecureIgnoreHostKey,
	}
}

func (a *app) s3Config() assets.S3Config {
	return assets.S3Config{
		Endpoint:  a.cfg.AssetsS3Endpoint,
		Region:    a.cfg.AssetsS3Region,
		AccessKey: a.cfg.AssetsS3AccessKey,
		SecretKey: a.cfg.AssetsS3SecretKey,
		Bucket:    a.cfg.AssetsS3Bucket,
		UseSSL:    a.cfg.AssetsS3UseSSL,
		Base:      a.cfg.H5PPath,
	}
}
