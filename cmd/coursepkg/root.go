package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"course-import/internal/config"
)

// exitError reports a failure that was already rendered to the user.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// app holds what every subcommand shares once flags are parsed.
type app struct {
	cfg     config.Config
	log     *log.Logger
	out     io.Writer
	errOut  io.Writer
	verbose bool
	now     func() time.Time
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, now: time.Now}

	root := &cobra.Command{
		Use:   "coursepkg",
		Short: "Import exported course packages",
		Long: titleStyle.Render("coursepkg") + subtitleStyle.Render(" - rebuild courses from exported .opi archives") + `

An archive is a zip container holding a course, its modules, their
activities, attached files and embedded interactive content packages.

` + subtitleStyle.Render("Examples:") + `
  coursepkg validate course.opi
  coursepkg import course.opi
  coursepkg import --dry-run https://lms.example.com/exports/course.opi
  coursepkg import sftp://course.opi --report-dir ./reports`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.cfg = config.Load()
			level, err := log.ParseLevel(a.cfg.LogLevel)
			if err != nil {
				level = log.InfoLevel
			}
			if a.verbose {
				level = log.DebugLevel
			}
			a.log = log.NewWithOptions(a.errOut, log.Options{
				Prefix:          "coursepkg",
				Level:           level,
				ReportTimestamp: true,
			})
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging and full error details")

	root.AddCommand(newImportCmd(a))
	root.AddCommand(newValidateCmd(a))
	return root
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
