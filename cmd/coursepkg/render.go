package main

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"course-import/internal/importer"
	"course-import/internal/importerr"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	successStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
)

func renderSuccess(res *importer.Result, dryRun bool) string {
	var b strings.Builder
	notice := res.Notice
	if dryRun {
		notice += " (dry run, nothing was saved)"
	}
	b.WriteString(successStyle.Render(notice))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("  course:     ") + pathStyle.Render(res.CoursePath) + "\n")
	b.WriteString(labelStyle.Render("  modules:    ") + strconv.Itoa(res.Modules) + "\n")
	b.WriteString(labelStyle.Render("  activities: ") + strconv.Itoa(res.Activities) + "\n")
	b.WriteString(labelStyle.Render("  links:      ") + strconv.Itoa(res.Links) + "\n")
	for _, w := range res.Warnings {
		b.WriteString(warningStyle.Render("  warning: ") + w + "\n")
	}
	return b.String()
}

func renderFailure(err error, verbose bool) string {
	s := errorStyle.Render(importerr.Notice(err))
	if verbose {
		s += "\n" + labelStyle.Render("  "+err.Error())
	}
	return s + "\n"
}
