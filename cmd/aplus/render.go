package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hkao1210/A-PLUS-I/internal/model"
	"github.com/hkao1210/A-PLUS-I/internal/preview"
	"github.com/hkao1210/A-PLUS-I/internal/workflow"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4CAF50"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func renderTransition(tr workflow.Transition) string {
	return mutedStyle.Render(fmt.Sprintf("%s → %s", tr.From, tr.To))
}

func renderFailure(msg string) string {
	return errorStyle.Render(msg)
}

func renderSaved(path string, n int) string {
	return okStyle.Render(fmt.Sprintf("saved %s (%d bytes)", path, n))
}

func renderResult(id model.DocumentID, res *model.AssessmentResult) string {
	if res == nil {
		return ""
	}
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Score: %.1f / 100", res.Score)),
		"",
		fmt.Sprintf("Accuracy  %.1f / 4", res.Breakdown.Accuracy),
		fmt.Sprintf("Clarity   %.1f / 4", res.Breakdown.Clarity),
		fmt.Sprintf("Concepts  %.1f / 4", res.Breakdown.Concepts),
		"",
		res.Feedback,
		"",
		mutedStyle.Render("document " + id.String()),
	}
	return boxStyle.Width(72).Render(strings.Join(lines, "\n"))
}

func renderPreviewHeader(h *preview.Handle) string {
	return titleStyle.Render(h.Filename()) + " " + mutedStyle.Render(h.ContentType()+"  "+h.URI())
}

func renderDocuments(docs []model.Document) string {
	if len(docs) == 0 {
		return mutedStyle.Render("no documents")
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("%-36s  %-19s  %s", "ID", "UPLOADED", "FILENAME"))}
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("%-36s  %-19s  %s",
			d.ID, d.CreatedAt.Local().Format("2006-01-02 15:04:05"), d.Filename))
	}
	return strings.Join(lines, "\n")
}
