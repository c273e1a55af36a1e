package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"pagepdf/bookmarks"
	"pagepdf/downloader"
	"pagepdf/models"
	"pagepdf/validation"
)

var bulkFlags jobFlags

var bulkCmd = &cobra.Command{
	Use:   "bulk [file]",
	Short: "Download every page listed in a file",
	Long: "Read one URL per line (blank lines and # comments ignored) and run them\n" +
		"one after another. A failing page is reported and the run moves on.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runCfg, err := bulkFlags.apply(cmd, cfg)
		if err != nil {
			return err
		}

		lines, err := bookmarks.Load(args[0])
		if err != nil {
			return err
		}

		var (
			urls    []string
			invalid []models.JobResult
		)
		for _, line := range lines {
			u, err := validation.ValidatePageURL(line)
			if err != nil {
				invalid = append(invalid, models.JobResult{URL: line, Status: models.StatusFailed, Reason: err.Error()})
				continue
			}
			urls = append(urls, u)
		}
		if len(urls) == 0 && len(invalid) == 0 {
			fmt.Println("📚 No URLs in file.")
			return nil
		}
		fmt.Printf("📚 %d URLs to process\n", len(urls))

		m, err := downloader.NewManager(runCfg)
		if err != nil {
			return err
		}
		m.Progress = os.Stderr
		m.OnProgress = func(msg string, done, total int) {
			fmt.Printf("[%d/%d] %s\n", done, total, msg)
		}

		summary := m.Run(cmd.Context(), urls)
		for _, r := range invalid {
			summary.Add(r)
		}

		fmt.Println(renderSummary(summary))
		return summaryErr(cmd, summary)
	},
}

func init() {
	bulkFlags.register(bulkCmd)
}

// renderSummary draws one row per job followed by the totals.
func renderSummary(s models.BulkSummary) string {
	var (
		purple = lipgloss.Color("99")
		green  = lipgloss.Color("42")
		yellow = lipgloss.Color("214")
		red    = lipgloss.Color("196")

		headerStyle = lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
		cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	)

	statusColor := map[models.JobStatus]lipgloss.Color{
		models.StatusCompleted: green,
		models.StatusEmpty:     yellow,
		models.StatusFailed:    red,
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(s.Results) {
				return cellStyle.Foreground(statusColor[s.Results[row].Status])
			}
			return cellStyle
		}).
		Headers("#", "Status", "Title / URL", "Pages", "Detail")

	for i, r := range s.Results {
		name := r.Title
		if name == "" {
			name = r.URL
		}
		detail := r.Reason
		if r.Status == models.StatusCompleted {
			detail = r.Output
			if len(r.Warnings) > 0 {
				detail = fmt.Sprintf("%s (%d skipped)", r.Output, len(r.Warnings))
			}
		}
		t.Row(fmt.Sprintf("%d", i+1), string(r.Status), truncateString(name, 48), fmt.Sprintf("%d", r.Pages), truncateString(detail, 60))
	}

	totals := fmt.Sprintf("✅ %d completed  📭 %d empty  ❌ %d failed", s.Completed, s.Empty, s.Failed)
	return strings.Join([]string{t.String(), totals}, "\n")
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
