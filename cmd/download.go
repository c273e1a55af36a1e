package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.design/x/clipboard"

	"pagepdf/config"
	"pagepdf/downloader"
	"pagepdf/models"
	"pagepdf/validation"
)

// jobFlags are the per-run overrides shared by download and bulk.
type jobFlags struct {
	cookies string
	related bool
	format  string
	workers int
	output  string
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.cookies, "cookies", "", "Netscape cookies.txt file sent with every request")
	cmd.Flags().BoolVar(&f.related, "related", false, "also download the other chapters of the same story")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: pdf or epub")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent image downloads")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory")
}

// apply copies the flags the user actually set onto c.
func (f *jobFlags) apply(cmd *cobra.Command, c config.Config) (config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("cookies") {
		c.CookiesFile = f.cookies
	}
	if flags.Changed("related") {
		c.Related = f.related
	}
	if flags.Changed("format") {
		c.Format = strings.ToLower(f.format)
	}
	if flags.Changed("workers") {
		c.Workers = f.workers
	}
	if flags.Changed("output") {
		c.OutputDir = f.output
	}
	return c, c.Validate()
}

var (
	downloadFlags jobFlags
	fromClipboard bool
)

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download one gallery page as a document",
	Long: "Fetch the page, collect its images in reading order (following next-page\n" +
		"links on paginated galleries), download them and write <title>.pdf.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runCfg, err := downloadFlags.apply(cmd, cfg)
		if err != nil {
			return err
		}

		raw, err := pageURLArg(args)
		if err != nil {
			return err
		}
		pageURL, err := validation.ValidatePageURL(raw)
		if err != nil {
			return err
		}

		m, err := downloader.NewManager(runCfg)
		if err != nil {
			return err
		}
		m.Progress = os.Stderr

		summary := m.Run(cmd.Context(), []string{pageURL})
		if summary.Total() > 1 {
			fmt.Println(renderSummary(summary))
		} else {
			for _, res := range summary.Results {
				printResult(res)
			}
		}
		return summaryErr(cmd, summary)
	},
}

func init() {
	downloadFlags.register(downloadCmd)
	downloadCmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "read the page URL from the clipboard")
}

func pageURLArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !fromClipboard {
		return "", fmt.Errorf("a page URL or --clipboard is required")
	}

	if err := clipboard.Init(); err != nil {
		return "", fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return "", fmt.Errorf("clipboard is empty")
	}
	return strings.TrimSpace(string(data)), nil
}

func printResult(res models.JobResult) {
	switch res.Status {
	case models.StatusCompleted:
		fmt.Printf("✅ %s: %d pages -> %s\n", res.Title, res.Pages, res.Output)
		for _, w := range res.Warnings {
			fmt.Printf("   ⚠️  %s\n", w)
		}
	case models.StatusEmpty:
		fmt.Printf("📭 %s: %s\n", res.URL, res.Reason)
	default:
		fmt.Printf("❌ %s: %s\n", res.URL, res.Reason)
	}
}

// summaryErr turns failed jobs into a non-zero exit; empty pages are not
// failures.
func summaryErr(cmd *cobra.Command, s models.BulkSummary) error {
	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", s.Failed, s.Total())
	}
	return nil
}
