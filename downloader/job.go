package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pagepdf/assemble"
	"pagepdf/config"
	"pagepdf/logger"
	"pagepdf/models"
	"pagepdf/parser"
)

var jobLog = logger.New("Job")

// Job turns one page URL into one document: fetch, extract, download,
// assemble. Each run works in its own temporary directory which is removed
// when the run ends, however it ends.
type Job struct {
	ID  string
	URL string

	Config config.Config
	HTML   HTMLFetcher
	Images ImageFetcher
	Pages  parser.PageFetcher

	// DetectRelated looks for other chapters of the same story.
	DetectRelated bool
	// Progress receives the download progress bar; nil disables it.
	Progress io.Writer
}

// NewJob wires a job to client for every kind of request except crawl
// pages, which go through pages.
func NewJob(pageURL string, cfg config.Config, client *HTTPClient, pages parser.PageFetcher) *Job {
	return &Job{
		ID:            uuid.NewString(),
		URL:           pageURL,
		Config:        cfg,
		HTML:          client,
		Images:        client,
		Pages:         pages,
		DetectRelated: cfg.Related,
	}
}

// Run executes the job. Only a failure to fetch the main page, a canceled
// context or a failure to write the output is returned as an error; a page
// with nothing usable on it yields status empty and a nil error.
func (j *Job) Run(ctx context.Context) (res models.JobResult, err error) {
	start := time.Now()
	res = models.JobResult{ID: j.ID, URL: j.URL}
	defer func() {
		res.Duration = time.Since(start)
		if err != nil {
			res.Status = models.StatusFailed
			res.Reason = err.Error()
		}
	}()

	workspace, err := os.MkdirTemp(j.Config.TempDir, "pagepdf-")
	if err != nil {
		return res, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workspace); rmErr != nil {
			jobLog.Warnf("Could not clean up temporary files in %s: %v", workspace, rmErr)
		}
	}()

	jobLog.Infof("Fetching %s", j.URL)
	html, err := j.HTML.FetchHTML(ctx, j.URL)
	if err != nil {
		return res, fmt.Errorf("fetching page %s: %w", j.URL, err)
	}

	if j.DetectRelated {
		related, relErr := parser.RelatedChapters(html, j.URL, j.Config.StoryMarker)
		if relErr != nil {
			jobLog.Warnf("Related chapter detection failed for %s: %v", j.URL, relErr)
		}
		res.Related = related
	}

	extractor := &parser.Extractor{
		Crawler: parser.NewCrawler(j.Pages, j.Config.MaxPages, j.Config.PageDelay),
	}
	page, err := extractor.Extract(ctx, j.URL, html)
	if page != nil {
		res.Title = page.Title
	}
	if errors.Is(err, parser.ErrNoImages) {
		return j.empty(res, "no images found on the page"), nil
	}
	if err != nil {
		return res, fmt.Errorf("extracting images from %s: %w", j.URL, err)
	}
	res.Found = len(page.Images)

	urls := make([]string, len(page.Images))
	for i, ref := range page.Images {
		urls[i] = parser.ResolveURL(j.URL, ref)
	}

	pool := &Pool{
		Fetcher:  j.Images,
		Workers:  j.Config.Workers,
		Referer:  j.URL,
		Progress: j.Progress,
	}
	files, err := pool.Download(ctx, urls, filepath.Join(workspace, "images"))
	if errors.Is(err, ErrNoDownloads) {
		return j.empty(res, "no images were successfully downloaded"), nil
	}
	if err != nil {
		return res, fmt.Errorf("downloading images for %s: %w", j.URL, err)
	}
	res.Downloaded = len(files)

	outDir, err := config.ExpandPath(j.Config.OutputDir)
	if err != nil {
		return res, err
	}
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	asm := j.assembler(workspace)
	out := filepath.Join(outDir, page.Title+asm.Ext())
	report, err := asm.Assemble(ctx, page.Title, files, out)
	if report != nil {
		res.Pages = report.Pages
		res.Warnings = report.Warnings
	}
	if errors.Is(err, assemble.ErrNoPages) {
		return j.empty(res, "no valid images to create a document"), nil
	}
	if err != nil {
		return res, fmt.Errorf("assembling %s: %w", out, err)
	}

	res.Status = models.StatusCompleted
	res.Output = out
	return res, nil
}

func (j *Job) assembler(workspace string) assemble.Assembler {
	if j.Config.Format == config.FormatEPUB {
		return assemble.NewEPUBWriter(workspace)
	}
	return assemble.NewPDFWriter(j.Config.DPI, workspace)
}

func (j *Job) empty(res models.JobResult, reason string) models.JobResult {
	jobLog.Warnf("%s: %s", j.URL, reason)
	res.Status = models.StatusEmpty
	res.Reason = reason
	return res
}
