package downloader

import (
	"context"
	"fmt"
	"io"

	"pagepdf/config"
	"pagepdf/logger"
	"pagepdf/models"
	"pagepdf/parser"
)

var queueLog = logger.New("Queue")

// Manager runs chapter jobs one after another, following related chapters
// when the configuration asks for it.
type Manager struct {
	cfg    config.Config
	client *HTTPClient
	pages  parser.PageFetcher

	// Progress receives per-job download progress bars.
	Progress io.Writer
	// OnProgress, when set, is told about every finished job.
	OnProgress ProgressCallback
}

// NewManager builds the shared HTTP client (cookies loaded) and page
// fetcher for cfg.
func NewManager(cfg config.Config) (*Manager, error) {
	client, err := NewHTTPClientFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	pages, err := NewPageFetcher(cfg.Fetcher, client)
	if err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, client: client, pages: pages}, nil
}

// Run downloads every URL in order. A job that fails is recorded and the
// run moves on; only a canceled context stops it early.
func (m *Manager) Run(ctx context.Context, urls []string) models.BulkSummary {
	queue := NewQueue()
	for _, u := range urls {
		queue.Add(Task{URL: u})
	}

	var summary models.BulkSummary
	for {
		if ctx.Err() != nil {
			queueLog.Warnf("Stopping: %v (%d jobs left)", ctx.Err(), queue.Len())
			break
		}
		task, ok := queue.Next()
		if !ok {
			break
		}

		total := summary.Total() + queue.Len() + 1
		label := task.URL
		if task.Name != "" {
			label = fmt.Sprintf("%s (%s)", task.Name, task.URL)
		}
		queueLog.Infof("[%d/%d] Processing: %s", summary.Total()+1, total, label)

		res := m.RunOne(ctx, task)
		summary.Add(res)

		added := 0
		for _, rel := range res.Related {
			if queue.Add(Task{URL: rel.URL, Name: rel.Name, Related: true}) {
				added++
			}
		}
		if added > 0 {
			queueLog.Infof("Queued %d related chapters/parts", added)
		}

		if m.OnProgress != nil {
			m.OnProgress(fmt.Sprintf("%s: %s", res.Status, label), summary.Total(), summary.Total()+queue.Len())
		}
	}

	queueLog.Infof("Done: %d completed, %d empty, %d failed", summary.Completed, summary.Empty, summary.Failed)
	return summary
}

// RunOne runs a single task and folds a returned error into the result.
func (m *Manager) RunOne(ctx context.Context, task Task) models.JobResult {
	job := NewJob(task.URL, m.cfg, m.client, m.pages)
	job.DetectRelated = m.cfg.Related && !task.Related
	job.Progress = m.Progress

	res, err := job.Run(ctx)
	if err != nil {
		queueLog.Errorf("Failed to download %s: %v", task.URL, err)
	}
	return res
}
