package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"pagepdf/logger"
)

var poolLog = logger.New("Downloader")

// DefaultWorkers is the number of images fetched at once.
const DefaultWorkers = 8

// ErrNoDownloads means every image of a job failed to download.
var ErrNoDownloads = errors.New("no images were downloaded")

// Pool downloads a list of images concurrently into a directory.
type Pool struct {
	Fetcher ImageFetcher
	Workers int
	// Referer is sent with every image request.
	Referer string
	// Progress receives the progress bar; nil disables it.
	Progress io.Writer
}

// Download fetches every URL and writes it to dir as NNN.ext, NNN being
// the 1-based position in urls. The returned paths keep the order of urls;
// failed items are logged and left out. ErrNoDownloads is returned when
// nothing succeeded.
func (p *Pool) Download(ctx context.Context, urls []string, dir string) ([]string, error) {
	if len(urls) == 0 {
		return nil, ErrNoDownloads
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	total := len(urls)
	bar := p.newBar(total)

	var (
		mu        sync.Mutex
		slots     = make([]string, total)
		succeeded int
		failed    int
	)

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, imageURL := range urls {
		if ctx.Err() != nil {
			break
		}
		i, imageURL := i, imageURL
		g.Go(func() error {
			target := filepath.Join(dir, fmt.Sprintf("%03d%s", i+1, extFromURL(imageURL)))
			err := p.fetchTo(ctx, imageURL, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				poolLog.Warnf("[%d/%d] Failed: %s - %v", i+1, total, imageURL, err)
			} else {
				slots[i] = target
				succeeded++
				poolLog.Debugf("[%d/%d] Downloaded: %s", i+1, total, path.Base(imageURL))
			}
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	files := make([]string, 0, succeeded)
	for _, s := range slots {
		if s != "" {
			files = append(files, s)
		}
	}

	poolLog.Infof("Successfully downloaded %d/%d images", len(files), total)
	if err := ctx.Err(); err != nil {
		return files, err
	}
	if len(files) == 0 {
		return nil, ErrNoDownloads
	}
	return files, nil
}

func (p *Pool) fetchTo(ctx context.Context, imageURL, target string) error {
	data, err := p.Fetcher.FetchImage(ctx, imageURL, p.Referer)
	if err != nil {
		return err
	}
	return os.WriteFile(target, data, 0644)
}

func (p *Pool) newBar(total int) *progressbar.ProgressBar {
	if p.Progress == nil {
		return nil
	}
	w := p.Progress
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Downloading images"),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// extFromURL returns the extension of the URL path, ".jpg" when it has none.
func extFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" || len(ext) > 5 {
		return ".jpg"
	}
	return ext
}
