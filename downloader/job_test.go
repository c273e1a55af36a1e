package downloader

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagepdf/config"
	"pagepdf/models"
)

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(20, 30, c), imaging.PNG))
	return buf.Bytes()
}

const chapterPage = `<html><head><title>%s</title></head><body>
<select class="single-chapter-select">
  <option data-redirect="%[2]s/porncomic/story-a/part-1/">Part 1</option>
  <option data-redirect="%[2]s/porncomic/story-a/part-2/">Part 2</option>
  <option data-redirect="%[2]s/porncomic/story-b/part-1/">Other story</option>
</select>
<div class="gallery">
  <img src="/img/02.png"><img src="/img/01.png">
  <img src="/img/03.png"><img src="/img/gone.png">
</div>
</body></html>`

// newSite serves two chapters of one story, a page without images, and
// images of which one is corrupt and one missing.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	red := pngBytes(t, color.NRGBA{R: 255, A: 255})
	blue := pngBytes(t, color.NRGBA{B: 255, A: 255})

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/porncomic/story-a/part-1/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, chapterPage, "Story A Part 1", srv.URL)
	})
	mux.HandleFunc("/porncomic/story-a/part-2/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, chapterPage, "Story A Part 2", srv.URL)
	})
	mux.HandleFunc("/empty/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>Nothing</title></head><body><p>text only</p></body></html>"))
	})
	mux.HandleFunc("/img/01.png", func(w http.ResponseWriter, r *http.Request) { w.Write(red) })
	mux.HandleFunc("/img/02.png", func(w http.ResponseWriter, r *http.Request) { w.Write(blue) })
	mux.HandleFunc("/img/03.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not an image"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.OutputDir = t.TempDir()
	cfg.TempDir = t.TempDir()
	cfg.Fetcher = config.FetcherHTTP
	cfg.PageDelay = 0
	cfg.Timeout = 5 * time.Second
	return cfg
}

func newTestJob(t *testing.T, pageURL string, cfg config.Config) *Job {
	t.Helper()
	client, err := NewHTTPClientFromConfig(cfg)
	require.NoError(t, err)
	return NewJob(pageURL, cfg, client, client)
}

func assertWorkspaceRemoved(t *testing.T, cfg config.Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJob_CreatesPDF(t *testing.T) {
	srv := newSite(t)
	cfg := testConfig(t)
	cfg.Related = true

	job := newTestJob(t, srv.URL+"/porncomic/story-a/part-1/", cfg)
	res, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, res.Status)
	assert.Equal(t, "Story A Part 1", res.Title)
	assert.Equal(t, 4, res.Found)
	assert.Equal(t, 3, res.Downloaded)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Warnings, 1)
	assert.NotEmpty(t, res.ID)

	assert.Equal(t, filepath.Join(cfg.OutputDir, "Story A Part 1.pdf"), res.Output)
	n, err := api.PageCountFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, res.Related, 2)
	assert.Equal(t, "Part 2", res.Related[1].Name)

	assertWorkspaceRemoved(t, cfg)
}

func TestJob_EPUB(t *testing.T) {
	srv := newSite(t)
	cfg := testConfig(t)
	cfg.Format = config.FormatEPUB

	res, err := newTestJob(t, srv.URL+"/porncomic/story-a/part-2/", cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, res.Status)
	assert.Equal(t, ".epub", filepath.Ext(res.Output))
	assert.FileExists(t, res.Output)
	assert.Empty(t, res.Related)
}

func TestJob_NoImagesIsEmpty(t *testing.T) {
	srv := newSite(t)
	cfg := testConfig(t)

	res, err := newTestJob(t, srv.URL+"/empty/", cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusEmpty, res.Status)
	assert.Equal(t, "Nothing", res.Title)
	assert.Empty(t, res.Output)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assertWorkspaceRemoved(t, cfg)
}

func TestJob_MainPageFailure(t *testing.T) {
	srv := newSite(t)
	cfg := testConfig(t)

	res, err := newTestJob(t, srv.URL+"/missing/", cfg).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Contains(t, res.Reason, "404")
	assertWorkspaceRemoved(t, cfg)
}

func TestManager_FollowsRelatedChapters(t *testing.T) {
	srv := newSite(t)
	cfg := testConfig(t)
	cfg.Related = true

	m, err := NewManager(cfg)
	require.NoError(t, err)

	var calls int
	m.OnProgress = func(string, int, int) { calls++ }

	summary := m.Run(context.Background(), []string{
		srv.URL + "/porncomic/story-a/part-1/",
		srv.URL + "/empty/",
		srv.URL + "/missing/",
	})

	assert.Equal(t, 4, summary.Total())
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 1, summary.Empty)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 4, calls)

	// related chapter runs after the URLs given up front
	assert.Equal(t, srv.URL+"/porncomic/story-a/part-2/", summary.Results[3].URL)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "Story A Part 2.pdf"))
}

func TestManager_StopsWhenCanceled(t *testing.T) {
	srv := newSite(t)
	m, err := NewManager(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := m.Run(ctx, []string{srv.URL + "/empty/"})
	assert.Zero(t, summary.Total())
}
