package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagepdf/config"
	"pagepdf/models"
)

func TestJobFlags_OnlyChangedFlagsOverride(t *testing.T) {
	var f jobFlags
	c := &cobra.Command{Use: "x"}
	f.register(c)
	require.NoError(t, c.ParseFlags([]string{"--format", "EPUB", "--workers", "3"}))

	base := config.Defaults()
	base.OutputDir = "/srv/out"
	got, err := f.apply(c, base)
	require.NoError(t, err)

	assert.Equal(t, config.FormatEPUB, got.Format)
	assert.Equal(t, 3, got.Workers)
	assert.Equal(t, "/srv/out", got.OutputDir)
	assert.False(t, got.Related)
}

func TestJobFlags_InvalidValue(t *testing.T) {
	var f jobFlags
	c := &cobra.Command{Use: "x"}
	f.register(c)
	require.NoError(t, c.ParseFlags([]string{"--workers", "0"}))

	_, err := f.apply(c, config.Defaults())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRenderSummary(t *testing.T) {
	var s models.BulkSummary
	s.Add(models.JobResult{URL: "https://a.test/1/", Title: "First", Status: models.StatusCompleted, Pages: 12, Output: "First.pdf"})
	s.Add(models.JobResult{URL: "https://a.test/2/", Status: models.StatusEmpty, Reason: "no images found on the page"})
	s.Add(models.JobResult{URL: "https://a.test/3/", Status: models.StatusFailed, Reason: "unexpected status code: 404"})

	out := renderSummary(s)
	assert.Contains(t, out, "First.pdf")
	assert.Contains(t, out, "https://a.test/2/")
	assert.Contains(t, out, "unexpected status code: 404")
	assert.Contains(t, out, "1 completed")
	assert.Contains(t, out, "1 failed")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
}
