package downloader

import "context"

// HTMLFetcher fetches the main page of a job.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

// ImageFetcher fetches the raw bytes of one image.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL, referer string) ([]byte, error)
}

// ProgressCallback is called as a bulk run advances.
// Parameters: status message, finished jobs, total jobs known so far
type ProgressCallback func(string, int, int)
