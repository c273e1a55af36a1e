package models

import "time"

// RelatedChapter is another part of the same story, taken from the page's
// chapter selector.
type RelatedChapter struct {
	URL  string `json:"url"`  // Redirect target of the option
	Name string `json:"name"` // Option text as shown on the site
}

// JobStatus is the outcome of one chapter job.
type JobStatus string

const (
	StatusCompleted JobStatus = "completed" // output file written
	StatusEmpty     JobStatus = "empty"     // nothing to put in a document; not a failure
	StatusFailed    JobStatus = "failed"    // main page could not be fetched or output not written
)

// JobResult summarizes one chapter job for the CLI and the bulk summary.
type JobResult struct {
	ID         string           `json:"id"`
	URL        string           `json:"url"`
	Title      string           `json:"title"`
	Status     JobStatus        `json:"status"`
	Reason     string           `json:"reason,omitempty"` // why a job is empty or failed
	Found      int              `json:"found"`            // image references extracted
	Downloaded int              `json:"downloaded"`       // images saved to the workspace
	Pages      int              `json:"pages"`            // pages in the output document
	Warnings   []string         `json:"warnings,omitempty"`
	Output     string           `json:"output,omitempty"`
	Related    []RelatedChapter `json:"related,omitempty"`
	Duration   time.Duration    `json:"duration"`
}

// BulkSummary counts job outcomes of a bulk run.
type BulkSummary struct {
	Results   []JobResult `json:"results"`
	Completed int         `json:"completed"`
	Empty     int         `json:"empty"`
	Failed    int         `json:"failed"`
}

// Add records r and updates the counters.
func (s *BulkSummary) Add(r JobResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case StatusCompleted:
		s.Completed++
	case StatusEmpty:
		s.Empty++
	default:
		s.Failed++
	}
}

// Total is the number of jobs recorded.
func (s *BulkSummary) Total() int { return len(s.Results) }
