package cf

import (
	"errors"
	"fmt"
	"strings"
)

// ChallengeError is returned when a page answers with an anti-bot challenge
// instead of content. Nothing tries to solve it.
type ChallengeError struct {
	URL        string
	StatusCode int
	Indicators []string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("anti-bot challenge: status=%d url=%s indicators=[%s]",
		e.StatusCode, e.URL, strings.Join(e.Indicators, ", "))
}

// NewChallengeError builds the error for url from a detection result.
func NewChallengeError(url string, info *ChallengeInfo) *ChallengeError {
	e := &ChallengeError{URL: url}
	if info != nil {
		e.StatusCode = info.StatusCode
		e.Indicators = info.Indicators
	}
	return e
}

// IsChallenge reports whether err wraps a ChallengeError.
func IsChallenge(err error) (*ChallengeError, bool) {
	var cfErr *ChallengeError
	if errors.As(err, &cfErr) {
		return cfErr, true
	}
	return nil, false
}
