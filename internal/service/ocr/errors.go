package ocr

import (
	"errors"
	"fmt"
)

// ErrPollTimeout is returned when the poll budget is exhausted before the
// backend publishes a result URL. Callers surface it to the user instead of
// retrying.
var ErrPollTimeout = errors.New("ocr: polling attempts exhausted without a result")

// SubmissionError reports a failed or malformed document submission.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("ocr: submission failed (status %d): %s", e.StatusCode, e.Body)
}

// PollingError reports an error status from the job polling endpoint.
type PollingError struct {
	StatusCode int
	Body       string
}

func (e *PollingError) Error() string {
	return fmt.Sprintf("ocr: polling failed (status %d): %s", e.StatusCode, e.Body)
}

// FetchError reports an error status while fetching the final result.
type FetchError struct {
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("ocr: result fetch failed (status %d): %s", e.StatusCode, e.Body)
}
