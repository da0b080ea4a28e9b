package ingestion

import (
	"errors"
	"fmt"
)

// ErrInvalidReference marks a URL that does not reference a YouTube video.
var ErrInvalidReference = errors.New("could not extract video id from url")

type StepErrorCode string

const (
	StepErrorDownloadFailed      StepErrorCode = "download_failed"
	StepErrorTranscriptionFailed StepErrorCode = "transcription_failed"
	StepErrorEmbeddingFailed     StepErrorCode = "embedding_failed"
	StepErrorStorageFailed       StepErrorCode = "storage_failed"
)

// StepError reports which pipeline stage failed so handlers can surface a
// stable machine-readable code.
type StepError struct {
	Code  StepErrorCode
	Cause error
}

func (e *StepError) Error() string {
	if e == nil {
		return "ingestion step failed"
	}
	if e.Cause == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Cause)
}

func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func stepErr(code StepErrorCode, cause error) *StepError {
	return &StepError{Code: code, Cause: cause}
}
