package llm

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when neither a request-scoped API key nor
// a process-level default is available. No network attempt is made.
var ErrMissingCredential = errors.New("no API key available: add one in settings or set a default key")

// EmptyResponseError indicates a model call succeeded but returned no usable
// text. It triggers fallback to the next candidate and is not surfaced to
// callers directly.
type EmptyResponseError struct {
	Model string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("model %s returned an empty response", e.Model)
}

// AllModelsFailedError is returned when every candidate model failed or
// returned empty text. Last holds the final recorded error for diagnostics.
type AllModelsFailedError struct {
	Attempts int
	Last     error
}

func (e *AllModelsFailedError) Error() string {
	return fmt.Sprintf("all %d candidate models failed, last error: %s", e.Attempts, errMessage(e.Last))
}

func (e *AllModelsFailedError) Unwrap() error { return e.Last }

// errMessage renders an error for embedding in a user-facing message.
func errMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
