package assistant

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage           = errors.New("message content is empty")
	ErrRoleOrder              = errors.New("turn role out of order")
	ErrGeneratorNotConfigured = errors.New("generator is not configured")
)

// ExtractionError reports an upload that could not be turned into text.
// The previously stored document is left untouched.
type ExtractionError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %q failed: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %q failed: %s", e.Name, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// GenerationError wraps any failure of the external generation call.
// It never leaves the policy; callers only see it for logging.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
