package ai

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is matched by every CredentialError.
var ErrMissingCredential = errors.New("missing generation service credential")

// CredentialError reports that the configured provider has no API key. It
// fails the request, never the process.
type CredentialError struct {
	Provider string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("Missing %s API key", e.Provider)
}

func (e *CredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// UpstreamError is a non-success response from the generation service.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Generation service error: %d", e.Status)
}

// UpstreamStatus extracts the upstream HTTP status from err, if any.
func UpstreamStatus(err error) (int, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status, true
	}
	return 0, false
}
