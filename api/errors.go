package api

import (
	"fmt"

	"github.com/pkg/errors"
)

// CredentialError is a login rejected by the backend. The message is the
// server's and is shown to the user verbatim.
type CredentialError struct {
	StatusCode int
	Message    string
}

func (e *CredentialError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected with status %d", e.StatusCode)
}

// NetworkError is a transport-level failure: the request never produced a
// response. Distinct from CredentialError so the caller can show a
// connectivity message instead of a credentials one.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
