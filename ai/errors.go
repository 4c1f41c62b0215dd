package ai

import (
	"context"
	"errors"
	"strings"
)

// Provider error classes.
var (
	// ErrAuth indicates the provider rejected the credentials. Fatal.
	ErrAuth = errors.New("provider authentication failed")

	// ErrInvalidRequest indicates the request itself was malformed. Fatal.
	ErrInvalidRequest = errors.New("provider rejected the request")

	// ErrRateLimited indicates the provider throttled the call. Transient.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUnavailable indicates the provider is temporarily down. Transient.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrTimeout indicates the call exceeded the configured timeout. Transient.
	ErrTimeout = errors.New("provider call timed out")

	// ErrInvalidOutput indicates the response was not well-formed source.
	// Not retried: regenerating rarely fixes structural malformation.
	ErrInvalidOutput = errors.New("provider returned malformed output")

	// ErrUnknownProvider indicates the registry has no such provider.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Classify maps a raw provider/transport error onto one of the error
// classes. Unrecognized errors are treated as invalid requests so they
// are surfaced rather than retried forever.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	// Already classified.
	for _, class := range []error{ErrAuth, ErrInvalidRequest, ErrRateLimited,
		ErrUnavailable, ErrTimeout, ErrInvalidOutput} {
		if errors.Is(err, class) {
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "authentication"):
		return errors.Join(ErrAuth, err)
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "quota"):
		return errors.Join(ErrRateLimited, err)
	case strings.Contains(msg, "503"),
		strings.Contains(msg, "502"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "overloaded"):
		return errors.Join(ErrUnavailable, err)
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return errors.Join(ErrTimeout, err)
	default:
		return errors.Join(ErrInvalidRequest, err)
	}
}

// IsTransient reports whether the error class is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout)
}
