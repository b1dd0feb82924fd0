package piston

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnsupportedLanguage is matched by every UnsupportedLanguageError
var ErrUnsupportedLanguage = errors.New("unsupported language")

// UnsupportedLanguageError is returned before any network call when a
// language has no runtime mapping.
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("Unsupported language: %s. Supported languages: %s",
		e.Language, strings.Join(LanguageNames(), ", "))
}

func (e *UnsupportedLanguageError) Is(target error) bool {
	return target == ErrUnsupportedLanguage
}

// TransportError is a failed HTTP exchange with the execution service.
// StatusCode is zero when no response was received.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d - %s", e.StatusCode, e.Body)
	}
	if e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth another attempt
func (e *TransportError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
