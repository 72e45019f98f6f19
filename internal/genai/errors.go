// Package genai defines the gateway error taxonomy surfaced to callers.
package genai

import (
	"fmt"
	"net/http"
)

// ErrorKind categorizes a failed gateway call.
type ErrorKind string

const (
	// KindNetwork indicates a transport-level failure other than a timeout.
	KindNetwork ErrorKind = "network_error"
	// KindRateLimited indicates provider rate limiting (HTTP 429).
	KindRateLimited ErrorKind = "rate_limited"
	// KindTimeout indicates the per-attempt deadline was exceeded.
	KindTimeout ErrorKind = "timeout"
	// KindQuotaExceeded indicates the provider account is out of quota.
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	// KindAuth indicates an invalid or rejected API key (HTTP 401/403).
	KindAuth ErrorKind = "auth_error"
	// KindModelNotFound indicates the configured model does not exist (HTTP 404).
	KindModelNotFound ErrorKind = "model_not_found"
	// KindServer indicates a provider-side server error (HTTP 5xx).
	KindServer ErrorKind = "server_error"
	// KindUnknownProvider covers everything the taxonomy cannot place.
	KindUnknownProvider ErrorKind = "unknown_provider_error"
)

// userMessages maps each kind to a localized, user-safe message. The raw
// provider error text is attached only in debug mode.
var userMessages = map[ErrorKind]string{
	KindNetwork:         "De assistent is momenteel niet bereikbaar. Probeer het zo weer.",
	KindRateLimited:     "Het is even druk bij de assistent. Probeer het over een minuut opnieuw.",
	KindTimeout:         "De assistent deed er te lang over om te antwoorden. Probeer het nog eens.",
	KindQuotaExceeded:   "De assistent is tijdelijk niet beschikbaar. Probeer het later opnieuw.",
	KindAuth:            "De assistent is niet juist geconfigureerd. Neem contact op met de winkel.",
	KindModelNotFound:   "De assistent is niet juist geconfigureerd. Neem contact op met de winkel.",
	KindServer:          "De assistent heeft een storing. Probeer het later opnieuw.",
	KindUnknownProvider: "Er ging iets mis bij de assistent. Probeer het later opnieuw.",
}

// GatewayError is the typed failure of one gateway call.
type GatewayError struct {
	Kind ErrorKind
	// Message is localized and safe to show to the shopper.
	Message string
	// HTTPStatus is the provider status code when one was received.
	HTTPStatus int
	// ProviderDetail carries the raw provider error text; populated only
	// when debug mode is enabled.
	ProviderDetail string
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (http %d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// newGatewayError builds a GatewayError with the localized message for kind.
func newGatewayError(kind ErrorKind, httpStatus int, providerDetail string, debug bool) *GatewayError {
	ge := &GatewayError{
		Kind:       kind,
		Message:    userMessages[kind],
		HTTPStatus: httpStatus,
	}
	if debug {
		ge.ProviderDetail = providerDetail
	}
	return ge
}

// kindForStatus maps a provider HTTP status to an error kind.
func kindForStatus(status int, providerCode string) ErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		if providerCode == "insufficient_quota" {
			return KindQuotaExceeded
		}
		return KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound:
		return KindModelNotFound
	}
	if status >= 500 {
		return KindServer
	}
	return KindUnknownProvider
}

// retryableStatus reports whether a provider status is worth retrying.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
