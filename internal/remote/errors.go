package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
)

var (
	// ErrSessionExpired reports that the casino API rejected the bearer token.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidResponse reports a body that does not follow the API envelope.
	ErrInvalidResponse = errors.New("invalid api response")
	// ErrInvalidConfig reports an unusable client configuration.
	ErrInvalidConfig = errors.New("invalid remote config")
	// ErrInvalidPlayerID reports a player id the API cannot address.
	ErrInvalidPlayerID = errors.New("invalid remote player id")
)

// APIError is a non-2xx answer from the casino API.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error returns the status and detail.
func (apiError *APIError) Error() string {
	if apiError.Detail == "" {
		return fmt.Sprintf("casino api: status %d", apiError.StatusCode)
	}
	return fmt.Sprintf("casino api: status %d: %s", apiError.StatusCode, apiError.Detail)
}

// Is lets errors.Is match ErrSessionExpired on 401 answers and
// wager.ErrTransactionRejected on any 4xx answer except a request timeout.
// A 2xx envelope with success false or a 5xx answer matches neither, since
// the API may have applied the request.
func (apiError *APIError) Is(target error) bool {
	switch target {
	case ErrSessionExpired:
		return apiError.StatusCode == http.StatusUnauthorized
	case wager.ErrTransactionRejected:
		return apiError.Rejected()
	default:
		return false
	}
}

// Rejected reports whether the API refused the request without applying it.
func (apiError *APIError) Rejected() bool {
	return apiError.StatusCode >= http.StatusBadRequest &&
		apiError.StatusCode < http.StatusInternalServerError &&
		apiError.StatusCode != http.StatusRequestTimeout
}
