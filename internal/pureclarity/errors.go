package pureclarity

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials indicates the access key / secret key pair was rejected
var ErrInvalidCredentials = errors.New("invalid PureClarity access key or secret key")

// ErrRateLimited indicates the API rate limit was exceeded
var ErrRateLimited = errors.New("PureClarity API rate limit exceeded")

// ServerError represents a 5xx error from the PureClarity API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("PureClarity server error: HTTP %d", e.StatusCode)
}
