package ebay

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned when the local hourly quota is exhausted.
// Callers should back off; the call never queued or reached upstream.
var ErrRateLimited = errors.New("ebay: hourly rate limit exceeded")

// UpstreamError reports a non-success acknowledgment or malformed
// payload from the Finding API. It is terminal for the affected leg.
type UpstreamError struct {
	Operation string
	Message   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ebay: %s: %s", e.Operation, e.Message)
}

// IsUpstream reports whether err is an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
