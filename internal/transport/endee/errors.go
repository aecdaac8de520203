package endee

import (
	"fmt"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

// maxErrorBody bounds the response body kept on a StatusError.
const maxErrorBody = 1024

// TransportError is a failure short of a valid HTTP response: refused connection, DNS, timeout.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("endee %s: %s: %v", e.Op, domain.ErrBackendUnavailable, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{domain.ErrBackendUnavailable, e.Err} }

// StatusError is a valid HTTP response with a non-success status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endee %s: %s: status %d: %s", e.Op, domain.ErrBackend, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrBackend }

func truncate(b []byte) string {
	if len(b) <= maxErrorBody {
		return string(b)
	}
	return string(b[:maxErrorBody]) + "...(truncated)"
}
