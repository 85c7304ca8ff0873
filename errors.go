package viewsync

import (
	"fmt"
	nethttp "net/http"

	"github.com/pkg/errors"

	"github.com/hrdesk/viewsync/internal/http"
)

// ErrorKind classifies an APIError
type ErrorKind int

// Error kinds
const (
	// KindTransport means no response was received
	KindTransport ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServer
	KindClient
)

// String implements the fmt.Stringer interface
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "client"
	}
}

var (
	// ErrNotFound matches (via errors.Is) every APIError with status 404
	ErrNotFound = errors.New("not found")
	// ErrUnknownSearchKey is returned when a search key is not offered by the
	// resource's metadata
	ErrUnknownSearchKey = errors.New("unknown search key")
	// ErrNoPrincipal is returned for operations requiring a credential when
	// the session has none
	ErrNoPrincipal = errors.New("not authenticated")
)

// APIError is a failed backend operation. Status is 0 if no response was
// received; the transport error is then available through errors.Unwrap.
type APIError struct {
	Status  int
	Message string
	Errors  []string
	Fields  map[string][]string
	cause   error
}

func newAPIError(errRes *http.HttpError) *APIError {
	return &APIError{
		Status:  errRes.StatusCode,
		Message: errRes.Response.Message,
		Errors:  errRes.Response.Errors,
		Fields:  errRes.Response.Fields,
		cause:   errRes.Err(),
	}
}

func transportError(err error) *APIError {
	return &APIError{cause: err}
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Status == 0 {
		if e.cause != nil {
			return fmt.Sprintf("request failed: %s", e.cause)
		}
		return "request failed"
	}
	msg := e.Message
	if msg == "" && len(e.Errors) > 0 {
		msg = e.Errors[0]
	}
	if msg == "" {
		msg = nethttp.StatusText(e.Status)
	}
	return fmt.Sprintf("%d: %s", e.Status, msg)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.cause
}

// Is makes errors.Is(err, ErrNotFound) hold for 404 responses
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == nethttp.StatusNotFound
}

// Kind classifies the error
func (e *APIError) Kind() ErrorKind {
	switch {
	case e.Status == 0:
		return KindTransport
	case e.Status == nethttp.StatusUnauthorized:
		return KindUnauthorized
	case e.Status == nethttp.StatusForbidden:
		return KindForbidden
	case e.Status == nethttp.StatusNotFound:
		return KindNotFound
	case e.Status == nethttp.StatusBadRequest || e.Status == nethttp.StatusUnprocessableEntity || len(e.Fields) > 0:
		return KindValidation
	case e.Status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// IsAuth reports whether the error is an authorization failure
func (e *APIError) IsAuth() bool {
	k := e.Kind()
	return k == KindUnauthorized || k == KindForbidden
}

// AsAPIError returns err as *APIError. Errors of other types are reported as
// transport failures.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return transportError(err)
}
