package viewsync

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestAPIError_Kind(t *testing.T) {
	tests := []struct {
		err  *APIError
		kind ErrorKind
		auth bool
	}{
		{err: &APIError{}, kind: KindTransport},
		{err: &APIError{Status: 400}, kind: KindValidation},
		{err: &APIError{Status: 409, Fields: map[string][]string{"name": {"taken"}}}, kind: KindValidation},
		{err: &APIError{Status: 401}, kind: KindUnauthorized, auth: true},
		{err: &APIError{Status: 403}, kind: KindForbidden, auth: true},
		{err: &APIError{Status: 404}, kind: KindNotFound},
		{err: &APIError{Status: 409}, kind: KindClient},
		{err: &APIError{Status: 503}, kind: KindServer},
	}
	for _, test := range tests {
		t.Run(
			test.kind.String(), func(t *testing.T) {
				assert.Equal(t, test.kind, test.err.Kind())
				assert.Equal(t, test.auth, test.err.IsAuth())
			},
		)
	}
}

func TestAPIError_Error(t *testing.T) {
	assert.EqualError(t, &APIError{Status: 409, Errors: []string{"Duplicate"}}, "409: Duplicate")
	assert.EqualError(t, &APIError{Status: 500}, "500: Internal Server Error")
	assert.EqualError(t, transportError(errors.New("timeout")), "request failed: timeout")

	wrapped := errors.Wrap(&APIError{Status: 404}, "loading employee")
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, &APIError{Status: 410}, ErrNotFound)
}

func TestAsAPIError(t *testing.T) {
	assert.Nil(t, AsAPIError(nil))

	plain := errors.New("boom")
	apiErr := AsAPIError(plain)
	assert.Equal(t, KindTransport, apiErr.Kind())
	assert.ErrorIs(t, apiErr, plain)

	orig := &APIError{Status: 422}
	assert.Same(t, orig, AsAPIError(errors.WithStack(orig)))
}

func TestClient_ReportFailure(t *testing.T) {
	env := newTestEnv(t, 0, nil)
	c := env.client

	assert.Equal(t, 0, c.reportFailure(nil, nil))
	assert.Equal(t, 2, c.reportFailure(&APIError{Status: 409, Errors: []string{"first", "second | الثاني"}}, nil))
	assert.Equal(t, 1, c.reportFailure(&APIError{Status: 409, Message: "Conflict"}, nil))
	assert.Equal(t, 1, c.reportFailure(errors.New("dial tcp: refused"), nil))
	assert.Equal(
		t, []toast{
			{Kind: NotifyError, Message: "first"},
			{Kind: NotifyError, Message: "second"},
			{Kind: NotifyError, Message: "Conflict"},
			{Kind: NotifyError, Message: "Something went wrong, please try again"},
		}, env.toasts.all(),
	)

	assert.Equal(t, 1, c.reportFailure(&APIError{Status: 401}, nil))
	assert.Equal(
		t, toast{Kind: NotifyError, Message: "Your session has expired, please sign in again"},
		env.toasts.all()[4],
	)

	var auth *APIError
	c.Session().OnAuthFailure(func(err *APIError) { auth = err })
	assert.Equal(t, 0, c.reportFailure(&APIError{Status: 403}, nil))
	assert.Equal(t, 403, auth.Status)
	assert.Len(t, env.toasts.all(), 5)
}
