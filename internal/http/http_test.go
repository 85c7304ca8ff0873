package http

import (
	"context"
	nethttp "net/http"
	"net/url"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient() (*Client, *httpmock.MockTransport) {
	mock := httpmock.NewMockTransport()
	c := NewClient(
		Options{
			BaseURL:    "https://hr.example.org/api",
			HTTPClient: &nethttp.Client{Transport: mock},
		},
	)
	return c, mock
}

func TestGet(t *testing.T) {
	c, mock := newMockedClient()
	mock.RegisterResponder(
		"GET", "https://hr.example.org/api/Employee",
		func(req *nethttp.Request) (*nethttp.Response, error) {
			assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
			assert.Equal(t, "2", req.URL.Query().Get("PageIndex"))
			return httpmock.NewJsonResponse(200, map[string]any{"message": "ok"})
		},
	)

	var result struct {
		Message string `json:"message"`
	}
	res, errRes, err := c.Get(context.Background(), "/Employee", "secret", url.Values{"PageIndex": {"2"}}, &result)
	require.NoError(t, err)
	require.Nil(t, errRes)
	assert.Equal(t, 200, res.StatusCode())
	assert.Equal(t, "ok", result.Message)
}

func TestErrorResponse(t *testing.T) {
	c, mock := newMockedClient()
	mock.RegisterResponder(
		"DELETE", "https://hr.example.org/api/Employee/7",
		httpmock.NewStringResponder(
			409, `{"message":"Employee has attendance | الموظف لديه حضور","errors":["first","second"]}`,
		).HeaderSet(nethttp.Header{"Content-Type": {"application/json"}}),
	)

	_, errRes, err := c.Delete(context.Background(), "/Employee/7", "secret", nil)
	require.NoError(t, err)
	require.NotNil(t, errRes)
	assert.Equal(t, 409, errRes.StatusCode)
	assert.Equal(t, []string{"first", "second"}, errRes.Response.Errors)
	assert.EqualError(t, errRes.Err(), "http status 409: Employee has attendance | الموظف لديه حضور")
}

func TestTransportError(t *testing.T) {
	c, _ := newMockedClient()
	_, errRes, err := c.Post(context.Background(), "/Department", "", map[string]string{"name": "IT"}, nil)
	assert.Error(t, err)
	assert.Nil(t, errRes)
}
