package http

import (
	"context"
	nethttp "net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/hrdesk/viewsync/apimodel"
	"github.com/hrdesk/viewsync/internal"
)

// Options configure a Client
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient replaces the underlying http client, e.g. to inject a mock
	// transport.
	HTTPClient *nethttp.Client
}

// Client performs requests against the backend
type Client struct {
	r *resty.Client
}

// NewClient creates a new Client
func NewClient(opts Options) *Client {
	var r *resty.Client
	if opts.HTTPClient != nil {
		r = resty.NewWithClient(opts.HTTPClient)
	} else {
		r = resty.New()
	}
	r.SetLogger(internal.Logger())
	r.SetHeader("Accept", "application/json")
	if opts.BaseURL != "" {
		r.SetBaseURL(opts.BaseURL)
	}
	if opts.Timeout > 0 {
		r.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		r.SetHeader("User-Agent", opts.UserAgent)
	}
	return &Client{r: r}
}

// HttpError is a non-2xx response of the backend
type HttpError struct {
	StatusCode int
	Response   apimodel.ErrorResponse
}

// Err returns an error describing the HttpError
func (e HttpError) Err() error {
	if e.Response.Message != "" {
		return errors.Errorf("http status %d: %s", e.StatusCode, e.Response.Message)
	}
	return errors.Errorf("http status %d", e.StatusCode)
}

// Do performs a request. A transport failure is returned as error; a
// response with a non-2xx status as *HttpError with the decoded error body.
// On success the body is decoded into result, if set.
func (c *Client) Do(
	ctx context.Context, method, path, token string, params url.Values, body, result any,
) (*resty.Response, *HttpError, error) {
	req := c.r.R().
		SetContext(ctx).
		SetError(&apimodel.ErrorResponse{})
	if token != "" {
		req.SetAuthToken(token)
	}
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	res, err := req.Execute(method, path)
	if err != nil {
		return res, nil, errors.Wrapf(err, "%s %s", method, path)
	}
	if res.IsError() {
		errRes := &HttpError{StatusCode: res.StatusCode()}
		if e, ok := res.Error().(*apimodel.ErrorResponse); ok && e != nil {
			errRes.Response = *e
		}
		internal.WithField(internal.FieldStatus, res.StatusCode()).Debugf("http: %s %s failed", method, path)
		return res, errRes, nil
	}
	return res, nil, nil
}

// Get performs a GET request
func (c *Client) Get(
	ctx context.Context, path, token string, params url.Values, result any,
) (*resty.Response, *HttpError, error) {
	return c.Do(ctx, resty.MethodGet, path, token, params, nil, result)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(
	ctx context.Context, path, token string, body, result any,
) (*resty.Response, *HttpError, error) {
	return c.Do(ctx, resty.MethodPost, path, token, nil, body, result)
}

// Put performs a PUT request with a JSON body
func (c *Client) Put(
	ctx context.Context, path, token string, body, result any,
) (*resty.Response, *HttpError, error) {
	return c.Do(ctx, resty.MethodPut, path, token, nil, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(
	ctx context.Context, path, token string, result any,
) (*resty.Response, *HttpError, error) {
	return c.Do(ctx, resty.MethodDelete, path, token, nil, nil, result)
}
