package apimodel

import (
	"encoding/json"
	"maps"
	"net/url"
	"slices"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

// ListParams are the paging parameters of a backend list request
type ListParams struct {
	PageIndex int `json:"PageIndex" url:"PageIndex"`
	PageSize  int `json:"PageSize" url:"PageSize"`
}

// ListQuery translates a FilterState into the backend's list query: paging
// parameters, the search as {searchKey: searchQuery} when both are set, and
// all resource filters.
func ListQuery(f FilterState) (url.Values, error) {
	page := f.Page
	if page < 1 {
		page = DefaultPage
	}
	v, err := query.Values(
		ListParams{
			PageIndex: page,
			PageSize:  f.PageSize,
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode list parameters")
	}
	for name, value := range f.Filters {
		if value != "" {
			v.Set(name, value)
		}
	}
	if f.SearchKey != "" && f.SearchQuery != "" {
		v.Set(f.SearchKey, f.SearchQuery)
	}
	return v, nil
}

// Pagination describes the position of a page within a list
type Pagination struct {
	PageIndex    int `json:"pageIndex" msgpack:"pageIndex"`
	TotalPages   int `json:"totalPages" msgpack:"totalPages"`
	TotalRecords int `json:"totalRecords" msgpack:"totalRecords"`
}

// Metadata accompanies every list response
type Metadata struct {
	SearchBy   []string   `json:"searchBy" msgpack:"searchBy"`
	Pagination Pagination `json:"pagination" msgpack:"pagination"`
}

// LastPage returns the highest navigable page, at least 1.
func (m Metadata) LastPage() int {
	return max(1, m.Pagination.TotalPages)
}

// Envelope is the body of a backend response
type Envelope[D any] struct {
	Message string `json:"message,omitempty"`
	Data    D      `json:"data"`
}

// ErrorResponse is the body of a failed backend response. Errors is either
// sent as a list of messages or, for validation failures, as an object
// mapping field names to messages; the latter fills Fields and, flattened in
// field order, Errors.
type ErrorResponse struct {
	Message string
	Errors  []string
	Fields  map[string][]string
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (e *ErrorResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message string          `json:"message"`
		Title   string          `json:"title"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.WithStack(err)
	}
	e.Message = raw.Message
	if e.Message == "" {
		e.Message = raw.Title
	}
	e.Errors = nil
	e.Fields = nil
	if len(raw.Errors) == 0 || string(raw.Errors) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw.Errors, &list); err == nil {
		e.Errors = list
		return nil
	}
	var fields map[string][]string
	if err := json.Unmarshal(raw.Errors, &fields); err != nil {
		return errors.Wrap(err, "unsupported errors member")
	}
	e.Fields = fields
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		e.Errors = append(e.Errors, fields[name]...)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (e ErrorResponse) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"message": e.Message,
	}
	switch {
	case len(e.Fields) > 0:
		out["errors"] = e.Fields
	case len(e.Errors) > 0:
		out["errors"] = e.Errors
	}
	return json.Marshal(out)
}
