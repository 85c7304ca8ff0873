package apimodel

import (
	"maps"
	"net/url"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

// Defaults of a FilterState
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Query parameter names of the FilterState fields
const (
	ParamPage        = "page"
	ParamPageSize    = "pageSize"
	ParamSearchKey   = "searchKey"
	ParamSearchQuery = "searchQuery"
)

// FilterState is the complete parameter set of a list view. It can be
// reconstructed from the query string alone; every query parameter that is
// not one of the named fields is a resource specific filter.
type FilterState struct {
	Page        int               `json:"page" yaml:"page" url:"page" validate:"gte=1"`
	PageSize    int               `json:"pageSize" yaml:"page_size" url:"pageSize" validate:"gt=0"`
	SearchKey   string            `json:"searchKey,omitempty" yaml:"search_key,omitempty" url:"searchKey,omitempty"`
	SearchQuery string            `json:"searchQuery,omitempty" yaml:"search_query,omitempty" url:"searchQuery,omitempty"`
	Filters     map[string]string `json:"filters,omitempty" yaml:"filters,omitempty" url:"-"`
}

// DefaultFilterState returns the FilterState of an empty query string; a
// non-positive pageSize selects DefaultPageSize.
func DefaultFilterState(pageSize int) FilterState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return FilterState{
		Page:     DefaultPage,
		PageSize: pageSize,
	}
}

// IsReserved reports whether name is the query parameter of a named
// FilterState field.
func IsReserved(name string) bool {
	switch name {
	case ParamPage, ParamPageSize, ParamSearchKey, ParamSearchQuery:
		return true
	}
	return false
}

// Clone returns a deep copy of f.
func (f FilterState) Clone() FilterState {
	f.Filters = maps.Clone(f.Filters)
	return f
}

// Values returns f as query parameters. Empty filter values are omitted.
func (f FilterState) Values() (url.Values, error) {
	v, err := query.Values(f)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode filter state")
	}
	for name, value := range f.Filters {
		if value == "" || IsReserved(name) {
			continue
		}
		v.Set(name, value)
	}
	return v, nil
}

// Encode returns the canonical query string of f, parameters sorted by name.
func (f FilterState) Encode() string {
	v, err := f.Values()
	if err != nil {
		return ""
	}
	return v.Encode()
}
