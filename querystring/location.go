package querystring

import (
	"net/url"
	"sync"

	"github.com/pkg/errors"
)

// Location is the host's address bar. ReplaceQuery must update the current
// history entry in place and must not call back into a Codec.
type Location interface {
	Query() string
	ReplaceQuery(query string)
}

// MemoryLocation is a Location held in memory, e.g. for headless clients and
// tests. It counts how often the query was replaced.
type MemoryLocation struct {
	mu           sync.Mutex
	query        string
	replacements int
}

// NewMemoryLocation returns a MemoryLocation starting at query
func NewMemoryLocation(query string) *MemoryLocation {
	return &MemoryLocation{query: query}
}

// Query implements the Location interface
func (l *MemoryLocation) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// ReplaceQuery implements the Location interface
func (l *MemoryLocation) ReplaceQuery(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = query
	l.replacements++
}

// Navigate changes the query the way a back/forward navigation would;
// it is not counted as a replacement.
func (l *MemoryLocation) Navigate(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = query
}

// Replacements returns the number of ReplaceQuery calls
func (l *MemoryLocation) Replacements() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replacements
}

// URLLocation is a Location backed by a *url.URL
type URLLocation struct {
	mu sync.Mutex
	u  *url.URL
}

// NewURLLocation returns a Location operating on u's raw query. u must not be
// modified elsewhere afterwards.
func NewURLLocation(u *url.URL) *URLLocation {
	return &URLLocation{u: u}
}

// ParseURLLocation parses rawURL into an URLLocation
func ParseURLLocation(rawURL string) (*URLLocation, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return NewURLLocation(u), nil
}

// Query implements the Location interface
func (l *URLLocation) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.u.RawQuery
}

// ReplaceQuery implements the Location interface
func (l *URLLocation) ReplaceQuery(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.u.RawQuery = query
}

// String returns the current URL
func (l *URLLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.u.String()
}
