// Package querystring binds values to the query string of a Location.
package querystring

import (
	"net/url"
	"sync"

	"github.com/hrdesk/viewsync/internal"
)

// Codec reads and writes query parameters of a Location. It keeps its own
// copy of the parameters, so a read directly after a write observes the
// written value; the Location only receives the encoded result. Writes
// replace the current history entry and never push a new one.
type Codec struct {
	mu       sync.Mutex
	loc      Location
	values   url.Values
	last     string
	batching int
}

// NewCodec returns a Codec for loc
func NewCodec(loc Location) *Codec {
	c := &Codec{loc: loc}
	c.values = parse(loc.Query())
	c.last = c.values.Encode()
	return c
}

func parse(raw string) url.Values {
	v, err := url.ParseQuery(raw)
	if err != nil {
		// ParseQuery keeps all parameters it could parse
		internal.WithError(err).Warn("querystring: ignoring malformed query parameters")
	}
	if v == nil {
		v = url.Values{}
	}
	return v
}

// Read returns the value of key; false if the parameter is absent.
func (c *Codec) Read(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vs, ok := c.values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// ReadAs reads key and converts it with parse. An absent parameter or a
// value parse rejects yields false.
func ReadAs[V any](c *Codec, key string, parse func(string) (V, error)) (V, bool) {
	var zero V
	raw, ok := c.Read(key)
	if !ok {
		return zero, false
	}
	v, err := parse(raw)
	if err != nil {
		internal.WithError(err).WithField("param", key).Debug("querystring: unparsable parameter")
		return zero, false
	}
	return v, true
}

// Write sets key to value; an empty value removes the parameter.
func (c *Codec) Write(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value == "" {
		c.values.Del(key)
	} else {
		c.values.Set(key, value)
	}
	c.flushLocked()
}

// Remove removes key
func (c *Codec) Remove(key string) {
	c.Write(key, "")
}

// Clear removes all parameters
func (c *Codec) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = url.Values{}
	c.flushLocked()
}

// Batch runs fn and writes the location once after fn returned, no matter
// how many writes fn made. Batches may nest; the outermost one writes.
func (c *Codec) Batch(fn func()) {
	c.mu.Lock()
	c.batching++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.batching--
		c.flushLocked()
	}()
	fn()
}

func (c *Codec) flushLocked() {
	if c.batching > 0 {
		return
	}
	encoded := c.values.Encode()
	if encoded == c.last {
		return
	}
	c.last = encoded
	c.loc.ReplaceQuery(encoded)
}

// Sync re-reads the location after it was changed externally, e.g. by a
// back/forward navigation, and reports whether any parameter changed.
func (c *Codec) Sync() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := parse(c.loc.Query())
	encoded := v.Encode()
	if encoded == c.values.Encode() {
		return false
	}
	c.values = v
	c.last = encoded
	return true
}

// Encode returns the canonical encoding of the current parameters
func (c *Codec) Encode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.Encode()
}

// Values returns a copy of the current parameters
func (c *Codec) Values() url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := make(url.Values, len(c.values))
	for k, vs := range c.values {
		v[k] = append([]string(nil), vs...)
	}
	return v
}
