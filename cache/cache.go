package cache

import (
	"strings"
	"time"

	"github.com/TwiN/gocache/v2"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hrdesk/viewsync/internal"
)

// Store is the backing store behind the ResourceCache. It persists resolved
// payloads (msgpack encoded) so that a cold key can be rendered with the last
// known data while its first fetch is in flight.
type Store interface {
	Get(key string, target any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Delete(key string) error
	// Clear clears all entries with the given prefix
	Clear(prefix string) error
}

// memoryStore is a Store backed by an in-process gocache
type memoryStore struct {
	c   *gocache.Cache
	ttl time.Duration
}

// NewMemoryStore returns an in-memory Store whose entries expire after ttl;
// a non-positive ttl keeps entries until they are deleted.
func NewMemoryStore(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c := gocache.NewCache().WithDefaultTTL(ttl)
	if err := c.StartJanitor(); err != nil {
		internal.WithError(err).Error("cache: failed to start janitor; proceeding without background cleanup")
	}
	return memoryStore{
		c:   c,
		ttl: ttl,
	}
}

// Get implements the Store interface
func (s memoryStore) Get(key string, target any) (bool, error) {
	entryV, ok := s.c.Get(key)
	if !ok {
		return false, nil
	}
	entry, ok := entryV.([]byte)
	if !ok {
		return false, errors.New("invalid cache entry type")
	}
	return true, errors.WithStack(msgpack.Unmarshal(entry, target))
}

// Set implements the Store interface
func (s memoryStore) Set(key string, value any, expiration time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	if expiration <= 0 {
		expiration = s.ttl
	}
	s.c.SetWithTTL(key, data, expiration)
	return nil
}

// Delete implements the Store interface
func (s memoryStore) Delete(key string) error {
	s.c.Delete(key)
	return nil
}

// Clear implements the Store interface
func (s memoryStore) Clear(prefix string) error {
	s.c.DeleteKeysByPattern(prefix + "*")
	return nil
}

// Operation names shared by all resources.
const (
	OperationList    = "list"
	OperationGetByID = "getById"
)

// StoreKey joins its parts into a backing store key. A trailing empty part
// yields a trailing separator, which makes the result usable as a Clear
// prefix: StoreKey("employee", "list", "") == "employee:list:".
func StoreKey(parts ...string) string {
	return strings.Join(parts, ":")
}
