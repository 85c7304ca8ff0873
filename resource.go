package viewsync

import (
	nethttp "net/http"
	"sync"
	"time"

	"github.com/hrdesk/viewsync/apimodel"
	"github.com/hrdesk/viewsync/cache"
	"github.com/hrdesk/viewsync/internal"
)

// Operation names used for mutations
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// Resource describes one entity type of the backend.
type Resource[T any] struct {
	// Name identifies the resource in cache keys, e.g. "employee"
	Name string
	// Service constructs the backend service for a principal
	Service func(Principal) Service[T]
	// ID returns the id of an entity; required to invalidate the detail
	// entry of an updated entity
	ID func(T) string
	// StaleTime enables background refreshes of data older than this
	StaleTime time.Duration
	// Success statuses showing a toast; defaults are 201 for create and 200
	// for update and delete
	CreateStatus int
	UpdateStatus int
	DeleteStatus int

	mu    sync.Mutex
	scope string
	svc   Service[T]
}

// service returns the service bound to p. The instance is reused until the
// principal changes.
func (r *Resource[T]) service(p Principal) Service[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	scope := p.Fingerprint()
	if r.svc == nil || r.scope != scope {
		internal.WithResource(r.Name, "").WithField("principal", scope).Debug("binding new service instance")
		r.svc = r.Service(p)
		r.scope = scope
	}
	return r.svc
}

func (r *Resource[T]) successStatus(operation string) int {
	switch operation {
	case OperationCreate:
		if r.CreateStatus != 0 {
			return r.CreateStatus
		}
		return nethttp.StatusCreated
	case OperationUpdate:
		if r.UpdateStatus != 0 {
			return r.UpdateStatus
		}
		return nethttp.StatusOK
	case OperationDelete:
		if r.DeleteStatus != 0 {
			return r.DeleteStatus
		}
		return nethttp.StatusOK
	}
	return nethttp.StatusOK
}

// ListKey returns the cache key of a list request
func (r *Resource[T]) ListKey(filters apimodel.FilterState, p Principal) (cache.Key, error) {
	values, err := filters.Values()
	if err != nil {
		return cache.Key{}, err
	}
	key, err := cache.NewKey(r.Name, cache.OperationList, values)
	if err != nil {
		return cache.Key{}, err
	}
	return key.WithScope(p.Fingerprint()), nil
}

// DetailKey returns the cache key of a single entity request
func (r *Resource[T]) DetailKey(id string, p Principal) cache.Key {
	return cache.DetailKey(r.Name, id).WithScope(p.Fingerprint())
}
