package viewsync

import (
	"context"
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/hrdesk/viewsync/cache"
	"github.com/hrdesk/viewsync/internal"
)

// DetailSnapshot is what a detail view renders
type DetailSnapshot[T any] struct {
	State    ViewState
	ID       string
	Entity   *T
	Fetching bool
	Err      error
	Seq      uint64
}

// DetailView shows a single entity of a resource. It shares cached data
// with every other view of the same entity.
type DetailView[T any] struct {
	client   *Client
	resource *Resource[T]

	mu          sync.Mutex
	open        bool
	unwatch     func()
	id          string
	reloads     uint64
	key         cache.Key
	hasKey      bool
	sub         *cache.Subscription
	state       ViewState
	entity      *T
	fetching    bool
	err         error
	applied     uint64
	reported    uint64
	resolvedID  string
	onResolved  func(T)
	seq         uint64
	listeners   map[uint64]func(DetailSnapshot[T])
	listenerSeq uint64
}

// NewDetailView creates a closed DetailView of resource
func NewDetailView[T any](c *Client, resource *Resource[T]) *DetailView[T] {
	return &DetailView[T]{
		client:    c,
		resource:  resource,
		listeners: make(map[uint64]func(DetailSnapshot[T])),
	}
}

// OnResolved sets fn to be called with the entity the first time it
// resolves for an id, e.g. to populate a form. Refreshes of the same id do
// not call fn again.
func (v *DetailView[T]) OnResolved(fn func(T)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onResolved = fn
}

// Open starts loading the current id
func (v *DetailView[T]) Open() {
	v.mu.Lock()
	if v.open {
		v.mu.Unlock()
		return
	}
	v.open = true
	v.unwatch = v.client.session.Watch(
		func(Principal) {
			v.reload()
		},
	)
	v.mu.Unlock()
	v.reload()
}

// Close releases the cache subscription
func (v *DetailView[T]) Close() {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return
	}
	v.open = false
	v.reloads++
	sub, unwatch := v.sub, v.unwatch
	v.sub = nil
	v.hasKey = false
	v.unwatch = nil
	v.mu.Unlock()

	unwatch()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// SetID selects the entity to show; an empty id shows nothing.
func (v *DetailView[T]) SetID(id string) {
	v.mu.Lock()
	if v.id == id {
		v.mu.Unlock()
		return
	}
	v.id = id
	if id == "" {
		v.resolvedID = ""
	}
	v.mu.Unlock()
	v.reload()
}

// Subscribe registers fn for view changes; the returned function removes it.
func (v *DetailView[T]) Subscribe(fn func(DetailSnapshot[T])) (cancel func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listenerSeq++
	id := v.listenerSeq
	v.listeners[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// Snapshot returns the current state of the view
func (v *DetailView[T]) Snapshot() DetailSnapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *DetailView[T]) snapshotLocked() DetailSnapshot[T] {
	return DetailSnapshot[T]{
		State:    v.state,
		ID:       v.id,
		Entity:   v.entity,
		Fetching: v.fetching,
		Err:      v.err,
		Seq:      v.seq,
	}
}

func (v *DetailView[T]) changedLocked() (DetailSnapshot[T], []func(DetailSnapshot[T])) {
	v.seq++
	ids := make([]uint64, 0, len(v.listeners))
	for id := range v.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(DetailSnapshot[T]), len(ids))
	for i, id := range ids {
		fns[i] = v.listeners[id]
	}
	return v.snapshotLocked(), fns
}

func (v *DetailView[T]) idleLocked() (DetailSnapshot[T], []func(DetailSnapshot[T]), *cache.Subscription) {
	old := v.sub
	v.sub = nil
	v.hasKey = false
	v.reloads++
	v.state = StateIdle
	v.entity = nil
	v.fetching = false
	v.err = nil
	snap, fns := v.changedLocked()
	return snap, fns, old
}

func (v *DetailView[T]) reload() {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return
	}
	p := v.client.session.Principal()
	if v.id == "" || p.IsZero() || p.Expired() {
		snap, fns, old := v.idleLocked()
		v.mu.Unlock()
		if old != nil {
			old.Unsubscribe()
		}
		emit(snap, fns)
		return
	}
	key := v.resource.DetailKey(v.id, p)
	if v.hasKey && v.key == key && v.sub != nil {
		v.mu.Unlock()
		return
	}
	old := v.sub
	v.sub = nil
	v.key = key
	v.hasKey = true
	v.applied = 0
	v.entity = nil
	v.reloads++
	reload := v.reloads
	svc := v.resource.service(p)
	id := v.id
	v.mu.Unlock()

	internal.WithResource(v.resource.Name, cache.OperationGetByID).
		WithField(internal.FieldKey, key.String()).Debug("detail view: loading")
	sub, initial := v.client.cache.Subscribe(
		key,
		func(ctx context.Context) (any, error) {
			return svc.GetByID(ctx, id)
		},
		cache.SubscribeOptions{StaleTime: v.resource.StaleTime},
		v.onSnapshot,
	)
	if old != nil {
		old.Unsubscribe()
	}

	v.mu.Lock()
	if !v.open || reload != v.reloads {
		v.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	v.sub = sub
	v.applyLocked(initial)
}

func (v *DetailView[T]) onSnapshot(s cache.Snapshot) {
	v.mu.Lock()
	v.applyLocked(s)
}

// applyLocked applies a cache snapshot and unlocks v.mu.
func (v *DetailView[T]) applyLocked(s cache.Snapshot) {
	if !v.open || !v.hasKey || s.Key != v.key || s.Version < v.applied {
		v.mu.Unlock()
		return
	}
	v.applied = s.Version
	v.fetching = s.Fetching
	var (
		failure  error
		resolved *T
		callback func(T)
	)
	switch s.Status {
	case cache.StatusPending:
		v.state = StateLoading
		v.err = nil
	case cache.StatusResolved:
		entity, _ := s.Data.(*T)
		v.entity = entity
		v.err = nil
		if entity == nil {
			v.state = StateNotFound
			break
		}
		v.state = StateReady
		if v.resolvedID != v.id {
			v.resolvedID = v.id
			resolved, callback = entity, v.onResolved
		}
	case cache.StatusFailed:
		v.entity = nil
		v.err = s.Err
		if errors.Is(s.Err, ErrNotFound) {
			v.state = StateNotFound
			break
		}
		v.state = StateErrored
		if v.reported != s.Version {
			v.reported = s.Version
			failure = s.Err
		}
	}
	snap, fns := v.changedLocked()
	v.mu.Unlock()

	if failure != nil {
		v.client.reportFailure(failure, nil)
	}
	if resolved != nil && callback != nil {
		callback(*resolved)
	}
	emit(snap, fns)
}
