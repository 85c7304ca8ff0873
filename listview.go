package viewsync

import (
	"context"
	"slices"
	"sync"

	"github.com/scylladb/go-set/strset"

	"github.com/hrdesk/viewsync/apimodel"
	"github.com/hrdesk/viewsync/cache"
	"github.com/hrdesk/viewsync/debounce"
	"github.com/hrdesk/viewsync/internal"
	"github.com/hrdesk/viewsync/querystring"
)

// ViewState is the state of a view
type ViewState int

// View states
const (
	StateIdle ViewState = iota
	StateLoading
	StateReady
	StateErrored
	StateNotFound
)

// String implements the fmt.Stringer interface
func (s ViewState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	case StateNotFound:
		return "not_found"
	}
	return "unknown"
}

// ListSnapshot is what a list view renders
type ListSnapshot[T any] struct {
	State ViewState
	// Filters is the applied filter state; SearchInput the not yet settled
	// search text
	Filters     apimodel.FilterState
	SearchInput string
	Entities    []T
	Metadata    apimodel.Metadata
	// Placeholder is set while Entities belong to a previous request
	Placeholder bool
	// Fetching is set while a request for the current filters is in flight
	Fetching bool
	Err      error
	// Seq increases with every change; listeners can drop out-of-order
	// snapshots with a lower Seq
	Seq uint64
}

// ListView binds a paginated, filtered list of a resource to the query
// string of a Location.
type ListView[T any] struct {
	client   *Client
	resource *Resource[T]
	codec    *querystring.Codec

	mu          sync.Mutex
	open        bool
	debouncer   *debounce.Debouncer[string]
	unwatch     func()
	filters     apimodel.FilterState
	searchInput string
	reloads     uint64
	key         cache.Key
	hasKey      bool
	sub         *cache.Subscription
	state       ViewState
	page        *Page[T]
	metadata    apimodel.Metadata
	placeholder bool
	fetching    bool
	err         error
	applied     uint64
	reported    uint64
	seq         uint64
	listeners   map[uint64]func(ListSnapshot[T])
	listenerSeq uint64
}

// NewListView creates a closed ListView of resource bound to loc
func NewListView[T any](c *Client, resource *Resource[T], loc querystring.Location) *ListView[T] {
	return &ListView[T]{
		client:    c,
		resource:  resource,
		codec:     querystring.NewCodec(loc),
		listeners: make(map[uint64]func(ListSnapshot[T])),
	}
}

// Open reads the filter state from the query string and starts loading.
func (v *ListView[T]) Open() {
	v.mu.Lock()
	if v.open {
		v.mu.Unlock()
		return
	}
	v.open = true
	v.debouncer = debounce.New(v.client.debounce, v.applySearch)
	v.filters = querystring.ReadFilters(v.codec, apimodel.DefaultFilterState(v.client.pageSize))
	v.searchInput = v.filters.SearchQuery
	v.unwatch = v.client.session.Watch(
		func(Principal) {
			v.reload()
		},
	)
	v.mu.Unlock()
	v.reload()
}

// Close stops loading and releases the cache subscription. A closed view
// can be opened again.
func (v *ListView[T]) Close() {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return
	}
	v.open = false
	v.reloads++
	sub, unwatch, d := v.sub, v.unwatch, v.debouncer
	v.sub = nil
	v.hasKey = false
	v.unwatch = nil
	v.mu.Unlock()

	d.Stop()
	unwatch()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// Subscribe registers fn for view changes; the returned function removes it.
func (v *ListView[T]) Subscribe(fn func(ListSnapshot[T])) (cancel func()) {
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
func (v *ListView[T]) Snapshot() ListSnapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *ListView[T]) snapshotLocked() ListSnapshot[T] {
	s := ListSnapshot[T]{
		State:       v.state,
		Filters:     v.filters.Clone(),
		SearchInput: v.searchInput,
		Metadata:    v.metadata,
		Placeholder: v.placeholder,
		Fetching:    v.fetching,
		Err:         v.err,
		Seq:         v.seq,
	}
	if v.page != nil {
		s.Entities = slices.Clone(v.page.Entities)
	}
	return s
}

// changedLocked records a change and returns the listeners to notify with
// the resulting snapshot.
func (v *ListView[T]) changedLocked() (ListSnapshot[T], []func(ListSnapshot[T])) {
	v.seq++
	ids := make([]uint64, 0, len(v.listeners))
	for id := range v.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(ListSnapshot[T]), len(ids))
	for i, id := range ids {
		fns[i] = v.listeners[id]
	}
	return v.snapshotLocked(), fns
}

func emit[S any](s S, fns []func(S)) {
	for _, fn := range fns {
		fn(s)
	}
}

// reload subscribes to the cache entry of the current filters and principal,
// unless already subscribed to it.
func (v *ListView[T]) reload() {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return
	}
	p := v.client.session.Principal()
	if p.IsZero() || p.Expired() {
		old := v.sub
		v.sub = nil
		v.hasKey = false
		v.reloads++
		v.state = StateIdle
		v.page = nil
		v.placeholder = false
		v.fetching = false
		v.err = nil
		snap, fns := v.changedLocked()
		v.mu.Unlock()
		if old != nil {
			old.Unsubscribe()
		}
		emit(snap, fns)
		return
	}
	key, err := v.resource.ListKey(v.filters, p)
	if err != nil {
		v.state = StateErrored
		v.err = err
		snap, fns := v.changedLocked()
		v.mu.Unlock()
		internal.WithError(err).Error("could not build list key")
		emit(snap, fns)
		return
	}
	if v.hasKey && v.key == key && v.sub != nil {
		v.mu.Unlock()
		return
	}
	old := v.sub
	v.sub = nil
	v.key = key
	v.hasKey = true
	v.applied = 0
	v.reloads++
	reload := v.reloads
	svc := v.resource.service(p)
	filters := v.filters.Clone()
	v.mu.Unlock()

	internal.WithResource(v.resource.Name, cache.OperationList).
		WithField(internal.FieldKey, key.String()).Debug("list view: loading")
	sub, initial := v.client.cache.Subscribe(
		key,
		func(ctx context.Context) (any, error) {
			return svc.List(ctx, filters)
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

func (v *ListView[T]) onSnapshot(s cache.Snapshot) {
	v.mu.Lock()
	v.applyLocked(s)
}

// applyLocked applies a cache snapshot and unlocks v.mu. Snapshots of other
// keys or older than the applied one are ignored.
func (v *ListView[T]) applyLocked(s cache.Snapshot) {
	if !v.open || !v.hasKey || s.Key != v.key || s.Version < v.applied {
		v.mu.Unlock()
		return
	}
	v.applied = s.Version
	v.fetching = s.Fetching
	var failure error
	switch s.Status {
	case cache.StatusResolved:
		page, _ := s.Data.(*Page[T])
		if page == nil {
			page = &Page[T]{}
		}
		v.page = page
		v.metadata = page.Metadata
		v.placeholder = false
		v.state = StateReady
		v.err = nil
	case cache.StatusPending:
		v.state = StateLoading
		v.err = nil
		if v.page == nil {
			var stored Page[T]
			if ok, err := v.client.cache.Peek(s.Key, &stored); err != nil {
				internal.WithError(err).Debug("list view: could not read stored page")
			} else if ok {
				v.page = &stored
				v.metadata = stored.Metadata
			}
		}
		v.placeholder = v.page != nil
	case cache.StatusFailed:
		v.state = StateErrored
		v.err = s.Err
		v.page = nil
		v.placeholder = false
		if v.reported != s.Version {
			v.reported = s.Version
			failure = s.Err
		}
	}
	snap, fns := v.changedLocked()
	v.mu.Unlock()

	if failure != nil {
		internal.WithResource(v.resource.Name, cache.OperationList).WithError(failure).Debug("list view: request failed")
		v.client.reportFailure(failure, nil)
	}
	emit(snap, fns)
}

// update applies fn to a copy of the filter state; if the state changed it
// is written to the query string and the view reloads.
func (v *ListView[T]) update(fn func(f *apimodel.FilterState)) {
	v.mu.Lock()
	f := v.filters.Clone()
	fn(&f)
	if f.Encode() == v.filters.Encode() {
		v.mu.Unlock()
		return
	}
	v.filters = f
	snap, fns := v.changedLocked()
	v.mu.Unlock()

	if err := querystring.WriteFilters(v.codec, f); err != nil {
		internal.WithError(err).Error("could not write filter state")
	}
	emit(snap, fns)
	v.reload()
}

// Filters returns the applied filter state
func (v *ListView[T]) Filters() apimodel.FilterState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filters.Clone()
}

// SetPage navigates to page. Pages beyond the last known page are not
// corrected; the backend answers them with an empty page.
func (v *ListView[T]) SetPage(page int) {
	v.update(
		func(f *apimodel.FilterState) {
			f.Page = max(page, apimodel.DefaultPage)
		},
	)
}

// First navigates to the first page
func (v *ListView[T]) First() {
	v.SetPage(apimodel.DefaultPage)
}

// Next navigates to the next page. It does nothing on or beyond the last
// known page.
func (v *ListView[T]) Next() {
	v.mu.Lock()
	last := v.metadata.LastPage()
	v.mu.Unlock()
	v.update(
		func(f *apimodel.FilterState) {
			if f.Page < last {
				f.Page++
			}
		},
	)
}

// Prev navigates to the previous page, staying on the first page
func (v *ListView[T]) Prev() {
	v.update(
		func(f *apimodel.FilterState) {
			f.Page = max(f.Page-1, apimodel.DefaultPage)
		},
	)
}

// SetPageSize changes the number of entities per page; non-positive sizes
// are ignored.
func (v *ListView[T]) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	v.update(
		func(f *apimodel.FilterState) {
			f.PageSize = size
		},
	)
}

// Search records text as search input; it is applied once the input did
// not change for the configured debounce delay.
func (v *ListView[T]) Search(text string) {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return
	}
	v.searchInput = text
	d := v.debouncer
	snap, fns := v.changedLocked()
	v.mu.Unlock()
	emit(snap, fns)
	d.Push(text)
}

func (v *ListView[T]) applySearch(q string) {
	v.update(
		func(f *apimodel.FilterState) {
			f.SearchQuery = q
		},
	)
}

// SetSearchKey selects the field searched by the search text. Keys not
// offered in the metadata's SearchBy are rejected once metadata is known.
func (v *ListView[T]) SetSearchKey(key string) error {
	v.mu.Lock()
	searchBy := v.metadata.SearchBy
	v.mu.Unlock()
	if key != "" && len(searchBy) > 0 && !strset.New(searchBy...).Has(key) {
		return ErrUnknownSearchKey
	}
	v.update(
		func(f *apimodel.FilterState) {
			f.SearchKey = key
		},
	)
	return nil
}

// SetFilter sets a resource specific filter; an empty value removes it.
func (v *ListView[T]) SetFilter(name, value string) {
	if apimodel.IsReserved(name) {
		internal.Warnf("list view: %q is not a filter", name)
		return
	}
	v.update(
		func(f *apimodel.FilterState) {
			if value == "" {
				delete(f.Filters, name)
				return
			}
			if f.Filters == nil {
				f.Filters = make(map[string]string)
			}
			f.Filters[name] = value
		},
	)
}

// ClearFilters resets the filter state to its defaults and drops pending
// search input.
func (v *ListView[T]) ClearFilters() {
	v.mu.Lock()
	v.searchInput = ""
	old := v.debouncer
	if v.open {
		v.debouncer = debounce.New(v.client.debounce, v.applySearch)
	}
	v.mu.Unlock()
	if old != nil {
		old.Stop()
	}
	v.update(
		func(f *apimodel.FilterState) {
			*f = apimodel.DefaultFilterState(v.client.pageSize)
		},
	)
}

// Refresh re-fetches the current page
func (v *ListView[T]) Refresh() {
	v.mu.Lock()
	key, ok := v.key, v.hasKey && v.open
	v.mu.Unlock()
	if !ok {
		return
	}
	v.client.cache.Invalidate(func(k cache.Key) bool { return k == key })
}

// Sync re-reads the filter state after the query string was changed
// externally, e.g. by a back/forward navigation.
func (v *ListView[T]) Sync() {
	if !v.codec.Sync() {
		return
	}
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return
	}
	v.filters = querystring.ReadFilters(v.codec, apimodel.DefaultFilterState(v.client.pageSize))
	v.searchInput = v.filters.SearchQuery
	snap, fns := v.changedLocked()
	v.mu.Unlock()
	emit(snap, fns)
	v.reload()
}
