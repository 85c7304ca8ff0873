package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hrdesk/viewsync/internal"
)

// Status is the lifecycle state of a cache entry
type Status int

// Entry states
const (
	StatusPending Status = iota + 1
	StatusResolved
	StatusFailed
)

// String implements the fmt.Stringer interface
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of an entry at one point in time. Version
// increases with every observable change of any entry, so of two snapshots of
// the same key the one with the higher Version is the newer.
type Snapshot struct {
	Key       Key
	Status    Status
	Data      any
	Err       error
	Fetching  bool
	Version   uint64
	UpdatedAt time.Time
}

// Fetcher performs the underlying request of an entry.
type Fetcher func(ctx context.Context) (any, error)

// SubscribeOptions tune a subscription.
type SubscribeOptions struct {
	// StaleTime is the age after which resolved data is refreshed in the
	// background when a new subscriber attaches. Zero disables refreshing;
	// the data is then only replaced after an invalidation.
	StaleTime time.Duration
}

// DefaultGracePeriod is how long an entry without subscribers is kept.
const DefaultGracePeriod = 30 * time.Second

// ResourceCache is a keyed store of in-flight and completed fetches. It
// deduplicates identical concurrent requests, serves resolved data to new
// subscribers immediately and re-fetches invalidated entries that are still
// observed. It is safe for concurrent use.
type ResourceCache struct {
	mu           sync.Mutex
	entries      map[Key]*entry
	store        Store
	grace        time.Duration
	fetchTimeout time.Duration
	seq          uint64
	subSeq       uint64
}

// Option configures a ResourceCache
type Option func(*ResourceCache)

// WithStore sets the backing store; the default is NoopStore().
func WithStore(s Store) Option {
	return func(c *ResourceCache) {
		if s != nil {
			c.store = s
		}
	}
}

// WithGracePeriod sets how long an unobserved entry survives. Zero evicts as
// soon as the last subscriber leaves.
func WithGracePeriod(d time.Duration) Option {
	return func(c *ResourceCache) {
		c.grace = d
	}
}

// WithFetchTimeout bounds every underlying fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *ResourceCache) {
		c.fetchTimeout = d
	}
}

// NewResourceCache creates a new ResourceCache
func NewResourceCache(opts ...Option) *ResourceCache {
	c := &ResourceCache{
		entries: make(map[Key]*entry),
		store:   NoopStore(),
		grace:   DefaultGracePeriod,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type flight struct {
	gen        uint64
	done       chan struct{}
	closed     bool
	superseded bool
	val        any
	err        error
}

type entry struct {
	key         Key
	status      Status
	data        any
	err         error
	updatedAt   time.Time
	version     uint64
	stale       bool
	fetch       Fetcher
	flight      *flight
	subscribers map[uint64]func(Snapshot)
	evictTimer  *time.Timer
	queue       []Snapshot
	dispatching bool
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Key:       e.key,
		Status:    e.status,
		Data:      e.data,
		Err:       e.err,
		Fetching:  e.flight != nil,
		Version:   e.version,
		UpdatedAt: e.updatedAt,
	}
}

// next returns the next value of the cache-wide sequence. Must be called with
// c.mu held.
func (c *ResourceCache) next() uint64 {
	c.seq++
	return c.seq
}

func (c *ResourceCache) entryFor(key Key) *entry {
	e, ok := c.entries[key]
	if ok {
		return e
	}
	e = &entry{
		key:         key,
		status:      StatusPending,
		version:     c.next(),
		subscribers: make(map[uint64]func(Snapshot)),
	}
	c.entries[key] = e
	return e
}

func (c *ResourceCache) changed(e *entry) {
	e.version = c.next()
	e.queue = append(e.queue, e.snapshot())
}

func (*ResourceCache) supersede(f *flight) {
	if f == nil || f.closed {
		return
	}
	f.superseded = true
	f.closed = true
	close(f.done)
}

// startFlight issues a new underlying fetch for e, superseding any flight in
// progress. Resolved data is kept while refreshing. Must be called with c.mu
// held; returns nil if e has no fetcher.
func (c *ResourceCache) startFlight(e *entry) *flight {
	if e.fetch == nil {
		return nil
	}
	c.supersede(e.flight)
	f := &flight{
		gen:  c.next(),
		done: make(chan struct{}),
	}
	e.flight = f
	e.stale = false
	if e.status == StatusFailed {
		e.status = StatusPending
		e.err = nil
		c.changed(e)
	}
	internal.WithField(internal.FieldKey, e.key.String()).Debugf("cache: starting fetch (generation %d)", f.gen)
	go c.run(e, f, e.fetch)
	return f
}

func (c *ResourceCache) run(e *entry, f *flight, fetch Fetcher) {
	ctx := context.Background()
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}
	val, err := fetch(ctx)
	c.settle(e, f, val, err)
}

func (c *ResourceCache) settle(e *entry, f *flight, val any, err error) {
	logger := internal.WithField(internal.FieldKey, e.key.String())
	c.mu.Lock()
	if f.closed || e.flight != f || c.entries[e.key] != e {
		c.supersede(f)
		c.mu.Unlock()
		logger.Debugf("cache: dropping superseded response (generation %d)", f.gen)
		return
	}
	f.val, f.err = val, err
	f.closed = true
	close(f.done)
	e.flight = nil
	e.updatedAt = time.Now()
	if err != nil {
		e.status = StatusFailed
		e.err = err
		e.data = nil
	} else {
		e.status = StatusResolved
		e.err = nil
		e.data = val
	}
	c.changed(e)
	if len(e.subscribers) == 0 {
		c.scheduleEvict(e)
	}
	c.mu.Unlock()

	if err != nil {
		logger.WithError(err).Debug("cache: fetch failed")
		// negative results are never persisted
		if derr := c.store.Delete(e.key.String()); derr != nil {
			logger.WithError(derr).Error("cache: could not delete stored payload")
		}
	} else {
		logger.Debug("cache: fetch resolved")
		if serr := c.store.Set(e.key.String(), val, 0); serr != nil {
			logger.WithError(serr).Error("cache: could not persist payload")
		}
	}
	c.dispatch(e)
}

// dispatch delivers queued snapshots of e to its subscribers, in order and
// never re-entrantly: a callback that changes e only enqueues, and the
// running dispatch loop picks the change up.
func (c *ResourceCache) dispatch(e *entry) {
	c.mu.Lock()
	if e.dispatching {
		c.mu.Unlock()
		return
	}
	e.dispatching = true
	for len(e.queue) > 0 {
		snap := e.queue[0]
		e.queue = e.queue[1:]
		ids := make([]uint64, 0, len(e.subscribers))
		for id := range e.subscribers {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		callbacks := make([]func(Snapshot), len(ids))
		for i, id := range ids {
			callbacks[i] = e.subscribers[id]
		}
		c.mu.Unlock()
		for _, cb := range callbacks {
			cb(snap)
		}
		c.mu.Lock()
	}
	e.dispatching = false
	c.mu.Unlock()
}

// scheduleEvict removes e once the grace period elapsed without a new
// subscriber. Must be called with c.mu held.
func (c *ResourceCache) scheduleEvict(e *entry) {
	if e.evictTimer != nil {
		e.evictTimer.Stop()
		e.evictTimer = nil
	}
	if c.grace <= 0 {
		c.evictLocked(e)
		return
	}
	e.evictTimer = time.AfterFunc(
		c.grace, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.evictLocked(e)
		},
	)
}

func (c *ResourceCache) evictLocked(e *entry) {
	if c.entries[e.key] != e || len(e.subscribers) > 0 || e.flight != nil {
		// still observed or in flight; the settle reschedules eviction
		return
	}
	delete(c.entries, e.key)
	internal.WithField(internal.FieldKey, e.key.String()).Debug("cache: evicted entry")
}

// Get returns the data for key, fetching it with fetch if it is not resolved.
// Resolved data is returned immediately, also while it is being refreshed;
// stale data additionally triggers a background refresh. A Get for a key
// without data and with a fetch in flight waits for that fetch instead of
// issuing another one. The fetch itself is not bound to ctx; cancelling ctx
// only stops waiting.
func (c *ResourceCache) Get(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	for {
		c.mu.Lock()
		e := c.entryFor(key)
		if fetch != nil {
			e.fetch = fetch
		}
		if e.status == StatusResolved {
			data := e.data
			refresh := e.stale && e.flight == nil && c.startFlight(e) != nil
			if refresh {
				c.changed(e)
			}
			c.mu.Unlock()
			if refresh {
				c.dispatch(e)
			}
			return data, nil
		}
		f := e.flight
		if f == nil {
			f = c.startFlight(e)
		}
		if f == nil {
			if len(e.subscribers) == 0 {
				c.scheduleEvict(e)
			}
			c.mu.Unlock()
			return nil, errors.Errorf("cache: no fetcher for %s", key)
		}
		c.mu.Unlock()
		c.dispatch(e)

		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, errors.WithStack(ctx.Err())
		}
		if !f.superseded {
			return f.val, f.err
		}
	}
}

// Set stores payload under key with the given status, superseding any fetch
// in flight. For StatusFailed payload should be an error.
func (c *ResourceCache) Set(key Key, payload any, status Status) {
	c.mu.Lock()
	e := c.entryFor(key)
	c.supersede(e.flight)
	e.flight = nil
	e.stale = false
	e.updatedAt = time.Now()
	e.status = status
	switch status {
	case StatusResolved:
		e.data, e.err = payload, nil
	case StatusFailed:
		err, ok := payload.(error)
		if !ok {
			err = errors.Errorf("%v", payload)
		}
		e.data, e.err = nil, err
	default:
		e.status = StatusPending
		e.data, e.err = nil, nil
	}
	c.changed(e)
	if len(e.subscribers) == 0 {
		c.scheduleEvict(e)
	}
	c.mu.Unlock()

	if status == StatusResolved {
		if err := c.store.Set(key.String(), payload, 0); err != nil {
			internal.WithError(err).Error("cache: could not persist payload")
		}
	}
	c.dispatch(e)
}

// Subscription is a registered interest in one key.
type Subscription struct {
	cache *ResourceCache
	key   Key
	id    uint64
	once  sync.Once
}

// Key returns the subscribed key
func (s *Subscription) Key() Key {
	return s.key
}

// Unsubscribe removes the subscription; safe to call multiple times.
func (s *Subscription) Unsubscribe() {
	s.once.Do(
		func() {
			s.cache.unsubscribe(s.key, s.id)
		},
	)
}

// Subscribe registers callback for changes of key and returns the
// subscription together with the entry's current state. The current state is
// not passed to callback. Resolved data is served as is; a fetch is started
// if the entry has no data yet, failed before, was invalidated, or is older
// than opts.StaleTime.
func (c *ResourceCache) Subscribe(
	key Key, fetch Fetcher, opts SubscribeOptions, callback func(Snapshot),
) (*Subscription, Snapshot) {
	c.mu.Lock()
	e := c.entryFor(key)
	if fetch != nil {
		e.fetch = fetch
	}
	if e.evictTimer != nil {
		e.evictTimer.Stop()
		e.evictTimer = nil
	}
	c.subSeq++
	id := c.subSeq
	e.subscribers[id] = callback

	if e.flight == nil {
		switch e.status {
		case StatusResolved:
			if e.stale || (opts.StaleTime > 0 && time.Since(e.updatedAt) > opts.StaleTime) {
				c.startFlight(e)
			}
		default:
			c.startFlight(e)
		}
	}
	snap := e.snapshot()
	c.mu.Unlock()
	c.dispatch(e)

	return &Subscription{
		cache: c,
		key:   key,
		id:    id,
	}, snap
}

func (c *ResourceCache) unsubscribe(key Key, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if _, ok = e.subscribers[id]; !ok {
		return
	}
	delete(e.subscribers, id)
	if len(e.subscribers) == 0 {
		c.scheduleEvict(e)
	}
}

// Invalidate marks every entry whose key matches pred as stale. Observed
// entries are re-fetched (their current data stays visible meanwhile);
// unobserved entries are evicted. Stored payloads of matched keys are
// deleted. All matching happens under a single lock acquisition, so an
// invalidation is never applied partially. It returns the number of matched
// entries.
func (c *ResourceCache) Invalidate(pred Predicate) int {
	if pred == nil {
		return 0
	}
	var (
		matched []Key
		notify  []*entry
	)
	c.mu.Lock()
	for k, e := range c.entries {
		if !pred(k) {
			continue
		}
		matched = append(matched, k)
		if len(e.subscribers) == 0 {
			if e.evictTimer != nil {
				e.evictTimer.Stop()
			}
			c.supersede(e.flight)
			e.flight = nil
			delete(c.entries, k)
			continue
		}
		e.stale = true
		if c.startFlight(e) != nil && e.status == StatusResolved {
			c.changed(e)
		}
		notify = append(notify, e)
	}
	c.mu.Unlock()

	for _, k := range matched {
		if err := c.store.Delete(k.String()); err != nil {
			internal.WithError(err).Error("cache: could not delete stored payload")
		}
	}
	for _, e := range notify {
		c.dispatch(e)
	}
	internal.Logf("cache: invalidated %d entries (%d re-fetching)", len(matched), len(notify))
	return len(matched)
}

// ForgetStored clears persisted payloads under each prefix (see StoreKey);
// in-memory entries are unaffected.
func (c *ResourceCache) ForgetStored(prefixes ...string) error {
	for _, p := range prefixes {
		if err := c.store.Clear(p); err != nil {
			return errors.Wrapf(err, "could not clear stored payloads for %q", p)
		}
	}
	return nil
}

// Peek reads the last persisted payload of key into target.
func (c *ResourceCache) Peek(key Key, target any) (bool, error) {
	return c.store.Get(key.String(), target)
}

// State returns the current snapshot of key, if the key is resident.
func (c *ResourceCache) State(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	return e.snapshot(), true
}

// Subscribers returns the number of subscribers of key.
func (c *ResourceCache) Subscribers(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return len(e.subscribers)
	}
	return 0
}

// Len returns the number of resident entries.
func (c *ResourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
