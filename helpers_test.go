package viewsync

import (
	"context"
	nethttp "net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrdesk/viewsync/apimodel"
	"github.com/hrdesk/viewsync/cache"
	"github.com/hrdesk/viewsync/unixtime"
)

type employee struct {
	ID     string `json:"id" msgpack:"id"`
	Name   string `json:"name" msgpack:"name" validate:"required"`
	Salary int    `json:"salary,omitempty" msgpack:"salary" validate:"gte=0"`
}

func employeeID(e employee) string {
	return e.ID
}

// fakeService is an in-memory Service[employee]. Calls are recorded; the
// handler functions decide the responses.
type fakeService struct {
	principal Principal

	mu      sync.Mutex
	lists   []apimodel.FilterState
	gets    []string
	mutates []string

	list   func(f apimodel.FilterState) (*Page[employee], error)
	get    func(id string) (*employee, error)
	mutate func(op, id string, input employee) (*MutationResult[employee], error)
}

func (s *fakeService) List(_ context.Context, f apimodel.FilterState) (*Page[employee], error) {
	s.mu.Lock()
	s.lists = append(s.lists, f.Clone())
	fn := s.list
	s.mu.Unlock()
	if fn == nil {
		return &Page[employee]{}, nil
	}
	return fn(f)
}

func (s *fakeService) GetByID(_ context.Context, id string) (*employee, error) {
	s.mu.Lock()
	s.gets = append(s.gets, id)
	fn := s.get
	s.mu.Unlock()
	if fn == nil {
		return &employee{ID: id}, nil
	}
	return fn(id)
}

func (s *fakeService) do(op, id string, input employee) (*MutationResult[employee], error) {
	s.mu.Lock()
	s.mutates = append(s.mutates, op)
	fn := s.mutate
	s.mu.Unlock()
	if fn == nil {
		return &MutationResult[employee]{Status: nethttp.StatusOK}, nil
	}
	return fn(op, id, input)
}

func (s *fakeService) Create(_ context.Context, input employee) (*MutationResult[employee], error) {
	return s.do(OperationCreate, "", input)
}

func (s *fakeService) Update(_ context.Context, input employee) (*MutationResult[employee], error) {
	return s.do(OperationUpdate, input.ID, input)
}

func (s *fakeService) Delete(_ context.Context, id string) (*MutationResult[employee], error) {
	return s.do(OperationDelete, id, employee{})
}

func (s *fakeService) listCalls() []apimodel.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]apimodel.FilterState, len(s.lists))
	copy(out, s.lists)
	return out
}

func (s *fakeService) getCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.gets...)
}

// fakeBackend hands out one fakeService per principal, configured by setup.
type fakeBackend struct {
	mu       sync.Mutex
	services []*fakeService
	setup    func(s *fakeService)
}

func (b *fakeBackend) service(p Principal) Service[employee] {
	s := &fakeService{principal: p}
	if b.setup != nil {
		b.setup(s)
	}
	b.mu.Lock()
	b.services = append(b.services, s)
	b.mu.Unlock()
	return s
}

func (b *fakeBackend) latest() *fakeService {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.services) == 0 {
		return nil
	}
	return b.services[len(b.services)-1]
}

func (b *fakeBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.services)
}

type toast struct {
	Kind    NotificationKind
	Message string
}

type toastRecorder struct {
	mu     sync.Mutex
	toasts []toast
}

func (r *toastRecorder) Notify(kind NotificationKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast{Kind: kind, Message: message})
}

func (r *toastRecorder) all() []toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]toast(nil), r.toasts...)
}

type testEnv struct {
	client  *Client
	backend *fakeBackend
	toasts  *toastRecorder
	res     *Resource[employee]
}

func newTestEnv(t *testing.T, debounce time.Duration, setup func(s *fakeService)) *testEnv {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Debounce = unixtime.DurationInSeconds{Duration: debounce}
	toasts := &toastRecorder{}
	c, err := NewClient(
		&cfg,
		WithSession(NewSession("token-a")),
		WithNotifier(toasts),
		WithStore(cache.NewMemoryStore(time.Minute)),
	)
	require.NoError(t, err)
	backend := &fakeBackend{setup: setup}
	return &testEnv{
		client:  c,
		backend: backend,
		toasts:  toasts,
		res: &Resource[employee]{
			Name:    "Employee",
			Service: backend.service,
			ID:      employeeID,
		},
	}
}

func pageOf(totalPages int, names ...string) *Page[employee] {
	p := &Page[employee]{
		Metadata: apimodel.Metadata{
			SearchBy: []string{"SearchByName", "SearchByEmail"},
			Pagination: apimodel.Pagination{
				PageIndex:    1,
				TotalPages:   totalPages,
				TotalRecords: len(names),
			},
		},
	}
	for i, n := range names {
		p.Entities = append(p.Entities, employee{ID: string(rune('1' + i)), Name: n})
	}
	return p
}

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond
