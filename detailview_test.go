package viewsync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/hrdesk/viewsync/cache"
)

func TestDetailView_OnResolvedOncePerID(t *testing.T) {
	env := newTestEnv(
		t, 0, func(s *fakeService) {
			s.get = func(id string) (*employee, error) {
				return &employee{ID: id, Name: "Employee " + id}, nil
			}
		},
	)
	v := NewDetailView(env.client, env.res)
	var (
		mu       sync.Mutex
		resolved []string
	)
	v.OnResolved(
		func(e employee) {
			mu.Lock()
			defer mu.Unlock()
			resolved = append(resolved, e.ID)
		},
	)
	calls := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), resolved...)
	}

	v.SetID("7")
	v.Open()
	defer v.Close()
	require.Eventually(t, func() bool { return v.Snapshot().State == StateReady }, waitFor, tick)
	assert.Equal(t, &employee{ID: "7", Name: "Employee 7"}, v.Snapshot().Entity)
	assert.Equal(t, []string{"7"}, calls())

	n := env.client.Cache().Invalidate(cache.MatchDetail("Employee", "7"))
	assert.Equal(t, 1, n)
	svc := env.backend.latest()
	require.Eventually(t, func() bool { return len(svc.getCalls()) == 2 }, waitFor, tick)
	require.Eventually(t, func() bool { return !v.Snapshot().Fetching }, waitFor, tick)
	assert.Equal(t, []string{"7"}, calls())

	v.SetID("8")
	require.Eventually(t, func() bool { return len(calls()) == 2 }, waitFor, tick)
	assert.Equal(t, []string{"7", "8"}, calls())
	assert.Equal(t, "8", v.Snapshot().ID)
}

func TestDetailView_NotFound(t *testing.T) {
	env := newTestEnv(
		t, 0, func(s *fakeService) {
			s.get = func(id string) (*employee, error) {
				if id == "missing" {
					return nil, &APIError{Status: 404, Message: "Employee not found"}
				}
				return nil, nil
			}
		},
	)
	v := NewDetailView(env.client, env.res)
	v.Open()
	defer v.Close()
	assert.Equal(t, StateIdle, v.Snapshot().State)

	v.SetID("empty")
	require.Eventually(t, func() bool { return v.Snapshot().State == StateNotFound }, waitFor, tick)
	assert.Nil(t, v.Snapshot().Entity)
	assert.NoError(t, v.Snapshot().Err)

	v.SetID("missing")
	require.Eventually(
		t, func() bool {
			s := v.Snapshot()
			return s.ID == "missing" && s.State == StateNotFound
		}, waitFor, tick,
	)
	assert.ErrorIs(t, v.Snapshot().Err, ErrNotFound)
	assert.Empty(t, env.toasts.all())

	v.SetID("")
	assert.Equal(t, StateIdle, v.Snapshot().State)
}

func TestDetailView_Failure(t *testing.T) {
	env := newTestEnv(
		t, 0, func(s *fakeService) {
			s.get = func(string) (*employee, error) {
				return nil, &APIError{
					Status: 500,
					Errors: []string{"Database unavailable | قاعدة البيانات غير متاحة"},
				}
			}
		},
	)
	env.client.SetLocale(language.Arabic)

	v := NewDetailView(env.client, env.res)
	v.SetID("7")
	v.Open()
	defer v.Close()

	require.Eventually(t, func() bool { return v.Snapshot().State == StateErrored }, waitFor, tick)
	require.Eventually(t, func() bool { return len(env.toasts.all()) > 0 }, waitFor, tick)
	assert.Equal(t, []toast{{Kind: NotifyError, Message: "قاعدة البيانات غير متاحة"}}, env.toasts.all())
}

func TestDetailView_SharesEntryWithOtherViews(t *testing.T) {
	env := newTestEnv(t, 0, nil)
	a := NewDetailView(env.client, env.res)
	b := NewDetailView(env.client, env.res)
	a.SetID("7")
	b.SetID("7")
	a.Open()
	b.Open()
	defer a.Close()
	defer b.Close()

	require.Eventually(
		t, func() bool {
			return a.Snapshot().State == StateReady && b.Snapshot().State == StateReady
		}, waitFor, tick,
	)
	assert.Len(t, env.backend.latest().getCalls(), 1)
	key := env.res.DetailKey("7", env.client.Session().Principal())
	assert.Equal(t, 2, env.client.Cache().Subscribers(key))

	a.Close()
	assert.Equal(t, 1, env.client.Cache().Subscribers(key))
}
