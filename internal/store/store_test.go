package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microgrid-dispatch/internal/sim"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestStore(t *testing.T, ttl time.Duration) (*ResultStore, *fakeClock) {
	t.Helper()
	s := New(ttl, time.Hour)
	t.Cleanup(s.Close)
	clk := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	s.now = clk.Now
	return s, clk
}

func TestPutGet(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)
	cmp := &sim.Comparison{}
	e := s.Put("", cmp)

	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)

	got, ok := s.Get(e.ID)
	require.True(t, ok)
	assert.Same(t, cmp, got.Comparison)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestPut_DeduplicatesByKey(t *testing.T) {
	s, clk := newTestStore(t, time.Minute)
	a := s.Put("k", &sim.Comparison{})
	b := s.Put("k", &sim.Comparison{})
	assert.Equal(t, a.ID, b.ID)

	c := s.Put("", &sim.Comparison{})
	d := s.Put("", &sim.Comparison{})
	assert.NotEqual(t, c.ID, d.ID)

	clk.t = clk.t.Add(2 * time.Minute)
	e := s.Put("k", &sim.Comparison{})
	assert.NotEqual(t, a.ID, e.ID)
}

func TestLookup(t *testing.T) {
	s, clk := newTestStore(t, time.Minute)
	e := s.Put("k", &sim.Comparison{})

	got, ok := s.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, e.ID, got.ID)

	_, ok = s.Lookup("")
	assert.False(t, ok)
	_, ok = s.Lookup("other")
	assert.False(t, ok)

	clk.t = clk.t.Add(2 * time.Minute)
	_, ok = s.Lookup("k")
	assert.False(t, ok)
}

func TestExpiryAndEviction(t *testing.T) {
	s, clk := newTestStore(t, time.Minute)
	old := s.Put("old", &sim.Comparison{})
	clk.t = clk.t.Add(90 * time.Second)
	fresh := s.Put("fresh", &sim.Comparison{})

	_, ok := s.Get(old.ID)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())

	s.evictExpired()
	assert.Equal(t, 1, s.Len())
	_, ok = s.Get(fresh.ID)
	assert.True(t, ok)

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestClose_Idempotent(t *testing.T) {
	s := New(0, 0)
	s.Close()
	s.Close()
}

func TestKeyFor(t *testing.T) {
	type req struct {
		Weather string  `json:"weather"`
		Scale   float64 `json:"scale"`
	}
	a, err := KeyFor(req{"sunny", 1})
	require.NoError(t, err)
	b, err := KeyFor(req{"sunny", 1})
	require.NoError(t, err)
	c, err := KeyFor(req{"rainy", 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	_, err = KeyFor(func() {})
	assert.Error(t, err)
}
