package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(loaderFor(newLibrary()))

	s := r.Create()
	_, err := uuid.Parse(s.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	require.NoError(t, r.Remove(s.ID()))
	require.NoError(t, r.Remove(s.ID()))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Sweep(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	db := newLibrary()

	r := NewRegistry(loaderFor(db))
	r.now = func() time.Time { return clock }

	idle := r.Create()
	require.NoError(t, idle.Upload(context.Background(), []byte("data")))

	clock = clock.Add(20 * time.Minute)
	active := r.Create()

	clock = clock.Add(15 * time.Minute)

	removed := r.Sweep(30 * time.Minute)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Len())
	_, ok := r.Get(idle.ID())
	assert.False(t, ok)
	_, ok = r.Get(active.ID())
	assert.True(t, ok)
	assert.True(t, db.isClosed())
}

func TestRegistry_CloseAll(t *testing.T) {
	db := newLibrary()
	r := NewRegistry(loaderFor(db))

	s := r.Create()
	require.NoError(t, s.Upload(context.Background(), []byte("data")))

	r.CloseAll()

	assert.Equal(t, 0, r.Len())
	assert.True(t, db.isClosed())
}
