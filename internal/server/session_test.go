package server

import (
	"context"
	"testing"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_LookupAndSweep(t *testing.T) {
	now := time.Now()
	st := newSessionStore([]byte("secret"), 30*time.Minute, 0)
	st.now = func() time.Time { return now }

	idle, idleToken, err := st.create(content.NewController(&fakeCMS{}))
	require.NoError(t, err)
	_, activeToken, err := st.create(content.NewController(&fakeCMS{}))
	require.NoError(t, err)
	assert.Equal(t, 2, st.len())

	got, err := st.lookup(idleToken)
	require.NoError(t, err)
	assert.Equal(t, idle.id, got.id)

	now = now.Add(20 * time.Minute)
	_, err = st.lookup(activeToken)
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, st.sweep())
	assert.Equal(t, 1, st.len())

	_, err = st.lookup(idleToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.lookup(activeToken)
	assert.NoError(t, err)
}

func TestSessionStore_Janitor(t *testing.T) {
	st := newSessionStore([]byte("secret"), time.Millisecond, 0)
	_, _, err := st.create(content.NewController(&fakeCMS{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go st.janitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return st.len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSession_LoadMoreNotInitialized(t *testing.T) {
	sess := &session{ctrl: content.NewController(&fakeCMS{})}
	_, err := sess.loadMore(context.Background())
	assert.ErrorIs(t, err, content.ErrNotInitialized)
}

func TestSessionStore_EvictsLongestIdleAtLimit(t *testing.T) {
	now := time.Now()
	st := newSessionStore([]byte("secret"), time.Hour, 2)
	st.now = func() time.Time { return now }

	_, firstToken, err := st.create(content.NewController(&fakeCMS{}))
	require.NoError(t, err)
	now = now.Add(time.Minute)
	_, secondToken, err := st.create(content.NewController(&fakeCMS{}))
	require.NoError(t, err)

	// первая сессия используется, поэтому вытесняется вторая
	now = now.Add(time.Minute)
	_, err = st.lookup(firstToken)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, thirdToken, err := st.create(content.NewController(&fakeCMS{}))
	require.NoError(t, err)
	assert.Equal(t, 2, st.len())

	_, err = st.lookup(secondToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.lookup(firstToken)
	assert.NoError(t, err)
	_, err = st.lookup(thirdToken)
	assert.NoError(t, err)
}
