package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickYourSocksAPI/internal/storage/memory"
	"pickYourSocksAPI/internal/types/profile"
)

func radarFixture(t *testing.T) (*RadarService, *memory.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := memory.NewStore()
	store.PutProfile(&profile.Profile{ID: alice, Name: "Alice", Elo: 1200, Sports: []string{"tennis"}})
	store.PutProfile(&profile.Profile{ID: bob, Name: "Bob", Elo: 1250, ReliabilityScore: 100, Sports: []string{"tennis"}})
	store.PutProfile(&profile.Profile{ID: carol, Name: "Carol", Elo: 1700, ReliabilityScore: 100, Sports: []string{"tennis"}})

	return NewRadarService(store, rdb, 30*time.Second), store, mr
}

func TestRadar_RankedCandidates(t *testing.T) {
	svc, _, _ := radarFixture(t)

	got, err := svc.Candidates(context.Background(), as(alice), "Tennis")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bob, got[0].ID)
	assert.InDelta(t, 0.875, got[0].MatchQuality, 0.0001)
	assert.Equal(t, carol, got[1].ID)
	assert.Zero(t, got[1].MatchQuality)
}

func TestRadar_CachesAndInvalidates(t *testing.T) {
	svc, store, mr := radarFixture(t)
	ctx := context.Background()

	first, err := svc.Candidates(ctx, as(alice), "tennis")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, mr.Exists(radarKey(alice, "tennis")))
	assert.Equal(t, 30*time.Second, mr.TTL(radarKey(alice, "tennis")))

	// A new player is invisible until the cached list is dropped.
	dave := uuid.New()
	store.PutProfile(&profile.Profile{ID: dave, Name: "Dave", Elo: 1200, Sports: []string{"tennis"}})

	cached, err := svc.Candidates(ctx, as(alice), "tennis")
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	svc.Invalidate(ctx, alice)
	assert.False(t, mr.Exists(radarKey(alice, "tennis")))

	fresh, err := svc.Candidates(ctx, as(alice), "tennis")
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
	assert.Equal(t, dave, fresh[0].ID)
}

func TestRadar_InvalidateOnlyTouchesThatUser(t *testing.T) {
	svc, _, mr := radarFixture(t)
	ctx := context.Background()

	_, err := svc.Candidates(ctx, as(alice), "tennis")
	require.NoError(t, err)
	_, err = svc.Candidates(ctx, as(bob), "tennis")
	require.NoError(t, err)

	svc.Invalidate(ctx, alice)
	assert.False(t, mr.Exists(radarKey(alice, "tennis")))
	assert.True(t, mr.Exists(radarKey(bob, "tennis")))
}

func TestRadar_CacheOutageFallsBackToStore(t *testing.T) {
	svc, _, mr := radarFixture(t)
	mr.Close()

	got, err := svc.Candidates(context.Background(), as(alice), "tennis")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRadar_WithoutCache(t *testing.T) {
	store := memory.NewStore()
	store.PutProfile(&profile.Profile{ID: alice, Name: "Alice"})
	svc := NewRadarService(store, nil, 0)

	got, err := svc.Candidates(context.Background(), as(alice), "")
	require.NoError(t, err)
	assert.Empty(t, got)
	svc.Invalidate(context.Background(), alice)
}
