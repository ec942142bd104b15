package repository

import (
	"context"
	"testing"
	"time"

	"carmarket_backend/internal/fitscore/scoring"
	"carmarket_backend/platform/cache"
	"carmarket_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type countingReader struct {
	calls   int
	profile scoring.Profile
	found   bool
}

func (r *countingReader) GetProfile(context.Context, uuid.UUID) (scoring.Profile, bool, error) {
	r.calls++
	return r.profile, r.found, nil
}

func newRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisFromClient(client, "fitscore"), srv
}

func TestCachedProfilesReadsThrough(t *testing.T) {
	c, _ := newRedisCache(t)
	next := &countingReader{profile: scoring.Profile{BudgetMax: 700000, BrandAffinity: map[string]float64{"tata": 0.4}}, found: true}
	reader := NewCachedProfiles(next, c, time.Minute, logger.Discard())
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		p, found, err := reader.GetProfile(context.Background(), userID)
		if err != nil || !found {
			t.Fatalf("unexpected result found=%v err=%v", found, err)
		}
		if p.BrandAffinity["tata"] != 0.4 {
			t.Fatalf("unexpected profile %+v", p)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one database read, got %d", next.calls)
	}
}

func TestCachedProfilesCachesMissingProfiles(t *testing.T) {
	c, _ := newRedisCache(t)
	next := &countingReader{}
	reader := NewCachedProfiles(next, c, time.Minute, logger.Discard())
	userID := uuid.New()

	_, _, _ = reader.GetProfile(context.Background(), userID)
	_, found, _ := reader.GetProfile(context.Background(), userID)
	if found || next.calls != 1 {
		t.Fatalf("expected cached miss, found=%v calls=%d", found, next.calls)
	}
}

func TestCachedProfilesFallsBackWhenRedisIsDown(t *testing.T) {
	c, srv := newRedisCache(t)
	srv.Close()
	next := &countingReader{profile: scoring.Profile{IntentScore: 70}, found: true}
	reader := NewCachedProfiles(next, c, time.Minute, logger.Discard())

	p, found, err := reader.GetProfile(context.Background(), uuid.New())
	if err != nil || !found || p.IntentScore != 70 {
		t.Fatalf("expected database fallback, got %+v found=%v err=%v", p, found, err)
	}
}
