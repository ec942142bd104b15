package repository

import (
	"context"
	"time"

	"carmarket_backend/internal/fitscore/scoring"
	"carmarket_backend/platform/cache"
	"carmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type cachedProfile struct {
	Profile scoring.Profile `json:"profile"`
	Found   bool            `json:"found"`
}

// CachedProfiles is a read-through cache in front of a ProfileReader.
// Cache failures fall back to the database.
type CachedProfiles struct {
	next  ProfileReader
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedProfiles wraps next with c.
func NewCachedProfiles(next ProfileReader, c cache.Cache, ttl time.Duration, log *logger.Logger) *CachedProfiles {
	return &CachedProfiles{next: next, cache: c, ttl: ttl, log: log}
}

var _ ProfileReader = (*CachedProfiles)(nil)

func profileKey(userID uuid.UUID) string {
	return "profile:" + userID.String()
}

// GetProfile implements ProfileReader.
func (c *CachedProfiles) GetProfile(ctx context.Context, userID uuid.UUID) (scoring.Profile, bool, error) {
	var hit cachedProfile
	ok, err := c.cache.GetJSON(ctx, profileKey(userID), &hit)
	if err != nil {
		c.log.Debug("profile cache read failed", "userId", userID, "error", err)
	}
	if ok {
		return hit.Profile, hit.Found, nil
	}

	p, found, err := c.next.GetProfile(ctx, userID)
	if err != nil {
		return scoring.Profile{}, false, err
	}

	if err := c.cache.SetJSON(ctx, profileKey(userID), cachedProfile{Profile: p, Found: found}, c.ttl); err != nil {
		c.log.Debug("profile cache write failed", "userId", userID, "error", err)
	}
	return p, found, nil
}
