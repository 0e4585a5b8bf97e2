package cache

import (
	"context"
	"time"
)

// Cache is a JSON value cache. A miss is (false, nil), never an error.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ResumeKey is the cache key of a session's reconstructable state.
func ResumeKey(sessionID string) string { return "interview:" + sessionID + ":resume" }
