package core

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrUploadNotFound is returned for unknown or expired upload ids.
var ErrUploadNotFound = errors.New("upload not found")

const (
	DefaultResultTTL     = 30 * time.Minute
	DefaultResultCleanup = 5 * time.Minute
)

// ResultCache keeps accepted rosters by upload id so clients can fetch them
// again without re-uploading.
type ResultCache struct {
	cache *cache.Cache
}

// NewResultCache creates a cache whose entries expire after ttl and are
// purged every cleanup interval.
func NewResultCache(ttl, cleanup time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	if cleanup <= 0 {
		cleanup = DefaultResultCleanup
	}
	return &ResultCache{cache: cache.New(ttl, cleanup)}
}

// Put stores r under its batch id.
func (c *ResultCache) Put(r *Roster) {
	c.cache.Set(r.BatchID.String(), r, cache.DefaultExpiration)
}

// Get returns the roster stored under id.
func (c *ResultCache) Get(id string) (*Roster, error) {
	if x, found := c.cache.Get(id); found {
		return x.(*Roster), nil
	}
	return nil, ErrUploadNotFound
}

// Len returns the number of cached rosters, expired ones included until purged.
func (c *ResultCache) Len() int {
	return c.cache.ItemCount()
}
