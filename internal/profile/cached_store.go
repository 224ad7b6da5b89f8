package profile

import (
	"context"
	"encoding/json"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	defaultCacheSize   = 8 * 1024 * 1024
	profileCacheExpire = 60 // seconds
)

var _ Store = (*CachedStore)(nil)

// CachedStore keeps recently read profiles in an in-process freecache in
// front of another store. Fitness data changes on every workout and is
// not cached.
type CachedStore struct {
	Store
	cache *freecache.Cache
}

func NewCachedStore(store Store, cacheSize int) *CachedStore {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	return &CachedStore{
		Store: store,
		cache: freecache.NewCache(cacheSize),
	}
}

func (s *CachedStore) Get(ctx context.Context, id string) (*Profile, error) {
	cacheKey := []byte("profile::" + id)
	if b, err := s.cache.Get(cacheKey); err == nil {
		p := &Profile{}
		if err := json.Unmarshal(b, p); err == nil {
			return p, nil
		} else {
			log.Errorf("failed to unmarshal cached profile %s: %s", id, err)
		}
	}

	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(p)
	return p, nil
}

func (s *CachedStore) Update(ctx context.Context, p *Profile) error {
	s.cache.Del([]byte("profile::" + p.ID))
	if err := s.Store.Update(ctx, p); err != nil {
		return err
	}
	s.put(p)
	return nil
}

func (s *CachedStore) put(p *Profile) {
	b, err := json.Marshal(p)
	if err != nil {
		log.Errorf("failed to marshal profile %s for cache: %s", p.ID, err)
		return
	}
	if err := s.cache.Set([]byte("profile::"+p.ID), b, profileCacheExpire); err != nil {
		log.Errorf("failed to cache profile %s: %s", p.ID, err)
	}
}

func (s *CachedStore) CacheStats() (hits, misses int64) {
	return s.cache.HitCount(), s.cache.MissCount()
}
