package cache

import (
	"fmt"
	"time"
)

// PageCache stores raw catalog page bodies keyed by page number
type PageCache struct {
	svc    CacheService
	prefix string
	ttl    time.Duration
}

// NewPageCache returns nil when caching is disabled, which is a valid no-op cache
func NewPageCache(svc CacheService, prefix string, ttl time.Duration) *PageCache {
	if svc == nil || ttl <= 0 {
		return nil
	}
	return &PageCache{svc: svc, prefix: prefix, ttl: ttl}
}

func (p *PageCache) key(page int) string {
	return fmt.Sprintf("%s:page:%d", p.prefix, page)
}

// Get returns the cached body for page. Lookup errors other than a miss are returned
// alongside ok=false so callers can report them.
func (p *PageCache) Get(page int) (body []byte, ok bool, err error) {
	if p == nil {
		return nil, false, nil
	}
	body, err = p.svc.Get(p.key(page))
	if err == ErrMiss {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Put stores body for page
func (p *PageCache) Put(page int, body []byte) error {
	if p == nil {
		return nil
	}
	return p.svc.Set(p.key(page), body, p.ttl)
}
