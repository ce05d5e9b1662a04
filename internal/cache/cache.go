package cache

import (
	"sync"
	"time"

	"github.com/jarne/linkleopard/internal/models"
)

// Cache holds the last read profile and link list for a fixed TTL.
// A profile that has never been saved is cached as a known absence.
//
// Every invalidation bumps a generation counter. Readers take the generation
// before querying the database and hand it back to Set, which drops the value
// if a write invalidated the entry in between.
type Cache struct {
	mu         sync.RWMutex
	profile    *models.Profile
	profileSet bool
	profileExp time.Time
	profileGen uint64
	links      []models.Link
	linksExp   time.Time
	linksGen   uint64
	ttl        time.Duration
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// GetProfile returns the cached profile (possibly nil) and whether the
// cache entry is valid.
func (c *Cache) GetProfile() (*models.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.profileSet || time.Now().After(c.profileExp) {
		return nil, false
	}
	if c.profile == nil {
		return nil, true
	}
	p := *c.profile
	return &p, true
}

func (c *Cache) ProfileGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profileGen
}

// SetProfile stores p unless the profile was invalidated after gen was read.
func (c *Cache) SetProfile(gen uint64, p *models.Profile) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.profileGen {
		return false
	}
	if p != nil {
		cp := *p
		p = &cp
	}
	c.profile = p
	c.profileSet = true
	c.profileExp = time.Now().Add(c.ttl)
	return true
}

func (c *Cache) GetLinks() ([]models.Link, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.links == nil || time.Now().After(c.linksExp) {
		return nil, false
	}
	links := make([]models.Link, len(c.links))
	copy(links, c.links)
	return links, true
}

func (c *Cache) LinksGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.linksGen
}

// SetLinks stores links unless the list was invalidated after gen was read.
func (c *Cache) SetLinks(gen uint64, links []models.Link) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.linksGen {
		return false
	}
	c.links = make([]models.Link, len(links))
	copy(c.links, links)
	c.linksExp = time.Now().Add(c.ttl)
	return true
}

func (c *Cache) InvalidateProfile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = nil
	c.profileSet = false
	c.profileGen++
}

func (c *Cache) InvalidateLinks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links = nil
	c.linksGen++
}
