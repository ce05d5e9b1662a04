package database

import (
	"context"
	"time"

	"github.com/jarne/linkleopard/internal/cache"
	"github.com/jarne/linkleopard/internal/models"
)

type cachedDatabase struct {
	Database
	cache *cache.Cache
}

// NewCached serves the link list and profile from memory for ttl and drops
// the cached copy after every successful write.
func NewCached(db Database, ttl time.Duration) Database {
	return &cachedDatabase{
		Database: db,
		cache:    cache.NewCache(ttl),
	}
}

func (d *cachedDatabase) GetLinks(ctx context.Context) ([]models.Link, error) {
	if links, ok := d.cache.GetLinks(); ok {
		return links, nil
	}

	gen := d.cache.LinksGeneration()
	links, err := d.Database.GetLinks(ctx)
	if err != nil {
		return nil, err
	}

	d.cache.SetLinks(gen, links)
	return links, nil
}

func (d *cachedDatabase) CreateLink(ctx context.Context, l models.Link) (models.Link, error) {
	created, err := d.Database.CreateLink(ctx, l)
	if err == nil {
		d.cache.InvalidateLinks()
	}
	return created, err
}

func (d *cachedDatabase) UpdateLink(ctx context.Context, id int64, patch models.LinkPatch) (*models.Link, error) {
	updated, err := d.Database.UpdateLink(ctx, id, patch)
	if err == nil {
		d.cache.InvalidateLinks()
	}
	return updated, err
}

func (d *cachedDatabase) DeleteLink(ctx context.Context, id int64) (bool, error) {
	deleted, err := d.Database.DeleteLink(ctx, id)
	if err == nil {
		d.cache.InvalidateLinks()
	}
	return deleted, err
}

func (d *cachedDatabase) ReorderLinks(ctx context.Context, ids []int64) error {
	defer d.cache.InvalidateLinks()
	return d.Database.ReorderLinks(ctx, ids)
}

func (d *cachedDatabase) GetProfile(ctx context.Context) (*models.Profile, error) {
	if p, ok := d.cache.GetProfile(); ok {
		return p, nil
	}

	gen := d.cache.ProfileGeneration()
	p, err := d.Database.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	d.cache.SetProfile(gen, p)
	return p, nil
}

func (d *cachedDatabase) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	saved, err := d.Database.UpdateProfile(ctx, p)
	if err == nil {
		d.cache.InvalidateProfile()
	}
	return saved, err
}
