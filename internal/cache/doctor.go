package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/google/uuid"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
)

// DoctorCache is a read-through cache in front of the doctor repository.
// Doctors are immutable from the booking workflow's perspective, so a
// short TTL is safe.
type DoctorCache struct {
	repo  repository.DoctorRepository
	cache *gocache.Cache
}

func NewDoctorCache(repo repository.DoctorRepository, ttl time.Duration) *DoctorCache {
	return &DoctorCache{
		repo:  repo,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *DoctorCache) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	if cached, ok := c.cache.Get(id.String()); ok {
		return cached.(*model.Doctor), nil
	}

	doctor, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(id.String(), doctor)
	return doctor, nil
}

// List always goes to the repository; search results are not cached.
func (c *DoctorCache) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	return c.repo.List(ctx, filters)
}
