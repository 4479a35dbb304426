package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

// OwnershipGuard answers "does this owner own this property?" with a
// property → owner cache. A property's owner never changes, so entries only
// ever expire.
type OwnershipGuard struct {
	props repositories.PropertyRepository
	cache *ttlcache.Cache[uuid.UUID, uuid.UUID]
}

func NewOwnershipGuard(props repositories.PropertyRepository, ttl time.Duration) *OwnershipGuard {
	cache := ttlcache.New(
		ttlcache.WithTTL[uuid.UUID, uuid.UUID](ttl),
		ttlcache.WithDisableTouchOnHit[uuid.UUID, uuid.UUID](),
	)
	go cache.Start()
	return &OwnershipGuard{props: props, cache: cache}
}

// Authorize returns ErrPropertyNotFound for unknown properties and
// ErrForbidden when the property belongs to someone else.
func (g *OwnershipGuard) Authorize(ctx context.Context, ownerID, propertyID uuid.UUID) error {
	if item := g.cache.Get(propertyID); item != nil {
		if item.Value() != ownerID {
			return utils.ErrForbidden
		}
		return nil
	}

	prop, err := g.props.GetByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if prop == nil {
		return utils.ErrPropertyNotFound
	}
	g.cache.Set(propertyID, prop.OwnerID, ttlcache.DefaultTTL)
	if prop.OwnerID != ownerID {
		return utils.ErrForbidden
	}
	return nil
}

// Remember seeds the cache right after a property is created.
func (g *OwnershipGuard) Remember(propertyID, ownerID uuid.UUID) {
	g.cache.Set(propertyID, ownerID, ttlcache.DefaultTTL)
}

func (g *OwnershipGuard) Stop() {
	g.cache.Stop()
}
