package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

var (
	SeedOwnerID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	SeedTenantOne = uuid.MustParse("22222222-2222-2222-2222-222222222221")
	SeedTenantTwo = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

type seedTenant struct {
	userID uuid.UUID
	name   string
	email  string
	phone  string
	rent   float64
}

/*
SeedAllTestData creates one demo property for SeedOwnerID with every sharing
tier, then puts two tenants in the first double room. It is a no-op once the
seed owner has any property.
*/
func SeedAllTestData(ctx context.Context, svc *services.OccupancyService) error {
	existing, err := svc.ListProperties(ctx, SeedOwnerID)
	if err != nil {
		return fmt.Errorf("check existing seed property: %w", err)
	}
	if existing.Total > 0 {
		utils.Logger.Info("occupancy-service: seed data already present; skipping seeding")
		return nil
	}

	prop, err := svc.CreateProperty(ctx, SeedOwnerID, dtos.CreatePropertyRequest{
		Name:     "Sunrise PG",
		Address:  "12 Residency Road",
		City:     "Bengaluru",
		TimeZone: "Asia/Kolkata",
		RoomTypes: []dtos.RoomTypeInput{
			{Category: models.SharingSingle, BasePrice: 12000, RoomCount: 2},
			{Category: models.SharingDouble, BasePrice: 8500, RoomCount: 3},
			{Category: models.SharingTriple, BasePrice: 7000, RoomCount: 2},
			{Category: models.SharingQuad, BasePrice: 6000, RoomCount: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("seed property: %w", err)
	}

	var double *dtos.RoomDTO
	for i := range prop.Rooms {
		if prop.Rooms[i].Category == models.SharingDouble {
			double = &prop.Rooms[i]
			break
		}
	}
	if double == nil {
		return fmt.Errorf("seed property %s has no double room", prop.ID)
	}

	joined := time.Now().AddDate(0, -2, 0)
	for _, st := range []seedTenant{
		{SeedTenantOne, "Asha Rao", "asha@example.com", "+919800000001", 8500},
		{SeedTenantTwo, "Vikram Shah", "vikram@example.com", "+919800000002", 8000},
	} {
		userID := st.userID
		if _, err := svc.AssignTenant(ctx, SeedOwnerID, double.ID, dtos.AssignTenantRequest{
			Name:     st.name,
			Email:    st.email,
			Phone:    utils.Ptr(st.phone),
			UserID:   &userID,
			Rent:     st.rent,
			JoinDate: &joined,
		}); err != nil {
			return fmt.Errorf("seed tenant %s: %w", st.name, err)
		}
	}

	utils.Logger.WithField("propertyID", prop.ID).Info("Seeded demo property")
	return nil
}
