package testhelpers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/config"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/stretchr/testify/require"
)

// Fixture wires an OccupancyService to a store with a clock the test
// controls.
type Fixture struct {
	T          testing.TB
	Ctx        context.Context
	Config     *config.Config
	Store      repositories.Store
	Service    *services.OccupancyService
	Dispatcher *services.Dispatcher
	Notifier   *RecordingNotifier
	OwnerID    uuid.UUID

	mu  sync.Mutex
	now time.Time
}

// NewFixture runs against a fresh memory store.
func NewFixture(t testing.TB) *Fixture {
	return NewFixtureWithStore(t, repositories.NewMemoryStore())
}

// NewFixtureWithStore runs against store, e.g. a migrated Postgres database.
func NewFixtureWithStore(t testing.TB, store repositories.Store) *Fixture {
	cfg := &config.Config{
		AppName:                "occupancy-service-test",
		NoticeWindowLastDay:    config.DefaultNoticeWindowLastDay,
		VacateReminderLeadDays: 2,
		OwnershipCacheTTL:      time.Minute,
	}
	guard := services.NewOwnershipGuard(store.Repos().Properties, cfg.OwnershipCacheTTL)
	notifier := &RecordingNotifier{}
	dispatcher := services.NewDispatcher(notifier)

	f := &Fixture{
		T:          t,
		Ctx:        context.Background(),
		Config:     cfg,
		Store:      store,
		Dispatcher: dispatcher,
		Notifier:   notifier,
		OwnerID:    uuid.New(),
		now:        time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC),
	}
	f.Service = services.NewOccupancyService(cfg, store, guard, dispatcher)
	f.Service.SetClock(f.Now)
	t.Cleanup(guard.Stop)
	return f
}

func (f *Fixture) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixture) SetNow(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// CreateProperty makes a UTC property for f.OwnerID with the given
// category → room count tiers.
func (f *Fixture) CreateProperty(tiers map[models.SharingCategory]int) *dtos.PropertyResponse {
	var in []dtos.RoomTypeInput
	for _, c := range models.AllSharingCategories {
		if n, ok := tiers[c]; ok {
			in = append(in, dtos.RoomTypeInput{Category: c, BasePrice: 5000, RoomCount: n})
		}
	}
	resp, err := f.Service.CreateProperty(f.Ctx, f.OwnerID, dtos.CreatePropertyRequest{
		Name:      "Test PG",
		Address:   "1 Test Street",
		City:      "Pune",
		TimeZone:  "UTC",
		RoomTypes: in,
	})
	require.NoError(f.T, err)
	return resp
}

// RoomNumbered finds a room of the property by number.
func (f *Fixture) RoomNumbered(p *dtos.PropertyResponse, number string) dtos.RoomDTO {
	for _, r := range p.Rooms {
		if r.RoomNumber == number {
			return r
		}
	}
	f.T.Fatalf("room %s not found in property %s", number, p.ID)
	return dtos.RoomDTO{}
}

// Assign puts a new tenant with their own login in the room.
func (f *Fixture) Assign(roomID uuid.UUID, name string) *models.Tenant {
	userID := uuid.New()
	resp, err := f.Service.AssignTenant(f.Ctx, f.OwnerID, roomID, dtos.AssignTenantRequest{
		Name:   name,
		Email:  name + "@example.com",
		UserID: &userID,
		Rent:   5000,
	})
	require.NoError(f.T, err)
	return resp.Tenant
}

// RoomType reloads a room type's stored counters.
func (f *Fixture) RoomType(id uuid.UUID) *models.RoomType {
	rt, err := f.Store.Repos().RoomTypes.GetByID(f.Ctx, id)
	require.NoError(f.T, err)
	require.NotNil(f.T, rt)
	return rt
}

func (f *Fixture) Room(id uuid.UUID) *models.Room {
	r, err := f.Store.Repos().Rooms.GetByID(f.Ctx, id)
	require.NoError(f.T, err)
	require.NotNil(f.T, r)
	return r
}

func (f *Fixture) Tenant(id uuid.UUID) *models.Tenant {
	t, err := f.Store.Repos().Tenants.GetByID(f.Ctx, id)
	require.NoError(f.T, err)
	require.NotNil(f.T, t)
	return t
}

// RequireConsistent fails the test unless the property verifies clean.
func (f *Fixture) RequireConsistent(propertyID uuid.UUID) {
	report, err := f.Service.VerifyProperty(f.Ctx, propertyID)
	require.NoError(f.T, err, "consistency issues: %+v", report)
	require.True(f.T, report.Consistent)
}
