package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/testhelpers"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProperty_MaterializesRooms(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{
		models.SharingSingle: 2,
		models.SharingDouble: 3,
		models.SharingTriple: 2,
		models.SharingQuad:   1,
	})

	assert.Equal(t, f.OwnerID, prop.OwnerID)
	assert.Equal(t, "UTC", prop.TimeZone)
	assert.Equal(t, 5, prop.NoticeWindowLastDay)
	require.Len(t, prop.RoomTypes, 4)
	require.Len(t, prop.Rooms, 8)

	totals := map[models.SharingCategory]int{}
	for _, rt := range prop.RoomTypes {
		assert.Equal(t, 0, rt.OccupiedBeds)
		assert.Equal(t, rt.TotalBeds, rt.AvailableBeds)
		totals[rt.Category] = rt.TotalBeds
	}
	assert.Equal(t, map[models.SharingCategory]int{
		models.SharingSingle: 2,
		models.SharingDouble: 6,
		models.SharingTriple: 6,
		models.SharingQuad:   4,
	}, totals)

	for _, r := range prop.Rooms {
		beds, err := models.BedsPerRoom(r.Category)
		require.NoError(t, err)
		assert.Equal(t, beds, r.MaxBeds, r.RoomNumber)
		assert.Equal(t, models.RoomStatusEmpty, r.Status)
	}
	f.RoomNumbered(prop, "Q01")
	f.RoomNumbered(prop, "T02")
	f.RequireConsistent(prop.ID)
}

func TestCreateProperty_Rejections(t *testing.T) {
	f := testhelpers.NewFixture(t)

	_, err := f.Service.CreateProperty(f.Ctx, f.OwnerID, dtos.CreatePropertyRequest{
		Name: "Dup",
		RoomTypes: []dtos.RoomTypeInput{
			{Category: models.SharingDouble, RoomCount: 1},
			{Category: models.SharingDouble, RoomCount: 2},
		},
	})
	assert.ErrorIs(t, err, utils.ErrDuplicateRoomType)

	_, err = f.Service.CreateProperty(f.Ctx, f.OwnerID, dtos.CreatePropertyRequest{
		Name:      "Odd",
		RoomTypes: []dtos.RoomTypeInput{{Category: "five", RoomCount: 1}},
	})
	assert.ErrorIs(t, err, utils.ErrUnknownCategory)

	list, err := f.Service.ListProperties(f.Ctx, f.OwnerID)
	require.NoError(t, err)
	assert.Empty(t, list.Results, "failed creates leave nothing behind")
}

func TestPropertyOwnership(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingSingle: 1})
	stranger := uuid.New()

	_, err := f.Service.GetProperty(f.Ctx, stranger, prop.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = f.Service.GetProperty(f.Ctx, f.OwnerID, uuid.New())
	assert.ErrorIs(t, err, utils.ErrPropertyNotFound)
	_, err = f.Service.MaterializeRooms(f.Ctx, stranger, prop.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = f.Service.GetRoster(f.Ctx, stranger, prop.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	theirs, err := f.Service.ListProperties(f.Ctx, stranger)
	require.NoError(t, err)
	assert.Equal(t, 0, theirs.Total)
	mine, err := f.Service.ListProperties(f.Ctx, f.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Total)
}

func TestUpdateProperty(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingSingle: 1})

	updated, err := f.Service.UpdateProperty(f.Ctx, f.OwnerID, prop.ID, dtos.UpdatePropertyRequest{
		Name:                utils.Ptr("Renamed PG"),
		NoticeWindowLastDay: utils.Ptr(12),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed PG", updated.Name)
	assert.Equal(t, "1 Test Street", updated.Address)
	assert.Equal(t, 12, updated.NoticeWindowLastDay)

	cleared, err := f.Service.UpdateProperty(f.Ctx, f.OwnerID, prop.ID, dtos.UpdatePropertyRequest{ClearNoticeWindow: true})
	require.NoError(t, err)
	assert.Equal(t, f.Config.NoticeWindowLastDay, cleared.NoticeWindowLastDay)

	_, err = f.Service.UpdateProperty(f.Ctx, uuid.New(), prop.ID, dtos.UpdatePropertyRequest{Name: utils.Ptr("x")})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}
