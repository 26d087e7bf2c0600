package property_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/property"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{AppName: "Altavista", TestMode: true}

func setup(t *testing.T) *property.Service {
	t.Helper()
	return property.NewService(conf, inmemdb.NewPropertyRepository(inmemdb.NewDB()))
}

func createHome(t *testing.T, svc *property.Service, block, number string) property.Home {
	t.Helper()
	hm, err := svc.CreateHome(property.NewHome{
		Block:                block,
		Number:               number,
		AreaM2:               decimal.NewFromInt(72),
		OwnershipCoefficient: decimal.RequireFromString("0.0125"),
	})
	require.NoError(t, err)
	return hm
}

func createOwner(t *testing.T, svc *property.Service, first, last, nid string) property.Owner {
	t.Helper()
	own, err := svc.CreateOwner(property.NewOwner{
		FirstName:  first,
		LastName:   last,
		NationalID: nid,
	})
	require.NoError(t, err)
	return own
}

func TestHomeLabelAndFee(t *testing.T) {
	hm := property.Home{
		Block:                property.BlockA,
		Number:               "12",
		OwnershipCoefficient: decimal.RequireFromString("0.0125"),
	}
	assert.Equal(t, "Casa A-12", hm.Label())

	amount := hm.FeeAmount(decimal.NewFromInt(100000))
	assert.True(t, amount.Equal(decimal.NewFromInt(1250)), "got %s", amount)
}

func TestAssignRelease(t *testing.T) {
	svc := setup(t)
	hm := createHome(t, svc, property.BlockA, "1")
	own := createOwner(t, svc, "Maria", "Lopez", "1020304050")

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rel, err := svc.Assign(hm.ID, property.AssignOwner{OwnerID: own.ID, StartDate: start})
	require.NoError(t, err)
	assert.True(t, rel.IsOwner, "defaults to owner, not tenant")
	assert.True(t, rel.Active())

	// no duplicate open relation
	var vErr *core.ValidationError
	_, err = svc.Assign(hm.ID, property.AssignOwner{OwnerID: own.ID, StartDate: start})
	require.ErrorAs(t, err, &vErr)

	homes, err := svc.QueryOwnerHomes(own.ID)
	require.NoError(t, err)
	require.Len(t, homes, 1)
	assert.Equal(t, hm.ID, homes[0].ID)

	require.NoError(t, svc.Release(hm.ID, own.ID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	active, err := svc.QueryHomeOwners(hm.ID, true /* activeOnly */)
	require.NoError(t, err)
	assert.Empty(t, active)

	// history stays
	all, err := svc.QueryHomeOwners(hm.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// released owner can come back
	_, err = svc.Assign(hm.ID, property.AssignOwner{OwnerID: own.ID, StartDate: time.Now().UTC()})
	assert.NoError(t, err)
}

func TestGetOwnerByUserID(t *testing.T) {
	svc := setup(t)

	own, err := svc.CreateOwner(property.NewOwner{
		FirstName:  "Juan",
		LastName:   "Perez",
		NationalID: "9080706050",
		UserID:     null.StringFrom("user-1"),
	})
	require.NoError(t, err)

	got, err := svc.GetOwnerByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, own.ID, got.ID)
	assert.Equal(t, "Juan Perez", got.FullName())

	_, err = svc.GetOwnerByUserID("nope")
	assert.Equal(t, property.ErrOwnerNotFound, err)
}

func TestOpenRelationHeldAtRepoLevel(t *testing.T) {
	repo := inmemdb.NewPropertyRepository(inmemdb.NewDB())
	ctx := context.Background()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	rel := property.HomeOwner{OwnerID: "own-1", HomeID: "home-1", StartDate: start}
	_, err := repo.CreateHomeOwner(ctx, rel)
	require.NoError(t, err)

	// a second open relation for the same pair is refused even without
	// going through the service
	_, err = repo.CreateHomeOwner(ctx, rel)
	assert.Equal(t, property.ErrAlreadyAssigned, err)

	// a closed relation does not block a new one
	closed := property.HomeOwner{
		OwnerID:   "own-1",
		HomeID:    "home-2",
		StartDate: start,
		EndDate:   null.TimeFrom(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	_, err = repo.CreateHomeOwner(ctx, closed)
	require.NoError(t, err)
	_, err = repo.CreateHomeOwner(ctx, property.HomeOwner{OwnerID: "own-1", HomeID: "home-2", StartDate: start})
	assert.NoError(t, err)
}
