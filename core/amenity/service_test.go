package amenity_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/amenity"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/property"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{AppName: "Altavista", TestMode: true}

type testEnv struct {
	svc       *amenity.Service
	residents *property.Service
	ledger    *finance.Service
	owner     property.Owner
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db := inmemdb.NewDB()
	residents := property.NewService(conf, inmemdb.NewPropertyRepository(db))
	ledger := finance.NewService(conf, inmemdb.NewFinanceRepository(db))
	svc := amenity.NewService(conf, inmemdb.NewAmenityRepository(db), residents, ledger)

	own, err := residents.CreateOwner(property.NewOwner{
		FirstName:  "Juan",
		LastName:   "Perez",
		NationalID: "8090706050",
	})
	require.NoError(t, err)
	return testEnv{svc: svc, residents: residents, ledger: ledger, owner: own}
}

func createAmenity(t *testing.T, svc *amenity.Service, name string, fee int64) amenity.Amenity {
	t.Helper()
	am, err := svc.CreateAmenity(amenity.NewAmenity{
		Name:     name,
		Kind:     "social",
		Capacity: 40,
		OpensAt:  "08:00",
		ClosesAt: "22:00",
		UsageFee: decimal.NewFromInt(fee),
	})
	require.NoError(t, err)
	return am
}

func tomorrow() time.Time {
	return time.Now().UTC().AddDate(0, 0, 1)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		start1, end1, start2, end2 string
		want                       bool
	}{
		{name: "disjoint before", start1: "08:00", end1: "10:00", start2: "10:00", end2: "12:00", want: false},
		{name: "disjoint after", start1: "12:00", end1: "14:00", start2: "10:00", end2: "12:00", want: false},
		{name: "partial overlap", start1: "09:00", end1: "11:00", start2: "10:00", end2: "12:00", want: true},
		{name: "contained", start1: "10:30", end1: "11:30", start2: "10:00", end2: "12:00", want: true},
		{name: "identical", start1: "10:00", end1: "12:00", start2: "10:00", end2: "12:00", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, amenity.Overlaps(tt.start1, tt.end1, tt.start2, tt.end2))
		})
	}
}

func TestBook(t *testing.T) {
	env := setup(t)
	am := createAmenity(t, env.svc, "Salon social", 0)

	var vErr *core.ValidationError

	// past dates are refused
	_, err := env.svc.Book(am.ID, amenity.NewBooking{
		OwnerID:   env.owner.ID,
		Date:      time.Now().UTC().AddDate(0, 0, -1),
		StartTime: "10:00",
		EndTime:   "12:00",
	})
	require.ErrorAs(t, err, &vErr)

	// outside opening hours
	_, err = env.svc.Book(am.ID, amenity.NewBooking{
		OwnerID:   env.owner.ID,
		Date:      tomorrow(),
		StartTime: "06:00",
		EndTime:   "09:00",
	})
	require.ErrorAs(t, err, &vErr)

	bkg, err := env.svc.Book(am.ID, amenity.NewBooking{
		OwnerID:   env.owner.ID,
		Date:      tomorrow(),
		StartTime: "10:00",
		EndTime:   "12:00",
	})
	require.NoError(t, err)
	assert.Equal(t, amenity.BookingPending, bkg.Status)

	// overlapping window is taken
	_, err = env.svc.Book(am.ID, amenity.NewBooking{
		OwnerID:   env.owner.ID,
		Date:      tomorrow(),
		StartTime: "11:00",
		EndTime:   "13:00",
	})
	require.ErrorAs(t, err, &vErr)

	// adjacent window is free
	_, err = env.svc.Book(am.ID, amenity.NewBooking{
		OwnerID:   env.owner.ID,
		Date:      tomorrow(),
		StartTime: "12:00",
		EndTime:   "14:00",
	})
	assert.NoError(t, err)

	avail, err := env.svc.CheckAvailability(am.ID, tomorrow(), "10:00", "11:00")
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.NotEmpty(t, avail.Conflicts)

	avail, err = env.svc.CheckAvailability(am.ID, tomorrow(), "14:00", "16:00")
	require.NoError(t, err)
	assert.True(t, avail.Available)
}

func TestBookInactiveAmenity(t *testing.T) {
	env := setup(t)
	am := createAmenity(t, env.svc, "Piscina", 0)

	active := false
	_, err := env.svc.UpdateAmenity(am.ID, amenity.UpdateAmenity{Active: &active})
	require.NoError(t, err)

	var vErr *core.ValidationError
	_, err = env.svc.Book(am.ID, amenity.NewBooking{
		OwnerID:   env.owner.ID,
		Date:      tomorrow(),
		StartTime: "10:00",
		EndTime:   "12:00",
	})
	require.ErrorAs(t, err, &vErr)
}

func TestBookingLifecycle(t *testing.T) {
	env := setup(t)
	am := createAmenity(t, env.svc, "Salon social", 50000)

	bkg, err := env.svc.Book(am.ID, amenity.NewBooking{
		OwnerID:   env.owner.ID,
		Date:      tomorrow(),
		StartTime: "10:00",
		EndTime:   "12:00",
	})
	require.NoError(t, err)
	assert.True(t, bkg.Cost.Equal(decimal.NewFromInt(50000)), "usage fee should default the cost")

	// confirming a priced booking records ledger income
	bkg, err = env.svc.ConfirmBooking(bkg.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, amenity.BookingConfirmed, bkg.Status)
	assert.True(t, bkg.Paid)
	require.True(t, bkg.ConfirmedAt.Valid)

	txns, err := env.ledger.QueryTransactions(&finance.TransactionFilter{Category: finance.CategoryBookings}, nil)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].Amount.Equal(bkg.Cost))

	var vErr *core.ValidationError
	_, err = env.svc.ConfirmBooking(bkg.ID, "admin")
	require.ErrorAs(t, err, &vErr)

	// completing
	bkg, err = env.svc.CompleteBooking(bkg.ID, false)
	require.NoError(t, err)
	assert.Equal(t, amenity.BookingCompleted, bkg.Status)

	// a completed booking cannot be cancelled
	_, err = env.svc.CancelBooking(bkg.ID, "changed plans")
	require.ErrorAs(t, err, &vErr)
}

func TestCancelBooking(t *testing.T) {
	env := setup(t)
	am := createAmenity(t, env.svc, "BBQ", 0)

	bkg, err := env.svc.Book(am.ID, amenity.NewBooking{
		OwnerID:   env.owner.ID,
		Date:      tomorrow(),
		StartTime: "15:00",
		EndTime:   "18:00",
	})
	require.NoError(t, err)

	bkg, err = env.svc.CancelBooking(bkg.ID, "rain")
	require.NoError(t, err)
	assert.Equal(t, amenity.BookingCancelled, bkg.Status)
	assert.Contains(t, bkg.Notes, "[CANCELLED] rain")

	// the cancelled slot is free again
	_, err = env.svc.Book(am.ID, amenity.NewBooking{
		OwnerID:   env.owner.ID,
		Date:      tomorrow(),
		StartTime: "15:00",
		EndTime:   "18:00",
	})
	assert.NoError(t, err)
}

func TestBookingSlotHeldAtRepoLevel(t *testing.T) {
	repo := inmemdb.NewAmenityRepository(inmemdb.NewDB())
	ctx := context.Background()
	day := tomorrow()

	bkg := amenity.Booking{
		AmenityID: "am-1",
		OwnerID:   "own-1",
		Date:      day,
		StartTime: "10:00",
		EndTime:   "12:00",
		Status:    amenity.BookingPending,
	}
	_, err := repo.CreateBooking(ctx, bkg)
	require.NoError(t, err)

	// the same slot is refused even without going through the service
	_, err = repo.CreateBooking(ctx, bkg)
	assert.Equal(t, amenity.ErrSlotTaken, err)

	// cancelled bookings do not hold the slot
	cancelled := bkg
	cancelled.StartTime = "14:00"
	cancelled.Status = amenity.BookingCancelled
	_, err = repo.CreateBooking(ctx, cancelled)
	require.NoError(t, err)
	fresh := bkg
	fresh.StartTime = "14:00"
	_, err = repo.CreateBooking(ctx, fresh)
	assert.NoError(t, err)
}
