package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/amenity"
)

type amenityRepository struct {
	db *DB
}

var _ amenity.Repository = (*amenityRepository)(nil) // interface compliance check

func NewAmenityRepository(db *DB) *amenityRepository {
	return &amenityRepository{db: db}
}

func (repo *amenityRepository) CreateAmenity(_ context.Context, am amenity.Amenity) (amenity.Amenity, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	am.ID = uuid.New().String()
	repo.db.amenities[am.ID] = am
	return am, nil
}

func (repo *amenityRepository) QueryAmenities(_ context.Context, activeOnly bool) ([]amenity.Amenity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ams := make([]amenity.Amenity, 0, len(repo.db.amenities))
	for _, am := range repo.db.amenities {
		if activeOnly && !am.Active {
			continue
		}
		ams = append(ams, am)
	}
	sort.Slice(ams, func(i, j int) bool { return ams[i].Name < ams[j].Name })
	return ams, nil
}

func (repo *amenityRepository) GetAmenity(_ context.Context, id string) (amenity.Amenity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if am, ok := repo.db.amenities[id]; ok {
		return am, nil
	}
	return amenity.Amenity{}, amenity.ErrNotFound
}

func (repo *amenityRepository) UpdateAmenity(_ context.Context, am amenity.Amenity) (amenity.Amenity, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.amenities[am.ID]; !ok {
		return amenity.Amenity{}, amenity.ErrNotFound
	}
	repo.db.amenities[am.ID] = am
	return am, nil
}

func (repo *amenityRepository) DeleteAmenitiesByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.amenities[id]; ok {
			delete(repo.db.amenities, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *amenityRepository) CreateBooking(_ context.Context, bkg amenity.Booking) (amenity.Booking, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// mirrors the partial unique index on (amenity_id, date, start_time)
	for _, b := range repo.db.bookings {
		if b.AmenityID == bkg.AmenityID && b.Date.Equal(bkg.Date) && b.StartTime == bkg.StartTime && b.Active() {
			return amenity.Booking{}, amenity.ErrSlotTaken
		}
	}

	bkg.ID = uuid.New().String()
	repo.db.bookings[bkg.ID] = bkg
	return bkg, nil
}

func (repo *amenityRepository) QueryBookings(_ context.Context, filter *amenity.BookingFilter, _ []core.DBOrdering) ([]amenity.Booking, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	bkgs := make([]amenity.Booking, 0, len(repo.db.bookings))
	for _, bkg := range repo.db.bookings {
		if filter != nil {
			if filter.AmenityID != "" && bkg.AmenityID != filter.AmenityID {
				continue
			}
			if filter.OwnerID != "" && bkg.OwnerID != filter.OwnerID {
				continue
			}
			if filter.Status != "" && bkg.Status != filter.Status {
				continue
			}
			if !filter.Date.IsZero() {
				y1, m1, d1 := bkg.Date.Date()
				y2, m2, d2 := filter.Date.Date()
				if y1 != y2 || m1 != m2 || d1 != d2 {
					continue
				}
			}
		}
		bkgs = append(bkgs, bkg)
	}
	sort.Slice(bkgs, func(i, j int) bool {
		if !bkgs[i].Date.Equal(bkgs[j].Date) {
			return bkgs[i].Date.Before(bkgs[j].Date)
		}
		return bkgs[i].StartTime < bkgs[j].StartTime
	})
	return bkgs, nil
}

func (repo *amenityRepository) GetBooking(_ context.Context, id string) (amenity.Booking, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if bkg, ok := repo.db.bookings[id]; ok {
		return bkg, nil
	}
	return amenity.Booking{}, amenity.ErrBookingNotFound
}

func (repo *amenityRepository) UpdateBooking(_ context.Context, bkg amenity.Booking) (amenity.Booking, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.bookings[bkg.ID]; !ok {
		return amenity.Booking{}, amenity.ErrBookingNotFound
	}
	repo.db.bookings[bkg.ID] = bkg
	return bkg, nil
}
