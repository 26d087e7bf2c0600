package amenity

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/property"
)

var (
	// errors
	ErrNotFound         = errors.New("amenity not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrNotBookable      = errors.New("amenity does not take bookings or is inactive")
	ErrPastDate         = errors.New("cannot book a past date")
	ErrOutsideHours     = errors.New("requested window is outside opening hours")
	ErrSlotTaken        = errors.New("requested window overlaps an existing booking")
	ErrNotConfirmable   = errors.New("only pending bookings can be confirmed")
	ErrNotCancellable   = errors.New("only pending or confirmed bookings can be cancelled")
	ErrBookingNotActive = errors.New("booking is not active")
)

type (
	Repository interface {
		CreateAmenity(ctx context.Context, am Amenity) (Amenity, error)
		// QueryAmenities lists amenities by name; activeOnly hides inactive ones.
		QueryAmenities(ctx context.Context, activeOnly bool) ([]Amenity, error)
		GetAmenity(ctx context.Context, id string) (Amenity, error)
		UpdateAmenity(ctx context.Context, am Amenity) (Amenity, error)
		DeleteAmenitiesByID(ctx context.Context, ids []string) (int, error)

		CreateBooking(ctx context.Context, bkg Booking) (Booking, error)
		// QueryBookings applies AND operation on available BookingFilter fields.
		QueryBookings(ctx context.Context, filter *BookingFilter, ordering []core.DBOrdering) ([]Booking, error)
		GetBooking(ctx context.Context, id string) (Booking, error)
		UpdateBooking(ctx context.Context, bkg Booking) (Booking, error)
	}

	Service struct {
		conf      *core.Config
		repo      Repository
		residents *property.Service
		ledger    *finance.Service
	}
)

func NewService(conf *core.Config, repo Repository, residents *property.Service, ledger *finance.Service) *Service {
	return &Service{conf: conf, repo: repo, residents: residents, ledger: ledger}
}

func (svc *Service) CreateAmenity(na NewAmenity) (Amenity, error) {
	now := time.Now().UTC()
	am := Amenity{
		Name:            na.Name,
		Kind:            na.Kind,
		Description:     na.Description,
		Capacity:        na.Capacity,
		RequiresBooking: true,
		OpensAt:         na.OpensAt,
		ClosesAt:        na.ClosesAt,
		Active:          true,
		Location:        na.Location,
		UsageRules:      na.UsageRules,
		UsageFee:        na.UsageFee,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if na.RequiresBooking != nil {
		am.RequiresBooking = *na.RequiresBooking
	}
	return svc.repo.CreateAmenity(context.Background(), am)
}

func (svc *Service) QueryAmenities(activeOnly bool) ([]Amenity, error) {
	return svc.repo.QueryAmenities(context.Background(), activeOnly)
}

func (svc *Service) GetAmenityByID(id string) (Amenity, error) {
	return svc.repo.GetAmenity(context.Background(), id)
}

func (svc *Service) UpdateAmenity(id string, ua UpdateAmenity) (Amenity, error) {
	am, err := svc.GetAmenityByID(id)
	if err != nil {
		return Amenity{}, err
	}
	if ua.Name != "" {
		am.Name = ua.Name
	}
	if ua.Kind != "" {
		am.Kind = ua.Kind
	}
	if ua.Description != "" {
		am.Description = ua.Description
	}
	if ua.Capacity != nil {
		am.Capacity = *ua.Capacity
	}
	if ua.RequiresBooking != nil {
		am.RequiresBooking = *ua.RequiresBooking
	}
	if ua.OpensAt != "" {
		am.OpensAt = ua.OpensAt
	}
	if ua.ClosesAt != "" {
		am.ClosesAt = ua.ClosesAt
	}
	if ua.Active != nil {
		am.Active = *ua.Active
	}
	if ua.Location != "" {
		am.Location = ua.Location
	}
	if ua.UsageRules != "" {
		am.UsageRules = ua.UsageRules
	}
	if ua.UsageFee != nil {
		am.UsageFee = *ua.UsageFee
	}
	if am.ClosesAt <= am.OpensAt {
		return Amenity{}, core.NewValidationError(nil, core.FieldError{
			Field: "closes_at", Error: "must be after opening time",
		})
	}
	am.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAmenity(context.Background(), am)
}

func (svc *Service) DeleteAmenities(ids ...string) error {
	_, err := svc.repo.DeleteAmenitiesByID(context.Background(), ids)
	return err
}

// dateOnly truncates to midnight UTC so bookings compare by day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckAvailability reports whether a window is free on an amenity.
// Only active (pending or confirmed) bookings block a slot.
func (svc *Service) CheckAvailability(amenityID string, date time.Time, from, to string) (Availability, error) {
	am, err := svc.GetAmenityByID(amenityID)
	if err != nil {
		return Availability{}, err
	}
	if !am.Active || !am.RequiresBooking {
		return Availability{Reason: ErrNotBookable.Error()}, nil
	}
	if from < am.OpensAt || to > am.ClosesAt {
		return Availability{Reason: fmt.Sprintf("open %s to %s", am.OpensAt, am.ClosesAt)}, nil
	}

	bkgs, err := svc.repo.QueryBookings(context.Background(), &BookingFilter{
		AmenityID: amenityID, Date: dateOnly(date),
	}, nil)
	if err != nil {
		return Availability{}, err
	}

	var conflicts []Booking
	for _, bkg := range bkgs {
		if bkg.Active() && Overlaps(from, to, bkg.StartTime, bkg.EndTime) {
			conflicts = append(conflicts, bkg)
		}
	}
	if len(conflicts) > 0 {
		return Availability{Reason: ErrSlotTaken.Error(), Conflicts: conflicts}, nil
	}
	return Availability{Available: true}, nil
}

// Book requests a booking. The window must be inside opening hours, on
// a non-past date, and free of overlapping active bookings.
func (svc *Service) Book(amenityID string, nb NewBooking) (Booking, error) {
	am, err := svc.GetAmenityByID(amenityID)
	if err != nil {
		return Booking{}, err
	}
	if !am.Active || !am.RequiresBooking {
		return Booking{}, core.NewValidationError(ErrNotBookable)
	}
	if _, err := svc.residents.GetOwnerByID(nb.OwnerID); err != nil {
		return Booking{}, err
	}

	date := dateOnly(nb.Date)
	if date.Before(dateOnly(time.Now().UTC())) {
		return Booking{}, core.NewValidationError(ErrPastDate, core.FieldError{Field: "date", Error: ErrPastDate.Error()})
	}
	if nb.StartTime < am.OpensAt || nb.EndTime > am.ClosesAt {
		return Booking{}, core.NewValidationError(ErrOutsideHours, core.FieldError{
			Field: "start_time", Error: fmt.Sprintf("open %s to %s", am.OpensAt, am.ClosesAt),
		})
	}

	avail, err := svc.CheckAvailability(amenityID, date, nb.StartTime, nb.EndTime)
	if err != nil {
		return Booking{}, err
	}
	if !avail.Available {
		return Booking{}, core.NewValidationError(ErrSlotTaken, core.FieldError{Field: "start_time", Error: avail.Reason})
	}

	cost := nb.Cost
	if cost.IsZero() {
		cost = am.UsageFee
	}

	now := time.Now().UTC()
	bkg := Booking{
		AmenityID:   amenityID,
		OwnerID:     nb.OwnerID,
		Date:        date,
		StartTime:   nb.StartTime,
		EndTime:     nb.EndTime,
		Status:      BookingPending,
		Notes:       nb.Notes,
		GuestCount:  nb.GuestCount,
		Reason:      nb.Reason,
		RequestedAt: now,
		Cost:        cost,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	bkg, err = svc.repo.CreateBooking(context.Background(), bkg)
	if errors.Cause(err) == ErrSlotTaken { // lost the race against a concurrent booking
		return Booking{}, core.NewValidationError(ErrSlotTaken, core.FieldError{Field: "start_time", Error: ErrSlotTaken.Error()})
	}
	return bkg, err
}

func (svc *Service) QueryBookings(filter *BookingFilter, ordering []core.DBOrdering) ([]Booking, error) {
	if filter != nil && !filter.Date.IsZero() {
		filter.Date = dateOnly(filter.Date)
	}
	return svc.repo.QueryBookings(context.Background(), filter, ordering)
}

func (svc *Service) GetBooking(id string) (Booking, error) {
	return svc.repo.GetBooking(context.Background(), id)
}

// DayBookings lists an amenity's bookings of a day, earliest first.
func (svc *Service) DayBookings(amenityID string, date time.Time) ([]Booking, error) {
	return svc.repo.QueryBookings(context.Background(), &BookingFilter{
		AmenityID: amenityID, Date: dateOnly(date),
	}, []core.DBOrdering{{Field: "start_time"}})
}

func (svc *Service) OwnerBookings(ownerID string) ([]Booking, error) {
	return svc.repo.QueryBookings(context.Background(), &BookingFilter{OwnerID: ownerID},
		[]core.DBOrdering{{Field: "date"}, {Field: "start_time"}})
}

// ConfirmBooking moves a pending booking to confirmed, recording the
// usage fee as ledger income when the cost is above zero.
func (svc *Service) ConfirmBooking(id, confirmedBy string) (Booking, error) {
	bkg, err := svc.GetBooking(id)
	if err != nil {
		return Booking{}, err
	}
	if bkg.Status != BookingPending {
		return Booking{}, core.NewValidationError(ErrNotConfirmable)
	}

	if bkg.Cost.GreaterThan(decimal.Zero) {
		am, err := svc.GetAmenityByID(bkg.AmenityID)
		if err != nil {
			return Booking{}, err
		}
		desc := fmt.Sprintf("Booking %s %s", am.Name, bkg.Date.Format("2006-01-02"))
		if _, err := svc.ledger.RecordIncome(time.Now().UTC(), finance.CategoryBookings, desc,
			bkg.Cost, finance.MethodOther, "", confirmedBy); err != nil {
			return Booking{}, errors.Wrap(err, "recording income")
		}
		bkg.Paid = true
	}

	now := time.Now().UTC()
	bkg.Status = BookingConfirmed
	bkg.ConfirmedAt = null.TimeFrom(now)
	if confirmedBy != "" {
		bkg.ConfirmedBy = null.StringFrom(confirmedBy)
	}
	bkg.UpdatedAt = now
	return svc.repo.UpdateBooking(context.Background(), bkg)
}

// CancelBooking cancels a pending or confirmed booking, appending the
// reason to the notes.
func (svc *Service) CancelBooking(id, reason string) (Booking, error) {
	bkg, err := svc.GetBooking(id)
	if err != nil {
		return Booking{}, err
	}
	if !bkg.Active() {
		return Booking{}, core.NewValidationError(ErrNotCancellable)
	}
	bkg.Status = BookingCancelled
	if reason = core.CleanString(reason); reason != "" {
		if bkg.Notes != "" {
			bkg.Notes += " "
		}
		bkg.Notes += "[CANCELLED] " + reason
	}
	bkg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateBooking(context.Background(), bkg)
}

// CompleteBooking marks a confirmed booking completed or no-show.
func (svc *Service) CompleteBooking(id string, noShow bool) (Booking, error) {
	bkg, err := svc.GetBooking(id)
	if err != nil {
		return Booking{}, err
	}
	if bkg.Status != BookingConfirmed {
		return Booking{}, core.NewValidationError(ErrBookingNotActive)
	}
	if noShow {
		bkg.Status = BookingNoShow
	} else {
		bkg.Status = BookingCompleted
	}
	bkg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateBooking(context.Background(), bkg)
}
