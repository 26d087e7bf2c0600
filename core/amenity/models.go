package amenity

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
)

// Amenity kinds
const (
	KindRecreation = "recreation"
	KindSocial     = "social"
	KindSports     = "sports"
	KindService    = "service"
	KindOther      = "other"
)

// Booking statuses
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
	BookingNoShow    = "no_show"
)

// Amenity is a common area of the complex. Times of day are "HH:MM".
type Amenity struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Kind            string          `json:"kind"`
	Description     string          `json:"description,omitempty"`
	Capacity        int             `json:"capacity"`
	RequiresBooking bool            `json:"requires_booking"`
	OpensAt         string          `json:"opens_at"`
	ClosesAt        string          `json:"closes_at"`
	Active          bool            `json:"active"`
	Location        string          `json:"location,omitempty"`
	UsageRules      string          `json:"usage_rules,omitempty"`
	UsageFee        decimal.Decimal `json:"usage_fee"`
	CreatedAt       time.Time       `json:"created_at"` // UTC
	UpdatedAt       time.Time       `json:"updated_at"` // UTC
}

// Booking reserves an amenity for an owner on a date. At most one
// booking per (amenity, date, start time).
type Booking struct {
	ID          string          `json:"id"`
	AmenityID   string          `json:"amenity_id"`
	OwnerID     string          `json:"owner_id"`
	Date        time.Time       `json:"date"` // date only
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Status      string          `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	GuestCount  int             `json:"guest_count"`
	Reason      string          `json:"reason,omitempty"`
	RequestedAt time.Time       `json:"requested_at"`
	ConfirmedAt null.Time       `json:"confirmed_at,omitempty"`
	ConfirmedBy null.String     `json:"confirmed_by,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Paid        bool            `json:"paid"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
	UpdatedAt   time.Time       `json:"updated_at"` // UTC
}

func (b Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// Overlaps reports whether two time windows on the same day intersect.
// Times are "HH:MM" so string comparison is chronological.
func Overlaps(start1, end1, start2, end2 string) bool {
	return start1 < end2 && start2 < end1
}

// NewAmenity contains information needed to register a common area.
type NewAmenity struct {
	Name            string          `json:"name" validate:"required,max=100"`
	Kind            string          `json:"kind" validate:"required,oneof=recreation social sports service other"`
	Description     string          `json:"description"`
	Capacity        int             `json:"capacity" validate:"min=0"`
	RequiresBooking *bool           `json:"requires_booking"`
	OpensAt         string          `json:"opens_at" validate:"required,hhmm"`
	ClosesAt        string          `json:"closes_at" validate:"required,hhmm"`
	Location        string          `json:"location" validate:"omitempty,max=200"`
	UsageRules      string          `json:"usage_rules"`
	UsageFee        decimal.Decimal `json:"usage_fee"`
}

func (na *NewAmenity) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Description = core.CleanString(na.Description)
	na.Location = core.CleanString(na.Location)
	na.UsageRules = core.CleanString(na.UsageRules)

	if err := validate.Struct(na); err != nil {
		return err
	}
	if na.ClosesAt <= na.OpensAt {
		return core.NewValidationError(nil, core.FieldError{Field: "closes_at", Error: "must be after opening time"})
	}
	if na.UsageFee.LessThan(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "usage_fee", Error: "cannot be negative"})
	}
	return nil
}

// UpdateAmenity defines what may be modified on an existing common area.
type UpdateAmenity struct {
	Name            string           `json:"name" validate:"omitempty,max=100"`
	Kind            string           `json:"kind" validate:"omitempty,oneof=recreation social sports service other"`
	Description     string           `json:"description"`
	Capacity        *int             `json:"capacity"`
	RequiresBooking *bool            `json:"requires_booking"`
	OpensAt         string           `json:"opens_at" validate:"omitempty,hhmm"`
	ClosesAt        string           `json:"closes_at" validate:"omitempty,hhmm"`
	Active          *bool            `json:"active"`
	Location        string           `json:"location" validate:"omitempty,max=200"`
	UsageRules      string           `json:"usage_rules"`
	UsageFee        *decimal.Decimal `json:"usage_fee"`
}

func (ua *UpdateAmenity) Validate(validate *validator.Validate) error {
	ua.Name = core.CleanString(ua.Name)
	ua.Description = core.CleanString(ua.Description)
	ua.Location = core.CleanString(ua.Location)
	ua.UsageRules = core.CleanString(ua.UsageRules)
	return validate.Struct(ua)
}

// NewBooking contains information needed to request a booking.
type NewBooking struct {
	OwnerID    string          `json:"owner_id" validate:"required"`
	Date       time.Time       `json:"date" validate:"required"`
	StartTime  string          `json:"start_time" validate:"required,hhmm"`
	EndTime    string          `json:"end_time" validate:"required,hhmm"`
	GuestCount int             `json:"guest_count" validate:"min=0"`
	Reason     string          `json:"reason" validate:"omitempty,max=200"`
	Notes      string          `json:"notes"`
	Cost       decimal.Decimal `json:"cost"` // zero = amenity fee
}

func (nb *NewBooking) Validate(validate *validator.Validate) error {
	nb.Reason = core.CleanString(nb.Reason)
	nb.Notes = core.CleanString(nb.Notes)

	if err := validate.Struct(nb); err != nil {
		return err
	}
	if nb.EndTime <= nb.StartTime {
		return core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: "must be after start time"})
	}
	return nil
}

// BookingFilter filters booking listings; fields are ANDed.
type BookingFilter struct {
	AmenityID string    `query:"amenity_id"`
	OwnerID   string    `query:"owner_id"`
	Status    string    `query:"status"`
	Date      time.Time `query:"date"`
}

func (bf *BookingFilter) Clean() {
	bf.Status = core.CleanString(bf.Status, true /* lower */)
}

// Availability answers an availability check.
type Availability struct {
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
	Conflicts []Booking `json:"conflicts,omitempty"`
}
