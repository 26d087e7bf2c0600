package property

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
)

// Blocks ("manzanas") of the complex. Every home belongs to one.
const (
	BlockA = "A"
	BlockB = "B"
	BlockC = "C"
	BlockD = "D"
)

var Blocks = []string{BlockA, BlockB, BlockC, BlockD}

// Home represents a single house in the complex. All homes are two-storey
// houses; the ownership coefficient is their share of common expenses.
type Home struct {
	ID                   string          `json:"id"`
	Block                string          `json:"block"`
	Number               string          `json:"number"`
	AreaM2               decimal.Decimal `json:"area_m2"`
	BuiltAreaM2          decimal.Decimal `json:"built_area_m2"`
	OwnershipCoefficient decimal.Decimal `json:"ownership_coefficient"` // in [0, 1]
	Inhabited            bool            `json:"inhabited"`
	HasExtension         bool            `json:"has_extension"`
	DeliveredOn          null.Time       `json:"delivered_on,omitempty"`
	CreatedAt            time.Time       `json:"created_at"` // UTC
	UpdatedAt            time.Time       `json:"updated_at"` // UTC
}

// Label returns the home's human identification, e.g. "Casa A-12".
func (h Home) Label() string {
	return fmt.Sprintf("Casa %s-%s", h.Block, h.Number)
}

// FeeAmount computes this home's share of a base fee amount.
func (h Home) FeeAmount(baseAmount decimal.Decimal) decimal.Decimal {
	return baseAmount.Mul(h.OwnershipCoefficient).Round(2)
}

// Owner represents an owner or resident of one or more homes.
type Owner struct {
	ID           string      `json:"id"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	NationalID   string      `json:"national_id"`
	Phone        null.String `json:"phone,omitempty"`
	Email        null.String `json:"email,omitempty"`
	UserID       null.String `json:"user_id,omitempty"` // linked system account
	RegisteredOn time.Time   `json:"registered_on"`
}

func (o Owner) FullName() string {
	return o.FirstName + " " + o.LastName
}

// HomeOwner relates an owner (or tenant) to a home, keeping the full
// occupancy history. An open relation has no end date.
type HomeOwner struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	HomeID    string    `json:"home_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   null.Time `json:"end_date,omitempty"`
	IsOwner   bool      `json:"is_owner"` // false = tenant
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (ho HomeOwner) Active() bool {
	return !ho.EndDate.Valid || ho.EndDate.Time.After(time.Now())
}

// NewHome contains information needed to register a new Home.
type NewHome struct {
	Block                string          `json:"block" validate:"required,oneof=A B C D"`
	Number               string          `json:"number" validate:"required,max=10"`
	AreaM2               decimal.Decimal `json:"area_m2"`
	BuiltAreaM2          decimal.Decimal `json:"built_area_m2"`
	OwnershipCoefficient decimal.Decimal `json:"ownership_coefficient"`
	Inhabited            *bool           `json:"inhabited"`
	HasExtension         bool            `json:"has_extension"`
	DeliveredOn          null.Time       `json:"delivered_on"`
}

func (nh *NewHome) Validate(validate *validator.Validate, svc *Service) error {
	nh.Block = core.CleanString(nh.Block)
	nh.Number = core.CleanString(nh.Number)

	if err := validate.Struct(nh); err != nil {
		return err
	}
	if err := validateCoefficient(nh.OwnershipCoefficient); err != nil {
		return err
	}
	if nh.AreaM2.LessThanOrEqual(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "area_m2", Error: "must be greater than zero"})
	}
	return svc.checkHomeUniqueness(nh.Block, nh.Number)
}

// UpdateHome defines what information may be provided to modify an existing Home.
type UpdateHome struct {
	AreaM2               *decimal.Decimal `json:"area_m2"`
	BuiltAreaM2          *decimal.Decimal `json:"built_area_m2"`
	OwnershipCoefficient *decimal.Decimal `json:"ownership_coefficient"`
	Inhabited            *bool            `json:"inhabited"`
	HasExtension         *bool            `json:"has_extension"`
	DeliveredOn          null.Time        `json:"delivered_on"`
}

func (uh *UpdateHome) Validate(validate *validator.Validate) error {
	if err := validate.Struct(uh); err != nil {
		return err
	}
	if uh.OwnershipCoefficient != nil {
		return validateCoefficient(*uh.OwnershipCoefficient)
	}
	return nil
}

func validateCoefficient(c decimal.Decimal) error {
	if c.LessThan(decimal.Zero) || c.GreaterThan(decimal.NewFromInt(1)) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "ownership_coefficient", Error: "must be between 0 and 1",
		})
	}
	return nil
}

// NewOwner contains information needed to register a new Owner.
type NewOwner struct {
	FirstName  string      `json:"first_name" validate:"required,max=100"`
	LastName   string      `json:"last_name" validate:"required,max=100"`
	NationalID string      `json:"national_id" validate:"required,max=20,digitsdash"`
	Phone      null.String `json:"phone"`
	Email      null.String `json:"email" validate:"omitempty"`
	UserID     null.String `json:"user_id"`
}

func (no *NewOwner) Validate(validate *validator.Validate, svc *Service) error {
	no.FirstName = core.CleanString(no.FirstName)
	no.LastName = core.CleanString(no.LastName)
	no.NationalID = core.CleanString(no.NationalID)
	if no.Email.Valid {
		no.Email.String = core.CleanString(no.Email.String, true /* lower */)
	}

	if err := validate.Struct(no); err != nil {
		return err
	}
	if no.Email.Valid && no.Email.String != "" {
		if err := validate.Var(no.Email.String, "email"); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "invalid email address"})
		}
	}
	return svc.checkOwnerUniqueness(no.NationalID)
}

// UpdateOwner defines what information may be provided to modify an existing Owner.
type UpdateOwner struct {
	FirstName string      `json:"first_name" validate:"omitempty,max=100"`
	LastName  string      `json:"last_name" validate:"omitempty,max=100"`
	Phone     null.String `json:"phone"`
	Email     null.String `json:"email"`
	UserID    null.String `json:"user_id"`
}

func (uo *UpdateOwner) Validate(origOwner Owner, validate *validator.Validate) error {
	fname := core.CleanString(uo.FirstName)
	if fname != "" {
		uo.FirstName = fname
	} else {
		uo.FirstName = origOwner.FirstName
	}

	lname := core.CleanString(uo.LastName)
	if lname != "" {
		uo.LastName = lname
	} else {
		uo.LastName = origOwner.LastName
	}

	if uo.Email.Valid {
		uo.Email.String = core.CleanString(uo.Email.String, true /* lower */)
	}
	return validate.Struct(uo)
}

// AssignOwner relates an owner (or tenant) to a home.
type AssignOwner struct {
	OwnerID   string    `json:"owner_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	IsOwner   *bool     `json:"is_owner"`
	Notes     string    `json:"notes"`
}

func (ao *AssignOwner) Validate(validate *validator.Validate) error {
	ao.Notes = core.CleanString(ao.Notes)
	return validate.Struct(ao)
}

// HomeFilter filters home listings; fields are ANDed.
type HomeFilter struct {
	Block     string `query:"block"`
	Search    string `query:"search"` // matches number
	Inhabited *bool  `query:"inhabited"`
}

func (hf *HomeFilter) Clean() {
	hf.Block = core.CleanString(hf.Block)
	hf.Search = core.CleanString(hf.Search)
}

// OwnerFilter filters owner listings; fields are ANDed.
type OwnerFilter struct {
	Search string `query:"search"` // matches name, national ID or email
}

func (of *OwnerFilter) Clean() {
	of.Search = core.CleanString(of.Search)
}
