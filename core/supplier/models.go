package supplier

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
)

// Supplier kinds
const (
	KindServices = "services"
	KindProducts = "products"
	KindBoth     = "both"
)

// Statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusBlocked  = "blocked"
)

// Supplier is an external provider of goods or services.
type Supplier struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Kind         string      `json:"kind"`
	TaxID        string      `json:"tax_id"`
	Address      string      `json:"address,omitempty"`
	Phone        null.String `json:"phone,omitempty"`
	Email        null.String `json:"email,omitempty"`
	ContactName  string      `json:"contact_name,omitempty"`
	ContactPhone null.String `json:"contact_phone,omitempty"`
	Offering     string      `json:"offering,omitempty"`
	Status       string      `json:"status"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

func (s Supplier) Active() bool { return s.Status == StatusActive }

// NewSupplier contains information needed to register a Supplier.
type NewSupplier struct {
	Name         string      `json:"name" validate:"required,max=150"`
	Kind         string      `json:"kind" validate:"required,oneof=services products both"`
	TaxID        string      `json:"tax_id" validate:"required,max=20,digitsdash"`
	Address      string      `json:"address" validate:"omitempty,max=200"`
	Phone        null.String `json:"phone"`
	Email        null.String `json:"email"`
	ContactName  string      `json:"contact_name" validate:"omitempty,max=100"`
	ContactPhone null.String `json:"contact_phone"`
	Offering     string      `json:"offering"`
	Notes        string      `json:"notes"`
}

func (ns *NewSupplier) Validate(validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.TaxID = core.CleanString(ns.TaxID)
	ns.Address = core.CleanString(ns.Address)
	ns.ContactName = core.CleanString(ns.ContactName)
	ns.Offering = core.CleanString(ns.Offering)
	ns.Notes = core.CleanString(ns.Notes)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ns.TaxID)
}

// UpdateSupplier defines what may be modified on an existing Supplier.
type UpdateSupplier struct {
	Name         string      `json:"name" validate:"omitempty,max=150"`
	Kind         string      `json:"kind" validate:"omitempty,oneof=services products both"`
	Address      string      `json:"address" validate:"omitempty,max=200"`
	Phone        null.String `json:"phone"`
	Email        null.String `json:"email"`
	ContactName  string      `json:"contact_name" validate:"omitempty,max=100"`
	ContactPhone null.String `json:"contact_phone"`
	Offering     string      `json:"offering"`
	Status       string      `json:"status" validate:"omitempty,oneof=active inactive blocked"`
	Notes        string      `json:"notes"`
}

func (us *UpdateSupplier) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Address = core.CleanString(us.Address)
	us.ContactName = core.CleanString(us.ContactName)
	us.Offering = core.CleanString(us.Offering)
	us.Notes = core.CleanString(us.Notes)
	return validate.Struct(us)
}

// QueryFilter filters supplier listings; fields are ANDed.
type QueryFilter struct {
	Status string `query:"status"`
	Kind   string `query:"kind"`
	Search string `query:"search"` // matches name or tax ID
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}
