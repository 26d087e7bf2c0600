package staff

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
)

// Positions
const (
	PositionManager     = "manager"
	PositionAccountant  = "accountant"
	PositionSecurity    = "security"
	PositionMaintenance = "maintenance"
	PositionCleaning    = "cleaning"
	PositionOther       = "other"
)

// Employee is a member of the administration's staff.
type Employee struct {
	ID         string          `json:"id"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	NationalID string          `json:"national_id"`
	Position   string          `json:"position"`
	HiredOn    time.Time       `json:"hired_on"`
	LeftOn     null.Time       `json:"left_on,omitempty"`
	Salary     decimal.Decimal `json:"salary"`
	Phone      null.String     `json:"phone,omitempty"`
	Email      null.String     `json:"email,omitempty"`
	Address    string          `json:"address,omitempty"`
	Active     bool            `json:"active"`
	UserID     null.String     `json:"user_id,omitempty"`
	ShiftStart string          `json:"shift_start,omitempty"` // "HH:MM"
	ShiftEnd   string          `json:"shift_end,omitempty"`   // "HH:MM"
	WorkDays   string          `json:"work_days,omitempty"`
	CreatedAt  time.Time       `json:"created_at"` // UTC
	UpdatedAt  time.Time       `json:"updated_at"` // UTC
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// NewEmployee contains information needed to register an Employee.
type NewEmployee struct {
	FirstName  string          `json:"first_name" validate:"required,max=100"`
	LastName   string          `json:"last_name" validate:"required,max=100"`
	NationalID string          `json:"national_id" validate:"required,max=20,digitsdash"`
	Position   string          `json:"position" validate:"required,oneof=manager accountant security maintenance cleaning other"`
	HiredOn    time.Time       `json:"hired_on" validate:"required"`
	Salary     decimal.Decimal `json:"salary"`
	Phone      null.String     `json:"phone"`
	Email      null.String     `json:"email"`
	Address    string          `json:"address" validate:"omitempty,max=200"`
	UserID     null.String     `json:"user_id"`
	ShiftStart string          `json:"shift_start" validate:"omitempty,hhmm"`
	ShiftEnd   string          `json:"shift_end" validate:"omitempty,hhmm"`
	WorkDays   string          `json:"work_days" validate:"omitempty,max=50"`
}

func (ne *NewEmployee) Validate(validate *validator.Validate, svc *Service) error {
	ne.FirstName = core.CleanString(ne.FirstName)
	ne.LastName = core.CleanString(ne.LastName)
	ne.NationalID = core.CleanString(ne.NationalID)
	ne.Address = core.CleanString(ne.Address)

	if err := validate.Struct(ne); err != nil {
		return err
	}
	if ne.Salary.LessThan(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "salary", Error: "cannot be negative"})
	}
	return svc.checkUniqueness(ne.NationalID)
}

// UpdateEmployee defines what may be modified on an existing Employee.
type UpdateEmployee struct {
	FirstName  string           `json:"first_name" validate:"omitempty,max=100"`
	LastName   string           `json:"last_name" validate:"omitempty,max=100"`
	Position   string           `json:"position" validate:"omitempty,oneof=manager accountant security maintenance cleaning other"`
	LeftOn     null.Time        `json:"left_on"`
	Salary     *decimal.Decimal `json:"salary"`
	Phone      null.String      `json:"phone"`
	Email      null.String      `json:"email"`
	Address    string           `json:"address" validate:"omitempty,max=200"`
	Active     *bool            `json:"active"`
	UserID     null.String      `json:"user_id"`
	ShiftStart string           `json:"shift_start" validate:"omitempty,hhmm"`
	ShiftEnd   string           `json:"shift_end" validate:"omitempty,hhmm"`
	WorkDays   string           `json:"work_days" validate:"omitempty,max=50"`
}

func (ue *UpdateEmployee) Validate(validate *validator.Validate) error {
	ue.FirstName = core.CleanString(ue.FirstName)
	ue.LastName = core.CleanString(ue.LastName)
	ue.Address = core.CleanString(ue.Address)
	return validate.Struct(ue)
}

// QueryFilter filters employee listings; fields are ANDed.
type QueryFilter struct {
	Position string `query:"position"`
	Active   *bool  `query:"active"`
	Search   string `query:"search"` // matches name or national ID
}

func (qf *QueryFilter) Clean() {
	qf.Position = core.CleanString(qf.Position, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}
