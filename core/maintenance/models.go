package maintenance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
)

// Job kinds
const (
	KindPreventive  = "preventive"
	KindCorrective  = "corrective"
	KindImprovement = "improvement"
	KindEmergency   = "emergency"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Statuses
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusCancelled  = "cancelled"
)

// Job is a maintenance work order on an amenity or a home.
type Job struct {
	ID               string          `json:"id"`
	AmenityID        null.String     `json:"amenity_id,omitempty"`
	HomeID           null.String     `json:"home_id,omitempty"`
	IncidentID       null.String     `json:"incident_id,omitempty"` // at most one job per incident
	SupplierID       null.String     `json:"supplier_id,omitempty"`
	EmployeeID       null.String     `json:"employee_id,omitempty"`
	Kind             string          `json:"kind"`
	Priority         string          `json:"priority"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	RequestedOn      time.Time       `json:"requested_on"`
	ScheduledOn      null.Time       `json:"scheduled_on,omitempty"`
	StartedOn        null.Time       `json:"started_on,omitempty"`
	FinishedOn       null.Time       `json:"finished_on,omitempty"`
	Budget           decimal.Decimal `json:"budget"`
	FinalCost        decimal.Decimal `json:"final_cost"`
	Status           string          `json:"status"`
	Notes            string          `json:"notes,omitempty"`
	RequiresOutage   bool            `json:"requires_outage"`
	AffectedServices string          `json:"affected_services,omitempty"`
	EstimatedHours   decimal.Decimal `json:"estimated_hours"`
	CreatedAt        time.Time       `json:"created_at"` // UTC
	UpdatedAt        time.Time       `json:"updated_at"` // UTC
}

func (j Job) Active() bool {
	return j.Status == StatusScheduled || j.Status == StatusInProgress
}

// Overdue reports whether the scheduled date passed without the job
// being done or cancelled.
func (j Job) Overdue(asOf time.Time) bool {
	return j.Active() && j.ScheduledOn.Valid && asOf.After(j.ScheduledOn.Time)
}

// NewJob contains information needed to open a work order. At least one
// of AmenityID or HomeID is required.
type NewJob struct {
	AmenityID        null.String     `json:"amenity_id"`
	HomeID           null.String     `json:"home_id"`
	SupplierID       null.String     `json:"supplier_id"`
	EmployeeID       null.String     `json:"employee_id"`
	Kind             string          `json:"kind" validate:"required,oneof=preventive corrective improvement emergency"`
	Priority         string          `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Title            string          `json:"title" validate:"required,max=200"`
	Description      string          `json:"description"`
	ScheduledOn      null.Time       `json:"scheduled_on"`
	Budget           decimal.Decimal `json:"budget"`
	RequiresOutage   bool            `json:"requires_outage"`
	AffectedServices string          `json:"affected_services" validate:"omitempty,max=200"`
	EstimatedHours   decimal.Decimal `json:"estimated_hours"`
}

func (nj *NewJob) Validate(validate *validator.Validate) error {
	nj.Title = core.CleanString(nj.Title)
	nj.Description = core.CleanString(nj.Description)
	nj.AffectedServices = core.CleanString(nj.AffectedServices)

	if err := validate.Struct(nj); err != nil {
		return err
	}
	if !nj.AmenityID.Valid && !nj.HomeID.Valid {
		return core.NewValidationError(nil, core.FieldError{
			Field: "amenity_id", Error: "an amenity or a home is required",
		})
	}
	if nj.Budget.LessThan(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "budget", Error: "cannot be negative"})
	}
	return nil
}

// UpdateJob defines what may be modified on an open work order.
type UpdateJob struct {
	SupplierID       null.String      `json:"supplier_id"`
	EmployeeID       null.String      `json:"employee_id"`
	Kind             string           `json:"kind" validate:"omitempty,oneof=preventive corrective improvement emergency"`
	Priority         string           `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Title            string           `json:"title" validate:"omitempty,max=200"`
	Description      string           `json:"description"`
	ScheduledOn      null.Time        `json:"scheduled_on"`
	Budget           *decimal.Decimal `json:"budget"`
	Notes            string           `json:"notes"`
	RequiresOutage   *bool            `json:"requires_outage"`
	AffectedServices string           `json:"affected_services" validate:"omitempty,max=200"`
	EstimatedHours   *decimal.Decimal `json:"estimated_hours"`
}

func (uj *UpdateJob) Validate(validate *validator.Validate) error {
	uj.Title = core.CleanString(uj.Title)
	uj.Description = core.CleanString(uj.Description)
	uj.Notes = core.CleanString(uj.Notes)
	uj.AffectedServices = core.CleanString(uj.AffectedServices)
	return validate.Struct(uj)
}

// FinishJob contains the completion details of a work order.
type FinishJob struct {
	FinalCost decimal.Decimal `json:"final_cost"`
	Notes     string          `json:"notes"`
}

func (fj *FinishJob) Validate(validate *validator.Validate) error {
	fj.Notes = core.CleanString(fj.Notes)
	if fj.FinalCost.LessThan(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "final_cost", Error: "cannot be negative"})
	}
	return validate.Struct(fj)
}

// QueryFilter filters work-order listings; fields are ANDed.
type QueryFilter struct {
	Status     string `query:"status"`
	Kind       string `query:"kind"`
	Priority   string `query:"priority"`
	AmenityID  string `query:"amenity_id"`
	HomeID     string `query:"home_id"`
	SupplierID string `query:"supplier_id"`
	EmployeeID string `query:"employee_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
	qf.Priority = core.CleanString(qf.Priority, true /* lower */)
}
