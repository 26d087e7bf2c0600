package incident

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
)

// Incident kinds
const (
	KindMaintenance = "maintenance"
	KindSecurity    = "security"
	KindCoexistence = "coexistence"
	KindRequest     = "request"
	KindComplaint   = "complaint"
	KindOther       = "other"
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
	StatusReported   = "reported"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusCancelled  = "cancelled"
)

// overdueLimits is how long an incident of each priority may stay open.
var overdueLimits = map[string]time.Duration{
	PriorityLow:    14 * 24 * time.Hour,
	PriorityMedium: 7 * 24 * time.Hour,
	PriorityHigh:   3 * 24 * time.Hour,
	PriorityUrgent: 24 * time.Hour,
}

// Incident is a problem or request reported by an owner.
type Incident struct {
	ID                  string      `json:"id"`
	OwnerID             string      `json:"owner_id"`
	HomeID              null.String `json:"home_id,omitempty"`
	ReportedAt          time.Time   `json:"reported_at"`
	Kind                string      `json:"kind"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	Location            string      `json:"location,omitempty"`
	Priority            string      `json:"priority"`
	Status              string      `json:"status"`
	ClosedAt            null.Time   `json:"closed_at,omitempty"`
	RequiresMaintenance bool        `json:"requires_maintenance"`
	MaintenanceID       null.String `json:"maintenance_id,omitempty"`
	VisibleToOwner      bool        `json:"visible_to_owner"`
	CreatedAt           time.Time   `json:"created_at"` // UTC
	UpdatedAt           time.Time   `json:"updated_at"` // UTC
}

func (i Incident) Open() bool {
	return i.Status == StatusReported || i.Status == StatusInProgress
}

func (i Incident) Closed() bool { return !i.Open() }

// Overdue reports whether the incident has been open longer than its
// priority allows.
func (i Incident) Overdue(asOf time.Time) bool {
	if i.Closed() {
		return false
	}
	limit, ok := overdueLimits[i.Priority]
	if !ok {
		return false
	}
	return asOf.Sub(i.ReportedAt) > limit
}

// Age is how long the incident was (or has been) open.
func (i Incident) Age(asOf time.Time) time.Duration {
	if i.ClosedAt.Valid {
		return i.ClosedAt.Time.Sub(i.ReportedAt)
	}
	return asOf.Sub(i.ReportedAt)
}

// Update is a follow-up comment on an incident, usually by an employee.
type Update struct {
	ID             string      `json:"id"`
	IncidentID     string      `json:"incident_id"`
	EmployeeID     null.String `json:"employee_id,omitempty"`
	Comment        string      `json:"comment"`
	Status         string      `json:"status"` // incident status at the time
	VisibleToOwner bool        `json:"visible_to_owner"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
}

// NewIncident contains information needed to report an incident.
type NewIncident struct {
	OwnerID        string      `json:"owner_id" validate:"required"`
	HomeID         null.String `json:"home_id"`
	Kind           string      `json:"kind" validate:"required,oneof=maintenance security coexistence request complaint other"`
	Title          string      `json:"title" validate:"required,max=200"`
	Description    string      `json:"description" validate:"required"`
	Location       string      `json:"location" validate:"omitempty,max=200"`
	Priority       string      `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	VisibleToOwner *bool       `json:"visible_to_owner"`
}

func (ni *NewIncident) Validate(validate *validator.Validate) error {
	ni.Title = core.CleanString(ni.Title)
	ni.Description = core.CleanString(ni.Description)
	ni.Location = core.CleanString(ni.Location)
	return validate.Struct(ni)
}

// UpdateIncident defines what may be modified on an existing incident.
type UpdateIncident struct {
	Kind           string `json:"kind" validate:"omitempty,oneof=maintenance security coexistence request complaint other"`
	Title          string `json:"title" validate:"omitempty,max=200"`
	Description    string `json:"description"`
	Location       string `json:"location" validate:"omitempty,max=200"`
	Priority       string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status         string `json:"status" validate:"omitempty,oneof=reported in_progress resolved cancelled"`
	VisibleToOwner *bool  `json:"visible_to_owner"`
}

func (ui *UpdateIncident) Validate(validate *validator.Validate) error {
	ui.Title = core.CleanString(ui.Title)
	ui.Description = core.CleanString(ui.Description)
	ui.Location = core.CleanString(ui.Location)
	return validate.Struct(ui)
}

// NewUpdate contains information needed to add a follow-up.
type NewUpdate struct {
	EmployeeID     null.String `json:"employee_id"`
	Comment        string      `json:"comment" validate:"required"`
	Status         string      `json:"status" validate:"omitempty,oneof=reported in_progress resolved cancelled"`
	VisibleToOwner *bool       `json:"visible_to_owner"`
}

func (nu *NewUpdate) Validate(validate *validator.Validate) error {
	nu.Comment = core.CleanString(nu.Comment)
	return validate.Struct(nu)
}

// QueryFilter filters incident listings; fields are ANDed.
type QueryFilter struct {
	Status       string    `query:"status"`
	Priority     string    `query:"priority"`
	Kind         string    `query:"kind"`
	HomeID       string    `query:"home_id"`
	OwnerID      string    `query:"owner_id"`
	ReportedFrom time.Time `query:"reported_from"`
	ReportedTo   time.Time `query:"reported_to"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Priority = core.CleanString(qf.Priority, true /* lower */)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
}
