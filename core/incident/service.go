package incident

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/property"
)

var (
	// errors
	ErrNotFound         = errors.New("incident not found")
	ErrAlreadyAssigned  = errors.New("incident already has a maintenance job")
	ErrIncidentClosed   = errors.New("incident is closed")
	ErrUpdateNotAllowed = errors.New("cannot add updates to a cancelled incident")
)

type (
	Repository interface {
		CreateIncident(ctx context.Context, inc Incident) (Incident, error)
		// QueryIncidents applies AND operation on available QueryFilter fields.
		QueryIncidents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Incident, error)
		GetIncident(ctx context.Context, id string) (Incident, error)
		UpdateIncident(ctx context.Context, inc Incident) (Incident, error)
		DeleteIncidentsByID(ctx context.Context, ids []string) (int, error)

		CreateUpdate(ctx context.Context, upd Update) (Update, error)
		// QueryUpdates returns an incident's follow-ups, oldest first.
		QueryUpdates(ctx context.Context, incidentID string, visibleOnly bool) ([]Update, error)
	}

	// MaintenanceScheduler creates a maintenance job for an incident and
	// returns the job's ID. Implemented by core/maintenance.
	MaintenanceScheduler interface {
		ScheduleForIncident(inc Incident) (string, error)
	}

	Service struct {
		conf      *core.Config
		repo      Repository
		residents *property.Service
		mail      core.EmailService
		scheduler MaintenanceScheduler
	}
)

func NewService(conf *core.Config, repo Repository, residents *property.Service, mailSvc core.EmailService) *Service {
	return &Service{conf: conf, repo: repo, residents: residents, mail: mailSvc}
}

// SetScheduler wires the maintenance module in. Called once at startup;
// assigning incidents to maintenance fails until then.
func (svc *Service) SetScheduler(s MaintenanceScheduler) { svc.scheduler = s }

func (svc *Service) Create(ni NewIncident) (Incident, error) {
	if _, err := svc.residents.GetOwnerByID(ni.OwnerID); err != nil {
		return Incident{}, err
	}
	if ni.HomeID.Valid {
		if _, err := svc.residents.GetHomeByID(ni.HomeID.String); err != nil {
			return Incident{}, err
		}
	}

	now := time.Now().UTC()
	inc := Incident{
		OwnerID:        ni.OwnerID,
		HomeID:         ni.HomeID,
		ReportedAt:     now,
		Kind:           ni.Kind,
		Title:          ni.Title,
		Description:    ni.Description,
		Location:       ni.Location,
		Priority:       ni.Priority,
		Status:         StatusReported,
		VisibleToOwner: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if inc.Priority == "" {
		inc.Priority = PriorityMedium
	}
	if ni.VisibleToOwner != nil {
		inc.VisibleToOwner = *ni.VisibleToOwner
	}
	return svc.repo.CreateIncident(context.Background(), inc)
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Incident, error) {
	return svc.repo.QueryIncidents(context.Background(), filter, ordering)
}

func (svc *Service) GetByID(id string) (Incident, error) {
	return svc.repo.GetIncident(context.Background(), id)
}

func (svc *Service) Update(id string, ui UpdateIncident) (Incident, error) {
	inc, err := svc.GetByID(id)
	if err != nil {
		return Incident{}, err
	}
	if ui.Kind != "" {
		inc.Kind = ui.Kind
	}
	if ui.Title != "" {
		inc.Title = ui.Title
	}
	if ui.Description != "" {
		inc.Description = ui.Description
	}
	if ui.Location != "" {
		inc.Location = ui.Location
	}
	if ui.Priority != "" {
		inc.Priority = ui.Priority
	}
	if ui.VisibleToOwner != nil {
		inc.VisibleToOwner = *ui.VisibleToOwner
	}
	if ui.Status != "" {
		applyStatus(&inc, ui.Status)
	}
	inc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateIncident(context.Background(), inc)
}

// applyStatus transitions the incident, maintaining ClosedAt. Reopening
// a closed incident clears it.
func applyStatus(inc *Incident, status string) {
	wasOpen := inc.Open()
	inc.Status = status
	if inc.Closed() {
		if wasOpen || !inc.ClosedAt.Valid {
			inc.ClosedAt = null.TimeFrom(time.Now().UTC())
		}
	} else {
		inc.ClosedAt = null.Time{}
	}
}

func (svc *Service) Delete(ids ...string) error {
	_, err := svc.repo.DeleteIncidentsByID(context.Background(), ids)
	return err
}

// AddUpdate appends a follow-up. The update may move the incident to a
// new status; owner-visible updates trigger a notification email.
func (svc *Service) AddUpdate(incidentID string, nu NewUpdate) (Update, error) {
	ctx := context.Background()

	inc, err := svc.GetByID(incidentID)
	if err != nil {
		return Update{}, err
	}
	if inc.Status == StatusCancelled {
		return Update{}, core.NewValidationError(ErrUpdateNotAllowed)
	}

	if nu.Status != "" && nu.Status != inc.Status {
		applyStatus(&inc, nu.Status)
		inc.UpdatedAt = time.Now().UTC()
		if inc, err = svc.repo.UpdateIncident(ctx, inc); err != nil {
			return Update{}, err
		}
	}

	upd := Update{
		IncidentID:     incidentID,
		EmployeeID:     nu.EmployeeID,
		Comment:        nu.Comment,
		Status:         inc.Status,
		VisibleToOwner: true,
		CreatedAt:      time.Now().UTC(),
	}
	if nu.VisibleToOwner != nil {
		upd.VisibleToOwner = *nu.VisibleToOwner
	}
	upd, err = svc.repo.CreateUpdate(ctx, upd)
	if err != nil {
		return Update{}, err
	}

	if upd.VisibleToOwner {
		svc.notifyOwner(inc, upd)
	}
	return upd, nil
}

func (svc *Service) QueryUpdates(incidentID string, visibleOnly bool) ([]Update, error) {
	if _, err := svc.GetByID(incidentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryUpdates(context.Background(), incidentID, visibleOnly)
}

// AssignToMaintenance creates the incident's maintenance job. An incident
// gets at most one job.
func (svc *Service) AssignToMaintenance(incidentID string) (Incident, error) {
	ctx := context.Background()

	inc, err := svc.GetByID(incidentID)
	if err != nil {
		return Incident{}, err
	}
	if inc.Closed() {
		return Incident{}, core.NewValidationError(ErrIncidentClosed)
	}
	if inc.MaintenanceID.Valid {
		return Incident{}, core.NewValidationError(ErrAlreadyAssigned)
	}
	if svc.scheduler == nil {
		return Incident{}, errors.New("maintenance scheduler not configured")
	}

	jobID, err := svc.scheduler.ScheduleForIncident(inc)
	if err != nil {
		return Incident{}, errors.Wrap(err, "scheduling maintenance")
	}

	inc.RequiresMaintenance = true
	inc.MaintenanceID = null.StringFrom(jobID)
	if inc.Status == StatusReported {
		inc.Status = StatusInProgress
	}
	inc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateIncident(ctx, inc)
}

// ResolveFromMaintenance closes the incident when its maintenance job
// finishes.
func (svc *Service) ResolveFromMaintenance(incidentID, note string) error {
	ctx := context.Background()

	inc, err := svc.GetByID(incidentID)
	if err != nil {
		return err
	}
	if inc.Closed() {
		return nil
	}

	applyStatus(&inc, StatusResolved)
	inc.UpdatedAt = time.Now().UTC()
	if inc, err = svc.repo.UpdateIncident(ctx, inc); err != nil {
		return err
	}

	comment := "Maintenance job finished"
	if note = core.CleanString(note); note != "" {
		comment += ": " + note
	}
	upd, err := svc.repo.CreateUpdate(ctx, Update{
		IncidentID:     incidentID,
		Comment:        comment,
		Status:         inc.Status,
		VisibleToOwner: true,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	svc.notifyOwner(inc, upd)
	return nil
}

func (svc *Service) notifyOwner(inc Incident, upd Update) {
	own, err := svc.residents.GetOwnerByID(inc.OwnerID)
	if err != nil || !own.Email.Valid || own.Email.String == "" {
		return
	}
	svc.mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: own.FullName(), Address: own.Email.String}},
		Subject:      fmt.Sprintf("Update on your report: %s", inc.Title),
		TemplateName: "incident-update",
		TemplateData: struct {
			OwnerName string
			Title     string
			Status    string
			Comment   string
		}{own.FullName(), inc.Title, upd.Status, upd.Comment},
	})
}
