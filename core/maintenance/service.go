package maintenance

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/incident"
)

var (
	// errors
	ErrNotFound       = errors.New("maintenance job not found")
	ErrNotStartable   = errors.New("only scheduled jobs can be started")
	ErrNotFinishable  = errors.New("only scheduled or in-progress jobs can be finished")
	ErrNotCancellable = errors.New("job is already done or cancelled")
	ErrJobClosed      = errors.New("job is already done or cancelled")
)

type (
	Repository interface {
		CreateJob(ctx context.Context, job Job) (Job, error)
		// QueryJobs applies AND operation on available QueryFilter fields.
		QueryJobs(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Job, error)
		GetJob(ctx context.Context, id string) (Job, error)
		UpdateJob(ctx context.Context, job Job) (Job, error)
		DeleteJobsByID(ctx context.Context, ids []string) (int, error)
	}

	Service struct {
		conf      *core.Config
		repo      Repository
		ledger    *finance.Service
		incidents *incident.Service
	}
)

func NewService(conf *core.Config, repo Repository, ledger *finance.Service, incidents *incident.Service) *Service {
	return &Service{conf: conf, repo: repo, ledger: ledger, incidents: incidents}
}

func (svc *Service) Create(nj NewJob) (Job, error) {
	now := time.Now().UTC()
	job := Job{
		AmenityID:        nj.AmenityID,
		HomeID:           nj.HomeID,
		SupplierID:       nj.SupplierID,
		EmployeeID:       nj.EmployeeID,
		Kind:             nj.Kind,
		Priority:         nj.Priority,
		Title:            nj.Title,
		Description:      nj.Description,
		RequestedOn:      now,
		ScheduledOn:      nj.ScheduledOn,
		Budget:           nj.Budget,
		Status:           StatusScheduled,
		RequiresOutage:   nj.RequiresOutage,
		AffectedServices: nj.AffectedServices,
		EstimatedHours:   nj.EstimatedHours,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if job.Priority == "" {
		job.Priority = PriorityMedium
	}
	return svc.repo.CreateJob(context.Background(), job)
}

// ScheduleForIncident opens a corrective work order for an incident.
// Satisfies incident.MaintenanceScheduler.
func (svc *Service) ScheduleForIncident(inc incident.Incident) (string, error) {
	now := time.Now().UTC()
	job := Job{
		HomeID:      inc.HomeID,
		IncidentID:  null.StringFrom(inc.ID),
		Kind:        KindCorrective,
		Priority:    inc.Priority,
		Title:       inc.Title,
		Description: inc.Description,
		RequestedOn: now,
		Status:      StatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	job, err := svc.repo.CreateJob(context.Background(), job)
	if err != nil {
		return "", err
	}
	return job.ID, nil
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Job, error) {
	return svc.repo.QueryJobs(context.Background(), filter, ordering)
}

func (svc *Service) GetByID(id string) (Job, error) {
	return svc.repo.GetJob(context.Background(), id)
}

func (svc *Service) Update(id string, uj UpdateJob) (Job, error) {
	job, err := svc.GetByID(id)
	if err != nil {
		return Job{}, err
	}
	if !job.Active() {
		return Job{}, core.NewValidationError(ErrJobClosed)
	}
	if uj.SupplierID.Valid {
		job.SupplierID = uj.SupplierID
	}
	if uj.EmployeeID.Valid {
		job.EmployeeID = uj.EmployeeID
	}
	if uj.Kind != "" {
		job.Kind = uj.Kind
	}
	if uj.Priority != "" {
		job.Priority = uj.Priority
	}
	if uj.Title != "" {
		job.Title = uj.Title
	}
	if uj.Description != "" {
		job.Description = uj.Description
	}
	if uj.ScheduledOn.Valid {
		job.ScheduledOn = uj.ScheduledOn
	}
	if uj.Budget != nil {
		job.Budget = *uj.Budget
	}
	if uj.Notes != "" {
		job.Notes = uj.Notes
	}
	if uj.RequiresOutage != nil {
		job.RequiresOutage = *uj.RequiresOutage
	}
	if uj.AffectedServices != "" {
		job.AffectedServices = uj.AffectedServices
	}
	if uj.EstimatedHours != nil {
		job.EstimatedHours = *uj.EstimatedHours
	}
	job.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateJob(context.Background(), job)
}

func (svc *Service) Delete(ids ...string) error {
	_, err := svc.repo.DeleteJobsByID(context.Background(), ids)
	return err
}

// Start moves a scheduled job to in-progress.
func (svc *Service) Start(id string) (Job, error) {
	job, err := svc.GetByID(id)
	if err != nil {
		return Job{}, err
	}
	if job.Status != StatusScheduled {
		return Job{}, core.NewValidationError(ErrNotStartable)
	}
	job.Status = StatusInProgress
	job.StartedOn = null.TimeFrom(time.Now().UTC())
	job.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateJob(context.Background(), job)
}

// Finish completes a job: it records the final cost as a ledger expense
// (when > 0) and resolves the linked incident, if any.
func (svc *Service) Finish(id string, fj FinishJob) (Job, error) {
	job, err := svc.GetByID(id)
	if err != nil {
		return Job{}, err
	}
	if !job.Active() {
		return Job{}, core.NewValidationError(ErrNotFinishable)
	}

	now := time.Now().UTC()
	if fj.FinalCost.GreaterThan(decimal.Zero) {
		if _, err := svc.ledger.RecordExpense(now, finance.CategoryMaintenance, job.Title,
			fj.FinalCost, job.SupplierID.String, ""); err != nil {
			return Job{}, errors.Wrap(err, "recording expense")
		}
	}

	job.Status = StatusDone
	job.FinishedOn = null.TimeFrom(now)
	job.FinalCost = fj.FinalCost
	if fj.Notes != "" {
		if job.Notes != "" {
			job.Notes += " "
		}
		job.Notes += fj.Notes
	}
	job.UpdatedAt = now
	job, err = svc.repo.UpdateJob(context.Background(), job)
	if err != nil {
		return Job{}, err
	}

	if job.IncidentID.Valid && svc.incidents != nil {
		if err := svc.incidents.ResolveFromMaintenance(job.IncidentID.String, fj.Notes); err != nil {
			return Job{}, errors.Wrap(err, "resolving incident")
		}
	}
	return job, nil
}

// Cancel closes a job without doing the work.
func (svc *Service) Cancel(id, reason string) (Job, error) {
	job, err := svc.GetByID(id)
	if err != nil {
		return Job{}, err
	}
	if !job.Active() {
		return Job{}, core.NewValidationError(ErrNotCancellable)
	}
	job.Status = StatusCancelled
	if reason = core.CleanString(reason); reason != "" {
		if job.Notes != "" {
			job.Notes += " "
		}
		job.Notes += "[CANCELLED] " + reason
	}
	job.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateJob(context.Background(), job)
}

// UpcomingForAmenity lists an amenity's active jobs scheduled from now on.
func (svc *Service) UpcomingForAmenity(amenityID string) ([]Job, error) {
	jobs, err := svc.repo.QueryJobs(context.Background(), &QueryFilter{AmenityID: amenityID},
		[]core.DBOrdering{{Field: "scheduled_on"}})
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	upcoming := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Active() && job.ScheduledOn.Valid && job.ScheduledOn.Time.After(now) {
			upcoming = append(upcoming, job)
		}
	}
	return upcoming, nil
}
