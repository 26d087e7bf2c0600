package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/maintenance"
)

type jobRow struct {
	ID               string          `db:"id"`
	AmenityID        null.String     `db:"amenity_id"`
	HomeID           null.String     `db:"home_id"`
	IncidentID       null.String     `db:"incident_id"`
	SupplierID       null.String     `db:"supplier_id"`
	EmployeeID       null.String     `db:"employee_id"`
	Kind             string          `db:"kind"`
	Priority         string          `db:"priority"`
	Title            string          `db:"title"`
	Description      string          `db:"description"`
	RequestedOn      time.Time       `db:"requested_on"`
	ScheduledOn      null.Time       `db:"scheduled_on"`
	StartedOn        null.Time       `db:"started_on"`
	FinishedOn       null.Time       `db:"finished_on"`
	Budget           decimal.Decimal `db:"budget"`
	FinalCost        decimal.Decimal `db:"final_cost"`
	Status           string          `db:"status"`
	Notes            string          `db:"notes"`
	RequiresOutage   bool            `db:"requires_outage"`
	AffectedServices string          `db:"affected_services"`
	EstimatedHours   decimal.Decimal `db:"estimated_hours"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (r jobRow) domain() maintenance.Job {
	return maintenance.Job(r)
}

type maintenanceRepository struct {
	db *sqlx.DB
}

var _ maintenance.Repository = (*maintenanceRepository)(nil) // interface compliance check

func NewMaintenanceRepository(db *sqlx.DB) *maintenanceRepository {
	return &maintenanceRepository{db: db}
}

func (repo maintenanceRepository) CreateJob(ctx context.Context, job maintenance.Job) (maintenance.Job, error) {
	job.ID = uuid.New().String()
	row := jobRow(job)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO maintenance_job (id, amenity_id, home_id, incident_id, supplier_id, employee_id,
			kind, priority, title, description, requested_on, scheduled_on, started_on, finished_on,
			budget, final_cost, status, notes, requires_outage, affected_services, estimated_hours,
			created_at, updated_at)
		VALUES (:id, :amenity_id, :home_id, :incident_id, :supplier_id, :employee_id,
			:kind, :priority, :title, :description, :requested_on, :scheduled_on, :started_on, :finished_on,
			:budget, :final_cost, :status, :notes, :requires_outage, :affected_services, :estimated_hours,
			:created_at, :updated_at)`,
		row)
	if err != nil {
		return maintenance.Job{}, errors.Wrap(err, "inserting maintenance job")
	}
	return row.domain(), nil
}

func (repo maintenanceRepository) QueryJobs(ctx context.Context, filter *maintenance.QueryFilter, ordering []core.DBOrdering) ([]maintenance.Job, error) {
	var b whereBuilder
	if filter != nil {
		if filter.Status != "" {
			b.add("status = %s", filter.Status)
		}
		if filter.Kind != "" {
			b.add("kind = %s", filter.Kind)
		}
		if filter.Priority != "" {
			b.add("priority = %s", filter.Priority)
		}
		if filter.AmenityID != "" {
			b.add("amenity_id = %s", filter.AmenityID)
		}
		if filter.HomeID != "" {
			b.add("home_id = %s", filter.HomeID)
		}
		if filter.SupplierID != "" {
			b.add("supplier_id = %s", filter.SupplierID)
		}
		if filter.EmployeeID != "" {
			b.add("employee_id = %s", filter.EmployeeID)
		}
	}

	q := `SELECT * FROM maintenance_job` + b.clause() + orderBy(ordering, []string{"requested_on", "scheduled_on", "priority", "status"}, "requested_on DESC")
	var rows []jobRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying maintenance jobs")
	}

	jobs := make([]maintenance.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.domain())
	}
	return jobs, nil
}

func (repo maintenanceRepository) GetJob(ctx context.Context, id string) (maintenance.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return maintenance.Job{}, maintenance.ErrNotFound
	}
	var row jobRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM maintenance_job WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return maintenance.Job{}, maintenance.ErrNotFound
		}
		return maintenance.Job{}, errors.Wrap(err, "finding maintenance job")
	}
	return row.domain(), nil
}

func (repo maintenanceRepository) UpdateJob(ctx context.Context, job maintenance.Job) (maintenance.Job, error) {
	row := jobRow(job)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE maintenance_job SET supplier_id = :supplier_id, employee_id = :employee_id,
			kind = :kind, priority = :priority, title = :title, description = :description,
			scheduled_on = :scheduled_on, started_on = :started_on, finished_on = :finished_on,
			budget = :budget, final_cost = :final_cost, status = :status, notes = :notes,
			requires_outage = :requires_outage, affected_services = :affected_services,
			estimated_hours = :estimated_hours, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return maintenance.Job{}, errors.Wrap(err, "updating maintenance job")
	}
	return row.domain(), nil
}

func (repo maintenanceRepository) DeleteJobsByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM maintenance_job WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting maintenance jobs")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
