package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/incident"
)

type incidentRow struct {
	ID                  string      `db:"id"`
	OwnerID             string      `db:"owner_id"`
	HomeID              null.String `db:"home_id"`
	ReportedAt          time.Time   `db:"reported_at"`
	Kind                string      `db:"kind"`
	Title               string      `db:"title"`
	Description         string      `db:"description"`
	Location            string      `db:"location"`
	Priority            string      `db:"priority"`
	Status              string      `db:"status"`
	ClosedAt            null.Time   `db:"closed_at"`
	RequiresMaintenance bool        `db:"requires_maintenance"`
	MaintenanceID       null.String `db:"maintenance_id"`
	VisibleToOwner      bool        `db:"visible_to_owner"`
	CreatedAt           time.Time   `db:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at"`
}

func (r incidentRow) domain() incident.Incident {
	return incident.Incident(r)
}

type incidentUpdateRow struct {
	ID             string      `db:"id"`
	IncidentID     string      `db:"incident_id"`
	EmployeeID     null.String `db:"employee_id"`
	Comment        string      `db:"comment"`
	Status         string      `db:"status"`
	VisibleToOwner bool        `db:"visible_to_owner"`
	CreatedAt      time.Time   `db:"created_at"`
}

func (r incidentUpdateRow) domain() incident.Update {
	return incident.Update(r)
}

type incidentRepository struct {
	db *sqlx.DB
}

var _ incident.Repository = (*incidentRepository)(nil) // interface compliance check

func NewIncidentRepository(db *sqlx.DB) *incidentRepository {
	return &incidentRepository{db: db}
}

func (repo incidentRepository) CreateIncident(ctx context.Context, inc incident.Incident) (incident.Incident, error) {
	inc.ID = uuid.New().String()
	row := incidentRow(inc)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO incident (id, owner_id, home_id, reported_at, kind, title, description, location,
			priority, status, closed_at, requires_maintenance, maintenance_id, visible_to_owner,
			created_at, updated_at)
		VALUES (:id, :owner_id, :home_id, :reported_at, :kind, :title, :description, :location,
			:priority, :status, :closed_at, :requires_maintenance, :maintenance_id, :visible_to_owner,
			:created_at, :updated_at)`,
		row)
	if err != nil {
		return incident.Incident{}, errors.Wrap(err, "inserting incident")
	}
	return row.domain(), nil
}

func (repo incidentRepository) QueryIncidents(ctx context.Context, filter *incident.QueryFilter, ordering []core.DBOrdering) ([]incident.Incident, error) {
	var b whereBuilder
	if filter != nil {
		if filter.Status != "" {
			b.add("status = %s", filter.Status)
		}
		if filter.Priority != "" {
			b.add("priority = %s", filter.Priority)
		}
		if filter.Kind != "" {
			b.add("kind = %s", filter.Kind)
		}
		if filter.HomeID != "" {
			b.add("home_id = %s", filter.HomeID)
		}
		if filter.OwnerID != "" {
			b.add("owner_id = %s", filter.OwnerID)
		}
		if !filter.ReportedFrom.IsZero() {
			b.add("reported_at >= %s", filter.ReportedFrom.UTC())
		}
		if !filter.ReportedTo.IsZero() {
			b.add("reported_at <= %s", filter.ReportedTo.UTC())
		}
	}

	q := `SELECT * FROM incident` + b.clause() + orderBy(ordering, []string{"reported_at", "priority", "status", "kind"}, "reported_at DESC")
	var rows []incidentRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying incidents")
	}

	incs := make([]incident.Incident, 0, len(rows))
	for _, row := range rows {
		incs = append(incs, row.domain())
	}
	return incs, nil
}

func (repo incidentRepository) GetIncident(ctx context.Context, id string) (incident.Incident, error) {
	if _, err := uuid.Parse(id); err != nil {
		return incident.Incident{}, incident.ErrNotFound
	}
	var row incidentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM incident WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return incident.Incident{}, incident.ErrNotFound
		}
		return incident.Incident{}, errors.Wrap(err, "finding incident")
	}
	return row.domain(), nil
}

func (repo incidentRepository) UpdateIncident(ctx context.Context, inc incident.Incident) (incident.Incident, error) {
	row := incidentRow(inc)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE incident SET kind = :kind, title = :title, description = :description,
			location = :location, priority = :priority, status = :status, closed_at = :closed_at,
			requires_maintenance = :requires_maintenance, maintenance_id = :maintenance_id,
			visible_to_owner = :visible_to_owner, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return incident.Incident{}, errors.Wrap(err, "updating incident")
	}
	return row.domain(), nil
}

func (repo incidentRepository) DeleteIncidentsByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM incident WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting incidents")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo incidentRepository) CreateUpdate(ctx context.Context, upd incident.Update) (incident.Update, error) {
	upd.ID = uuid.New().String()
	row := incidentUpdateRow(upd)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO incident_update (id, incident_id, employee_id, comment, status, visible_to_owner, created_at)
		VALUES (:id, :incident_id, :employee_id, :comment, :status, :visible_to_owner, :created_at)`,
		row)
	if err != nil {
		return incident.Update{}, errors.Wrap(err, "inserting incident update")
	}
	return row.domain(), nil
}

func (repo incidentRepository) QueryUpdates(ctx context.Context, incidentID string, visibleOnly bool) ([]incident.Update, error) {
	q := `SELECT * FROM incident_update WHERE incident_id = $1`
	if visibleOnly {
		q += ` AND visible_to_owner`
	}
	q += ` ORDER BY created_at`

	var rows []incidentUpdateRow
	if err := repo.db.SelectContext(ctx, &rows, q, incidentID); err != nil {
		return nil, errors.Wrap(err, "querying incident updates")
	}

	upds := make([]incident.Update, 0, len(rows))
	for _, row := range rows {
		upds = append(upds, row.domain())
	}
	return upds, nil
}
