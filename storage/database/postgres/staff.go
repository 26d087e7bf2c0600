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
	"github.com/Bernah2o/altavista/core/staff"
)

type employeeRow struct {
	ID         string          `db:"id"`
	FirstName  string          `db:"first_name"`
	LastName   string          `db:"last_name"`
	NationalID string          `db:"national_id"`
	Position   string          `db:"position"`
	HiredOn    time.Time       `db:"hired_on"`
	LeftOn     null.Time       `db:"left_on"`
	Salary     decimal.Decimal `db:"salary"`
	Phone      null.String     `db:"phone"`
	Email      null.String     `db:"email"`
	Address    string          `db:"address"`
	Active     bool            `db:"active"`
	UserID     null.String     `db:"user_id"`
	ShiftStart string          `db:"shift_start"`
	ShiftEnd   string          `db:"shift_end"`
	WorkDays   string          `db:"work_days"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (r employeeRow) domain() staff.Employee {
	return staff.Employee(r)
}

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *sqlx.DB) *staffRepository {
	return &staffRepository{db: db}
}

func (repo staffRepository) CheckUniqueness(ctx context.Context, nationalID string, excludedEmployees ...staff.Employee) error {
	q := `SELECT EXISTS (SELECT 1 FROM employee WHERE national_id = $1`
	args := []interface{}{nationalID}
	if len(excludedEmployees) > 0 {
		ids := make([]string, 0, len(excludedEmployees))
		for _, e := range excludedEmployees {
			ids = append(ids, e.ID)
		}
		q += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}
	q += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking employee uniqueness")
	}
	if exists {
		return staff.ErrEmployeeExists
	}
	return nil
}

func (repo staffRepository) CreateEmployee(ctx context.Context, emp staff.Employee) (staff.Employee, error) {
	emp.ID = uuid.New().String()
	row := employeeRow(emp)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO employee (id, first_name, last_name, national_id, position, hired_on, left_on,
			salary, phone, email, address, active, user_id, shift_start, shift_end, work_days,
			created_at, updated_at)
		VALUES (:id, :first_name, :last_name, :national_id, :position, :hired_on, :left_on,
			:salary, :phone, :email, :address, :active, :user_id, :shift_start, :shift_end, :work_days,
			:created_at, :updated_at)`,
		row)
	if err != nil {
		return staff.Employee{}, errors.Wrap(err, "inserting employee")
	}
	return row.domain(), nil
}

func (repo staffRepository) QueryEmployees(ctx context.Context, filter *staff.QueryFilter, ordering []core.DBOrdering) ([]staff.Employee, error) {
	var b whereBuilder
	if filter != nil {
		if filter.Position != "" {
			b.add("position = %s", filter.Position)
		}
		if filter.Active != nil {
			b.add("active = %s", *filter.Active)
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			p1, p2, p3 := b.arg(val), b.arg(val), b.arg(val)
			b.conds = append(b.conds,
				"(first_name ILIKE "+p1+" OR last_name ILIKE "+p2+" OR national_id ILIKE "+p3+")")
		}
	}

	q := `SELECT * FROM employee` + b.clause() + orderBy(ordering, []string{"last_name", "first_name", "position", "hired_on", "salary"}, "last_name, first_name")
	var rows []employeeRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying employees")
	}

	emps := make([]staff.Employee, 0, len(rows))
	for _, row := range rows {
		emps = append(emps, row.domain())
	}
	return emps, nil
}

func (repo staffRepository) GetEmployee(ctx context.Context, id string) (staff.Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return staff.Employee{}, staff.ErrNotFound
	}
	var row employeeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM employee WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return staff.Employee{}, staff.ErrNotFound
		}
		return staff.Employee{}, errors.Wrap(err, "finding employee")
	}
	return row.domain(), nil
}

func (repo staffRepository) UpdateEmployee(ctx context.Context, emp staff.Employee) (staff.Employee, error) {
	row := employeeRow(emp)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE employee SET first_name = :first_name, last_name = :last_name, position = :position,
			left_on = :left_on, salary = :salary, phone = :phone, email = :email, address = :address,
			active = :active, user_id = :user_id, shift_start = :shift_start, shift_end = :shift_end,
			work_days = :work_days, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return staff.Employee{}, errors.Wrap(err, "updating employee")
	}
	return row.domain(), nil
}

func (repo staffRepository) DeleteEmployeesByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM employee WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting employees")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
