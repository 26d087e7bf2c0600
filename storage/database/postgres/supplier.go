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
	"github.com/Bernah2o/altavista/core/supplier"
)

type supplierRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Kind         string      `db:"kind"`
	TaxID        string      `db:"tax_id"`
	Address      string      `db:"address"`
	Phone        null.String `db:"phone"`
	Email        null.String `db:"email"`
	ContactName  string      `db:"contact_name"`
	ContactPhone null.String `db:"contact_phone"`
	Offering     string      `db:"offering"`
	Status       string      `db:"status"`
	Notes        string      `db:"notes"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r supplierRow) domain() supplier.Supplier {
	return supplier.Supplier(r)
}

type supplierRepository struct {
	db *sqlx.DB
}

var _ supplier.Repository = (*supplierRepository)(nil) // interface compliance check

func NewSupplierRepository(db *sqlx.DB) *supplierRepository {
	return &supplierRepository{db: db}
}

func (repo supplierRepository) CheckUniqueness(ctx context.Context, taxID string, excludedSuppliers ...supplier.Supplier) error {
	q := `SELECT EXISTS (SELECT 1 FROM supplier WHERE tax_id = $1`
	args := []interface{}{taxID}
	if len(excludedSuppliers) > 0 {
		ids := make([]string, 0, len(excludedSuppliers))
		for _, s := range excludedSuppliers {
			ids = append(ids, s.ID)
		}
		q += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}
	q += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking supplier uniqueness")
	}
	if exists {
		return supplier.ErrSupplierExists
	}
	return nil
}

func (repo supplierRepository) CreateSupplier(ctx context.Context, sup supplier.Supplier) (supplier.Supplier, error) {
	sup.ID = uuid.New().String()
	row := supplierRow(sup)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO supplier (id, name, kind, tax_id, address, phone, email, contact_name,
			contact_phone, offering, status, notes, created_at, updated_at)
		VALUES (:id, :name, :kind, :tax_id, :address, :phone, :email, :contact_name,
			:contact_phone, :offering, :status, :notes, :created_at, :updated_at)`,
		row)
	if err != nil {
		return supplier.Supplier{}, errors.Wrap(err, "inserting supplier")
	}
	return row.domain(), nil
}

func (repo supplierRepository) QuerySuppliers(ctx context.Context, filter *supplier.QueryFilter, ordering []core.DBOrdering) ([]supplier.Supplier, error) {
	var b whereBuilder
	if filter != nil {
		if filter.Status != "" {
			b.add("status = %s", filter.Status)
		}
		if filter.Kind != "" {
			b.add("kind = %s", filter.Kind)
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			p1, p2 := b.arg(val), b.arg(val)
			b.conds = append(b.conds, "(name ILIKE "+p1+" OR tax_id ILIKE "+p2+")")
		}
	}

	q := `SELECT * FROM supplier` + b.clause() + orderBy(ordering, []string{"name", "kind", "status", "created_at"}, "name")
	var rows []supplierRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying suppliers")
	}

	sups := make([]supplier.Supplier, 0, len(rows))
	for _, row := range rows {
		sups = append(sups, row.domain())
	}
	return sups, nil
}

func (repo supplierRepository) GetSupplier(ctx context.Context, id string) (supplier.Supplier, error) {
	if _, err := uuid.Parse(id); err != nil {
		return supplier.Supplier{}, supplier.ErrNotFound
	}
	var row supplierRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM supplier WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return supplier.Supplier{}, supplier.ErrNotFound
		}
		return supplier.Supplier{}, errors.Wrap(err, "finding supplier")
	}
	return row.domain(), nil
}

func (repo supplierRepository) UpdateSupplier(ctx context.Context, sup supplier.Supplier) (supplier.Supplier, error) {
	row := supplierRow(sup)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE supplier SET name = :name, kind = :kind, address = :address, phone = :phone,
			email = :email, contact_name = :contact_name, contact_phone = :contact_phone,
			offering = :offering, status = :status, notes = :notes, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return supplier.Supplier{}, errors.Wrap(err, "updating supplier")
	}
	return row.domain(), nil
}

func (repo supplierRepository) DeleteSuppliersByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM supplier WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting suppliers")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
