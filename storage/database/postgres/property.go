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
	"github.com/Bernah2o/altavista/core/property"
)

type homeRow struct {
	ID                   string          `db:"id"`
	Block                string          `db:"block"`
	Number               string          `db:"number"`
	AreaM2               decimal.Decimal `db:"area_m2"`
	BuiltAreaM2          decimal.Decimal `db:"built_area_m2"`
	OwnershipCoefficient decimal.Decimal `db:"ownership_coefficient"`
	Inhabited            bool            `db:"inhabited"`
	HasExtension         bool            `db:"has_extension"`
	DeliveredOn          null.Time       `db:"delivered_on"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

func (r homeRow) domain() property.Home {
	return property.Home(r)
}

type ownerRow struct {
	ID           string      `db:"id"`
	FirstName    string      `db:"first_name"`
	LastName     string      `db:"last_name"`
	NationalID   string      `db:"national_id"`
	Phone        null.String `db:"phone"`
	Email        null.String `db:"email"`
	UserID       null.String `db:"user_id"`
	RegisteredOn time.Time   `db:"registered_on"`
}

func (r ownerRow) domain() property.Owner {
	return property.Owner(r)
}

type homeOwnerRow struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	HomeID    string    `db:"home_id"`
	StartDate time.Time `db:"start_date"`
	EndDate   null.Time `db:"end_date"`
	IsOwner   bool      `db:"is_owner"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r homeOwnerRow) domain() property.HomeOwner {
	return property.HomeOwner(r)
}

type propertyRepository struct {
	db *sqlx.DB
}

var _ property.Repository = (*propertyRepository)(nil) // interface compliance check

func NewPropertyRepository(db *sqlx.DB) *propertyRepository {
	return &propertyRepository{db: db}
}

func (repo propertyRepository) CheckHomeUniqueness(ctx context.Context, block, number string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM home WHERE block = $1 AND number = $2)`, block, number)
	if err != nil {
		return errors.Wrap(err, "checking home uniqueness")
	}
	if exists {
		return property.ErrHomeExists
	}
	return nil
}

func (repo propertyRepository) CreateHome(ctx context.Context, hm property.Home) (property.Home, error) {
	hm.ID = uuid.New().String()
	row := homeRow(hm)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO home (id, block, number, area_m2, built_area_m2, ownership_coefficient,
			inhabited, has_extension, delivered_on, created_at, updated_at)
		VALUES (:id, :block, :number, :area_m2, :built_area_m2, :ownership_coefficient,
			:inhabited, :has_extension, :delivered_on, :created_at, :updated_at)`,
		row)
	if err != nil {
		return property.Home{}, errors.Wrap(err, "inserting home")
	}
	return row.domain(), nil
}

func (repo propertyRepository) QueryHomes(ctx context.Context, filter *property.HomeFilter, ordering []core.DBOrdering) ([]property.Home, error) {
	var b whereBuilder
	if filter != nil {
		if filter.Block != "" {
			b.add("block = %s", filter.Block)
		}
		if filter.Search != "" {
			b.add("number ILIKE %s", "%"+filter.Search+"%")
		}
		if filter.Inhabited != nil {
			b.add("inhabited = %s", *filter.Inhabited)
		}
	}

	q := `SELECT * FROM home` + b.clause() + orderBy(ordering, []string{"block", "number", "area_m2", "created_at"}, "block, number")
	var rows []homeRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying homes")
	}

	homes := make([]property.Home, 0, len(rows))
	for _, row := range rows {
		homes = append(homes, row.domain())
	}
	return homes, nil
}

func (repo propertyRepository) GetHome(ctx context.Context, filter property.HomeGetFilter) (property.Home, error) {
	var row homeRow
	var err error

	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return property.Home{}, property.ErrHomeNotFound
		}
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM home WHERE id = $1`, filter.ID)
	case filter.Block != "" && filter.Number != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM home WHERE block = $1 AND number = $2`, filter.Block, filter.Number)
	default:
		return property.Home{}, property.ErrHomeNotFound
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return property.Home{}, property.ErrHomeNotFound
		}
		return property.Home{}, errors.Wrap(err, "finding home")
	}
	return row.domain(), nil
}

func (repo propertyRepository) UpdateHome(ctx context.Context, hm property.Home) (property.Home, error) {
	row := homeRow(hm)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE home SET area_m2 = :area_m2, built_area_m2 = :built_area_m2,
			ownership_coefficient = :ownership_coefficient, inhabited = :inhabited,
			has_extension = :has_extension, delivered_on = :delivered_on, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return property.Home{}, errors.Wrap(err, "updating home")
	}
	return row.domain(), nil
}

func (repo propertyRepository) DeleteHomesByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM home WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting homes")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo propertyRepository) CheckOwnerUniqueness(ctx context.Context, nationalID string, excludedOwners ...property.Owner) error {
	q := `SELECT EXISTS (SELECT 1 FROM owner WHERE national_id = $1`
	args := []interface{}{nationalID}
	if len(excludedOwners) > 0 {
		ids := make([]string, 0, len(excludedOwners))
		for _, o := range excludedOwners {
			ids = append(ids, o.ID)
		}
		q += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}
	q += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking owner uniqueness")
	}
	if exists {
		return property.ErrOwnerExists
	}
	return nil
}

func (repo propertyRepository) CreateOwner(ctx context.Context, own property.Owner) (property.Owner, error) {
	own.ID = uuid.New().String()
	row := ownerRow(own)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO owner (id, first_name, last_name, national_id, phone, email, user_id, registered_on)
		VALUES (:id, :first_name, :last_name, :national_id, :phone, :email, :user_id, :registered_on)`,
		row)
	if err != nil {
		return property.Owner{}, errors.Wrap(err, "inserting owner")
	}
	return row.domain(), nil
}

func (repo propertyRepository) QueryOwners(ctx context.Context, filter *property.OwnerFilter, ordering []core.DBOrdering) ([]property.Owner, error) {
	var b whereBuilder
	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		p1, p2, p3, p4 := b.arg(val), b.arg(val), b.arg(val), b.arg(val)
		b.conds = append(b.conds,
			"(first_name ILIKE "+p1+" OR last_name ILIKE "+p2+" OR national_id ILIKE "+p3+" OR email ILIKE "+p4+")")
	}

	q := `SELECT * FROM owner` + b.clause() + orderBy(ordering, []string{"last_name", "first_name", "national_id", "registered_on"}, "last_name, first_name")
	var rows []ownerRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying owners")
	}

	owners := make([]property.Owner, 0, len(rows))
	for _, row := range rows {
		owners = append(owners, row.domain())
	}
	return owners, nil
}

func (repo propertyRepository) GetOwner(ctx context.Context, filter property.OwnerGetFilter) (property.Owner, error) {
	var row ownerRow
	var err error

	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return property.Owner{}, property.ErrOwnerNotFound
		}
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM owner WHERE id = $1`, filter.ID)
	case filter.NationalID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM owner WHERE national_id = $1`, filter.NationalID)
	case filter.UserID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM owner WHERE user_id = $1`, filter.UserID)
	default:
		return property.Owner{}, property.ErrOwnerNotFound
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return property.Owner{}, property.ErrOwnerNotFound
		}
		return property.Owner{}, errors.Wrap(err, "finding owner")
	}
	return row.domain(), nil
}

func (repo propertyRepository) UpdateOwner(ctx context.Context, own property.Owner) (property.Owner, error) {
	row := ownerRow(own)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE owner SET first_name = :first_name, last_name = :last_name, phone = :phone,
			email = :email, user_id = :user_id
		WHERE id = :id`,
		row)
	if err != nil {
		return property.Owner{}, errors.Wrap(err, "updating owner")
	}
	return row.domain(), nil
}

func (repo propertyRepository) DeleteOwnersByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM owner WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting owners")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo propertyRepository) CreateHomeOwner(ctx context.Context, rel property.HomeOwner) (property.HomeOwner, error) {
	rel.ID = uuid.New().String()
	row := homeOwnerRow(rel)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO home_owner (id, owner_id, home_id, start_date, end_date, is_owner, notes, created_at, updated_at)
		VALUES (:id, :owner_id, :home_id, :start_date, :end_date, :is_owner, :notes, :created_at, :updated_at)`,
		row)
	if err != nil {
		if isUniqueViolation(err) {
			return property.HomeOwner{}, property.ErrAlreadyAssigned
		}
		return property.HomeOwner{}, errors.Wrap(err, "inserting home owner")
	}
	return row.domain(), nil
}

func (repo propertyRepository) QueryHomeOwners(ctx context.Context, homeID string, activeOnly bool) ([]property.HomeOwner, error) {
	q := `SELECT * FROM home_owner WHERE home_id = $1`
	if activeOnly {
		q += ` AND (end_date IS NULL OR end_date > NOW())`
	}
	q += ` ORDER BY start_date DESC`

	var rows []homeOwnerRow
	if err := repo.db.SelectContext(ctx, &rows, q, homeID); err != nil {
		return nil, errors.Wrap(err, "querying home owners")
	}

	rels := make([]property.HomeOwner, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, row.domain())
	}
	return rels, nil
}

func (repo propertyRepository) QueryOwnerHomes(ctx context.Context, ownerID string) ([]property.Home, error) {
	var rows []homeRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT h.* FROM home h
		JOIN home_owner ho ON ho.home_id = h.id
		WHERE ho.owner_id = $1 AND (ho.end_date IS NULL OR ho.end_date > NOW())
		ORDER BY h.block, h.number`,
		ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying owner homes")
	}

	homes := make([]property.Home, 0, len(rows))
	for _, row := range rows {
		homes = append(homes, row.domain())
	}
	return homes, nil
}

func (repo propertyRepository) EndHomeOwner(ctx context.Context, homeID, ownerID string, endDate time.Time) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE home_owner SET end_date = $1, updated_at = NOW()
		WHERE home_id = $2 AND owner_id = $3 AND (end_date IS NULL OR end_date > NOW())`,
		endDate, homeID, ownerID)
	if err != nil {
		return errors.Wrap(err, "ending home owner")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return property.ErrOwnerNotFound
	}
	return nil
}
