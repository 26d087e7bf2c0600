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
	"github.com/Bernah2o/altavista/core/amenity"
)

type amenityRow struct {
	ID              string          `db:"id"`
	Name            string          `db:"name"`
	Kind            string          `db:"kind"`
	Description     string          `db:"description"`
	Capacity        int             `db:"capacity"`
	RequiresBooking bool            `db:"requires_booking"`
	OpensAt         string          `db:"opens_at"`
	ClosesAt        string          `db:"closes_at"`
	Active          bool            `db:"active"`
	Location        string          `db:"location"`
	UsageRules      string          `db:"usage_rules"`
	UsageFee        decimal.Decimal `db:"usage_fee"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (r amenityRow) domain() amenity.Amenity {
	return amenity.Amenity(r)
}

type bookingRow struct {
	ID          string          `db:"id"`
	AmenityID   string          `db:"amenity_id"`
	OwnerID     string          `db:"owner_id"`
	Date        time.Time       `db:"date"`
	StartTime   string          `db:"start_time"`
	EndTime     string          `db:"end_time"`
	Status      string          `db:"status"`
	Notes       string          `db:"notes"`
	GuestCount  int             `db:"guest_count"`
	Reason      string          `db:"reason"`
	RequestedAt time.Time       `db:"requested_at"`
	ConfirmedAt null.Time       `db:"confirmed_at"`
	ConfirmedBy null.String     `db:"confirmed_by"`
	Cost        decimal.Decimal `db:"cost"`
	Paid        bool            `db:"paid"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r bookingRow) domain() amenity.Booking {
	return amenity.Booking(r)
}

type amenityRepository struct {
	db *sqlx.DB
}

var _ amenity.Repository = (*amenityRepository)(nil) // interface compliance check

func NewAmenityRepository(db *sqlx.DB) *amenityRepository {
	return &amenityRepository{db: db}
}

func (repo amenityRepository) CreateAmenity(ctx context.Context, am amenity.Amenity) (amenity.Amenity, error) {
	am.ID = uuid.New().String()
	row := amenityRow(am)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO amenity (id, name, kind, description, capacity, requires_booking, opens_at, closes_at,
			active, location, usage_rules, usage_fee, created_at, updated_at)
		VALUES (:id, :name, :kind, :description, :capacity, :requires_booking, :opens_at, :closes_at,
			:active, :location, :usage_rules, :usage_fee, :created_at, :updated_at)`,
		row)
	if err != nil {
		return amenity.Amenity{}, errors.Wrap(err, "inserting amenity")
	}
	return row.domain(), nil
}

func (repo amenityRepository) QueryAmenities(ctx context.Context, activeOnly bool) ([]amenity.Amenity, error) {
	q := `SELECT * FROM amenity`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY name`

	var rows []amenityRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying amenities")
	}

	ams := make([]amenity.Amenity, 0, len(rows))
	for _, row := range rows {
		ams = append(ams, row.domain())
	}
	return ams, nil
}

func (repo amenityRepository) GetAmenity(ctx context.Context, id string) (amenity.Amenity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return amenity.Amenity{}, amenity.ErrNotFound
	}
	var row amenityRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM amenity WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return amenity.Amenity{}, amenity.ErrNotFound
		}
		return amenity.Amenity{}, errors.Wrap(err, "finding amenity")
	}
	return row.domain(), nil
}

func (repo amenityRepository) UpdateAmenity(ctx context.Context, am amenity.Amenity) (amenity.Amenity, error) {
	row := amenityRow(am)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE amenity SET name = :name, kind = :kind, description = :description, capacity = :capacity,
			requires_booking = :requires_booking, opens_at = :opens_at, closes_at = :closes_at,
			active = :active, location = :location, usage_rules = :usage_rules, usage_fee = :usage_fee,
			updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return amenity.Amenity{}, errors.Wrap(err, "updating amenity")
	}
	return row.domain(), nil
}

func (repo amenityRepository) DeleteAmenitiesByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM amenity WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting amenities")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo amenityRepository) CreateBooking(ctx context.Context, bkg amenity.Booking) (amenity.Booking, error) {
	bkg.ID = uuid.New().String()
	row := bookingRow(bkg)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO booking (id, amenity_id, owner_id, date, start_time, end_time, status, notes,
			guest_count, reason, requested_at, confirmed_at, confirmed_by, cost, paid, created_at, updated_at)
		VALUES (:id, :amenity_id, :owner_id, :date, :start_time, :end_time, :status, :notes,
			:guest_count, :reason, :requested_at, :confirmed_at, :confirmed_by, :cost, :paid, :created_at, :updated_at)`,
		row)
	if err != nil {
		if isUniqueViolation(err) {
			return amenity.Booking{}, amenity.ErrSlotTaken
		}
		return amenity.Booking{}, errors.Wrap(err, "inserting booking")
	}
	return row.domain(), nil
}

func (repo amenityRepository) QueryBookings(ctx context.Context, filter *amenity.BookingFilter, ordering []core.DBOrdering) ([]amenity.Booking, error) {
	var b whereBuilder
	if filter != nil {
		if filter.AmenityID != "" {
			b.add("amenity_id = %s", filter.AmenityID)
		}
		if filter.OwnerID != "" {
			b.add("owner_id = %s", filter.OwnerID)
		}
		if filter.Status != "" {
			b.add("status = %s", filter.Status)
		}
		if !filter.Date.IsZero() {
			b.add("date = %s", filter.Date)
		}
	}

	q := `SELECT * FROM booking` + b.clause() + orderBy(ordering, []string{"date", "start_time", "status", "requested_at"}, "date DESC, start_time")
	var rows []bookingRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying bookings")
	}

	bkgs := make([]amenity.Booking, 0, len(rows))
	for _, row := range rows {
		bkgs = append(bkgs, row.domain())
	}
	return bkgs, nil
}

func (repo amenityRepository) GetBooking(ctx context.Context, id string) (amenity.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return amenity.Booking{}, amenity.ErrBookingNotFound
	}
	var row bookingRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM booking WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return amenity.Booking{}, amenity.ErrBookingNotFound
		}
		return amenity.Booking{}, errors.Wrap(err, "finding booking")
	}
	return row.domain(), nil
}

func (repo amenityRepository) UpdateBooking(ctx context.Context, bkg amenity.Booking) (amenity.Booking, error) {
	row := bookingRow(bkg)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE booking SET status = :status, notes = :notes, guest_count = :guest_count,
			confirmed_at = :confirmed_at, confirmed_by = :confirmed_by, cost = :cost, paid = :paid,
			updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return amenity.Booking{}, errors.Wrap(err, "updating booking")
	}
	return row.domain(), nil
}
