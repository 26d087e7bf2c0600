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
	"github.com/Bernah2o/altavista/core/billing"
)

type feeRow struct {
	ID          string          `db:"id"`
	Year        int             `db:"year"`
	Month       int             `db:"month"`
	BaseAmount  decimal.Decimal `db:"base_amount"`
	DueDate     time.Time       `db:"due_date"`
	LateFeePct  decimal.Decimal `db:"late_fee_pct"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r feeRow) domain() billing.Fee {
	return billing.Fee(r)
}

type paymentRow struct {
	ID            string          `db:"id"`
	HomeID        string          `db:"home_id"`
	FeeID         string          `db:"fee_id"`
	PaidOn        time.Time       `db:"paid_on"`
	Amount        decimal.Decimal `db:"amount"`
	Method        string          `db:"method"`
	Reference     string          `db:"reference"`
	Status        string          `db:"status"`
	Notes         string          `db:"notes"`
	RegisteredBy  null.String     `db:"registered_by"`
	ConfirmedBy   null.String     `db:"confirmed_by"`
	TransactionID null.String     `db:"transaction_id"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r paymentRow) domain() billing.Payment {
	return billing.Payment(r)
}

type billingRepository struct {
	db *sqlx.DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *sqlx.DB) *billingRepository {
	return &billingRepository{db: db}
}

func (repo billingRepository) CheckFeeUniqueness(ctx context.Context, year, month int) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM fee WHERE year = $1 AND month = $2)`, year, month)
	if err != nil {
		return errors.Wrap(err, "checking fee uniqueness")
	}
	if exists {
		return billing.ErrFeeExists
	}
	return nil
}

func (repo billingRepository) CreateFee(ctx context.Context, fee billing.Fee) (billing.Fee, error) {
	fee.ID = uuid.New().String()
	row := feeRow(fee)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO fee (id, year, month, base_amount, due_date, late_fee_pct, description, created_at, updated_at)
		VALUES (:id, :year, :month, :base_amount, :due_date, :late_fee_pct, :description, :created_at, :updated_at)`,
		row)
	if err != nil {
		return billing.Fee{}, errors.Wrap(err, "inserting fee")
	}
	return row.domain(), nil
}

func (repo billingRepository) QueryFees(ctx context.Context, year int) ([]billing.Fee, error) {
	var b whereBuilder
	if year != 0 {
		b.add("year = %s", year)
	}

	q := `SELECT * FROM fee` + b.clause() + ` ORDER BY year DESC, month DESC`
	var rows []feeRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying fees")
	}

	fees := make([]billing.Fee, 0, len(rows))
	for _, row := range rows {
		fees = append(fees, row.domain())
	}
	return fees, nil
}

func (repo billingRepository) GetFee(ctx context.Context, filter billing.FeeGetFilter) (billing.Fee, error) {
	var row feeRow
	var err error

	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return billing.Fee{}, billing.ErrFeeNotFound
		}
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM fee WHERE id = $1`, filter.ID)
	case filter.Year != 0 && filter.Month != 0:
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM fee WHERE year = $1 AND month = $2`, filter.Year, filter.Month)
	default:
		return billing.Fee{}, billing.ErrFeeNotFound
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return billing.Fee{}, billing.ErrFeeNotFound
		}
		return billing.Fee{}, errors.Wrap(err, "finding fee")
	}
	return row.domain(), nil
}

func (repo billingRepository) LatestFee(ctx context.Context) (billing.Fee, error) {
	var row feeRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM fee ORDER BY year DESC, month DESC LIMIT 1`)
	if err != nil {
		if err == sql.ErrNoRows {
			return billing.Fee{}, billing.ErrFeeNotFound
		}
		return billing.Fee{}, errors.Wrap(err, "finding latest fee")
	}
	return row.domain(), nil
}

func (repo billingRepository) UpdateFee(ctx context.Context, fee billing.Fee) (billing.Fee, error) {
	row := feeRow(fee)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE fee SET base_amount = :base_amount, due_date = :due_date, late_fee_pct = :late_fee_pct,
			description = :description, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return billing.Fee{}, errors.Wrap(err, "updating fee")
	}
	return row.domain(), nil
}

func (repo billingRepository) DeleteFeesByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM fee WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting fees")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo billingRepository) CreatePayment(ctx context.Context, pmt billing.Payment) (billing.Payment, error) {
	pmt.ID = uuid.New().String()
	row := paymentRow(pmt)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO payment (id, home_id, fee_id, paid_on, amount, method, reference, status, notes,
			registered_by, confirmed_by, transaction_id, created_at, updated_at)
		VALUES (:id, :home_id, :fee_id, :paid_on, :amount, :method, :reference, :status, :notes,
			:registered_by, :confirmed_by, :transaction_id, :created_at, :updated_at)`,
		row)
	if err != nil {
		if isUniqueViolation(err) {
			return billing.Payment{}, billing.ErrPaymentExists
		}
		return billing.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return row.domain(), nil
}

func (repo billingRepository) QueryPayments(ctx context.Context, filter *billing.PaymentFilter, ordering []core.DBOrdering) ([]billing.Payment, error) {
	var b whereBuilder
	if filter != nil {
		if filter.HomeID != "" {
			b.add("home_id = %s", filter.HomeID)
		}
		if filter.FeeID != "" {
			b.add("fee_id = %s", filter.FeeID)
		}
		if filter.Status != "" {
			b.add("status = %s", filter.Status)
		}
	}

	q := `SELECT * FROM payment` + b.clause() + orderBy(ordering, []string{"paid_on", "amount", "status", "created_at"}, "paid_on DESC")
	var rows []paymentRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}

	pmts := make([]billing.Payment, 0, len(rows))
	for _, row := range rows {
		pmts = append(pmts, row.domain())
	}
	return pmts, nil
}

func (repo billingRepository) GetPayment(ctx context.Context, id string) (billing.Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return billing.Payment{}, billing.ErrPaymentNotFound
	}
	var row paymentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM payment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return billing.Payment{}, billing.ErrPaymentNotFound
		}
		return billing.Payment{}, errors.Wrap(err, "finding payment")
	}
	return row.domain(), nil
}

func (repo billingRepository) GetActivePayment(ctx context.Context, homeID, feeID string) (billing.Payment, error) {
	var row paymentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM payment WHERE home_id = $1 AND fee_id = $2 AND status <> $3`,
		homeID, feeID, billing.PaymentRejected)
	if err != nil {
		if err == sql.ErrNoRows {
			return billing.Payment{}, billing.ErrPaymentNotFound
		}
		return billing.Payment{}, errors.Wrap(err, "finding active payment")
	}
	return row.domain(), nil
}

func (repo billingRepository) UpdatePayment(ctx context.Context, pmt billing.Payment) (billing.Payment, error) {
	row := paymentRow(pmt)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE payment SET paid_on = :paid_on, amount = :amount, method = :method, reference = :reference,
			status = :status, notes = :notes, confirmed_by = :confirmed_by,
			transaction_id = :transaction_id, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return billing.Payment{}, errors.Wrap(err, "updating payment")
	}
	return row.domain(), nil
}
