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
	"github.com/Bernah2o/altavista/core/finance"
)

type transactionRow struct {
	ID            string          `db:"id"`
	Date          time.Time       `db:"date"`
	Kind          string          `db:"kind"`
	Category      string          `db:"category"`
	Description   string          `db:"description"`
	Amount        decimal.Decimal `db:"amount"`
	Status        string          `db:"status"`
	Method        string          `db:"method"`
	InvoiceNumber string          `db:"invoice_number"`
	SupplierID    null.String     `db:"supplier_id"`
	PaymentID     null.String     `db:"payment_id"`
	RegisteredBy  null.String     `db:"registered_by"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r transactionRow) domain() finance.Transaction {
	return finance.Transaction(r)
}

type budgetRow struct {
	ID          string          `db:"id"`
	Year        int             `db:"year"`
	Month       int             `db:"month"`
	Category    string          `db:"category"`
	Kind        string          `db:"kind"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r budgetRow) domain() finance.Budget {
	return finance.Budget(r)
}

type fundRow struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	TargetAmount  decimal.Decimal `db:"target_amount"`
	CurrentAmount decimal.Decimal `db:"current_amount"`
	TargetDate    null.Time       `db:"target_date"`
	Status        string          `db:"status"`
	FeeSharePct   decimal.Decimal `db:"fee_share_pct"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r fundRow) domain() finance.ReserveFund {
	return finance.ReserveFund(r)
}

type fundMovementRow struct {
	ID          string          `db:"id"`
	FundID      string          `db:"fund_id"`
	Date        time.Time       `db:"date"`
	Kind        string          `db:"kind"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r fundMovementRow) domain() finance.FundMovement {
	return finance.FundMovement(r)
}

type financeRepository struct {
	db *sqlx.DB
}

var _ finance.Repository = (*financeRepository)(nil) // interface compliance check

func NewFinanceRepository(db *sqlx.DB) *financeRepository {
	return &financeRepository{db: db}
}

func (repo financeRepository) CreateTransaction(ctx context.Context, txn finance.Transaction) (finance.Transaction, error) {
	txn.ID = uuid.New().String()
	row := transactionRow(txn)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO transaction (id, date, kind, category, description, amount, status, method,
			invoice_number, supplier_id, payment_id, registered_by, created_at, updated_at)
		VALUES (:id, :date, :kind, :category, :description, :amount, :status, :method,
			:invoice_number, :supplier_id, :payment_id, :registered_by, :created_at, :updated_at)`,
		row)
	if err != nil {
		return finance.Transaction{}, errors.Wrap(err, "inserting transaction")
	}
	return row.domain(), nil
}

func (repo financeRepository) QueryTransactions(ctx context.Context, filter *finance.TransactionFilter, ordering []core.DBOrdering) ([]finance.Transaction, error) {
	var b whereBuilder
	if filter != nil {
		if filter.Kind != "" {
			b.add("kind = %s", filter.Kind)
		}
		if filter.Category != "" {
			b.add("category = %s", filter.Category)
		}
		if filter.Status != "" {
			b.add("status = %s", filter.Status)
		}
		if filter.SupplierID != "" {
			b.add("supplier_id = %s", filter.SupplierID)
		}
		if !filter.DateFrom.IsZero() {
			b.add("date >= %s", filter.DateFrom.UTC())
		}
		if !filter.DateTo.IsZero() {
			b.add("date <= %s", filter.DateTo.UTC())
		}
	}

	q := `SELECT * FROM transaction` + b.clause() + orderBy(ordering, []string{"date", "kind", "category", "amount", "created_at"}, "date DESC, created_at DESC")
	var rows []transactionRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying transactions")
	}

	txns := make([]finance.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, row.domain())
	}
	return txns, nil
}

func (repo financeRepository) GetTransaction(ctx context.Context, id string) (finance.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return finance.Transaction{}, finance.ErrTransactionNotFound
	}
	var row transactionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM transaction WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return finance.Transaction{}, finance.ErrTransactionNotFound
		}
		return finance.Transaction{}, errors.Wrap(err, "finding transaction")
	}
	return row.domain(), nil
}

func (repo financeRepository) UpdateTransaction(ctx context.Context, txn finance.Transaction) (finance.Transaction, error) {
	row := transactionRow(txn)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE transaction SET date = :date, category = :category, description = :description,
			amount = :amount, status = :status, method = :method, invoice_number = :invoice_number,
			supplier_id = :supplier_id, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return finance.Transaction{}, errors.Wrap(err, "updating transaction")
	}
	return row.domain(), nil
}

func (repo financeRepository) DeleteTransactionsByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM transaction WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting transactions")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo financeRepository) CheckBudgetUniqueness(ctx context.Context, year, month int, category, kind string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM budget WHERE year = $1 AND month = $2 AND category = $3 AND kind = $4)`,
		year, month, category, kind)
	if err != nil {
		return errors.Wrap(err, "checking budget uniqueness")
	}
	if exists {
		return finance.ErrBudgetExists
	}
	return nil
}

func (repo financeRepository) CreateBudget(ctx context.Context, bgt finance.Budget) (finance.Budget, error) {
	bgt.ID = uuid.New().String()
	row := budgetRow(bgt)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO budget (id, year, month, category, kind, amount, description, created_at, updated_at)
		VALUES (:id, :year, :month, :category, :kind, :amount, :description, :created_at, :updated_at)`,
		row)
	if err != nil {
		return finance.Budget{}, errors.Wrap(err, "inserting budget")
	}
	return row.domain(), nil
}

func (repo financeRepository) QueryBudgets(ctx context.Context, year int, month *int) ([]finance.Budget, error) {
	var b whereBuilder
	if year != 0 {
		b.add("year = %s", year)
	}
	if month != nil {
		b.add("month = %s", *month)
	}

	q := `SELECT * FROM budget` + b.clause() + ` ORDER BY year, month, category`
	var rows []budgetRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying budgets")
	}

	budgets := make([]finance.Budget, 0, len(rows))
	for _, row := range rows {
		budgets = append(budgets, row.domain())
	}
	return budgets, nil
}

func (repo financeRepository) GetBudget(ctx context.Context, id string) (finance.Budget, error) {
	if _, err := uuid.Parse(id); err != nil {
		return finance.Budget{}, finance.ErrBudgetNotFound
	}
	var row budgetRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM budget WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return finance.Budget{}, finance.ErrBudgetNotFound
		}
		return finance.Budget{}, errors.Wrap(err, "finding budget")
	}
	return row.domain(), nil
}

func (repo financeRepository) UpdateBudget(ctx context.Context, bgt finance.Budget) (finance.Budget, error) {
	row := budgetRow(bgt)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE budget SET amount = :amount, description = :description, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return finance.Budget{}, errors.Wrap(err, "updating budget")
	}
	return row.domain(), nil
}

func (repo financeRepository) DeleteBudgetsByID(ctx context.Context, ids []string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM budget WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting budgets")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo financeRepository) CreateFund(ctx context.Context, fund finance.ReserveFund) (finance.ReserveFund, error) {
	fund.ID = uuid.New().String()
	row := fundRow(fund)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO reserve_fund (id, name, description, target_amount, current_amount,
			target_date, status, fee_share_pct, created_at, updated_at)
		VALUES (:id, :name, :description, :target_amount, :current_amount,
			:target_date, :status, :fee_share_pct, :created_at, :updated_at)`,
		row)
	if err != nil {
		return finance.ReserveFund{}, errors.Wrap(err, "inserting reserve fund")
	}
	return row.domain(), nil
}

func (repo financeRepository) QueryFunds(ctx context.Context, status string) ([]finance.ReserveFund, error) {
	var b whereBuilder
	if status != "" {
		b.add("status = %s", status)
	}

	q := `SELECT * FROM reserve_fund` + b.clause() + ` ORDER BY name`
	var rows []fundRow
	if err := repo.db.SelectContext(ctx, &rows, q, b.args...); err != nil {
		return nil, errors.Wrap(err, "querying reserve funds")
	}

	funds := make([]finance.ReserveFund, 0, len(rows))
	for _, row := range rows {
		funds = append(funds, row.domain())
	}
	return funds, nil
}

func (repo financeRepository) GetFund(ctx context.Context, id string) (finance.ReserveFund, error) {
	if _, err := uuid.Parse(id); err != nil {
		return finance.ReserveFund{}, finance.ErrFundNotFound
	}
	var row fundRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM reserve_fund WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return finance.ReserveFund{}, finance.ErrFundNotFound
		}
		return finance.ReserveFund{}, errors.Wrap(err, "finding reserve fund")
	}
	return row.domain(), nil
}

func (repo financeRepository) UpdateFund(ctx context.Context, fund finance.ReserveFund) (finance.ReserveFund, error) {
	row := fundRow(fund)
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE reserve_fund SET name = :name, description = :description, target_amount = :target_amount,
			current_amount = :current_amount, target_date = :target_date, status = :status,
			fee_share_pct = :fee_share_pct, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return finance.ReserveFund{}, errors.Wrap(err, "updating reserve fund")
	}
	return row.domain(), nil
}

func (repo financeRepository) CreateFundMovement(ctx context.Context, mvt finance.FundMovement) (finance.FundMovement, error) {
	mvt.ID = uuid.New().String()
	row := fundMovementRow(mvt)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO fund_movement (id, fund_id, date, kind, amount, description, created_at)
		VALUES (:id, :fund_id, :date, :kind, :amount, :description, :created_at)`,
		row)
	if err != nil {
		return finance.FundMovement{}, errors.Wrap(err, "inserting fund movement")
	}
	return row.domain(), nil
}

func (repo financeRepository) QueryFundMovements(ctx context.Context, fundID string) ([]finance.FundMovement, error) {
	var rows []fundMovementRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM fund_movement WHERE fund_id = $1 ORDER BY date DESC, created_at DESC`, fundID)
	if err != nil {
		return nil, errors.Wrap(err, "querying fund movements")
	}

	mvts := make([]finance.FundMovement, 0, len(rows))
	for _, row := range rows {
		mvts = append(mvts, row.domain())
	}
	return mvts, nil
}
