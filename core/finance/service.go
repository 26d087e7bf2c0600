package finance

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
)

var (
	// errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrFundNotFound        = errors.New("reserve fund not found")
	ErrBudgetExists        = errors.New("a budget for this period, category and kind already exists")
	ErrTransactionVoid     = errors.New("transaction is void")
	ErrInsufficientFunds   = errors.New("withdrawal exceeds the fund's current amount")
)

type (
	Repository interface {
		CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error)
		// QueryTransactions applies AND operation on available TransactionFilter fields.
		QueryTransactions(ctx context.Context, filter *TransactionFilter, ordering []core.DBOrdering) ([]Transaction, error)
		GetTransaction(ctx context.Context, id string) (Transaction, error)
		UpdateTransaction(ctx context.Context, txn Transaction) (Transaction, error)
		DeleteTransactionsByID(ctx context.Context, ids []string) (int, error)

		CheckBudgetUniqueness(ctx context.Context, year, month int, category, kind string) error
		CreateBudget(ctx context.Context, bgt Budget) (Budget, error)
		QueryBudgets(ctx context.Context, year int, month *int) ([]Budget, error)
		GetBudget(ctx context.Context, id string) (Budget, error)
		UpdateBudget(ctx context.Context, bgt Budget) (Budget, error)
		DeleteBudgetsByID(ctx context.Context, ids []string) (int, error)

		CreateFund(ctx context.Context, fund ReserveFund) (ReserveFund, error)
		QueryFunds(ctx context.Context, status string) ([]ReserveFund, error)
		GetFund(ctx context.Context, id string) (ReserveFund, error)
		UpdateFund(ctx context.Context, fund ReserveFund) (ReserveFund, error)
		CreateFundMovement(ctx context.Context, mvt FundMovement) (FundMovement, error)
		// QueryFundMovements returns a fund's movements, newest first.
		QueryFundMovements(ctx context.Context, fundID string) ([]FundMovement, error)
	}

	Service struct {
		conf *core.Config
		repo Repository
	}
)

func NewService(conf *core.Config, repo Repository) *Service {
	return &Service{conf: conf, repo: repo}
}

// signedAmount applies the ledger sign convention.
func signedAmount(kind string, amount decimal.Decimal) decimal.Decimal {
	if kind == KindExpense {
		return amount.Neg()
	}
	return amount
}

func (svc *Service) CreateTransaction(nt NewTransaction) (Transaction, error) {
	now := time.Now().UTC()
	txn := Transaction{
		Date:          nt.Date,
		Kind:          nt.Kind,
		Category:      nt.Category,
		Description:   nt.Description,
		Amount:        signedAmount(nt.Kind, nt.Amount),
		Status:        StatusRegistered,
		Method:        nt.Method,
		InvoiceNumber: nt.InvoiceNumber,
		SupplierID:    nt.SupplierID,
		RegisteredBy:  nt.RegisteredBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateTransaction(context.Background(), txn)
}

// RecordIncome records a verified income entry on behalf of another module
// (a confirmed fee payment or booking). It returns the transaction ID so
// the caller can void it later.
func (svc *Service) RecordIncome(date time.Time, category, description string, amount decimal.Decimal, method string, paymentID, registeredBy string) (string, error) {
	now := time.Now().UTC()
	txn := Transaction{
		Date:        date,
		Kind:        KindIncome,
		Category:    category,
		Description: description,
		Amount:      amount,
		Status:      StatusVerified,
		Method:      method,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if paymentID != "" {
		txn.PaymentID = null.StringFrom(paymentID)
	}
	if registeredBy != "" {
		txn.RegisteredBy = null.StringFrom(registeredBy)
	}
	txn, err := svc.repo.CreateTransaction(context.Background(), txn)
	if err != nil {
		return "", err
	}
	return txn.ID, nil
}

// RecordExpense records a verified expense entry on behalf of another
// module (a finished maintenance job).
func (svc *Service) RecordExpense(date time.Time, category, description string, amount decimal.Decimal, supplierID, registeredBy string) (string, error) {
	now := time.Now().UTC()
	txn := Transaction{
		Date:        date,
		Kind:        KindExpense,
		Category:    category,
		Description: description,
		Amount:      amount.Neg(),
		Status:      StatusVerified,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if supplierID != "" {
		txn.SupplierID = null.StringFrom(supplierID)
	}
	if registeredBy != "" {
		txn.RegisteredBy = null.StringFrom(registeredBy)
	}
	txn, err := svc.repo.CreateTransaction(context.Background(), txn)
	if err != nil {
		return "", err
	}
	return txn.ID, nil
}

func (svc *Service) QueryTransactions(filter *TransactionFilter, ordering []core.DBOrdering) ([]Transaction, error) {
	return svc.repo.QueryTransactions(context.Background(), filter, ordering)
}

func (svc *Service) GetTransaction(id string) (Transaction, error) {
	return svc.repo.GetTransaction(context.Background(), id)
}

func (svc *Service) UpdateTransaction(id string, ut UpdateTransaction) (Transaction, error) {
	txn, err := svc.GetTransaction(id)
	if err != nil {
		return Transaction{}, err
	}
	if txn.Void() {
		return Transaction{}, core.NewValidationError(ErrTransactionVoid)
	}
	if ut.Date.Valid {
		txn.Date = ut.Date.Time
	}
	if ut.Category != "" {
		txn.Category = ut.Category
	}
	if ut.Description != "" {
		txn.Description = ut.Description
	}
	if ut.Amount != nil {
		txn.Amount = signedAmount(txn.Kind, *ut.Amount)
	}
	if ut.Method != "" {
		txn.Method = ut.Method
	}
	if ut.InvoiceNumber != "" {
		txn.InvoiceNumber = ut.InvoiceNumber
	}
	if ut.SupplierID.Valid {
		txn.SupplierID = ut.SupplierID
	}
	if ut.Status != "" {
		txn.Status = ut.Status
	}
	txn.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTransaction(context.Background(), txn)
}

// VoidTransaction marks an entry void, keeping it in the ledger for audit.
// The reason is appended to the description.
func (svc *Service) VoidTransaction(id, reason string) (Transaction, error) {
	txn, err := svc.GetTransaction(id)
	if err != nil {
		return Transaction{}, err
	}
	if txn.Void() {
		return Transaction{}, core.NewValidationError(ErrTransactionVoid)
	}
	txn.Status = StatusVoid
	if reason = core.CleanString(reason); reason != "" {
		txn.Description += " [VOID] " + reason
	}
	txn.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTransaction(context.Background(), txn)
}

func (svc *Service) DeleteTransactions(ids ...string) error {
	_, err := svc.repo.DeleteTransactionsByID(context.Background(), ids)
	return err
}

// PeriodBalance sums the non-void ledger entries of [from, to].
func (svc *Service) PeriodBalance(from, to time.Time) (Balance, error) {
	txns, err := svc.repo.QueryTransactions(context.Background(), &TransactionFilter{DateFrom: from, DateTo: to}, nil)
	if err != nil {
		return Balance{}, err
	}

	bal := Balance{From: from, To: to}
	for _, txn := range txns {
		if txn.Void() {
			continue
		}
		if txn.Kind == KindIncome {
			bal.Income = bal.Income.Add(txn.Amount)
		} else {
			bal.Expenses = bal.Expenses.Add(txn.AbsAmount())
		}
	}
	bal.Balance = bal.Income.Sub(bal.Expenses)
	return bal, nil
}

// ExpensesByCategory totals the non-void expenses of [from, to] per category.
func (svc *Service) ExpensesByCategory(from, to time.Time) ([]CategoryTotal, error) {
	txns, err := svc.repo.QueryTransactions(context.Background(), &TransactionFilter{
		Kind: KindExpense, DateFrom: from, DateTo: to,
	}, nil)
	if err != nil {
		return nil, err
	}

	byCat := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		if txn.Void() {
			continue
		}
		byCat[txn.Category] = byCat[txn.Category].Add(txn.AbsAmount())
	}

	totals := make([]CategoryTotal, 0, len(byCat))
	for _, cat := range Categories {
		if total, ok := byCat[cat]; ok {
			totals = append(totals, CategoryTotal{Category: cat, Total: total})
		}
	}
	return totals, nil
}

func (svc *Service) checkBudgetUniqueness(year, month int, category, kind string) error {
	if err := svc.repo.CheckBudgetUniqueness(context.Background(), year, month, category, kind); err != nil {
		if err == ErrBudgetExists {
			return core.NewValidationError(err, core.FieldError{Field: "category", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) CreateBudget(nb NewBudget) (Budget, error) {
	now := time.Now().UTC()
	bgt := Budget{
		Year:        nb.Year,
		Month:       nb.Month,
		Category:    nb.Category,
		Kind:        nb.Kind,
		Amount:      nb.Amount,
		Description: nb.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateBudget(context.Background(), bgt)
}

func (svc *Service) QueryBudgets(year int, month *int) ([]Budget, error) {
	return svc.repo.QueryBudgets(context.Background(), year, month)
}

func (svc *Service) GetBudget(id string) (Budget, error) {
	return svc.repo.GetBudget(context.Background(), id)
}

func (svc *Service) UpdateBudget(id string, ub UpdateBudget) (Budget, error) {
	bgt, err := svc.GetBudget(id)
	if err != nil {
		return Budget{}, err
	}
	if ub.Amount != nil {
		bgt.Amount = *ub.Amount
	}
	if ub.Description != "" {
		bgt.Description = ub.Description
	}
	bgt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateBudget(context.Background(), bgt)
}

func (svc *Service) DeleteBudgets(ids ...string) error {
	_, err := svc.repo.DeleteBudgetsByID(context.Background(), ids)
	return err
}

// budgetPeriod returns the date range a budget covers.
func budgetPeriod(bgt Budget) (time.Time, time.Time) {
	if bgt.Month == 0 {
		from := time.Date(bgt.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0).Add(-time.Nanosecond)
	}
	from := time.Date(bgt.Year, time.Month(bgt.Month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// BudgetExecution compares each budget of the period with the actual
// ledger totals of its category and kind.
func (svc *Service) BudgetExecution(year int, month *int) ([]BudgetExecution, error) {
	budgets, err := svc.QueryBudgets(year, month)
	if err != nil {
		return nil, err
	}

	execs := make([]BudgetExecution, 0, len(budgets))
	for _, bgt := range budgets {
		from, to := budgetPeriod(bgt)
		txns, err := svc.repo.QueryTransactions(context.Background(), &TransactionFilter{
			Kind: bgt.Kind, Category: bgt.Category, DateFrom: from, DateTo: to,
		}, nil)
		if err != nil {
			return nil, err
		}

		var actual decimal.Decimal
		for _, txn := range txns {
			if txn.Void() {
				continue
			}
			actual = actual.Add(txn.AbsAmount())
		}

		exec := BudgetExecution{
			Budget:   bgt,
			Actual:   actual,
			Variance: bgt.Amount.Sub(actual),
		}
		if !bgt.Amount.IsZero() {
			exec.ExecutedPct = actual.Div(bgt.Amount).Mul(decimal.NewFromInt(100)).Round(2)
		}
		execs = append(execs, exec)
	}
	return execs, nil
}

func (svc *Service) CreateFund(nf NewReserveFund) (ReserveFund, error) {
	now := time.Now().UTC()
	fund := ReserveFund{
		Name:         nf.Name,
		Description:  nf.Description,
		TargetAmount: nf.TargetAmount,
		TargetDate:   nf.TargetDate,
		Status:       FundActive,
		FeeSharePct:  nf.FeeSharePct,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateFund(context.Background(), fund)
}

func (svc *Service) QueryFunds(status string) ([]ReserveFund, error) {
	return svc.repo.QueryFunds(context.Background(), core.CleanString(status, true /* lower */))
}

func (svc *Service) GetFund(id string) (ReserveFund, error) {
	return svc.repo.GetFund(context.Background(), id)
}

func (svc *Service) UpdateFund(id string, uf UpdateReserveFund) (ReserveFund, error) {
	fund, err := svc.GetFund(id)
	if err != nil {
		return ReserveFund{}, err
	}
	if uf.Name != "" {
		fund.Name = uf.Name
	}
	if uf.Description != "" {
		fund.Description = uf.Description
	}
	if uf.TargetAmount != nil {
		fund.TargetAmount = *uf.TargetAmount
	}
	if uf.TargetDate.Valid {
		fund.TargetDate = uf.TargetDate
	}
	if uf.Status != "" {
		fund.Status = uf.Status
	}
	if uf.FeeSharePct != nil {
		fund.FeeSharePct = *uf.FeeSharePct
	}
	fund.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateFund(context.Background(), fund)
}

// Contribute records a contribution and increases the fund's balance.
// A fund that reaches its target is marked completed.
func (svc *Service) Contribute(fundID string, nm NewFundMovement) (FundMovement, error) {
	return svc.move(fundID, MovementContribution, nm)
}

// Withdraw records a withdrawal and decreases the fund's balance. The
// amount cannot exceed the fund's current balance.
func (svc *Service) Withdraw(fundID string, nm NewFundMovement) (FundMovement, error) {
	return svc.move(fundID, MovementWithdrawal, nm)
}

func (svc *Service) move(fundID, kind string, nm NewFundMovement) (FundMovement, error) {
	ctx := context.Background()

	fund, err := svc.repo.GetFund(ctx, fundID)
	if err != nil {
		return FundMovement{}, err
	}

	if kind == MovementWithdrawal {
		if nm.Amount.GreaterThan(fund.CurrentAmount) {
			return FundMovement{}, core.NewValidationError(ErrInsufficientFunds, core.FieldError{
				Field: "amount", Error: ErrInsufficientFunds.Error(),
			})
		}
		fund.CurrentAmount = fund.CurrentAmount.Sub(nm.Amount)
	} else {
		fund.CurrentAmount = fund.CurrentAmount.Add(nm.Amount)
		if fund.TargetAmount.GreaterThan(decimal.Zero) && fund.CurrentAmount.GreaterThanOrEqual(fund.TargetAmount) {
			fund.Status = FundCompleted
		}
	}
	fund.UpdatedAt = time.Now().UTC()

	mvt := FundMovement{
		FundID:      fundID,
		Date:        nm.Date,
		Kind:        kind,
		Amount:      nm.Amount,
		Description: nm.Description,
		CreatedAt:   time.Now().UTC(),
	}
	// balance first, so a failed update never leaves a movement behind
	if _, err = svc.repo.UpdateFund(ctx, fund); err != nil {
		return FundMovement{}, err
	}
	return svc.repo.CreateFundMovement(ctx, mvt)
}

func (svc *Service) QueryFundMovements(fundID string) ([]FundMovement, error) {
	return svc.repo.QueryFundMovements(context.Background(), fundID)
}
