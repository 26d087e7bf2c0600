package finance_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/finance"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{AppName: "Altavista", TestMode: true}

func setup(t *testing.T) *finance.Service {
	t.Helper()
	return finance.NewService(conf, inmemdb.NewFinanceRepository(inmemdb.NewDB()))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodBalance(t *testing.T) {
	svc := setup(t)

	incomeID, err := svc.RecordIncome(date(2026, 8, 3), finance.CategoryFees, "Cuota 2026-08 Casa A-1",
		decimal.NewFromInt(1000), finance.MethodCash, "", "admin")
	require.NoError(t, err)
	_, err = svc.RecordExpense(date(2026, 8, 10), finance.CategoryCleaning, "Aseo zonas comunes",
		decimal.NewFromInt(400), "", "admin")
	require.NoError(t, err)

	// entry outside the period
	_, err = svc.RecordIncome(date(2026, 9, 1), finance.CategoryFees, "Cuota 2026-09 Casa A-1",
		decimal.NewFromInt(1000), finance.MethodCash, "", "admin")
	require.NoError(t, err)

	from, to := date(2026, 8, 1), date(2026, 8, 31)
	bal, err := svc.PeriodBalance(from, to)
	require.NoError(t, err)
	assert.True(t, bal.Income.Equal(decimal.NewFromInt(1000)), "got %s", bal.Income)
	assert.True(t, bal.Expenses.Equal(decimal.NewFromInt(400)), "got %s", bal.Expenses)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(600)), "got %s", bal.Balance)

	// a void entry no longer counts
	txn, err := svc.VoidTransaction(incomeID, "duplicate")
	require.NoError(t, err)
	assert.True(t, txn.Void())
	assert.Contains(t, txn.Description, "[VOID] duplicate")

	bal, err = svc.PeriodBalance(from, to)
	require.NoError(t, err)
	assert.True(t, bal.Income.IsZero())
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(-400)), "got %s", bal.Balance)

	// voiding twice fails
	_, err = svc.VoidTransaction(incomeID, "again")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestExpensesByCategory(t *testing.T) {
	svc := setup(t)

	for _, exp := range []struct {
		category string
		amount   int64
	}{
		{finance.CategoryCleaning, 400},
		{finance.CategoryCleaning, 100},
		{finance.CategorySecurity, 900},
	} {
		_, err := svc.RecordExpense(date(2026, 8, 10), exp.category, "gasto",
			decimal.NewFromInt(exp.amount), "", "admin")
		require.NoError(t, err)
	}

	totals, err := svc.ExpensesByCategory(date(2026, 8, 1), date(2026, 8, 31))
	require.NoError(t, err)
	require.Len(t, totals, 2)
	byCat := make(map[string]decimal.Decimal, len(totals))
	for _, ct := range totals {
		byCat[ct.Category] = ct.Total
	}
	assert.True(t, byCat[finance.CategoryCleaning].Equal(decimal.NewFromInt(500)))
	assert.True(t, byCat[finance.CategorySecurity].Equal(decimal.NewFromInt(900)))
}

func TestBudgetExecution(t *testing.T) {
	svc := setup(t)

	month := 8
	_, err := svc.CreateBudget(finance.NewBudget{
		Year:     2026,
		Month:    month,
		Category: finance.CategoryCleaning,
		Kind:     finance.KindExpense,
		Amount:   decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	_, err = svc.RecordExpense(date(2026, 8, 15), finance.CategoryCleaning, "Aseo",
		decimal.NewFromInt(250), "", "admin")
	require.NoError(t, err)

	execs, err := svc.BudgetExecution(2026, &month)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.True(t, execs[0].Actual.Equal(decimal.NewFromInt(250)), "got %s", execs[0].Actual)
	assert.True(t, execs[0].Variance.Equal(decimal.NewFromInt(750)), "got %s", execs[0].Variance)
	assert.True(t, execs[0].ExecutedPct.Equal(decimal.NewFromInt(25)), "got %s", execs[0].ExecutedPct)
}

func TestReserveFund(t *testing.T) {
	svc := setup(t)

	fund, err := svc.CreateFund(finance.NewReserveFund{
		Name:         "Fondo de imprevistos",
		TargetAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, finance.FundActive, fund.Status)

	// withdrawals cannot exceed the balance
	_, err = svc.Withdraw(fund.ID, finance.NewFundMovement{Date: date(2026, 8, 1), Amount: decimal.NewFromInt(10)})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = svc.Contribute(fund.ID, finance.NewFundMovement{Date: date(2026, 8, 1), Amount: decimal.NewFromInt(600)})
	require.NoError(t, err)
	fund, err = svc.GetFund(fund.ID)
	require.NoError(t, err)
	assert.True(t, fund.CurrentAmount.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, finance.FundActive, fund.Status)

	_, err = svc.Withdraw(fund.ID, finance.NewFundMovement{Date: date(2026, 8, 2), Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	// reaching the target completes the fund
	_, err = svc.Contribute(fund.ID, finance.NewFundMovement{Date: date(2026, 8, 3), Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	fund, err = svc.GetFund(fund.ID)
	require.NoError(t, err)
	assert.True(t, fund.CurrentAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, finance.FundCompleted, fund.Status)

	mvts, err := svc.QueryFundMovements(fund.ID)
	require.NoError(t, err)
	assert.Len(t, mvts, 3)
}

// fundUpdateFailRepo fails fund updates on demand.
type fundUpdateFailRepo struct {
	finance.Repository
	fail bool
}

func (r *fundUpdateFailRepo) UpdateFund(ctx context.Context, fund finance.ReserveFund) (finance.ReserveFund, error) {
	if r.fail {
		return finance.ReserveFund{}, errors.New("storage unavailable")
	}
	return r.Repository.UpdateFund(ctx, fund)
}

func TestFundMovementNotRecordedWhenBalanceUpdateFails(t *testing.T) {
	repo := &fundUpdateFailRepo{Repository: inmemdb.NewFinanceRepository(inmemdb.NewDB())}
	svc := finance.NewService(conf, repo)

	fund, err := svc.CreateFund(finance.NewReserveFund{
		Name:         "Fondo de imprevistos",
		TargetAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	repo.fail = true
	_, err = svc.Contribute(fund.ID, finance.NewFundMovement{Date: date(2026, 8, 1), Amount: decimal.NewFromInt(100)})
	require.Error(t, err)

	repo.fail = false
	mvts, err := svc.QueryFundMovements(fund.ID)
	require.NoError(t, err)
	assert.Empty(t, mvts)

	got, err := svc.GetFund(fund.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentAmount.IsZero())
}
