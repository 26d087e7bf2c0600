package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/billing"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/property"
	emailsvc "github.com/Bernah2o/altavista/services/email"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{AppName: "Altavista", TestMode: true}

type testEnv struct {
	svc    *billing.Service
	homes  *property.Service
	ledger *finance.Service
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db := inmemdb.NewDB()
	homes := property.NewService(conf, inmemdb.NewPropertyRepository(db))
	ledger := finance.NewService(conf, inmemdb.NewFinanceRepository(db))
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	svc := billing.NewService(conf, inmemdb.NewBillingRepository(db), homes, ledger, mailSvc)
	return testEnv{svc: svc, homes: homes, ledger: ledger}
}

func createHome(t *testing.T, homes *property.Service, block, number string, coeff string) property.Home {
	t.Helper()
	hm, err := homes.CreateHome(property.NewHome{
		Block:                block,
		Number:               number,
		AreaM2:               decimal.NewFromInt(72),
		OwnershipCoefficient: decimal.RequireFromString(coeff),
	})
	require.NoError(t, err)
	return hm
}

func createFee(t *testing.T, svc *billing.Service, year, month int, base string, dueDay int) billing.Fee {
	t.Helper()
	fee, err := svc.CreateFee(billing.NewFee{
		Year:       year,
		Month:      month,
		BaseAmount: decimal.RequireFromString(base),
		DueDate:    time.Date(year, time.Month(month), dueDay, 0, 0, 0, 0, time.UTC),
		LateFeePct: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	return fee
}

func TestFeeAmounts(t *testing.T) {
	fee := billing.Fee{
		Year:       2026,
		Month:      8,
		BaseAmount: decimal.NewFromInt(100000),
		DueDate:    time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		LateFeePct: decimal.NewFromInt(5),
	}
	hm := property.Home{OwnershipCoefficient: decimal.RequireFromString("0.0125")}

	amount := fee.AmountFor(hm)
	assert.True(t, amount.Equal(decimal.NewFromInt(1250)), "got %s", amount)

	onTime := fee.AmountDueFor(hm, fee.DueDate)
	assert.True(t, onTime.Equal(decimal.NewFromInt(1250)), "got %s", onTime)

	late := fee.AmountDueFor(hm, fee.DueDate.AddDate(0, 0, 1))
	assert.True(t, late.Equal(decimal.RequireFromString("1312.50")), "got %s", late)

	assert.Equal(t, "2026-08", fee.PeriodLabel())
}

func TestGenerateNextFee(t *testing.T) {
	env := setup(t)

	_, err := env.svc.GenerateNextFee()
	assert.Equal(t, billing.ErrNoFeeToGenerate, err)

	createFee(t, env.svc, 2026, 11, "150000", 30)

	// next period keeps the amount, clamps the due day
	next, err := env.svc.GenerateNextFee()
	require.NoError(t, err)
	assert.Equal(t, 2026, next.Year)
	assert.Equal(t, 12, next.Month)
	assert.True(t, next.BaseAmount.Equal(decimal.NewFromInt(150000)))
	assert.Equal(t, 28, next.DueDate.Day())

	// year rollover
	next, err = env.svc.GenerateNextFee()
	require.NoError(t, err)
	assert.Equal(t, 2027, next.Year)
	assert.Equal(t, 1, next.Month)
}

func TestPaymentLifecycle(t *testing.T) {
	env := setup(t)
	hm := createHome(t, env.homes, property.BlockA, "12", "0.01")
	fee := createFee(t, env.svc, 2026, 8, "100000", 10)

	np := billing.NewPayment{
		HomeID: hm.ID,
		FeeID:  fee.ID,
		PaidOn: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
		Amount: decimal.NewFromInt(1000),
		Method: finance.MethodTransfer,
	}
	pmt, err := env.svc.CreatePayment(np)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentRegistered, pmt.Status)

	// only one active payment per (home, fee)
	_, err = env.svc.CreatePayment(np)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	// confirming records the income in the ledger
	pmt, err = env.svc.ConfirmPayment(pmt.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentConfirmed, pmt.Status)
	assert.Equal(t, null.StringFrom("admin"), pmt.ConfirmedBy)
	require.True(t, pmt.TransactionID.Valid)

	txn, err := env.ledger.GetTransaction(pmt.TransactionID.String)
	require.NoError(t, err)
	assert.Equal(t, finance.KindIncome, txn.Kind)
	assert.Equal(t, finance.CategoryFees, txn.Category)
	assert.True(t, txn.Amount.Equal(pmt.Amount))

	// a confirmed payment cannot be confirmed again
	_, err = env.svc.ConfirmPayment(pmt.ID, "admin")
	require.ErrorAs(t, err, &vErr)

	// rejecting a confirmed payment voids the ledger entry
	pmt, err = env.svc.RejectPayment(pmt.ID, "bounced transfer")
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentRejected, pmt.Status)
	assert.Contains(t, pmt.Notes, "[REJECTED] bounced transfer")

	txn, err = env.ledger.GetTransaction(pmt.TransactionID.String)
	require.NoError(t, err)
	assert.True(t, txn.Void())

	_, err = env.svc.RejectPayment(pmt.ID, "again")
	require.ErrorAs(t, err, &vErr)

	// a rejected payment frees the (home, fee) slot
	_, err = env.svc.CreatePayment(np)
	assert.NoError(t, err)
}

func TestFeePaymentStatus(t *testing.T) {
	env := setup(t)
	hm1 := createHome(t, env.homes, property.BlockA, "1", "0.01")
	hm2 := createHome(t, env.homes, property.BlockA, "2", "0.02")
	fee := createFee(t, env.svc, 2026, 8, "100000", 10)

	pmt, err := env.svc.CreatePayment(billing.NewPayment{
		HomeID: hm1.ID,
		FeeID:  fee.ID,
		PaidOn: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		Amount: decimal.NewFromInt(1000),
		Method: finance.MethodCash,
	})
	require.NoError(t, err)
	_, err = env.svc.ConfirmPayment(pmt.ID, "admin")
	require.NoError(t, err)

	status, err := env.svc.FeePaymentStatus(fee.ID)
	require.NoError(t, err)
	assert.Len(t, status.Homes, 2)
	assert.Equal(t, 1, status.PaidCount)
	assert.Equal(t, 1, status.PendingCount)
	assert.True(t, status.TotalExpected.Equal(decimal.NewFromInt(3000)), "got %s", status.TotalExpected)
	assert.True(t, status.TotalCollected.Equal(decimal.NewFromInt(1000)), "got %s", status.TotalCollected)

	// pending fees of the unpaid home
	pending, err := env.svc.PendingFees(hm2.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, fee.ID, pending[0].Fee.ID)
	assert.True(t, pending[0].Amount.Equal(decimal.NewFromInt(2000)))

	// the paid home owes nothing
	pending, err = env.svc.PendingFees(hm1.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSendReminders(t *testing.T) {
	env := setup(t)
	hm := createHome(t, env.homes, property.BlockB, "7", "0.01")
	fee := createFee(t, env.svc, 2026, 8, "100000", 10)

	own, err := env.homes.CreateOwner(property.NewOwner{
		FirstName:  "Maria",
		LastName:   "Lopez",
		NationalID: "1020304050",
		Email:      null.StringFrom("maria@test.cd"),
	})
	require.NoError(t, err)
	_, err = env.homes.Assign(hm.ID, property.AssignOwner{
		OwnerID:   own.ID,
		StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	queued, err := env.svc.SendReminders(fee.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
}

func TestPaymentSlotHeldAtRepoLevel(t *testing.T) {
	repo := inmemdb.NewBillingRepository(inmemdb.NewDB())
	ctx := context.Background()

	pmt := billing.Payment{HomeID: "home-1", FeeID: "fee-1", Status: billing.PaymentRegistered}
	_, err := repo.CreatePayment(ctx, pmt)
	require.NoError(t, err)

	// a second non-rejected payment for the same (home, fee) is refused
	// even without going through the service
	_, err = repo.CreatePayment(ctx, pmt)
	assert.Equal(t, billing.ErrPaymentExists, err)

	confirmed := pmt
	confirmed.Status = billing.PaymentConfirmed
	_, err = repo.CreatePayment(ctx, confirmed)
	assert.Equal(t, billing.ErrPaymentExists, err)

	// rejected payments do not hold the slot
	rejected := billing.Payment{HomeID: "home-1", FeeID: "fee-2", Status: billing.PaymentRejected}
	_, err = repo.CreatePayment(ctx, rejected)
	require.NoError(t, err)
	_, err = repo.CreatePayment(ctx, billing.Payment{HomeID: "home-1", FeeID: "fee-2", Status: billing.PaymentRegistered})
	assert.NoError(t, err)
}
