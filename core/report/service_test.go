package report

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/billing"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/incident"
	"github.com/Bernah2o/altavista/core/property"
	emailsvc "github.com/Bernah2o/altavista/services/email"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{AppName: "Altavista", TestMode: true}

type testEnv struct {
	svc       *Service
	homes     *property.Service
	billing   *billing.Service
	ledger    *finance.Service
	incidents *incident.Service
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db := inmemdb.NewDB()
	homes := property.NewService(conf, inmemdb.NewPropertyRepository(db))
	ledger := finance.NewService(conf, inmemdb.NewFinanceRepository(db))
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	billingSvc := billing.NewService(conf, inmemdb.NewBillingRepository(db), homes, ledger, mailSvc)
	incidentSvc := incident.NewService(conf, inmemdb.NewIncidentRepository(db), homes, mailSvc)
	svc := NewService(conf, billingSvc, ledger, incidentSvc)
	return testEnv{svc: svc, homes: homes, billing: billingSvc, ledger: ledger, incidents: incidentSvc}
}

func assertPDF(t *testing.T, data []byte) {
	t.Helper()
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestFeePaymentStatusReport(t *testing.T) {
	env := setup(t)

	hm, err := env.homes.CreateHome(property.NewHome{
		Block:                property.BlockA,
		Number:               "12",
		AreaM2:               decimal.NewFromInt(72),
		OwnershipCoefficient: decimal.RequireFromString("0.01"),
	})
	require.NoError(t, err)

	fee, err := env.billing.CreateFee(billing.NewFee{
		Year:       2026,
		Month:      8,
		BaseAmount: decimal.NewFromInt(100000),
		DueDate:    time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	pmt, err := env.billing.CreatePayment(billing.NewPayment{
		HomeID: hm.ID,
		FeeID:  fee.ID,
		PaidOn: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
		Amount: decimal.NewFromInt(1000),
		Method: finance.MethodCash,
	})
	require.NoError(t, err)
	_, err = env.billing.ConfirmPayment(pmt.ID, "admin")
	require.NoError(t, err)

	data, filename, err := env.svc.FeePaymentStatus(fee.ID)
	require.NoError(t, err)
	assertPDF(t, data)
	assert.Equal(t, "fee-status-2026-08.pdf", filename)

	// unknown fee propagates the lookup error
	_, _, err = env.svc.FeePaymentStatus("nope")
	assert.Error(t, err)
}

func TestFinancialSummaryReport(t *testing.T) {
	env := setup(t)

	_, err := env.ledger.RecordIncome(time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		finance.CategoryFees, "Cuota 2026-08", decimal.NewFromInt(1000), finance.MethodCash, "", "admin")
	require.NoError(t, err)
	_, err = env.ledger.RecordExpense(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		finance.CategoryCleaning, "Aseo", decimal.NewFromInt(400), "", "admin")
	require.NoError(t, err)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	data, filename, err := env.svc.FinancialSummary(from, to)
	require.NoError(t, err)
	assertPDF(t, data)
	assert.Equal(t, "financial-summary-20260801-20260831.pdf", filename)
}

func TestIncidentsReport(t *testing.T) {
	env := setup(t)

	own, err := env.homes.CreateOwner(property.NewOwner{
		FirstName:  "Maria",
		LastName:   "Lopez",
		NationalID: "1020304050",
	})
	require.NoError(t, err)

	// a long accented title exercises the table's column clipping
	_, err = env.incidents.Create(incident.NewIncident{
		OwnerID:     own.ID,
		Kind:        incident.KindMaintenance,
		Title:       "Filtración de agua en el parqueadero subterráneo junto a la portería",
		Description: "Se observa un goteo constante",
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	data, _, err := env.svc.Incidents(now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assertPDF(t, data)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short", in: "Goteo", max: 40, want: "Goteo"},
		{name: "exact", in: "1234567890", max: 10, want: "1234567890"},
		{name: "clipped", in: "Filtracion de agua en el parqueadero subterraneo", max: 20, want: "Filtracion de agu..."},
		{name: "accented clipped", in: "Filtración de agua en el parqueadero subterráneo", max: 20, want: "Filtración de agu..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
