package maintenance_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/maintenance"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{AppName: "Altavista", TestMode: true}

func setup(t *testing.T) (*maintenance.Service, *finance.Service) {
	t.Helper()
	db := inmemdb.NewDB()
	ledger := finance.NewService(conf, inmemdb.NewFinanceRepository(db))
	svc := maintenance.NewService(conf, inmemdb.NewMaintenanceRepository(db), ledger, nil)
	return svc, ledger
}

func createJob(t *testing.T, svc *maintenance.Service) maintenance.Job {
	t.Helper()
	job, err := svc.Create(maintenance.NewJob{
		Kind:        maintenance.KindPreventive,
		Title:       "Pool pump service",
		Description: "Quarterly pump maintenance",
		ScheduledOn: null.TimeFrom(time.Now().UTC().AddDate(0, 0, 7)),
		Budget:      decimal.NewFromInt(300000),
	})
	require.NoError(t, err)
	return job
}

func TestJobLifecycle(t *testing.T) {
	svc, ledger := setup(t)
	job := createJob(t, svc)
	assert.Equal(t, maintenance.StatusScheduled, job.Status)
	assert.Equal(t, maintenance.PriorityMedium, job.Priority, "priority defaults to medium")

	job, err := svc.Start(job.ID)
	require.NoError(t, err)
	assert.Equal(t, maintenance.StatusInProgress, job.Status)
	assert.True(t, job.StartedOn.Valid)

	// only scheduled jobs can be started
	var vErr *core.ValidationError
	_, err = svc.Start(job.ID)
	require.ErrorAs(t, err, &vErr)

	// finishing records the cost as a ledger expense
	job, err = svc.Finish(job.ID, maintenance.FinishJob{
		FinalCost: decimal.NewFromInt(280000),
		Notes:     "bearings replaced",
	})
	require.NoError(t, err)
	assert.Equal(t, maintenance.StatusDone, job.Status)
	assert.True(t, job.FinishedOn.Valid)
	assert.Contains(t, job.Notes, "bearings replaced")

	txns, err := ledger.QueryTransactions(&finance.TransactionFilter{Category: finance.CategoryMaintenance}, nil)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, finance.KindExpense, txns[0].Kind)
	assert.True(t, txns[0].AbsAmount().Equal(decimal.NewFromInt(280000)))

	// a done job cannot be finished or cancelled
	_, err = svc.Finish(job.ID, maintenance.FinishJob{})
	require.ErrorAs(t, err, &vErr)
	_, err = svc.Cancel(job.ID, "nope")
	require.ErrorAs(t, err, &vErr)
}

func TestCancel(t *testing.T) {
	svc, ledger := setup(t)
	job := createJob(t, svc)

	job, err := svc.Cancel(job.ID, "supplier unavailable")
	require.NoError(t, err)
	assert.Equal(t, maintenance.StatusCancelled, job.Status)
	assert.Contains(t, job.Notes, "[CANCELLED] supplier unavailable")

	// cancelling records nothing in the ledger
	txns, err := ledger.QueryTransactions(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestUpcomingForAmenity(t *testing.T) {
	svc, _ := setup(t)

	amenityID := "0c4e7833-6273-4e31-b2f8-92e04a42ee0f"
	_, err := svc.Create(maintenance.NewJob{
		AmenityID:   null.StringFrom(amenityID),
		Kind:        maintenance.KindPreventive,
		Title:       "Net replacement",
		ScheduledOn: null.TimeFrom(time.Now().UTC().AddDate(0, 0, 3)),
	})
	require.NoError(t, err)

	// past job is excluded
	_, err = svc.Create(maintenance.NewJob{
		AmenityID:   null.StringFrom(amenityID),
		Kind:        maintenance.KindCorrective,
		Title:       "Light fixture",
		ScheduledOn: null.TimeFrom(time.Now().UTC().AddDate(0, 0, -3)),
	})
	require.NoError(t, err)

	jobs, err := svc.UpcomingForAmenity(amenityID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Net replacement", jobs[0].Title)
}
