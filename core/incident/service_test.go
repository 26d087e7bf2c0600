package incident_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/incident"
	"github.com/Bernah2o/altavista/core/maintenance"
	"github.com/Bernah2o/altavista/core/property"
	emailsvc "github.com/Bernah2o/altavista/services/email"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{AppName: "Altavista", TestMode: true}

type testEnv struct {
	svc    *incident.Service
	mntSvc *maintenance.Service
	owner  property.Owner
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db := inmemdb.NewDB()
	residents := property.NewService(conf, inmemdb.NewPropertyRepository(db))
	ledger := finance.NewService(conf, inmemdb.NewFinanceRepository(db))
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	svc := incident.NewService(conf, inmemdb.NewIncidentRepository(db), residents, mailSvc)
	mntSvc := maintenance.NewService(conf, inmemdb.NewMaintenanceRepository(db), ledger, svc)
	svc.SetScheduler(mntSvc)

	own, err := residents.CreateOwner(property.NewOwner{
		FirstName:  "Ana",
		LastName:   "Gomez",
		NationalID: "5040302010",
	})
	require.NoError(t, err)
	return testEnv{svc: svc, mntSvc: mntSvc, owner: own}
}

func report(t *testing.T, env testEnv, priority string) incident.Incident {
	t.Helper()
	inc, err := env.svc.Create(incident.NewIncident{
		OwnerID:     env.owner.ID,
		Kind:        incident.KindMaintenance,
		Title:       "Leaking pipe",
		Description: "Water leak in the common corridor",
		Priority:    priority,
	})
	require.NoError(t, err)
	return inc
}

func TestCreate(t *testing.T) {
	env := setup(t)

	inc := report(t, env, "")
	assert.Equal(t, incident.StatusReported, inc.Status)
	assert.Equal(t, incident.PriorityMedium, inc.Priority, "priority defaults to medium")
	assert.True(t, inc.VisibleToOwner)
	assert.True(t, inc.Open())

	// unknown owner is refused
	_, err := env.svc.Create(incident.NewIncident{
		OwnerID:     "nope",
		Kind:        incident.KindSecurity,
		Title:       "x",
		Description: "y",
	})
	assert.Equal(t, property.ErrOwnerNotFound, err)
}

func TestStatusTransitions(t *testing.T) {
	env := setup(t)
	inc := report(t, env, incident.PriorityHigh)

	inc, err := env.svc.Update(inc.ID, incident.UpdateIncident{Status: incident.StatusResolved})
	require.NoError(t, err)
	assert.Equal(t, incident.StatusResolved, inc.Status)
	assert.True(t, inc.ClosedAt.Valid, "closing sets ClosedAt")

	// reopening clears ClosedAt
	inc, err = env.svc.Update(inc.ID, incident.UpdateIncident{Status: incident.StatusInProgress})
	require.NoError(t, err)
	assert.False(t, inc.ClosedAt.Valid)
}

func TestOverdue(t *testing.T) {
	now := time.Now().UTC()
	inc := incident.Incident{
		Priority:   incident.PriorityUrgent,
		Status:     incident.StatusReported,
		ReportedAt: now.Add(-30 * time.Hour),
	}
	assert.True(t, inc.Overdue(now))

	inc.Priority = incident.PriorityMedium
	assert.False(t, inc.Overdue(now))

	inc.Status = incident.StatusResolved
	inc.Priority = incident.PriorityUrgent
	assert.False(t, inc.Overdue(now), "closed incidents are never overdue")
}

func TestAddUpdate(t *testing.T) {
	env := setup(t)
	inc := report(t, env, "")

	hidden := false
	_, err := env.svc.AddUpdate(inc.ID, incident.NewUpdate{
		Comment:        "Plumber requested",
		Status:         incident.StatusInProgress,
		VisibleToOwner: &hidden,
	})
	require.NoError(t, err)

	_, err = env.svc.AddUpdate(inc.ID, incident.NewUpdate{Comment: "Owner notified"})
	require.NoError(t, err)

	inc, err = env.svc.GetByID(inc.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.StatusInProgress, inc.Status)

	all, err := env.svc.QueryUpdates(inc.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	visible, err := env.svc.QueryUpdates(inc.ID, true)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	// no updates on a cancelled incident
	_, err = env.svc.Update(inc.ID, incident.UpdateIncident{Status: incident.StatusCancelled})
	require.NoError(t, err)
	var vErr *core.ValidationError
	_, err = env.svc.AddUpdate(inc.ID, incident.NewUpdate{Comment: "too late"})
	require.ErrorAs(t, err, &vErr)
}

func TestAssignAndResolveViaMaintenance(t *testing.T) {
	env := setup(t)
	inc := report(t, env, incident.PriorityHigh)

	inc, err := env.svc.AssignToMaintenance(inc.ID)
	require.NoError(t, err)
	assert.True(t, inc.RequiresMaintenance)
	require.True(t, inc.MaintenanceID.Valid)
	assert.Equal(t, incident.StatusInProgress, inc.Status)

	// one job per incident
	var vErr *core.ValidationError
	_, err = env.svc.AssignToMaintenance(inc.ID)
	require.ErrorAs(t, err, &vErr)

	job, err := env.mntSvc.GetByID(inc.MaintenanceID.String)
	require.NoError(t, err)
	assert.Equal(t, maintenance.KindCorrective, job.Kind)
	assert.Equal(t, inc.Priority, job.Priority)
	assert.Equal(t, null.StringFrom(inc.ID), job.IncidentID)

	// finishing the job resolves the incident
	_, err = env.mntSvc.Finish(job.ID, maintenance.FinishJob{Notes: "pipe replaced"})
	require.NoError(t, err)

	inc, err = env.svc.GetByID(inc.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.StatusResolved, inc.Status)
	assert.True(t, inc.ClosedAt.Valid)

	upds, err := env.svc.QueryUpdates(inc.ID, true)
	require.NoError(t, err)
	require.Len(t, upds, 1)
	assert.Contains(t, upds[0].Comment, "pipe replaced")

	// a closed incident cannot be reassigned
	_, err = env.svc.AssignToMaintenance(inc.ID)
	require.ErrorAs(t, err, &vErr)
}
