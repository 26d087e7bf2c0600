package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/incident"
)

type incidentRepository struct {
	db *DB
}

var _ incident.Repository = (*incidentRepository)(nil) // interface compliance check

func NewIncidentRepository(db *DB) *incidentRepository {
	return &incidentRepository{db: db}
}

func (repo *incidentRepository) CreateIncident(_ context.Context, inc incident.Incident) (incident.Incident, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	inc.ID = uuid.New().String()
	repo.db.incidents[inc.ID] = inc
	return inc, nil
}

func (repo *incidentRepository) QueryIncidents(_ context.Context, filter *incident.QueryFilter, _ []core.DBOrdering) ([]incident.Incident, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	incs := make([]incident.Incident, 0, len(repo.db.incidents))
	for _, inc := range repo.db.incidents {
		if filter != nil {
			if filter.Status != "" && inc.Status != filter.Status {
				continue
			}
			if filter.Priority != "" && inc.Priority != filter.Priority {
				continue
			}
			if filter.Kind != "" && inc.Kind != filter.Kind {
				continue
			}
			if filter.HomeID != "" && inc.HomeID.String != filter.HomeID {
				continue
			}
			if filter.OwnerID != "" && inc.OwnerID != filter.OwnerID {
				continue
			}
			if !filter.ReportedFrom.IsZero() && inc.ReportedAt.Before(filter.ReportedFrom) {
				continue
			}
			if !filter.ReportedTo.IsZero() && inc.ReportedAt.After(filter.ReportedTo) {
				continue
			}
		}
		incs = append(incs, inc)
	}
	sort.Slice(incs, func(i, j int) bool { return incs[i].ReportedAt.After(incs[j].ReportedAt) })
	return incs, nil
}

func (repo *incidentRepository) GetIncident(_ context.Context, id string) (incident.Incident, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if inc, ok := repo.db.incidents[id]; ok {
		return inc, nil
	}
	return incident.Incident{}, incident.ErrNotFound
}

func (repo *incidentRepository) UpdateIncident(_ context.Context, inc incident.Incident) (incident.Incident, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.incidents[inc.ID]; !ok {
		return incident.Incident{}, incident.ErrNotFound
	}
	repo.db.incidents[inc.ID] = inc
	return inc, nil
}

func (repo *incidentRepository) DeleteIncidentsByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.incidents[id]; ok {
			delete(repo.db.incidents, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *incidentRepository) CreateUpdate(_ context.Context, upd incident.Update) (incident.Update, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	upd.ID = uuid.New().String()
	repo.db.incidentUpds[upd.ID] = upd
	return upd, nil
}

func (repo *incidentRepository) QueryUpdates(_ context.Context, incidentID string, visibleOnly bool) ([]incident.Update, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	upds := make([]incident.Update, 0)
	for _, upd := range repo.db.incidentUpds {
		if upd.IncidentID != incidentID {
			continue
		}
		if visibleOnly && !upd.VisibleToOwner {
			continue
		}
		upds = append(upds, upd)
	}
	sort.Slice(upds, func(i, j int) bool { return upds[i].CreatedAt.Before(upds[j].CreatedAt) })
	return upds, nil
}
