package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/maintenance"
)

type maintenanceRepository struct {
	db *DB
}

var _ maintenance.Repository = (*maintenanceRepository)(nil) // interface compliance check

func NewMaintenanceRepository(db *DB) *maintenanceRepository {
	return &maintenanceRepository{db: db}
}

func (repo *maintenanceRepository) CreateJob(_ context.Context, job maintenance.Job) (maintenance.Job, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	job.ID = uuid.New().String()
	repo.db.jobs[job.ID] = job
	return job, nil
}

func (repo *maintenanceRepository) QueryJobs(_ context.Context, filter *maintenance.QueryFilter, _ []core.DBOrdering) ([]maintenance.Job, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	jobs := make([]maintenance.Job, 0, len(repo.db.jobs))
	for _, job := range repo.db.jobs {
		if filter != nil {
			if filter.Status != "" && job.Status != filter.Status {
				continue
			}
			if filter.Kind != "" && job.Kind != filter.Kind {
				continue
			}
			if filter.Priority != "" && job.Priority != filter.Priority {
				continue
			}
			if filter.AmenityID != "" && job.AmenityID.String != filter.AmenityID {
				continue
			}
			if filter.HomeID != "" && job.HomeID.String != filter.HomeID {
				continue
			}
			if filter.SupplierID != "" && job.SupplierID.String != filter.SupplierID {
				continue
			}
			if filter.EmployeeID != "" && job.EmployeeID.String != filter.EmployeeID {
				continue
			}
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].RequestedOn.After(jobs[j].RequestedOn) })
	return jobs, nil
}

func (repo *maintenanceRepository) GetJob(_ context.Context, id string) (maintenance.Job, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if job, ok := repo.db.jobs[id]; ok {
		return job, nil
	}
	return maintenance.Job{}, maintenance.ErrNotFound
}

func (repo *maintenanceRepository) UpdateJob(_ context.Context, job maintenance.Job) (maintenance.Job, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.jobs[job.ID]; !ok {
		return maintenance.Job{}, maintenance.ErrNotFound
	}
	repo.db.jobs[job.ID] = job
	return job, nil
}

func (repo *maintenanceRepository) DeleteJobsByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.jobs[id]; ok {
			delete(repo.db.jobs, id)
			cnt++
		}
	}
	return cnt, nil
}
