package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/staff"
)

type staffRepository struct {
	db *DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) *staffRepository {
	return &staffRepository{db: db}
}

func (repo *staffRepository) CheckUniqueness(_ context.Context, nationalID string, excludedEmployees ...staff.Employee) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedEmployees))
	for _, e := range excludedEmployees {
		excluded[e.ID] = true
	}
	for _, emp := range repo.db.employees {
		if emp.NationalID == nationalID && !excluded[emp.ID] {
			return staff.ErrEmployeeExists
		}
	}
	return nil
}

func (repo *staffRepository) CreateEmployee(_ context.Context, emp staff.Employee) (staff.Employee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	emp.ID = uuid.New().String()
	repo.db.employees[emp.ID] = emp
	return emp, nil
}

func (repo *staffRepository) QueryEmployees(_ context.Context, filter *staff.QueryFilter, _ []core.DBOrdering) ([]staff.Employee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	emps := make([]staff.Employee, 0, len(repo.db.employees))
	for _, emp := range repo.db.employees {
		if filter != nil {
			if filter.Position != "" && emp.Position != filter.Position {
				continue
			}
			if filter.Active != nil && emp.Active != *filter.Active {
				continue
			}
			if filter.Search != "" {
				s := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(emp.FullName()), s) &&
					!strings.Contains(emp.NationalID, filter.Search) {
					continue
				}
			}
		}
		emps = append(emps, emp)
	}
	sort.Slice(emps, func(i, j int) bool {
		if emps[i].LastName != emps[j].LastName {
			return emps[i].LastName < emps[j].LastName
		}
		return emps[i].FirstName < emps[j].FirstName
	})
	return emps, nil
}

func (repo *staffRepository) GetEmployee(_ context.Context, id string) (staff.Employee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if emp, ok := repo.db.employees[id]; ok {
		return emp, nil
	}
	return staff.Employee{}, staff.ErrNotFound
}

func (repo *staffRepository) UpdateEmployee(_ context.Context, emp staff.Employee) (staff.Employee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.employees[emp.ID]; !ok {
		return staff.Employee{}, staff.ErrNotFound
	}
	repo.db.employees[emp.ID] = emp
	return emp, nil
}

func (repo *staffRepository) DeleteEmployeesByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.employees[id]; ok {
			delete(repo.db.employees, id)
			cnt++
		}
	}
	return cnt, nil
}
