package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/supplier"
)

type supplierRepository struct {
	db *DB
}

var _ supplier.Repository = (*supplierRepository)(nil) // interface compliance check

func NewSupplierRepository(db *DB) *supplierRepository {
	return &supplierRepository{db: db}
}

func (repo *supplierRepository) CheckUniqueness(_ context.Context, taxID string, excludedSuppliers ...supplier.Supplier) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedSuppliers))
	for _, s := range excludedSuppliers {
		excluded[s.ID] = true
	}
	for _, sup := range repo.db.suppliers {
		if sup.TaxID == taxID && !excluded[sup.ID] {
			return supplier.ErrSupplierExists
		}
	}
	return nil
}

func (repo *supplierRepository) CreateSupplier(_ context.Context, sup supplier.Supplier) (supplier.Supplier, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sup.ID = uuid.New().String()
	repo.db.suppliers[sup.ID] = sup
	return sup, nil
}

func (repo *supplierRepository) QuerySuppliers(_ context.Context, filter *supplier.QueryFilter, _ []core.DBOrdering) ([]supplier.Supplier, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sups := make([]supplier.Supplier, 0, len(repo.db.suppliers))
	for _, sup := range repo.db.suppliers {
		if filter != nil {
			if filter.Status != "" && sup.Status != filter.Status {
				continue
			}
			if filter.Kind != "" && sup.Kind != filter.Kind {
				continue
			}
			if filter.Search != "" {
				s := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(sup.Name), s) &&
					!strings.Contains(sup.TaxID, filter.Search) {
					continue
				}
			}
		}
		sups = append(sups, sup)
	}
	sort.Slice(sups, func(i, j int) bool { return sups[i].Name < sups[j].Name })
	return sups, nil
}

func (repo *supplierRepository) GetSupplier(_ context.Context, id string) (supplier.Supplier, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sup, ok := repo.db.suppliers[id]; ok {
		return sup, nil
	}
	return supplier.Supplier{}, supplier.ErrNotFound
}

func (repo *supplierRepository) UpdateSupplier(_ context.Context, sup supplier.Supplier) (supplier.Supplier, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.suppliers[sup.ID]; !ok {
		return supplier.Supplier{}, supplier.ErrNotFound
	}
	repo.db.suppliers[sup.ID] = sup
	return sup, nil
}

func (repo *supplierRepository) DeleteSuppliersByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.suppliers[id]; ok {
			delete(repo.db.suppliers, id)
			cnt++
		}
	}
	return cnt, nil
}
