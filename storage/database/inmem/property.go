package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/property"
)

type propertyRepository struct {
	db *DB
}

var _ property.Repository = (*propertyRepository)(nil) // interface compliance check

func NewPropertyRepository(db *DB) *propertyRepository {
	return &propertyRepository{db: db}
}

func (repo *propertyRepository) CheckHomeUniqueness(_ context.Context, block, number string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, hm := range repo.db.homes {
		if hm.Block == block && hm.Number == number {
			return property.ErrHomeExists
		}
	}
	return nil
}

func (repo *propertyRepository) CreateHome(_ context.Context, hm property.Home) (property.Home, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	hm.ID = uuid.New().String()
	repo.db.homes[hm.ID] = hm
	return hm, nil
}

func (repo *propertyRepository) QueryHomes(_ context.Context, filter *property.HomeFilter, _ []core.DBOrdering) ([]property.Home, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	homes := make([]property.Home, 0, len(repo.db.homes))
	for _, hm := range repo.db.homes {
		if filter != nil {
			if filter.Block != "" && hm.Block != filter.Block {
				continue
			}
			if filter.Search != "" && !strings.Contains(hm.Number, filter.Search) {
				continue
			}
			if filter.Inhabited != nil && hm.Inhabited != *filter.Inhabited {
				continue
			}
		}
		homes = append(homes, hm)
	}
	sort.Slice(homes, func(i, j int) bool {
		if homes[i].Block != homes[j].Block {
			return homes[i].Block < homes[j].Block
		}
		return homes[i].Number < homes[j].Number
	})
	return homes, nil
}

func (repo *propertyRepository) GetHome(_ context.Context, filter property.HomeGetFilter) (property.Home, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if hm, ok := repo.db.homes[filter.ID]; ok {
			return hm, nil
		}
		return property.Home{}, property.ErrHomeNotFound
	}
	for _, hm := range repo.db.homes {
		if hm.Block == filter.Block && hm.Number == filter.Number {
			return hm, nil
		}
	}
	return property.Home{}, property.ErrHomeNotFound
}

func (repo *propertyRepository) UpdateHome(_ context.Context, hm property.Home) (property.Home, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.homes[hm.ID]; !ok {
		return property.Home{}, property.ErrHomeNotFound
	}
	repo.db.homes[hm.ID] = hm
	return hm, nil
}

func (repo *propertyRepository) DeleteHomesByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.homes[id]; ok {
			delete(repo.db.homes, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *propertyRepository) CheckOwnerUniqueness(_ context.Context, nationalID string, excludedOwners ...property.Owner) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedOwners))
	for _, o := range excludedOwners {
		excluded[o.ID] = true
	}
	for _, own := range repo.db.owners {
		if own.NationalID == nationalID && !excluded[own.ID] {
			return property.ErrOwnerExists
		}
	}
	return nil
}

func (repo *propertyRepository) CreateOwner(_ context.Context, own property.Owner) (property.Owner, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	own.ID = uuid.New().String()
	repo.db.owners[own.ID] = own
	return own, nil
}

func (repo *propertyRepository) QueryOwners(_ context.Context, filter *property.OwnerFilter, _ []core.DBOrdering) ([]property.Owner, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	owners := make([]property.Owner, 0, len(repo.db.owners))
	for _, own := range repo.db.owners {
		if filter != nil && filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(own.FullName()), s) &&
				!strings.Contains(own.NationalID, filter.Search) &&
				!strings.Contains(strings.ToLower(own.Email.String), s) {
				continue
			}
		}
		owners = append(owners, own)
	}
	sort.Slice(owners, func(i, j int) bool {
		if owners[i].LastName != owners[j].LastName {
			return owners[i].LastName < owners[j].LastName
		}
		return owners[i].FirstName < owners[j].FirstName
	})
	return owners, nil
}

func (repo *propertyRepository) GetOwner(_ context.Context, filter property.OwnerGetFilter) (property.Owner, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if own, ok := repo.db.owners[filter.ID]; ok {
			return own, nil
		}
		return property.Owner{}, property.ErrOwnerNotFound
	}
	for _, own := range repo.db.owners {
		if filter.NationalID != "" && own.NationalID == filter.NationalID {
			return own, nil
		}
		if filter.UserID != "" && own.UserID.String == filter.UserID {
			return own, nil
		}
	}
	return property.Owner{}, property.ErrOwnerNotFound
}

func (repo *propertyRepository) UpdateOwner(_ context.Context, own property.Owner) (property.Owner, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.owners[own.ID]; !ok {
		return property.Owner{}, property.ErrOwnerNotFound
	}
	repo.db.owners[own.ID] = own
	return own, nil
}

func (repo *propertyRepository) DeleteOwnersByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.owners[id]; ok {
			delete(repo.db.owners, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *propertyRepository) CreateHomeOwner(_ context.Context, rel property.HomeOwner) (property.HomeOwner, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// mirrors the partial unique index on (owner_id, home_id)
	for _, r := range repo.db.homeOwners {
		if r.OwnerID == rel.OwnerID && r.HomeID == rel.HomeID && !r.EndDate.Valid {
			return property.HomeOwner{}, property.ErrAlreadyAssigned
		}
	}

	rel.ID = uuid.New().String()
	repo.db.homeOwners[rel.ID] = rel
	return rel, nil
}

func (repo *propertyRepository) QueryHomeOwners(_ context.Context, homeID string, activeOnly bool) ([]property.HomeOwner, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	rels := make([]property.HomeOwner, 0)
	for _, rel := range repo.db.homeOwners {
		if rel.HomeID != homeID {
			continue
		}
		if activeOnly && !rel.Active() {
			continue
		}
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].StartDate.After(rels[j].StartDate) })
	return rels, nil
}

func (repo *propertyRepository) QueryOwnerHomes(_ context.Context, ownerID string) ([]property.Home, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	homes := make([]property.Home, 0)
	for _, rel := range repo.db.homeOwners {
		if rel.OwnerID != ownerID || !rel.Active() {
			continue
		}
		if hm, ok := repo.db.homes[rel.HomeID]; ok {
			homes = append(homes, hm)
		}
	}
	sort.Slice(homes, func(i, j int) bool {
		if homes[i].Block != homes[j].Block {
			return homes[i].Block < homes[j].Block
		}
		return homes[i].Number < homes[j].Number
	})
	return homes, nil
}

func (repo *propertyRepository) EndHomeOwner(_ context.Context, homeID, ownerID string, endDate time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var found bool
	for id, rel := range repo.db.homeOwners {
		if rel.HomeID == homeID && rel.OwnerID == ownerID && rel.Active() {
			rel.EndDate.SetValid(endDate)
			rel.UpdatedAt = time.Now().UTC()
			repo.db.homeOwners[id] = rel
			found = true
		}
	}
	if !found {
		return property.ErrOwnerNotFound
	}
	return nil
}
