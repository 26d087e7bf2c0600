package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/billing"
)

type billingRepository struct {
	db *DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *DB) *billingRepository {
	return &billingRepository{db: db}
}

func (repo *billingRepository) CheckFeeUniqueness(_ context.Context, year, month int) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, fee := range repo.db.fees {
		if fee.Year == year && fee.Month == month {
			return billing.ErrFeeExists
		}
	}
	return nil
}

func (repo *billingRepository) CreateFee(_ context.Context, fee billing.Fee) (billing.Fee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	fee.ID = uuid.New().String()
	repo.db.fees[fee.ID] = fee
	return fee, nil
}

func (repo *billingRepository) sortedFees(year int) []billing.Fee {
	fees := make([]billing.Fee, 0, len(repo.db.fees))
	for _, fee := range repo.db.fees {
		if year != 0 && fee.Year != year {
			continue
		}
		fees = append(fees, fee)
	}
	sort.Slice(fees, func(i, j int) bool {
		if fees[i].Year != fees[j].Year {
			return fees[i].Year > fees[j].Year
		}
		return fees[i].Month > fees[j].Month
	})
	return fees
}

func (repo *billingRepository) QueryFees(_ context.Context, year int) ([]billing.Fee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.sortedFees(year), nil
}

func (repo *billingRepository) GetFee(_ context.Context, filter billing.FeeGetFilter) (billing.Fee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if fee, ok := repo.db.fees[filter.ID]; ok {
			return fee, nil
		}
		return billing.Fee{}, billing.ErrFeeNotFound
	}
	for _, fee := range repo.db.fees {
		if fee.Year == filter.Year && fee.Month == filter.Month {
			return fee, nil
		}
	}
	return billing.Fee{}, billing.ErrFeeNotFound
}

func (repo *billingRepository) LatestFee(_ context.Context) (billing.Fee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	fees := repo.sortedFees(0)
	if len(fees) == 0 {
		return billing.Fee{}, billing.ErrFeeNotFound
	}
	return fees[0], nil
}

func (repo *billingRepository) UpdateFee(_ context.Context, fee billing.Fee) (billing.Fee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.fees[fee.ID]; !ok {
		return billing.Fee{}, billing.ErrFeeNotFound
	}
	repo.db.fees[fee.ID] = fee
	return fee, nil
}

func (repo *billingRepository) DeleteFeesByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.fees[id]; ok {
			delete(repo.db.fees, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *billingRepository) CreatePayment(_ context.Context, pmt billing.Payment) (billing.Payment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// mirrors the partial unique index on (home_id, fee_id)
	for _, p := range repo.db.payments {
		if p.HomeID == pmt.HomeID && p.FeeID == pmt.FeeID && p.Status != billing.PaymentRejected {
			return billing.Payment{}, billing.ErrPaymentExists
		}
	}

	pmt.ID = uuid.New().String()
	repo.db.payments[pmt.ID] = pmt
	return pmt, nil
}

func (repo *billingRepository) QueryPayments(_ context.Context, filter *billing.PaymentFilter, _ []core.DBOrdering) ([]billing.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	pmts := make([]billing.Payment, 0, len(repo.db.payments))
	for _, pmt := range repo.db.payments {
		if filter != nil {
			if filter.HomeID != "" && pmt.HomeID != filter.HomeID {
				continue
			}
			if filter.FeeID != "" && pmt.FeeID != filter.FeeID {
				continue
			}
			if filter.Status != "" && pmt.Status != filter.Status {
				continue
			}
		}
		pmts = append(pmts, pmt)
	}
	sort.Slice(pmts, func(i, j int) bool { return pmts[i].PaidOn.After(pmts[j].PaidOn) })
	return pmts, nil
}

func (repo *billingRepository) GetPayment(_ context.Context, id string) (billing.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if pmt, ok := repo.db.payments[id]; ok {
		return pmt, nil
	}
	return billing.Payment{}, billing.ErrPaymentNotFound
}

func (repo *billingRepository) GetActivePayment(_ context.Context, homeID, feeID string) (billing.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, pmt := range repo.db.payments {
		if pmt.HomeID == homeID && pmt.FeeID == feeID && pmt.Status != billing.PaymentRejected {
			return pmt, nil
		}
	}
	return billing.Payment{}, billing.ErrPaymentNotFound
}

func (repo *billingRepository) UpdatePayment(_ context.Context, pmt billing.Payment) (billing.Payment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.payments[pmt.ID]; !ok {
		return billing.Payment{}, billing.ErrPaymentNotFound
	}
	repo.db.payments[pmt.ID] = pmt
	return pmt, nil
}
