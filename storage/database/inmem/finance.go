package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/finance"
)

type financeRepository struct {
	db *DB
}

var _ finance.Repository = (*financeRepository)(nil) // interface compliance check

func NewFinanceRepository(db *DB) *financeRepository {
	return &financeRepository{db: db}
}

func (repo *financeRepository) CreateTransaction(_ context.Context, txn finance.Transaction) (finance.Transaction, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	txn.ID = uuid.New().String()
	repo.db.transactions[txn.ID] = txn
	return txn, nil
}

func (repo *financeRepository) QueryTransactions(_ context.Context, filter *finance.TransactionFilter, _ []core.DBOrdering) ([]finance.Transaction, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	txns := make([]finance.Transaction, 0, len(repo.db.transactions))
	for _, txn := range repo.db.transactions {
		if filter != nil {
			if filter.Kind != "" && txn.Kind != filter.Kind {
				continue
			}
			if filter.Category != "" && txn.Category != filter.Category {
				continue
			}
			if filter.Status != "" && txn.Status != filter.Status {
				continue
			}
			if filter.SupplierID != "" && txn.SupplierID.String != filter.SupplierID {
				continue
			}
			if !filter.DateFrom.IsZero() && txn.Date.Before(filter.DateFrom) {
				continue
			}
			if !filter.DateTo.IsZero() && txn.Date.After(filter.DateTo) {
				continue
			}
		}
		txns = append(txns, txn)
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].Date.After(txns[j].Date) })
	return txns, nil
}

func (repo *financeRepository) GetTransaction(_ context.Context, id string) (finance.Transaction, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if txn, ok := repo.db.transactions[id]; ok {
		return txn, nil
	}
	return finance.Transaction{}, finance.ErrTransactionNotFound
}

func (repo *financeRepository) UpdateTransaction(_ context.Context, txn finance.Transaction) (finance.Transaction, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.transactions[txn.ID]; !ok {
		return finance.Transaction{}, finance.ErrTransactionNotFound
	}
	repo.db.transactions[txn.ID] = txn
	return txn, nil
}

func (repo *financeRepository) DeleteTransactionsByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.transactions[id]; ok {
			delete(repo.db.transactions, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *financeRepository) CheckBudgetUniqueness(_ context.Context, year, month int, category, kind string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, bgt := range repo.db.budgets {
		if bgt.Year == year && bgt.Month == month && bgt.Category == category && bgt.Kind == kind {
			return finance.ErrBudgetExists
		}
	}
	return nil
}

func (repo *financeRepository) CreateBudget(_ context.Context, bgt finance.Budget) (finance.Budget, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	bgt.ID = uuid.New().String()
	repo.db.budgets[bgt.ID] = bgt
	return bgt, nil
}

func (repo *financeRepository) QueryBudgets(_ context.Context, year int, month *int) ([]finance.Budget, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	budgets := make([]finance.Budget, 0)
	for _, bgt := range repo.db.budgets {
		if year != 0 && bgt.Year != year {
			continue
		}
		if month != nil && bgt.Month != *month {
			continue
		}
		budgets = append(budgets, bgt)
	}
	sort.Slice(budgets, func(i, j int) bool {
		if budgets[i].Year != budgets[j].Year {
			return budgets[i].Year < budgets[j].Year
		}
		if budgets[i].Month != budgets[j].Month {
			return budgets[i].Month < budgets[j].Month
		}
		return budgets[i].Category < budgets[j].Category
	})
	return budgets, nil
}

func (repo *financeRepository) GetBudget(_ context.Context, id string) (finance.Budget, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if bgt, ok := repo.db.budgets[id]; ok {
		return bgt, nil
	}
	return finance.Budget{}, finance.ErrBudgetNotFound
}

func (repo *financeRepository) UpdateBudget(_ context.Context, bgt finance.Budget) (finance.Budget, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.budgets[bgt.ID]; !ok {
		return finance.Budget{}, finance.ErrBudgetNotFound
	}
	repo.db.budgets[bgt.ID] = bgt
	return bgt, nil
}

func (repo *financeRepository) DeleteBudgetsByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.budgets[id]; ok {
			delete(repo.db.budgets, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *financeRepository) CreateFund(_ context.Context, fund finance.ReserveFund) (finance.ReserveFund, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	fund.ID = uuid.New().String()
	repo.db.funds[fund.ID] = fund
	return fund, nil
}

func (repo *financeRepository) QueryFunds(_ context.Context, status string) ([]finance.ReserveFund, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	funds := make([]finance.ReserveFund, 0, len(repo.db.funds))
	for _, fund := range repo.db.funds {
		if status != "" && fund.Status != status {
			continue
		}
		funds = append(funds, fund)
	}
	sort.Slice(funds, func(i, j int) bool { return funds[i].Name < funds[j].Name })
	return funds, nil
}

func (repo *financeRepository) GetFund(_ context.Context, id string) (finance.ReserveFund, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if fund, ok := repo.db.funds[id]; ok {
		return fund, nil
	}
	return finance.ReserveFund{}, finance.ErrFundNotFound
}

func (repo *financeRepository) UpdateFund(_ context.Context, fund finance.ReserveFund) (finance.ReserveFund, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.funds[fund.ID]; !ok {
		return finance.ReserveFund{}, finance.ErrFundNotFound
	}
	repo.db.funds[fund.ID] = fund
	return fund, nil
}

func (repo *financeRepository) CreateFundMovement(_ context.Context, mvt finance.FundMovement) (finance.FundMovement, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	mvt.ID = uuid.New().String()
	repo.db.fundMovements[mvt.ID] = mvt
	return mvt, nil
}

func (repo *financeRepository) QueryFundMovements(_ context.Context, fundID string) ([]finance.FundMovement, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	mvts := make([]finance.FundMovement, 0)
	for _, mvt := range repo.db.fundMovements {
		if mvt.FundID == fundID {
			mvts = append(mvts, mvt)
		}
	}
	sort.Slice(mvts, func(i, j int) bool { return mvts[i].Date.After(mvts[j].Date) })
	return mvts, nil
}
