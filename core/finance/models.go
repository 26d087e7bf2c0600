package finance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
)

// Transaction kinds
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Transaction statuses
const (
	StatusRegistered = "registered"
	StatusVerified   = "verified"
	StatusVoid       = "void"
)

// Payment methods shared with billing
const (
	MethodCash     = "cash"
	MethodTransfer = "transfer"
	MethodCard     = "card"
	MethodCheck    = "check"
	MethodOther    = "other"
)

// Categories of the ledger.
const (
	CategoryFees        = "fees"
	CategoryBookings    = "bookings"
	CategoryMaintenance = "maintenance"
	CategoryPayroll     = "payroll"
	CategoryUtilities   = "utilities"
	CategorySecurity    = "security"
	CategoryCleaning    = "cleaning"
	CategoryInsurance   = "insurance"
	CategoryLegal       = "legal"
	CategoryOtherCat    = "other"
)

var Categories = []string{
	CategoryFees, CategoryBookings, CategoryMaintenance, CategoryPayroll,
	CategoryUtilities, CategorySecurity, CategoryCleaning, CategoryInsurance,
	CategoryLegal, CategoryOtherCat,
}

// Transaction is one entry of the income/expense ledger. Expense amounts
// are stored negative so period sums come out right.
type Transaction struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Kind          string          `json:"kind"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Method        string          `json:"method,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	SupplierID    null.String     `json:"supplier_id,omitempty"`
	PaymentID     null.String     `json:"payment_id,omitempty"`
	RegisteredBy  null.String     `json:"registered_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"` // UTC
	UpdatedAt     time.Time       `json:"updated_at"` // UTC
}

func (t Transaction) Void() bool { return t.Status == StatusVoid }

// AbsAmount returns the amount without the expense sign.
func (t Transaction) AbsAmount() decimal.Decimal { return t.Amount.Abs() }

// NewTransaction contains information needed to record a ledger entry.
// Amount is always provided positive; expenses are negated on save.
type NewTransaction struct {
	Date          time.Time       `json:"date" validate:"required"`
	Kind          string          `json:"kind" validate:"required,oneof=income expense"`
	Category      string          `json:"category" validate:"required"`
	Description   string          `json:"description" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" validate:"omitempty,oneof=cash transfer card check other"`
	InvoiceNumber string          `json:"invoice_number" validate:"omitempty,max=50"`
	SupplierID    null.String     `json:"supplier_id"`
	RegisteredBy  null.String     `json:"registered_by"`
}

func (nt *NewTransaction) Validate(validate *validator.Validate) error {
	nt.Category = core.CleanString(nt.Category, true /* lower */)
	nt.Description = core.CleanString(nt.Description)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	if nt.Amount.LessThanOrEqual(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "must be greater than zero"})
	}
	return validateCategory(nt.Category)
}

// UpdateTransaction defines what may be modified on a registered entry.
// Void entries cannot be modified.
type UpdateTransaction struct {
	Date          null.Time        `json:"date"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	Amount        *decimal.Decimal `json:"amount"`
	Method        string           `json:"method" validate:"omitempty,oneof=cash transfer card check other"`
	InvoiceNumber string           `json:"invoice_number" validate:"omitempty,max=50"`
	SupplierID    null.String      `json:"supplier_id"`
	Status        string           `json:"status" validate:"omitempty,oneof=registered verified"`
}

func (ut *UpdateTransaction) Validate(validate *validator.Validate) error {
	ut.Category = core.CleanString(ut.Category, true /* lower */)
	ut.Description = core.CleanString(ut.Description)

	if err := validate.Struct(ut); err != nil {
		return err
	}
	if ut.Amount != nil && ut.Amount.LessThanOrEqual(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "must be greater than zero"})
	}
	if ut.Category != "" {
		return validateCategory(ut.Category)
	}
	return nil
}

func validateCategory(cat string) error {
	for _, c := range Categories {
		if c == cat {
			return nil
		}
	}
	return core.NewValidationError(nil, core.FieldError{Field: "category", Error: "unknown category"})
}

// TransactionFilter filters ledger listings; fields are ANDed.
type TransactionFilter struct {
	Kind       string    `query:"kind"`
	Category   string    `query:"category"`
	Status     string    `query:"status"`
	SupplierID string    `query:"supplier_id"`
	DateFrom   time.Time `query:"date_from"`
	DateTo     time.Time `query:"date_to"`
}

func (tf *TransactionFilter) Clean() {
	tf.Kind = core.CleanString(tf.Kind, true /* lower */)
	tf.Category = core.CleanString(tf.Category, true /* lower */)
	tf.Status = core.CleanString(tf.Status, true /* lower */)
}

// Balance summarizes a period of the ledger. Void entries are excluded.
type Balance struct {
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"` // absolute value
	Balance  decimal.Decimal `json:"balance"`
}

// CategoryTotal is one line of the expenses-by-category summary.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"` // absolute value
}

// Budget is a planned amount for a category in a period. Month 0 means
// the whole year.
type Budget struct {
	ID          string          `json:"id"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Category    string          `json:"category"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
	UpdatedAt   time.Time       `json:"updated_at"` // UTC
}

// NewBudget contains information needed to plan a Budget.
type NewBudget struct {
	Year        int             `json:"year" validate:"required,min=2000,max=2100"`
	Month       int             `json:"month" validate:"min=0,max=12"`
	Category    string          `json:"category" validate:"required"`
	Kind        string          `json:"kind" validate:"required,oneof=income expense"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (nb *NewBudget) Validate(validate *validator.Validate, svc *Service) error {
	nb.Category = core.CleanString(nb.Category, true /* lower */)
	nb.Description = core.CleanString(nb.Description)

	if err := validate.Struct(nb); err != nil {
		return err
	}
	if nb.Amount.LessThanOrEqual(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "must be greater than zero"})
	}
	if err := validateCategory(nb.Category); err != nil {
		return err
	}
	return svc.checkBudgetUniqueness(nb.Year, nb.Month, nb.Category, nb.Kind)
}

// UpdateBudget defines what may be modified on an existing Budget.
type UpdateBudget struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
}

func (ub *UpdateBudget) Validate(validate *validator.Validate) error {
	ub.Description = core.CleanString(ub.Description)
	if ub.Amount != nil && ub.Amount.LessThanOrEqual(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "must be greater than zero"})
	}
	return validate.Struct(ub)
}

// BudgetExecution compares a budget with the actual ledger totals.
type BudgetExecution struct {
	Budget      Budget          `json:"budget"`
	Actual      decimal.Decimal `json:"actual"` // absolute value
	Variance    decimal.Decimal `json:"variance"`
	ExecutedPct decimal.Decimal `json:"executed_pct"`
}

// Reserve fund statuses
const (
	FundActive    = "active"
	FundCompleted = "completed"
	FundSuspended = "suspended"
)

// ReserveFund accumulates money for a long-term purpose.
type ReserveFund struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    null.Time       `json:"target_date,omitempty"`
	Status        string          `json:"status"`
	FeeSharePct   decimal.Decimal `json:"fee_share_pct"`
	CreatedAt     time.Time       `json:"created_at"` // UTC
	UpdatedAt     time.Time       `json:"updated_at"` // UTC
}

// Fund movement kinds
const (
	MovementContribution = "contribution"
	MovementWithdrawal   = "withdrawal"
)

// FundMovement is one contribution to or withdrawal from a reserve fund.
type FundMovement struct {
	ID          string          `json:"id"`
	FundID      string          `json:"fund_id"`
	Date        time.Time       `json:"date"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
}

// NewReserveFund contains information needed to open a ReserveFund.
type NewReserveFund struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	TargetDate   null.Time       `json:"target_date"`
	FeeSharePct  decimal.Decimal `json:"fee_share_pct"`
}

func (nf *NewReserveFund) Validate(validate *validator.Validate) error {
	nf.Name = core.CleanString(nf.Name)
	nf.Description = core.CleanString(nf.Description)

	if err := validate.Struct(nf); err != nil {
		return err
	}
	if nf.TargetAmount.LessThan(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "target_amount", Error: "cannot be negative"})
	}
	if nf.FeeSharePct.LessThan(decimal.Zero) || nf.FeeSharePct.GreaterThan(decimal.NewFromInt(100)) {
		return core.NewValidationError(nil, core.FieldError{Field: "fee_share_pct", Error: "must be between 0 and 100"})
	}
	return nil
}

// UpdateReserveFund defines what may be modified on an existing fund.
type UpdateReserveFund struct {
	Name         string           `json:"name" validate:"omitempty,max=100"`
	Description  string           `json:"description"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	TargetDate   null.Time        `json:"target_date"`
	Status       string           `json:"status" validate:"omitempty,oneof=active completed suspended"`
	FeeSharePct  *decimal.Decimal `json:"fee_share_pct"`
}

func (uf *UpdateReserveFund) Validate(validate *validator.Validate) error {
	uf.Name = core.CleanString(uf.Name)
	uf.Description = core.CleanString(uf.Description)
	return validate.Struct(uf)
}

// NewFundMovement contains information needed to record a fund movement.
type NewFundMovement struct {
	Date        time.Time       `json:"date" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (nm *NewFundMovement) Validate(validate *validator.Validate) error {
	nm.Description = core.CleanString(nm.Description)

	if err := validate.Struct(nm); err != nil {
		return err
	}
	if nm.Amount.LessThanOrEqual(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "must be greater than zero"})
	}
	return nil
}
