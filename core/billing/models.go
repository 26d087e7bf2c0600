package billing

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/property"
)

// Payment statuses
const (
	PaymentRegistered = "registered"
	PaymentConfirmed  = "confirmed"
	PaymentRejected   = "rejected"
)

// Due day is clamped so every month has it.
const maxDueDay = 28

// Fee is the administration fee of one period. There is at most one fee
// per (year, month).
type Fee struct {
	ID          string          `json:"id"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	DueDate     time.Time       `json:"due_date"`
	LateFeePct  decimal.Decimal `json:"late_fee_pct"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
	UpdatedAt   time.Time       `json:"updated_at"` // UTC
}

// PeriodLabel returns the fee's period, e.g. "2026-08".
func (f Fee) PeriodLabel() string {
	return fmt.Sprintf("%04d-%02d", f.Year, f.Month)
}

// AmountFor computes a home's share of the fee.
func (f Fee) AmountFor(hm property.Home) decimal.Decimal {
	return hm.FeeAmount(f.BaseAmount)
}

// AmountDueFor computes a home's share including the late surcharge when
// asOf is past the due date.
func (f Fee) AmountDueFor(hm property.Home, asOf time.Time) decimal.Decimal {
	amount := f.AmountFor(hm)
	if f.Overdue(asOf) && f.LateFeePct.GreaterThan(decimal.Zero) {
		surcharge := amount.Mul(f.LateFeePct).Div(decimal.NewFromInt(100))
		amount = amount.Add(surcharge).Round(2)
	}
	return amount
}

func (f Fee) Overdue(asOf time.Time) bool {
	return asOf.After(f.DueDate)
}

// Payment is a home's payment of one fee.
type Payment struct {
	ID            string          `json:"id"`
	HomeID        string          `json:"home_id"`
	FeeID         string          `json:"fee_id"`
	PaidOn        time.Time       `json:"paid_on"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference,omitempty"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	RegisteredBy  null.String     `json:"registered_by,omitempty"`
	ConfirmedBy   null.String     `json:"confirmed_by,omitempty"`
	TransactionID null.String     `json:"transaction_id,omitempty"` // ledger entry once confirmed
	CreatedAt     time.Time       `json:"created_at"`               // UTC
	UpdatedAt     time.Time       `json:"updated_at"`               // UTC
}

// NewFee contains information needed to open a fee period.
type NewFee struct {
	Year        int             `json:"year" validate:"required,min=2000,max=2100"`
	Month       int             `json:"month" validate:"required,min=1,max=12"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	DueDate     time.Time       `json:"due_date" validate:"required"`
	LateFeePct  decimal.Decimal `json:"late_fee_pct"`
	Description string          `json:"description"`
}

func (nf *NewFee) Validate(validate *validator.Validate, svc *Service) error {
	nf.Description = core.CleanString(nf.Description)

	if err := validate.Struct(nf); err != nil {
		return err
	}
	if nf.BaseAmount.LessThanOrEqual(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "base_amount", Error: "must be greater than zero"})
	}
	if nf.LateFeePct.LessThan(decimal.Zero) || nf.LateFeePct.GreaterThan(decimal.NewFromInt(100)) {
		return core.NewValidationError(nil, core.FieldError{Field: "late_fee_pct", Error: "must be between 0 and 100"})
	}
	return svc.checkFeeUniqueness(nf.Year, nf.Month)
}

// UpdateFee defines what may be modified on an existing fee period.
type UpdateFee struct {
	BaseAmount  *decimal.Decimal `json:"base_amount"`
	DueDate     null.Time        `json:"due_date"`
	LateFeePct  *decimal.Decimal `json:"late_fee_pct"`
	Description string           `json:"description"`
}

func (uf *UpdateFee) Validate(validate *validator.Validate) error {
	uf.Description = core.CleanString(uf.Description)

	if err := validate.Struct(uf); err != nil {
		return err
	}
	if uf.BaseAmount != nil && uf.BaseAmount.LessThanOrEqual(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "base_amount", Error: "must be greater than zero"})
	}
	return nil
}

// NewPayment contains information needed to register a fee payment.
type NewPayment struct {
	HomeID       string          `json:"home_id" validate:"required"`
	FeeID        string          `json:"fee_id" validate:"required"`
	PaidOn       time.Time       `json:"paid_on" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method" validate:"required,oneof=cash transfer card check other"`
	Reference    string          `json:"reference" validate:"omitempty,max=100"`
	Notes        string          `json:"notes"`
	RegisteredBy null.String     `json:"registered_by"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.Reference = core.CleanString(np.Reference)
	np.Notes = core.CleanString(np.Notes)

	if err := validate.Struct(np); err != nil {
		return err
	}
	if np.Amount.LessThanOrEqual(decimal.Zero) {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "must be greater than zero"})
	}
	return nil
}

// PaymentFilter filters payment listings; fields are ANDed.
type PaymentFilter struct {
	HomeID string `query:"home_id"`
	FeeID  string `query:"fee_id"`
	Status string `query:"status"`
}

func (pf *PaymentFilter) Clean() {
	pf.Status = core.CleanString(pf.Status, true /* lower */)
}

// HomeFeeStatus is one line of a fee's payment status report.
type HomeFeeStatus struct {
	HomeID    string          `json:"home_id"`
	HomeLabel string          `json:"home_label"`
	Amount    decimal.Decimal `json:"amount"`
	Paid      bool            `json:"paid"`
	PaymentID string          `json:"payment_id,omitempty"`
	PaidOn    null.Time       `json:"paid_on,omitempty"`
}

// FeeStatus summarizes how a fee period is being collected.
type FeeStatus struct {
	Fee            Fee             `json:"fee"`
	Homes          []HomeFeeStatus `json:"homes"`
	TotalExpected  decimal.Decimal `json:"total_expected"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	PaidCount      int             `json:"paid_count"`
	PendingCount   int             `json:"pending_count"`
}

// PendingFee is a fee a home has not paid yet, with the amount due as of
// the query time.
type PendingFee struct {
	Fee       Fee             `json:"fee"`
	Amount    decimal.Decimal `json:"amount"`
	AmountDue decimal.Decimal `json:"amount_due"` // including late surcharge
	Overdue   bool            `json:"overdue"`
}
