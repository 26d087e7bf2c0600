package billing

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/property"
)

var (
	// errors
	ErrFeeNotFound       = errors.New("fee not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrFeeExists         = errors.New("a fee for this period already exists")
	ErrPaymentExists     = errors.New("a payment for this home and fee is already registered")
	ErrNotConfirmable    = errors.New("only registered payments can be confirmed")
	ErrAlreadyRejected   = errors.New("payment is already rejected")
	ErrNoFeeToGenerate   = errors.New("no fee to generate the next period from")
	ErrNoCurrentFee      = errors.New("no fee for the current period")
	ErrNextFeeExists     = errors.New("the next period's fee already exists")
	ErrPaymentNotPending = errors.New("home has no pending amount for this fee")
)

type (
	Repository interface {
		CheckFeeUniqueness(ctx context.Context, year, month int) error
		CreateFee(ctx context.Context, fee Fee) (Fee, error)
		// QueryFees returns fees, newest period first. year 0 means all years.
		QueryFees(ctx context.Context, year int) ([]Fee, error)
		GetFee(ctx context.Context, filter FeeGetFilter) (Fee, error)
		// LatestFee returns the fee of the most recent period.
		LatestFee(ctx context.Context) (Fee, error)
		UpdateFee(ctx context.Context, fee Fee) (Fee, error)
		DeleteFeesByID(ctx context.Context, ids []string) (int, error)

		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		// QueryPayments applies AND operation on available PaymentFilter fields.
		QueryPayments(ctx context.Context, filter *PaymentFilter, ordering []core.DBOrdering) ([]Payment, error)
		GetPayment(ctx context.Context, id string) (Payment, error)
		// GetActivePayment returns the non-rejected payment of (home, fee), if any.
		GetActivePayment(ctx context.Context, homeID, feeID string) (Payment, error)
		UpdatePayment(ctx context.Context, pmt Payment) (Payment, error)
	}

	Service struct {
		conf   *core.Config
		repo   Repository
		homes  *property.Service
		ledger *finance.Service
		mail   core.EmailService
	}
)

// FeeGetFilter selects a single fee; the first non-empty field wins.
type FeeGetFilter struct {
	ID    string
	Year  int // combined with Month
	Month int
}

func NewService(conf *core.Config, repo Repository, homes *property.Service, ledger *finance.Service, mailSvc core.EmailService) *Service {
	return &Service{conf: conf, repo: repo, homes: homes, ledger: ledger, mail: mailSvc}
}

func (svc *Service) checkFeeUniqueness(year, month int) error {
	if err := svc.repo.CheckFeeUniqueness(context.Background(), year, month); err != nil {
		if err == ErrFeeExists {
			return core.NewValidationError(err, core.FieldError{Field: "month", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) CreateFee(nf NewFee) (Fee, error) {
	now := time.Now().UTC()
	fee := Fee{
		Year:        nf.Year,
		Month:       nf.Month,
		BaseAmount:  nf.BaseAmount,
		DueDate:     nf.DueDate,
		LateFeePct:  nf.LateFeePct,
		Description: nf.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateFee(context.Background(), fee)
}

func (svc *Service) QueryFees(year int) ([]Fee, error) {
	return svc.repo.QueryFees(context.Background(), year)
}

func (svc *Service) GetFeeByID(id string) (Fee, error) {
	return svc.repo.GetFee(context.Background(), FeeGetFilter{ID: id})
}

func (svc *Service) GetFeeByPeriod(year, month int) (Fee, error) {
	return svc.repo.GetFee(context.Background(), FeeGetFilter{Year: year, Month: month})
}

// CurrentFee returns the fee of the current month.
func (svc *Service) CurrentFee() (Fee, error) {
	now := time.Now().UTC()
	fee, err := svc.GetFeeByPeriod(now.Year(), int(now.Month()))
	if err != nil {
		if errors.Cause(err) == ErrFeeNotFound {
			return Fee{}, ErrNoCurrentFee
		}
		return Fee{}, err
	}
	return fee, nil
}

func (svc *Service) UpdateFee(id string, uf UpdateFee) (Fee, error) {
	fee, err := svc.GetFeeByID(id)
	if err != nil {
		return Fee{}, err
	}
	if uf.BaseAmount != nil {
		fee.BaseAmount = *uf.BaseAmount
	}
	if uf.DueDate.Valid {
		fee.DueDate = uf.DueDate.Time
	}
	if uf.LateFeePct != nil {
		fee.LateFeePct = *uf.LateFeePct
	}
	if uf.Description != "" {
		fee.Description = uf.Description
	}
	fee.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateFee(context.Background(), fee)
}

func (svc *Service) DeleteFees(ids ...string) error {
	_, err := svc.repo.DeleteFeesByID(context.Background(), ids)
	return err
}

// GenerateNextFee creates the fee of the month after the latest period,
// copying the base amount and late fee. The due day is kept, clamped to
// 28 so the date exists in every month.
func (svc *Service) GenerateNextFee() (Fee, error) {
	ctx := context.Background()

	last, err := svc.repo.LatestFee(ctx)
	if err != nil {
		if errors.Cause(err) == ErrFeeNotFound {
			return Fee{}, ErrNoFeeToGenerate
		}
		return Fee{}, err
	}

	year, month := last.Year, last.Month+1
	if month > 12 {
		year, month = year+1, 1
	}
	if err := svc.repo.CheckFeeUniqueness(ctx, year, month); err != nil {
		if err == ErrFeeExists {
			return Fee{}, core.NewValidationError(ErrNextFeeExists)
		}
		return Fee{}, err
	}

	dueDay := last.DueDate.Day()
	if dueDay > maxDueDay {
		dueDay = maxDueDay
	}

	now := time.Now().UTC()
	fee := Fee{
		Year:        year,
		Month:       month,
		BaseAmount:  last.BaseAmount,
		DueDate:     time.Date(year, time.Month(month), dueDay, 0, 0, 0, 0, time.UTC),
		LateFeePct:  last.LateFeePct,
		Description: last.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateFee(ctx, fee)
}

// FeePaymentStatus lists every home with its share of the fee and whether
// a confirmed payment exists.
func (svc *Service) FeePaymentStatus(feeID string) (FeeStatus, error) {
	ctx := context.Background()

	fee, err := svc.GetFeeByID(feeID)
	if err != nil {
		return FeeStatus{}, err
	}
	homes, err := svc.homes.QueryHomes(nil, []core.DBOrdering{{Field: "block"}, {Field: "number"}})
	if err != nil {
		return FeeStatus{}, err
	}

	status := FeeStatus{Fee: fee, Homes: make([]HomeFeeStatus, 0, len(homes))}
	for _, hm := range homes {
		line := HomeFeeStatus{
			HomeID:    hm.ID,
			HomeLabel: hm.Label(),
			Amount:    fee.AmountFor(hm),
		}
		status.TotalExpected = status.TotalExpected.Add(line.Amount)

		pmt, err := svc.repo.GetActivePayment(ctx, hm.ID, feeID)
		switch {
		case err == nil && pmt.Status == PaymentConfirmed:
			line.Paid = true
			line.PaymentID = pmt.ID
			line.PaidOn = null.TimeFrom(pmt.PaidOn)
			status.TotalCollected = status.TotalCollected.Add(pmt.Amount)
			status.PaidCount++
		case err == nil || errors.Cause(err) == ErrPaymentNotFound:
			status.PendingCount++
		default:
			return FeeStatus{}, err
		}
		status.Homes = append(status.Homes, line)
	}
	return status, nil
}

// PendingFees lists the fees a home has no confirmed payment for, with
// the amount due as of now.
func (svc *Service) PendingFees(homeID string) ([]PendingFee, error) {
	ctx := context.Background()

	hm, err := svc.homes.GetHomeByID(homeID)
	if err != nil {
		return nil, err
	}
	fees, err := svc.repo.QueryFees(ctx, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pending := make([]PendingFee, 0)
	for _, fee := range fees {
		pmt, err := svc.repo.GetActivePayment(ctx, homeID, fee.ID)
		if err == nil && pmt.Status == PaymentConfirmed {
			continue
		}
		if err != nil && errors.Cause(err) != ErrPaymentNotFound {
			return nil, err
		}
		pending = append(pending, PendingFee{
			Fee:       fee,
			Amount:    fee.AmountFor(hm),
			AmountDue: fee.AmountDueFor(hm, now),
			Overdue:   fee.Overdue(now),
		})
	}
	return pending, nil
}

// CreatePayment registers a payment. Only one non-rejected payment per
// (home, fee) may exist.
func (svc *Service) CreatePayment(np NewPayment) (Payment, error) {
	ctx := context.Background()

	if _, err := svc.homes.GetHomeByID(np.HomeID); err != nil {
		return Payment{}, err
	}
	if _, err := svc.GetFeeByID(np.FeeID); err != nil {
		return Payment{}, err
	}
	if _, err := svc.repo.GetActivePayment(ctx, np.HomeID, np.FeeID); err == nil {
		return Payment{}, core.NewValidationError(ErrPaymentExists)
	} else if errors.Cause(err) != ErrPaymentNotFound {
		return Payment{}, err
	}

	now := time.Now().UTC()
	pmt := Payment{
		HomeID:       np.HomeID,
		FeeID:        np.FeeID,
		PaidOn:       np.PaidOn,
		Amount:       np.Amount,
		Method:       np.Method,
		Reference:    np.Reference,
		Status:       PaymentRegistered,
		Notes:        np.Notes,
		RegisteredBy: np.RegisteredBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	pmt, err := svc.repo.CreatePayment(ctx, pmt)
	if errors.Cause(err) == ErrPaymentExists { // lost the race against a concurrent registration
		return Payment{}, core.NewValidationError(ErrPaymentExists)
	}
	return pmt, err
}

func (svc *Service) QueryPayments(filter *PaymentFilter, ordering []core.DBOrdering) ([]Payment, error) {
	return svc.repo.QueryPayments(context.Background(), filter, ordering)
}

func (svc *Service) GetPayment(id string) (Payment, error) {
	return svc.repo.GetPayment(context.Background(), id)
}

func (svc *Service) HomePayments(homeID string) ([]Payment, error) {
	return svc.repo.QueryPayments(context.Background(), &PaymentFilter{HomeID: homeID},
		[]core.DBOrdering{{Field: "paid_on"}})
}

// ConfirmPayment moves a registered payment to confirmed and records the
// income in the ledger.
func (svc *Service) ConfirmPayment(id, confirmedBy string) (Payment, error) {
	ctx := context.Background()

	pmt, err := svc.GetPayment(id)
	if err != nil {
		return Payment{}, err
	}
	if pmt.Status != PaymentRegistered {
		return Payment{}, core.NewValidationError(ErrNotConfirmable)
	}

	fee, err := svc.GetFeeByID(pmt.FeeID)
	if err != nil {
		return Payment{}, err
	}
	hm, err := svc.homes.GetHomeByID(pmt.HomeID)
	if err != nil {
		return Payment{}, err
	}

	desc := fmt.Sprintf("Cuota %s %s", fee.PeriodLabel(), hm.Label())
	txnID, err := svc.ledger.RecordIncome(pmt.PaidOn, finance.CategoryFees, desc, pmt.Amount, pmt.Method, pmt.ID, confirmedBy)
	if err != nil {
		return Payment{}, errors.Wrap(err, "recording income")
	}

	pmt.Status = PaymentConfirmed
	pmt.TransactionID = null.StringFrom(txnID)
	if confirmedBy != "" {
		pmt.ConfirmedBy = null.StringFrom(confirmedBy)
	}
	pmt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePayment(ctx, pmt)
}

// RejectPayment rejects a payment. Rejecting a confirmed payment voids
// its ledger entry.
func (svc *Service) RejectPayment(id, reason string) (Payment, error) {
	ctx := context.Background()

	pmt, err := svc.GetPayment(id)
	if err != nil {
		return Payment{}, err
	}
	if pmt.Status == PaymentRejected {
		return Payment{}, core.NewValidationError(ErrAlreadyRejected)
	}

	if pmt.Status == PaymentConfirmed && pmt.TransactionID.Valid {
		if _, err := svc.ledger.VoidTransaction(pmt.TransactionID.String, reason); err != nil {
			return Payment{}, errors.Wrap(err, "voiding transaction")
		}
	}

	pmt.Status = PaymentRejected
	if reason = core.CleanString(reason); reason != "" {
		if pmt.Notes != "" {
			pmt.Notes += " "
		}
		pmt.Notes += "[REJECTED] " + reason
	}
	pmt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePayment(ctx, pmt)
}

// SendReminders emails the owners of every home still pending on a fee.
// Owners without an email address are skipped. It returns how many
// messages were queued.
func (svc *Service) SendReminders(feeID string) (int, error) {
	status, err := svc.FeePaymentStatus(feeID)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var msgs []*core.EmailMessage
	for _, line := range status.Homes {
		if line.Paid {
			continue
		}
		rels, err := svc.homes.QueryHomeOwners(line.HomeID, true /* activeOnly */)
		if err != nil {
			return 0, err
		}
		for _, rel := range rels {
			own, err := svc.homes.GetOwnerByID(rel.OwnerID)
			if err != nil || !own.Email.Valid || own.Email.String == "" {
				continue
			}
			hm, err := svc.homes.GetHomeByID(line.HomeID)
			if err != nil {
				return 0, err
			}
			msgs = append(msgs, &core.EmailMessage{
				To:           []mail.Address{{Name: own.FullName(), Address: own.Email.String}},
				Subject:      fmt.Sprintf("Payment reminder: administration fee %s", status.Fee.PeriodLabel()),
				TemplateName: "payment-reminder",
				TemplateData: struct {
					OwnerName string
					HomeLabel string
					Period    string
					Amount    string
					DueDate   string
					Overdue   bool
				}{
					OwnerName: own.FullName(),
					HomeLabel: line.HomeLabel,
					Period:    status.Fee.PeriodLabel(),
					Amount:    status.Fee.AmountDueFor(hm, now).StringFixed(2),
					DueDate:   status.Fee.DueDate.Format("2006-01-02"),
					Overdue:   status.Fee.Overdue(now),
				},
			})
		}
	}
	if len(msgs) > 0 {
		svc.mail.SendMessages(msgs...)
	}
	return len(msgs), nil
}
