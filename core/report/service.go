// Package report renders the administration's PDF reports.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/billing"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/incident"
)

type Service struct {
	conf      *core.Config
	billing   *billing.Service
	finance   *finance.Service
	incidents *incident.Service
}

func NewService(conf *core.Config, billingSvc *billing.Service, financeSvc *finance.Service, incidentSvc *incident.Service) *Service {
	return &Service{conf: conf, billing: billingSvc, finance: financeSvc, incidents: incidentSvc}
}

func (svc *Service) newPDF(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, svc.conf.AppName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+time.Now().UTC().Format("2006-01-02 15:04 UTC"), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	return pdf
}

func tableHeader(pdf *gofpdf.Fpdf, widths []float64, headers []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buff bytes.Buffer
	if err := pdf.Output(&buff); err != nil {
		return nil, errors.Wrap(err, "rendering pdf")
	}
	return buff.Bytes(), nil
}

// FeePaymentStatus renders the collection status of a fee period: one
// line per home with its amount and whether it has paid.
func (svc *Service) FeePaymentStatus(feeID string) ([]byte, string, error) {
	status, err := svc.billing.FeePaymentStatus(feeID)
	if err != nil {
		return nil, "", err
	}

	pdf := svc.newPDF("Administration fee " + status.Fee.PeriodLabel())

	widths := []float64{40, 40, 35, 35, 40}
	tableHeader(pdf, widths, []string{"Home", "Amount", "Status", "Paid on", ""})
	for _, line := range status.Homes {
		paidOn, st := "", "PENDING"
		if line.Paid {
			st = "PAID"
			if line.PaidOn.Valid {
				paidOn = line.PaidOn.Time.Format("2006-01-02")
			}
		}
		pdf.CellFormat(widths[0], 6, line.HomeLabel, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, line.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, st, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, paidOn, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, "", "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Expected: %s    Collected: %s    Paid: %d    Pending: %d",
		status.TotalExpected.StringFixed(2), status.TotalCollected.StringFixed(2),
		status.PaidCount, status.PendingCount), "", 1, "L", false, 0, "")

	data, err := output(pdf)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("fee-status-%s.pdf", status.Fee.PeriodLabel()), nil
}

// FinancialSummary renders the period balance, the expenses by category
// and the budget execution of the period's year.
func (svc *Service) FinancialSummary(from, to time.Time) ([]byte, string, error) {
	bal, err := svc.finance.PeriodBalance(from, to)
	if err != nil {
		return nil, "", err
	}
	byCat, err := svc.finance.ExpensesByCategory(from, to)
	if err != nil {
		return nil, "", err
	}
	execs, err := svc.finance.BudgetExecution(from.Year(), nil)
	if err != nil {
		return nil, "", err
	}

	period := fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	pdf := svc.newPDF("Financial summary " + period)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Balance", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Income: "+bal.Income.StringFixed(2), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Expenses: "+bal.Expenses.StringFixed(2), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Balance: "+bal.Balance.StringFixed(2), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Expenses by category", "", 1, "L", false, 0, "")
	widths := []float64{80, 50}
	tableHeader(pdf, widths, []string{"Category", "Total"})
	for _, ct := range byCat {
		pdf.CellFormat(widths[0], 6, ct.Category, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, ct.Total.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	if len(execs) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, fmt.Sprintf("Budget execution %d", from.Year()), "", 1, "L", false, 0, "")
		widths = []float64{45, 25, 30, 30, 30, 30}
		tableHeader(pdf, widths, []string{"Category", "Kind", "Budget", "Actual", "Variance", "Executed %"})
		for _, exec := range execs {
			pdf.CellFormat(widths[0], 6, exec.Budget.Category, "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1], 6, exec.Budget.Kind, "1", 0, "C", false, 0, "")
			pdf.CellFormat(widths[2], 6, exec.Budget.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[3], 6, exec.Actual.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[4], 6, exec.Variance.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[5], 6, exec.ExecutedPct.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	data, err := output(pdf)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("financial-summary-%s-%s.pdf",
		from.Format("20060102"), to.Format("20060102")), nil
}

// Incidents renders the incidents reported in a range with their status,
// priority and age.
func (svc *Service) Incidents(from, to time.Time) ([]byte, string, error) {
	incs, err := svc.incidents.Query(&incident.QueryFilter{ReportedFrom: from, ReportedTo: to},
		[]core.DBOrdering{{Field: "reported_at"}})
	if err != nil {
		return nil, "", err
	}

	period := fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	pdf := svc.newPDF("Incidents " + period)

	now := time.Now().UTC()
	widths := []float64{25, 60, 25, 22, 25, 18, 15}
	tableHeader(pdf, widths, []string{"Reported", "Title", "Kind", "Priority", "Status", "Age (d)", "Late"})
	for _, inc := range incs {
		late := ""
		if inc.Overdue(now) {
			late = "YES"
		}
		ageDays := fmt.Sprintf("%.0f", inc.Age(now).Hours()/24)
		pdf.CellFormat(widths[0], 6, inc.ReportedAt.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, truncate(inc.Title, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, inc.Kind, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, inc.Priority, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, inc.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[5], 6, ageDays, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 6, late, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %d", len(incs)), "", 1, "L", false, 0, "")

	data, err := output(pdf)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("incidents-%s-%s.pdf", from.Format("20060102"), to.Format("20060102")), nil
}

// truncate shortens s to max characters, never splitting a rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
