package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/montazreklam/jobs_backend/config"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type JobsRegisterRow struct {
	FriendlyId    string          `json:"friendly_id"`
	Title         string          `json:"title"`
	ContactName   string          `json:"contact_name"`
	Address       string          `json:"address"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	InvoiceCount  int             `json:"invoice_count"`
	InvoicedTotal decimal.Decimal `json:"invoiced_total"`
	PaidTotal     decimal.Decimal `json:"paid_total"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
}

// GetJobsRegisterReport returns one row per job of the given year, ordered by
// friendly number, with invoice totals folded in.
func GetJobsRegisterReport(ctx context.Context, year int) ([]*JobsRegisterRow, error) {

	sql := `
SELECT
    jobs.friendly_id,
    jobs.title,
    jobs.contact_name,
    jobs.address,
    jobs.status,
    jobs.payment_status,
    jobs.created_at,
    jobs.completed_at,
    COALESCE(inv.invoice_count, 0) AS invoice_count,
    COALESCE(inv.invoiced_total, 0) AS invoiced_total,
    COALESCE(inv.paid_total, 0) AS paid_total
FROM
    jobs
        LEFT JOIN
    (SELECT
        job_id,
            COUNT(id) AS invoice_count,
            SUM(total_amount) AS invoiced_total,
            SUM(paid_amount) AS paid_total
    FROM
        invoice_summaries
    GROUP BY job_id) AS inv ON inv.job_id = jobs.id
WHERE
    jobs.year = @year
ORDER BY jobs.sequence_no;
`

	var records []*JobsRegisterRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"year": year,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ExportJobsRegisterXLSX writes the register of the given year as a
// spreadsheet.
func ExportJobsRegisterXLSX(ctx context.Context, w io.Writer, year int) error {

	records, err := GetJobsRegisterReport(ctx, year)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	sheetName := "Sheet1"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headings := []string{
		"Number", "Title", "Contact", "Address",
		"Status", "Payment Status", "Invoices", "Invoiced", "Paid",
		"Created", "Completed",
	}
	col := 'A'
	for _, h := range headings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	for i, r := range records {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+row, r.FriendlyId)
		f.SetCellValue(sheetName, "B"+row, r.Title)
		f.SetCellValue(sheetName, "C"+row, r.ContactName)
		f.SetCellValue(sheetName, "D"+row, r.Address)
		f.SetCellValue(sheetName, "E"+row, r.Status)
		f.SetCellValue(sheetName, "F"+row, r.PaymentStatus)
		f.SetCellValue(sheetName, "G"+row, r.InvoiceCount)
		f.SetCellValue(sheetName, "H"+row, r.InvoicedTotal.InexactFloat64())
		f.SetCellValue(sheetName, "I"+row, r.PaidTotal.InexactFloat64())
		f.SetCellValue(sheetName, "J"+row, r.CreatedAt.Format("2006-01-02"))
		if r.CompletedAt != nil {
			f.SetCellValue(sheetName, "K"+row, r.CompletedAt.Format("2006-01-02"))
		}
	}

	return f.Write(w)
}
