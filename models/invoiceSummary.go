package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceSummary is a read-only projection of a billing document (proforma,
// invoice or advance) issued by the external billing system for a job. Rows
// never originate locally; they arrive through the billing synchronization.
type InvoiceSummary struct {
	ID            int              `gorm:"primary_key" json:"id"`
	JobID         string           `gorm:"size:36;index;not null" json:"job_id"`
	ExternalId    string           `gorm:"size:128;uniqueIndex" json:"external_id"`
	Number        string           `gorm:"size:100" json:"number"`
	DocType       InvoiceDocType   `gorm:"size:20;not null" json:"doc_type"`
	PaymentStatus InvoiceDocStatus `gorm:"size:20;not null" json:"payment_status"`
	PaidAmount    decimal.Decimal  `gorm:"type:decimal(20,2)" json:"paid_amount"`
	TotalAmount   decimal.Decimal  `gorm:"type:decimal(20,2)" json:"total_amount"`
	IssuedAt      *time.Time       `json:"issued_at"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// DerivePaymentStatusFromInvoices computes the job-level payment status the
// billing synchronization applies with origin Auto. Precedence mirrors the
// guard's inference: paid wins over partial, partial over overdue, a bare
// proforma yields Proforma, anything else leaves the status untouched (None).
func DerivePaymentStatusFromInvoices(invoices []*InvoiceSummary) PaymentStatus {
	var hasProforma, hasInvoice bool
	var paid, partial, overdue bool
	for _, inv := range invoices {
		switch inv.DocType {
		case InvoiceDocTypeProforma:
			hasProforma = true
		case InvoiceDocTypeInvoice, InvoiceDocTypeAdvance:
			hasInvoice = true
			switch inv.PaymentStatus {
			case InvoiceDocStatusPaid:
				paid = true
			case InvoiceDocStatusPartial:
				if inv.PaidAmount.IsPositive() {
					partial = true
				}
			case InvoiceDocStatusOverdue:
				overdue = true
			}
		}
	}
	switch {
	case paid:
		return PaymentStatusPaid
	case partial:
		return PaymentStatusPartial
	case overdue:
		return PaymentStatusOverdue
	case hasProforma && !hasInvoice:
		return PaymentStatusProforma
	default:
		return PaymentStatusNone
	}
}
