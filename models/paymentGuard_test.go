package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They validate the payment
// status guard semantics: manual overwrites of machine-derived values require
// confirmation, synced changes never do.

func paidInvoiceJob() *Job {
	return &Job{
		ID:            "job-1",
		PaymentStatus: PaymentStatusPaid,
		Invoices: []*InvoiceSummary{
			{
				DocType:       InvoiceDocTypeInvoice,
				PaymentStatus: InvoiceDocStatusPaid,
				PaidAmount:    decimal.NewFromInt(1000),
				TotalAmount:   decimal.NewFromInt(1000),
			},
		},
	}
}

func TestManualChangeOverDerivedValue_DeclinedKeepsStatus(t *testing.T) {
	job := paidInvoiceJob()

	var askedReason string
	confirm := func(reason string) bool {
		askedReason = reason
		return false
	}

	applied := RequestStatusChange(job, PaymentStatusCash, OriginManual, confirm)
	if applied {
		t.Fatal("declined confirmation must not apply the change")
	}
	if job.PaymentStatus != PaymentStatusPaid {
		t.Fatalf("declined change mutated status to %s", job.PaymentStatus)
	}
	if askedReason != ReasonInvoicePaid {
		t.Fatalf("expected reason %q, got %q", ReasonInvoicePaid, askedReason)
	}
}

func TestManualChangeOverDerivedValue_ConfirmedApplies(t *testing.T) {
	job := paidInvoiceJob()

	applied := RequestStatusChange(job, PaymentStatusCash, OriginManual, func(string) bool { return true })
	if !applied {
		t.Fatal("confirmed change must apply")
	}
	if job.PaymentStatus != PaymentStatusCash {
		t.Fatalf("expected Cash, got %s", job.PaymentStatus)
	}
}

func TestManualChangeWithNilConfirmer_Declines(t *testing.T) {
	job := paidInvoiceJob()

	if RequestStatusChange(job, PaymentStatusCash, OriginManual, nil) {
		t.Fatal("nil confirmer over a derived value must decline")
	}
	if job.PaymentStatus != PaymentStatusPaid {
		t.Fatalf("status mutated to %s", job.PaymentStatus)
	}
}

func TestAutoChangeNeverAsks(t *testing.T) {
	job := paidInvoiceJob()

	confirm := func(string) bool {
		t.Fatal("auto origin must not consult the confirmer")
		return false
	}
	if !RequestStatusChange(job, PaymentStatusOverdue, OriginAuto, confirm) {
		t.Fatal("auto change must always apply")
	}
	if job.PaymentStatus != PaymentStatusOverdue {
		t.Fatalf("expected Overdue, got %s", job.PaymentStatus)
	}
}

func TestManualChangeWithoutInvoices_NoConfirmation(t *testing.T) {
	job := &Job{ID: "job-2", PaymentStatus: PaymentStatusPaid}

	confirm := func(string) bool {
		t.Fatal("unlinked job must not look machine-derived")
		return false
	}
	if !RequestStatusChange(job, PaymentStatusCash, OriginManual, confirm) {
		t.Fatal("change on unlinked job must apply without confirmation")
	}
}

func TestSameStatusIsNoop(t *testing.T) {
	job := paidInvoiceJob()

	if !RequestStatusChange(job, PaymentStatusPaid, OriginManual, nil) {
		t.Fatal("same-status request must report success")
	}
}

func TestInferAutoReason_Precedence(t *testing.T) {
	cases := []struct {
		name     string
		job      *Job
		reason   string
		derived  bool
	}{
		{
			name:    "none never derived",
			job:     &Job{PaymentStatus: PaymentStatusNone, Invoices: []*InvoiceSummary{{DocType: InvoiceDocTypeInvoice}}},
			derived: false,
		},
		{
			name: "proforma issued",
			job: &Job{PaymentStatus: PaymentStatusProforma, Invoices: []*InvoiceSummary{
				{DocType: InvoiceDocTypeProforma},
			}},
			reason:  ReasonProformaIssued,
			derived: true,
		},
		{
			name: "paid beats issued",
			job: &Job{PaymentStatus: PaymentStatusPaid, Invoices: []*InvoiceSummary{
				{DocType: InvoiceDocTypeInvoice, PaymentStatus: InvoiceDocStatusUnpaid},
				{DocType: InvoiceDocTypeAdvance, PaymentStatus: InvoiceDocStatusPaid},
			}},
			reason:  ReasonInvoicePaid,
			derived: true,
		},
		{
			name: "issued invoice without payment",
			job: &Job{PaymentStatus: PaymentStatusPaid, Invoices: []*InvoiceSummary{
				{DocType: InvoiceDocTypeInvoice, PaymentStatus: InvoiceDocStatusUnpaid},
			}},
			reason:  ReasonInvoiceIssued,
			derived: true,
		},
		{
			name: "partial requires positive paid amount",
			job: &Job{PaymentStatus: PaymentStatusPartial, Invoices: []*InvoiceSummary{
				{DocType: InvoiceDocTypeInvoice, PaymentStatus: InvoiceDocStatusPartial},
			}},
			reason:  ReasonBillingDocsExist,
			derived: true,
		},
		{
			name: "overdue",
			job: &Job{PaymentStatus: PaymentStatusOverdue, Invoices: []*InvoiceSummary{
				{DocType: InvoiceDocTypeInvoice, PaymentStatus: InvoiceDocStatusOverdue},
			}},
			reason:  ReasonInvoiceOverdue,
			derived: true,
		},
		{
			name: "cash with documents stays manual",
			job: &Job{PaymentStatus: PaymentStatusCash, Invoices: []*InvoiceSummary{
				{DocType: InvoiceDocTypeInvoice, PaymentStatus: InvoiceDocStatusPaid},
			}},
			derived: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reason, derived := InferAutoReason(tc.job)
			if derived != tc.derived {
				t.Fatalf("derived = %v, want %v", derived, tc.derived)
			}
			if derived && reason != tc.reason {
				t.Fatalf("reason = %q, want %q", reason, tc.reason)
			}
		})
	}
}

func TestDerivePaymentStatusFromInvoices(t *testing.T) {
	partial := &InvoiceSummary{
		DocType:       InvoiceDocTypeInvoice,
		PaymentStatus: InvoiceDocStatusPartial,
		PaidAmount:    decimal.NewFromInt(200),
	}
	paid := &InvoiceSummary{DocType: InvoiceDocTypeInvoice, PaymentStatus: InvoiceDocStatusPaid}
	overdue := &InvoiceSummary{DocType: InvoiceDocTypeInvoice, PaymentStatus: InvoiceDocStatusOverdue}
	proforma := &InvoiceSummary{DocType: InvoiceDocTypeProforma}

	cases := []struct {
		name     string
		invoices []*InvoiceSummary
		want     PaymentStatus
	}{
		{"empty", nil, PaymentStatusNone},
		{"paid wins over partial and overdue", []*InvoiceSummary{partial, overdue, paid}, PaymentStatusPaid},
		{"partial wins over overdue", []*InvoiceSummary{overdue, partial}, PaymentStatusPartial},
		{"overdue alone", []*InvoiceSummary{overdue}, PaymentStatusOverdue},
		{"bare proforma", []*InvoiceSummary{proforma}, PaymentStatusProforma},
		{"proforma plus unpaid invoice", []*InvoiceSummary{proforma, {DocType: InvoiceDocTypeInvoice, PaymentStatus: InvoiceDocStatusUnpaid}}, PaymentStatusNone},
		{"zero-amount partial ignored", []*InvoiceSummary{{DocType: InvoiceDocTypeInvoice, PaymentStatus: InvoiceDocStatusPartial}}, PaymentStatusNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DerivePaymentStatusFromInvoices(tc.invoices); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}
