package models

import (
	"encoding/json"
	"testing"
)

func TestPaymentStatusDecodeToleratesLegacyValues(t *testing.T) {
	cases := map[string]PaymentStatus{
		`""`:         PaymentStatusNone,
		`"oplacone"`: PaymentStatusPaid,
		`"garbage"`:  PaymentStatusNone,
		`"Overdue"`:  PaymentStatusOverdue,
	}
	for raw, want := range cases {
		var got PaymentStatus
		if err := json.Unmarshal([]byte(raw), &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", raw, err)
		}
		if got != want {
			t.Errorf("Unmarshal(%s) = %s, want %s", raw, got, want)
		}
	}

	var got PaymentStatus
	if err := json.Unmarshal([]byte("7"), &got); err == nil {
		t.Error("Unmarshal(7) should fail, payment status must be a string")
	}
}

func TestBoardColumnsDisplayOrder(t *testing.T) {
	want := []JobColumn{
		JobColumnPrepare,
		JobColumnMonday, JobColumnTuesday, JobColumnWednesday, JobColumnThursday, JobColumnFriday,
		JobColumnCompleted, JobColumnArchive,
	}
	got := BoardColumns()
	if len(got) != len(want) {
		t.Fatalf("BoardColumns() has %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("BoardColumns()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNormalizePaymentStatus_LegacyLiterals(t *testing.T) {
	cases := map[string]PaymentStatus{
		"Paid":           PaymentStatusPaid,
		"oplacone":       PaymentStatusPaid,
		"gotowka":        PaymentStatusCash,
		"po_terminie":    PaymentStatusOverdue,
		"after_deadline": PaymentStatusOverdue,
		"proforma_sent":  PaymentStatusProforma,
		"czesciowo":      PaymentStatusPartial,
		"  BRAK  ":       PaymentStatusNone,
		"":               PaymentStatusNone,
		"garbage":        PaymentStatusNone,
	}
	for raw, want := range cases {
		if got := NormalizePaymentStatus(raw); got != want {
			t.Errorf("NormalizePaymentStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNormalizeInvoiceDocType_LegacyLiterals(t *testing.T) {
	cases := map[string]InvoiceDocType{
		"Proforma": InvoiceDocTypeProforma,
		"faktura":  InvoiceDocTypeInvoice,
		"vat":      InvoiceDocTypeInvoice,
		"zaliczka": InvoiceDocTypeAdvance,
		"unknown":  InvoiceDocTypeInvoice,
	}
	for raw, want := range cases {
		if got := NormalizeInvoiceDocType(raw); got != want {
			t.Errorf("NormalizeInvoiceDocType(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNormalizeInvoiceDocStatus_LegacyLiterals(t *testing.T) {
	cases := map[string]InvoiceDocStatus{
		"oplacona":       InvoiceDocStatusPaid,
		"partially_paid": InvoiceDocStatusPartial,
		"issued":         InvoiceDocStatusUnpaid,
		"garbage":        InvoiceDocStatusUnpaid,
	}
	for raw, want := range cases {
		if got := NormalizeInvoiceDocStatus(raw); got != want {
			t.Errorf("NormalizeInvoiceDocStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestDeriveStatusForColumn(t *testing.T) {
	cases := []struct {
		column   JobColumn
		previous JobStatus
		want     JobStatus
	}{
		{JobColumnCompleted, JobStatusInProgress, JobStatusCompleted},
		{JobColumnArchive, JobStatusCompleted, JobStatusArchived},
		{JobColumnMonday, JobStatusNew, JobStatusNew},
		{JobColumnMonday, JobStatusInProgress, JobStatusInProgress},
		// Leaving Completed demotes to InProgress, never back to New.
		{JobColumnTuesday, JobStatusCompleted, JobStatusInProgress},
		{JobColumnPrepare, JobStatusArchived, JobStatusInProgress},
	}
	for _, tc := range cases {
		if got := DeriveStatusForColumn(tc.column, tc.previous); got != tc.want {
			t.Errorf("DeriveStatusForColumn(%s, %s) = %s, want %s", tc.column, tc.previous, got, tc.want)
		}
	}
}
