package models

// Auto-derivation reasons surfaced to the actor when a manual payment-status
// change would clobber a value the billing synchronization likely set.
const (
	ReasonProformaIssued  = "proforma issued"
	ReasonInvoicePaid     = "invoice paid"
	ReasonInvoiceIssued   = "invoice issued"
	ReasonInvoicePartial  = "invoice partially paid"
	ReasonInvoiceOverdue  = "invoice overdue"
	ReasonBillingDocsExist = "job has linked billing documents"
)

// Confirmer answers whether the actor accepts overwriting a machine-derived
// payment status. The inferred reason is presented with the question.
type Confirmer func(reason string) bool

// InferAutoReason examines the job's linked invoice summaries against its
// current payment status and reports why the value looks machine-derived.
// First match wins; None and unlinked jobs never look derived.
func InferAutoReason(job *Job) (string, bool) {
	if job == nil || job.PaymentStatus == PaymentStatusNone || len(job.Invoices) == 0 {
		return "", false
	}

	switch job.PaymentStatus {
	case PaymentStatusProforma:
		for _, inv := range job.Invoices {
			if inv.DocType == InvoiceDocTypeProforma {
				return ReasonProformaIssued, true
			}
		}
	case PaymentStatusPaid:
		hasBillable := false
		for _, inv := range job.Invoices {
			if inv.DocType == InvoiceDocTypeInvoice || inv.DocType == InvoiceDocTypeAdvance {
				hasBillable = true
				if inv.PaymentStatus == InvoiceDocStatusPaid {
					return ReasonInvoicePaid, true
				}
			}
		}
		if hasBillable {
			return ReasonInvoiceIssued, true
		}
	case PaymentStatusPartial:
		for _, inv := range job.Invoices {
			if inv.PaymentStatus == InvoiceDocStatusPartial && inv.PaidAmount.IsPositive() {
				return ReasonInvoicePartial, true
			}
		}
	case PaymentStatusOverdue:
		for _, inv := range job.Invoices {
			if inv.PaymentStatus == InvoiceDocStatusOverdue {
				return ReasonInvoiceOverdue, true
			}
		}
	}

	if job.PaymentStatus != PaymentStatusCash {
		return ReasonBillingDocsExist, true
	}
	return "", false
}

// RequestStatusChange decides whether the payment-status change may proceed
// and, when allowed, applies it to the in-memory job. It performs no I/O;
// callers persist the job afterwards.
//
// Auto changes always win: the billing synchronization is authoritative and
// must never be blocked. Manual changes over a machine-derived value require
// the actor's confirmation; declined means no mutation anywhere.
func RequestStatusChange(job *Job, newStatus PaymentStatus, origin ChangeOrigin, confirm Confirmer) bool {
	if job == nil {
		return false
	}
	if newStatus == job.PaymentStatus {
		return true
	}
	if origin == OriginAuto {
		job.PaymentStatus = newStatus
		return true
	}

	reason, derived := InferAutoReason(job)
	if derived {
		if confirm == nil || !confirm(reason) {
			return false
		}
	}
	job.PaymentStatus = newStatus
	return true
}
