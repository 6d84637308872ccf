package models

import (
	"errors"
	"strconv"
	"strings"

	"github.com/montazreklam/jobs_backend/config"
	"github.com/sirupsen/logrus"
)

// JobColumn is the named bucket a job occupies on the scheduling board.
type JobColumn string

const (
	JobColumnPrepare   JobColumn = "Prepare"
	JobColumnMonday    JobColumn = "Monday"
	JobColumnTuesday   JobColumn = "Tuesday"
	JobColumnWednesday JobColumn = "Wednesday"
	JobColumnThursday  JobColumn = "Thursday"
	JobColumnFriday    JobColumn = "Friday"
	JobColumnCompleted JobColumn = "Completed"
	JobColumnArchive   JobColumn = "Archive"
)

var jobColumns = map[string]JobColumn{
	"Prepare":   JobColumnPrepare,
	"Monday":    JobColumnMonday,
	"Tuesday":   JobColumnTuesday,
	"Wednesday": JobColumnWednesday,
	"Thursday":  JobColumnThursday,
	"Friday":    JobColumnFriday,
	"Completed": JobColumnCompleted,
	"Archive":   JobColumnArchive,
}

func (c JobColumn) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(c))), nil
}

func (c *JobColumn) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("job column must be string")
	}
	col, ok := jobColumns[str]
	if !ok {
		return errors.New("invalid job column")
	}
	*c = col
	return nil
}

func ParseJobColumn(s string) (JobColumn, bool) {
	col, ok := jobColumns[s]
	return col, ok
}

type JobStatus string

const (
	JobStatusNew        JobStatus = "New"
	JobStatusInProgress JobStatus = "InProgress"
	JobStatusCompleted  JobStatus = "Completed"
	JobStatusArchived   JobStatus = "Archived"
)

var jobStatuses = map[string]JobStatus{
	"New":        JobStatusNew,
	"InProgress": JobStatusInProgress,
	"Completed":  JobStatusCompleted,
	"Archived":   JobStatusArchived,
}

func (s JobStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *JobStatus) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("job status must be string")
	}
	status, ok := jobStatuses[str]
	if !ok {
		return errors.New("invalid job status")
	}
	*s = status
	return nil
}

func ParseJobStatus(s string) (JobStatus, bool) {
	status, ok := jobStatuses[s]
	return status, ok
}

// PaymentStatus is the job-level payment state, set either by the user or
// derived from documents issued by the external billing system.
type PaymentStatus string

const (
	PaymentStatusNone     PaymentStatus = "None"
	PaymentStatusProforma PaymentStatus = "Proforma"
	PaymentStatusPartial  PaymentStatus = "Partial"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusCash     PaymentStatus = "Cash"
	PaymentStatusOverdue  PaymentStatus = "Overdue"
)

var paymentStatuses = map[string]PaymentStatus{
	"None":     PaymentStatusNone,
	"Proforma": PaymentStatusProforma,
	"Partial":  PaymentStatusPartial,
	"Paid":     PaymentStatusPaid,
	"Cash":     PaymentStatusCash,
	"Overdue":  PaymentStatusOverdue,
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

// Decoding tolerates the zero value and historical literals so records written
// before the enum was closed stay readable; callers that need strict input
// validation use ParsePaymentStatus instead.
func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("payment status must be string")
	}
	*s = NormalizePaymentStatus(str)
	return nil
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	status, ok := paymentStatuses[s]
	return status, ok
}

// Literals the billing system has used over the years for job payment state.
// Anything outside this map falls back to None and is logged.
var legacyPaymentStatuses = map[string]PaymentStatus{
	"none":           PaymentStatusNone,
	"brak":           PaymentStatusNone,
	"proforma":       PaymentStatusProforma,
	"proforma_sent":  PaymentStatusProforma,
	"partial":        PaymentStatusPartial,
	"partially_paid": PaymentStatusPartial,
	"czesciowo":      PaymentStatusPartial,
	"paid":           PaymentStatusPaid,
	"oplacone":       PaymentStatusPaid,
	"cash":           PaymentStatusCash,
	"gotowka":        PaymentStatusCash,
	"overdue":        PaymentStatusOverdue,
	"po_terminie":    PaymentStatusOverdue,
	"after_deadline": PaymentStatusOverdue,
}

// NormalizePaymentStatus maps an external literal into the closed enum.
// Unrecognized strings never flow into internal logic.
func NormalizePaymentStatus(raw string) PaymentStatus {
	if status, ok := paymentStatuses[raw]; ok {
		return status
	}
	if status, ok := legacyPaymentStatuses[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	if raw != "" {
		config.GetLogger().WithFields(logrus.Fields{
			"module": "models",
			"raw":    raw,
		}).Warn("unrecognized payment status literal; falling back to None")
	}
	return PaymentStatusNone
}

// InvoiceDocType is the kind of billing document linked to a job.
type InvoiceDocType string

const (
	InvoiceDocTypeProforma InvoiceDocType = "Proforma"
	InvoiceDocTypeInvoice  InvoiceDocType = "Invoice"
	InvoiceDocTypeAdvance  InvoiceDocType = "Advance"
)

var invoiceDocTypes = map[string]InvoiceDocType{
	"Proforma": InvoiceDocTypeProforma,
	"Invoice":  InvoiceDocTypeInvoice,
	"Advance":  InvoiceDocTypeAdvance,
}

func (t InvoiceDocType) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(t))), nil
}

func (t *InvoiceDocType) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("invoice document type must be string")
	}
	docType, ok := invoiceDocTypes[str]
	if !ok {
		return errors.New("invalid invoice document type")
	}
	*t = docType
	return nil
}

var legacyInvoiceDocTypes = map[string]InvoiceDocType{
	"proforma": InvoiceDocTypeProforma,
	"invoice":  InvoiceDocTypeInvoice,
	"vat":      InvoiceDocTypeInvoice,
	"faktura":  InvoiceDocTypeInvoice,
	"advance":  InvoiceDocTypeAdvance,
	"zaliczka": InvoiceDocTypeAdvance,
}

func NormalizeInvoiceDocType(raw string) InvoiceDocType {
	if docType, ok := invoiceDocTypes[raw]; ok {
		return docType
	}
	if docType, ok := legacyInvoiceDocTypes[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return docType
	}
	config.GetLogger().WithFields(logrus.Fields{
		"module": "models",
		"raw":    raw,
	}).Warn("unrecognized invoice document type literal; falling back to Invoice")
	return InvoiceDocTypeInvoice
}

// InvoiceDocStatus is the billing document's own payment state.
type InvoiceDocStatus string

const (
	InvoiceDocStatusPaid    InvoiceDocStatus = "Paid"
	InvoiceDocStatusPartial InvoiceDocStatus = "Partial"
	InvoiceDocStatusOverdue InvoiceDocStatus = "Overdue"
	InvoiceDocStatusUnpaid  InvoiceDocStatus = "Unpaid"
)

var invoiceDocStatuses = map[string]InvoiceDocStatus{
	"Paid":    InvoiceDocStatusPaid,
	"Partial": InvoiceDocStatusPartial,
	"Overdue": InvoiceDocStatusOverdue,
	"Unpaid":  InvoiceDocStatusUnpaid,
}

func (s InvoiceDocStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *InvoiceDocStatus) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("invoice document status must be string")
	}
	status, ok := invoiceDocStatuses[str]
	if !ok {
		return errors.New("invalid invoice document status")
	}
	*s = status
	return nil
}

var legacyInvoiceDocStatuses = map[string]InvoiceDocStatus{
	"paid":           InvoiceDocStatusPaid,
	"oplacona":       InvoiceDocStatusPaid,
	"partial":        InvoiceDocStatusPartial,
	"partially_paid": InvoiceDocStatusPartial,
	"overdue":        InvoiceDocStatusOverdue,
	"po_terminie":    InvoiceDocStatusOverdue,
	"unpaid":         InvoiceDocStatusUnpaid,
	"issued":         InvoiceDocStatusUnpaid,
}

func NormalizeInvoiceDocStatus(raw string) InvoiceDocStatus {
	if status, ok := invoiceDocStatuses[raw]; ok {
		return status
	}
	if status, ok := legacyInvoiceDocStatuses[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	config.GetLogger().WithFields(logrus.Fields{
		"module": "models",
		"raw":    raw,
	}).Warn("unrecognized invoice document status literal; falling back to Unpaid")
	return InvoiceDocStatusUnpaid
}

// ChangeOrigin distinguishes a human actor's request from a change derived by
// synchronization with the external billing system.
type ChangeOrigin string

const (
	OriginManual ChangeOrigin = "Manual"
	OriginAuto   ChangeOrigin = "Auto"
)

func (o ChangeOrigin) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(o))), nil
}

func (o *ChangeOrigin) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("change origin must be string")
	}
	switch str {
	case "Manual":
		*o = OriginManual
	case "Auto":
		*o = OriginAuto
	default:
		return errors.New("invalid change origin")
	}
	return nil
}

type UserRole string

const (
	UserRoleAdmin    UserRole = "Admin"
	UserRoleStandard UserRole = "Standard"
)
