package billingsync

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
	"github.com/montazreklam/jobs_backend/workflow"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service runs billing synchronization and exposes its control surface.
// Synced payment statuses go through the workflow so the cache stays in step
// with the authoritative store.
type Service struct {
	wf *workflow.Workflow
}

func NewService(wf *workflow.Workflow) *Service {
	return &Service{wf: wf}
}

type billingInvoice struct {
	ID            string      `json:"id"`
	Number        string      `json:"number"`
	Kind          string      `json:"kind"`
	PaymentStatus string      `json:"payment_status"`
	Reference     string      `json:"reference"`
	PaidAmount    json.Number `json:"paid_price"`
	TotalAmount   json.Number `json:"gross_price"`
	InvoiceDate   string      `json:"invoice_date"`
	UpdatedAt     string      `json:"updated_at"`
}

func (s *Service) processSyncRun(ctx context.Context, payload SyncPubSubPayload) error {
	if payload.RunId == 0 {
		return errors.New("invalid payload")
	}

	db := config.GetDB().WithContext(ctx)

	var run models.BillingSyncRun
	if err := db.Where("id = ?", payload.RunId).Take(&run).Error; err != nil {
		return err
	}

	if run.Status == models.SyncRunStatusSuccess || run.Status == models.SyncRunStatusFailed || run.Status == models.SyncRunStatusPartial {
		return nil
	}

	var conn models.BillingConnection
	if err := db.Where("id = ?", run.ConnectionId).Take(&conn).Error; err != nil {
		return err
	}
	if conn.Status != models.BillingStatusConnected {
		return errors.New("billing provider not connected")
	}

	cursorState := DecodeCursorState(conn.CursorStateJSON)

	now := time.Now()
	startedAt := run.StartedAt
	if startedAt == nil {
		startedAt = &now
	}

	if err := db.Model(&run).Updates(map[string]interface{}{
		"status":     models.SyncRunStatusRunning,
		"started_at": startedAt,
	}).Error; err != nil {
		return err
	}

	client, err := newBillingClient(conn.AuthSecretRef)
	if err != nil {
		return err
	}

	synced := 0
	errorCount := 0

	count, newCursor, newUpdatedSince, syncErr := s.syncInvoices(ctx, db, run.ID, conn, client, cursorState.Invoices)
	synced = count
	if syncErr != nil {
		errorCount++
		_ = createSyncError(db, run.ID, "", "sync_failed", syncErr.Error(), nil, true)
	} else {
		cursorState.Invoices = CursorEntry{UpdatedSince: newUpdatedSince, Cursor: newCursor}
	}

	finishedAt := time.Now()
	durationMs := finishedAt.Sub(*startedAt).Milliseconds()
	status := models.SyncRunStatusSuccess
	if errorCount > 0 && synced == 0 {
		status = models.SyncRunStatusFailed
	} else if errorCount > 0 {
		status = models.SyncRunStatusPartial
	}

	statsJSON, _ := json.Marshal(map[string]int{"invoices": synced})
	cursorJSON := EncodeCursorState(cursorState)
	if err := db.Model(&run).Updates(map[string]interface{}{
		"status":            status,
		"finished_at":       finishedAt,
		"duration_ms":       durationMs,
		"records_synced":    synced,
		"error_count":       errorCount,
		"stats_json":        statsJSON,
		"cursor_state_json": cursorJSON,
	}).Error; err != nil {
		return err
	}

	connUpdates := map[string]interface{}{
		"last_sync_at":      finishedAt,
		"cursor_state_json": cursorJSON,
	}
	if status == models.SyncRunStatusSuccess {
		connUpdates["last_success_sync_at"] = finishedAt
	}
	if err := db.Model(&models.BillingConnection{}).
		Where("id = ?", conn.ID).
		Updates(connUpdates).Error; err != nil {
		return err
	}

	return nil
}

// syncInvoices pulls invoices changed since the stored cursor, upserts each
// as an InvoiceSummary bound to the job named by its reference, then applies
// each touched job's derived payment status with origin Auto.
func (s *Service) syncInvoices(ctx context.Context, db *gorm.DB, runID uint, conn models.BillingConnection, client *billingClient, cursor CursorEntry) (int, string, string, error) {
	updatedSince := strings.TrimSpace(cursor.UpdatedSince)
	if updatedSince == "" && conn.LastSuccessSyncAt != nil {
		updatedSince = conn.LastSuccessSyncAt.UTC().Format(time.RFC3339)
	}
	if updatedSince == "" {
		updatedSince = time.Now().Add(-30 * 24 * time.Hour).UTC().Format(time.RFC3339)
	}

	nextCursor := strings.TrimSpace(cursor.Cursor)
	total := 0
	touched := map[string]bool{}

	for {
		params := url.Values{}
		params.Set("updated_since", updatedSince)
		if nextCursor != "" {
			params.Set("cursor", nextCursor)
		}
		params.Set("limit", "100")

		resp, err := client.getList(ctx, "/invoices.json", params)
		if err != nil {
			return total, nextCursor, updatedSince, err
		}

		entities := resp.Data
		if len(entities) == 0 {
			entities = resp.Entities
		}

		for _, raw := range entities {
			var inv billingInvoice
			if err := json.Unmarshal(raw, &inv); err != nil {
				_ = createSyncError(db, runID, "", "invalid_payload", err.Error(), raw, true)
				continue
			}
			extID := strings.TrimSpace(inv.ID)
			if extID == "" {
				_ = createSyncError(db, runID, "", "missing_id", "invoice id missing", raw, false)
				continue
			}

			reference := strings.TrimSpace(inv.Reference)
			if reference == "" {
				_ = createSyncError(db, runID, extID, "missing_reference", "no job reference on invoice", raw, false)
				continue
			}
			job, err := models.GetJob(ctx, reference)
			if err != nil {
				if utils.IsNotFound(err) {
					_ = createSyncError(db, runID, extID, "job_not_found", "no job matches reference "+reference, raw, false)
					continue
				}
				return total, nextCursor, updatedSince, err
			}

			if err := upsertInvoiceSummary(db, job.ID, extID, inv); err != nil {
				_ = createSyncError(db, runID, extID, "sync_failed", err.Error(), raw, true)
				continue
			}
			total++
			touched[job.ID] = true
		}

		if resp.NextCursor == "" || (resp.HasMore != nil && !*resp.HasMore) {
			break
		}
		nextCursor = resp.NextCursor
	}

	if !config.BillingAutoStatusDisabled() {
		for jobId := range touched {
			if err := s.applyDerivedStatus(ctx, db, jobId); err != nil {
				_ = createSyncError(db, runID, "", "status_apply_failed", err.Error(), nil, true)
			}
		}
	}

	return total, nextCursor, updatedSince, nil
}

func (s *Service) applyDerivedStatus(ctx context.Context, db *gorm.DB, jobId string) error {
	var invoices []*models.InvoiceSummary
	if err := db.Where("job_id = ?", jobId).Find(&invoices).Error; err != nil {
		return err
	}
	derived := models.DerivePaymentStatusFromInvoices(invoices)
	if derived == models.PaymentStatusNone {
		return nil
	}
	return s.wf.ApplySyncedPaymentStatus(ctx, jobId, derived)
}

func upsertInvoiceSummary(db *gorm.DB, jobId string, extID string, inv billingInvoice) error {
	docType := models.NormalizeInvoiceDocType(inv.Kind)
	docStatus := models.NormalizeInvoiceDocStatus(inv.PaymentStatus)

	var issuedAt *time.Time
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(inv.InvoiceDate)); err == nil {
		issuedAt = &t
	}

	row := models.InvoiceSummary{
		JobID:         jobId,
		ExternalId:    extID,
		Number:        strings.TrimSpace(inv.Number),
		DocType:       docType,
		PaymentStatus: docStatus,
		PaidAmount:    decimalFromNumber(inv.PaidAmount),
		TotalAmount:   decimalFromNumber(inv.TotalAmount),
		IssuedAt:      issuedAt,
	}

	var existing models.InvoiceSummary
	err := db.Where("external_id = ?", extID).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&row).Error
	}
	if err != nil {
		return err
	}
	return db.Model(&existing).Updates(map[string]interface{}{
		"job_id":         row.JobID,
		"number":         row.Number,
		"doc_type":       row.DocType,
		"payment_status": row.PaymentStatus,
		"paid_amount":    row.PaidAmount,
		"total_amount":   row.TotalAmount,
		"issued_at":      row.IssuedAt,
	}).Error
}

func createSyncError(db *gorm.DB, runID uint, extID string, code string, message string, payload []byte, retryable bool) error {
	return db.Create(&models.BillingSyncError{
		SyncRunId:   runID,
		ExternalId:  extID,
		ErrorCode:   code,
		Message:     message,
		PayloadJSON: payload,
		Retryable:   retryable,
	}).Error
}

func decimalFromNumber(n json.Number) decimal.Decimal {
	v := strings.TrimSpace(n.String())
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}
