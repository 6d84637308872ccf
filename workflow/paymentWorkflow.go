package workflow

import (
	"context"

	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
)

// ChangePaymentStatus runs the guard, then persists an allowed change
// optimistically. A declined confirmation is a cancellation, not a failure:
// (false, nil) with no mutation anywhere.
func (w *Workflow) ChangePaymentStatus(
	ctx context.Context,
	jobId string,
	newStatus models.PaymentStatus,
	origin models.ChangeOrigin,
	confirm models.Confirmer,
) (bool, error) {

	job, err := w.cachedOrRemote(ctx, jobId)
	if err != nil {
		return false, err
	}
	if job.PaymentStatus == newStatus {
		return true, nil
	}

	if !models.RequestStatusChange(job, newStatus, origin, confirm) {
		return false, nil
	}

	if err := w.cache.Put(ctx, job); err != nil {
		return false, err
	}
	if err := w.gateway.Update(ctx, jobId, map[string]interface{}{
		"payment_status": newStatus,
	}); err != nil {
		if utils.IsRecoverable(err) {
			return false, w.rollback(ctx, "payment.changeStatus", err)
		}
		return false, err
	}
	return true, nil
}

// ApplySyncedPaymentStatus is the billing synchronizer's entry point. Synced
// values are authoritative and bypass the guard.
func (w *Workflow) ApplySyncedPaymentStatus(ctx context.Context, jobId string, newStatus models.PaymentStatus) error {
	_, err := w.ChangePaymentStatus(ctx, jobId, newStatus, models.OriginAuto, nil)
	return err
}
