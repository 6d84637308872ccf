package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
)

const placeholderTitle = "Untitled job"

type CompletionEvidence struct {
	Images      []*models.JobAttachment `json:"images"`
	Notes       string                  `json:"notes"`
	NotifyEmail string                  `json:"notify_email"`
}

// Create validates the payload, places the job at the end of the preparation
// column and seeds the cache with the stored record. A blank title never
// rejects; it falls back to a placeholder.
func (w *Workflow) Create(ctx context.Context, input *models.NewJob) (*models.Job, error) {
	if strings.TrimSpace(input.Title) == "" {
		input.Title = placeholderTitle
	}

	order, err := w.appendOrder(ctx, models.JobColumnPrepare, "")
	if err != nil {
		return nil, err
	}
	input.Column = models.JobColumnPrepare
	input.Order = order
	input.Status = models.JobStatusNew

	job, err := w.gateway.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := w.cache.Put(ctx, job); err != nil {
		config.LogError(w.logger, "workflow", "lifecycle.create", "cache seed failed", job.ID, err)
	}
	return job, nil
}

// Complete drives the completion workflow: persist the transition, store the
// evidence, refresh the cache, notify. Each sub-step reports individually; a
// notification failure never undoes the completion.
func (w *Workflow) Complete(ctx context.Context, jobId string, evidence CompletionEvidence) (*StepReport, error) {
	isAdmin, _ := utils.GetIsAdminFromContext(ctx)
	if len(evidence.Images) == 0 && !isAdmin {
		return nil, utils.NewValidationError("lifecycle.complete",
			errors.New("at least one evidence image is required"))
	}

	job, err := w.cachedOrRemote(ctx, jobId)
	if err != nil {
		return nil, err
	}

	order, err := w.appendOrder(ctx, models.JobColumnCompleted, jobId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.BoardColumn = models.JobColumnCompleted
	job.BoardOrder = order
	job.CompletionNotes = evidence.Notes
	if job.CompletedAt == nil {
		job.CompletedAt = &now
	}
	job.UpdatedAt = now

	if err := w.cache.Put(ctx, job); err != nil {
		return nil, err
	}

	var attachments []*models.JobAttachment
	for _, img := range evidence.Images {
		attachments = append(attachments, &models.JobAttachment{
			Kind:         models.AttachmentKindEvidence,
			FileName:     img.FileName,
			Url:          img.Url,
			ThumbnailUrl: img.ThumbnailUrl,
		})
	}

	steps := []step{
		{name: "persist", run: func(ctx context.Context) error {
			return w.gateway.Update(ctx, jobId, map[string]interface{}{
				"status":           job.Status,
				"board_column":     job.BoardColumn,
				"board_order":      job.BoardOrder,
				"completed_at":     job.CompletedAt,
				"completion_notes": job.CompletionNotes,
			})
		}},
		{name: "evidence", run: func(ctx context.Context) error {
			if len(attachments) == 0 {
				return nil
			}
			return w.gateway.AddAttachments(ctx, jobId, attachments)
		}},
		{name: "refresh", optional: true, run: func(ctx context.Context) error {
			fresh, err := w.gateway.FetchOne(ctx, jobId)
			if err != nil {
				return err
			}
			return w.cache.Put(ctx, fresh)
		}},
		{name: "notify", optional: true, run: func(ctx context.Context) error {
			if evidence.NotifyEmail == "" || w.notifier == nil {
				return nil
			}
			return w.notifier.NotifyCompleted(ctx, job, evidence.NotifyEmail, evidence.Notes)
		}},
	}

	report := w.runSteps(ctx, "lifecycle.complete", steps)
	if err := report.FirstError(); err != nil && utils.IsRecoverable(err) {
		return report, w.rollback(ctx, "lifecycle.complete", err)
	} else if err != nil {
		return report, err
	}
	return report, nil
}

// Archive parks the job in the archive column. Calling it on an archived job
// changes nothing.
func (w *Workflow) Archive(ctx context.Context, jobId string) (*models.Job, error) {
	job, err := w.cachedOrRemote(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if job.Status == models.JobStatusArchived {
		return job, nil
	}

	now := time.Now()
	job.Status = models.JobStatusArchived
	job.BoardColumn = models.JobColumnArchive
	job.BoardOrder = 0
	if job.CompletedAt == nil {
		job.CompletedAt = &now
	}
	job.UpdatedAt = now

	if err := w.cache.Put(ctx, job); err != nil {
		return nil, err
	}
	if err := w.gateway.Update(ctx, jobId, map[string]interface{}{
		"status":       job.Status,
		"board_column": job.BoardColumn,
		"board_order":  job.BoardOrder,
		"completed_at": job.CompletedAt,
	}); err != nil {
		return nil, w.rollback(ctx, "lifecycle.archive", err)
	}
	return job, nil
}

// Delete removes the job everywhere and releases its stored attachments.
// Terminal.
func (w *Workflow) Delete(ctx context.Context, jobId string) error {
	job, err := w.cachedOrRemote(ctx, jobId)
	if err != nil {
		return err
	}

	if err := w.gateway.Delete(ctx, jobId); err != nil {
		if utils.IsRecoverable(err) {
			return w.rollback(ctx, "lifecycle.delete", err)
		}
		return err
	}
	if err := w.cache.Remove(ctx, jobId); err != nil {
		config.LogError(w.logger, "workflow", "lifecycle.delete", "cache remove failed", jobId, err)
	}

	if w.releaser != nil {
		var urls []string
		for _, att := range job.Attachments {
			if att.Url != "" {
				urls = append(urls, att.Url)
			}
			if att.ThumbnailUrl != "" {
				urls = append(urls, att.ThumbnailUrl)
			}
		}
		// Attachments can share a thumbnail object; release each url once.
		urls = utils.UniqueSlice(urls)
		if len(urls) > 0 {
			if err := w.releaser.Release(ctx, urls); err != nil {
				config.LogError(w.logger, "workflow", "lifecycle.delete", "attachment release failed", jobId, err)
			}
		}
	}
	return nil
}

// Duplicate copies a job's content into a fresh job in the preparation
// column. Completion state never travels: evidence images and notes are
// dropped, checklist items keep their text but start unchecked.
func (w *Workflow) Duplicate(ctx context.Context, jobId string) (*models.Job, error) {
	src, err := w.cachedOrRemote(ctx, jobId)
	if err != nil {
		return nil, err
	}

	input := &models.NewJob{
		Title:        src.Title,
		ContactName:  src.ContactName,
		ContactPhone: src.ContactPhone,
		ContactEmail: src.ContactEmail,
		Address:      src.Address,
		ScopeOfWork:  src.ScopeOfWork,
	}
	for _, item := range src.Checklist {
		input.Checklist = append(input.Checklist, &models.ChecklistItem{
			Text: item.Text,
			Done: false,
		})
	}
	for _, att := range src.Attachments {
		if att.Kind == models.AttachmentKindEvidence {
			continue
		}
		input.Attachments = append(input.Attachments, &models.JobAttachment{
			Kind:         att.Kind,
			FileName:     att.FileName,
			Url:          att.Url,
			ThumbnailUrl: att.ThumbnailUrl,
		})
	}

	return w.Create(ctx, input)
}
