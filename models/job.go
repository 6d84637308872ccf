package models

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/utils"
	"gorm.io/gorm"
)

// Job is the central entity: a work item on the scheduling board.
// BoardColumn + BoardOrder define its placement; order is unique within a
// column after any completed operation.
type Job struct {
	ID            string        `gorm:"primaryKey;size:36" json:"id"`
	FriendlyId    string        `gorm:"size:20;uniqueIndex" json:"friendly_id"`
	SequenceNo    int64         `gorm:"not null" json:"sequence_no"`
	Year          int           `gorm:"index;not null" json:"year"`
	BoardColumn   JobColumn     `gorm:"size:20;index;not null" json:"column"`
	BoardOrder    int           `gorm:"not null" json:"order"`
	Status        JobStatus     `gorm:"size:20;index;not null" json:"status"`
	PaymentStatus PaymentStatus `gorm:"size:20;not null" json:"payment_status"`

	Title           string `gorm:"size:255;not null" json:"title"`
	ContactName     string `gorm:"size:255" json:"contact_name"`
	ContactPhone    string `gorm:"size:50" json:"contact_phone"`
	ContactEmail    string `gorm:"size:255" json:"contact_email"`
	Address         string `gorm:"size:500" json:"address"`
	ScopeOfWork     string `gorm:"type:text" json:"scope_of_work"`
	CompletionNotes string `gorm:"type:text" json:"completion_notes"`

	Invoices    []*InvoiceSummary `gorm:"foreignKey:JobID" json:"invoices"`
	Checklist   []*ChecklistItem  `gorm:"foreignKey:JobID" json:"checklist"`
	Attachments []*JobAttachment  `gorm:"foreignKey:JobID" json:"attachments"`

	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type ChecklistItem struct {
	ID       int    `gorm:"primary_key" json:"id"`
	JobID    string `gorm:"size:36;index;not null" json:"job_id"`
	Text     string `gorm:"size:500;not null" json:"text"`
	Done     bool   `gorm:"not null;default:false" json:"done"`
	Position int    `gorm:"not null;default:0" json:"position"`
}

type AttachmentKind string

const (
	AttachmentKindFile     AttachmentKind = "File"
	AttachmentKindEvidence AttachmentKind = "Evidence"
)

// JobAttachment references stored bytes by URL. Data carries an inline
// payload on its way through the local cache (offline-first clients); it is
// never persisted to the database.
type JobAttachment struct {
	ID           int            `gorm:"primary_key" json:"id"`
	JobID        string         `gorm:"size:36;index;not null" json:"job_id"`
	Kind         AttachmentKind `gorm:"size:20;not null;default:'File'" json:"kind"`
	FileName     string         `gorm:"size:255" json:"file_name"`
	Url          string         `gorm:"size:500" json:"url"`
	ThumbnailUrl string         `gorm:"size:500" json:"thumbnail_url"`
	Data         []byte         `gorm:"-" json:"data,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

type NewJob struct {
	Title        string           `json:"title"`
	ContactName  string           `json:"contact_name"`
	ContactPhone string           `json:"contact_phone"`
	ContactEmail string           `json:"contact_email"`
	Address      string           `json:"address"`
	ScopeOfWork  string           `json:"scope_of_work"`
	Checklist    []*ChecklistItem `json:"checklist"`
	Attachments  []*JobAttachment `json:"attachments"`

	// Placement is computed by the lifecycle controller, not taken from input.
	Column JobColumn `json:"-"`
	Order  int       `json:"-"`
	Status JobStatus `json:"-"`
}

func (input *NewJob) validate() error {
	if input.ContactEmail != "" && !utils.IsValidEmail(input.ContactEmail) {
		return errors.New("invalid contact email")
	}
	if input.ContactPhone != "" {
		if err := utils.ValidatePhoneNumber(input.ContactPhone, ""); err != nil {
			return err
		}
	}
	return nil
}

type JobFilter struct {
	Status *JobStatus
	Column *JobColumn
	Search string
	Limit  int
	Offset int
}

// classifyJobError maps database failures into the remote error taxonomy.
// Only this boundary classifies; callers use errors.Is/As helpers.
func classifyJobError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, utils.ErrorRecordNotFound) {
		return utils.NewNotFoundError(op)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062, 1451, 1452: // duplicate key, FK violations
			return utils.NewConflictError(op, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return utils.NewTransientError(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return utils.NewTransientError(op, err)
	}
	// Unknown infrastructure failure: retryable by policy.
	return utils.NewTransientError(op, err)
}

// PaginateJobs returns one page of the authoritative job list plus the total
// count for the filter. Ordered by creation time descending.
func PaginateJobs(ctx context.Context, filter JobFilter) ([]*Job, int64, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&Job{})
	if filter.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.Column != nil {
		dbCtx = dbCtx.Where("board_column = ?", *filter.Column)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		dbCtx = dbCtx.Where(
			"title LIKE ? OR contact_name LIKE ? OR address LIKE ? OR friendly_id LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, classifyJobError("jobs.fetchAll", err)
	}

	if filter.Limit > 0 {
		dbCtx = dbCtx.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		dbCtx = dbCtx.Offset(filter.Offset)
	}

	var jobs []*Job
	if err := dbCtx.
		Preload("Invoices").
		Preload("Checklist", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Attachments").
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, 0, classifyJobError("jobs.fetchAll", err)
	}
	return jobs, total, nil
}

// GetJob fetches by internal id or by friendly id.
func GetJob(ctx context.Context, idOrFriendly string) (*Job, error) {
	db := config.GetDB()
	var job Job
	err := db.WithContext(ctx).
		Preload("Invoices").
		Preload("Checklist", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Attachments").
		Where("id = ? OR friendly_id = ?", idOrFriendly, idOrFriendly).
		First(&job).Error
	if err != nil {
		return nil, classifyJobError("jobs.fetchOne", err)
	}
	return &job, nil
}

// CreateJob persists a new job. ID and friendly id are assigned here, never by
// the caller; friendly numbers are sequential per calendar year and never
// reused.
func CreateJob(ctx context.Context, input *NewJob) (*Job, error) {
	if err := input.validate(); err != nil {
		return nil, utils.NewValidationError("jobs.create", err)
	}

	now := time.Now()
	year := now.Year()
	seqNo, err := utils.GetYearSequence[Job](ctx, year)
	if err != nil {
		return nil, classifyJobError("jobs.create", err)
	}

	job := Job{
		ID:            uuid.NewString(),
		FriendlyId:    fmt.Sprintf("%03d/%d", seqNo, year),
		SequenceNo:    seqNo,
		Year:          year,
		BoardColumn:   input.Column,
		BoardOrder:    input.Order,
		Status:        input.Status,
		PaymentStatus: PaymentStatusNone,
		Title:         input.Title,
		ContactName:   input.ContactName,
		ContactPhone:  input.ContactPhone,
		ContactEmail:  input.ContactEmail,
		Address:       input.Address,
		ScopeOfWork:   input.ScopeOfWork,
	}
	for i, item := range input.Checklist {
		job.Checklist = append(job.Checklist, &ChecklistItem{
			Text:     item.Text,
			Done:     item.Done,
			Position: i,
		})
	}
	for _, att := range input.Attachments {
		job.Attachments = append(job.Attachments, &JobAttachment{
			Kind:         att.Kind,
			FileName:     att.FileName,
			Url:          att.Url,
			ThumbnailUrl: att.ThumbnailUrl,
		})
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		return createHistory(tx, ctx, "*CREATE*", job.ID, "jobs", "created "+job.FriendlyId)
	})
	if err != nil {
		return nil, classifyJobError("jobs.create", err)
	}
	return &job, nil
}

// UpdateJobFields applies a partial update. Fails with NotFound when the id no
// longer exists remotely.
func UpdateJobFields(ctx context.Context, id string, fields map[string]interface{}) error {
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Job{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return createHistory(tx, ctx, "*UPDATE*", id, "jobs", "updated fields")
	})
	return classifyJobError("jobs.update", err)
}

// UpdateJobPosition writes a single job's column+order change atomically.
// The derived lifecycle status and completedAt travel in the same statement,
// so a reader never observes the column updated but the order (or status)
// stale.
func UpdateJobPosition(ctx context.Context, id string, column JobColumn, order int) error {
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Job
		if err := tx.Select("id", "status", "completed_at", "friendly_id").
			Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}

		status := DeriveStatusForColumn(column, current.Status)
		fields := map[string]interface{}{
			"board_column": column,
			"board_order":  order,
			"status":       status,
		}
		switch {
		case (status == JobStatusCompleted || status == JobStatusArchived) && current.CompletedAt == nil:
			now := time.Now()
			fields["completed_at"] = &now
		case status != JobStatusCompleted && status != JobStatusArchived && current.CompletedAt != nil:
			fields["completed_at"] = nil
		}

		if err := tx.Model(&Job{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return createHistory(tx, ctx, "*MOVE*", id, "jobs",
			fmt.Sprintf("moved %s to %s/%d", current.FriendlyId, column, order))
	})
	return classifyJobError("jobs.updatePosition", err)
}

// DeleteJob removes the job and its owned rows. Terminal.
func DeleteJob(ctx context.Context, id string) error {
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job Job
		if err := tx.Where("id = ?", id).First(&job).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", id).Delete(&ChecklistItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", id).Delete(&JobAttachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", id).Delete(&InvoiceSummary{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&job).Error; err != nil {
			return err
		}
		return createHistory(tx, ctx, "*DELETE*", id, "jobs", "deleted "+job.FriendlyId)
	})
	return classifyJobError("jobs.delete", err)
}

// ReplaceJobChecklist rewrites the checklist rows for a job.
func ReplaceJobChecklist(ctx context.Context, id string, items []*ChecklistItem) error {
	if err := utils.ValidateResourceId[Job](ctx, id); err != nil {
		return classifyJobError("jobs.replaceChecklist", err)
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&ChecklistItem{}).Error; err != nil {
			return err
		}
		for i, item := range items {
			row := ChecklistItem{JobID: id, Text: item.Text, Done: item.Done, Position: i}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return classifyJobError("jobs.replaceChecklist", err)
}

// AddJobAttachments appends attachment references (e.g. completion evidence).
func AddJobAttachments(ctx context.Context, id string, attachments []*JobAttachment) error {
	if err := utils.ValidateResourceId[Job](ctx, id); err != nil {
		return classifyJobError("jobs.addAttachments", err)
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, att := range attachments {
			row := JobAttachment{
				JobID:        id,
				Kind:         att.Kind,
				FileName:     att.FileName,
				Url:          att.Url,
				ThumbnailUrl: att.ThumbnailUrl,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return classifyJobError("jobs.addAttachments", err)
}

// RemoveJobAttachments drops attachment rows of the given kind.
func RemoveJobAttachments(ctx context.Context, id string, kind AttachmentKind) error {
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("job_id = ? AND kind = ?", id, kind).
		Delete(&JobAttachment{}).Error
	return classifyJobError("jobs.removeAttachments", err)
}
