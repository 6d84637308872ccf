package workflow

import (
	"context"

	"github.com/montazreklam/jobs_backend/models"
	"github.com/sirupsen/logrus"
)

// Gateway is the only path to the authoritative job store.
type Gateway interface {
	FetchAll(ctx context.Context, filter models.JobFilter) ([]*models.Job, int64, error)
	FetchOne(ctx context.Context, id string) (*models.Job, error)
	Create(ctx context.Context, input *models.NewJob) (*models.Job, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	UpdatePosition(ctx context.Context, id string, column models.JobColumn, order int) error
	Delete(ctx context.Context, id string) error
	AddAttachments(ctx context.Context, id string, attachments []*models.JobAttachment) error
}

// Cache is the device-local job mirror the board reads from.
type Cache interface {
	Load(ctx context.Context) ([]*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	Put(ctx context.Context, job *models.Job) error
	Remove(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, jobs []*models.Job) error
}

// Notifier delivers completion notices. Best effort; a delivery failure never
// fails the completion itself.
type Notifier interface {
	NotifyCompleted(ctx context.Context, job *models.Job, recipientEmail string, notes string) error
}

// AttachmentReleaser frees stored attachment objects after a job is deleted.
type AttachmentReleaser interface {
	Release(ctx context.Context, urls []string) error
}

type Workflow struct {
	gateway  Gateway
	cache    Cache
	notifier Notifier
	releaser AttachmentReleaser
	logger   *logrus.Logger
}

func New(gateway Gateway, cache Cache, notifier Notifier, releaser AttachmentReleaser, logger *logrus.Logger) *Workflow {
	return &Workflow{
		gateway:  gateway,
		cache:    cache,
		notifier: notifier,
		releaser: releaser,
		logger:   logger,
	}
}
