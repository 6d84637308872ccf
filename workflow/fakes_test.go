package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/jobcache"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
)

// NOTE: These tests are intentionally DB-free. The fake gateway plays the
// authoritative store; the cache is the real store over the in-memory KV, so
// rollback-via-reload is exercised end to end.

type fakeGateway struct {
	mu           sync.Mutex
	jobs         map[string]*models.Job
	failPosition map[string]error
	failUpdate   error
	failDelete   error

	positionCalls int
	updatedFields map[string]interface{}
	added         []*models.JobAttachment
}

func newFakeGateway(jobs ...*models.Job) *fakeGateway {
	g := &fakeGateway{
		jobs:         map[string]*models.Job{},
		failPosition: map[string]error{},
	}
	for _, job := range jobs {
		clone := *job
		g.jobs[job.ID] = &clone
	}
	return g
}

func (g *fakeGateway) FetchAll(ctx context.Context, filter models.JobFilter) ([]*models.Job, int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*models.Job
	for _, job := range g.jobs {
		clone := *job
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (g *fakeGateway) FetchOne(ctx context.Context, id string) (*models.Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	job, ok := g.jobs[id]
	if !ok {
		return nil, utils.NewNotFoundError("jobs.fetchOne")
	}
	clone := *job
	return &clone, nil
}

func (g *fakeGateway) Create(ctx context.Context, input *models.NewJob) (*models.Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	job := &models.Job{
		ID:          fmt.Sprintf("job-%d", len(g.jobs)+1),
		Title:       input.Title,
		ContactName: input.ContactName,
		BoardColumn: input.Column,
		BoardOrder:  input.Order,
		Status:      input.Status,
		Checklist:   input.Checklist,
		Attachments: input.Attachments,
		CreatedAt:   time.Now(),
	}
	g.jobs[job.ID] = job
	clone := *job
	return &clone, nil
}

func (g *fakeGateway) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failUpdate != nil {
		return g.failUpdate
	}
	job, ok := g.jobs[id]
	if !ok {
		return utils.NewNotFoundError("jobs.update")
	}
	g.updatedFields = fields
	for key, value := range fields {
		switch key {
		case "status":
			job.Status = value.(models.JobStatus)
		case "board_column":
			job.BoardColumn = value.(models.JobColumn)
		case "board_order":
			job.BoardOrder = value.(int)
		case "payment_status":
			job.PaymentStatus = value.(models.PaymentStatus)
		case "completion_notes":
			job.CompletionNotes = value.(string)
		case "completed_at":
			if ts, ok := value.(*time.Time); ok {
				job.CompletedAt = ts
			}
		}
	}
	return nil
}

func (g *fakeGateway) UpdatePosition(ctx context.Context, id string, column models.JobColumn, order int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.positionCalls++
	if err := g.failPosition[id]; err != nil {
		return err
	}
	job, ok := g.jobs[id]
	if !ok {
		return utils.NewNotFoundError("jobs.updatePosition")
	}
	job.BoardColumn = column
	job.BoardOrder = order
	job.Status = models.DeriveStatusForColumn(column, job.Status)
	return nil
}

func (g *fakeGateway) Delete(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDelete != nil {
		return g.failDelete
	}
	if _, ok := g.jobs[id]; !ok {
		return utils.NewNotFoundError("jobs.delete")
	}
	delete(g.jobs, id)
	return nil
}

func (g *fakeGateway) AddAttachments(ctx context.Context, id string, attachments []*models.JobAttachment) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	job, ok := g.jobs[id]
	if !ok {
		return utils.NewNotFoundError("jobs.addAttachments")
	}
	job.Attachments = append(job.Attachments, attachments...)
	g.added = append(g.added, attachments...)
	return nil
}

func (g *fakeGateway) order(id string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.jobs[id].BoardOrder
}

type fakeNotifier struct {
	err   error
	calls int
	email string
}

func (n *fakeNotifier) NotifyCompleted(ctx context.Context, job *models.Job, recipientEmail string, notes string) error {
	n.calls++
	n.email = recipientEmail
	return n.err
}

type fakeReleaser struct {
	released []string
}

func (r *fakeReleaser) Release(ctx context.Context, urls []string) error {
	r.released = append(r.released, urls...)
	return nil
}

func boardJob(id string, column models.JobColumn, order int) *models.Job {
	return &models.Job{
		ID:            id,
		Title:         "Job " + id,
		BoardColumn:   column,
		BoardOrder:    order,
		Status:        models.JobStatusNew,
		PaymentStatus: models.PaymentStatusNone,
		CreatedAt:     time.Now(),
	}
}

// newTestWorkflow wires a workflow against the fake gateway and an in-memory
// cache seeded with the gateway's jobs.
func newTestWorkflow(gw *fakeGateway) (*Workflow, *jobcache.Store) {
	cache := jobcache.NewStore(jobcache.NewMemoryKV())
	ctx := context.Background()
	jobs, _, _ := gw.FetchAll(ctx, models.JobFilter{})
	for _, job := range jobs {
		if err := cache.Put(ctx, job); err != nil {
			panic(err)
		}
	}
	wf := New(gw, cache, nil, nil, config.GetLogger())
	return wf, cache
}

func transientErr(op string) error {
	return utils.NewTransientError(op, errors.New("connection reset"))
}
