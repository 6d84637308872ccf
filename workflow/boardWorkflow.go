package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/montazreklam/jobs_backend/workflow")

// MoveUp swaps the job with its upper neighbor in the same column. Already
// first is a no-op. The swap is applied to the cache first, then written
// through as two concurrent position updates; any write failure rolls the
// cache back via a full reload.
func (w *Workflow) MoveUp(ctx context.Context, jobId string) error {
	return w.moveAdjacent(ctx, jobId, -1, "board.moveUp")
}

// MoveDown is the mirror of MoveUp. Already last is a no-op.
func (w *Workflow) MoveDown(ctx context.Context, jobId string) error {
	return w.moveAdjacent(ctx, jobId, +1, "board.moveDown")
}

func (w *Workflow) moveAdjacent(ctx context.Context, jobId string, direction int, spanName string) error {
	ctx, span := tracer.Start(ctx, spanName,
		trace.WithAttributes(attribute.String("job.id", jobId)))
	defer span.End()

	column, err := w.columnJobs(ctx, jobId)
	if err != nil {
		return err
	}

	idx := -1
	for i, job := range column {
		if job.ID == jobId {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	neighborIdx := idx + direction
	if neighborIdx < 0 || neighborIdx >= len(column) {
		// already at the edge
		return nil
	}

	job, neighbor := column[idx], column[neighborIdx]
	job.BoardOrder, neighbor.BoardOrder = neighbor.BoardOrder, job.BoardOrder
	job.UpdatedAt = time.Now()
	neighbor.UpdatedAt = job.UpdatedAt

	if err := w.cache.Put(ctx, job); err != nil {
		return err
	}
	if err := w.cache.Put(ctx, neighbor); err != nil {
		// The first half already landed locally; restore the authoritative
		// view so no two jobs share an order.
		span.RecordError(err)
		return w.rollback(ctx, spanName, err)
	}

	// Both halves of the swap go out together. The surviving remote state
	// after a partial failure is unknown, so recovery is always a fresh read,
	// never a compensating write.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, moved := range []*models.Job{job, neighbor} {
		wg.Add(1)
		go func(i int, moved *models.Job) {
			defer wg.Done()
			errs[i] = w.gateway.UpdatePosition(ctx, moved.ID, moved.BoardColumn, moved.BoardOrder)
		}(i, moved)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			span.RecordError(err)
			return w.rollback(ctx, spanName, err)
		}
	}
	return nil
}

// MoveToColumn appends the job to the end of the target column and derives
// the lifecycle status for the new placement.
func (w *Workflow) MoveToColumn(ctx context.Context, jobId string, target models.JobColumn) error {
	ctx, span := tracer.Start(ctx, "board.moveToColumn",
		trace.WithAttributes(
			attribute.String("job.id", jobId),
			attribute.String("board.target", string(target)),
		))
	defer span.End()

	job, err := w.cachedOrRemote(ctx, jobId)
	if err != nil {
		return err
	}

	order, err := w.appendOrder(ctx, target, jobId)
	if err != nil {
		return err
	}

	job.BoardColumn = target
	job.BoardOrder = order
	job.Status = models.DeriveStatusForColumn(target, job.Status)
	switch {
	case (job.Status == models.JobStatusCompleted || job.Status == models.JobStatusArchived) && job.CompletedAt == nil:
		now := time.Now()
		job.CompletedAt = &now
	case job.Status != models.JobStatusCompleted && job.Status != models.JobStatusArchived:
		job.CompletedAt = nil
	}
	job.UpdatedAt = time.Now()

	if err := w.cache.Put(ctx, job); err != nil {
		return err
	}
	if err := w.gateway.UpdatePosition(ctx, jobId, target, order); err != nil {
		span.RecordError(err)
		return w.rollback(ctx, "board.moveToColumn", err)
	}
	return nil
}

// columnJobs returns the jobs sharing the given job's column, sorted by order
// ascending. Equal orders keep cache iteration order; archived jobs never
// take part in position computations.
func (w *Workflow) columnJobs(ctx context.Context, jobId string) ([]*models.Job, error) {
	job, err := w.cachedOrRemote(ctx, jobId)
	if err != nil {
		return nil, err
	}

	all, err := w.cache.Load(ctx)
	if err != nil {
		return nil, err
	}

	var column []*models.Job
	for _, candidate := range all {
		if candidate.Status == models.JobStatusArchived {
			continue
		}
		if candidate.BoardColumn == job.BoardColumn {
			column = append(column, candidate)
		}
	}
	sort.SliceStable(column, func(i, j int) bool {
		return column[i].BoardOrder < column[j].BoardOrder
	})
	return column, nil
}

// appendOrder counts the non-archived jobs already in the target column,
// excluding the moving job itself.
func (w *Workflow) appendOrder(ctx context.Context, target models.JobColumn, excludeId string) (int, error) {
	all, err := w.cache.Load(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, job := range all {
		if job.ID == excludeId || job.Status == models.JobStatusArchived {
			continue
		}
		if job.BoardColumn == target {
			count++
		}
	}
	return count, nil
}

func (w *Workflow) cachedOrRemote(ctx context.Context, jobId string) (*models.Job, error) {
	job, err := w.cache.Get(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if job != nil {
		return job, nil
	}
	return w.gateway.FetchOne(ctx, jobId)
}

// rollback discards every optimistic cache entry by repopulating the cache
// from the authoritative store, then hands the original failure back to the
// caller.
func (w *Workflow) rollback(ctx context.Context, op string, cause error) error {
	jobs, _, err := w.gateway.FetchAll(ctx, models.JobFilter{})
	if err != nil {
		config.LogError(w.logger, "workflow", op, "rollback reload failed", nil, err)
		return cause
	}
	if err := w.cache.ReplaceAll(ctx, jobs); err != nil {
		config.LogError(w.logger, "workflow", op, "rollback cache replace failed", nil, err)
	}
	return cause
}
