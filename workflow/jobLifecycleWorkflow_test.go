package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
)

func TestCreatePlacesJobAtEndOfPrepare(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(
		boardJob("p1", models.JobColumnPrepare, 0),
		boardJob("p2", models.JobColumnPrepare, 1),
	)
	wf, cache := newTestWorkflow(gw)

	job, err := wf.Create(ctx, &models.NewJob{Title: "Kaseton LED"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.BoardColumn != models.JobColumnPrepare || job.BoardOrder != 2 {
		t.Fatalf("placed at %s/%d, want Prepare/2", job.BoardColumn, job.BoardOrder)
	}
	if job.Status != models.JobStatusNew {
		t.Fatalf("status = %s, want New", job.Status)
	}
	cached, err := cache.Get(ctx, job.ID)
	if err != nil || cached == nil {
		t.Fatalf("new job not cached: %v %v", cached, err)
	}
}

func TestCreateBlankTitleGetsPlaceholder(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	wf, _ := newTestWorkflow(gw)

	job, err := wf.Create(ctx, &models.NewJob{Title: "   "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Title != placeholderTitle {
		t.Fatalf("title = %q, want %q", job.Title, placeholderTitle)
	}
}

func TestCompleteWithoutEvidenceRejected(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(boardJob("x", models.JobColumnFriday, 0))
	wf, _ := newTestWorkflow(gw)

	_, err := wf.Complete(ctx, "x", CompletionEvidence{Notes: "done"})
	if err == nil || !utils.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCompleteAdminBypassesEvidenceRequirement(t *testing.T) {
	ctx := utils.SetIsAdminInContext(context.Background(), true)
	gw := newFakeGateway(boardJob("x", models.JobColumnFriday, 0))
	wf, _ := newTestWorkflow(gw)

	report, err := wf.Complete(ctx, "x", CompletionEvidence{Notes: "done"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := report.FirstError(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	fresh, _ := gw.FetchOne(ctx, "x")
	if fresh.Status != models.JobStatusCompleted {
		t.Fatalf("status = %s, want Completed", fresh.Status)
	}
}

func TestCompleteStoresEvidenceAndNotifies(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(boardJob("x", models.JobColumnFriday, 0))
	wf, _ := newTestWorkflow(gw)
	notifier := &fakeNotifier{}
	wf.notifier = notifier

	evidence := CompletionEvidence{
		Images: []*models.JobAttachment{
			{FileName: "front.jpg", Url: "https://storage/front.jpg"},
		},
		Notes:       "mounted and wired",
		NotifyEmail: "klient@example.com",
	}
	report, err := wf.Complete(ctx, "x", evidence)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := report.FirstError(); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	if len(gw.added) != 1 || gw.added[0].Kind != models.AttachmentKindEvidence {
		t.Fatalf("evidence not persisted: %+v", gw.added)
	}
	if notifier.calls != 1 || notifier.email != "klient@example.com" {
		t.Fatalf("notifier calls=%d email=%q", notifier.calls, notifier.email)
	}
	fresh, _ := gw.FetchOne(ctx, "x")
	if fresh.CompletionNotes != "mounted and wired" {
		t.Fatalf("notes = %q", fresh.CompletionNotes)
	}
	if fresh.CompletedAt == nil {
		t.Fatal("CompletedAt not set")
	}
}

func TestCompleteNotifyFailureKeepsCompletion(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(boardJob("x", models.JobColumnFriday, 0))
	wf, _ := newTestWorkflow(gw)
	wf.notifier = &fakeNotifier{err: errors.New("smtp down")}

	evidence := CompletionEvidence{
		Images:      []*models.JobAttachment{{Url: "https://storage/a.jpg"}},
		NotifyEmail: "klient@example.com",
	}
	report, err := wf.Complete(ctx, "x", evidence)
	if err == nil {
		t.Fatal("expected the notify failure to surface")
	}
	if report == nil {
		t.Fatal("report must accompany a partial failure")
	}

	var persistOk, notifyOk bool
	for _, s := range report.Steps {
		switch s.Name {
		case "persist":
			persistOk = s.Ok
		case "notify":
			notifyOk = s.Ok
		}
	}
	if !persistOk || notifyOk {
		t.Fatalf("persist ok=%v notify ok=%v", persistOk, notifyOk)
	}

	fresh, _ := gw.FetchOne(ctx, "x")
	if fresh.Status != models.JobStatusCompleted {
		t.Fatal("completion must survive a failed notification")
	}
}

func TestArchiveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(boardJob("x", models.JobColumnCompleted, 0))
	wf, _ := newTestWorkflow(gw)

	first, err := wf.Archive(ctx, "x")
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if first.Status != models.JobStatusArchived || first.BoardColumn != models.JobColumnArchive {
		t.Fatalf("archived as %s/%s", first.Status, first.BoardColumn)
	}

	again, err := wf.Archive(ctx, "x")
	if err != nil {
		t.Fatalf("second Archive: %v", err)
	}
	if again.Status != models.JobStatusArchived {
		t.Fatalf("second archive changed status to %s", again.Status)
	}
}

func TestDeleteReleasesAttachments(t *testing.T) {
	ctx := context.Background()
	job := boardJob("x", models.JobColumnMonday, 0)
	job.Attachments = []*models.JobAttachment{
		{Url: "https://storage/a.jpg", ThumbnailUrl: "https://storage/thumbnails/a.jpg"},
		// shares the thumbnail object, must not be released twice
		{Url: "https://storage/b.jpg", ThumbnailUrl: "https://storage/thumbnails/a.jpg"},
	}
	gw := newFakeGateway(job)
	wf, cache := newTestWorkflow(gw)
	releaser := &fakeReleaser{}
	wf.releaser = releaser

	if err := wf.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cached, _ := cache.Get(ctx, "x"); cached != nil {
		t.Fatal("job still cached after delete")
	}
	if len(releaser.released) != 3 {
		t.Fatalf("released %d urls, want 3", len(releaser.released))
	}
}

func TestDuplicateResetsCompletionState(t *testing.T) {
	ctx := context.Background()
	src := boardJob("x", models.JobColumnCompleted, 0)
	src.Status = models.JobStatusCompleted
	ts := time.Now()
	src.CompletedAt = &ts
	src.Checklist = []*models.ChecklistItem{{Text: "zamontowac", Done: true}}
	src.Attachments = []*models.JobAttachment{
		{Kind: models.AttachmentKindFile, Url: "https://storage/projekt.pdf"},
		{Kind: models.AttachmentKindEvidence, Url: "https://storage/proof.jpg"},
	}
	gw := newFakeGateway(src)
	wf, _ := newTestWorkflow(gw)

	dup, err := wf.Duplicate(ctx, "x")
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if dup.ID == src.ID {
		t.Fatal("duplicate must get a fresh id")
	}
	if dup.Status != models.JobStatusNew || dup.BoardColumn != models.JobColumnPrepare {
		t.Fatalf("duplicate placed as %s/%s", dup.Status, dup.BoardColumn)
	}
	if dup.CompletedAt != nil {
		t.Fatal("completion timestamp must not travel")
	}
	if len(dup.Checklist) != 1 || dup.Checklist[0].Done {
		t.Fatalf("checklist must reset to unchecked: %+v", dup.Checklist)
	}
	if len(dup.Attachments) != 1 || dup.Attachments[0].Kind != models.AttachmentKindFile {
		t.Fatalf("evidence must not travel: %+v", dup.Attachments)
	}
}
