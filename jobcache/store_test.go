package jobcache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/montazreklam/jobs_backend/models"
)

// NOTE: These tests run against the in-memory KV; Redis-specific behavior
// (TTL, cross-instance locks) needs a real instance and is not covered here.

func testJob(id string, createdAt time.Time) *models.Job {
	return &models.Job{
		ID:            id,
		FriendlyId:    "001/2026",
		Title:         "Szyld - " + id,
		BoardColumn:   models.JobColumnPrepare,
		Status:        models.JobStatusNew,
		PaymentStatus: models.PaymentStatusNone,
		CreatedAt:     createdAt,
	}
}

func TestStorePutGetRemove(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV())

	job := testJob("a", time.Now())
	if err := store.Put(ctx, job); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.ID != "a" || got.Title != job.Title {
		t.Fatalf("Get returned %+v", got)
	}

	if err := store.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, err = store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get after Remove: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil after Remove")
	}
}

func TestStoreGetZeroPaymentStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV())

	// Records written before the payment enum was closed carry an empty
	// status; they must stay readable.
	job := testJob("a", time.Now())
	job.PaymentStatus = ""
	if err := store.Put(ctx, job); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.PaymentStatus != models.PaymentStatusNone {
		t.Fatalf("Get returned %+v, want payment status None", got)
	}
}

func TestStoreGetMissingIsNotError(t *testing.T) {
	store := NewStore(NewMemoryKV())
	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing id")
	}
}

func TestStorePutRequiresId(t *testing.T) {
	store := NewStore(NewMemoryKV())
	if err := store.Put(context.Background(), &models.Job{}); err == nil {
		t.Fatal("expected error for job without id")
	}
}

func TestStoreLoadNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV())

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := store.Put(ctx, testJob(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	jobs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "new" || jobs[1].ID != "mid" || jobs[2].ID != "old" {
		t.Fatalf("wrong order: %s, %s, %s", jobs[0].ID, jobs[1].ID, jobs[2].ID)
	}
}

func TestStoreReplaceAllDropsStaleEntries(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV())

	if err := store.Put(ctx, testJob("stale", time.Now())); err != nil {
		t.Fatalf("Put: %v", err)
	}
	fresh := []*models.Job{testJob("x", time.Now()), testJob("y", time.Now())}
	if err := store.ReplaceAll(ctx, fresh); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if got, _ := store.Get(ctx, "stale"); got != nil {
		t.Fatal("stale entry survived ReplaceAll")
	}
	jobs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestCompressAttachmentDataKeepsNonImageBytes(t *testing.T) {
	payload := []byte("not an image at all")
	if got := compressAttachmentData(payload); string(got) != string(payload) {
		t.Fatal("non-image payload must pass through unchanged")
	}
}

func TestMigrateLegacyStore(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewStore(kv)

	legacy := []*models.Job{
		testJob("a", time.Now()),
		testJob("b", time.Now()),
		testJob("c", time.Now()),
	}
	blob, err := json.Marshal(legacy)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(ctx, "Jobs", blob); err != nil {
		t.Fatal(err)
	}

	migrated, err := store.MigrateLegacyStore(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyStore: %v", err)
	}
	if migrated != 3 {
		t.Fatalf("expected 3 migrated, got %d", migrated)
	}
	if _, ok, _ := kv.Get(ctx, "Jobs"); ok {
		t.Fatal("legacy key must be deleted after migration")
	}
	jobs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs after migration, got %d", len(jobs))
	}

	// Second run is a no-op.
	migrated, err = store.MigrateLegacyStore(ctx)
	if err != nil {
		t.Fatalf("second MigrateLegacyStore: %v", err)
	}
	if migrated != 0 {
		t.Fatalf("expected 0 on rerun, got %d", migrated)
	}
}
