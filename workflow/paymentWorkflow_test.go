package workflow

import (
	"context"
	"testing"

	"github.com/montazreklam/jobs_backend/models"
	"github.com/shopspring/decimal"
)

func paidJob(id string) *models.Job {
	job := boardJob(id, models.JobColumnCompleted, 0)
	job.Status = models.JobStatusCompleted
	job.PaymentStatus = models.PaymentStatusPaid
	job.Invoices = []*models.InvoiceSummary{
		{
			DocType:       models.InvoiceDocTypeInvoice,
			PaymentStatus: models.InvoiceDocStatusPaid,
			PaidAmount:    decimal.NewFromInt(500),
		},
	}
	return job
}

func TestChangePaymentStatusDeclinedLeavesEverythingAlone(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(paidJob("x"))
	wf, cache := newTestWorkflow(gw)

	applied, err := wf.ChangePaymentStatus(ctx, "x", models.PaymentStatusCash, models.OriginManual,
		func(string) bool { return false })
	if err != nil {
		t.Fatalf("decline is a cancellation, not an error: %v", err)
	}
	if applied {
		t.Fatal("declined change must not apply")
	}

	fresh, _ := gw.FetchOne(ctx, "x")
	if fresh.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("gateway status mutated to %s", fresh.PaymentStatus)
	}
	cached, _ := cache.Get(ctx, "x")
	if cached.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("cache status mutated to %s", cached.PaymentStatus)
	}
}

func TestChangePaymentStatusConfirmedApplies(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(paidJob("x"))
	wf, cache := newTestWorkflow(gw)

	applied, err := wf.ChangePaymentStatus(ctx, "x", models.PaymentStatusCash, models.OriginManual,
		func(string) bool { return true })
	if err != nil {
		t.Fatalf("ChangePaymentStatus: %v", err)
	}
	if !applied {
		t.Fatal("confirmed change must apply")
	}

	fresh, _ := gw.FetchOne(ctx, "x")
	if fresh.PaymentStatus != models.PaymentStatusCash {
		t.Fatalf("gateway status = %s, want Cash", fresh.PaymentStatus)
	}
	cached, _ := cache.Get(ctx, "x")
	if cached.PaymentStatus != models.PaymentStatusCash {
		t.Fatalf("cache status = %s, want Cash", cached.PaymentStatus)
	}
}

func TestApplySyncedPaymentStatusBypassesGuard(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(paidJob("x"))
	wf, _ := newTestWorkflow(gw)

	if err := wf.ApplySyncedPaymentStatus(ctx, "x", models.PaymentStatusOverdue); err != nil {
		t.Fatalf("ApplySyncedPaymentStatus: %v", err)
	}
	fresh, _ := gw.FetchOne(ctx, "x")
	if fresh.PaymentStatus != models.PaymentStatusOverdue {
		t.Fatalf("gateway status = %s, want Overdue", fresh.PaymentStatus)
	}
}

func TestChangePaymentStatusSameValueIsNoop(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(paidJob("x"))
	wf, _ := newTestWorkflow(gw)

	applied, err := wf.ChangePaymentStatus(ctx, "x", models.PaymentStatusPaid, models.OriginManual,
		func(string) bool { t.Fatal("no confirmation for a no-op"); return false })
	if err != nil || !applied {
		t.Fatalf("applied=%v err=%v", applied, err)
	}
	if gw.updatedFields != nil {
		t.Fatal("no-op must not write to the gateway")
	}
}

func TestChangePaymentStatusRollsBackOnTransientFailure(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(paidJob("x"))
	gw.failUpdate = transientErr("jobs.update")
	wf, cache := newTestWorkflow(gw)

	applied, err := wf.ChangePaymentStatus(ctx, "x", models.PaymentStatusCash, models.OriginManual,
		func(string) bool { return true })
	if err == nil || applied {
		t.Fatalf("expected failure, got applied=%v err=%v", applied, err)
	}

	cached, _ := cache.Get(ctx, "x")
	if cached.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("cache not rolled back: %s", cached.PaymentStatus)
	}
}

func TestRunStepsStopsOnRequiredFailure(t *testing.T) {
	gw := newFakeGateway()
	wf, _ := newTestWorkflow(gw)

	var ran []string
	report := wf.runSteps(context.Background(), "test", []step{
		{name: "first", run: func(context.Context) error { ran = append(ran, "first"); return nil }},
		{name: "second", run: func(context.Context) error { return transientErr("second") }},
		{name: "third", run: func(context.Context) error { ran = append(ran, "third"); return nil }},
	})

	if len(ran) != 1 || ran[0] != "first" {
		t.Fatalf("ran = %v", ran)
	}
	if report.FirstError() == nil {
		t.Fatal("FirstError must surface the required failure")
	}
}

func TestRunStepsContinuesPastOptionalFailure(t *testing.T) {
	gw := newFakeGateway()
	wf, _ := newTestWorkflow(gw)

	var ran []string
	report := wf.runSteps(context.Background(), "test", []step{
		{name: "first", optional: true, run: func(context.Context) error { return transientErr("first") }},
		{name: "second", run: func(context.Context) error { ran = append(ran, "second"); return nil }},
	})

	if len(ran) != 1 {
		t.Fatalf("optional failure must not stop the run: %v", ran)
	}
	if len(report.Steps) != 2 {
		t.Fatalf("report has %d steps, want 2", len(report.Steps))
	}
}
