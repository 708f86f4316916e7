package inmemory

import (
	"context"
	"testing"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/jobs"
)

func TestStoreSaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ExtractVoucherJob{JobID: "j1", GCSURI: "gs://vouchers/a.pdf", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	got, err := store.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.GCSURI != job.GCSURI || got.Status != jobs.JobStatusPending {
		t.Errorf("got %+v", got)
	}

	// Stored copy must be isolated from later mutations.
	job.Status = jobs.JobStatusFailed
	got, _ = store.GetJob(ctx, "j1")
	if got.Status != jobs.JobStatusPending {
		t.Error("store leaked a reference to the caller's job")
	}
}

func TestStoreSaveRequiresID(t *testing.T) {
	store := NewStore()
	if err := store.SaveJob(context.Background(), &jobs.ExtractVoucherJob{}); err == nil {
		t.Error("SaveJob without ID should fail")
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore()
	if _, err := store.GetJob(context.Background(), "nope"); err == nil {
		t.Error("GetJob for missing ID should fail")
	}
}

func TestStoreListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.ExtractVoucherJob{
		{JobID: "a", GCSURI: "gs://v/1.pdf", Status: jobs.JobStatusPending},
		{JobID: "b", GCSURI: "gs://v/1.pdf", Status: jobs.JobStatusCompleted},
		{JobID: "c", GCSURI: "gs://v/2.pdf", Status: jobs.JobStatusCompleted},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%s): %v", j.JobID, err)
		}
	}

	byURI, err := store.ListJobs(ctx, jobs.JobFilter{GCSURI: "gs://v/1.pdf"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byURI) != 2 {
		t.Errorf("by URI: got %d jobs, want 2", len(byURI))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byStatus) != 2 {
		t.Errorf("by status: got %d jobs, want 2", len(byStatus))
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited: got %d jobs, want 1", len(limited))
	}

	past, err := store.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(past) != 0 {
		t.Errorf("offset past end: got %d jobs, want 0", len(past))
	}
}

func TestStoreUpdateJobStatus(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.SaveJob(ctx, &jobs.ExtractVoucherJob{JobID: "j1", Status: jobs.JobStatusRunning}); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}
	if err := store.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus: %v", err)
	}

	got, _ := store.GetJob(ctx, "j1")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("got %+v", got)
	}

	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("update for missing ID should fail")
	}
}
