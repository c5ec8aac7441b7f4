package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	internalErrors "github.com/gcbaptista/go-facet-browser/internal/errors"
	"github.com/gcbaptista/go-facet-browser/model"
)

func waitJob(t *testing.T, manager *Manager, jobID string) *model.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	job, err := manager.Wait(ctx, jobID)
	if err != nil {
		t.Fatalf("Wait(%s) error = %v", jobID, err)
	}
	return job
}

func TestJobManager_CreateJob(t *testing.T) {
	manager := NewManager(2)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeIndexDataset, 3, map[string]string{
		"source": "data.json",
	})

	if jobID == "" {
		t.Error("Expected non-empty job ID")
	}

	job, err := manager.GetJob(jobID)
	if err != nil {
		t.Fatalf("Failed to get created job: %v", err)
	}

	if job.Type != model.JobTypeIndexDataset {
		t.Errorf("Expected job type %s, got %s", model.JobTypeIndexDataset, job.Type)
	}
	if job.Status != model.JobStatusPending {
		t.Errorf("Expected job status %s, got %s", model.JobStatusPending, job.Status)
	}
	if job.Generation != 3 {
		t.Errorf("Expected generation 3, got %d", job.Generation)
	}
	if job.Metadata["source"] != "data.json" {
		t.Errorf("Expected metadata source 'data.json', got %q", job.Metadata["source"])
	}
}

func TestJobManager_GetJobNotFound(t *testing.T) {
	manager := NewManager(1)
	defer manager.Stop()

	_, err := manager.GetJob("missing")
	if !errors.Is(err, internalErrors.ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestJobManager_ExecuteJob(t *testing.T) {
	manager := NewManager(2)
	manager.Start()
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeIndexDataset, 1, nil)

	err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		if job.Status != model.JobStatusRunning {
			t.Errorf("Expected running job inside job func, got %s", job.Status)
		}
		manager.UpdateJobProgress(jobID, 50, 100, "Halfway done")
		manager.UpdateJobProgress(jobID, 100, 100, "Completed")
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to execute job: %v", err)
	}

	job := waitJob(t, manager, jobID)
	if job.Status != model.JobStatusCompleted {
		t.Errorf("Expected job status %s, got %s", model.JobStatusCompleted, job.Status)
	}
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Error("Expected StartedAt and CompletedAt to be set")
	}
	if job.Progress == nil {
		t.Fatal("Expected job progress to be set")
	}
	if job.Progress.Current != 100 || job.Progress.Total != 100 {
		t.Errorf("Expected progress 100/100, got %d/%d", job.Progress.Current, job.Progress.Total)
	}

	if err := manager.ExecuteJob(jobID, func(context.Context, *model.Job) error { return nil }); err == nil {
		t.Error("Expected error when executing a finished job again")
	}
}

func TestJobManager_FailedJob(t *testing.T) {
	manager := NewManager(1)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeFetchDataset, 1, nil)
	if err := manager.ExecuteJob(jobID, func(context.Context, *model.Job) error {
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("Failed to execute job: %v", err)
	}

	job := waitJob(t, manager, jobID)
	if job.Status != model.JobStatusFailed {
		t.Errorf("Expected job status %s, got %s", model.JobStatusFailed, job.Status)
	}
	if job.Error != "boom" {
		t.Errorf("Expected error 'boom', got %q", job.Error)
	}

	metrics := manager.GetMetrics()
	if metrics.JobsFailed != 1 || metrics.SuccessRate != 0 {
		t.Errorf("Expected 1 failed job and success rate 0, got %d and %v", metrics.JobsFailed, metrics.SuccessRate)
	}
}

func TestJobManager_CancelRunningJob(t *testing.T) {
	manager := NewManager(1)
	defer manager.Stop()

	started := make(chan struct{})
	jobID := manager.CreateJob(model.JobTypeIndexDataset, 1, nil)
	if err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}); err != nil {
		t.Fatalf("Failed to execute job: %v", err)
	}

	<-started
	if err := manager.CancelJob(jobID); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}

	job := waitJob(t, manager, jobID)
	if job.Status != model.JobStatusCancelled {
		t.Errorf("Expected job status %s, got %s", model.JobStatusCancelled, job.Status)
	}
	if err := manager.CancelJob(jobID); err == nil {
		t.Error("Expected error when cancelling a finished job")
	}
	if got := manager.GetMetrics().JobsCancelled; got != 1 {
		t.Errorf("Expected 1 cancelled job, got %d", got)
	}
}

func TestJobManager_CancelWaitingJob(t *testing.T) {
	manager := NewManager(1)
	defer manager.Stop()

	started := make(chan struct{})
	release := make(chan struct{})
	blocker := manager.CreateJob(model.JobTypeIndexDataset, 1, nil)
	if err := manager.ExecuteJob(blocker, func(ctx context.Context, job *model.Job) error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatalf("Failed to execute blocker: %v", err)
	}
	<-started

	var ran atomic.Bool
	waiting := manager.CreateJob(model.JobTypeIndexDataset, 2, nil)
	if err := manager.ExecuteJob(waiting, func(ctx context.Context, job *model.Job) error {
		ran.Store(true)
		return nil
	}); err != nil {
		t.Fatalf("Failed to execute waiting job: %v", err)
	}

	if err := manager.CancelJob(waiting); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}
	job := waitJob(t, manager, waiting)
	if job.Status != model.JobStatusCancelled {
		t.Errorf("Expected waiting job to be cancelled, got %s", job.Status)
	}

	close(release)
	if job := waitJob(t, manager, blocker); job.Status != model.JobStatusCompleted {
		t.Errorf("Expected blocker to complete, got %s", job.Status)
	}
	if ran.Load() {
		t.Error("Cancelled job function should not run")
	}
}

func TestJobManager_CancelUnscheduledJob(t *testing.T) {
	manager := NewManager(1)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeIndexDataset, 1, nil)
	if err := manager.CancelJob(jobID); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}
	job := waitJob(t, manager, jobID)
	if job.Status != model.JobStatusCancelled {
		t.Errorf("Expected job status %s, got %s", model.JobStatusCancelled, job.Status)
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	manager := NewManager(1)
	defer manager.Stop()

	first := manager.CreateJob(model.JobTypeIndexDataset, 1, nil)
	time.Sleep(time.Millisecond)
	manager.CreateJob(model.JobTypeFetchDataset, 1, nil)
	time.Sleep(time.Millisecond)
	third := manager.CreateJob(model.JobTypeIndexDataset, 2, nil)

	if err := manager.CancelJob(first); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}

	all := manager.ListJobs(model.JobTypeIndexDataset, nil)
	if len(all) != 2 || all[0].ID != first || all[1].ID != third {
		t.Fatalf("Expected index jobs [%s %s], got %d jobs", first, third, len(all))
	}

	pending := model.JobStatusPending
	onlyPending := manager.ListJobs(model.JobTypeIndexDataset, &pending)
	if len(onlyPending) != 1 || onlyPending[0].ID != third {
		t.Errorf("Expected only %s pending, got %d jobs", third, len(onlyPending))
	}

	if got := len(manager.ListJobs("", nil)); got != 3 {
		t.Errorf("Expected 3 jobs of any type, got %d", got)
	}
}

func TestJobManager_StopCancelsRunningJobs(t *testing.T) {
	manager := NewManager(1)

	started := make(chan struct{})
	jobID := manager.CreateJob(model.JobTypeIndexDataset, 1, nil)
	if err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}); err != nil {
		t.Fatalf("Failed to execute job: %v", err)
	}

	<-started
	manager.Stop()

	job, err := manager.GetJob(jobID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if job.Status != model.JobStatusCancelled {
		t.Errorf("Expected job status %s after Stop, got %s", model.JobStatusCancelled, job.Status)
	}

	late := manager.CreateJob(model.JobTypeIndexDataset, 2, nil)
	if err := manager.ExecuteJob(late, func(context.Context, *model.Job) error { return nil }); err == nil {
		t.Error("Expected error when executing after Stop")
	}
}

func TestJobManager_CleanupOldJobs(t *testing.T) {
	manager := NewManager(1)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeIndexDataset, 1, nil)
	if err := manager.CancelJob(jobID); err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}
	pendingID := manager.CreateJob(model.JobTypeIndexDataset, 2, nil)

	manager.CleanupOldJobs(-time.Second)

	if _, err := manager.GetJob(jobID); err == nil {
		t.Error("Expected finished job to be cleaned up")
	}
	if _, err := manager.GetJob(pendingID); err != nil {
		t.Errorf("Expected pending job to survive cleanup, got %v", err)
	}
}
