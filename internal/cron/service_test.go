package cron

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunCycleRunsEveryJobEvenOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "cron-test", Output: &buf})
	ok := &testJob{name: "ok"}
	failing := &testJob{name: "failing", err: errors.New("boom")}
	lock := &fakeLock{}
	reg := prometheus.NewRegistry()

	registry, err := NewRegistry(failing, ok)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobs(reg),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected both jobs to run once, got ok=%d failing=%d", ok.runs, failing.runs)
	}
	if lock.held || lock.releases != 1 {
		t.Fatalf("expected lock released once")
	}
	if !strings.Contains(buf.String(), `"job":"failing"`) {
		t.Fatalf("expected failing job in logs: %s", buf.String())
	}

	expected := `
# HELP maintenance_job_runs_total Maintenance job runs by job name and outcome.
# TYPE maintenance_job_runs_total counter
maintenance_job_runs_total{job="failing",outcome="error"} 1
maintenance_job_runs_total{job="ok",outcome="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "maintenance_job_runs_total"); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "ok"}
	registry, err := NewRegistry(job)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: registry,
		Lock:     &fakeLock{held: true},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped, ran %d times", job.runs)
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected lock error")
	}
}
