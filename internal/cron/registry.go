package cron

import (
	"context"
	"fmt"
)

// Job is one maintenance task run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in registration order with unique names.
type Registry struct {
	order  []string
	byName map[string]Job
}

// NewRegistry registers every non-nil job. Constructors return a nil Job when the
// job is disabled by config, so those can be passed through unchecked.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{byName: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("job %q registered twice", name)
	}
	if r.byName == nil {
		r.byName = make(map[string]Job)
	}
	r.byName[name] = job
	r.order = append(r.order, name)
	return nil
}

// Jobs returns a fresh slice in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.byName[name])
	}
	return jobs
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
