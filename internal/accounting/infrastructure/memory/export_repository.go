package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	accounting "oliver-admin/internal/accounting/domain"
)

// ExportRepository is an in-memory export job store for demo/testing.
type ExportRepository struct {
	mu    sync.RWMutex
	jobs  map[string]*accounting.ExportJob
	users map[string]accounting.Initiator
}

// NewExportRepository constructs a repository.
func NewExportRepository() *ExportRepository {
	return &ExportRepository{
		jobs:  make(map[string]*accounting.ExportJob),
		users: make(map[string]accounting.Initiator),
	}
}

// AddUser registers display details for an initiator.
func (r *ExportRepository) AddUser(user accounting.Initiator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

// Create stores a new job.
func (r *ExportRepository) Create(_ context.Context, job *accounting.ExportJob) error {
	if job == nil {
		return accounting.ErrNilJob
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = clone(job)
	return nil
}

// Save overwrites an existing job.
func (r *ExportRepository) Save(_ context.Context, job *accounting.ExportJob) error {
	if job == nil {
		return accounting.ErrNilJob
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.jobs[job.ID]
	if !ok {
		return accounting.ErrExportNotFound
	}
	if existing.Status.Terminal() {
		return accounting.ErrInvalidTransition
	}
	r.jobs[job.ID] = clone(job)
	return nil
}

// Get returns a copy of the job or nil.
func (r *ExportRepository) Get(_ context.Context, id string) (*accounting.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	return r.withInitiator(job), nil
}

// ListActive returns listed jobs after cursor, newest first.
func (r *ExportRepository) ListActive(_ context.Context, now time.Time, cursor string, limit int) ([]*accounting.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var anchor *accounting.ExportJob
	if cursor != "" {
		var ok bool
		if anchor, ok = r.jobs[cursor]; !ok {
			return nil, nil
		}
	}

	var listed []*accounting.ExportJob
	for _, job := range r.jobs {
		if !job.Listed(now) {
			continue
		}
		if anchor != nil && !olderThan(job, anchor) {
			continue
		}
		listed = append(listed, job)
	}
	sort.Slice(listed, func(i, j int) bool { return olderThan(listed[j], listed[i]) })
	if limit > 0 && len(listed) > limit {
		listed = listed[:limit]
	}
	out := make([]*accounting.ExportJob, len(listed))
	for i, job := range listed {
		out[i] = r.withInitiator(job)
	}
	return out, nil
}

// olderThan orders jobs by created_at then id, both descending.
func olderThan(a, b *accounting.ExportJob) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (r *ExportRepository) withInitiator(job *accounting.ExportJob) *accounting.ExportJob {
	out := clone(job)
	if user, ok := r.users[job.InitiatedByID]; ok {
		out.InitiatedBy = &user
	} else {
		out.InitiatedBy = &accounting.Initiator{ID: job.InitiatedByID}
	}
	return out
}

func clone(job *accounting.ExportJob) *accounting.ExportJob {
	out := *job
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		out.CompletedAt = &t
	}
	if job.ExpiresAt != nil {
		t := *job.ExpiresAt
		out.ExpiresAt = &t
	}
	out.InitiatedBy = nil
	return &out
}
