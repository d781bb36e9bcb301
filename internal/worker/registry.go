package worker

import (
	"sort"
	"sync"
	"time"

	"videothingy/models"
)

// DefaultRetention is how long finished jobs stay queryable.
const DefaultRetention = time.Hour

// Registry keeps the status of jobs submitted to this process.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*models.ProcessingJob
	retention time.Duration
	now       func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs:      make(map[string]*models.ProcessingJob),
		retention: DefaultRetention,
		now:       time.Now,
	}
}

// Add records a job as pending and drops finished jobs past retention.
func (r *Registry) Add(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	for id, j := range r.jobs {
		if j.CompletedAt != nil && now.Sub(*j.CompletedAt) > r.retention {
			delete(r.jobs, id)
		}
	}

	r.jobs[job.ID()] = &models.ProcessingJob{
		ID:        job.ID(),
		JobType:   job.Type(),
		ProjectID: job.ProjectID(),
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Remove forgets a job.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// Start marks a job as processing.
func (r *Registry) Start(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		now := r.now().UTC()
		j.Status = models.JobStatusProcessing
		j.StartedAt = &now
		j.UpdatedAt = now
	}
}

// Finish marks a job completed, or failed when err is not nil.
func (r *Registry) Finish(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return
	}
	now := r.now().UTC()
	j.CompletedAt = &now
	j.UpdatedAt = now
	if err != nil {
		msg := err.Error()
		j.Status = models.JobStatusFailed
		j.ErrorMessage = &msg
		return
	}
	j.Status = models.JobStatusCompleted
}

// Get returns a copy of a job's status.
func (r *Registry) Get(id string) (models.ProcessingJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return models.ProcessingJob{}, false
	}
	return *j, true
}

// ForProject returns a project's jobs, newest first.
func (r *Registry) ForProject(projectID string) []models.ProcessingJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.ProcessingJob
	for _, j := range r.jobs {
		if j.ProjectID == projectID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}
