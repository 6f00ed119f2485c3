package batch

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInitializing Status = "Initializing"
	StatusGenerating   Status = "Generating"
	StatusComplete     Status = "Complete"
	StatusCancelled    Status = "Cancelled"
)

type RowError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// Job is the process-local state of one batch run. It is never persisted;
// each invocation owns its own value and all mutation goes through the
// methods below.
type Job struct {
	mu sync.Mutex

	id           uuid.UUID
	userID       uuid.UUID
	total        int
	current      int
	status       Status
	message      string
	errors       []RowError
	generatedIDs []uuid.UUID
	cancelled    bool
	startedAt    time.Time
	finishedAt   *time.Time
}

// Snapshot is the immutable view of a Job handed to callers and notifiers.
type Snapshot struct {
	ID           uuid.UUID   `json:"id"`
	Total        int         `json:"total"`
	Current      int         `json:"current"`
	Percentage   float64     `json:"percentage"`
	Status       Status      `json:"status"`
	Message      string      `json:"message"`
	Errors       []RowError  `json:"errors"`
	GeneratedIDs []uuid.UUID `json:"generated_ids"`
	IsGenerating bool        `json:"is_generating"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
}

func newJob(total int, userID uuid.UUID) *Job {
	return &Job{
		id:           uuid.New(),
		userID:       userID,
		total:        total,
		status:       StatusInitializing,
		errors:       []RowError{},
		generatedIDs: []uuid.UUID{},
		startedAt:    time.Now().UTC(),
	}
}

func (j *Job) ID() uuid.UUID { return j.id }

// UserID is the batch owner; it never changes after creation.
func (j *Job) UserID() uuid.UUID { return j.userID }

func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelled = true
}

func (j *Job) IsCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

func (j *Job) recordSuccess(certificateID uuid.UUID, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.generatedIDs = append(j.generatedIDs, certificateID)
	j.current++
	j.status = StatusGenerating
	j.message = message
}

func (j *Job) recordFailure(index int, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, RowError{Index: index, Message: message})
	j.current++
	j.status = StatusGenerating
}

func (j *Job) finish(status Status, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
	j.message = message
	now := time.Now().UTC()
	j.finishedAt = &now
}

func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	pct := 0.0
	if j.total > 0 {
		pct = float64(j.current) / float64(j.total) * 100
	}
	if j.status == StatusComplete {
		pct = 100
	}

	errs := make([]RowError, len(j.errors))
	copy(errs, j.errors)
	ids := make([]uuid.UUID, len(j.generatedIDs))
	copy(ids, j.generatedIDs)

	return Snapshot{
		ID:           j.id,
		Total:        j.total,
		Current:      j.current,
		Percentage:   pct,
		Status:       j.status,
		Message:      j.message,
		Errors:       errs,
		GeneratedIDs: ids,
		IsGenerating: j.status == StatusInitializing || j.status == StatusGenerating,
		StartedAt:    j.startedAt,
		FinishedAt:   j.finishedAt,
	}
}

// Registry tracks in-flight and recently finished jobs by id. Jobs are
// process-local; two batches never share a Job value.
type Registry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[uuid.UUID]*Job)}
}

func (r *Registry) add(j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.id] = j
}

func (r *Registry) Get(id uuid.UUID) *Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jobs[id]
}
