package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"media-grabber/internal/logging"
	"media-grabber/internal/metrics"
)

// ErrDuplicateID is returned by Create when the id is already registered.
// With collision-free id generation this should never occur in practice.
var ErrDuplicateID = errors.New("job id already registered")

// Status describes where a job is in its lifecycle. It is derived from the
// presence of a result and its success flag, never stored separately.
type Status string

const (
	// StatusDownloading means the job has no terminal result yet.
	StatusDownloading Status = "downloading"
	// StatusCompleted means the job finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the job finished with an engine error.
	StatusFailed Status = "failed"
)

// Result is the terminal payload attached to a job exactly once. The
// numeric fields are emitted even when zero (a live stream has no known
// duration, a vanished file reports size 0); only the failure-side error
// key is conditional.
type Result struct {
	Success  bool    `json:"success"`
	Filename string  `json:"filename,omitempty"`
	Title    string  `json:"title,omitempty"`
	Duration float64 `json:"duration"`
	Filesize int64   `json:"filesize"`
	Error    string  `json:"error,omitempty"`
}

// View is a consistent snapshot of a job's state, safe to use after the
// registry lock is released. Result is a copy, never shared storage.
type View struct {
	ID       string
	URL      string
	Status   Status
	Progress string
	Speed    string
	Eta      string
	Result   *Result
}

// job is the registry's internal mutable state for one download.
type job struct {
	id         string
	url        string
	progress   string
	speed      string
	eta        string
	result     *Result
	createdAt  time.Time
	finishedAt time.Time
}

// Registry is a thread-safe in-memory mapping from job id to job state.
// It is the only shared mutable surface between the runner (writer) and
// the API layer (reader). Terminal entries are retained until the client
// removes them or the janitor evicts them after completedTTL.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*job
	ttl  time.Duration
}

// NewRegistry creates an empty registry. completedTTL bounds how long
// terminal entries stay queryable; zero or negative retains them forever.
func NewRegistry(completedTTL time.Duration) *Registry {
	return &Registry{
		jobs: make(map[string]*job),
		ttl:  completedTTL,
	}
}

// Create inserts a new entry in the downloading state with zeroed progress.
func (r *Registry) Create(id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	r.jobs[id] = &job{
		id:        id,
		url:       url,
		progress:  "0%",
		speed:     "N/A",
		eta:       "N/A",
		createdAt: time.Now(),
	}
	metrics.JobsTracked.Set(float64(len(r.jobs)))
	return nil
}

// UpdateProgress overwrites the transient progress fields of a job. It is
// a silent no-op if the id is absent (a progress callback racing a cancel)
// or if the job already carries a terminal result (progress is frozen once
// finalized).
func (r *Registry) UpdateProgress(id, progress, speed, eta string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok || j.result != nil {
		return
	}
	j.progress = progress
	j.speed = speed
	j.eta = eta
}

// Finalize attaches the terminal result to a job. The entry is retained so
// that polls arriving after completion still observe the result. It
// returns false if the id is absent (the job was cancelled mid-flight and
// the result is dropped) or already finalized.
func (r *Registry) Finalize(id string, result Result) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok || j.result != nil {
		return false
	}
	j.result = &result
	j.finishedAt = time.Now()
	return true
}

// Get returns a consistent snapshot of a job's full state.
func (r *Registry) Get(id string) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return View{}, false
	}
	return j.view(), true
}

// Remove deletes an entry and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return false
	}
	delete(r.jobs, id)
	metrics.JobsTracked.Set(float64(len(r.jobs)))
	return true
}

// Active returns the number of jobs still downloading.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, j := range r.jobs {
		if j.result == nil {
			n++
		}
	}
	return n
}

// Tracked returns the total number of entries, terminal ones included.
func (r *Registry) Tracked() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// EvictExpired removes terminal entries whose result has been held longer
// than the registry's TTL and returns how many were evicted. Jobs that are
// still downloading are never evicted.
func (r *Registry) EvictExpired() int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.ttl)
	evicted := 0
	for id, j := range r.jobs {
		if j.result != nil && j.finishedAt.Before(cutoff) {
			delete(r.jobs, id)
			evicted++
		}
	}

	if evicted > 0 {
		metrics.JobsEvicted.Add(float64(evicted))
		metrics.JobsTracked.Set(float64(len(r.jobs)))
	}
	return evicted
}

// StartJanitor runs EvictExpired every interval on a background goroutine
// and returns a function that stops it. With eviction disabled (TTL <= 0)
// no goroutine is started and stop is a no-op.
func (r *Registry) StartJanitor(interval time.Duration) (stop func()) {
	if r.ttl <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := r.EvictExpired(); n > 0 {
					logging.Debug("evicted %d expired job entries", n)
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}

// view builds a snapshot copy. Caller must hold at least the read lock.
func (j *job) view() View {
	v := View{
		ID:       j.id,
		URL:      j.url,
		Status:   StatusDownloading,
		Progress: j.progress,
		Speed:    j.speed,
		Eta:      j.eta,
	}
	if j.result != nil {
		res := *j.result
		v.Result = &res
		if res.Success {
			v.Status = StatusCompleted
		} else {
			v.Status = StatusFailed
		}
	}
	return v
}
