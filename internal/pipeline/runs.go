package pipeline

import (
	"sync"
	"time"
)

// RunStatus is the state of one build run.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusLoading    RunStatus = "loading"
	StatusBuilding   RunStatus = "building"
	StatusWriting    RunStatus = "writing"
	StatusDelivering RunStatus = "delivering"
	StatusCompleted  RunStatus = "completed"
	StatusPartial    RunStatus = "partial"
	StatusFailed     RunStatus = "failed"
)

// Done reports whether the status is terminal.
func (s RunStatus) Done() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// Run tracks one requested build from queueing to delivery.
type Run struct {
	mu sync.Mutex

	ID     string
	Reason string

	status    RunStatus
	phase     string
	nodes     int
	delivered []string
	errors    []string

	CreatedAt time.Time
	updatedAt time.Time
	done      chan struct{}
}

func NewRun(reason string) *Run {
	now := time.Now()
	return &Run{
		ID:        NewBuildID(),
		Reason:    reason,
		status:    StatusQueued,
		phase:     "queued",
		CreatedAt: now,
		updatedAt: now,
		done:      make(chan struct{}),
	}
}

// SetStatus moves the run to status. Terminal statuses release Wait.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Done() {
		return
	}
	r.status = status
	r.phase = phase
	r.updatedAt = time.Now()
	if status.Done() {
		close(r.done)
	}
}

func (r *Run) AddError(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	r.updatedAt = time.Now()
}

func (r *Run) setNodes(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = n
	r.updatedAt = time.Now()
}

func (r *Run) addDelivered(sink string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, sink)
	r.updatedAt = time.Now()
}

// Done is closed once the run reaches a terminal status.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// RunSnapshot is a JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string    `json:"run_id"`
	Reason    string    `json:"reason"`
	Status    RunStatus `json:"status"`
	Phase     string    `json:"phase"`
	Nodes     int       `json:"nodes"`
	Delivered []string  `json:"delivered"`
	Errors    []string  `json:"errors"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := append([]string{}, r.errors...)
	delivered := append([]string{}, r.delivered...)
	return RunSnapshot{
		ID:        r.ID,
		Reason:    r.Reason,
		Status:    r.status,
		Phase:     r.phase,
		Nodes:     r.nodes,
		Delivered: delivered,
		Errors:    errs,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.updatedAt,
	}
}

// RunStore is an in-memory run registry with TTL eviction of finished runs.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(r *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Cleanup removes finished runs not updated within the TTL.
func (s *RunStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, r := range s.runs {
		snap := r.Snapshot()
		if snap.Status.Done() && now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.runs, id)
			removed++
		}
	}
	return removed
}

func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}
