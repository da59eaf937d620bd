package job

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the in-memory store of live job records and the single source
// of truth for progress queries. Each job is written only by its owning
// executor worker (and removed by the artifact server after delivery), so no
// per-job locking is needed beyond guarding the map itself.
//
// The registry is constructed once at process start and passed explicitly to
// every component that needs it; its lifetime is the process lifetime and
// its contents are lost on restart.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*record
}

type record struct {
	params Params
	state  State
	// notify is closed and replaced on every state change so watchers wake
	// without polling.
	notify chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*record)}
}

// Create registers a new job in the starting state and returns its id.
// Identifiers are generated per submission and never reused.
func (r *Registry) Create(params Params) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.jobs[id] = &record{
		params: params,
		state:  State{Status: StatusStarting},
		notify: make(chan struct{}),
	}
	r.mu.Unlock()
	return id
}

// Get returns the current state of a job.
func (r *Registry) Get(id string) (State, bool) {
	r.mu.RLock()
	rec, found := r.jobs[id]
	r.mu.RUnlock()
	if !found {
		return State{}, false
	}
	return rec.state, true
}

// Params returns the submission parameters of a job.
func (r *Registry) Params(id string) (Params, bool) {
	r.mu.RLock()
	rec, found := r.jobs[id]
	r.mu.RUnlock()
	if !found {
		return Params{}, false
	}
	return rec.params, true
}

// Update replaces the job's state record and wakes watchers. Updates to
// unknown (already reaped) ids are dropped.
func (r *Registry) Update(id string, state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, found := r.jobs[id]
	if !found {
		return
	}
	rec.state = state
	close(rec.notify)
	rec.notify = make(chan struct{})
}

// Remove deletes the job record, waking watchers. Removing an unknown id is
// a no-op so the delivery path and the sweeper can race safely.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, found := r.jobs[id]
	if !found {
		return
	}
	close(rec.notify)
	delete(r.jobs, id)
}

// Watch returns a channel that is closed on the job's next state change or
// on removal. For unknown ids it returns nil, which blocks forever in a
// select; callers pair it with a ticker so "waiting" placeholders still flow.
func (r *Registry) Watch(id string) <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, found := r.jobs[id]; found {
		return rec.notify
	}
	return nil
}
