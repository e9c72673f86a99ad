package manager

import (
	"sync"
	"sync/atomic"

	"go.trai.ch/forge/internal/core/domain"
)

// SubmissionState tracks a submission through its lifecycle.
type SubmissionState string

const (
	// SubmissionPending means the submission is registered but not executed.
	SubmissionPending SubmissionState = "Pending"
	// SubmissionExecuting means the submission's request is in flight.
	SubmissionExecuting SubmissionState = "Executing"
	// SubmissionCompleted means the submission has a final result.
	SubmissionCompleted SubmissionState = "Completed"
)

// CompletionCallback is invoked when an asynchronously executed submission
// completes. Callbacks run on the manager's completion queue goroutine,
// never on a scheduler goroutine, so a callback may call EndBuild on the
// owning manager.
type CompletionCallback func(*Submission)

// Submission is one client-issued build request tracked through to
// completion. Submissions are created by Manager.PendBuildRequest and
// executed at most once, synchronously or asynchronously.
type Submission struct {
	id  int
	m   *Manager
	req *domain.BuildRequest

	executed atomic.Bool
	state    atomic.Value // SubmissionState
	done     chan struct{}

	mu       sync.Mutex
	result   *domain.BuildResult
	callback CompletionCallback
}

func newSubmission(m *Manager, id int, req *domain.BuildRequest) *Submission {
	s := &Submission{
		id:   id,
		m:    m,
		req:  req,
		done: make(chan struct{}),
	}
	s.state.Store(SubmissionPending)
	return s
}

// ID returns the submission's manager-assigned ordinal.
func (s *Submission) ID() int {
	return s.id
}

// Request returns the underlying build request.
func (s *Submission) Request() *domain.BuildRequest {
	return s.req
}

// State returns the submission's lifecycle state.
func (s *Submission) State() SubmissionState {
	return s.state.Load().(SubmissionState)
}

// WaitHandle returns a channel that closes when the submission completes.
func (s *Submission) WaitHandle() <-chan struct{} {
	return s.done
}

// Result returns the build result, or nil while the submission is still
// pending or executing.
func (s *Submission) Result() *domain.BuildResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Execute runs the submission synchronously and returns its result. Target
// and task failures are encoded in the result; an error is returned only
// for lifecycle misuse, including executing a submission whose build
// session has already ended.
func (s *Submission) Execute() (*domain.BuildResult, error) {
	if err := s.m.beginExecution(s); err != nil {
		return nil, err
	}

	res := s.m.runSubmission(s)
	s.complete(res)
	return res, nil
}

// ExecuteAsync runs the submission on a background goroutine and invokes
// callback on the manager's completion queue once the result is available.
func (s *Submission) ExecuteAsync(callback CompletionCallback) error {
	if err := s.m.beginExecution(s); err != nil {
		return err
	}
	s.mu.Lock()
	s.callback = callback
	s.mu.Unlock()

	go func() {
		res := s.m.runSubmission(s)
		s.complete(res)
	}()
	return nil
}

// complete stores the result, queues the completion callback and releases
// waiters. The callback is enqueued before the wait handle closes, so by
// the time EndBuild has seen every handle signaled all callbacks are
// already on the queue.
func (s *Submission) complete(res *domain.BuildResult) {
	s.mu.Lock()
	s.result = res
	cb := s.callback
	s.mu.Unlock()

	s.state.Store(SubmissionCompleted)
	if cb != nil {
		s.m.enqueueCompletion(s)
	}
	close(s.done)
}
