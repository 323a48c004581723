package batch

import (
	"sync"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StateCancelling State = "cancelling"
)

const (
	WorkflowGenerate = "generate"
	WorkflowClaimAll = "claim-all"
	WorkflowClaimOne = "claim-one"
	WorkflowSendAll  = "send-all"
	WorkflowSendOne  = "send-one"
)

// Batch is the handle of one running workflow.
type Batch struct {
	ID       string
	Workflow string

	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
	report     model.Report
}

func newBatch(workflow string) *Batch {
	return &Batch{
		ID:       uuid.NewString(),
		Workflow: workflow,
		cancel:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Done is closed once the workflow has returned to idle.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the workflow finishes and returns its report.
func (b *Batch) Wait() model.Report {
	<-b.done
	return b.report
}

func (b *Batch) requestCancel() {
	b.cancelOnce.Do(func() { close(b.cancel) })
}

func (b *Batch) cancelled() bool {
	select {
	case <-b.cancel:
		return true
	default:
		return false
	}
}

// machine owns the Idle -> Running -> (Cancelling) -> Idle transitions.
// At most one batch is current at a time.
type machine struct {
	mu      sync.Mutex
	current *Batch
	last    *model.Report
}

func (m *machine) begin(workflow string) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, model.ErrAlreadyRunning
	}
	m.current = newBatch(workflow)
	return m.current, nil
}

// cancel flags the current batch. It reports false when nothing is running.
func (m *machine) cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return false
	}
	m.current.requestCancel()
	return true
}

func (m *machine) finish(b *Batch, report model.Report) {
	m.mu.Lock()
	if m.current == b {
		m.current = nil
	}
	m.last = &report
	m.mu.Unlock()

	b.report = report
	close(b.done)
}

func (m *machine) state() (State, *Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.current == nil:
		return StateIdle, nil
	case m.current.cancelled():
		return StateCancelling, m.current
	default:
		return StateRunning, m.current
	}
}

func (m *machine) status() model.BatchStatus {
	st, b := m.state()

	m.mu.Lock()
	defer m.mu.Unlock()

	status := model.BatchStatus{State: string(st)}
	if b != nil {
		status.ID = b.ID
		status.Workflow = b.Workflow
	}
	if m.last != nil {
		last := *m.last
		status.Last = &last
	}
	return status
}
