package job

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmatsuda/application-tailor/internal/workflow"
)

// Manager drives jobs through the workflow machine. Each job runs on its
// own goroutine; the manager serializes lifecycle mutations so approvals
// and answer submissions cannot race the running pipeline.
type Manager struct {
	machine *workflow.Machine
	store   Store
	baseCtx context.Context

	mu      sync.Mutex
	queues  map[string]*Queue
	running map[string]bool
}

// NewManager builds a Manager. baseCtx bounds all background pipeline
// work; canceling it stops in-flight runs at the next LLM call.
func NewManager(baseCtx context.Context, machine *workflow.Machine, store Store) *Manager {
	return &Manager{
		machine: machine,
		store:   store,
		baseCtx: baseCtx,
		queues:  make(map[string]*Queue),
		running: make(map[string]bool),
	}
}

// Create registers a new job in the INITIALIZED state.
func (m *Manager) Create(ctx context.Context, jobDescription, resume, sourceDocuments string, models map[string]string) (*Job, error) {
	if jobDescription == "" || resume == "" {
		return nil, fmt.Errorf("job description and resume are required")
	}
	j := New(jobDescription, resume, sourceDocuments, models)
	if err := m.store.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("saving job: %w", err)
	}

	m.mu.Lock()
	m.queues[j.ID] = NewQueue()
	m.mu.Unlock()
	return j, nil
}

// Get loads a job by id.
func (m *Manager) Get(ctx context.Context, id string) (*Job, error) {
	return m.store.Load(ctx, id)
}

// List returns all known jobs, newest first.
func (m *Manager) List(ctx context.Context) ([]*Job, error) {
	return m.store.List(ctx)
}

// Events returns the event queue for a job, creating one for jobs that
// predate this process. A persisted job loaded from the store after a
// restart gets a fresh queue on first access, so clients can reconnect.
func (m *Manager) Events(id string) (*Queue, error) {
	m.mu.Lock()
	if q, ok := m.queues[id]; ok {
		m.mu.Unlock()
		return q, nil
	}
	m.mu.Unlock()

	if _, err := m.store.Load(m.baseCtx, id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[id]; ok {
		return q, nil
	}
	q := NewQueue()
	m.queues[id] = q
	return q, nil
}

// Start launches the pipeline for a job. Starting a job that is already
// running or paused is a no-op; starting a terminal job is an error.
// The job is loaded under the lifecycle lock so the state checked is the
// state acted on.
func (m *Manager) Start(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, err := m.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if m.running[id] || j.Paused() {
		return nil
	}
	if j.Done() {
		return fmt.Errorf("job %s already finished in state %s", id, j.State)
	}
	m.launch(j)
	return nil
}

// Approve resolves the gap analysis review pause. Idempotent: approving a
// job that already moved on is a no-op; approving before the pause is an
// error.
func (m *Manager) Approve(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, err := m.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if j.GapAnalysisApproved || m.running[id] {
		return nil
	}
	if j.State != workflow.StateGapAnalysisReview {
		return fmt.Errorf("job %s is in state %s, not awaiting gap analysis review", id, j.State)
	}
	j.GapAnalysisApproved = true
	m.launch(j)
	return nil
}

// SubmitAnswers resolves the interview review pause with the candidate's
// answers. A duplicate submission while the job already moved on is a
// no-op.
func (m *Manager) SubmitAnswers(ctx context.Context, id string, answers []workflow.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, err := m.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if len(j.InterviewAnswers) > 0 || m.running[id] {
		return nil
	}
	if j.State != workflow.StateInterrogationReview {
		return fmt.Errorf("job %s is in state %s, not awaiting interview answers", id, j.State)
	}
	if len(answers) == 0 {
		return fmt.Errorf("at least one answer is required")
	}
	j.InterviewAnswers = answers
	m.launch(j)
	return nil
}

// launch marks the job running and starts its worker. Caller holds m.mu.
func (m *Manager) launch(j *Job) {
	m.running[j.ID] = true
	go m.run(j)
}

func (m *Manager) run(j *Job) {
	defer func() {
		m.mu.Lock()
		delete(m.running, j.ID)
		m.mu.Unlock()
	}()

	q, err := m.Events(j.ID)
	if err != nil {
		log.Printf("job %s: no event queue: %v", j.ID, err)
		q = NewQueue()
	}

	if j.State == workflow.StateInitialized {
		m.emit(q, j, EventStarted, map[string]any{"state": string(j.State)})
	}

	hooks := workflow.Hooks{
		OnState: func(s workflow.State) {
			j.State = s
			j.UpdatedAt = time.Now().UTC()
			m.persist(j)
			m.emit(q, j, EventProgress, map[string]any{
				"state":    string(s),
				"progress": workflow.Progress(s),
			})
		},
		OnLog: func(line string) {
			stamped := fmt.Sprintf("%s %s", time.Now().UTC().Format(time.RFC3339), line)
			j.Log = append(j.Log, stamped)
			m.emit(q, j, EventLog, map[string]any{"message": line})
		},
		OnStageComplete: func(stage string, out map[string]any) {
			m.persist(j)
			m.emit(q, j, EventStageComplete, map[string]any{
				"stage":  stage,
				"output": out,
			})
		},
	}

	in := workflow.Inputs{
		JobDescription:  j.JobDescription,
		Resume:          j.Resume,
		SourceDocuments: j.SourceDocuments,
	}
	appr := workflow.Approvals{
		GapAnalysisApproved: j.GapAnalysisApproved,
		InterviewAnswers:    j.InterviewAnswers,
	}

	outcome := m.machine.Run(m.baseCtx, in, appr, j.Context, hooks)

	j.UpdatedAt = time.Now().UTC()
	switch {
	case outcome.Paused:
		// State and progress were already emitted by the pause transition.
		// No terminal event: the stream stays open across the pause.
		m.persist(j)
	case outcome.State == workflow.StateFailed:
		j.Success = false
		j.FailedStage = outcome.FailedStage
		j.ErrorMessage = outcome.ErrorMessage
		m.persist(j)
		m.emit(q, j, EventError, map[string]any{
			"failed_stage":  outcome.FailedStage,
			"error_message": outcome.ErrorMessage,
		})
	default:
		j.Success = true
		j.FinalResume = outcome.Resume
		j.CoverLetter = outcome.CoverLetter
		j.AuditReport = outcome.Audit
		j.ExecutiveBrief = outcome.ExecutiveBrief
		m.persist(j)
		m.emit(q, j, EventComplete, j.CompletePayload())
	}
}

func (m *Manager) persist(j *Job) {
	if err := m.store.Save(m.baseCtx, j); err != nil {
		log.Printf("job %s: persist failed: %v", j.ID, err)
	}
}

func (m *Manager) emit(q *Queue, j *Job, typ string, data map[string]any) {
	q.Push(&Event{
		Type:      typ,
		JobID:     j.ID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}
