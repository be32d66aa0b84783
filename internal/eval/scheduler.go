package eval

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Mockaj/duvo/internal/conversation"
)

// Metrics records evaluation pipeline outcomes.
type Metrics interface {
	RecordEvaluation(outcome string)
	RecordEvaluationScore(score int)
	RecordLedgerError(op string)
}

// outcome is the explicit result of one background evaluation, consumed by
// the scheduler's logging observer. Failures never propagate past it.
type outcome struct {
	sessionID string
	entry     Entry
	stage     string // "judge" or "ledger", set on failure
	err       error
}

// Scheduler decides after each chat turn whether evaluation should run and
// launches it detached from the request path.
type Scheduler struct {
	judge   *Judge
	ledger  *Ledger
	allowed Allowlist
	logger  *zap.Logger
	metrics Metrics

	wg sync.WaitGroup

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewScheduler wires the evaluation pipeline.
func NewScheduler(judge *Judge, ledger *Ledger, allowed Allowlist, logger *zap.Logger, metrics Metrics) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		judge:   judge,
		ledger:  ledger,
		allowed: allowed,
		logger:  logger,
		metrics: metrics,
	}
}

// MaybeEvaluate inspects the post-turn history and, when qualifying tool
// evidence and a summary both exist, runs the judgment in a detached
// goroutine. The caller never waits on it and never sees its failures.
func (s *Scheduler) MaybeEvaluate(sessionID string, history []conversation.Message) {
	sources := ToolData(history, s.allowed)
	if len(sources) == 0 {
		return
	}

	summary, ok := Summary(history)
	if !ok {
		s.recordOutcome("skipped_no_summary")
		return
	}

	s.recordOutcome("scheduled")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.observe(s.run(sessionID, sources, summary))
	}()
}

// Wait blocks until all in-flight evaluations finish. Used by tests and for
// the best-effort drain at shutdown; abandoning evaluations on process exit
// is accepted.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(sessionID string, sources []string, summary string) outcome {
	score, err := s.judge.Evaluate(context.Background(), sources, summary)
	if err != nil {
		return outcome{sessionID: sessionID, stage: "judge", err: err}
	}

	// Serialize the read-modify-write per session so concurrent evaluations
	// for one session cannot lose an update.
	lock := s.sessionLock(sessionID)
	lock.Lock()
	entry, err := s.ledger.Append(sessionID, score)
	lock.Unlock()
	if err != nil {
		return outcome{sessionID: sessionID, stage: "ledger", err: err}
	}

	return outcome{sessionID: sessionID, entry: entry}
}

// observe is the single place evaluation results become visible: a log line
// and a metric, nothing else.
func (s *Scheduler) observe(o outcome) {
	if o.err != nil {
		s.logger.Error("evaluation failed",
			zap.String("session_id", o.sessionID),
			zap.String("stage", o.stage),
			zap.Error(o.err))
		s.recordOutcome(o.stage + "_error")
		if o.stage == "ledger" && s.metrics != nil {
			s.metrics.RecordLedgerError("append")
		}
		return
	}

	s.logger.Info("summary evaluation recorded",
		zap.String("session_id", o.sessionID),
		zap.Int("score", o.entry.Score),
		zap.String("reasoning", o.entry.Reasoning))
	s.recordOutcome("completed")
	if s.metrics != nil {
		s.metrics.RecordEvaluationScore(o.entry.Score)
	}
}

func (s *Scheduler) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordEvaluation(outcome)
	}
}

func (s *Scheduler) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	if lock, ok := s.locks[sessionID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[sessionID] = lock
	return lock
}
