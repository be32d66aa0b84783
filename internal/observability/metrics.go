package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the chat daemon.
type Metrics struct {
	registry        *prometheus.Registry
	ChatRequests    *prometheus.CounterVec
	ChatDuration    *prometheus.HistogramVec
	ToolInvocations *prometheus.CounterVec
	Evaluations     *prometheus.CounterVec
	EvalScores      prometheus.Histogram
	LedgerErrors    *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with chat and evaluation collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duvo_chat_requests_total",
		Help: "Total chat turns by outcome",
	}, []string{"status"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "duvo_chat_duration_seconds",
		Help:    "Chat turn duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	toolInv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duvo_tool_invocations_total",
		Help: "Tool invocations by tool name and outcome",
	}, []string{"tool", "status"})

	evals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duvo_evaluations_total",
		Help: "Evaluation pipeline runs by outcome",
	}, []string{"outcome"})

	scores := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "duvo_evaluation_score",
		Help:    "Judge scores for completed evaluations",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	ledgerErrs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duvo_ledger_errors_total",
		Help: "Evaluation ledger failures by operation",
	}, []string{"op"})

	reg.MustRegister(reqs, durs, toolInv, evals, scores, ledgerErrs)

	return &Metrics{
		registry:        reg,
		ChatRequests:    reqs,
		ChatDuration:    durs,
		ToolInvocations: toolInv,
		Evaluations:     evals,
		EvalScores:      scores,
		LedgerErrors:    ledgerErrs,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordChatTurn records one completed chat turn.
func (m *Metrics) RecordChatTurn(status string, duration time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.ChatRequests.WithLabelValues(status).Inc()
	m.ChatDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordToolInvocation records one tool call by the agent.
func (m *Metrics) RecordToolInvocation(tool, status string) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.ToolInvocations.WithLabelValues(tool, status).Inc()
}

// RecordEvaluation records an evaluation pipeline outcome.
func (m *Metrics) RecordEvaluation(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.Evaluations.WithLabelValues(outcome).Inc()
}

// RecordEvaluationScore records a judge score after a successful ledger append.
func (m *Metrics) RecordEvaluationScore(score int) {
	if m == nil {
		return
	}
	m.EvalScores.Observe(float64(score))
}

// RecordLedgerError records a ledger read or write failure.
func (m *Metrics) RecordLedgerError(op string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.LedgerErrors.WithLabelValues(op).Inc()
}
