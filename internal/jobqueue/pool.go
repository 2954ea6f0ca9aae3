package jobqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
)

var tracer = otel.Tracer("archivist-core/jobqueue")

// Handler processes one job's payload and returns a JSON result blob on
// success. A returned error is retried (per spec.md §4.F's backoff
// policy) until max_attempts is exhausted, at which point the job is
// dead-lettered.
type Handler func(ctx context.Context, payloadJSON string) (resultJSON string, err error)

// Pool runs workerCount goroutines against a single named queue,
// claiming jobs through store.JobRepo.ClaimNext and dispatching them to
// handler.
type Pool struct {
	log       *zap.Logger
	jobs      *store.JobRepo
	queueName string
	workerID  string
	handler   Handler
	heap      *Queue
	metrics   *metrics

	pollInterval time.Duration
}

// NewPool builds a Pool for one queue. reg may be nil to skip Prometheus
// registration (e.g. in tests).
func NewPool(log *zap.Logger, jobs *store.JobRepo, queueName string, handler Handler, reg prometheus.Registerer) *Pool {
	return &Pool{
		log:          log.With(zap.String("queue", queueName)),
		jobs:         jobs,
		queueName:    queueName,
		workerID:     uuid.NewString(),
		handler:      handler,
		heap:         NewQueue(),
		metrics:      newMetrics(reg),
		pollInterval: 500 * time.Millisecond,
	}
}

// Run claims and processes jobs from the queue until ctx is cancelled.
// Between an empty claim and the next attempt it sleeps pollInterval,
// matching the teacher's ticker-driven chore idiom rather than busy-
// polling the database.
func (p *Pool) Run(ctx context.Context, workerCount int) error {
	if workerCount <= 0 {
		workerCount = 1
	}

	heap, err := Hydrate(ctx, p.jobs, p.queueName, nil)
	if err != nil {
		return err
	}
	p.heap = heap

	done := make(chan struct{})
	for i := 0; i < workerCount; i++ {
		go func() {
			p.loop(ctx)
			done <- struct{}{}
		}()
	}
	for i := 0; i < workerCount; i++ {
		<-done
	}
	return ctx.Err()
}

func (p *Pool) loop(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.claimAndRun(ctx)
		}
	}
}

func (p *Pool) claimAndRun(ctx context.Context) {
	now := time.Now().UTC()

	job, err := p.claimFromHeap(ctx, now)
	if err != nil {
		p.log.Error("claim failed", zap.Error(err))
		return
	}
	if job == nil {
		job, err = p.jobs.ClaimNext(ctx, p.queueName, p.workerID, now)
		if err != nil {
			p.log.Error("claim failed", zap.Error(err))
			return
		}
	}
	if job == nil {
		return
	}
	p.metrics.claimed.WithLabelValues(p.queueName).Inc()
	p.metrics.inFlight.WithLabelValues(p.queueName).Inc()
	defer p.metrics.inFlight.WithLabelValues(p.queueName).Dec()

	p.execute(ctx, job)
}

// claimFromHeap pops the heap's highest-priority id, if any, and claims
// it against the durable store. A pop that turns out stale (claimed by
// another replica, dependency not yet done, or deleted) returns nil, and
// claimAndRun falls back to ClaimNext in the same tick rather than
// retrying further heap entries.
func (p *Pool) claimFromHeap(ctx context.Context, now time.Time) (*store.Job, error) {
	id, ok := p.heap.Pop()
	if !ok {
		return nil, nil
	}
	return p.jobs.ClaimByID(ctx, id, p.workerID, now)
}

// execute runs one claimed job's handler, recording an audit row,
// tracing span, and metrics regardless of outcome, then dispatches to
// MarkCompleted/MarkRetry/MarkDead per spec.md §4.F's state machine.
func (p *Pool) execute(ctx context.Context, job *store.Job) {
	spanCtx := ctx
	var span trace.Span
	spanCtx, span = tracer.Start(spanCtx, "jobqueue.execute",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("job.queue", job.Queue),
			attribute.Int("job.attempt", job.Attempts+1),
		))
	if job.DependsOn != nil {
		span.SetAttributes(attribute.String("job.depends_on", *job.DependsOn))
	}
	defer span.End()

	start := time.Now()
	resultJSON, err := p.handler(spanCtx, job.PayloadJSON)
	duration := time.Since(start)
	p.metrics.duration.WithLabelValues(p.queueName).Observe(duration.Seconds())

	attempt := job.Attempts + 1
	durationMS := duration.Milliseconds()
	now := time.Now()
	audit := &store.JobAuditEntry{
		ID:          uuid.NewString(),
		JobID:       job.ID,
		Queue:       job.Queue,
		StartedAt:   &start,
		CompletedAt: &now,
		DurationMS:  &durationMS,
		Attempt:     attempt,
	}

	if err == nil {
		audit.Status = store.JobCompleted
		audit.ResultJSON = &resultJSON
		if auditErr := p.jobs.AppendAudit(ctx, audit); auditErr != nil {
			p.log.Error("audit append failed", zap.Error(auditErr))
		}
		if err := p.jobs.MarkCompleted(ctx, job.ID, resultJSON); err != nil {
			p.log.Error("mark completed failed", zap.Error(err), zap.String("job_id", job.ID))
			span.RecordError(err)
		}
		p.metrics.completed.WithLabelValues(p.queueName).Inc()
		return
	}

	span.RecordError(err)
	errMsg := err.Error()
	audit.Error = &errMsg

	if attempt >= job.MaxAttempts {
		audit.Status = store.JobDead
		if auditErr := p.jobs.AppendAudit(ctx, audit); auditErr != nil {
			p.log.Error("audit append failed", zap.Error(auditErr))
		}
		if err := p.jobs.MarkDead(ctx, job, attempt, errMsg); err != nil {
			p.log.Error("mark dead failed", zap.Error(err), zap.String("job_id", job.ID))
		}
		p.metrics.dead.WithLabelValues(p.queueName).Inc()
		return
	}

	audit.Status = store.JobPending
	if auditErr := p.jobs.AppendAudit(ctx, audit); auditErr != nil {
		p.log.Error("audit append failed", zap.Error(auditErr))
	}
	retryAfter := time.Now().Add(nextRetryDelay(attempt))
	if err := p.jobs.MarkRetry(ctx, job.ID, attempt, retryAfter, errMsg); err != nil {
		p.log.Error("mark retry failed", zap.Error(err), zap.String("job_id", job.ID))
	}
	p.metrics.retried.WithLabelValues(p.queueName).Inc()
}

// MarshalPayload is a convenience for callers enqueuing typed payloads.
func MarshalPayload(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
