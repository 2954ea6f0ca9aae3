package jobqueue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
)

// staleLockTimeout is how long a job may sit locked by a worker before
// the janitor assumes the worker died and reclaims it, per spec.md
// §4.F's stale-lock recovery.
const staleLockTimeout = 10 * time.Minute

// Janitor periodically reclaims jobs whose lock has gone stale, a
// ticker-driven chore modeled on the teacher's gracefulexit chore.
type Janitor struct {
	log      *zap.Logger
	jobs     *store.JobRepo
	interval time.Duration
	timeout  time.Duration
}

// NewJanitor builds a Janitor with spec.md's default stale-lock timeout.
func NewJanitor(log *zap.Logger, jobs *store.JobRepo) *Janitor {
	return &Janitor{
		log:      log.Named("jobqueue-janitor"),
		jobs:     jobs,
		interval: time.Minute,
		timeout:  staleLockTimeout,
	}
}

// Run reclaims stale locks on every tick until ctx is cancelled,
// matching the lifecycle.Item{Name, Run, Close} shape the teacher wires
// its chores into.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cutoff := time.Now().Add(-j.timeout)
			n, err := j.jobs.ReclaimStale(ctx, cutoff)
			if err != nil {
				j.log.Error("reclaim stale jobs failed", zap.Error(err))
				continue
			}
			if n > 0 {
				j.log.Info("reclaimed stale jobs", zap.Int64("count", n))
			}
		}
	}
}
