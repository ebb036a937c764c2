package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/jobs"
)

// JobTypeRefresh is the job type for delayed invalidations.
const JobTypeRefresh = "refresh.invalidate"

type delayedQueue interface {
	EnqueueAfter(job jobs.Job, delay time.Duration) error
}

// Mutation describes one coordinated write.
type Mutation[T any] struct {
	// Name labels metrics and logs.
	Name string
	// RequireActor rejects calls without an authenticated caller in ctx.
	RequireActor bool
	// TargetID is checked for emptiness when RequireTarget is set.
	TargetID      string
	RequireTarget bool
	// Check runs after the built-in preconditions and before the write.
	Check func(ctx context.Context) error
	// Write performs the change and returns the stored row.
	Write func(ctx context.Context) (T, error)
	// Success is the notice returned on success.
	Success string
	// Invalidate lists collection tags the write can affect.
	Invalidate []string
}

// Result is the outcome of RunMutation.
type Result[T any] struct {
	Value  T
	Notice string
}

// RefreshCoordinator drops cached reads after writes and optionally schedules
// delayed repeat invalidations.
type RefreshCoordinator struct {
	cache   *CacheService
	queue   delayedQueue
	delays  []time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// RefreshCoordinatorConfig configures a RefreshCoordinator.
type RefreshCoordinatorConfig struct {
	Cache          *CacheService
	Queue          delayedQueue
	FollowUpDelays []time.Duration
	Metrics        *MetricsService
	Logger         *zap.Logger
}

// NewRefreshCoordinator constructs a coordinator.
func NewRefreshCoordinator(cfg RefreshCoordinatorConfig) *RefreshCoordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshCoordinator{
		cache:   cfg.Cache,
		queue:   cfg.Queue,
		delays:  cfg.FollowUpDelays,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// RunMutation checks preconditions, performs the write and, only when it
// succeeds, invalidates the affected collections and every dashboard. A
// failed write leaves caches untouched and returns the error with a notice.
func RunMutation[T any](ctx context.Context, c *RefreshCoordinator, m Mutation[T]) (Result[T], error) {
	var zero Result[T]
	if err := preconditions(ctx, m); err != nil {
		return Result[T]{Notice: noticeFor(err)}, err
	}
	if m.Write == nil {
		return zero, appErrors.Clone(appErrors.ErrInternal, "mutation has no write")
	}

	value, err := m.Write(ctx)
	c.metrics.RecordMutation(m.Name, err)
	if err != nil {
		c.logger.Info("mutation failed", zap.String("mutation", m.Name), zap.String("kind", string(appErrors.KindOf(err))), zap.Error(err))
		return Result[T]{Notice: noticeFor(err)}, err
	}

	c.InvalidateTags(ctx, m.Invalidate...)
	c.scheduleFollowUps(m.Name, m.Invalidate)

	notice := m.Success
	if notice == "" {
		notice = "Saved"
	}
	return Result[T]{Value: value, Notice: notice}, nil
}

func preconditions[T any](ctx context.Context, m Mutation[T]) error {
	if m.RequireActor {
		if claims := ClaimsFrom(ctx); claims == nil || claims.UserID == "" {
			return appErrors.ErrUnauthorized
		}
	}
	if m.RequireTarget && m.TargetID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "id is required")
	}
	if m.Check != nil {
		return m.Check(ctx)
	}
	return nil
}

func noticeFor(err error) string {
	return appErrors.FromError(err).Message
}

// InvalidateTags drops the collections for tags and every dashboard. When a
// pattern cannot be dropped and a queue is configured, a retry is scheduled.
func (c *RefreshCoordinator) InvalidateTags(ctx context.Context, tags ...string) {
	if c == nil {
		return
	}
	var failed []string
	for _, pattern := range patterns(tags) {
		if err := c.cache.Invalidate(ctx, pattern); err != nil {
			failed = append(failed, pattern)
		}
	}
	if len(failed) > 0 && c.queue != nil {
		if err := c.queue.EnqueueAfter(refreshJob(failed), time.Second); err != nil {
			c.logger.Warn("schedule invalidation retry failed", zap.Strings("patterns", failed), zap.Error(err))
		}
	}
}

func (c *RefreshCoordinator) scheduleFollowUps(name string, tags []string) {
	if c.queue == nil || len(c.delays) == 0 {
		return
	}
	job := refreshJob(patterns(tags))
	for _, delay := range c.delays {
		if err := c.queue.EnqueueAfter(job, delay); err != nil {
			c.logger.Warn("schedule follow-up refresh failed", zap.String("mutation", name), zap.Duration("delay", delay), zap.Error(err))
		}
	}
}

// HandleRefreshJob is the job handler for JobTypeRefresh.
func (c *RefreshCoordinator) HandleRefreshJob(ctx context.Context, job jobs.Job) error {
	patterns, ok := job.Payload.([]string)
	if !ok {
		return fmt.Errorf("refresh job %s: unexpected payload %T", job.ID, job.Payload)
	}
	var firstErr error
	for _, p := range patterns {
		if err := c.cache.Invalidate(ctx, p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.metrics.RecordFollowUp(firstErr)
	return firstErr
}

func refreshJob(patterns []string) jobs.Job {
	return jobs.Job{ID: uuid.NewString(), Type: JobTypeRefresh, Payload: patterns}
}

func patterns(tags []string) []string {
	out := make([]string, 0, len(tags)+1)
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, collectionPattern(t))
	}
	return append(out, dashboardPattern)
}
