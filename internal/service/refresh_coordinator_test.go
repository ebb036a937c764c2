package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/jobs"
)

func seededCache(t *testing.T) (*memoryCache, *CacheService) {
	t.Helper()
	cache := newMemoryCache()
	svc := NewCacheService(cache, nil, time.Minute, nil, true)
	ctx := context.Background()
	svc.Set(ctx, "coll:students:status=pending", []string{"s1"}, 0)
	svc.Set(ctx, "coll:profiles:id=s1", []string{"s1"}, 0)
	svc.Set(ctx, "dash:admin:overview", map[string]int{"pending": 1}, 0)
	return cache, svc
}

func TestRunMutationInvalidatesOnSuccess(t *testing.T) {
	cache, cacheSvc := seededCache(t)
	queue := &recordingQueue{}
	c := NewRefreshCoordinator(RefreshCoordinatorConfig{Cache: cacheSvc, Queue: queue, FollowUpDelays: []time.Duration{time.Second, 3 * time.Second}})
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)

	res, err := RunMutation(ctx, c, Mutation[string]{
		Name:       "test.write",
		Write:      func(context.Context) (string, error) { return "ok", nil },
		Success:    "Done",
		Invalidate: []string{TagStudents, TagStudents},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Value)
	assert.Equal(t, "Done", res.Notice)
	assert.False(t, cache.has("coll:students:"))
	assert.False(t, cache.has("dash:"))
	assert.True(t, cache.has("coll:profiles:"))
	assert.Equal(t, []string{"coll:students:*", "dash:*"}, cache.deleted)

	require.Len(t, queue.jobs, 2)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, queue.delays)
	assert.Equal(t, JobTypeRefresh, queue.jobs[0].Type)
	assert.Equal(t, []string{"coll:students:*", "dash:*"}, queue.jobs[0].Payload)
}

func TestRunMutationLeavesCacheOnFailure(t *testing.T) {
	cache, cacheSvc := seededCache(t)
	queue := &recordingQueue{}
	c := NewRefreshCoordinator(RefreshCoordinatorConfig{Cache: cacheSvc, Queue: queue, FollowUpDelays: []time.Duration{time.Second}})
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)

	res, err := RunMutation(ctx, c, Mutation[string]{
		Name: "test.write",
		Write: func(context.Context) (string, error) {
			return "", appErrors.Clone(appErrors.ErrConflict, "already exists")
		},
		Invalidate: []string{TagStudents},
	})
	require.Error(t, err)
	assert.Equal(t, "already exists", res.Notice)
	assert.True(t, cache.has("coll:students:"))
	assert.True(t, cache.has("dash:"))
	assert.Empty(t, cache.deleted)
	assert.Empty(t, queue.jobs)
}

func TestRunMutationPreconditionOrder(t *testing.T) {
	c := NewRefreshCoordinator(RefreshCoordinatorConfig{})
	wrote := false
	write := func(context.Context) (int, error) { wrote = true; return 1, nil }

	_, err := RunMutation(context.Background(), c, Mutation[int]{RequireActor: true, RequireTarget: true, Write: write})
	assert.True(t, appErrors.IsKind(err, appErrors.KindUnauthorized))

	ctx := asUser(context.Background(), "u1", models.RoleAdmin)
	res, err := RunMutation(ctx, c, Mutation[int]{RequireActor: true, RequireTarget: true, Write: write})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
	assert.Equal(t, "id is required", res.Notice)

	_, err = RunMutation(ctx, c, Mutation[int]{
		RequireActor:  true,
		TargetID:      "x",
		RequireTarget: true,
		Check:         func(context.Context) error { return appErrors.ErrForbidden },
		Write:         write,
	})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.False(t, wrote)

	res, err = RunMutation(ctx, c, Mutation[int]{TargetID: "x", RequireTarget: true, Write: write})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, "Saved", res.Notice)
}

func TestInvalidationFailureSchedulesRetry(t *testing.T) {
	cache, cacheSvc := seededCache(t)
	cache.deleteErr = errBoom
	queue := &recordingQueue{}
	c := NewRefreshCoordinator(RefreshCoordinatorConfig{Cache: cacheSvc, Queue: queue})

	c.InvalidateTags(context.Background(), TagPayments)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, time.Second, queue.delays[0])
	assert.Equal(t, []string{"coll:payments:*", "dash:*"}, queue.jobs[0].Payload)

	cache.deleteErr = nil
	require.NoError(t, c.HandleRefreshJob(context.Background(), queue.jobs[0]))
	assert.False(t, cache.has("dash:"))
}

func TestHandleRefreshJobRejectsBadPayload(t *testing.T) {
	c := NewRefreshCoordinator(RefreshCoordinatorConfig{})
	err := c.HandleRefreshJob(context.Background(), jobs.Job{ID: "j1", Type: JobTypeRefresh, Payload: 42})
	assert.Error(t, err)
}
