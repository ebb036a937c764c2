package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/pkg/query"
)

func TestCollectionsSharingTagKeepSeparatePages(t *testing.T) {
	cache := newMemoryCache()
	opts := CollectionOptions{Cache: NewCacheService(cache, nil, time.Minute, nil, true), TTL: time.Minute}
	modules := NewCollectionFunc[models.CurriculumModule](TagCurriculum, query.Spec{Table: "curriculum_modules"},
		func(context.Context, query.Spec) ([]models.CurriculumModule, error) {
			return []models.CurriculumModule{{ID: "m1", Title: "Foundations"}}, nil
		}, opts)
	lessons := NewCollectionFunc[models.CurriculumLesson](TagCurriculum, query.Spec{Table: "curriculum_lessons"},
		func(context.Context, query.Spec) ([]models.CurriculumLesson, error) {
			return []models.CurriculumLesson{{ID: "l1", ModuleID: "m1", Title: "Counting bars"}}, nil
		}, opts)
	ctx := context.Background()

	require.NoError(t, modules.Fetch(ctx).Err)
	state := lessons.Fetch(ctx)
	require.NoError(t, state.Err)
	assert.False(t, state.FromCache)
	require.Len(t, state.Data, 1)
	assert.Equal(t, "l1", state.Data[0].ID)

	again := modules.Fetch(ctx)
	assert.True(t, again.FromCache)
	assert.Equal(t, "m1", again.Data[0].ID)

	require.NoError(t, lessons.Invalidate(ctx))
	assert.False(t, cache.has("coll:"+TagCurriculum+":"))
}
