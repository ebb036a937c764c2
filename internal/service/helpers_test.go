package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/jobs"
	"github.com/noah-isme/djschool-api/pkg/query"
)

// memoryCache is an in-process CacheRepository with Redis-like glob deletes.
type memoryCache struct {
	mu        sync.Mutex
	items     map[string][]byte
	deleted   []string
	deleteErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, pattern)
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *memoryCache) has(prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if ok, _ := path.Match(prefix+"*", key); ok {
			return true
		}
	}
	return false
}

// recordingQueue captures delayed jobs instead of running them.
type recordingQueue struct {
	mu     sync.Mutex
	jobs   []jobs.Job
	delays []time.Duration
	err    error
}

func (q *recordingQueue) EnqueueAfter(job jobs.Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	q.delays = append(q.delays, delay)
	return nil
}

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

// testCollections wires collections over db with an in-memory cache.
func testCollections(db *sqlx.DB, cache *memoryCache) (*Collections, *CacheService) {
	cacheSvc := NewCacheService(cache, nil, time.Minute, nil, true)
	return NewCollections(db, CollectionOptions{Cache: cacheSvc, TTL: time.Minute}), cacheSvc
}

func asUser(ctx context.Context, id string, role models.UserRole) context.Context {
	return WithClaims(ctx, &models.JWTClaims{UserID: id, Role: role, Email: id + "@example.com"})
}

var errBoom = errors.New("boom")

// staticCollection serves rows regardless of the spec and counts loads.
func staticCollection[T any](tag string, rows []T, loads *int64) *Collection[T] {
	return NewCollectionFunc[T](tag, query.Spec{Table: tag}, func(context.Context, query.Spec) ([]T, error) {
		if loads != nil {
			atomic.AddInt64(loads, 1)
		}
		out := make([]T, len(rows))
		copy(out, rows)
		return out, nil
	}, CollectionOptions{})
}
