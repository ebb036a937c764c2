package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/query"
)

// State is the outcome of a collection read.
type State[T any] struct {
	Data      []T
	Err       error
	Kind      appErrors.Kind
	FromCache bool
	FetchedAt time.Time
}

// Unwrap returns the data or the error.
func (s State[T]) Unwrap() ([]T, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Data, nil
}

// Loader reads rows for a fully built spec.
type Loader[T any] func(ctx context.Context, spec query.Spec) ([]T, error)

type cachedPage[T any] struct {
	Data      []T       `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Collection is a cached, filterable view of one table. Cache entries are
// keyed by tag and condition set so a write can drop every variant with one
// pattern.
type Collection[T any] struct {
	tag    string
	base   query.Spec
	load   Loader[T]
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// CollectionOptions configures caching for a collection.
type CollectionOptions struct {
	Cache  *CacheService
	TTL    time.Duration
	Logger *zap.Logger
}

// NewCollection reads base.Table through db.
func NewCollection[T any](tag string, db sqlx.QueryerContext, base query.Spec, opts CollectionOptions) *Collection[T] {
	c := newCollection[T](tag, base, opts)
	c.load = func(ctx context.Context, spec query.Spec) ([]T, error) {
		return query.Select[T](ctx, db, spec)
	}
	return c
}

// NewCollectionFunc reads through an arbitrary loader.
func NewCollectionFunc[T any](tag string, base query.Spec, load Loader[T], opts CollectionOptions) *Collection[T] {
	c := newCollection[T](tag, base, opts)
	c.load = load
	return c
}

func newCollection[T any](tag string, base query.Spec, opts CollectionOptions) *Collection[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{
		tag:    tag,
		base:   base,
		cache:  opts.Cache,
		ttl:    opts.TTL,
		logger: logger,
		now:    time.Now,
	}
}

// Tag returns the invalidation tag.
func (c *Collection[T]) Tag() string { return c.tag }

// Spec returns the base spec narrowed by where.
func (c *Collection[T]) Spec(where ...query.Condition) query.Spec {
	spec := c.base
	spec.Where = append(append([]query.Condition(nil), c.base.Where...), where...)
	return spec
}

// Fetch reads rows matching where, consulting the cache first.
func (c *Collection[T]) Fetch(ctx context.Context, where ...query.Condition) State[T] {
	return c.FetchSpec(ctx, c.Spec(where...))
}

// FetchSpec reads rows for an explicit spec derived from Spec.
func (c *Collection[T]) FetchSpec(ctx context.Context, spec query.Spec) State[T] {
	key := c.key(spec)

	var cached cachedPage[T]
	if c.cache.Get(ctx, key, &cached) {
		return State[T]{Data: cached.Data, FromCache: true, FetchedAt: cached.FetchedAt}
	}

	rows, err := c.load(ctx, spec)
	if err != nil {
		kind := appErrors.KindOf(err)
		c.logger.Warn("collection fetch failed", zap.String("collection", c.tag), zap.String("kind", string(kind)), zap.Error(err))
		return State[T]{Err: err, Kind: kind}
	}
	if rows == nil {
		rows = make([]T, 0)
	}

	fetchedAt := c.now().UTC()
	c.cache.Set(ctx, key, cachedPage[T]{Data: rows, FetchedAt: fetchedAt}, c.ttl)
	return State[T]{Data: rows, FetchedAt: fetchedAt}
}

// MaybeOne reads at most one row, uncached. A missing row is (nil, nil).
func (c *Collection[T]) MaybeOne(ctx context.Context, where ...query.Condition) (*T, error) {
	spec := c.Spec(where...)
	spec.Limit = 1
	rows, err := c.load(ctx, spec)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Invalidate drops every cached variant of the collection.
func (c *Collection[T]) Invalidate(ctx context.Context) error {
	return c.cache.Invalidate(ctx, collectionPattern(c.tag))
}

func (c *Collection[T]) key(spec query.Spec) string {
	return "coll:" + c.tag + ":" + spec.Key()
}
