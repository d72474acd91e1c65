package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/articles/internal/cache"
	"github.com/SergeyParamoshkin/articles/internal/metrics"
	"github.com/SergeyParamoshkin/articles/internal/model"
	"github.com/SergeyParamoshkin/articles/internal/store"
)

const (
	DefaultTTL       = 120 * time.Second
	DefaultListLimit = 100

	nameLength = 15
	bodyLength = 100

	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var ErrNotFound = errors.New("article not found")

// Sampler decides, once per read, whether the cache takes part in it.
type Sampler func() bool

// AlwaysCache is the sampler used when none is configured.
func AlwaysCache() bool {
	return true
}

// Handler serves articles from the cache when it can and from the store
// otherwise. Cache failures never fail a read; store failures always do.
type Handler struct {
	store store.Store
	cache cache.Cache

	ttl           time.Duration
	listLimit     int
	probabilistic bool
	sampler       Sampler

	logger  *zap.SugaredLogger
	metrics metrics.Recorder
}

type Option func(*Handler)

func WithTTL(ttl time.Duration) Option {
	return func(h *Handler) {
		h.ttl = ttl
	}
}

func WithListLimit(n int) Option {
	return func(h *Handler) {
		h.listLimit = n
	}
}

// WithProbabilisticCache turns on consulting the sampler before each read.
// With it off every read uses the cache.
func WithProbabilisticCache(enabled bool) Option {
	return func(h *Handler) {
		h.probabilistic = enabled
	}
}

func WithSampler(s Sampler) Option {
	return func(h *Handler) {
		h.sampler = s
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(h *Handler) {
		h.metrics = r
	}
}

// NewHandler wires a handler over st and c. A nil c disables caching.
func NewHandler(st store.Store, c cache.Cache, logger *zap.SugaredLogger, opts ...Option) *Handler {
	h := &Handler{
		store:     st,
		cache:     c,
		ttl:       DefaultTTL,
		listLimit: DefaultListLimit,
		sampler:   AlwaysCache,
		logger:    logger,
		metrics:   metrics.Noop{},
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Read returns the article with the given id, or ErrNotFound.
func (h *Handler) Read(ctx context.Context, articleID string) (*model.Article, error) {
	useCache := h.useCache()
	key := cache.Key(articleID)

	if useCache {
		if article, ok := h.lookup(ctx, key); ok {
			h.metrics.CacheHit(ctx)
			return article, nil
		}
		h.metrics.CacheMiss(ctx)
	} else {
		h.metrics.CacheBypass(ctx)
	}

	h.metrics.StoreRead(ctx)
	article, err := h.store.GetOrNone(ctx, model.ByID{Value: articleID})
	if err != nil {
		return nil, fmt.Errorf("read article %s: %w", articleID, err)
	}
	if article == nil {
		return nil, ErrNotFound
	}

	if useCache {
		h.populate(ctx, key, article)
	}

	return article, nil
}

// Create persists a new article, filling missing fields with generated
// values. It does not touch the cache.
func (h *Handler) Create(ctx context.Context, fields model.Fields) (*model.Article, error) {
	article := &model.Article{
		ArticleID: uuid.NewString(),
		Status:    0,
	}

	if fields.Status != nil {
		article.Status = *fields.Status
	}
	if fields.Name != nil {
		article.Name = *fields.Name
	} else {
		article.Name = RandomString(nameLength)
	}
	if fields.Body != nil {
		article.Body = *fields.Body
	} else {
		article.Body = RandomString(bodyLength)
	}

	if err := h.store.Create(ctx, article); err != nil {
		return nil, err
	}
	h.metrics.ArticleCreated(ctx)

	return article, nil
}

// List returns up to the configured limit of articles straight from the store.
func (h *Handler) List(ctx context.Context) ([]*model.Article, error) {
	return h.store.Execute(ctx, model.Limit{N: h.listLimit})
}

func (h *Handler) useCache() bool {
	if h.cache == nil {
		return false
	}
	if !h.probabilistic {
		return true
	}

	return h.sampler()
}

func (h *Handler) lookup(ctx context.Context, key string) (*model.Article, bool) {
	raw, found, err := h.cache.Get(ctx, key)
	if err != nil {
		h.metrics.CacheError(ctx, "get")
		h.logger.Warnw("cache get failed, reading from store", "key", key, "error", err)

		return nil, false
	}
	if !found {
		return nil, false
	}

	var article model.Article
	if err = json.Unmarshal([]byte(raw), &article); err != nil {
		h.metrics.CacheError(ctx, "decode")
		h.logger.Warnw("discarding malformed cache entry", "key", key, "error", err)

		return nil, false
	}

	return &article, true
}

func (h *Handler) populate(ctx context.Context, key string, article *model.Article) {
	raw, err := json.Marshal(article)
	if err != nil {
		h.metrics.CacheError(ctx, "encode")
		h.logger.Errorw("encode article for cache", "key", key, "error", err)

		return
	}

	if err = h.cache.Set(ctx, key, string(raw), h.ttl); err != nil {
		h.metrics.CacheError(ctx, "set")
		h.logger.Warnw("cache set failed", "key", key, "error", err)
	}
}

// RandomString returns n characters drawn from [a-zA-Z0-9].
func RandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}

	return string(b)
}
