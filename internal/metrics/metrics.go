package metrics

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	opKey     = attribute.Key("op")
	methodKey = attribute.Key("method")
	statusKey = attribute.Key("status")
)

// Recorder receives read-path and request events.
type Recorder interface {
	CacheHit(ctx context.Context)
	CacheMiss(ctx context.Context)
	CacheError(ctx context.Context, op string)
	CacheBypass(ctx context.Context)
	StoreRead(ctx context.Context)
	ArticleCreated(ctx context.Context)
	RequestCompleted(ctx context.Context, method string, status int, elapsed time.Duration)
}

// Noop discards everything.
type Noop struct{}

func (Noop) CacheHit(context.Context)                                     {}
func (Noop) CacheMiss(context.Context)                                    {}
func (Noop) CacheError(context.Context, string)                           {}
func (Noop) CacheBypass(context.Context)                                  {}
func (Noop) StoreRead(context.Context)                                    {}
func (Noop) ArticleCreated(context.Context)                               {}
func (Noop) RequestCompleted(context.Context, string, int, time.Duration) {}

// Instruments records events as OpenTelemetry counters.
type Instruments struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	errors    metric.Int64Counter
	bypass    metric.Int64Counter
	reads     metric.Int64Counter
	created   metric.Int64Counter
	completed metric.Int64Counter
	latency   metric.Float64ValueRecorder
}

func New(meter metric.Meter) *Instruments {
	m := metric.Must(meter)

	return &Instruments{
		hits: m.NewInt64Counter("articles/cache/hits",
			metric.WithDescription("Reads served from the cache")),
		misses: m.NewInt64Counter("articles/cache/misses",
			metric.WithDescription("Reads that fell through to the store")),
		errors: m.NewInt64Counter("articles/cache/errors",
			metric.WithDescription("Cache failures absorbed by the read path, by operation")),
		bypass: m.NewInt64Counter("articles/cache/bypass",
			metric.WithDescription("Reads where the sampler skipped the cache")),
		reads: m.NewInt64Counter("articles/store/reads",
			metric.WithDescription("Single-article store lookups")),
		created: m.NewInt64Counter("articles/created",
			metric.WithDescription("Articles persisted")),
		completed: m.NewInt64Counter("http/server/completed_count",
			metric.WithDescription("Count of completed requests, by HTTP method and response status")),
		latency: m.NewFloat64ValueRecorder("http/server/latency",
			metric.WithDescription("Request latency in milliseconds")),
	}
}

func (i *Instruments) CacheHit(ctx context.Context)    { i.hits.Add(ctx, 1) }
func (i *Instruments) CacheMiss(ctx context.Context)   { i.misses.Add(ctx, 1) }
func (i *Instruments) CacheBypass(ctx context.Context) { i.bypass.Add(ctx, 1) }
func (i *Instruments) StoreRead(ctx context.Context)   { i.reads.Add(ctx, 1) }

func (i *Instruments) ArticleCreated(ctx context.Context) {
	i.created.Add(ctx, 1)
}

func (i *Instruments) CacheError(ctx context.Context, op string) {
	i.errors.Add(ctx, 1, opKey.String(op))
}

func (i *Instruments) RequestCompleted(ctx context.Context, method string, status int, elapsed time.Duration) {
	labels := []attribute.KeyValue{
		methodKey.String(method),
		statusKey.String(strconv.Itoa(status)),
	}
	i.completed.Add(ctx, 1, labels...)
	i.latency.Record(ctx, float64(elapsed)/float64(time.Millisecond), labels...)
}
