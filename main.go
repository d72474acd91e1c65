//
// ARTICLES
// ========
// A HTTP service for an "article" resource kept in Postgres, with reads
// served through a Redis cache-aside layer.
//
// Print the route docs with `go run . -routes`.
//
// Boot the server:
// ----------------
// $ go run . -config config.yaml
//
// Client requests:
// ----------------
// $ curl -X POST http://localhost:8080/article
//
// $ curl -X POST -d '{"name":"hello"}' http://localhost:8080/article
//
// $ curl http://localhost:8080/articles
// [{"article_id":"5b0e...","status":0,"name":"hello","body":"..."}]
//
// $ curl http://localhost:8080/article/5b0e...
// {"article_id":"5b0e...","status":0,"name":"hello","body":"..."}
//
// $ curl http://localhost:8080/article/unknown
// {"status":"Resource not found."}
//
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/docgen"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric/global"
	export "go.opentelemetry.io/otel/sdk/export/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregator/histogram"
	controller "go.opentelemetry.io/otel/sdk/metric/controller/basic"
	processor "go.opentelemetry.io/otel/sdk/metric/processor/basic"
	selector "go.opentelemetry.io/otel/sdk/metric/selector/simple"

	"github.com/SergeyParamoshkin/articles/internal/article"
	"github.com/SergeyParamoshkin/articles/internal/cache"
	"github.com/SergeyParamoshkin/articles/internal/config"
	"github.com/SergeyParamoshkin/articles/internal/executor"
	"github.com/SergeyParamoshkin/articles/internal/metrics"
	"github.com/SergeyParamoshkin/articles/internal/store"
)

const ServiceName = "articles"

type CtxKey int8

const (
	CtxKeyLogger CtxKey = iota
)

//go:embed static/favicon.ico
var favicon []byte

type App struct {
	sugarLogger *zap.SugaredLogger
	config      *config.Config
	metrics     metrics.Recorder
}

// nolint
func main() {
	var (
		routes        = flag.Bool("routes", config.GetEnvBool(config.EnvPrefix+"ROUTES", false), "Generate router documentation")
		configPath    = flag.String("config", config.GetEnv(config.EnvPrefix+"CONFIG", ""), "path to a YAML config file")
		host          = flag.String("host", "", "application host")
		port          = flag.Int("port", 0, "application port")
		diagAddr      = flag.String("diag_addr", "", "diag address")
		probabilistic = flag.Bool("probabilistic", false, "consult the cache sampler on every read")
	)

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.App.Host = *host
		case "port":
			cfg.App.Port = *port
		case "diag_addr":
			cfg.App.DiagAddr = *diagAddr
		case "probabilistic":
			cfg.Cache.Probabilistic = *probabilistic
		}
	})
	if err = cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync() // flushes buffer, if any
	sugar := logger.Sugar()

	promConfig := prometheus.Config{}
	c := controller.New(
		processor.New(
			selector.NewWithHistogramDistribution(
				histogram.WithExplicitBoundaries(promConfig.DefaultHistogramBoundaries),
			),
			export.CumulativeExportKindSelector(),
			processor.WithMemory(true),
		),
	)
	exporter, err := prometheus.New(promConfig, c)
	if err != nil {
		sugar.Panicf("failed to initialize prometheus exporter %v", err)
	}
	global.SetMeterProvider(exporter.MeterProvider())

	a := App{
		sugarLogger: sugar,
		config:      cfg,
		metrics:     metrics.New(global.Meter(ServiceName)),
	}

	if *routes {
		// nolint
		fmt.Println(docgen.MarkdownRoutesDoc(a.Router(nil), docgen.MarkdownOpts{
			ProjectPath: "github.com/SergeyParamoshkin/articles",
			Intro:       "Routes of the articles service.",
		}))

		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = a.Run(ctx, exporter); err != nil {
		sugar.Errorw("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

// Run wires the store, cache and handler, serves until ctx is done and
// then shuts everything down.
func (a *App) Run(ctx context.Context, diag http.Handler) error {
	cfg := a.config

	db, err := store.OpenPostgres(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = db.Migrate(ctx); err != nil {
		return err
	}

	pool := executor.New(cfg.App.WorkerPoolSize)
	defer pool.Close()

	var c cache.Cache
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		m := cache.NewMemory(cache.WithSweepInterval(cfg.Cache.SweepInterval))
		defer m.Close()
		c = m
	default:
		r := cache.NewRedis(cache.NewRedisClient(cfg.Cache), pool, cfg.Cache.OpTimeout)
		defer r.Close()
		if err = r.Ping(ctx); err != nil {
			// reads fall back to the store until the cache comes up
			a.sugarLogger.Warnw("cache is not reachable at startup", "nodes", cfg.Cache.Nodes, "error", err)
		}
		c = r
	}

	if cfg.Cache.Probabilistic {
		a.sugarLogger.Infow("probabilistic cache enabled, sampler admits every read")
	}

	h := article.NewHandler(db, c, a.sugarLogger,
		article.WithTTL(cfg.Cache.TTL),
		article.WithListLimit(cfg.App.ListLimit),
		article.WithProbabilisticCache(cfg.Cache.Probabilistic),
		article.WithSampler(article.AlwaysCache),
		article.WithMetrics(a.metrics),
	)

	diagRouter := chi.NewRouter()
	if diag != nil {
		diagRouter.Get("/metrics", diag.ServeHTTP)
	}

	appSrv := &http.Server{Addr: cfg.App.Addr(), Handler: a.Router(h)}
	diagSrv := &http.Server{Addr: cfg.App.DiagAddr, Handler: diagRouter}

	errCh := make(chan error, 2)
	for _, srv := range []*http.Server{appSrv, diagSrv} {
		go func(srv *http.Server) {
			a.sugarLogger.Infow("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	for _, srv := range []*http.Server{appSrv, diagSrv} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.sugarLogger.Errorw("shutdown", "addr", srv.Addr, "error", err)
		}
	}

	if cfg.DB.DropOnShutdown {
		if err := db.Drop(shutdownCtx); err != nil {
			a.sugarLogger.Errorw(err.Error())
		}
	}

	return runErr
}

// Router builds the public HTTP surface. A nil handler still yields the
// full route tree, which is enough for docgen.
func (a *App) Router(h *article.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(a.Logger)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(a.Metrics)
	r.Use(article.LimitBody(a.config.App.MaxBodySize))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("root."))
		if err != nil {
			a.sugarLogger.Errorw(err.Error())
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/x-icon")
		_, err := w.Write(favicon)
		if err != nil {
			a.sugarLogger.Errorw(err.Error())
		}
	})

	rs := article.NewResource(h, a.sugarLogger, a.config.App.CreateOnGet)
	r.Mount("/", rs.Routes())

	return r
}

func (a *App) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CtxKeyLogger, a.sugarLogger)))
	})
}

func (a *App) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.metrics.RequestCompleted(r.Context(), r.Method, status, time.Since(start))
	})
}

// This is entirely optional, but I wanted to demonstrate how you could easily
// add your own logic to the render.Respond method.
// nolint
func init() {
	render.Respond = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		if err, ok := v.(error); ok {

			// We set a default error status response code if one hasn't been set.
			if _, ok := r.Context().Value(render.StatusCtxKey).(int); !ok {
				w.WriteHeader(400)
			}

			// We log the error
			if logger, ok := r.Context().Value(CtxKeyLogger).(*zap.SugaredLogger); ok {
				logger.Errorw("render error", "error", err)
			}

			// We change the response to not reveal the actual error message,
			// instead we can transform the message something more friendly or mapped
			// to some code / language, etc.
			render.DefaultResponder(w, r, render.M{"status": "error"})

			return
		}

		render.DefaultResponder(w, r, v)
	}
}
