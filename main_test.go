package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SergeyParamoshkin/articles/internal/article"
	"github.com/SergeyParamoshkin/articles/internal/cache"
	"github.com/SergeyParamoshkin/articles/internal/config"
	"github.com/SergeyParamoshkin/articles/internal/metrics"
	"github.com/SergeyParamoshkin/articles/internal/store"
)

func newTestApp(t *testing.T) (*httptest.Server, *cache.Memory) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:main_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	st := store.NewGormStore(db)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = st.Drop(context.Background())
		_ = st.Close()
	})

	cfg := config.Default()
	cfg.Cache.Backend = config.CacheBackendMemory

	sugar := zap.NewNop().Sugar()
	a := &App{sugarLogger: sugar, config: cfg, metrics: metrics.Noop{}}

	mem := cache.NewMemory()
	h := article.NewHandler(st, mem, sugar, article.WithTTL(cfg.Cache.TTL))

	srv := httptest.NewServer(a.Router(h))
	t.Cleanup(srv.Close)

	return srv, mem
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func TestRouter_Plumbing(t *testing.T) {
	srv, _ := newTestApp(t)

	resp, body := get(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "root.", string(body))

	resp, _ = get(t, srv.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, srv.URL+"/favicon.ico")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, favicon, body)
	require.NotEmpty(t, body)
}

func TestRouter_CreateListRead(t *testing.T) {
	srv, mem := newTestApp(t)

	for i := 0; i < 3; i++ {
		resp, err := http.Post(srv.URL+"/article", "application/json", strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, body := get(t, srv.URL+"/articles")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 3)

	id := list[0]["article_id"].(string)
	require.Equal(t, 0, mem.Len())

	resp, body = get(t, srv.URL+"/article/"+id)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, mem.Len())

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, list[0], got)

	resp, _ = get(t, srv.URL+"/article/unknown")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
