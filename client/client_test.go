// client_test.go
//go:build !integration

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	posted []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.posted = append(r.posted, s)
	r.mu.Unlock()
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.posted...)
}

func newStubServer(t *testing.T) (*Client, *recorder) {
	t.Helper()

	posted := &recorder{}
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})
	r.Get("/article/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "1" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(Article{ArticleID: "1", Name: "n", Body: "b"})
	})
	r.Post("/article", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		posted.add(string(body))
	})
	r.Get("/articles", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Article{{ArticleID: "1"}, {ArticleID: "2"}})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &Client{Addr: srv.URL}, posted
}

func TestClient_Healthz(t *testing.T) {
	c, _ := newStubServer(t)

	require.NoError(t, c.Healthz(context.Background()))
}

func TestClient_GetArticle(t *testing.T) {
	c, _ := newStubServer(t)

	a, err := c.GetArticle(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, &Article{ArticleID: "1", Name: "n", Body: "b"}, a)

	_, err = c.GetArticle(context.Background(), "2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClient_CreateArticle(t *testing.T) {
	c, posted := newStubServer(t)
	name := "hello"

	require.NoError(t, c.CreateArticle(context.Background(), nil))
	require.NoError(t, c.CreateArticle(context.Background(), &NewArticle{Name: &name}))

	require.Equal(t, []string{"", `{"name":"hello"}`}, posted.all())
}

func TestClient_ListArticles(t *testing.T) {
	c, _ := newStubServer(t)

	list, err := c.ListArticles(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
}
