package article

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/articles/internal/errresponse"
	"github.com/SergeyParamoshkin/articles/internal/model"
)

type ctxKey int8

const ctxKeyArticle ctxKey = iota

// ArticleCtx middleware is used to load an Article object from
// the URL parameters passed through as the request. In case
// the Article could not be found, we stop here and return a 404.
func (rs *Resource) ArticleCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		articleID := chi.URLParam(r, "articleID")
		if articleID == "" {
			rs.render(w, r, errresponse.ErrNotFound)
			return
		}

		if rs.createOnGet {
			if _, err := rs.handler.Create(r.Context(), model.Fields{}); err != nil {
				rs.logger.Errorw("create before read", "error", err)
				rs.render(w, r, errresponse.ErrUnavailable(err))

				return
			}
		}

		article, err := rs.handler.Read(r.Context(), articleID)
		switch {
		case errors.Is(err, ErrNotFound):
			rs.render(w, r, errresponse.ErrNotFound)
			return
		case err != nil:
			rs.logger.Errorw("read article", "article_id", articleID, "error", err)
			rs.render(w, r, errresponse.ErrUnavailable(err))

			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyArticle, article)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the article loaded by ArticleCtx.
func FromContext(ctx context.Context) (*model.Article, bool) {
	article, ok := ctx.Value(ctxKeyArticle).(*model.Article)

	return article, ok
}

// LimitBody caps request bodies at n bytes.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rs *Resource) render(w http.ResponseWriter, r *http.Request, v render.Renderer) {
	if err := render.Render(w, r, v); err != nil {
		rs.logger.Errorw(err.Error())
	}
}
