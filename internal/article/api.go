package article

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/articles/internal/articlerequest"
	"github.com/SergeyParamoshkin/articles/internal/articleresponse"
	"github.com/SergeyParamoshkin/articles/internal/errresponse"
)

// Resource maps the article HTTP surface onto a Handler.
type Resource struct {
	handler     *Handler
	logger      *zap.SugaredLogger
	createOnGet bool
}

// NewResource builds the views. With createOnGet set, every
// GET /article/{id} first creates a filler article.
func NewResource(h *Handler, logger *zap.SugaredLogger, createOnGet bool) *Resource {
	return &Resource{
		handler:     h,
		logger:      logger,
		createOnGet: createOnGet,
	}
}

// Routes registers the article routes on a fresh router.
func (rs *Resource) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/article", rs.CreateArticle) // POST /article
	r.Get("/articles", rs.ListArticles)  // GET /articles

	r.Route("/article/{articleID}", func(r chi.Router) {
		r.Use(rs.ArticleCtx)      // Load the *Article on the request context
		r.Get("/", rs.GetArticle) // GET /article/123
	})

	return r
}

// ListArticles returns a bounded, uncached page of articles. A failed query
// answers 404, same as the service always did.
func (rs *Resource) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := rs.handler.List(r.Context())
	if err != nil {
		rs.logger.Errorw("list articles query failed", "error", err)
		rs.render(w, r, errresponse.ErrNotFound)

		return
	}

	if err = render.RenderList(w, r, articleresponse.NewArticleListResponse(articles)); err != nil {
		rs.render(w, r, errresponse.ErrRender(err))
	}
}

// CreateArticle persists a new Article from an optional JSON body and
// answers 200 with no content.
func (rs *Resource) CreateArticle(w http.ResponseWriter, r *http.Request) {
	data := &articlerequest.ArticleRequest{}

	err := render.DecodeJSON(r.Body, data)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		rs.render(w, r, errresponse.ErrTooLarge(err))
		return
	}
	if err != nil && !errors.Is(err, io.EOF) {
		rs.render(w, r, errresponse.ErrInvalidRequest(err))
		return
	}
	if err = data.Bind(r); err != nil {
		rs.render(w, r, errresponse.ErrInvalidRequest(err))
		return
	}

	article, err := rs.handler.Create(r.Context(), data.Fields)
	if err != nil {
		rs.logger.Errorw("create article", "error", err)
		rs.render(w, r, errresponse.ErrUnavailable(err))

		return
	}

	rs.logger.Debugw("article created", "article_id", article.ArticleID)
	w.WriteHeader(http.StatusOK)
}

// GetArticle returns the Article loaded by ArticleCtx.
func (rs *Resource) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := FromContext(r.Context())
	if !ok {
		rs.render(w, r, errresponse.ErrNotFound)
		return
	}

	if err := render.Render(w, r, articleresponse.NewArticleResponse(article)); err != nil {
		rs.render(w, r, errresponse.ErrRender(err))
	}
}
