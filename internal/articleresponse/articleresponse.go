package articleresponse

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/articles/internal/model"
)

// ArticleResponse is the response payload for the Article data model. It
// renders exactly the four stored fields.
type ArticleResponse struct {
	*model.Article
}

func NewArticleListResponse(articles []*model.Article) []render.Renderer {
	list := make([]render.Renderer, 0, len(articles))
	for _, article := range articles {
		list = append(list, NewArticleResponse(article))
	}

	return list
}

func NewArticleResponse(article *model.Article) *ArticleResponse {
	return &ArticleResponse{Article: article}
}

func (rd *ArticleResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
