package articlerequest

import (
	"errors"
	"net/http"

	"github.com/SergeyParamoshkin/articles/internal/model"
)

const maxNameLength = 255

// ArticleRequest is the optional request payload of POST /article. Fields
// left out are generated by the handler.
type ArticleRequest struct {
	model.Fields

	ProtectedID string `json:"article_id"` // ids are always assigned by the server
}

// Bind runs after the body is decoded.
func (a *ArticleRequest) Bind(r *http.Request) error {
	a.ProtectedID = ""

	if a.Status != nil && *a.Status < 0 {
		return errors.New("status must not be negative")
	}
	if a.Name != nil && len(*a.Name) > maxNameLength {
		return errors.New("name is too long")
	}

	return nil
}
