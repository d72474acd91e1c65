package store

import (
	"context"
	"errors"

	"github.com/SergeyParamoshkin/articles/internal/model"
)

var (
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrQuery               = errors.New("query error")
)

// Store is the persistence contract consumed by the article handler.
//
// GetOrNone returns (nil, nil) for a missing row. Execute returns at most
// q.N records; a failure there must be treated by callers like an empty
// result.
type Store interface {
	Create(ctx context.Context, article *model.Article) error
	GetOrNone(ctx context.Context, q model.ByID) (*model.Article, error)
	Execute(ctx context.Context, q model.Limit) ([]*model.Article, error)
}
