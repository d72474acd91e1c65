package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SergeyParamoshkin/articles/internal/config"
	"github.com/SergeyParamoshkin/articles/internal/model"
)

// GormStore keeps articles in a relational database through gorm.
type GormStore struct {
	db *gorm.DB
}

// OpenPostgres connects to Postgres and sizes the connection pool.
func OpenPostgres(cfg config.DB) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres %s:%d/%s: %w: %v", cfg.Host, cfg.Port, cfg.Name, ErrStoreUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w: %v", ErrStoreUnavailable, err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxConnections)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return NewGormStore(db), nil
}

// NewGormStore wraps an already opened gorm handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the article table when it does not exist yet.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.Article{}); err != nil {
		return fmt.Errorf("migrate article table: %w", classify(err))
	}

	return nil
}

// Drop removes the article table.
func (s *GormStore) Drop(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Migrator().DropTable(&model.Article{}); err != nil {
		return fmt.Errorf("drop article table: %w", classify(err))
	}

	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ping store: %w", classify(err))
	}
	if err = sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping store: %w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (s *GormStore) Create(ctx context.Context, article *model.Article) error {
	if err := s.db.WithContext(ctx).Create(article).Error; err != nil {
		return fmt.Errorf("create article %s: %w", article.ArticleID, classify(err))
	}

	return nil
}

func (s *GormStore) GetOrNone(ctx context.Context, q model.ByID) (*model.Article, error) {
	var article model.Article

	err := s.db.WithContext(ctx).
		Where("article_id = ?", q.Value).
		Take(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", q.Value, classify(err))
	}

	return &article, nil
}

func (s *GormStore) Execute(ctx context.Context, q model.Limit) ([]*model.Article, error) {
	if q.N <= 0 {
		return nil, fmt.Errorf("list articles: limit %d: %w", q.N, ErrQuery)
	}

	var articles []*model.Article
	if err := s.db.WithContext(ctx).Limit(q.N).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", classify(err))
	}

	return articles, nil
}

// classify maps driver errors onto the store error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"),
		strings.Contains(err.Error(), "duplicate key value"):
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, gorm.ErrInvalidDB):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%w: %v", ErrQuery, err)
}
