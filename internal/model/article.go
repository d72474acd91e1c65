package model

// Article data model. ArticleID is assigned once at creation and is the
// only lookup key used by the store and the cache.
type Article struct {
	ArticleID string `json:"article_id" gorm:"column:article_id;primaryKey;size:64"`
	Status    int    `json:"status" gorm:"column:status;not null;default:0"`
	Name      string `json:"name" gorm:"column:name;size:255"`
	Body      string `json:"body" gorm:"column:body;type:text"`
}

func (Article) TableName() string {
	return "article"
}

// Fields carries caller-supplied values for a new Article. Nil pointers are
// filled with generated defaults.
type Fields struct {
	Status *int    `json:"status,omitempty"`
	Name   *string `json:"name,omitempty"`
	Body   *string `json:"body,omitempty"`
}

// ByID selects a single Article by its identifier.
type ByID struct {
	Value string
}

// Limit selects up to N Articles in store-defined order.
type Limit struct {
	N int
}
