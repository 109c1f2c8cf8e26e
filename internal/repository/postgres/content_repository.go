package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/content"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) Create(ctx context.Context, c *content.Content) error {
	if err := conn(ctx, r.db).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return content.ErrSlugTaken
		}
		return fmt.Errorf("creating content: %w", err)
	}
	return nil
}

func (r *ContentRepository) GetByID(ctx context.Context, id uuid.UUID) (*content.Content, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ContentRepository) GetBySlug(ctx context.Context, slug string) (*content.Content, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *ContentRepository) first(ctx context.Context, where string, arg any) (*content.Content, error) {
	var c content.Content
	if err := conn(ctx, r.db).First(&c, where, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, content.ErrContentNotFound
		}
		return nil, fmt.Errorf("getting content: %w", err)
	}
	return &c, nil
}

// Save writes every column except the view counter, which only moves
// through IncrementViews.
func (r *ContentRepository) Save(ctx context.Context, c *content.Content) error {
	if err := conn(ctx, r.db).Omit("views").Save(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return content.ErrSlugTaken
		}
		return fmt.Errorf("saving content: %w", err)
	}
	return nil
}

func (r *ContentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&content.Content{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting content: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return content.ErrContentNotFound
	}
	return nil
}

func (r *ContentRepository) List(ctx context.Context, q *content.ListContentQuery) (*content.PagedContent, error) {
	p := newPage(q.Page, q.PageSize)
	db := conn(ctx, r.db).Model(&content.Content{})

	if q.Published != nil {
		db = db.Where("published = ?", *q.Published)
	}
	if q.AuthorID != nil {
		db = db.Where("author_id = ?", *q.AuthorID)
	}
	if q.Category != "" {
		db = db.Where("categories @> ?", jsonArray(q.Category))
	}
	if q.Tag != "" {
		db = db.Where("tags @> ?", jsonArray(q.Tag))
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		db = db.Where("title ILIKE ? OR summary ILIKE ?", like, like)
	}

	var items []*content.Content
	total, err := paginate(db, p, "published_at DESC NULLS LAST, created_at DESC", &items)
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}

	return &content.PagedContent{
		Items:      items,
		TotalCount: total,
		Page:       p.number,
		PageSize:   p.size,
		TotalPages: p.totalPages(total),
	}, nil
}

func (r *ContentRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	db := conn(ctx, r.db).Model(&content.Content{}).Where("slug = ?", slug)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return n > 0, nil
}

func (r *ContentRepository) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	c := content.Content{ID: id}
	res := conn(ctx, r.db).Model(&c).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "views"}}}).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("incrementing views: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, content.ErrContentNotFound
	}
	return c.Views, nil
}

func jsonArray(v string) string {
	b, _ := json.Marshal([]string{v})
	return string(b)
}
