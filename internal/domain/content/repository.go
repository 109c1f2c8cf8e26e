package content

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Content) error
	GetByID(ctx context.Context, id uuid.UUID) (*Content, error)
	GetBySlug(ctx context.Context, slug string) (*Content, error)
	Save(ctx context.Context, c *Content) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListContentQuery) (*PagedContent, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	// IncrementViews adds one to the view counter in a single statement and
	// returns the new value.
	IncrementViews(ctx context.Context, id uuid.UUID) (int64, error)
}
