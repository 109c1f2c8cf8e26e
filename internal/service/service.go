package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/google/uuid"
)

type Page[T any] struct {
	Items      []T
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}

// contacts resolves user ids to their public contact card. Ids without a
// user come back as a bare Contact carrying only the id.
func contacts(ctx context.Context, users UserRepository, ids ...uuid.UUID) (map[uuid.UUID]domain.Contact, error) {
	uniq := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}

	found, err := users.GetByIDs(ctx, uniq)
	if err != nil {
		return nil, fmt.Errorf("resolving contacts: %w", err)
	}

	out := make(map[uuid.UUID]domain.Contact, len(uniq))
	for _, id := range uniq {
		if u, ok := found[id]; ok {
			out[id] = u.Contact()
		} else {
			out[id] = domain.Contact{ID: id}
		}
	}
	return out, nil
}

func changedFields(fields []string) string {
	b, err := json.Marshal(map[string][]string{"fields": fields})
	if err != nil {
		return ""
	}
	return string(b)
}
