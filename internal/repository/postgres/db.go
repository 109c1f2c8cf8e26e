package postgres

import (
	"context"
	"math"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx runs fn in a transaction. Repositories called with the context
// passed to fn join that transaction.
func WithTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type page struct {
	number, size int
}

func newPage(number, size int) page {
	if number < 1 {
		number = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return page{number: number, size: size}
}

func (p page) offset() int { return (p.number - 1) * p.size }

func (p page) totalPages(total int64) int {
	return int(math.Ceil(float64(total) / float64(p.size)))
}

// paginate counts q, then loads the requested page into dest.
func paginate(q *gorm.DB, p page, order string, dest any) (int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	err := q.Order(order).Offset(p.offset()).Limit(p.size).Find(dest).Error
	return total, err
}
