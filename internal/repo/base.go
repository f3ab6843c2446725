package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by the domain repositories. Queries go through DB(ctx) so
// they always carry the request context, and Bind produces the copy used
// inside a transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind returns a Base that issues every query on tx.
func (b Base) Bind(tx *gorm.DB) Base {
	return Base{db: tx}
}

// Exists reports whether model has at least one row matching query.
func (b Base) Exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := b.DB(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
