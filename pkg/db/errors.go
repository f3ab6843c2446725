package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

// sqlite reports the violated columns, not the constraint name.
var sqliteConstraintColumns = map[string]string{
	"product_variants_sku_key":         "product_variants.sku",
	"variant_prices_variant_list_key":  "variant_prices.variant_id, variant_prices.price_list_id",
	"stock_records_variant_branch_key": "stock_records.variant_id, stock_records.branch_id",
	"sales_sale_number_key":            "sales.sale_number",
}

// IsUniqueViolation reports whether err is a unique constraint violation from
// postgres (pgx or lib/pq), sqlite, or gorm's translated ErrDuplicatedKey. When
// constraintName is provided the constraint (or message) must reference it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if constraint, ok := pkgerrors.UniqueViolation(err); ok {
		return constraintName == "" || constraint == constraintName || strings.Contains(err.Error(), constraintName)
	}
	msg := err.Error()
	duplicate := errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !duplicate {
		return false
	}
	if constraintName == "" {
		return true
	}
	if strings.Contains(msg, constraintName) {
		return true
	}
	columns, ok := sqliteConstraintColumns[constraintName]
	return ok && strings.Contains(msg, columns)
}

// IsForeignKeyViolation reports a reference to a missing parent row from
// postgres, sqlite (with foreign_keys on) or gorm's ErrForeignKeyViolated.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := pkgerrors.ForeignKeyViolation(err); ok {
		return true
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated) ||
		strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsNotFound reports gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
