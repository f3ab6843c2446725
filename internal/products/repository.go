package product

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/posengine-backend/internal/repo"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
)

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Search     string
	TypeID     *uuid.UUID
	SupplierID *uuid.UUID
}

// Repository persists products, variants and their prices.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// CreateProduct inserts the product row only.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Omit(clause.Associations).Create(product).Error
}

// CreateVariants inserts the variant rows only.
func (r *Repository) CreateVariants(ctx context.Context, rows []models.ProductVariant) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Omit(clause.Associations).Create(&rows).Error
}

func (r *Repository) CreatePrices(ctx context.Context, rows []models.VariantPrice) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&rows).Error
}

// ExistingSKUs returns which of skus are already taken.
func (r *Repository) ExistingSKUs(ctx context.Context, skus []string) ([]string, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var taken []string
	err := r.DB(ctx).
		Model(&models.ProductVariant{}).
		Where("sku IN ?", skus).
		Order("sku").
		Pluck("sku", &taken).
		Error
	return taken, err
}

// CountPriceLists counts how many of ids exist.
func (r *Repository) CountPriceLists(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.DB(ctx).Model(&models.PriceList{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *Repository) ProductTypeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.ProductType{}, "id = ?", id)
}

// FindByID loads a product with every variant and price.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("sku ASC")
		}).
		Preload("Variants.Prices").
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns active products ordered by name with their active variants.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	qb := r.DB(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("created_at ASC").Order("sku ASC")
		}).
		Preload("Variants.Prices").
		Where("active = ?", true)

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR id IN (?))", pattern,
			r.DB(ctx).Model(&models.ProductVariant{}).Select("product_id").Where("LOWER(sku) LIKE ?", pattern))
	}
	if filter.TypeID != nil {
		qb = qb.Where("product_type_id = ?", *filter.TypeID)
	}
	if filter.SupplierID != nil {
		qb = qb.Where("supplier_id = ?", *filter.SupplierID)
	}

	var rows []models.Product
	err := qb.Order("LOWER(name) ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// FindVariant loads a variant with its prices.
func (r *Repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.DB(ctx).Preload("Prices").First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// Deactivate flips the product and its active variants off and returns the
// variants it touched.
func (r *Repository) Deactivate(ctx context.Context, productID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	conn := r.DB(ctx)
	var variantIDs []uuid.UUID
	if err := conn.Model(&models.ProductVariant{}).
		Where("product_id = ? AND active = ?", productID, true).
		Order("id").
		Pluck("id", &variantIDs).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"active": false, "updated_at": at}).Error; err != nil {
		return nil, err
	}
	if len(variantIDs) > 0 {
		if err := conn.Model(&models.ProductVariant{}).
			Where("id IN ?", variantIDs).
			Updates(map[string]any{"active": false, "updated_at": at}).Error; err != nil {
			return nil, err
		}
	}
	return variantIDs, nil
}

// ReplacePrices swaps the full price set of a variant and sets its cost.
func (r *Repository) ReplacePrices(ctx context.Context, variantID uuid.UUID, prices []models.VariantPrice, cost *decimal.Decimal, at time.Time) error {
	conn := r.DB(ctx)
	if err := conn.Where("variant_id = ?", variantID).Delete(&models.VariantPrice{}).Error; err != nil {
		return err
	}
	if err := r.CreatePrices(ctx, prices); err != nil {
		return err
	}
	return conn.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Updates(map[string]any{"cost": cost, "updated_at": at}).Error
}
