package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/internal/repo"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

// Catalog is the read side the cart and checkout price against.
type Catalog interface {
	PriceListLookup
	Variant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error)
	VariantPrices(ctx context.Context, variantID uuid.UUID) ([]models.VariantPrice, error)
	ProductTypeRule(ctx context.Context, variantID uuid.UUID) (*models.ProductType, error)
}

// Repository reads variants, prices and rules with gorm.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Variant loads an active variant of an active product with its prices.
func (r *Repository) Variant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.DB(ctx).
		Preload("Prices").
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("product_variants.id = ? AND product_variants.active = ? AND products.active = ?", variantID, true, true).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"variant_id": variantID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load variant")
	}
	return &variant, nil
}

func (r *Repository) VariantPrices(ctx context.Context, variantID uuid.UUID) ([]models.VariantPrice, error) {
	var prices []models.VariantPrice
	if err := r.DB(ctx).
		Where("variant_id = ?", variantID).
		Order("price_list_id ASC").
		Find(&prices).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load variant prices")
	}
	return prices, nil
}

// ProductTypeRule returns the product type of the variant's product.
func (r *Repository) ProductTypeRule(ctx context.Context, variantID uuid.UUID) (*models.ProductType, error) {
	var rule models.ProductType
	err := r.DB(ctx).
		Table("product_types").
		Select("product_types.*").
		Joins("JOIN products ON products.product_type_id = product_types.id").
		Joins("JOIN product_variants ON product_variants.product_id = products.id").
		Where("product_variants.id = ?", variantID).
		Take(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load product type")
	}
	return &rule, nil
}

func (r *Repository) PriceList(ctx context.Context, id uuid.UUID) (*models.PriceList, error) {
	var list models.PriceList
	err := r.DB(ctx).Where("id = ?", id).First(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "price list not found").
				WithDetails(map[string]any{"price_list_id": id.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load price list")
	}
	return &list, nil
}
