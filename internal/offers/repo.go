package offers

import (
	"context"

	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads supplier offers. Offers are written by the supplier-facing
// service; this engine only consumes them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByCycle(ctx context.Context, cycleID int64) ([]models.SupplierOffer, error)
	ListLinesForProduct(ctx context.Context, cycleID, productID int64) ([]models.OfferLine, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// ListByCycle returns the cycle's offers with their lines, oldest first.
func (r *repository) ListByCycle(ctx context.Context, cycleID int64) ([]models.SupplierOffer, error) {
	var rows []models.SupplierOffer
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("offer_lines.id ASC") }).
		Where("cycle_id = ?", cycleID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLinesForProduct returns every offer line for productID across the cycle's offers.
func (r *repository) ListLinesForProduct(ctx context.Context, cycleID, productID int64) ([]models.OfferLine, error) {
	var rows []models.OfferLine
	err := r.DB(ctx).
		Model(&models.OfferLine{}).
		Select("offer_lines.*").
		Joins("JOIN supplier_offers ON supplier_offers.id = offer_lines.offer_id").
		Where("supplier_offers.cycle_id = ? AND offer_lines.product_id = ?", cycleID, productID).
		Order("offer_lines.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
