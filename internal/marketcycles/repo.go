package marketcycles

import (
	"context"

	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"gorm.io/gorm"
)

// UniqueConstraint guards one association per (cycle, market).
const UniqueConstraint = "uq_market_cycles_cycle_market"

// Repository defines persistence operations for market-cycle associations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, mc *models.MarketCycle) error
	FindByID(ctx context.Context, id int64) (*models.MarketCycle, error)
	Save(ctx context.Context, mc *models.MarketCycle) error
	Delete(ctx context.Context, id int64) (int64, error)
	ListByCycle(ctx context.Context, cycleID int64) ([]models.MarketCycle, error)
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

// Create inserts the association. A second row for the same pair fails on UniqueConstraint.
func (r *repository) Create(ctx context.Context, mc *models.MarketCycle) error {
	return r.DB(ctx).Create(mc).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.MarketCycle, error) {
	var mc models.MarketCycle
	if err := r.DB(ctx).Where("id = ?", id).First(&mc).Error; err != nil {
		return nil, err
	}
	return &mc, nil
}

func (r *repository) Save(ctx context.Context, mc *models.MarketCycle) error {
	return r.DB(ctx).Save(mc).Error
}

// Delete removes the association and reports how many rows went away.
func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.DB(ctx).Delete(&models.MarketCycle{}, id)
	return res.RowsAffected, res.Error
}

// ListByCycle orders by serving order; ties keep insertion order.
func (r *repository) ListByCycle(ctx context.Context, cycleID int64) ([]models.MarketCycle, error) {
	var rows []models.MarketCycle
	err := r.DB(ctx).
		Where("cycle_id = ?", cycleID).
		Order("serving_order ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
