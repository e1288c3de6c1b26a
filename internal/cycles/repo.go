package cycles

import (
	"context"

	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	"github.com/redeciclos/ciclos-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for cycles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cycle *models.Cycle) error
	FindByID(ctx context.Context, id int64) (*models.Cycle, error)
	Save(ctx context.Context, cycle *models.Cycle) error
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Cycle, error)
	Count(ctx context.Context) (int64, error)
	ListOpen(ctx context.Context) ([]models.Cycle, error)
	CountDependents(ctx context.Context, id int64) (Dependents, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a cycles repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, cycle *models.Cycle) error {
	return r.DB(ctx).Create(cycle).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Cycle, error) {
	var cycle models.Cycle
	if err := r.DB(ctx).Where("id = ?", id).First(&cycle).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *repository) Save(ctx context.Context, cycle *models.Cycle) error {
	return r.DB(ctx).Save(cycle).Error
}

// List returns up to limit cycles newest first, starting after cursor.
func (r *repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Cycle, error) {
	query := r.DB(ctx).Model(&models.Cycle{}).Order("id DESC").Limit(limit)
	if cursor != nil {
		query = query.Where("id < ?", cursor.ID)
	}
	var rows []models.Cycle
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Cycle{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListOpen returns active cycles that have not finished, oldest first.
func (r *repository) ListOpen(ctx context.Context) ([]models.Cycle, error) {
	var rows []models.Cycle
	err := r.DB(ctx).
		Where("active = ? AND status <> ?", true, enums.CycleStatusFinished).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountDependents(ctx context.Context, id int64) (Dependents, error) {
	var deps Dependents
	counts := []struct {
		table string
		dst   *int64
	}{
		{"market_cycles", &deps.MarketCycles},
		{"cycle_baskets", &deps.CycleBaskets},
		{"payments", &deps.Payments},
		{"consumer_orders", &deps.ConsumerOrders},
		{"supplier_offers", &deps.SupplierOffers},
	}
	for _, c := range counts {
		n, err := r.CountWhere(ctx, c.table, "cycle_id", id)
		if err != nil {
			return Dependents{}, err
		}
		*c.dst = n
	}
	return deps, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.DB(ctx).Delete(&models.Cycle{}, id).Error
}
