package orders

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.ConsumerOrder) error {
	return r.DB(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.ConsumerOrder, error) {
	var order models.ConsumerOrder
	err := r.DB(ctx).
		Preload("Lines", orderLinesByID).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByCycle(ctx context.Context, cycleID int64) ([]models.ConsumerOrder, error) {
	var orders []models.ConsumerOrder
	err := r.DB(ctx).
		Preload("Lines", orderLinesByID).
		Where("cycle_id = ?", cycleID).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error {
	res := r.DB(ctx).Model(&models.ConsumerOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindLine(ctx context.Context, lineID int64) (*models.OrderLine, error) {
	var line models.OrderLine
	if err := r.DB(ctx).Where("id = ?", lineID).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) FindLineByProduct(ctx context.Context, orderID, productID int64) (*models.OrderLine, error) {
	var line models.OrderLine
	err := r.DB(ctx).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		Order("id ASC").
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) CreateLine(ctx context.Context, line *models.OrderLine) error {
	return r.DB(ctx).Create(line).Error
}

func (r *repository) UpdateLine(ctx context.Context, lineID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.DB(ctx).Model(&models.OrderLine{}).Where("id = ?", lineID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteLine(ctx context.Context, lineID int64) (int64, error) {
	res := r.DB(ctx).Delete(&models.OrderLine{}, lineID)
	return res.RowsAffected, res.Error
}

func orderLinesByID(db *gorm.DB) *gorm.DB {
	return db.Order("order_lines.id ASC")
}
