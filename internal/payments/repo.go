package payments

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	"github.com/redeciclos/ciclos-backend/pkg/pagination"
)

// Repository defines persistence operations for payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	CreateBatch(ctx context.Context, payments []models.Payment) error
	FindByID(ctx context.Context, id int64) (*models.Payment, error)
	List(ctx context.Context, filter Filter, limit int, cursor *pagination.Cursor) ([]models.Payment, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	ListByCycle(ctx context.Context, cycleID int64) ([]models.Payment, error)
	CountByCycle(ctx context.Context, cycleID int64) (int64, error)
	Transition(ctx context.Context, id int64, from, to enums.PaymentStatus, paidAt *time.Time) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.DB(ctx).Create(payment).Error
}

func (r *repository) CreateBatch(ctx context.Context, payments []models.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	return r.DB(ctx).CreateInBatches(payments, 100).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	if err := r.DB(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// List returns up to limit matching payments newest first, starting after cursor.
func (r *repository) List(ctx context.Context, filter Filter, limit int, cursor *pagination.Cursor) ([]models.Payment, error) {
	query := applyFilter(r.DB(ctx).Model(&models.Payment{}), filter).Order("id DESC").Limit(limit)
	if cursor != nil {
		query = query.Where("id < ?", cursor.ID)
	}
	var rows []models.Payment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Count(ctx context.Context, filter Filter) (int64, error) {
	var total int64
	if err := applyFilter(r.DB(ctx).Model(&models.Payment{}), filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) ListByCycle(ctx context.Context, cycleID int64) ([]models.Payment, error) {
	var rows []models.Payment
	if err := r.DB(ctx).Where("cycle_id = ?", cycleID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountByCycle(ctx context.Context, cycleID int64) (int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Payment{}).Where("cycle_id = ?", cycleID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Transition moves a payment from one status to another. It matches on the
// current status so a concurrent change leaves zero rows affected.
func (r *repository) Transition(ctx context.Context, id int64, from, to enums.PaymentStatus, paidAt *time.Time) (int64, error) {
	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	res := r.DB(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.DB(ctx).Delete(&models.Payment{}, id)
	return res.RowsAffected, res.Error
}

func applyFilter(query *gorm.DB, filter Filter) *gorm.DB {
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CycleID > 0 {
		query = query.Where("cycle_id = ?", filter.CycleID)
	}
	if filter.MarketID > 0 {
		query = query.Where("market_id = ?", filter.MarketID)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	return query
}
