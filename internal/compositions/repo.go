package compositions

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
)

const (
	BindingConstraint     = "uq_cycle_baskets_cycle_basket"
	CompositionConstraint = "uq_compositions_cycle_basket"
)

// Repository defines persistence for cycle basket bindings, compositions and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBinding(ctx context.Context, binding *models.CycleBasket) error
	FindBinding(ctx context.Context, id int64) (*models.CycleBasket, error)
	FindBindingByPair(ctx context.Context, cycleID, basketTypeID int64) (*models.CycleBasket, error)
	FindBindingByComposition(ctx context.Context, compositionID int64) (*models.CycleBasket, error)
	UpdateBindingCount(ctx context.Context, id int64, count int) error
	CreateComposition(ctx context.Context, composition *models.Composition) error
	FindComposition(ctx context.Context, id int64) (*models.Composition, error)
	FindProductLine(ctx context.Context, compositionID, productID int64) (*models.CompositionProduct, error)
	ReplaceProducts(ctx context.Context, compositionID int64, lines []models.CompositionProduct) error
	ListByCycle(ctx context.Context, cycleID int64) ([]models.CycleBasket, error)
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

func (r *repository) CreateBinding(ctx context.Context, binding *models.CycleBasket) error {
	return r.DB(ctx).Omit(clause.Associations).Create(binding).Error
}

func (r *repository) FindBinding(ctx context.Context, id int64) (*models.CycleBasket, error) {
	var binding models.CycleBasket
	if err := r.DB(ctx).Where("id = ?", id).First(&binding).Error; err != nil {
		return nil, err
	}
	return &binding, nil
}

func (r *repository) FindBindingByPair(ctx context.Context, cycleID, basketTypeID int64) (*models.CycleBasket, error) {
	var binding models.CycleBasket
	err := r.DB(ctx).
		Where("cycle_id = ? AND basket_type_id = ?", cycleID, basketTypeID).
		First(&binding).Error
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

func (r *repository) FindBindingByComposition(ctx context.Context, compositionID int64) (*models.CycleBasket, error) {
	var binding models.CycleBasket
	err := r.DB(ctx).
		Model(&models.CycleBasket{}).
		Select("cycle_baskets.*").
		Joins("JOIN compositions ON compositions.cycle_basket_id = cycle_baskets.id").
		Where("compositions.id = ?", compositionID).
		First(&binding).Error
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

func (r *repository) UpdateBindingCount(ctx context.Context, id int64, count int) error {
	res := r.DB(ctx).Model(&models.CycleBasket{}).
		Where("id = ?", id).
		Updates(map[string]any{"baskets_count": count, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateComposition(ctx context.Context, composition *models.Composition) error {
	return r.DB(ctx).Omit(clause.Associations).Create(composition).Error
}

// FindComposition loads the composition with its lines ordered by product.
func (r *repository) FindComposition(ctx context.Context, id int64) (*models.Composition, error) {
	var composition models.Composition
	err := r.DB(ctx).
		Preload("Products", orderByProduct).
		Where("id = ?", id).
		First(&composition).Error
	if err != nil {
		return nil, err
	}
	return &composition, nil
}

func (r *repository) FindProductLine(ctx context.Context, compositionID, productID int64) (*models.CompositionProduct, error) {
	var line models.CompositionProduct
	err := r.DB(ctx).
		Where("composition_id = ? AND product_id = ?", compositionID, productID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ReplaceProducts makes the stored line-set equal to lines: absent products are
// deleted and the rest are upserted on (composition_id, product_id). Callers
// run it inside a transaction.
func (r *repository) ReplaceProducts(ctx context.Context, compositionID int64, lines []models.CompositionProduct) error {
	keep := make([]int64, 0, len(lines))
	for _, l := range lines {
		keep = append(keep, l.ProductID)
	}

	del := r.DB(ctx).Where("composition_id = ?", compositionID)
	if len(keep) > 0 {
		del = del.Where("product_id NOT IN ?", keep)
	}
	if err := del.Delete(&models.CompositionProduct{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	for i := range lines {
		lines[i].CompositionID = compositionID
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "composition_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(&lines).Error
}

// ListByCycle returns every binding of the cycle with its basket type,
// compositions and composition lines.
func (r *repository) ListByCycle(ctx context.Context, cycleID int64) ([]models.CycleBasket, error) {
	var rows []models.CycleBasket
	err := r.DB(ctx).
		Preload("BasketType").
		Preload("Compositions", func(db *gorm.DB) *gorm.DB { return db.Order("compositions.id ASC") }).
		Preload("Compositions.Products", orderByProduct).
		Where("cycle_id = ?", cycleID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func orderByProduct(db *gorm.DB) *gorm.DB {
	return db.Order("composition_products.product_id ASC")
}
