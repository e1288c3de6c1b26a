package catalog

import (
	"context"
	"sort"

	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Table names a referenced collection.
type Table string

const (
	TableCycles         Table = "cycles"
	TableMarkets        Table = "markets"
	TableDeliveryPoints Table = "delivery_points"
	TableBasketTypes    Table = "basket_types"
	TableProducts       Table = "products"
	TableUsers          Table = "users"
)

// Repository reads collaborator records owned by other services.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Exists(ctx context.Context, table Table, id int64) (bool, error)
	MissingIDs(ctx context.Context, table Table, ids []int64) ([]int64, error)
	FindBasketType(ctx context.Context, id int64) (*models.BasketType, error)
	ListMarkets(ctx context.Context) ([]models.Market, error)
	ListDeliveryPoints(ctx context.Context) ([]models.DeliveryPoint, error)
	ListBasketTypes(ctx context.Context) ([]models.BasketType, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Exists(ctx context.Context, table Table, id int64) (bool, error) {
	return r.Base.Exists(ctx, string(table), id)
}

// MissingIDs returns the ids that do not resolve, sorted ascending.
func (r *repository) MissingIDs(ctx context.Context, table Table, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []int64
	if err := r.DB(ctx).Table(string(table)).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	present := make(map[int64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []int64
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := present[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

func (r *repository) FindBasketType(ctx context.Context, id int64) (*models.BasketType, error) {
	var bt models.BasketType
	if err := r.DB(ctx).Where("id = ?", id).First(&bt).Error; err != nil {
		return nil, err
	}
	return &bt, nil
}

func (r *repository) ListMarkets(ctx context.Context) ([]models.Market, error) {
	var rows []models.Market
	if err := r.DB(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListDeliveryPoints(ctx context.Context) ([]models.DeliveryPoint, error) {
	var rows []models.DeliveryPoint
	if err := r.DB(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListBasketTypes(ctx context.Context) ([]models.BasketType, error) {
	var rows []models.BasketType
	if err := r.DB(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.DB(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
