package catalog

import (
	"context"
	"fmt"

	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
)

// Service exposes read-only listings of collaborator records.
type Service interface {
	Markets(ctx context.Context) ([]models.Market, error)
	DeliveryPoints(ctx context.Context) ([]models.DeliveryPoint, error)
	BasketTypes(ctx context.Context) ([]models.BasketType, error)
	Products(ctx context.Context) ([]models.Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Markets(ctx context.Context) ([]models.Market, error) {
	return list(ctx, "markets", s.repo.ListMarkets)
}

func (s *service) DeliveryPoints(ctx context.Context) ([]models.DeliveryPoint, error) {
	return list(ctx, "delivery points", s.repo.ListDeliveryPoints)
}

func (s *service) BasketTypes(ctx context.Context) ([]models.BasketType, error) {
	return list(ctx, "basket types", s.repo.ListBasketTypes)
}

func (s *service) Products(ctx context.Context) ([]models.Product, error) {
	return list(ctx, "products", s.repo.ListProducts)
}

// list never returns a nil slice so empty listings encode as [].
func list[T any](ctx context.Context, what string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	rows, err := fetch(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list "+what)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}
