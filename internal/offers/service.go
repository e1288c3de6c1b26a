package offers

import (
	"context"
	"fmt"

	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
)

type Service interface {
	ListByCycle(ctx context.Context, cycleID int64) ([]models.SupplierOffer, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByCycle(ctx context.Context, cycleID int64) ([]models.SupplierOffer, error) {
	if cycleID <= 0 {
		return nil, pkgerrors.Required("cycleId")
	}
	rows, err := s.repo.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return rows, nil
}
