package marketcycles

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service associates markets with cycles.
type Service interface {
	Associate(ctx context.Context, input AssociateInput) (*models.MarketCycle, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*models.MarketCycle, error)
	Remove(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.MarketCycle, error)
	ListByCycle(ctx context.Context, cycleID int64) ([]models.MarketCycle, error)
}

type ServiceParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Repo    Repository
	Catalog catalog.Repository
}

type service struct {
	logg    *logger.Logger
	tx      txRunner
	repo    Repository
	catalog catalog.Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("market cycles repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{
		logg:    params.Logger,
		tx:      params.DB,
		repo:    params.Repo,
		catalog: params.Catalog,
	}, nil
}

// Associate checks references, then sale-type fields, then inserts. The
// insert is guarded by the unique index so concurrent duplicates lose with
// CodeDuplication instead of racing a separate existence check.
func (s *service) Associate(ctx context.Context, input AssociateInput) (*models.MarketCycle, error) {
	mc := &models.MarketCycle{
		CycleID:              input.CycleID,
		MarketID:             input.MarketID,
		SaleType:             input.SaleType,
		ServingOrder:         input.ServingOrder,
		DeliveryPointID:      input.DeliveryPointID,
		BasketsCount:         input.BasketsCount,
		TargetPricePerBasket: input.TargetPricePerBasket,
		TargetPricePerLot:    input.TargetPricePerLot,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		err := catalog.Require(ctx, s.catalog.WithTx(tx),
			catalog.Ref{Field: "cycleId", Table: catalog.TableCycles, ID: mc.CycleID},
			catalog.Ref{Field: "marketId", Table: catalog.TableMarkets, ID: mc.MarketID},
			catalog.Ref{Field: "deliveryPointId", Table: catalog.TableDeliveryPoints, ID: mc.DeliveryPointID},
		)
		if err != nil {
			return err
		}
		if err := validateSaleFields(mc); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, mc); err != nil {
			if db.IsUniqueViolation(err, UniqueConstraint) {
				return pkgerrors.New(pkgerrors.CodeDuplication, "market is already associated with this cycle").
					WithDetails(map[string]any{"cycleId": mc.CycleID, "marketId": mc.MarketID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create market cycle")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithMarketID(s.logg.WithCycleID(ctx, mc.CycleID), mc.MarketID)
	s.logg.Info(s.logg.WithField(ctx, "sale_type", mc.SaleType), "market associated with cycle")
	return mc, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*models.MarketCycle, error) {
	var updated *models.MarketCycle
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		assoc := s.repo.WithTx(tx)
		mc, err := findAssociation(ctx, assoc, id)
		if err != nil {
			return err
		}
		applyPatch(mc, input)
		if input.DeliveryPointID != nil {
			if err := catalog.Require(ctx, s.catalog.WithTx(tx), catalog.Ref{Field: "deliveryPointId", Table: catalog.TableDeliveryPoints, ID: mc.DeliveryPointID}); err != nil {
				return err
			}
		}
		if err := validateSaleFields(mc); err != nil {
			return err
		}
		if err := assoc.Save(ctx, mc); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update market cycle")
		}
		updated = mc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Remove(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.Required("id")
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete market cycle")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "market cycle not found")
	}
	s.logg.Info(s.logg.WithField(ctx, "market_cycle_id", id), "market association removed")
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.MarketCycle, error) {
	return findAssociation(ctx, s.repo, id)
}

func (s *service) ListByCycle(ctx context.Context, cycleID int64) ([]models.MarketCycle, error) {
	if cycleID <= 0 {
		return nil, pkgerrors.Required("cycleId")
	}
	rows, err := s.repo.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list market cycles")
	}
	if rows == nil {
		rows = []models.MarketCycle{}
	}
	return rows, nil
}

func findAssociation(ctx context.Context, assoc Repository, id int64) (*models.MarketCycle, error) {
	if id <= 0 {
		return nil, pkgerrors.Required("id")
	}
	mc, err := assoc.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "market cycle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load market cycle")
	}
	return mc, nil
}

func applyPatch(mc *models.MarketCycle, input UpdateInput) {
	if input.SaleType != nil {
		mc.SaleType = *input.SaleType
	}
	if input.ServingOrder != nil {
		mc.ServingOrder = *input.ServingOrder
	}
	if input.DeliveryPointID != nil {
		mc.DeliveryPointID = *input.DeliveryPointID
	}
	if input.BasketsCount != nil {
		mc.BasketsCount = input.BasketsCount
	}
	if input.TargetPricePerBasket != nil {
		mc.TargetPricePerBasket = input.TargetPricePerBasket
	}
	if input.TargetPricePerLot != nil {
		mc.TargetPricePerLot = input.TargetPricePerLot
	}
}

// validateSaleFields enforces the fields each sale type needs, then the
// ranges of whatever optional fields were supplied.
func validateSaleFields(mc *models.MarketCycle) error {
	if mc.SaleType == "" {
		return pkgerrors.Required("saleType")
	}
	if !mc.SaleType.IsValid() {
		return invalidField("saleType", fmt.Sprintf("saleType %q is not supported", mc.SaleType))
	}

	switch mc.SaleType {
	case enums.SaleTypeBasket:
		if mc.BasketsCount == nil {
			return pkgerrors.Required("basketsCount")
		}
		if mc.TargetPricePerBasket == nil {
			return pkgerrors.Required("targetPricePerBasket")
		}
	case enums.SaleTypeLot:
		if mc.TargetPricePerLot == nil {
			return pkgerrors.Required("targetPricePerLot")
		}
	}

	if mc.ServingOrder < 0 {
		return invalidField("servingOrder", "servingOrder must not be negative")
	}
	if mc.BasketsCount != nil && *mc.BasketsCount <= 0 {
		return invalidField("basketsCount", "basketsCount must be greater than zero")
	}
	if mc.TargetPricePerBasket != nil && mc.TargetPricePerBasket.IsNegative() {
		return invalidField("targetPricePerBasket", "targetPricePerBasket must not be negative")
	}
	if mc.TargetPricePerLot != nil && mc.TargetPricePerLot.IsNegative() {
		return invalidField("targetPricePerLot", "targetPricePerLot must not be negative")
	}
	return nil
}

func invalidField(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}
