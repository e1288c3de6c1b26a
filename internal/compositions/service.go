package compositions

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/offers"
	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type offerLines interface {
	ListLinesForProduct(ctx context.Context, cycleID, productID int64) ([]models.OfferLine, error)
}

// Service computes what goes into each basket of a cycle and how much of it is needed.
type Service interface {
	BindBasket(ctx context.Context, input BindBasketInput) (*models.CycleBasket, error)
	UpdateBasketsCount(ctx context.Context, bindingID int64, count int) (*models.CycleBasket, error)
	Create(ctx context.Context, input CreateCompositionInput) (*models.Composition, error)
	SyncProducts(ctx context.Context, compositionID int64, lines []ProductLine) (*models.Composition, error)
	QuantityPerBasket(ctx context.Context, compositionID, productID int64) (decimal.Decimal, error)
	TotalQuantityNeeded(ctx context.Context, compositionID, productID int64) (decimal.Decimal, error)
	ListByCycle(ctx context.Context, cycleID int64) ([]models.CycleBasket, error)
	AvailabilityReport(ctx context.Context, compositionID int64) (*AvailabilityReport, error)
}

type ServiceParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Repo    Repository
	Catalog catalog.Repository
	Offers  offerLines
}

type service struct {
	logg    *logger.Logger
	tx      txRunner
	repo    Repository
	catalog catalog.Repository
	offers  offerLines
}

func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("compositions repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers reader required")
	}
	return &service{
		logg:    params.Logger,
		tx:      params.DB,
		repo:    params.Repo,
		catalog: params.Catalog,
		offers:  params.Offers,
	}, nil
}

func (s *service) BindBasket(ctx context.Context, input BindBasketInput) (*models.CycleBasket, error) {
	if err := validateBasketsCount(input.BasketsCount); err != nil {
		return nil, err
	}
	var binding *models.CycleBasket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		binding, err = s.bind(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithCycleID(ctx, binding.CycleID), "basket type bound to cycle")
	return binding, nil
}

func (s *service) bind(ctx context.Context, tx *gorm.DB, input BindBasketInput) (*models.CycleBasket, error) {
	err := catalog.Require(ctx, s.catalog.WithTx(tx),
		catalog.Ref{Field: "cycleId", Table: catalog.TableCycles, ID: input.CycleID},
		catalog.Ref{Field: "basketTypeId", Table: catalog.TableBasketTypes, ID: input.BasketTypeID},
	)
	if err != nil {
		return nil, err
	}
	binding := &models.CycleBasket{
		CycleID:      input.CycleID,
		BasketTypeID: input.BasketTypeID,
		BasketsCount: input.BasketsCount,
	}
	if err := s.repo.WithTx(tx).CreateBinding(ctx, binding); err != nil {
		if db.IsUniqueViolation(err, BindingConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeDuplication, "basket type is already bound to this cycle").
				WithDetails(map[string]any{"cycleId": input.CycleID, "basketTypeId": input.BasketTypeID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cycle basket")
	}
	return binding, nil
}

func (s *service) UpdateBasketsCount(ctx context.Context, bindingID int64, count int) (*models.CycleBasket, error) {
	if bindingID <= 0 {
		return nil, pkgerrors.Required("cycleBasketId")
	}
	if err := validateBasketsCount(count); err != nil {
		return nil, err
	}
	var binding *models.CycleBasket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bindings := s.repo.WithTx(tx)
		if err := bindings.UpdateBindingCount(ctx, bindingID, count); err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cycle basket not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update baskets count")
		}
		var err error
		binding, err = bindings.FindBinding(ctx, bindingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cycle basket")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return binding, nil
}

func (s *service) Create(ctx context.Context, input CreateCompositionInput) (*models.Composition, error) {
	if input.CycleID <= 0 {
		return nil, pkgerrors.Required("cycleId")
	}
	if input.BasketTypeID <= 0 {
		return nil, pkgerrors.Required("basketTypeId")
	}

	composition := &models.Composition{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		compositions := s.repo.WithTx(tx)
		binding, err := compositions.FindBindingByPair(ctx, input.CycleID, input.BasketTypeID)
		switch {
		case err == nil:
		case repo.IsNotFound(err) && input.AutoCreateBinding:
			if err := validateBasketsCount(input.BasketsCount); err != nil {
				return err
			}
			binding, err = s.bind(ctx, tx, BindBasketInput{
				CycleID:      input.CycleID,
				BasketTypeID: input.BasketTypeID,
				BasketsCount: input.BasketsCount,
			})
			if err != nil {
				return err
			}
		case repo.IsNotFound(err):
			return pkgerrors.New(pkgerrors.CodeNotFound, "cycle basket not found for this cycle and basket type")
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cycle basket")
		}

		composition.CycleBasketID = binding.ID
		if err := compositions.CreateComposition(ctx, composition); err != nil {
			if db.IsUniqueViolation(err, CompositionConstraint) {
				return pkgerrors.New(pkgerrors.CodeDuplication, "cycle basket already has a composition").
					WithDetails(map[string]any{"cycleBasketId": binding.ID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create composition")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	composition.Products = []models.CompositionProduct{}
	ctx = s.logg.WithField(s.logg.WithCycleID(ctx, input.CycleID), "composition_id", composition.ID)
	s.logg.Info(ctx, "composition created")
	return composition, nil
}

// SyncProducts replaces the composition's line-set with lines. Every line is
// validated first and all problems are reported together; the delete and
// upsert then run in one transaction.
func (s *service) SyncProducts(ctx context.Context, compositionID int64, lines []ProductLine) (*models.Composition, error) {
	if compositionID <= 0 {
		return nil, pkgerrors.Required("compositionId")
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	var synced *models.Composition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		compositions := s.repo.WithTx(tx)
		if _, err := findComposition(ctx, compositions, compositionID); err != nil {
			return err
		}

		ids := make([]int64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		missing, err := s.catalog.WithTx(tx).MissingIDs(ctx, catalog.TableProducts, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check products")
		}
		if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "productId does not reference an existing record").
				WithDetails(map[string]any{"field": "productId", "missing": missing})
		}

		rows := make([]models.CompositionProduct, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, models.CompositionProduct{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		if err := compositions.ReplaceProducts(ctx, compositionID, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace composition products")
		}

		synced, err = findComposition(ctx, compositions, compositionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"composition_id": compositionID, "lines": len(lines)})
	s.logg.Info(ctx, "composition products synced")
	return synced, nil
}

func (s *service) QuantityPerBasket(ctx context.Context, compositionID, productID int64) (decimal.Decimal, error) {
	line, _, err := s.lineWithBinding(ctx, compositionID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return line.Quantity, nil
}

func (s *service) TotalQuantityNeeded(ctx context.Context, compositionID, productID int64) (decimal.Decimal, error) {
	line, binding, err := s.lineWithBinding(ctx, compositionID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return line.Quantity.Mul(decimal.NewFromInt(int64(binding.BasketsCount))), nil
}

func (s *service) lineWithBinding(ctx context.Context, compositionID, productID int64) (*models.CompositionProduct, *models.CycleBasket, error) {
	if compositionID <= 0 {
		return nil, nil, pkgerrors.Required("compositionId")
	}
	if productID <= 0 {
		return nil, nil, pkgerrors.Required("productId")
	}
	binding, err := s.repo.FindBindingByComposition(ctx, compositionID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "composition not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cycle basket")
	}
	line, err := s.repo.FindProductLine(ctx, compositionID, productID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not part of this composition").
				WithDetails(map[string]any{"productId": productID})
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load composition product")
	}
	return line, binding, nil
}

func (s *service) ListByCycle(ctx context.Context, cycleID int64) ([]models.CycleBasket, error) {
	if cycleID <= 0 {
		return nil, pkgerrors.Required("cycleId")
	}
	rows, err := s.repo.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cycle baskets")
	}
	if rows == nil {
		rows = []models.CycleBasket{}
	}
	return rows, nil
}

func (s *service) AvailabilityReport(ctx context.Context, compositionID int64) (*AvailabilityReport, error) {
	composition, err := findComposition(ctx, s.repo, compositionID)
	if err != nil {
		return nil, err
	}
	binding, err := s.repo.FindBinding(ctx, composition.CycleBasketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cycle basket")
	}

	report := &AvailabilityReport{
		CompositionID: composition.ID,
		CycleID:       binding.CycleID,
		BasketsCount:  binding.BasketsCount,
		Sufficient:    true,
		Lines:         make([]AvailabilityLine, 0, len(composition.Products)),
	}
	count := decimal.NewFromInt(int64(binding.BasketsCount))
	for _, p := range composition.Products {
		lines, err := s.offers.ListLinesForProduct(ctx, binding.CycleID, p.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer lines")
		}
		offered := offers.TotalQuantity(lines)
		needed := p.Quantity.Mul(count)
		shortage := CheckAvailability(offered, needed)
		if shortage != nil {
			report.Sufficient = false
		}
		report.Lines = append(report.Lines, AvailabilityLine{
			ProductID:         p.ProductID,
			QuantityPerBasket: p.Quantity,
			Needed:            needed,
			Offered:           offered,
			Shortage:          shortage,
		})
	}
	return report, nil
}

func findComposition(ctx context.Context, compositions Repository, id int64) (*models.Composition, error) {
	if id <= 0 {
		return nil, pkgerrors.Required("compositionId")
	}
	composition, err := compositions.FindComposition(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "composition not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load composition")
	}
	return composition, nil
}

func validateBasketsCount(count int) error {
	if count < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "basketsCount must not be negative").
			WithDetails(map[string]any{"field": "basketsCount"})
	}
	return nil
}

// validateLines collects every malformed line instead of stopping at the first.
func validateLines(lines []ProductLine) error {
	var errs error
	seen := make(map[int64]int, len(lines))
	for i, l := range lines {
		if l.ProductID <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("lines[%d].productId is required", i))
		} else if first, dup := seen[l.ProductID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("lines[%d].productId %d repeats lines[%d]", i, l.ProductID, first))
		} else {
			seen[l.ProductID] = i
		}
		if !l.Quantity.IsPositive() {
			errs = multierr.Append(errs, fmt.Errorf("lines[%d].quantity must be greater than zero", i))
		}
	}
	if errs == nil {
		return nil
	}
	problems := make([]string, 0)
	for _, e := range multierr.Errors(errs) {
		problems = append(problems, e.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid composition lines").
		WithDetails(map[string]any{"field": "lines", "errors": problems})
}
