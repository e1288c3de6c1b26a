package orders

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/offers"
	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages consumer orders and their direct-sale lines.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.ConsumerOrder, error)
	Get(ctx context.Context, id int64) (*models.ConsumerOrder, error)
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) (*models.ConsumerOrder, error)
	AddProduct(ctx context.Context, orderID int64, input AddProductInput) (*models.OrderLine, error)
	UpdateQuantity(ctx context.Context, lineID int64, quantity decimal.Decimal) (*models.OrderLine, error)
	RemoveProduct(ctx context.Context, lineID int64) error
	SetPurchasePrice(ctx context.Context, lineID int64, price decimal.Decimal) (*models.OrderLine, error)
	Total(ctx context.Context, orderID int64) (decimal.Decimal, error)
	ListByCycle(ctx context.Context, cycleID int64) ([]models.ConsumerOrder, error)
}

type ServiceParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Repo    Repository
	Catalog catalog.Repository
	Offers  offers.Repository
}

type service struct {
	logg    *logger.Logger
	tx      txRunner
	repo    Repository
	catalog catalog.Repository
	offers  offers.Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	return &service{
		logg:    params.Logger,
		tx:      params.DB,
		repo:    params.Repo,
		catalog: params.Catalog,
		offers:  params.Offers,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.ConsumerOrder, error) {
	status := enums.OrderStatusPending
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, invalidStatus(*input.Status)
		}
		status = *input.Status
	}
	order := &models.ConsumerOrder{
		CycleID:  input.CycleID,
		UserID:   input.UserID,
		MarketID: input.MarketID,
		Status:   status,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		refs := []catalog.Ref{
			{Field: "cycleId", Table: catalog.TableCycles, ID: order.CycleID},
			{Field: "userId", Table: catalog.TableUsers, ID: order.UserID},
		}
		if order.MarketID != nil {
			refs = append(refs, catalog.Ref{Field: "marketId", Table: catalog.TableMarkets, ID: *order.MarketID})
		}
		if err := catalog.Require(ctx, s.catalog.WithTx(tx), refs...); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithField(s.logg.WithCycleID(ctx, order.CycleID), "order_id", order.ID)
	s.logg.Info(ctx, "consumer order created")
	return order, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.ConsumerOrder, error) {
	return findOrder(ctx, s.repo, id)
}

// UpdateStatus accepts any known status regardless of the current one.
func (s *service) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) (*models.ConsumerOrder, error) {
	if id <= 0 {
		return nil, pkgerrors.Required("id")
	}
	if status == "" {
		return nil, pkgerrors.Required("status")
	}
	if !status.IsValid() {
		return nil, invalidStatus(status)
	}

	var updated *models.ConsumerOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		if err := orders.UpdateStatus(ctx, id, status); err != nil {
			if repo.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order, err := findOrder(ctx, orders, id)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddProduct prices the line at the lowest unit price offered for the
// product in the order's cycle. A product already on the order has its
// quantity increased instead of gaining a second line.
func (s *service) AddProduct(ctx context.Context, orderID int64, input AddProductInput) (*models.OrderLine, error) {
	if input.ProductID <= 0 {
		return nil, pkgerrors.Required("productId")
	}
	if !input.Quantity.IsPositive() {
		return nil, invalidField("quantity", "quantity must be greater than zero")
	}

	var result *models.OrderLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		order, err := findOrder(ctx, orders, orderID)
		if err != nil {
			return err
		}
		if err := catalog.Require(ctx, s.catalog.WithTx(tx), catalog.Ref{Field: "productId", Table: catalog.TableProducts, ID: input.ProductID}); err != nil {
			return err
		}

		existing, err := orders.FindLineByProduct(ctx, order.ID, input.ProductID)
		switch {
		case err == nil:
			existing.Quantity = existing.Quantity.Add(input.Quantity)
			if err := orders.UpdateLine(ctx, existing.ID, map[string]any{"quantity": existing.Quantity}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order line")
			}
			result = existing
			return nil
		case !repo.IsNotFound(err):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line")
		}

		offered, err := s.offers.WithTx(tx).ListLinesForProduct(ctx, order.CycleID, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer lines")
		}
		price, ok := offers.LowestUnitPrice(offered)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "product is not offered in this cycle").
				WithDetails(map[string]any{"field": "productId", "cycleId": order.CycleID, "productId": input.ProductID})
		}

		line := &models.OrderLine{
			OrderID:      order.ID,
			ProductID:    input.ProductID,
			Quantity:     input.Quantity,
			OfferedPrice: price,
		}
		if err := orders.CreateLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line")
		}
		result = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) UpdateQuantity(ctx context.Context, lineID int64, quantity decimal.Decimal) (*models.OrderLine, error) {
	if !quantity.IsPositive() {
		return nil, invalidField("quantity", "quantity must be greater than zero")
	}
	return s.updateLine(ctx, lineID, func(line *models.OrderLine) map[string]any {
		line.Quantity = quantity
		return map[string]any{"quantity": quantity}
	})
}

func (s *service) SetPurchasePrice(ctx context.Context, lineID int64, price decimal.Decimal) (*models.OrderLine, error) {
	if price.IsNegative() {
		return nil, invalidField("purchasePrice", "purchasePrice must not be negative")
	}
	return s.updateLine(ctx, lineID, func(line *models.OrderLine) map[string]any {
		line.PurchasePrice = &price
		return map[string]any{"purchase_price": price}
	})
}

func (s *service) updateLine(ctx context.Context, lineID int64, apply func(*models.OrderLine) map[string]any) (*models.OrderLine, error) {
	var result *models.OrderLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		line, err := findLine(ctx, orders, lineID)
		if err != nil {
			return err
		}
		if err := orders.UpdateLine(ctx, line.ID, apply(line)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order line")
		}
		result = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) RemoveProduct(ctx context.Context, lineID int64) error {
	if lineID <= 0 {
		return pkgerrors.Required("lineId")
	}
	removed, err := s.repo.DeleteLine(ctx, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order line")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
	}
	return nil
}

func (s *service) Total(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	order, err := findOrder(ctx, s.repo, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return OrderTotal(order.Lines), nil
}

func (s *service) ListByCycle(ctx context.Context, cycleID int64) ([]models.ConsumerOrder, error) {
	if cycleID <= 0 {
		return nil, pkgerrors.Required("cycleId")
	}
	rows, err := s.repo.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	if rows == nil {
		rows = []models.ConsumerOrder{}
	}
	return rows, nil
}

func findOrder(ctx context.Context, orders Repository, id int64) (*models.ConsumerOrder, error) {
	if id <= 0 {
		return nil, pkgerrors.Required("orderId")
	}
	order, err := orders.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func findLine(ctx context.Context, orders Repository, id int64) (*models.OrderLine, error) {
	if id <= 0 {
		return nil, pkgerrors.Required("lineId")
	}
	line, err := orders.FindLine(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line")
	}
	return line, nil
}

func invalidStatus(status enums.OrderStatus) error {
	return invalidField("status", fmt.Sprintf("status %q is not supported", status))
}

func invalidField(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}
