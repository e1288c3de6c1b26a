package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/api/responses"
	"github.com/redeciclos/ciclos-backend/api/validators"
	"github.com/redeciclos/ciclos-backend/internal/orders"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

type orderStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required,enum"`
}

// orderLineRequest edits a line. At least one field must be present.
type orderLineRequest struct {
	Quantity      *decimal.Decimal `json:"quantity" validate:"omitempty,gt=0"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice" validate:"omitempty,gte=0"`
}

type orderTotalResponse struct {
	OrderID int64           `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
}

func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body orders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("orderId", svc.Get, logg)
}

func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body orderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateStatus(r.Context(), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderAddProduct(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body orders.AddProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := svc.AddProduct(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

func OrderTotal(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := svc.Total(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderTotalResponse{OrderID: id, Total: total})
	}
}

func OrdersByCycle(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("cycleId", svc.ListByCycle, logg)
}

// OrderLineUpdate applies a quantity change, a purchase price, or both.
func OrderLineUpdate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body orderLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Quantity == nil && body.PurchasePrice == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "quantity or purchasePrice is required"))
			return
		}

		var line *models.OrderLine
		if body.Quantity != nil {
			if line, err = svc.UpdateQuantity(r.Context(), id, *body.Quantity); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if body.PurchasePrice != nil {
			if line, err = svc.SetPurchasePrice(r.Context(), id, *body.PurchasePrice); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, line)
	}
}

func OrderLineRemove(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return pathDelete("lineId", svc.RemoveProduct, logg)
}
