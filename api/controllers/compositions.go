package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/api/responses"
	"github.com/redeciclos/ciclos-backend/api/validators"
	"github.com/redeciclos/ciclos-backend/internal/compositions"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

type basketsCountRequest struct {
	BasketsCount *int `json:"basketsCount" validate:"required,gte=0"`
}

type syncProductsRequest struct {
	Lines []compositions.ProductLine `json:"lines" validate:"required,dive"`
}

type productQuantityResponse struct {
	CompositionID     int64           `json:"compositionId"`
	ProductID         int64           `json:"productId"`
	QuantityPerBasket decimal.Decimal `json:"quantityPerBasket"`
	TotalNeeded       decimal.Decimal `json:"totalNeeded"`
}

func CycleBasketBind(svc compositions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body compositions.BindBasketInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		binding, err := svc.BindBasket(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, binding)
	}
}

func CycleBasketUpdateCount(svc compositions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "bindingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body basketsCountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		binding, err := svc.UpdateBasketsCount(r.Context(), id, *body.BasketsCount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, binding)
	}
}

func CompositionCreate(svc compositions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body compositions.CreateCompositionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		composition, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, composition)
	}
}

// CompositionSyncProducts replaces the whole line set of a composition.
func CompositionSyncProducts(svc compositions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "compositionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body syncProductsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		composition, err := svc.SyncProducts(r.Context(), id, body.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, composition)
	}
}

func CompositionProductQuantity(svc compositions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compositionID, err := validators.PathID(r, "compositionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perBasket, err := svc.QuantityPerBasket(r.Context(), compositionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := svc.TotalQuantityNeeded(r.Context(), compositionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productQuantityResponse{
			CompositionID:     compositionID,
			ProductID:         productID,
			QuantityPerBasket: perBasket,
			TotalNeeded:       total,
		})
	}
}

func CompositionAvailability(svc compositions.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("compositionId", svc.AvailabilityReport, logg)
}

// CompositionsByCycle returns each basket binding with its compositions and lines.
func CompositionsByCycle(svc compositions.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("cycleId", svc.ListByCycle, logg)
}
