package controllers

import (
	"net/http"

	"github.com/redeciclos/ciclos-backend/api/responses"
	"github.com/redeciclos/ciclos-backend/api/validators"
	"github.com/redeciclos/ciclos-backend/internal/marketcycles"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

func MarketCycleAssociate(svc marketcycles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body marketcycles.AssociateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mc, err := svc.Associate(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, mc)
	}
}

func MarketCycleUpdate(svc marketcycles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "marketCycleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body marketcycles.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mc, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mc)
	}
}

func MarketCycleGet(svc marketcycles.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("marketCycleId", svc.Get, logg)
}

func MarketCycleRemove(svc marketcycles.Service, logg *logger.Logger) http.HandlerFunc {
	return pathDelete("marketCycleId", svc.Remove, logg)
}

// MarketCyclesByCycle lists a cycle's markets in serving order.
func MarketCyclesByCycle(svc marketcycles.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("cycleId", svc.ListByCycle, logg)
}
