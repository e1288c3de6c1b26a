package controllers

import (
	"net/http"

	"github.com/redeciclos/ciclos-backend/api/responses"
	"github.com/redeciclos/ciclos-backend/api/validators"
	"github.com/redeciclos/ciclos-backend/internal/cycles"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/pagination"
)

const maxNameLength = 120

func CycleCreate(svc cycles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body cycles.CreateCycleInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Name = validators.SanitizeString(body.Name, maxNameLength)

		cycle, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cycle)
	}
}

func CycleList(svc cycles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func CycleGet(svc cycles.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("cycleId", svc.Get, logg)
}

func CycleUpdate(svc cycles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, "cycleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cycles.UpdateCycleInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Name != nil {
			name := validators.SanitizeString(*body.Name, maxNameLength)
			body.Name = &name
		}
		cycle, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cycle)
	}
}

func CycleDelete(svc cycles.Service, logg *logger.Logger) http.HandlerFunc {
	return pathDelete("cycleId", svc.Delete, logg)
}

func CycleDeactivate(svc cycles.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("cycleId", svc.Deactivate, logg)
}

// CycleAdvance moves the cycle to its next phase.
func CycleAdvance(svc cycles.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("cycleId", svc.Advance, logg)
}
