package controllers

import (
	"context"
	"net/http"

	"github.com/redeciclos/ciclos-backend/api/responses"
	"github.com/redeciclos/ciclos-backend/api/validators"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

// pathAction serves handlers that only need one id from the URL.
func pathAction[T any](param string, action func(ctx context.Context, id int64) (T, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := action(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// pathDelete answers 204 once remove succeeds.
func pathDelete(param string, remove func(ctx context.Context, id int64) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := remove(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
