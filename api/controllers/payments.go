package controllers

import (
	"net/http"
	"strings"

	"github.com/redeciclos/ciclos-backend/api/responses"
	"github.com/redeciclos/ciclos-backend/api/validators"
	"github.com/redeciclos/ciclos-backend/internal/payments"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/pagination"
)

type totalsResponse struct {
	*payments.Totals
	Currency string `json:"currency"`
}

func PaymentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body payments.CreatePaymentInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Note != nil {
			note := validators.SanitizeString(*body.Note, maxNoteLength)
			body.Note = &note
		}
		payment, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

const maxNoteLength = 500

func PaymentGet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("paymentId", svc.Get, logg)
}

// PaymentList filters by type, status, cycleId, marketId and userId, newest first.
func PaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parsePaymentFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parsePaymentFilter(r *http.Request) (payments.Filter, error) {
	var filter payments.Filter
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		t, err := enums.ParsePaymentType(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment type").
				WithDetails(map[string]any{"field": "type"})
		}
		filter.Type = &t
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		s, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status").
				WithDetails(map[string]any{"field": "status"})
		}
		filter.Status = &s
	}

	var err error
	if filter.CycleID, err = validators.ParseQueryID(r, "cycleId"); err != nil {
		return filter, err
	}
	if filter.MarketID, err = validators.ParseQueryID(r, "marketId"); err != nil {
		return filter, err
	}
	if filter.UserID, err = validators.ParseQueryID(r, "userId"); err != nil {
		return filter, err
	}
	if filter.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return filter, err
	}
	filter.Cursor = query.Get("cursor")
	return filter, nil
}

func PaymentMarkPaid(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("paymentId", svc.MarkPaid, logg)
}

func PaymentCancel(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return pathAction("paymentId", svc.Cancel, logg)
}

func PaymentDelete(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return pathDelete("paymentId", svc.Delete, logg)
}

// PaymentsGenerate settles a cycle into supplier and consumer payments.
func PaymentsGenerate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cycleID, err := validators.PathID(r, "cycleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		generation, err := svc.GenerateForCycle(r.Context(), cycleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, generation)
	}
}

func PaymentTotals(svc payments.Service, currency string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cycleID, err := validators.PathID(r, "cycleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		totals, err := svc.TotalsForCycle(r.Context(), cycleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totalsResponse{Totals: totals, Currency: currency})
	}
}
