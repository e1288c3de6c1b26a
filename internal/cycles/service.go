package cycles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the cycle lifecycle and its time windows.
type Service interface {
	Create(ctx context.Context, input CreateCycleInput) (*models.Cycle, error)
	Update(ctx context.Context, id int64, input UpdateCycleInput) (*models.Cycle, error)
	Get(ctx context.Context, id int64) (*models.Cycle, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[models.Cycle], error)
	Delete(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) (*models.Cycle, error)
	Advance(ctx context.Context, id int64) (*models.Cycle, error)
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
		return nil, fmt.Errorf("cycles repository required")
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

func (s *service) Create(ctx context.Context, input CreateCycleInput) (*models.Cycle, error) {
	if input.OfferStartsAt == nil {
		return nil, pkgerrors.Required("offerStartsAt")
	}
	if input.OfferEndsAt == nil {
		return nil, pkgerrors.Required("offerEndsAt")
	}
	if input.DeliveryPointID <= 0 {
		return nil, pkgerrors.Required("deliveryPointId")
	}

	cycle := &models.Cycle{
		Name:            strings.TrimSpace(input.Name),
		OfferStartsAt:   input.OfferStartsAt.UTC(),
		OfferEndsAt:     input.OfferEndsAt.UTC(),
		ExtraStartsAt:   utc(input.ExtraStartsAt),
		ExtraEndsAt:     utc(input.ExtraEndsAt),
		PickupStartsAt:  utc(input.PickupStartsAt),
		PickupEndsAt:    utc(input.PickupEndsAt),
		DeliveryPointID: input.DeliveryPointID,
		Status:          enums.CycleStatusOffer,
		Active:          true,
	}
	if err := validateCycle(cycle); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := catalog.Require(ctx, s.catalog.WithTx(tx), catalog.Ref{Field: "deliveryPointId", Table: catalog.TableDeliveryPoints, ID: cycle.DeliveryPointID}); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, cycle); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cycle")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithCycleID(ctx, cycle.ID), "cycle created")
	return cycle, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateCycleInput) (*models.Cycle, error) {
	var updated *models.Cycle
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cycles := s.repo.WithTx(tx)
		cycle, err := findCycle(ctx, cycles, id)
		if err != nil {
			return err
		}

		if input.Status != nil && !input.Status.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("status %q is not a cycle status", *input.Status)).
				WithDetails(map[string]any{"field": "status"})
		}
		applyPatch(cycle, input)
		if err := validateCycle(cycle); err != nil {
			return err
		}
		if input.DeliveryPointID != nil {
			if err := catalog.Require(ctx, s.catalog.WithTx(tx), catalog.Ref{Field: "deliveryPointId", Table: catalog.TableDeliveryPoints, ID: cycle.DeliveryPointID}); err != nil {
				return err
			}
		}
		if err := cycles.Save(ctx, cycle); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cycle")
		}
		updated = cycle
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithCycleID(ctx, id), "cycle updated")
	return updated, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Cycle, error) {
	return findCycle(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[models.Cycle], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]any{"field": "cursor"})
	}

	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cycles")
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cycles")
	}

	items, next := pagination.Trim(rows, params.Limit, func(c models.Cycle) int64 { return c.ID })
	if items == nil {
		items = []models.Cycle{}
	}
	return &pagination.Page[models.Cycle]{Items: items, Total: total, NextCursor: next}, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cycles := s.repo.WithTx(tx)
		if _, err := findCycle(ctx, cycles, id); err != nil {
			return err
		}
		deps, err := cycles.CountDependents(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cycle dependents")
		}
		if deps.Total() > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cycle has dependent records; deactivate it instead").
				WithDetails(map[string]any{"dependents": deps})
		}
		if err := cycles.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cycle")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithCycleID(ctx, id), "cycle deleted")
	return nil
}

func (s *service) Deactivate(ctx context.Context, id int64) (*models.Cycle, error) {
	inactive := false
	return s.Update(ctx, id, UpdateCycleInput{Active: &inactive})
}

func (s *service) Advance(ctx context.Context, id int64) (*models.Cycle, error) {
	var advanced *models.Cycle
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cycles := s.repo.WithTx(tx)
		cycle, err := findCycle(ctx, cycles, id)
		if err != nil {
			return err
		}
		next, ok := cycle.Status.Next()
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("cycle is already %s", cycle.Status)).
				WithDetails(map[string]any{"status": cycle.Status})
		}
		cycle.Status = next
		if err := cycles.Save(ctx, cycle); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance cycle")
		}
		advanced = cycle
		return nil
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithField(s.logg.WithCycleID(ctx, id), "status", advanced.Status)
	s.logg.Info(ctx, "cycle advanced")
	return advanced, nil
}

func findCycle(ctx context.Context, cycles Repository, id int64) (*models.Cycle, error) {
	if id <= 0 {
		return nil, pkgerrors.Required("cycleId")
	}
	cycle, err := cycles.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cycle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cycle")
	}
	return cycle, nil
}

func applyPatch(cycle *models.Cycle, input UpdateCycleInput) {
	if input.Name != nil {
		cycle.Name = strings.TrimSpace(*input.Name)
	}
	if input.OfferStartsAt != nil {
		cycle.OfferStartsAt = input.OfferStartsAt.UTC()
	}
	if input.OfferEndsAt != nil {
		cycle.OfferEndsAt = input.OfferEndsAt.UTC()
	}
	if input.ExtraStartsAt != nil {
		cycle.ExtraStartsAt = utc(input.ExtraStartsAt)
	}
	if input.ExtraEndsAt != nil {
		cycle.ExtraEndsAt = utc(input.ExtraEndsAt)
	}
	if input.PickupStartsAt != nil {
		cycle.PickupStartsAt = utc(input.PickupStartsAt)
	}
	if input.PickupEndsAt != nil {
		cycle.PickupEndsAt = utc(input.PickupEndsAt)
	}
	if input.DeliveryPointID != nil {
		cycle.DeliveryPointID = *input.DeliveryPointID
	}
	if input.Status != nil {
		cycle.Status = *input.Status
	}
	if input.Active != nil {
		cycle.Active = *input.Active
	}
}

func validateCycle(cycle *models.Cycle) error {
	if cycle.Name == "" {
		return pkgerrors.Required("name")
	}
	if cycle.DeliveryPointID <= 0 {
		return pkgerrors.Required("deliveryPointId")
	}
	if !cycle.OfferEndsAt.After(cycle.OfferStartsAt) {
		return windowError("offerEndsAt", "offerStartsAt")
	}
	if !windowOK(cycle.ExtraStartsAt, cycle.ExtraEndsAt) {
		return windowError("extraEndsAt", "extraStartsAt")
	}
	if !windowOK(cycle.PickupStartsAt, cycle.PickupEndsAt) {
		return windowError("pickupEndsAt", "pickupStartsAt")
	}
	return nil
}

// windowOK accepts a window unless both bounds are set and end is not after start.
func windowOK(start, end *time.Time) bool {
	if start == nil || end == nil {
		return true
	}
	return end.After(*start)
}

func windowError(endField, startField string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be after %s", endField, startField)).
		WithDetails(map[string]any{"field": endField})
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
