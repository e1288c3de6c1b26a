package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/redeciclos/ciclos-backend/internal/cycles"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/metrics"
)

// maxStepsPerCycle bounds catch-up when several windows elapsed between rounds.
const maxStepsPerCycle = 4

type openCycleReader interface {
	ListOpen(ctx context.Context) ([]models.Cycle, error)
}

type cycleAdvancer interface {
	Advance(ctx context.Context, id int64) (*models.Cycle, error)
}

type CyclePhaseJobParams struct {
	Logger   *logger.Logger
	Cycles   openCycleReader
	Advancer cycleAdvancer
	Metrics  *metrics.JobMetrics
	Clock    func() time.Time
}

type cyclePhaseJob struct {
	logg     *logger.Logger
	cycles   openCycleReader
	advancer cycleAdvancer
	metrics  *metrics.JobMetrics
	clock    func() time.Time
}

// NewCyclePhaseJob builds the job that moves cycles past elapsed windows.
func NewCyclePhaseJob(params CyclePhaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Cycles == nil {
		return nil, fmt.Errorf("cycle reader required")
	}
	if params.Advancer == nil {
		return nil, fmt.Errorf("cycle advancer required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &cyclePhaseJob{
		logg:     params.Logger,
		cycles:   params.Cycles,
		advancer: params.Advancer,
		metrics:  params.Metrics,
		clock:    clock,
	}, nil
}

func (j *cyclePhaseJob) Name() string { return "cycle-phase" }

// Run advances each due cycle. A failing cycle does not stop the others; all
// failures are returned together.
func (j *cyclePhaseJob) Run(ctx context.Context) error {
	open, err := j.cycles.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open cycles: %w", err)
	}
	now := j.clock().UTC()

	var (
		errs     error
		advanced int
	)
	for _, c := range open {
		current := c
		for step := 0; step < maxStepsPerCycle && cycles.DueForAdvance(current, now); step++ {
			next, err := j.advancer.Advance(ctx, current.ID)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("advance cycle %d: %w", current.ID, err))
				break
			}
			advanced++
			j.logg.Debug(j.logg.WithCycleID(ctx, current.ID), "cycle phase advanced to "+string(next.Status))
			current = *next
		}
	}
	j.metrics.AddAdvanced(advanced)

	ctx = j.logg.WithFields(ctx, map[string]any{"open_cycles": len(open), "advanced": advanced})
	j.logg.Info(ctx, "cycle phases checked")
	return errs
}
