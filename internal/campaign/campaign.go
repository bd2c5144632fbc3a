// Package campaign implements the orchestrating control loop of a send
// campaign: generation, bounded dispatch, bookkeeping, and persistence, per
// stage, until each stage's target is met or the overall size target is
// reached.
//
// The controller is single-threaded. All concurrency lives inside the
// dispatcher; the thread graph and campaign state are mutated only here,
// between batches, so the design needs no locks.
package campaign

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mailseed/internal/dispatch"
	"github.com/nhle/mailseed/internal/estimate"
	"github.com/nhle/mailseed/internal/generate"
	"github.com/nhle/mailseed/internal/model"
	"github.com/nhle/mailseed/internal/store"
	"github.com/nhle/mailseed/internal/thread"
)

// FolderSeeder runs the one-time folder provisioning side operation.
type FolderSeeder interface {
	Seed(ctx context.Context, ids []model.Identity) (provisioned, failed int)
}

// Controller drives a campaign from its persisted state to the done phase.
type Controller struct {
	cfg     model.CampaignConfig
	store   store.Store
	graph   *thread.Graph
	gen     *generate.Generator
	disp    *dispatch.Dispatcher
	est     estimate.Estimator
	log     *zap.Logger
	seeder  FolderSeeder
	seedIDs []model.Identity

	state   model.CampaignState
	targets Targets
}

// Option configures a Controller.
type Option func(*Controller)

// WithFolderSeeder enables the one-time folder provisioning step for the
// given identities before the first batch.
func WithFolderSeeder(seeder FolderSeeder, ids []model.Identity) Option {
	return func(c *Controller) {
		c.seeder = seeder
		c.seedIDs = ids
	}
}

// New assembles a controller. The persisted state, if any, is loaded so the
// run resumes at batch granularity; otherwise a fresh campaign starts.
func New(
	ctx context.Context,
	cfg model.CampaignConfig,
	s store.Store,
	graph *thread.Graph,
	gen *generate.Generator,
	disp *dispatch.Dispatcher,
	est estimate.Estimator,
	log *zap.Logger,
	opts ...Option,
) (*Controller, error) {
	c := &Controller{
		cfg:     cfg,
		store:   s,
		graph:   graph,
		gen:     gen,
		disp:    disp,
		est:     est,
		log:     log,
		targets: ComputeTargets(cfg.TargetBytes, cfg.AvgMessageBytes),
	}
	for _, opt := range opts {
		opt(c)
	}

	persisted, err := s.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading campaign state: %w", err)
	}
	if persisted != nil {
		c.state = *persisted
	} else {
		c.state = model.NewCampaignState(time.Now())
	}

	return c, nil
}

// State returns a copy of the controller's current state.
func (c *Controller) State() model.CampaignState {
	return c.state
}

// OverridePhase forces the campaign into the given phase, the one sanctioned
// way to move the state machine backward. The override is persisted
// immediately.
func (c *Controller) OverridePhase(ctx context.Context, phase model.Phase) error {
	c.state.Phase = phase
	if err := c.store.SaveState(ctx, c.state); err != nil {
		return fmt.Errorf("persisting phase override: %w", err)
	}
	c.log.Warn("phase overridden", zap.String("phase", string(phase)))
	return nil
}

// Run drives the campaign to completion. Re-running a finished campaign is a
// no-op that returns the final summary.
func (c *Controller) Run(ctx context.Context) (model.Summary, error) {
	if c.state.Phase == model.PhaseDone {
		c.log.Info("campaign already complete")
		return c.summary(), nil
	}

	if err := c.provisionOnce(ctx); err != nil {
		return model.Summary{}, err
	}

	stages := []struct {
		phase      model.Phase
		kind       model.Kind
		target     int
		needsGraph bool
	}{
		{model.PhaseNew, model.KindNew, c.targets.New, false},
		{model.PhaseReply, model.KindReply, c.targets.Reply, true},
		{model.PhaseForward, model.KindForward, c.targets.Forward, true},
	}

	for _, stage := range stages {
		if stage.phase.Before(c.state.Phase) {
			continue // already completed in an earlier run
		}
		strategy, err := c.gen.Strategy(stage.kind)
		if err != nil {
			return model.Summary{}, err
		}
		if err := c.runStage(ctx, stage.phase, strategy, stage.target, stage.needsGraph); err != nil {
			return model.Summary{}, err
		}
	}

	if err := c.runOverflow(ctx); err != nil {
		return model.Summary{}, err
	}

	c.state.Phase = model.PhaseDone
	if err := c.persist(ctx); err != nil {
		return model.Summary{}, err
	}

	sum := c.summary()
	c.log.Info("campaign complete",
		zap.Int64("estimated_bytes", sum.EstimatedBytes),
		zap.Int("attempted", c.state.TotalAttempted()),
		zap.Int("succeeded", c.state.TotalSucceeded()),
	)
	return sum, nil
}

// provisionOnce runs the folder seeding side operation exactly once per
// campaign. A partially failed pass is retried on the next run.
func (c *Controller) provisionOnce(ctx context.Context) error {
	if c.seeder == nil || c.state.FoldersProvisioned {
		return nil
	}

	provisioned, failed := c.seeder.Seed(ctx, c.seedIDs)
	c.log.Info("folder seeding finished",
		zap.Int("provisioned", provisioned),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		// Leave the flag unset so the next run retries the stragglers.
		return nil
	}

	c.state.FoldersProvisioned = true
	return c.persist(ctx)
}

// runStage executes one counted stage: batches of up to ChunkSize until the
// stage target or the overall size target is reached. State is persisted
// after every batch; that persistence is the resumption granularity.
func (c *Controller) runStage(
	ctx context.Context,
	phase model.Phase,
	strategy generate.Strategy,
	target int,
	needsGraph bool,
) error {
	if c.state.Phase.Before(phase) {
		c.state.Phase = phase
	}

	if needsGraph && c.graph.Len() == 0 {
		// Nothing to originate from; advance past the stage.
		c.log.Info("stage skipped: thread graph empty", zap.String("stage", string(phase)))
		return c.persist(ctx)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		counter := c.state.Counter(phase)
		remaining := target - counter.Attempted
		if remaining <= 0 || c.state.EstimatedBytes >= c.cfg.TargetBytes {
			return nil
		}

		n := remaining
		if n > c.cfg.ChunkSize {
			n = c.cfg.ChunkSize
		}
		batch := strategy(n)
		if len(batch) == 0 {
			// Exhausted resource; end the stage early.
			c.log.Warn("stage ended early: no work generated", zap.String("stage", string(phase)))
			return nil
		}

		if err := c.runBatch(ctx, phase, batch); err != nil {
			return err
		}
	}
}

// runOverflow tops up with large-biased new messages until the size target
// is met. The loop is open-ended; only the size target bounds it.
func (c *Controller) runOverflow(ctx context.Context) error {
	if c.state.EstimatedBytes >= c.cfg.TargetBytes {
		return nil
	}
	if c.state.Phase.Before(model.PhaseOverflow) {
		c.state.Phase = model.PhaseOverflow
	}

	strategy := c.gen.OverflowStrategy()
	for c.state.EstimatedBytes < c.cfg.TargetBytes {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := strategy(c.cfg.ChunkSize)
		if len(batch) == 0 {
			c.log.Warn("overflow ended early: no work generated")
			return nil
		}
		if err := c.runBatch(ctx, model.PhaseOverflow, batch); err != nil {
			return err
		}
	}
	return nil
}

// runBatch dispatches one batch, folds its outcomes, and persists. At most
// one batch's worth of work can be lost or duplicated on a crash.
func (c *Controller) runBatch(ctx context.Context, phase model.Phase, batch []model.SendRequest) error {
	outcomes := c.disp.Dispatch(ctx, batch)

	next, records := applyBatch(c.state, phase, batch, outcomes, c.est)
	c.state = next
	c.graph.Append(records...)

	if err := c.persist(ctx); err != nil {
		return err
	}

	ok, failed, sample := tally(outcomes)
	fields := []zap.Field{
		zap.String("stage", string(phase)),
		zap.Int("ok", ok),
		zap.Int("failed", failed),
		zap.Int64("estimated_bytes", c.state.EstimatedBytes),
	}
	if sample != nil {
		fields = append(fields, zap.NamedError("sample_error", sample))
	}
	c.log.Info("batch complete", fields...)
	return nil
}

// persist flushes the thread graph checkpoint and overwrites the state
// document. Graph records are written first so every persisted state only
// ever references records that are already durable.
func (c *Controller) persist(ctx context.Context) error {
	if err := c.graph.Flush(ctx); err != nil {
		return err
	}
	if err := c.store.SaveState(ctx, c.state); err != nil {
		return fmt.Errorf("persisting campaign state: %w", err)
	}
	return nil
}

// summary builds the exit contract for the reporting collaborator.
func (c *Controller) summary() model.Summary {
	return model.Summary{
		New:            c.state.New,
		Reply:          c.state.Reply,
		Forward:        c.state.Forward,
		Overflow:       c.state.Overflow,
		EstimatedBytes: c.state.EstimatedBytes,
		StartedAt:      c.state.StartedAt,
		FinishedAt:     time.Now(),
	}
}

// tally counts successes and failures and keeps one failure sample for
// operator visibility.
func tally(outcomes []model.SendOutcome) (ok, failed int, sample error) {
	for _, out := range outcomes {
		if out.OK {
			ok++
			continue
		}
		failed++
		if sample == nil {
			sample = out.Err
		}
	}
	return ok, failed, sample
}
