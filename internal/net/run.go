package net

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/peterkuimelis/netrun/internal/catalog"
	"github.com/peterkuimelis/netrun/internal/game"
	"github.com/peterkuimelis/netrun/internal/log"
	"github.com/peterkuimelis/netrun/internal/store"
	"go.uber.org/zap"
)

// RunController is a game.Controller that is also told about the run around
// each combat.
type RunController interface {
	game.Controller
	SetStage(runID, encounter string, stage, stages int)
	SendEncounter(ev EncounterView) error
	SendCombatOver(out OutcomeView) error
	SendRunOver(runID, result string) error
}

// Runner plays runs: it supplies each encounter from the catalog, drives the
// combat with a controller and persists progress after every fight.
type Runner struct {
	Catalog *catalog.Catalog
	Store   *store.Store // nil keeps runs in memory only
	Rules   game.Rules
	Seed    int64     // 0 for random; otherwise encounter i uses Seed+i
	Events  io.Writer // optional text event log
	Diag    *zap.Logger
}

func (r *Runner) diag() *zap.Logger {
	if r.Diag == nil {
		return zap.NewNop()
	}
	return r.Diag
}

func (r *Runner) eventLogger() log.EventLogger {
	if r.Events != nil {
		return log.NewTextLogger(r.Events)
	}
	return log.NewMemoryLogger()
}

func (r *Runner) seedFor(encounter int) int64 {
	if r.Seed == 0 {
		return 0
	}
	return r.Seed + int64(encounter)
}

// NewRun creates a run for a fresh player of the given build.
func (r *Runner) NewRun(ctx context.Context, name, build string) (*store.Run, error) {
	p, err := r.Catalog.NewPlayer(name, build)
	if err != nil {
		return nil, err
	}
	if r.Store == nil {
		now := time.Now().UTC()
		return &store.Run{
			ID:         uuid.NewString(),
			PlayerName: name,
			Build:      build,
			Status:     store.StatusActive,
			Player:     p,
			CreatedAt:  now,
			UpdatedAt:  now,
		}, nil
	}
	run, err := r.Store.CreateRun(ctx, p)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LoadRun resumes a stored run. Finished runs cannot be resumed.
func (r *Runner) LoadRun(ctx context.Context, id string) (*store.Run, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("resume run %s: no store configured", id)
	}
	run, err := r.Store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != store.StatusActive {
		return nil, fmt.Errorf("run %s is already %s", id, run.Status)
	}
	return &run, nil
}

// Stage is one encounter of a run, ready to fight.
type Stage struct {
	Encounter catalog.Encounter
	Combat    *game.Combat
	View      EncounterView

	rng game.RNG
}

// Begin builds the combat for the run's current encounter. The combat is
// not started.
func (r *Runner) Begin(run *store.Run) (*Stage, error) {
	stages := len(r.Catalog.Encounters)
	enc, err := r.Catalog.Encounter(run.Encounter)
	if err != nil {
		return nil, err
	}

	rng := game.NewRNG(r.seedFor(run.Encounter))
	cfg, err := r.Catalog.CombatConfig(run.Player, run.Encounter, rng)
	if err != nil {
		return nil, fmt.Errorf("encounter %s: %w", enc.ID, err)
	}
	cfg.Rules = r.Rules
	cfg.Logger = r.eventLogger()
	cfg.Diag = r.diag().With(zap.String("run", run.ID), zap.String("encounter", enc.ID))

	combat, err := game.NewCombat(cfg)
	if err != nil {
		return nil, fmt.Errorf("encounter %s: %w", enc.ID, err)
	}

	names := make([]string, len(cfg.Enemies))
	for i, e := range cfg.Enemies {
		names[i] = e.Name
	}
	return &Stage{
		Encounter: enc,
		Combat:    combat,
		rng:       rng,
		View: EncounterView{
			ID:      enc.ID,
			Name:    enc.Name,
			Stage:   run.Encounter + 1,
			Stages:  stages,
			Enemies: names,
			Boss:    enc.Boss,
		},
	}, nil
}

// Finish settles a finished combat and records it.
func (r *Runner) Finish(ctx context.Context, run *store.Run, st *Stage) (OutcomeView, error) {
	view, rec, err := r.Settle(run, st)
	if err != nil {
		return view, err
	}
	return view, r.Record(ctx, run, rec)
}

// Settle applies a finished combat to the run in memory: artifact grant,
// upgrades, progress and status. It must run once per combat; Record can
// be retried on its result.
func (r *Runner) Settle(run *store.Run, st *Stage) (OutcomeView, store.CombatRecord, error) {
	out := st.Combat.Outcome()
	if out.Result == game.ResultNone {
		return OutcomeView{}, store.CombatRecord{}, fmt.Errorf("encounter %s is still running", st.Encounter.ID)
	}

	view := OutcomeView{
		Result:  out.Result.String(),
		Turns:   out.Turns,
		Credits: out.Credits,
	}
	rec := store.CombatRecord{
		RunID:       run.ID,
		Encounter:   run.Encounter,
		EncounterID: st.Encounter.ID,
		Result:      out.Result.String(),
		Turns:       out.Turns,
		Credits:     out.Credits,
	}
	if out.Chosen != nil {
		view.Reward = out.Chosen.String()
		rec.Reward = out.Chosen.ID
	}

	if out.Result == game.ResultVictory {
		if a := r.Catalog.GrantArtifact(run.Player, st.Encounter); a != nil {
			view.Artifact = a.Name
		}
		rng := st.rng
		if rng == nil {
			rng = game.NewRNG(0)
		}
		for _, ci := range r.Catalog.GrantUpgrades(run.Player, st.Encounter, rng) {
			view.Upgraded = append(view.Upgraded, ci.Card.String())
		}
		run.Encounter++
		if run.Encounter >= len(r.Catalog.Encounters) {
			run.Status = store.StatusWon
		}
	} else {
		run.Status = store.StatusLost
	}
	view.Health = run.Player.Health
	view.Max = run.Player.MaxHealth

	r.diag().Info("combat finished",
		zap.String("run", run.ID),
		zap.String("encounter", st.Encounter.ID),
		zap.String("result", view.Result),
		zap.Int("turns", out.Turns),
		zap.Int("credits", out.Credits),
		zap.Int("health", run.Player.Health),
		zap.Strings("upgraded", view.Upgraded),
	)
	return view, rec, nil
}

// Play fights the run's remaining encounters until the player clears them
// all or is defeated.
func (r *Runner) Play(ctx context.Context, run *store.Run, ctrl RunController) error {
	for run.Status == store.StatusActive {
		if run.Encounter >= len(r.Catalog.Encounters) {
			run.Status = store.StatusWon
			break
		}
		st, err := r.Begin(run)
		if err != nil {
			return err
		}

		ctrl.SetStage(run.ID, st.Encounter.Name, st.View.Stage, st.View.Stages)
		if err := ctrl.SendEncounter(st.View); err != nil {
			return fmt.Errorf("send encounter: %w", err)
		}
		if _, err := st.Combat.Run(ctx, ctrl); err != nil {
			return fmt.Errorf("encounter %s: %w", st.Encounter.ID, err)
		}

		view, err := r.Finish(ctx, run, st)
		if err != nil {
			return err
		}
		if err := ctrl.SendCombatOver(view); err != nil {
			return fmt.Errorf("send combat_over: %w", err)
		}
	}

	r.diag().Info("run finished",
		zap.String("run", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("cleared", run.Encounter),
	)
	if err := ctrl.SendRunOver(run.ID, string(run.Status)); err != nil {
		return fmt.Errorf("send run_over: %w", err)
	}
	return nil
}

// Record persists a settled combat and the run's progress. Without a store
// it does nothing.
func (r *Runner) Record(ctx context.Context, run *store.Run, rec store.CombatRecord) error {
	if r.Store == nil {
		return nil
	}
	if err := r.Store.RecordCombat(ctx, rec); err != nil {
		return err
	}
	return r.Store.SaveRun(ctx, run)
}
