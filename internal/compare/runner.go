package compare

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"grounds/internal/backend"
	"grounds/internal/config"
	"grounds/internal/logging"
	"grounds/internal/report"
)

// unit is one wired backend: its caller, tuning and default model.
type unit struct {
	caller *backend.Caller
	tuning config.TuningConfig
	model  string
}

func (u *unit) thresholds() report.Thresholds {
	return report.Thresholds{
		MinNextActions: u.tuning.MinNextActions,
		MinLengthChars: u.tuning.MinLengthChars,
	}
}

// Runner fans a request out to its backends and merges the outcomes.
// Construct once and share; Run is safe for concurrent use.
type Runner struct {
	units  map[string]*unit
	policy config.CompareConfig
	scorer report.Scorer
}

// New builds a Runner from pre-wired callers. The tuning and default model
// for each caller come from its backend config.
func New(callers []*backend.Caller, cfgs map[string]config.BackendConfig, policy config.CompareConfig, scorer report.Scorer) *Runner {
	units := make(map[string]*unit, len(callers))
	for _, c := range callers {
		bc := cfgs[c.BackendID()]
		units[c.BackendID()] = &unit{
			caller: c,
			tuning: bc.Tuning,
			model:  bc.Model,
		}
	}
	return &Runner{units: units, policy: policy, scorer: scorer}
}

// NewFromConfig wires every enabled backend from the config.
func NewFromConfig(cfg *config.Config, scorer report.Scorer) (*Runner, error) {
	backends := cfg.Backends()

	var callers []*backend.Caller
	for id, bc := range backends {
		if !bc.Enabled {
			continue
		}
		c, err := backend.NewCallerFor(id, bc)
		if err != nil {
			return nil, fmt.Errorf("failed to wire backend %s: %w", id, err)
		}
		callers = append(callers, c)
	}
	if len(callers) == 0 {
		return nil, fmt.Errorf("no backends enabled")
	}
	return New(callers, backends, cfg.Compare, scorer), nil
}

// Run fans the request out to the selected backends concurrently and
// returns one Candidate per backend, sorted by backend id. A panicking or
// failing backend yields a failed Candidate; it never takes the other
// backends down with it.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	selected, err := r.selectUnits(req.Backends)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	logging.Compare("fan-out %s: %d backends", requestID, len(selected))
	start := time.Now()

	candidates := make([]Candidate, len(selected))
	var mu sync.Mutex

	// A plain Group, not WithContext: one backend's failure must not
	// cancel its siblings.
	var g errgroup.Group
	for i, u := range selected {
		i, u := i, u
		g.Go(func() error {
			c := r.runSafely(ctx, u, req)
			mu.Lock()
			candidates[i] = c
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].BackendID < candidates[j].BackendID
	})

	elapsed := time.Since(start).Milliseconds()
	logging.Compare("fan-out %s: done in %dms", requestID, elapsed)

	return &Result{
		RequestID:  requestID,
		Candidates: candidates,
		ElapsedMs:  elapsed,
	}, nil
}

// runSafely converts a panic inside one backend's pipeline into a failed
// Candidate.
func (r *Runner) runSafely(ctx context.Context, u *unit, req Request) (c Candidate) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.CompareWarn("%s: pipeline panicked: %v", u.caller.BackendID(), rec)
			c = Candidate{
				BackendID: u.caller.BackendID(),
				OK:        false,
				Error:     fmt.Sprintf("pipeline panicked: %v", rec),
			}
		}
	}()
	return r.runBackend(ctx, u, req)
}

// selectUnits resolves the request's backend list against the wired units.
// Naming an unknown backend is an error; an empty list means all of them.
func (r *Runner) selectUnits(ids []string) ([]*unit, error) {
	if len(ids) == 0 {
		selected := make([]*unit, 0, len(r.units))
		for _, u := range r.units {
			selected = append(selected, u)
		}
		return selected, nil
	}

	selected := make([]*unit, 0, len(ids))
	for _, id := range ids {
		u, ok := r.units[id]
		if !ok {
			return nil, fmt.Errorf("unknown backend: %s", id)
		}
		selected = append(selected, u)
	}
	return selected, nil
}
