// Package engine provides the tick orchestrator that wires together the
// event pool, effect application, project lifecycle, and the external
// climate model into a single simulation step.
package engine

import (
	"fmt"
	"sort"

	"github.com/selka/planetcore/climate"
	"github.com/selka/planetcore/engine/effects"
	"github.com/selka/planetcore/engine/events"
	"github.com/selka/planetcore/engine/rules"
	"github.com/selka/planetcore/engine/state"
	"github.com/selka/planetcore/types"
)

// monthsPerYear is the tick-to-year conversion.
const monthsPerYear = 12

// Engine holds the world definitions and mutable simulation state.
type Engine struct {
	Defs    *state.Defs
	State   *types.State
	Pool    *events.Pool
	RNG     *RNG
	Climate *climate.Model // nil = no physics collaborator wired

	diags []string
}

// TickResult is the output of a single monthly step.
type TickResult struct {
	Year        int
	Month       int // 1-12
	Fired       []types.Event
	Diagnostics []string
}

// New creates an engine with a fresh state and the given RNG seed.
func New(defs *state.Defs, seed int64) *Engine {
	s := state.NewState(defs)
	s.RNGSeed = seed
	return &Engine{
		Defs:  defs,
		State: s,
		Pool:  events.NewPool(defs),
		RNG:   NewRNG(seed),
	}
}

// NewRun resets the engine for another playthrough of the same world,
// preserving the runs-played count.
func (e *Engine) NewRun(seed int64) {
	runs := e.State.RunsPlayed + 1
	s := state.NewState(e.Defs)
	s.RNGSeed = seed
	s.RunsPlayed = runs
	e.State = s
	e.Pool = events.NewPool(e.Defs)
	e.RNG = NewRNG(seed)
	e.diags = nil
}

// StepMonth advances the simulation by one month: time, climate inputs,
// project progress, then the event pool roll and effect application.
func (e *Engine) StepMonth() TickResult {
	s := e.State
	s.Tick++
	if s.Tick%monthsPerYear == 1 && s.Tick > 1 {
		s.Year++
		s.Scalars["Year"] = float64(s.Year)
		e.stepClimate()
	}

	// Trigger intents enqueued before the roll (project outcomes) must
	// be dated from the current tick.
	e.Pool.Advance(s.Tick)

	e.advanceProjects()

	fired := e.Pool.Roll(s, e.RNG)
	for _, ev := range fired {
		view := state.View{State: s, Defs: e.Defs, Region: ev.Region}
		if err := effects.Apply(ev.Effects, view, e.Pool); err != nil {
			// Atomic: nothing applied. Skip with a diagnostic.
			e.diags = append(e.diags, fmt.Sprintf("event %s skipped: %v", ev.ID, err))
			continue
		}
		s.EventLog = append(s.EventLog, fmt.Sprintf("%d-%02d %s", s.Year, e.month(), ev.ID))
	}

	for _, d := range e.Pool.Drain() {
		e.diags = append(e.diags, fmt.Sprintf("event %s: %v", d.EventID, d.Err))
	}

	s.RNGPosition = e.RNG.Position()

	result := TickResult{Year: s.Year, Month: e.month(), Fired: fired, Diagnostics: e.diags}
	e.diags = nil
	return result
}

// StepYear advances twelve months and returns each month's result.
func (e *Engine) StepYear() []TickResult {
	results := make([]TickResult, 0, monthsPerYear)
	for i := 0; i < monthsPerYear; i++ {
		results = append(results, e.StepMonth())
	}
	return results
}

// StartProject activates an unlocked, inactive project. Projects with a
// build time finish after Years*12 monthly steps; instant projects
// finish immediately.
func (e *Engine) StartProject(id string) error {
	def, ok := e.Defs.Projects[id]
	if !ok {
		return fmt.Errorf("unknown project %q", id)
	}
	if e.State.ProjectLocked[id] {
		return fmt.Errorf("project %q is locked", id)
	}
	if e.State.Projects[id] != types.StatusInactive {
		return fmt.Errorf("project %q is %s", id, e.State.Projects[id])
	}

	view := state.View{State: e.State, Defs: e.Defs}
	ok, err := rules.EvalAll(def.UnlockConditions, view)
	if err != nil {
		e.diags = append(e.diags, fmt.Sprintf("project %s: %v", id, err))
		return fmt.Errorf("project %q requirements could not be evaluated", id)
	}
	if !ok {
		return fmt.Errorf("project %q requirements not met", id)
	}

	e.State.Projects[id] = types.StatusActive
	e.State.ProjectMonths[id] = def.Years * monthsPerYear
	if def.Years == 0 {
		e.finishProject(id, def)
	}
	return nil
}

// HaltProject permanently halts an active or stalled project.
func (e *Engine) HaltProject(id string) error {
	return e.transitionProject(id, types.StatusHalted, types.StatusActive, types.StatusStalled)
}

// StallProject pauses an active project's build.
func (e *Engine) StallProject(id string) error {
	return e.transitionProject(id, types.StatusStalled, types.StatusActive)
}

// ResumeProject resumes a stalled project.
func (e *Engine) ResumeProject(id string) error {
	return e.transitionProject(id, types.StatusActive, types.StatusStalled)
}

// SetProcessMixShare assigns a production mix share to an unlocked
// process whose availability gate holds.
func (e *Engine) SetProcessMixShare(id string, share float64) error {
	def, ok := e.Defs.Processes[id]
	if !ok {
		return fmt.Errorf("unknown process %q", id)
	}
	ps := e.State.Processes[id]
	if ps.Locked {
		return fmt.Errorf("process %q is locked", id)
	}
	if share < 0 {
		return fmt.Errorf("mix share must be non-negative")
	}

	view := state.View{State: e.State, Defs: e.Defs}
	ok, err := rules.EvalAll(def.Availability, view)
	if err != nil {
		e.diags = append(e.diags, fmt.Sprintf("process %s: %v", id, err))
		return fmt.Errorf("process %q availability could not be evaluated", id)
	}
	if !ok {
		return fmt.Errorf("process %q is not available", id)
	}

	ps.MixShare = share
	e.State.Processes[id] = ps
	return nil
}

// Diagnostics returns and clears accumulated runtime diagnostics.
func (e *Engine) Diagnostics() []string {
	d := e.diags
	e.diags = nil
	return d
}

func (e *Engine) month() int {
	m := e.State.Tick % monthsPerYear
	if m == 0 {
		m = monthsPerYear
	}
	return m
}

// stepClimate feeds the physics collaborator the current year and
// emissions and writes its declared outputs back into world variables.
// Outputs the schema does not declare are dropped.
func (e *Engine) stepClimate() {
	if e.Climate == nil {
		return
	}
	out, err := e.Climate.Step(float64(e.State.Year), e.State.Scalars["Emissions"])
	if err != nil {
		e.diags = append(e.diags, fmt.Sprintf("climate model: %v", err))
		return
	}
	for name, v := range out {
		if _, ok := e.State.Scalars[name]; ok {
			e.State.Scalars[name] = v
		}
	}
}

// advanceProjects decrements build timers on active projects and
// finishes those that reach zero. Projects advance in sorted ID order
// so outcome effects apply deterministically when several finish on
// the same tick.
func (e *Engine) advanceProjects() {
	var active []string
	for id, status := range e.State.Projects {
		if status == types.StatusActive {
			active = append(active, id)
		}
	}
	sort.Strings(active)

	for _, id := range active {
		months := e.State.ProjectMonths[id] - 1
		e.State.ProjectMonths[id] = months
		if months <= 0 {
			e.finishProject(id, e.Defs.Projects[id])
		}
	}
}

// finishProject marks a project finished and applies its outcome
// effects atomically. A failed batch leaves the world untouched apart
// from the status change, with a diagnostic.
func (e *Engine) finishProject(id string, def types.Project) {
	e.State.Projects[id] = types.StatusFinished
	delete(e.State.ProjectMonths, id)

	view := state.View{State: e.State, Defs: e.Defs}
	if err := effects.Apply(def.OutcomeEffects, view, e.Pool); err != nil {
		e.diags = append(e.diags, fmt.Sprintf("project %s outcome skipped: %v", id, err))
	}
}

func (e *Engine) transitionProject(id string, to types.EntityStatus, from ...types.EntityStatus) error {
	if _, ok := e.Defs.Projects[id]; !ok {
		return fmt.Errorf("unknown project %q", id)
	}
	current := e.State.Projects[id]
	for _, f := range from {
		if current == f {
			e.State.Projects[id] = to
			return nil
		}
	}
	return fmt.Errorf("project %q is %s", id, current)
}
