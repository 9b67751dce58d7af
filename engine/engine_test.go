package engine

import (
	"strings"
	"testing"

	"github.com/selka/planetcore/climate"
	"github.com/selka/planetcore/engine/rules"
	"github.com/selka/planetcore/engine/state"
	"github.com/selka/planetcore/types"
)

func mustCond(t *testing.T, kind types.ConditionKind, subject string, comp types.Comparator, value float64) types.Condition {
	t.Helper()
	c, err := rules.NewCondition(kind, subject, comp, &value)
	if err != nil {
		t.Fatalf("NewCondition: %v", err)
	}
	return c
}

func mustEffect(t *testing.T, kind types.EffectKind, subject string, params map[string]float64) types.Effect {
	t.Helper()
	e, err := rules.NewEffect(kind, subject, params)
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	return e
}

func testDefs(t *testing.T) *state.Defs {
	t.Helper()
	return &state.Defs{
		World:   types.World{Name: "test", StartYear: 2025},
		Regions: map[string]types.Region{"sahel": {ID: "sahel", Population: 100, Habitability: 5}},
		Projects: map[string]types.Project{
			"seawalls": {ID: "seawalls", Years: 1,
				OutcomeEffects: []types.Effect{
					mustEffect(t, types.EffWorldVariable, "SeaLevelRise", map[string]float64{"Change": -0.2}),
				}},
			"decree": {ID: "decree", Years: 0,
				OutcomeEffects: []types.Effect{
					mustEffect(t, types.EffSetFlag, "Electrified", nil),
				}},
			"vault": {ID: "vault", Years: 1, Locked: true},
			"reach": {ID: "reach", Years: 1,
				UnlockConditions: []types.Condition{
					mustCond(t, types.CondWorldVariable, "Temperature", types.CompGreaterEqual, 3.0),
				}},
		},
		Processes: map[string]types.Process{
			"solar": {ID: "solar", Output: "Electricity", MixShare: 0.2},
			"fusion": {ID: "fusion", Output: "Electricity",
				Availability: []types.Condition{
					mustCondNoComp(t, types.CondProjectFinished, "seawalls"),
				}},
			"doomcoal": {ID: "doomcoal", Output: "Electricity", Locked: true},
		},
		Events: map[string]types.Event{
			"warming": {ID: "warming", Name: "Warming", Probability: types.Guaranteed,
				Effects: []types.Effect{
					mustEffect(t, types.EffWorldVariable, "Temperature", map[string]float64{"Change": 0.1}),
				}},
		},
		EventOrder:   []string{"warming"},
		Flags:        map[string]bool{"Electrified": true},
		StartScalars: map[string]float64{"Temperature": 1.0, "SeaLevelRise": 0.5, "Emissions": 50},
	}
}

func mustCondNoComp(t *testing.T, kind types.ConditionKind, subject string) types.Condition {
	t.Helper()
	c, err := rules.NewCondition(kind, subject, "", nil)
	if err != nil {
		t.Fatalf("NewCondition: %v", err)
	}
	return c
}

func TestStepMonth_TimeAndEvents(t *testing.T) {
	eng := New(testDefs(t), 1)

	res := eng.StepMonth()
	if res.Year != 2025 || res.Month != 1 {
		t.Errorf("first tick = %d-%02d", res.Year, res.Month)
	}
	if len(res.Fired) != 1 || res.Fired[0].ID != "warming" {
		t.Fatalf("fired = %+v", res.Fired)
	}
	if got := eng.State.Scalars["Temperature"]; got != 1.1 {
		t.Errorf("Temperature = %g", got)
	}
	if len(eng.State.EventLog) != 1 || eng.State.EventLog[0] != "2025-01 warming" {
		t.Errorf("EventLog = %v", eng.State.EventLog)
	}
}

func TestStepMonth_YearRollover(t *testing.T) {
	eng := New(testDefs(t), 1)

	for i := 0; i < 12; i++ {
		res := eng.StepMonth()
		if res.Year != 2025 {
			t.Fatalf("year rolled during first twelve ticks at tick %d", eng.State.Tick)
		}
		if i == 11 && res.Month != 12 {
			t.Errorf("twelfth tick month = %d", res.Month)
		}
	}
	res := eng.StepMonth()
	if res.Year != 2026 || res.Month != 1 {
		t.Errorf("thirteenth tick = %d-%02d", res.Year, res.Month)
	}
	if eng.State.Scalars["Year"] != 2026 {
		t.Errorf("Year scalar = %g", eng.State.Scalars["Year"])
	}
}

func TestStepYear(t *testing.T) {
	eng := New(testDefs(t), 1)
	results := eng.StepYear()
	if len(results) != 12 {
		t.Fatalf("got %d results", len(results))
	}
	if eng.State.Tick != 12 {
		t.Errorf("tick = %d", eng.State.Tick)
	}
}

func TestStartProject_Lifecycle(t *testing.T) {
	eng := New(testDefs(t), 1)

	if err := eng.StartProject("seawalls"); err != nil {
		t.Fatalf("StartProject: %v", err)
	}
	if eng.State.Projects["seawalls"] != types.StatusActive {
		t.Errorf("status = %s", eng.State.Projects["seawalls"])
	}
	if eng.State.ProjectMonths["seawalls"] != 12 {
		t.Errorf("months = %d", eng.State.ProjectMonths["seawalls"])
	}

	// Starting again while active fails.
	if err := eng.StartProject("seawalls"); err == nil {
		t.Error("double start succeeded")
	}

	for i := 0; i < 12; i++ {
		eng.StepMonth()
	}
	if eng.State.Projects["seawalls"] != types.StatusFinished {
		t.Errorf("status after 12 months = %s", eng.State.Projects["seawalls"])
	}
	if got := eng.State.Scalars["SeaLevelRise"]; got != 0.3 {
		t.Errorf("SeaLevelRise = %g, outcome effects not applied", got)
	}
}

func TestStartProject_InstantFinish(t *testing.T) {
	eng := New(testDefs(t), 1)
	if err := eng.StartProject("decree"); err != nil {
		t.Fatalf("StartProject: %v", err)
	}
	if eng.State.Projects["decree"] != types.StatusFinished {
		t.Errorf("status = %s", eng.State.Projects["decree"])
	}
	if !eng.State.Flags["Electrified"] {
		t.Error("outcome flag not set")
	}
}

func TestStartProject_Gates(t *testing.T) {
	eng := New(testDefs(t), 1)

	if err := eng.StartProject("ghost"); err == nil {
		t.Error("unknown project started")
	}
	if err := eng.StartProject("vault"); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Errorf("locked project: %v", err)
	}
	if err := eng.StartProject("reach"); err == nil || !strings.Contains(err.Error(), "not met") {
		t.Errorf("unmet requirements: %v", err)
	}

	eng.State.Scalars["Temperature"] = 3.5
	if err := eng.StartProject("reach"); err != nil {
		t.Errorf("StartProject after requirements met: %v", err)
	}
}

func TestProjectTransitions(t *testing.T) {
	eng := New(testDefs(t), 1)
	if err := eng.StartProject("seawalls"); err != nil {
		t.Fatal(err)
	}

	if err := eng.StallProject("seawalls"); err != nil {
		t.Fatalf("stall: %v", err)
	}
	if eng.State.Projects["seawalls"] != types.StatusStalled {
		t.Errorf("status = %s", eng.State.Projects["seawalls"])
	}

	// Stalled projects do not advance.
	months := eng.State.ProjectMonths["seawalls"]
	eng.StepMonth()
	if eng.State.ProjectMonths["seawalls"] != months {
		t.Error("stalled project advanced")
	}

	if err := eng.ResumeProject("seawalls"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := eng.HaltProject("seawalls"); err != nil {
		t.Fatalf("halt: %v", err)
	}
	if err := eng.ResumeProject("seawalls"); err == nil {
		t.Error("resumed a halted project")
	}
	if err := eng.StallProject("vault"); err == nil {
		t.Error("stalled an inactive project")
	}
}

func TestSetProcessMixShare(t *testing.T) {
	eng := New(testDefs(t), 1)

	if err := eng.SetProcessMixShare("solar", 0.5); err != nil {
		t.Fatalf("SetProcessMixShare: %v", err)
	}
	if eng.State.Processes["solar"].MixShare != 0.5 {
		t.Errorf("share = %g", eng.State.Processes["solar"].MixShare)
	}

	if err := eng.SetProcessMixShare("ghost", 0.1); err == nil {
		t.Error("unknown process accepted")
	}
	if err := eng.SetProcessMixShare("doomcoal", 0.1); err == nil {
		t.Error("locked process accepted")
	}
	if err := eng.SetProcessMixShare("solar", -0.1); err == nil {
		t.Error("negative share accepted")
	}
	if err := eng.SetProcessMixShare("fusion", 0.1); err == nil || !strings.Contains(err.Error(), "not available") {
		t.Errorf("gated process: %v", err)
	}

	// Finishing the gating project opens the process.
	eng.State.Projects["seawalls"] = types.StatusFinished
	if err := eng.SetProcessMixShare("fusion", 0.1); err != nil {
		t.Errorf("SetProcessMixShare after gate opened: %v", err)
	}
}

func TestNewRun_IncrementsRunsPlayed(t *testing.T) {
	eng := New(testDefs(t), 1)
	eng.StepMonth()
	eng.NewRun(2)

	if eng.State.RunsPlayed != 1 {
		t.Errorf("RunsPlayed = %d", eng.State.RunsPlayed)
	}
	if eng.State.Tick != 0 {
		t.Errorf("tick not reset: %d", eng.State.Tick)
	}
	if eng.State.RNGSeed != 2 {
		t.Errorf("seed = %d", eng.State.RNGSeed)
	}
	if got := eng.State.Scalars["Temperature"]; got != 1.0 {
		t.Errorf("Temperature not reset: %g", got)
	}
}

func TestStepClimate_WritesDeclaredScalarsOnly(t *testing.T) {
	eng := New(testDefs(t), 1)
	model, err := climate.Load(`
		function step(year, emissions) {
			return { Temperature: 2.2, SeaLevelRise: 0.9, Vibes: 99 };
		}`)
	if err != nil {
		t.Fatalf("climate.Load: %v", err)
	}
	eng.Climate = model

	// Climate runs at the first tick of each new year.
	for i := 0; i < 13; i++ {
		eng.StepMonth()
	}

	// Temperature read includes a year of warming events on top of the
	// model write, so check SeaLevelRise, which no event touches.
	if got := eng.State.Scalars["SeaLevelRise"]; got != 0.9 {
		t.Errorf("SeaLevelRise = %g", got)
	}
	if _, ok := eng.State.Scalars["Vibes"]; ok {
		t.Error("undeclared model output written")
	}
}

func TestAdvanceProjects_DeterministicOutcomeOrder(t *testing.T) {
	trigger := func(target string) []types.Effect {
		return []types.Effect{
			mustEffect(t, types.EffTriggerEvent, target, map[string]float64{"DelayMonths": 3}),
		}
	}

	// Map iteration order varies between runs, so repeat: every run must
	// enqueue the outcome intents in sorted project ID order.
	for run := 0; run < 20; run++ {
		defs := &state.Defs{
			World: types.World{Name: "test", StartYear: 2025},
			Projects: map[string]types.Project{
				"windfarms": {ID: "windfarms", Years: 1, OutcomeEffects: trigger("storm")},
				"atolls":    {ID: "atolls", Years: 1, OutcomeEffects: trigger("flood")},
			},
			Events: map[string]types.Event{
				"storm": {ID: "storm", Probability: types.Impossible},
				"flood": {ID: "flood", Probability: types.Impossible},
			},
			EventOrder: []string{"storm", "flood"},
		}
		eng := New(defs, 42)
		if err := eng.StartProject("windfarms"); err != nil {
			t.Fatal(err)
		}
		if err := eng.StartProject("atolls"); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 12; i++ {
			eng.StepMonth()
		}

		q := eng.Pool.Queue()
		if len(q) != 2 || q[0].EventID != "flood" || q[1].EventID != "storm" {
			t.Fatalf("run %d: queue = %+v", run, q)
		}
	}
}

func TestProjectOutcomeTrigger_DelayFromFinishTick(t *testing.T) {
	defs := &state.Defs{
		World: types.World{Name: "test", StartYear: 2025},
		Projects: map[string]types.Project{
			"seeding": {ID: "seeding", Years: 1, OutcomeEffects: []types.Effect{
				mustEffect(t, types.EffTriggerEvent, "bloom", map[string]float64{"DelayMonths": 3}),
			}},
		},
		Events: map[string]types.Event{
			"bloom": {ID: "bloom", Probability: types.Impossible},
		},
		EventOrder: []string{"bloom"},
	}
	eng := New(defs, 1)
	if err := eng.StartProject("seeding"); err != nil {
		t.Fatal(err)
	}

	// The project finishes at tick 12; a 3-month delay is due at 15.
	for i := 0; i < 12; i++ {
		eng.StepMonth()
	}
	q := eng.Pool.Queue()
	if len(q) != 1 || q[0].DueTick != 15 {
		t.Fatalf("queue = %+v, want bloom due at tick 15", q)
	}

	for i := 0; i < 2; i++ {
		if res := eng.StepMonth(); len(res.Fired) != 0 {
			t.Fatalf("fired at tick %d: %+v", eng.State.Tick, res.Fired)
		}
	}
	res := eng.StepMonth()
	if eng.State.Tick != 15 || len(res.Fired) != 1 || res.Fired[0].ID != "bloom" {
		t.Fatalf("tick %d fired %+v, want bloom at 15", eng.State.Tick, res.Fired)
	}
}

func TestStepMonth_RecordsRNGPosition(t *testing.T) {
	defs := testDefs(t)
	defs.Events["maybe"] = types.Event{ID: "maybe", Probability: types.Random}
	defs.EventOrder = append(defs.EventOrder, "maybe")
	eng := New(defs, 1)

	eng.StepMonth()
	// "warming" is Guaranteed (no draw), "maybe" is Random (one draw).
	if eng.State.RNGPosition != 1 {
		t.Errorf("RNGPosition = %d", eng.State.RNGPosition)
	}
	if eng.State.RNGPosition != eng.RNG.Position() {
		t.Error("state position out of sync with RNG")
	}
}
