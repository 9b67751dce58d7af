package effects

import (
	"testing"

	"github.com/selka/planetcore/engine/rules"
	"github.com/selka/planetcore/engine/state"
	"github.com/selka/planetcore/types"
)

// recordingScheduler captures emitted event intents.
type recordingScheduler struct {
	triggered []types.ScheduledEvent
	added     []string
}

func (s *recordingScheduler) TriggerEvent(eventID string, delayMonths int) {
	s.triggered = append(s.triggered, types.ScheduledEvent{EventID: eventID, DueTick: delayMonths})
}

func (s *recordingScheduler) AddEvent(eventID string) {
	s.added = append(s.added, eventID)
}

func testDefs() *state.Defs {
	return &state.Defs{
		World: types.World{Name: "fx", StartYear: 2025},
		Regions: map[string]types.Region{
			"sahel":   {ID: "sahel", Population: 100, Outlook: 10, Habitability: 4},
			"oceania": {ID: "oceania", Population: 50, Outlook: 20, Habitability: 16},
		},
		Projects: map[string]types.Project{
			"seawalls": {ID: "seawalls", Locked: true},
		},
		Processes: map[string]types.Process{
			"coal":  {ID: "coal", Output: "Fuel", MixShare: 0.6, Features: []string{"IsFossil"}},
			"solar": {ID: "solar", Output: "Electricity", MixShare: 0.3, Features: []string{"IsSolar"}},
		},
		Events: map[string]types.Event{
			"crop_failure": {ID: "crop_failure"},
		},
		Flags:        map[string]bool{"Electrified": true},
		StartScalars: map[string]float64{"Temperature": 1.2},
		StartOutput:  map[string]float64{"Fuel": 100},
		StartDemand:  map[string]float64{"Fuel": 90},
	}
}

func testWorld() (state.View, *state.Defs) {
	defs := testDefs()
	return state.View{State: state.NewState(defs), Defs: defs, Region: "sahel"}, defs
}

func mustEffect(t *testing.T, kind types.EffectKind, subject string, params map[string]float64) types.Effect {
	t.Helper()
	e, err := rules.NewEffect(kind, subject, params)
	if err != nil {
		t.Fatalf("NewEffect(%s, %s): %v", kind, subject, err)
	}
	return e
}

func TestApplyEffect_AddChange(t *testing.T) {
	w, _ := testWorld()
	e := mustEffect(t, types.EffWorldVariable, "Temperature", map[string]float64{"Change": 0.1})

	if err := ApplyEffect(e, w, nil); err != nil {
		t.Fatalf("ApplyEffect: %v", err)
	}
	if got := w.State.Scalars["Temperature"]; got != 1.2+0.1 {
		t.Errorf("Temperature = %g, want 1.3", got)
	}
}

func TestApplyEffect_PercentChange(t *testing.T) {
	w, _ := testWorld()
	e := mustEffect(t, types.EffOutput, "Fuel", map[string]float64{"PercentChange": -25})

	if err := ApplyEffect(e, w, nil); err != nil {
		t.Fatalf("ApplyEffect: %v", err)
	}
	if got := w.State.Output["Fuel"]; got != 75 {
		t.Errorf("Fuel output = %g, want 75", got)
	}
}

func TestApplyEffect_LocalVariableScopedToRegion(t *testing.T) {
	w, _ := testWorld()
	e := mustEffect(t, types.EffLocalVariable, "Outlook", map[string]float64{"Change": -2})

	if err := ApplyEffect(e, w, nil); err != nil {
		t.Fatalf("ApplyEffect: %v", err)
	}
	if got := w.State.Regions["sahel"].Scalars["Outlook"]; got != 8 {
		t.Errorf("sahel Outlook = %g, want 8", got)
	}
	if got := w.State.Regions["oceania"].Scalars["Outlook"]; got != 20 {
		t.Errorf("oceania Outlook = %g, want untouched 20", got)
	}
}

func TestApplyEffect_FeatureOutputScaling(t *testing.T) {
	w, _ := testWorld()
	e := mustEffect(t, types.EffOutputForFeature, "IsFossil", map[string]float64{"PercentChange": -50})

	if err := ApplyEffect(e, w, nil); err != nil {
		t.Fatalf("ApplyEffect: %v", err)
	}
	if got := w.State.Processes["coal"].OutputMod; got != 0.5 {
		t.Errorf("coal OutputMod = %g, want 0.5", got)
	}
	if got := w.State.Processes["solar"].OutputMod; got != 1 {
		t.Errorf("solar OutputMod = %g, want untouched 1", got)
	}
}

func TestApplyEffect_SchedulerIntents(t *testing.T) {
	w, _ := testWorld()
	sched := &recordingScheduler{}

	trig := mustEffect(t, types.EffTriggerEvent, "crop_failure", map[string]float64{"DelayMonths": 3})
	add := mustEffect(t, types.EffAddEvent, "crop_failure", nil)

	if err := Apply([]types.Effect{trig, add}, w, sched); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(sched.triggered) != 1 || sched.triggered[0].EventID != "crop_failure" || sched.triggered[0].DueTick != 3 {
		t.Errorf("triggered = %+v", sched.triggered)
	}
	if len(sched.added) != 1 || sched.added[0] != "crop_failure" {
		t.Errorf("added = %v", sched.added)
	}
}

func TestApplyEffect_UnlockAndFlags(t *testing.T) {
	w, _ := testWorld()

	unlock := mustEffect(t, types.EffUnlocksProject, "seawalls", nil)
	flag := mustEffect(t, types.EffSetFlag, "Electrified", nil)

	if err := Apply([]types.Effect{unlock, flag}, w, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if w.State.ProjectLocked["seawalls"] {
		t.Error("seawalls should be unlocked")
	}
	if !w.State.Flags["Electrified"] {
		t.Error("Electrified should be set")
	}
}

func TestApplyEffect_LeaveAndMigration(t *testing.T) {
	w, _ := testWorld()

	migrate := mustEffect(t, types.EffMigration, "sahel", nil)
	if err := ApplyEffect(migrate, w, nil); err != nil {
		t.Fatalf("ApplyEffect: %v", err)
	}
	sahel := w.State.Regions["sahel"].Scalars["Population"]
	oceania := w.State.Regions["oceania"].Scalars["Population"]
	if sahel >= 100 {
		t.Errorf("sahel population = %g, want below 100", sahel)
	}
	if oceania <= 50 {
		t.Errorf("oceania population = %g, want above 50", oceania)
	}
	if total := sahel + oceania; total < 149.999 || total > 150.001 {
		t.Errorf("population not conserved: %g", total)
	}

	leave := mustEffect(t, types.EffRegionLeave, "oceania", nil)
	if err := ApplyEffect(leave, w, nil); err != nil {
		t.Fatalf("ApplyEffect: %v", err)
	}
	if !w.State.Regions["oceania"].Left {
		t.Error("oceania should be marked as left")
	}
}

func TestApply_AtomicOnFailure(t *testing.T) {
	w, _ := testWorld()

	good := mustEffect(t, types.EffWorldVariable, "Temperature", map[string]float64{"Change": 5})
	// Construct a structurally valid effect whose target is missing from
	// this world: the flag was never declared.
	bad := types.Effect{Kind: types.EffSetFlag, Subject: "NoSuchFlag"}

	err := Apply([]types.Effect{good, bad}, w, nil)
	if err == nil {
		t.Fatal("expected ApplyError")
	}
	if got := w.State.Scalars["Temperature"]; got != 1.2 {
		t.Errorf("Temperature = %g after failed batch, want unchanged 1.2", got)
	}
}

func TestApply_LaterEffectsSeeEarlierMutations(t *testing.T) {
	w, _ := testWorld()

	first := mustEffect(t, types.EffOutput, "Fuel", map[string]float64{"PercentChange": -50})
	second := mustEffect(t, types.EffOutput, "Fuel", map[string]float64{"PercentChange": -50})

	if err := Apply([]types.Effect{first, second}, w, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := w.State.Output["Fuel"]; got != 25 {
		t.Errorf("Fuel output = %g, want 25", got)
	}
}
