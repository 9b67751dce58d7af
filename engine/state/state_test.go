package state

import (
	"testing"

	"github.com/selka/planetcore/types"
)

func testDefs() *Defs {
	return &Defs{
		World: types.World{Name: "test", StartYear: 2025},
		Regions: map[string]types.Region{
			"north": {ID: "north", Population: 60, Outlook: 10, Habitability: 12},
			"south": {ID: "south", Population: 40, Outlook: 20, Habitability: 8},
		},
		Projects: map[string]types.Project{
			"seawalls": {ID: "seawalls", Locked: true},
		},
		Processes: map[string]types.Process{
			"coal":  {ID: "coal", Output: "Electricity", MixShare: 0.6, Features: []string{"IsFossil"}},
			"solar": {ID: "solar", Output: "Electricity", MixShare: 0.2, Features: []string{"IsSolar"}},
			"oil":   {ID: "oil", Output: "Fuel", MixShare: 0.2, Features: []string{"IsFossil"}},
		},
		Events:       map[string]types.Event{},
		Flags:        map[string]bool{"Electrified": true},
		StartScalars: map[string]float64{"Temperature": 1.1},
		StartPlayer:  map[string]float64{"PoliticalCapital": 100},
		StartOutput:  map[string]float64{"Electricity": 50},
		StartDemand:  map[string]float64{"Electricity": 45},
	}
}

func TestNewState_SeedsDeclaredScalars(t *testing.T) {
	defs := testDefs()
	s := NewState(defs)

	if s.Scalars["Temperature"] != 1.1 {
		t.Errorf("Temperature = %g", s.Scalars["Temperature"])
	}
	// Declared but unset variables are present at zero.
	if v, ok := s.Scalars["SeaLevelRise"]; !ok || v != 0 {
		t.Errorf("SeaLevelRise = %g, %v; want declared 0", v, ok)
	}
	if s.Scalars["Year"] != 2025 {
		t.Errorf("Year scalar = %g", s.Scalars["Year"])
	}
	// Names outside the schema are not declared.
	if _, ok := s.Scalars["Vibes"]; ok {
		t.Error("undeclared scalar present")
	}

	if s.Projects["seawalls"] != types.StatusInactive {
		t.Errorf("seawalls status = %s", s.Projects["seawalls"])
	}
	if !s.ProjectLocked["seawalls"] {
		t.Error("seawalls should start locked")
	}
	if ps := s.Processes["coal"]; ps.MixShare != 0.6 || ps.OutputMod != 1 {
		t.Errorf("coal process state = %+v", ps)
	}
}

func TestView_NamespacedReads(t *testing.T) {
	defs := testDefs()
	v := View{State: NewState(defs), Defs: defs}

	tests := []struct {
		name string
		want float64
	}{
		{"world:Temperature", 1.1},
		{"player:PoliticalCapital", 100},
		{"demand:Electricity", 45},
		{"resource:Water", 0},
		{"mix:coal", 0.6},
		{"meta:RunsPlayed", 0},
	}
	for _, tt := range tests {
		got, ok := v.Scalar(tt.name)
		if !ok || got != tt.want {
			t.Errorf("Scalar(%q) = %g, %v; want %g", tt.name, got, ok, tt.want)
		}
	}

	for _, name := range []string{"world:Vibes", "mix:ghost", "nocolon", "weird:Thing"} {
		if _, ok := v.Scalar(name); ok {
			t.Errorf("Scalar(%q) should not resolve", name)
		}
	}
}

func TestView_OutputModWeighting(t *testing.T) {
	defs := testDefs()
	s := NewState(defs)
	v := View{State: s, Defs: defs}
	s.Output["Electricity"] = 100

	// Halve coal's output modifier: weighted mod is
	// (0.6*0.5 + 0.2*1) / 0.8 = 0.625.
	ps := s.Processes["coal"]
	ps.OutputMod = 0.5
	s.Processes["coal"] = ps

	got, ok := v.Scalar("output:Electricity")
	if !ok || got != 62.5 {
		t.Errorf("output:Electricity = %g, %v; want 62.5", got, ok)
	}

	// An output no process produces reads unmodified.
	s.Output["PlantCalories"] = 30
	if got, _ := v.Scalar("output:PlantCalories"); got != 30 {
		t.Errorf("output:PlantCalories = %g, want 30", got)
	}
}

func TestView_FeatureMixShare(t *testing.T) {
	defs := testDefs()
	v := View{State: NewState(defs), Defs: defs}

	// Fossil processes hold 0.8 of a 1.0 total mix.
	got, ok := v.Scalar("featmix:IsFossil")
	if !ok || got != 0.8 {
		t.Errorf("featmix:IsFossil = %g, %v; want 0.8", got, ok)
	}
	if got, _ := v.Scalar("featmix:IsCCS"); got != 0 {
		t.Errorf("featmix:IsCCS = %g, want 0", got)
	}
}

func TestView_LocalReads(t *testing.T) {
	defs := testDefs()
	s := NewState(defs)

	// Region-scoped view reads that region.
	north := View{State: s, Defs: defs, Region: "north"}
	if got, _ := north.Scalar("local:Outlook"); got != 10 {
		t.Errorf("north Outlook = %g", got)
	}

	// Unscoped view reads the population-weighted mean:
	// (10*60 + 20*40) / 100 = 14.
	global := View{State: s, Defs: defs}
	if got, _ := global.Scalar("local:Outlook"); got != 14 {
		t.Errorf("weighted Outlook = %g, want 14", got)
	}

	// Regions that left the coalition drop out of the mean.
	global.Leave("south")
	if got, _ := global.Scalar("local:Outlook"); got != 10 {
		t.Errorf("Outlook after south left = %g, want 10", got)
	}
}

func TestView_LocalWrites(t *testing.T) {
	defs := testDefs()
	s := NewState(defs)

	north := View{State: s, Defs: defs, Region: "north"}
	if !north.AddScalar("local:Outlook", -3) {
		t.Fatal("region-scoped write failed")
	}
	if s.Regions["north"].Scalars["Outlook"] != 7 {
		t.Errorf("north Outlook = %g", s.Regions["north"].Scalars["Outlook"])
	}
	if s.Regions["south"].Scalars["Outlook"] != 20 {
		t.Error("south Outlook changed by scoped write")
	}

	// Unscoped writes fan out to every coalition region.
	global := View{State: s, Defs: defs}
	global.Leave("south")
	if !global.AddScalar("local:Habitability", 1) {
		t.Fatal("fan-out write failed")
	}
	if s.Regions["north"].Scalars["Habitability"] != 13 {
		t.Errorf("north Habitability = %g", s.Regions["north"].Scalars["Habitability"])
	}
	if s.Regions["south"].Scalars["Habitability"] != 8 {
		t.Error("left region received a fan-out write")
	}
}

func TestView_WriteUndeclaredFails(t *testing.T) {
	defs := testDefs()
	v := View{State: NewState(defs), Defs: defs}

	if v.AddScalar("world:Vibes", 1) {
		t.Error("write to undeclared scalar should fail")
	}
	if v.AddScalar("local:Vibes", 1) {
		t.Error("write to undeclared local variable should fail")
	}
	if v.SetFlag("NoSuchFlag") {
		t.Error("setting an undeclared flag should fail")
	}
}

func TestView_MigrationRedistributesByHabitability(t *testing.T) {
	defs := testDefs()
	defs.Regions["east"] = types.Region{ID: "east", Population: 10, Habitability: 4}
	s := NewState(defs)
	v := View{State: s, Defs: defs}

	// North loses 10% of 60 = 6, split south:east by habitability 8:4.
	if !v.Migrate("north") {
		t.Fatal("Migrate failed")
	}
	if got := s.Regions["north"].Scalars["Population"]; got != 54 {
		t.Errorf("north population = %g, want 54", got)
	}
	if got := s.Regions["south"].Scalars["Population"]; got != 44 {
		t.Errorf("south population = %g, want 44", got)
	}
	if got := s.Regions["east"].Scalars["Population"]; got != 12 {
		t.Errorf("east population = %g, want 12", got)
	}
}

func TestView_EntityCatalog(t *testing.T) {
	defs := testDefs()
	v := View{State: NewState(defs), Defs: defs}

	if !v.Exists(types.EntityProject, "seawalls") || v.Exists(types.EntityProject, "ghost") {
		t.Error("project existence check wrong")
	}
	if !v.Exists(types.EntityFlag, "Electrified") || v.Exists(types.EntityFlag, "NoSuchFlag") {
		t.Error("flag existence check wrong")
	}

	status, ok := v.Status(types.EntityProject, "seawalls")
	if !ok || status != types.StatusInactive {
		t.Errorf("Status = %s, %v", status, ok)
	}
	if _, ok := v.Status(types.EntityProcess, "coal"); ok {
		t.Error("only projects have a lifecycle status")
	}
}
