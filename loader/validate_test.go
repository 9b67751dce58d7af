package loader

import (
	"testing"

	"github.com/selka/planetcore/engine/state"
	"github.com/selka/planetcore/types"
)

// validDraft returns a minimal valid draft for testing.
func validDraft() *worldDraft {
	return &worldDraft{
		defs: &state.Defs{
			World:     types.World{Name: "Test", StartYear: 2025},
			Regions:   map[string]types.Region{},
			Projects:  map[string]types.Project{},
			Processes: map[string]types.Process{},
			Events:    map[string]types.Event{},
			Flags:     map[string]bool{},
		},
		projects:  map[string]ruleDraft{},
		processes: map[string]ruleDraft{},
	}
}

func TestValidate_ValidDraft(t *testing.T) {
	if err := validate(validDraft()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_MissingWorldName(t *testing.T) {
	d := validDraft()
	d.defs.World.Name = ""

	err := validate(d)
	if err == nil {
		t.Fatal("expected error for missing world name")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	assertContains(t, ve.Errors, "World.name")
}

func TestValidate_MissingStartYear(t *testing.T) {
	d := validDraft()
	d.defs.World.StartYear = 0

	err := validate(d)
	if err == nil {
		t.Fatal("expected error for missing start year")
	}
	ve := err.(*ValidationError)
	assertContains(t, ve.Errors, "World.start_year")
}

func TestValidate_UnknownStartKeyWarns(t *testing.T) {
	d := validDraft()
	d.defs.StartScalars = map[string]float64{"Temprature": 1.1}

	if err := validate(d); err != nil {
		t.Fatalf("misspelled start key should warn, not fail: %v", err)
	}
	// Re-run capturing the warning list directly.
	ve := &ValidationError{}
	checkStartKeys(ve, "scalars", d.defs.StartScalars, []string{"Temperature"})
	assertContains(t, ve.Warnings, `"Temprature"`)
}

func TestValidate_OversubscribedMixWarns(t *testing.T) {
	d := validDraft()
	d.defs.Processes["a"] = types.Process{ID: "a", Output: "Electricity", MixShare: 0.7}
	d.defs.Processes["b"] = types.Process{ID: "b", Output: "Electricity", MixShare: 0.6}
	d.processes["a"] = ruleDraft{}
	d.processes["b"] = ruleDraft{}

	if err := validate(d); err != nil {
		t.Fatalf("oversubscribed mix should warn, not fail: %v", err)
	}
}

func TestValidate_BadRuleRecord(t *testing.T) {
	d := validDraft()
	d.defs.Projects["p"] = types.Project{ID: "p", Name: "P"}
	d.projects["p"] = ruleDraft{
		conditions: []types.ConditionRecord{
			{Kind: "WorldVariable", Subject: "Temperature"}, // missing comparator and value
		},
	}

	err := validate(d)
	if err == nil {
		t.Fatal("expected error for comparator-less comparable condition")
	}
	ve := err.(*ValidationError)
	assertContains(t, ve.Errors, "requires a comparator")
	assertContains(t, ve.Errors, "requires a value")
}
