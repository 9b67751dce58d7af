package rules

import (
	"errors"
	"testing"

	"github.com/selka/planetcore/types"
)

func fp(v float64) *float64 { return &v }

func TestNewCondition_Valid(t *testing.T) {
	tests := []struct {
		name       string
		kind       types.ConditionKind
		subject    string
		comparator types.Comparator
		value      *float64
	}{
		{"world variable", types.CondWorldVariable, "Temperature", ">=", fp(2)},
		{"local variable", types.CondLocalVariable, "Outlook", "<", fp(5)},
		{"demand", types.CondDemand, "Fuel", ">", fp(100)},
		{"output demand gap", types.CondOutputDemandGap, "Electricity", ">", fp(0)},
		{"resource gap", types.CondResourceDemandGap, "Water", ">=", fp(0)},
		{"process mix", types.CondProcessMixShare, "coal_power", "<=", fp(0.2)},
		{"feature mix", types.CondProcessMixShareFeature, "IsFossil", "<", fp(0.1)},
		{"runs played", types.CondRunsPlayed, "", "==", fp(0)},
		{"project status", types.CondProjectFinished, "seawalls", "", nil},
		{"flag", types.CondFlag, "Electrified", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCondition(tt.kind, tt.subject, tt.comparator, tt.value)
			if err != nil {
				t.Fatalf("NewCondition: %v", err)
			}
			if c.Kind != tt.kind || c.Subject != tt.subject {
				t.Errorf("built %+v", c)
			}
		})
	}
}

func TestNewCondition_Violations(t *testing.T) {
	tests := []struct {
		name       string
		kind       types.ConditionKind
		subject    string
		comparator types.Comparator
		value      *float64
		want       ViolationKind
	}{
		{"unknown kind", "Weather", "", "", nil, UnknownKind},
		{"comparable without comparator", types.CondWorldVariable, "Temperature", "", nil, MissingComparator},
		{"comparable without value", types.CondWorldVariable, "Temperature", ">", nil, MissingComparator},
		{"bad comparator", types.CondWorldVariable, "Temperature", "=>", fp(1), UnknownComparator},
		{"comparator on status check", types.CondProjectActive, "seawalls", ">", fp(1), UnexpectedComparator},
		{"value on flag check", types.CondFlag, "Electrified", "", fp(1), UnexpectedComparator},
		{"subject outside choice set", types.CondWorldVariable, "Vibes", ">", fp(1), SubjectNotInDomain},
		{"subject on subjectless kind", types.CondRunsPlayed, "extra", ">", fp(1), SubjectNotInDomain},
		{"empty entity reference", types.CondProjectActive, "", "", nil, SubjectNotInDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCondition(tt.kind, tt.subject, tt.comparator, tt.value)
			if err == nil {
				t.Fatal("expected violation")
			}
			var sv *SchemaViolation
			if !errors.As(err, &sv) {
				t.Fatalf("expected *SchemaViolation, got %T", err)
			}
			if sv.Kind != tt.want {
				t.Errorf("violation = %s, want %s", sv.Kind, tt.want)
			}
		})
	}
}

func TestNewEffect_Valid(t *testing.T) {
	e, err := NewEffect(types.EffWorldVariable, "Temperature", map[string]float64{"Change": -0.5})
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if e.Params["Change"] != -0.5 {
		t.Errorf("Change = %g", e.Params["Change"])
	}

	// The validated instance owns its params.
	in := map[string]float64{"PercentChange": -25}
	e2, err := NewEffect(types.EffOutput, "Fuel", in)
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	in["PercentChange"] = 99
	if e2.Params["PercentChange"] != -25 {
		t.Error("mutating the input map changed a validated effect")
	}
}

func TestNewEffect_Violations(t *testing.T) {
	tests := []struct {
		name    string
		kind    types.EffectKind
		subject string
		params  map[string]float64
		want    ViolationKind
	}{
		{"unknown kind", "Terraform", "", nil, UnknownKind},
		{"missing param", types.EffWorldVariable, "Temperature", nil, MissingParam},
		{"wrong param name", types.EffWorldVariable, "Temperature",
			map[string]float64{"Delta": 1}, MissingParam},
		{"extra param", types.EffSetFlag, "Electrified",
			map[string]float64{"Change": 1}, UnexpectedParam},
		{"subject outside choice set", types.EffDemand, "Comfort",
			map[string]float64{"PercentChange": -10}, SubjectNotInDomain},
		{"empty entity reference", types.EffTriggerEvent, "",
			map[string]float64{"DelayMonths": 2}, SubjectNotInDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEffect(tt.kind, tt.subject, tt.params)
			if err == nil {
				t.Fatal("expected violation")
			}
			var sv *SchemaViolation
			if !errors.As(err, &sv) {
				t.Fatalf("expected *SchemaViolation, got %T", err)
			}
			if sv.Kind != tt.want {
				t.Errorf("violation = %s, want %s", sv.Kind, tt.want)
			}
		})
	}
}
