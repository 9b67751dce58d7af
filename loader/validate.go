package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/selka/planetcore/engine/rules"
	"github.com/selka/planetcore/engine/schema"
	"github.com/selka/planetcore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks the draft for schema conformance and referential
// integrity. Every problem is reported, not just the first.
func validate(d *worldDraft) error {
	ve := &ValidationError{}
	defs := d.defs

	ve.Errors = append(ve.Errors, d.dupes...)

	// World metadata required.
	if defs.World.Name == "" {
		ve.Errors = append(ve.Errors, "World.name is required")
	}
	if defs.World.StartYear == 0 {
		ve.Errors = append(ve.Errors, "World.start_year is required")
	}

	// Start values must name declared variables.
	checkStartKeys(ve, "scalars", defs.StartScalars, schema.WorldVariables)
	checkStartKeys(ve, "player", defs.StartPlayer, schema.PlayerVariables)
	checkStartKeys(ve, "demand", defs.StartDemand, schema.Outputs)
	checkStartKeys(ve, "output", defs.StartOutput, schema.Outputs)
	checkStartKeys(ve, "resources", defs.StartResources, schema.Resources)
	checkStartKeys(ve, "resource_demand", defs.StartResourceDemand, schema.Resources)

	// Process output and feature names come from closed sets.
	for id, p := range defs.Processes {
		if p.Output == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("process %q has no output", id))
		} else if !schema.InChoices(schema.Outputs, p.Output) {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"process %q output %q is not a known output", id, p.Output))
		}
		for _, f := range p.Features {
			if !schema.InChoices(schema.ProcessFeatures, f) {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"process %q feature %q is not a known process feature", id, f))
			}
		}
		if p.MixShare < 0 || p.MixShare > 1 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"process %q mix_share %g is outside [0, 1]", id, p.MixShare))
		}
	}

	// Mix shares per output should not exceed the whole.
	totals := map[string]float64{}
	for _, p := range defs.Processes {
		totals[p.Output] += p.MixShare
	}
	for output, total := range totals {
		if total > 1.000001 {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"mix shares for output %q sum to %g", output, total))
		}
	}

	// Project and process rules.
	for id, rd := range d.projects {
		scope := fmt.Sprintf("project %q", id)
		for _, cr := range rd.conditions {
			reportViolations(ve, scope, rules.ValidateCondition(cr))
			checkConditionRefs(ve, d, scope, cr)
		}
		for _, er := range rd.effects {
			reportViolations(ve, scope, rules.ValidateEffect(er))
			checkEffectRefs(ve, d, scope, er)
		}
	}
	for id, rd := range d.processes {
		scope := fmt.Sprintf("process %q", id)
		for _, cr := range rd.conditions {
			reportViolations(ve, scope, rules.ValidateCondition(cr))
			checkConditionRefs(ve, d, scope, cr)
		}
	}

	// Events.
	for _, ed := range d.events {
		rec := ed.rec
		scope := fmt.Sprintf("event %q", rec.ID)
		reportViolations(ve, scope, rules.ValidateEvent(rec))
		if rec.Region != "" {
			if _, ok := defs.Regions[rec.Region]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"%s references undefined region %q", scope, rec.Region))
			}
		}
		if rec.Probability == schema.ProbabilityName(types.Impossible) {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s can never fire", scope))
		}
		for _, cr := range rec.Conditions {
			checkConditionRefs(ve, d, scope, cr)
		}
		for _, er := range rec.Effects {
			checkEffectRefs(ve, d, scope, er)
		}
	}

	// Print warnings to stderr.
	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func reportViolations(ve *ValidationError, scope string, violations []rules.SchemaViolation) {
	for _, v := range violations {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: %s", scope, v.Detail))
	}
}

// checkConditionRefs verifies that entity-domain condition subjects name
// declared entities. Subject shape problems are already reported by the
// schema pass, so unknown kinds and empty subjects are skipped here.
func checkConditionRefs(ve *ValidationError, d *worldDraft, scope string, rec types.ConditionRecord) {
	kind := types.ConditionKind(rec.Kind)
	if !schema.KnownConditionKind(kind) {
		return
	}
	cs := schema.LookupCondition(kind)
	if cs.Domain != schema.DomainEntity || rec.Subject == "" {
		return
	}
	checkEntityRef(ve, d, scope, rec.Kind, cs.Entity, rec.Subject)
}

// checkEffectRefs is the effect counterpart of checkConditionRefs.
func checkEffectRefs(ve *ValidationError, d *worldDraft, scope string, rec types.EffectRecord) {
	kind := types.EffectKind(rec.Kind)
	if !schema.KnownEffectKind(kind) {
		return
	}
	es := schema.LookupEffect(kind)
	if es.Domain != schema.DomainEntity || rec.Subject == "" {
		return
	}
	checkEntityRef(ve, d, scope, rec.Kind, es.Entity, rec.Subject)
}

func checkEntityRef(ve *ValidationError, d *worldDraft, scope, ruleKind string, entity types.EntityKind, subject string) {
	defs := d.defs
	var ok bool
	switch entity {
	case types.EntityProject:
		_, ok = defs.Projects[subject]
	case types.EntityProcess:
		_, ok = defs.Processes[subject]
	case types.EntityEvent:
		ok = eventDeclared(d, subject)
	case types.EntityFlag:
		ok = defs.Flags[subject]
	case types.EntityRegion:
		_, ok = defs.Regions[subject]
	default:
		ok = true
	}
	if !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"%s: %s references undefined %s %q", scope, ruleKind, entity, subject))
	}
}

func eventDeclared(d *worldDraft, id string) bool {
	for _, ed := range d.events {
		if ed.rec.ID == id {
			return true
		}
	}
	return false
}

// checkStartKeys warns about start values that name no declared
// variable; they would otherwise sit unread in the state forever.
func checkStartKeys(ve *ValidationError, section string, m map[string]float64, choices []string) {
	for key := range m {
		if !schema.InChoices(choices, key) {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"World.%s key %q is not a declared variable", section, key))
		}
	}
}
