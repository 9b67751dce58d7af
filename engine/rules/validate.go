package rules

import (
	"fmt"

	"github.com/selka/planetcore/engine/schema"
	"github.com/selka/planetcore/types"
)

// ValidateCondition exhaustively checks an interchange record against the
// registry, returning every violation in order. Unlike NewCondition it
// never stops early: the editor shows all problems of a partially
// authored rule at once. An empty result means valid.
func ValidateCondition(rec types.ConditionRecord) []SchemaViolation {
	var out []SchemaViolation

	kind := types.ConditionKind(rec.Kind)
	if !schema.KnownConditionKind(kind) {
		out = append(out, SchemaViolation{Kind: UnknownKind, Subject: rec.Kind,
			Detail: fmt.Sprintf("unknown condition kind %q", rec.Kind)})
		return out
	}
	cs := schema.LookupCondition(kind)

	if cs.Comparable {
		if rec.Comparator == "" {
			out = append(out, SchemaViolation{Kind: MissingComparator, Subject: rec.Kind,
				Detail: fmt.Sprintf("condition %s requires a comparator", rec.Kind)})
		} else if !validComparators[types.Comparator(rec.Comparator)] {
			out = append(out, SchemaViolation{Kind: UnknownComparator, Subject: rec.Comparator,
				Detail: fmt.Sprintf("unknown comparator %q", rec.Comparator)})
		}
		if rec.Value == nil {
			out = append(out, SchemaViolation{Kind: MissingComparator, Subject: rec.Kind,
				Detail: fmt.Sprintf("condition %s requires a value", rec.Kind)})
		}
	} else {
		if rec.Comparator != "" {
			out = append(out, SchemaViolation{Kind: UnexpectedComparator, Subject: rec.Kind,
				Detail: fmt.Sprintf("condition %s does not take a comparator", rec.Kind)})
		}
		if rec.Value != nil {
			out = append(out, SchemaViolation{Kind: UnexpectedComparator, Subject: rec.Kind,
				Detail: fmt.Sprintf("condition %s does not take a value", rec.Kind)})
		}
	}

	if err := checkSubject(cs.Domain, cs.Choices, rec.Subject, rec.Kind); err != nil {
		out = append(out, *err.(*SchemaViolation))
	}

	return out
}

// ValidateEffect exhaustively checks an effect interchange record.
func ValidateEffect(rec types.EffectRecord) []SchemaViolation {
	var out []SchemaViolation

	kind := types.EffectKind(rec.Kind)
	if !schema.KnownEffectKind(kind) {
		out = append(out, SchemaViolation{Kind: UnknownKind, Subject: rec.Kind,
			Detail: fmt.Sprintf("unknown effect kind %q", rec.Kind)})
		return out
	}
	es := schema.LookupEffect(kind)

	if err := checkSubject(es.Domain, es.Choices, rec.Subject, rec.Kind); err != nil {
		out = append(out, *err.(*SchemaViolation))
	}

	for _, name := range es.Params {
		v, ok := rec.Params[name]
		if !ok {
			out = append(out, SchemaViolation{Kind: MissingParam, Subject: name,
				Detail: fmt.Sprintf("effect %s requires param %q", rec.Kind, name)})
			continue
		}
		if _, ok := asNumber(v); !ok {
			out = append(out, SchemaViolation{Kind: ParamTypeMismatch, Subject: name,
				Detail: fmt.Sprintf("param %q of effect %s must be a number, got %T", name, rec.Kind, v)})
		}
	}
	for name := range rec.Params {
		if !containsString(es.Params, name) {
			out = append(out, SchemaViolation{Kind: UnexpectedParam, Subject: name,
				Detail: fmt.Sprintf("effect %s does not take param %q", rec.Kind, name)})
		}
	}

	return out
}

// ValidateEvent validates every condition and effect of an event record.
// Violations keep the order of the sequences they came from.
func ValidateEvent(rec types.EventRecord) []SchemaViolation {
	var out []SchemaViolation
	if _, ok := schema.ParseProbability(rec.Probability); !ok {
		out = append(out, SchemaViolation{Kind: UnknownKind, Subject: rec.Probability,
			Detail: fmt.Sprintf("unknown probability tier %q", rec.Probability)})
	}
	for _, c := range rec.Conditions {
		out = append(out, ValidateCondition(c)...)
	}
	for _, e := range rec.Effects {
		out = append(out, ValidateEffect(e)...)
	}
	return out
}

// CompileCondition converts an interchange record into a validated
// Condition through the construction gate.
func CompileCondition(rec types.ConditionRecord) (types.Condition, error) {
	return NewCondition(types.ConditionKind(rec.Kind), rec.Subject,
		types.Comparator(rec.Comparator), rec.Value)
}

// CompileEffect converts an interchange record into a validated Effect.
// Non-numeric params surface as ParamTypeMismatch.
func CompileEffect(rec types.EffectRecord) (types.Effect, error) {
	var params map[string]float64
	if rec.Params != nil {
		params = make(map[string]float64, len(rec.Params))
		for name, v := range rec.Params {
			n, ok := asNumber(v)
			if !ok {
				return types.Effect{}, &SchemaViolation{Kind: ParamTypeMismatch, Subject: name,
					Detail: fmt.Sprintf("param %q must be a number, got %T", name, v)}
			}
			params[name] = n
		}
	}
	return NewEffect(types.EffectKind(rec.Kind), rec.Subject, params)
}

// CompileEvent converts an event record into a validated Event.
func CompileEvent(rec types.EventRecord) (types.Event, error) {
	prob, ok := schema.ParseProbability(rec.Probability)
	if !ok {
		return types.Event{}, &SchemaViolation{Kind: UnknownKind, Subject: rec.Probability,
			Detail: fmt.Sprintf("unknown probability tier %q", rec.Probability)}
	}
	ev := types.Event{ID: rec.ID, Name: rec.Name, Region: rec.Region, Probability: prob}
	for _, cr := range rec.Conditions {
		c, err := CompileCondition(cr)
		if err != nil {
			return types.Event{}, fmt.Errorf("event %s: %w", rec.ID, err)
		}
		ev.Conditions = append(ev.Conditions, c)
	}
	for _, er := range rec.Effects {
		e, err := CompileEffect(er)
		if err != nil {
			return types.Event{}, fmt.Errorf("event %s: %w", rec.ID, err)
		}
		ev.Effects = append(ev.Effects, e)
	}
	return ev, nil
}

// RecordCondition produces the interchange record of a Condition.
// Round-trip with CompileCondition is lossless.
func RecordCondition(c types.Condition) types.ConditionRecord {
	return types.ConditionRecord{
		Kind:       string(c.Kind),
		Subject:    c.Subject,
		Comparator: string(c.Comparator),
		Value:      c.Value,
	}
}

// RecordEffect produces the interchange record of an Effect.
func RecordEffect(e types.Effect) types.EffectRecord {
	var params map[string]any
	if e.Params != nil {
		params = make(map[string]any, len(e.Params))
		for name, v := range e.Params {
			params[name] = v
		}
	}
	return types.EffectRecord{Kind: string(e.Kind), Subject: e.Subject, Params: params}
}

// RecordEvent produces the interchange record of an Event.
func RecordEvent(ev types.Event) types.EventRecord {
	rec := types.EventRecord{
		ID:          ev.ID,
		Name:        ev.Name,
		Region:      ev.Region,
		Probability: schema.ProbabilityName(ev.Probability),
	}
	for _, c := range ev.Conditions {
		rec.Conditions = append(rec.Conditions, RecordCondition(c))
	}
	for _, e := range ev.Effects {
		rec.Effects = append(rec.Effects, RecordEffect(e))
	}
	return rec
}

// asNumber converts JSON/Lua numeric representations to float64.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
