// Package rules implements the condition/effect rule model: validated
// construction, exhaustive editor-time validation, and boolean evaluation
// against world state.
package rules

import (
	"fmt"

	"github.com/selka/planetcore/engine/schema"
	"github.com/selka/planetcore/types"
)

// ViolationKind classifies a schema violation.
type ViolationKind string

const (
	MissingComparator    ViolationKind = "missing_comparator"
	UnexpectedComparator ViolationKind = "unexpected_comparator"
	UnknownComparator    ViolationKind = "unknown_comparator"
	SubjectNotInDomain   ViolationKind = "subject_not_in_domain"
	MissingParam         ViolationKind = "missing_param"
	UnexpectedParam      ViolationKind = "unexpected_param"
	ParamTypeMismatch    ViolationKind = "param_type_mismatch"
	UnknownKind          ViolationKind = "unknown_kind"
)

// SchemaViolation describes one way a rule instance fails its schema.
// These map 1:1 to editor-surfaced validation errors.
type SchemaViolation struct {
	Kind    ViolationKind
	Subject string // the offending kind tag, subject, or param name
	Detail  string
}

func (v *SchemaViolation) Error() string {
	if v.Detail != "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
	}
	return string(v.Kind)
}

// validComparators is the closed comparator set.
var validComparators = map[types.Comparator]bool{
	types.CompLess: true, types.CompLessEqual: true,
	types.CompEqual: true, types.CompNotEqual: true,
	types.CompGreaterEqual: true, types.CompGreater: true,
}

// NewCondition is the single construction gate for conditions: no
// Condition that violates its schema can exist. Returns the first
// violation found; the editor uses ValidateCondition for the full list.
func NewCondition(kind types.ConditionKind, subject string, comparator types.Comparator, value *float64) (types.Condition, error) {
	cs := schema.LookupCondition(kind)
	if !schema.KnownConditionKind(kind) {
		return types.Condition{}, &SchemaViolation{Kind: UnknownKind, Subject: string(kind),
			Detail: fmt.Sprintf("unknown condition kind %q", kind)}
	}

	if cs.Comparable {
		if comparator == "" || value == nil {
			return types.Condition{}, &SchemaViolation{Kind: MissingComparator, Subject: string(kind),
				Detail: fmt.Sprintf("condition %s requires a comparator and value", kind)}
		}
		if !validComparators[comparator] {
			return types.Condition{}, &SchemaViolation{Kind: UnknownComparator, Subject: string(comparator),
				Detail: fmt.Sprintf("unknown comparator %q", comparator)}
		}
	} else if comparator != "" || value != nil {
		return types.Condition{}, &SchemaViolation{Kind: UnexpectedComparator, Subject: string(kind),
			Detail: fmt.Sprintf("condition %s does not take a comparator", kind)}
	}

	if err := checkSubject(cs.Domain, cs.Choices, subject, string(kind)); err != nil {
		return types.Condition{}, err
	}

	return types.Condition{Kind: kind, Subject: subject, Comparator: comparator, Value: value}, nil
}

// NewEffect is the single construction gate for effects. Params keys must
// match the schema's declared parameter names exactly.
func NewEffect(kind types.EffectKind, subject string, params map[string]float64) (types.Effect, error) {
	es := schema.LookupEffect(kind)
	if !schema.KnownEffectKind(kind) {
		return types.Effect{}, &SchemaViolation{Kind: UnknownKind, Subject: string(kind),
			Detail: fmt.Sprintf("unknown effect kind %q", kind)}
	}

	if err := checkSubject(es.Domain, es.Choices, subject, string(kind)); err != nil {
		return types.Effect{}, err
	}

	for _, name := range es.Params {
		if _, ok := params[name]; !ok {
			return types.Effect{}, &SchemaViolation{Kind: MissingParam, Subject: name,
				Detail: fmt.Sprintf("effect %s requires param %q", kind, name)}
		}
	}
	for name := range params {
		if !containsString(es.Params, name) {
			return types.Effect{}, &SchemaViolation{Kind: UnexpectedParam, Subject: name,
				Detail: fmt.Sprintf("effect %s does not take param %q", kind, name)}
		}
	}

	// Copy so the caller cannot mutate a validated instance.
	var copied map[string]float64
	if len(es.Params) > 0 {
		copied = make(map[string]float64, len(es.Params))
		for _, name := range es.Params {
			copied[name] = params[name]
		}
	}

	return types.Effect{Kind: kind, Subject: subject, Params: copied}, nil
}

// checkSubject enforces the domain rule shared by conditions and effects.
// Entity-domain subjects are checked for non-emptiness only; existence is
// the loader/evaluator's concern (the catalog is not known here).
func checkSubject(domain schema.Domain, choices []string, subject, kind string) error {
	switch domain {
	case schema.DomainNone:
		if subject != "" {
			return &SchemaViolation{Kind: SubjectNotInDomain, Subject: subject,
				Detail: fmt.Sprintf("%s takes no subject, got %q", kind, subject)}
		}
	case schema.DomainChoice:
		if !schema.InChoices(choices, subject) {
			return &SchemaViolation{Kind: SubjectNotInDomain, Subject: subject,
				Detail: fmt.Sprintf("%q is not a valid subject for %s", subject, kind)}
		}
	case schema.DomainEntity:
		if subject == "" {
			return &SchemaViolation{Kind: SubjectNotInDomain, Subject: subject,
				Detail: fmt.Sprintf("%s requires an entity reference", kind)}
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
