package rules

import (
	"fmt"

	"github.com/selka/planetcore/engine/schema"
	"github.com/selka/planetcore/types"
)

// World is the read-only view of simulation state the evaluator needs.
// Scalar reads use namespaced names ("world:Temperature", "demand:Fuel");
// derived ratios (process mix shares) are scalars too. The simulation
// runtime guarantees exclusive access for the duration of a call.
type World interface {
	// Scalar returns a named numeric reading, or false if the name is
	// not declared in this world.
	Scalar(name string) (float64, bool)
	// Exists reports whether an entity of the given kind is declared.
	Exists(kind types.EntityKind, id string) bool
	// Status returns the lifecycle status of a project-like entity.
	Status(kind types.EntityKind, id string) (types.EntityStatus, bool)
	// Flag reports whether a flag is currently set.
	Flag(id string) bool
}

// EvalError reports a condition that could not be resolved against the
// world. Recoverable: callers treat the condition as false.
type EvalError struct {
	Kind    types.ConditionKind
	Subject string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("condition %s: unresolved subject %q", e.Kind, e.Subject)
}

// Evaluate resolves a condition's subject to a scalar reading and applies
// its comparator. Non-comparable kinds are truthy status/flag reads
// (reading != 0). Pure: evaluating twice against the same world yields
// the same verdict.
func Evaluate(c types.Condition, w World) (bool, error) {
	reading, err := resolve(c, w)
	if err != nil {
		return false, err
	}

	cs := schema.LookupCondition(c.Kind)
	if !cs.Comparable {
		return reading != 0, nil
	}
	return Compare(c.Comparator, reading, *c.Value), nil
}

// EvalAll returns true if all conditions pass (AND logic, short-circuit
// on the first false). An empty condition list is vacuously true: an
// unconditional trigger. Unresolved conditions count as false; the error
// is returned for diagnostics but does not abort the containing pass.
func EvalAll(conditions []types.Condition, w World) (bool, error) {
	for _, c := range conditions {
		ok, err := Evaluate(c, w)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// resolve maps a condition subject to a scalar reading from the world.
func resolve(c types.Condition, w World) (float64, error) {
	switch c.Kind {
	case types.CondLocalVariable:
		return readScalar(c, w, "local:"+c.Subject)

	case types.CondWorldVariable:
		return readScalar(c, w, "world:"+c.Subject)

	case types.CondDemand:
		return readScalar(c, w, "demand:"+c.Subject)

	case types.CondOutput:
		return readScalar(c, w, "output:"+c.Subject)

	case types.CondOutputDemandGap:
		demand, err := readScalar(c, w, "demand:"+c.Subject)
		if err != nil {
			return 0, err
		}
		output, err := readScalar(c, w, "output:"+c.Subject)
		if err != nil {
			return 0, err
		}
		return demand - output, nil

	case types.CondResource:
		return readScalar(c, w, "resource:"+c.Subject)

	case types.CondResourceDemandGap:
		demand, err := readScalar(c, w, "resourcedemand:"+c.Subject)
		if err != nil {
			return 0, err
		}
		stock, err := readScalar(c, w, "resource:"+c.Subject)
		if err != nil {
			return 0, err
		}
		return demand - stock, nil

	case types.CondProcessMixShare:
		if !w.Exists(types.EntityProcess, c.Subject) {
			return 0, &EvalError{Kind: c.Kind, Subject: c.Subject}
		}
		return readScalar(c, w, "mix:"+c.Subject)

	case types.CondProcessMixShareFeature:
		return readScalar(c, w, "featmix:"+c.Subject)

	case types.CondProjectActive:
		return projectStatusIs(c, w, types.StatusActive)
	case types.CondProjectInactive:
		return projectStatusIs(c, w, types.StatusInactive)
	case types.CondProjectFinished:
		return projectStatusIs(c, w, types.StatusFinished)
	case types.CondProjectStalled:
		return projectStatusIs(c, w, types.StatusStalled)
	case types.CondProjectHalted:
		return projectStatusIs(c, w, types.StatusHalted)

	case types.CondFlag:
		if w.Flag(c.Subject) {
			return 1, nil
		}
		return 0, nil

	case types.CondRunsPlayed:
		return readScalar(c, w, "meta:RunsPlayed")

	default:
		return 0, &EvalError{Kind: c.Kind, Subject: c.Subject}
	}
}

func readScalar(c types.Condition, w World, name string) (float64, error) {
	v, ok := w.Scalar(name)
	if !ok {
		return 0, &EvalError{Kind: c.Kind, Subject: c.Subject}
	}
	return v, nil
}

func projectStatusIs(c types.Condition, w World, want types.EntityStatus) (float64, error) {
	status, ok := w.Status(types.EntityProject, c.Subject)
	if !ok {
		return 0, &EvalError{Kind: c.Kind, Subject: c.Subject}
	}
	if status == want {
		return 1, nil
	}
	return 0, nil
}

// Compare applies a comparator between two readings. Standard IEEE
// numeric semantics; ties resolve per the exact operator.
func Compare(op types.Comparator, a, b float64) bool {
	switch op {
	case types.CompLess:
		return a < b
	case types.CompLessEqual:
		return a <= b
	case types.CompEqual:
		return a == b
	case types.CompNotEqual:
		return a != b
	case types.CompGreaterEqual:
		return a >= b
	case types.CompGreater:
		return a > b
	default:
		return false
	}
}
