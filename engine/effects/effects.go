// Package effects implements centralized state mutation. Every effect
// kind is one atomic operation; batches apply all-or-nothing.
package effects

import (
	"fmt"

	"github.com/selka/planetcore/engine/rules"
	"github.com/selka/planetcore/engine/schema"
	"github.com/selka/planetcore/types"
)

// World is the mutable view of simulation state effects operate on.
// Reads mirror rules.World; writes return false when the target does not
// resolve, which Apply turns into an ApplyError.
type World interface {
	rules.World
	// AddScalar adds delta to a named scalar (direct-variable effects).
	AddScalar(name string, delta float64) bool
	// ScaleScalar multiplies a named scalar by factor (ratio effects).
	ScaleScalar(name string, factor float64) bool
	// ScaleFeatureOutput multiplies the output modifier of every process
	// bearing the feature.
	ScaleFeatureOutput(feature string, factor float64) bool
	// Unlock clears the locked flag on a project or process.
	Unlock(kind types.EntityKind, id string) bool
	// SetFlag sets a declared flag.
	SetFlag(id string) bool
	// Leave marks a region as having left the planetary coalition.
	Leave(regionID string) bool
	// Migrate redistributes part of a region's population to the others.
	Migrate(regionID string) bool
}

// Scheduler receives event intents. The core never owns the event queue;
// it only emits these.
type Scheduler interface {
	TriggerEvent(eventID string, delayMonths int)
	AddEvent(eventID string)
}

// ApplyError reports an effect whose target could not be resolved.
type ApplyError struct {
	Kind    types.EffectKind
	Subject string
	Scalar  string // the unresolved scalar name, when applicable
}

func (e *ApplyError) Error() string {
	if e.Scalar != "" {
		return fmt.Sprintf("effect %s: unknown scalar %q", e.Kind, e.Scalar)
	}
	return fmt.Sprintf("effect %s: unresolved subject %q", e.Kind, e.Subject)
}

// Apply applies a batch of effects strictly in sequence order. The batch
// is atomic: every effect's target is resolved before anything mutates,
// so a failed apply leaves the world unchanged. Within the batch, later
// effects observe the mutations of earlier ones.
func Apply(effs []types.Effect, w World, sched Scheduler) error {
	for i := range effs {
		if err := check(effs[i], w); err != nil {
			return err
		}
	}
	for i := range effs {
		if err := ApplyEffect(effs[i], w, sched); err != nil {
			return err
		}
	}
	return nil
}

// check resolves an effect's target without mutating anything.
func check(e types.Effect, w World) error {
	switch e.Kind {
	case types.EffLocalVariable:
		return checkScalar(e, w, "local:"+e.Subject)
	case types.EffWorldVariable:
		return checkScalar(e, w, "world:"+e.Subject)
	case types.EffPlayerVariable:
		return checkScalar(e, w, "player:"+e.Subject)
	case types.EffDemand:
		return checkScalar(e, w, "demand:"+e.Subject)
	case types.EffOutput:
		return checkScalar(e, w, "output:"+e.Subject)
	case types.EffResource:
		return checkScalar(e, w, "resource:"+e.Subject)
	case types.EffOutputForFeature:
		// Feature membership is schema-checked at construction.
		return nil
	case types.EffTriggerEvent, types.EffAddEvent:
		return checkEntity(e, w, types.EntityEvent)
	case types.EffUnlocksProject:
		return checkEntity(e, w, types.EntityProject)
	case types.EffUnlocksProcess:
		return checkEntity(e, w, types.EntityProcess)
	case types.EffSetFlag:
		return checkEntity(e, w, types.EntityFlag)
	case types.EffRegionLeave, types.EffMigration:
		return checkEntity(e, w, types.EntityRegion)
	default:
		return &ApplyError{Kind: e.Kind, Subject: e.Subject}
	}
}

// ApplyEffect applies a single effect. Callers wanting atomicity over a
// sequence use Apply.
func ApplyEffect(e types.Effect, w World, sched Scheduler) error {
	if err := check(e, w); err != nil {
		return err
	}

	switch e.Kind {
	case types.EffLocalVariable:
		w.AddScalar("local:"+e.Subject, e.Params[schema.ParamChange])
	case types.EffWorldVariable:
		w.AddScalar("world:"+e.Subject, e.Params[schema.ParamChange])
	case types.EffPlayerVariable:
		w.AddScalar("player:"+e.Subject, e.Params[schema.ParamChange])

	case types.EffDemand:
		w.ScaleScalar("demand:"+e.Subject, percentFactor(e))
	case types.EffOutput:
		w.ScaleScalar("output:"+e.Subject, percentFactor(e))
	case types.EffResource:
		w.ScaleScalar("resource:"+e.Subject, percentFactor(e))
	case types.EffOutputForFeature:
		w.ScaleFeatureOutput(e.Subject, percentFactor(e))

	case types.EffTriggerEvent:
		sched.TriggerEvent(e.Subject, int(e.Params[schema.ParamDelayMonths]))
	case types.EffAddEvent:
		sched.AddEvent(e.Subject)

	case types.EffUnlocksProject:
		w.Unlock(types.EntityProject, e.Subject)
	case types.EffUnlocksProcess:
		w.Unlock(types.EntityProcess, e.Subject)
	case types.EffSetFlag:
		w.SetFlag(e.Subject)

	case types.EffRegionLeave:
		w.Leave(e.Subject)
	case types.EffMigration:
		w.Migrate(e.Subject)
	}

	return nil
}

// percentFactor converts a PercentChange param to a multiplier;
// PercentChange of -25 yields 0.75.
func percentFactor(e types.Effect) float64 {
	return 1 + e.Params[schema.ParamPercentChange]/100
}

func checkScalar(e types.Effect, w World, name string) error {
	if _, ok := w.Scalar(name); !ok {
		return &ApplyError{Kind: e.Kind, Subject: e.Subject, Scalar: name}
	}
	return nil
}

func checkEntity(e types.Effect, w World, kind types.EntityKind) error {
	if !w.Exists(kind, e.Subject) {
		return &ApplyError{Kind: e.Kind, Subject: e.Subject}
	}
	return nil
}
