// Package state manages the mutable simulation state and the namespaced
// scalar reads/writes the rule engine evaluates against.
package state

import (
	"strings"

	"github.com/selka/planetcore/engine/schema"
	"github.com/selka/planetcore/types"
)

// Defs holds the immutable world definitions loaded from Lua. It doubles
// as the entity catalog: existence checks during evaluation resolve here.
type Defs struct {
	World      types.World
	Regions    map[string]types.Region
	Projects   map[string]types.Project
	Processes  map[string]types.Process
	Events     map[string]types.Event
	Flags      map[string]bool // declared flag IDs
	EventOrder []string        // declaration order, for deterministic pool iteration

	// Start values overlayed onto schema-declared names at NewState.
	StartScalars        map[string]float64
	StartPlayer         map[string]float64
	StartDemand         map[string]float64
	StartOutput         map[string]float64
	StartResources      map[string]float64
	StartResourceDemand map[string]float64
}

// NewState creates a fresh simulation state from definitions. Every name
// a schema choice-set declares is present in the corresponding map, so
// map presence is the "declared scalar" check.
func NewState(defs *Defs) *types.State {
	s := &types.State{
		Year:           defs.World.StartYear,
		Scalars:        seeded(schema.WorldVariables, defs.StartScalars),
		Player:         seeded(schema.PlayerVariables, defs.StartPlayer),
		Demand:         seeded(schema.Outputs, defs.StartDemand),
		Output:         seeded(schema.Outputs, defs.StartOutput),
		Resources:      seeded(schema.Resources, defs.StartResources),
		ResourceDemand: seeded(schema.Resources, defs.StartResourceDemand),
		Regions:        map[string]types.RegionState{},
		Projects:       map[string]types.EntityStatus{},
		ProjectLocked:  map[string]bool{},
		ProjectMonths:  map[string]int{},
		Processes:      map[string]types.ProcessState{},
		Flags:          map[string]bool{},
	}
	s.Scalars["Year"] = float64(defs.World.StartYear)

	for id, r := range defs.Regions {
		s.Regions[id] = types.RegionState{Scalars: map[string]float64{
			"Population":   r.Population,
			"Outlook":      r.Outlook,
			"Habitability": r.Habitability,
		}}
	}
	for id, p := range defs.Projects {
		s.Projects[id] = types.StatusInactive
		s.ProjectLocked[id] = p.Locked
	}
	for id, p := range defs.Processes {
		s.Processes[id] = types.ProcessState{MixShare: p.MixShare, Locked: p.Locked, OutputMod: 1}
	}

	return s
}

func seeded(names []string, start map[string]float64) map[string]float64 {
	m := make(map[string]float64, len(names))
	for _, n := range names {
		m[n] = start[n]
	}
	return m
}

// View is a region-scoped window onto one state. It satisfies the
// rules.World and effects.World interfaces. Region == "" means local
// variable reads are population-weighted means and local variable writes
// fan out to every region still in the coalition.
type View struct {
	State  *types.State
	Defs   *Defs
	Region string
}

// migrationFraction is the share of a region's population redistributed
// by one Migration effect.
const migrationFraction = 0.1

// Scalar returns a named numeric reading. Names are namespaced
// "class:subject"; unknown classes or undeclared subjects return false.
func (v View) Scalar(name string) (float64, bool) {
	class, subject, ok := strings.Cut(name, ":")
	if !ok {
		return 0, false
	}
	switch class {
	case "world":
		return lookup(v.State.Scalars, subject)
	case "player":
		return lookup(v.State.Player, subject)
	case "demand":
		return lookup(v.State.Demand, subject)
	case "output":
		base, ok := lookup(v.State.Output, subject)
		if !ok {
			return 0, false
		}
		return base * v.outputMod(subject), true
	case "resource":
		return lookup(v.State.Resources, subject)
	case "resourcedemand":
		return lookup(v.State.ResourceDemand, subject)
	case "local":
		return v.localScalar(subject)
	case "mix":
		ps, ok := v.State.Processes[subject]
		if !ok {
			return 0, false
		}
		return ps.MixShare, true
	case "featmix":
		return v.featureMixShare(subject), true
	case "meta":
		if subject == "RunsPlayed" {
			return float64(v.State.RunsPlayed), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Exists reports whether an entity of the given kind is declared.
func (v View) Exists(kind types.EntityKind, id string) bool {
	switch kind {
	case types.EntityProject:
		_, ok := v.Defs.Projects[id]
		return ok
	case types.EntityProcess:
		_, ok := v.Defs.Processes[id]
		return ok
	case types.EntityEvent:
		_, ok := v.Defs.Events[id]
		return ok
	case types.EntityFlag:
		return v.Defs.Flags[id]
	case types.EntityRegion:
		_, ok := v.Defs.Regions[id]
		return ok
	default:
		return false
	}
}

// Status returns the lifecycle status of a project.
func (v View) Status(kind types.EntityKind, id string) (types.EntityStatus, bool) {
	if kind != types.EntityProject {
		return "", false
	}
	status, ok := v.State.Projects[id]
	return status, ok
}

// Flag reports whether a flag is set. Unset flags read false.
func (v View) Flag(id string) bool {
	return v.State.Flags[id]
}

// AddScalar adds delta to a named scalar.
func (v View) AddScalar(name string, delta float64) bool {
	return v.write(name, func(old float64) float64 { return old + delta })
}

// ScaleScalar multiplies a named scalar by factor.
func (v View) ScaleScalar(name string, factor float64) bool {
	return v.write(name, func(old float64) float64 { return old * factor })
}

// ScaleFeatureOutput multiplies the output modifier of every process
// bearing the feature.
func (v View) ScaleFeatureOutput(feature string, factor float64) bool {
	for id, def := range v.Defs.Processes {
		if !hasFeature(def, feature) {
			continue
		}
		ps := v.State.Processes[id]
		ps.OutputMod *= factor
		v.State.Processes[id] = ps
	}
	return true
}

// Unlock clears the locked flag on a project or process.
func (v View) Unlock(kind types.EntityKind, id string) bool {
	switch kind {
	case types.EntityProject:
		if _, ok := v.Defs.Projects[id]; !ok {
			return false
		}
		v.State.ProjectLocked[id] = false
		return true
	case types.EntityProcess:
		ps, ok := v.State.Processes[id]
		if !ok {
			return false
		}
		ps.Locked = false
		v.State.Processes[id] = ps
		return true
	default:
		return false
	}
}

// SetFlag sets a declared flag.
func (v View) SetFlag(id string) bool {
	if !v.Defs.Flags[id] {
		return false
	}
	v.State.Flags[id] = true
	return true
}

// Leave marks a region as having left the planetary coalition.
func (v View) Leave(regionID string) bool {
	rs, ok := v.State.Regions[regionID]
	if !ok {
		return false
	}
	rs.Left = true
	v.State.Regions[regionID] = rs
	return true
}

// Migrate redistributes a fraction of a region's population to the
// remaining coalition regions, proportional to habitability.
func (v View) Migrate(regionID string) bool {
	src, ok := v.State.Regions[regionID]
	if !ok {
		return false
	}

	moving := src.Scalars["Population"] * migrationFraction
	if moving <= 0 {
		return true
	}

	totalHab := 0.0
	for id, rs := range v.State.Regions {
		if id == regionID || rs.Left {
			continue
		}
		totalHab += rs.Scalars["Habitability"]
	}
	if totalHab <= 0 {
		return true // nowhere to go
	}

	src.Scalars["Population"] -= moving
	v.State.Regions[regionID] = src
	for id, rs := range v.State.Regions {
		if id == regionID || rs.Left {
			continue
		}
		rs.Scalars["Population"] += moving * rs.Scalars["Habitability"] / totalHab
		v.State.Regions[id] = rs
	}
	return true
}

// localScalar reads a regional variable: the view's region when scoped,
// otherwise the population-weighted mean over coalition regions.
func (v View) localScalar(name string) (float64, bool) {
	if !schema.InChoices(schema.LocalVariables, name) {
		return 0, false
	}
	if v.Region != "" {
		rs, ok := v.State.Regions[v.Region]
		if !ok {
			return 0, false
		}
		return rs.Scalars[name], true
	}

	var sum, pop float64
	for _, rs := range v.State.Regions {
		if rs.Left {
			continue
		}
		p := rs.Scalars["Population"]
		sum += rs.Scalars[name] * p
		pop += p
	}
	if pop == 0 {
		return 0, true
	}
	return sum / pop, true
}

// write routes a mutation through the same namespacing as Scalar.
func (v View) write(name string, f func(float64) float64) bool {
	class, subject, ok := strings.Cut(name, ":")
	if !ok {
		return false
	}
	switch class {
	case "world":
		return update(v.State.Scalars, subject, f)
	case "player":
		return update(v.State.Player, subject, f)
	case "demand":
		return update(v.State.Demand, subject, f)
	case "output":
		return update(v.State.Output, subject, f)
	case "resource":
		return update(v.State.Resources, subject, f)
	case "resourcedemand":
		return update(v.State.ResourceDemand, subject, f)
	case "local":
		return v.writeLocal(subject, f)
	default:
		return false
	}
}

func (v View) writeLocal(name string, f func(float64) float64) bool {
	if !schema.InChoices(schema.LocalVariables, name) {
		return false
	}
	if v.Region != "" {
		rs, ok := v.State.Regions[v.Region]
		if !ok {
			return false
		}
		rs.Scalars[name] = f(rs.Scalars[name])
		v.State.Regions[v.Region] = rs
		return true
	}
	for id, rs := range v.State.Regions {
		if rs.Left {
			continue
		}
		rs.Scalars[name] = f(rs.Scalars[name])
		v.State.Regions[id] = rs
	}
	return true
}

// outputMod is the mix-share-weighted mean of the OutputMod of processes
// producing the output; 1 when no process produces it.
func (v View) outputMod(output string) float64 {
	var weighted, total float64
	for id, def := range v.Defs.Processes {
		if def.Output != output {
			continue
		}
		ps := v.State.Processes[id]
		weighted += ps.MixShare * ps.OutputMod
		total += ps.MixShare
	}
	if total == 0 {
		return 1
	}
	return weighted / total
}

// featureMixShare is the share of total production mix held by processes
// bearing the feature.
func (v View) featureMixShare(feature string) float64 {
	var with, total float64
	for id, def := range v.Defs.Processes {
		ps := v.State.Processes[id]
		total += ps.MixShare
		if hasFeature(def, feature) {
			with += ps.MixShare
		}
	}
	if total == 0 {
		return 0
	}
	return with / total
}

func hasFeature(p types.Process, feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

func lookup(m map[string]float64, key string) (float64, bool) {
	v, ok := m[key]
	return v, ok
}

func update(m map[string]float64, key string, f func(float64) float64) bool {
	old, ok := m[key]
	if !ok {
		return false
	}
	m[key] = f(old)
	return true
}
