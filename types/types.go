// Package types defines the shared data structures for the PlanetCore engine.
// This package contains only type definitions, no logic.
package types

// Comparator is a numeric comparison operator.
type Comparator string

// The six comparison operators. Ties resolve per the exact operator.
const (
	CompLess         Comparator = "<"
	CompLessEqual    Comparator = "<="
	CompEqual        Comparator = "=="
	CompNotEqual     Comparator = "!="
	CompGreaterEqual Comparator = ">="
	CompGreater      Comparator = ">"
)

// EntityKind identifies the type of a referenced game entity.
type EntityKind string

const (
	EntityProject EntityKind = "project"
	EntityProcess EntityKind = "process"
	EntityEvent   EntityKind = "event"
	EntityFlag    EntityKind = "flag"
	EntityRegion  EntityKind = "region"
)

// EntityStatus is the lifecycle status of a project-like entity.
type EntityStatus string

const (
	StatusInactive EntityStatus = "inactive"
	StatusActive   EntityStatus = "active"
	StatusFinished EntityStatus = "finished"
	StatusStalled  EntityStatus = "stalled"
	StatusHalted   EntityStatus = "halted"
)

// ConditionKind is one of the closed set of condition shapes.
type ConditionKind string

const (
	CondLocalVariable          ConditionKind = "LocalVariable"
	CondWorldVariable          ConditionKind = "WorldVariable"
	CondDemand                 ConditionKind = "Demand"
	CondOutput                 ConditionKind = "Output"
	CondOutputDemandGap        ConditionKind = "OutputDemandGap"
	CondResource               ConditionKind = "Resource"
	CondResourceDemandGap      ConditionKind = "ResourceDemandGap"
	CondProcessMixShare        ConditionKind = "ProcessMixShare"
	CondProcessMixShareFeature ConditionKind = "ProcessMixShareFeature"
	CondProjectActive          ConditionKind = "ProjectActive"
	CondProjectInactive        ConditionKind = "ProjectInactive"
	CondProjectFinished        ConditionKind = "ProjectFinished"
	CondProjectStalled         ConditionKind = "ProjectStalled"
	CondProjectHalted          ConditionKind = "ProjectHalted"
	CondFlag                   ConditionKind = "Flag"
	CondRunsPlayed             ConditionKind = "RunsPlayed"
)

// EffectKind is one of the closed set of effect shapes.
type EffectKind string

const (
	EffLocalVariable    EffectKind = "LocalVariable"
	EffWorldVariable    EffectKind = "WorldVariable"
	EffPlayerVariable   EffectKind = "PlayerVariable"
	EffDemand           EffectKind = "Demand"
	EffOutput           EffectKind = "Output"
	EffOutputForFeature EffectKind = "OutputForFeature"
	EffResource         EffectKind = "Resource"
	EffTriggerEvent     EffectKind = "TriggerEvent"
	EffAddEvent         EffectKind = "AddEvent"
	EffUnlocksProject   EffectKind = "UnlocksProject"
	EffUnlocksProcess   EffectKind = "UnlocksProcess"
	EffSetFlag          EffectKind = "SetFlag"
	EffRegionLeave      EffectKind = "RegionLeave"
	EffMigration        EffectKind = "Migration"
)

// Probability is an ordered likelihood tier for event selection.
type Probability int

const (
	Impossible Probability = iota
	Improbable
	Rare
	Unlikely
	Random
	Likely
	Guaranteed
)

// Condition is a predicate over world state. Subject is a choice value or
// an entity ID, interpreted per the kind's declared domain. Comparator and
// Value are present exactly when the kind is comparable.
type Condition struct {
	Kind       ConditionKind
	Subject    string     // "" when the kind has no domain
	Comparator Comparator // "" when the kind is not comparable
	Value      *float64   // nil when the kind is not comparable
}

// Effect is a single state mutation instruction. Params holds exactly the
// named numeric parameters the kind's schema declares.
type Effect struct {
	Kind    EffectKind
	Subject string
	Params  map[string]float64
}

// Event is a designer-authored rule set: conditions AND-ed together,
// effects applied in order, weighted by a probability tier.
type Event struct {
	ID          string
	Name        string
	Region      string // region scope for local variable reads/writes; "" = global
	Probability Probability
	Conditions  []Condition
	Effects     []Effect
}

// Project is a long-running intervention the player can enact.
type Project struct {
	ID               string
	Name             string
	Group            string // "Research", "Initiative", "Policy"
	Years            int    // build time; 0 = immediate
	Locked           bool
	UnlockConditions []Condition
	OutcomeEffects   []Effect // applied once when the project finishes
}

// Process is a production process contributing to one output's supply mix.
type Process struct {
	ID           string
	Name         string
	Output       string // one of the Output choice-set
	MixShare     float64
	Locked       bool
	Features     []string    // ProcessFeature choice values
	Availability []Condition // gate: process selectable only when true
}

// Region is an inhabited area with local variables.
type Region struct {
	ID           string
	Name         string
	Population   float64 // millions
	Outlook      float64
	Habitability float64
}

// World holds content metadata from Lua.
type World struct {
	Name      string
	Author    string
	Version   string
	StartYear int
}

// ConditionRecord is the serialized interchange shape of a Condition,
// shared between the editor (authoring) and the runtime (consumption).
type ConditionRecord struct {
	Kind       string   `json:"kind"`
	Subject    string   `json:"subject,omitempty"`
	Comparator string   `json:"comparator,omitempty"`
	Value      *float64 `json:"value,omitempty"`
}

// EffectRecord is the serialized interchange shape of an Effect. Params
// values are `any` so that the validator can report non-numeric
// parameters instead of silently dropping them.
type EffectRecord struct {
	Kind    string         `json:"kind"`
	Subject string         `json:"subject,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// EventRecord is the serialized interchange shape of an Event.
type EventRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Region      string            `json:"region,omitempty"`
	Probability string            `json:"probability"`
	Conditions  []ConditionRecord `json:"conditions,omitempty"`
	Effects     []EffectRecord    `json:"effects,omitempty"`
}

// RegionState holds runtime overrides for a region.
type RegionState struct {
	Scalars map[string]float64
	Left    bool // region has left the planetary coalition
}

// ProcessState holds runtime state for a process.
type ProcessState struct {
	MixShare  float64
	Locked    bool
	OutputMod float64 // multiplier from OutputForFeature effects
}

// State is the complete mutable simulation state.
type State struct {
	Year           int
	Tick           int                // months since start
	Scalars        map[string]float64 // world variables
	Player         map[string]float64 // player variables
	Demand         map[string]float64 // per output
	Output         map[string]float64 // per output, before feature modifiers
	Resources      map[string]float64 // per resource, available stock
	ResourceDemand map[string]float64 // per resource
	Regions        map[string]RegionState
	Projects       map[string]EntityStatus
	ProjectLocked  map[string]bool
	ProjectMonths  map[string]int // months of build time remaining
	Processes      map[string]ProcessState
	Flags          map[string]bool
	RunsPlayed     int
	RNGSeed        int64
	RNGPosition    int64
	EventLog       []string
}

// ScheduledEvent is a pending TriggerEvent intent held by the scheduler.
type ScheduledEvent struct {
	EventID string
	DueTick int
}
