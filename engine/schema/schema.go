// Package schema is the static catalog of condition and effect shapes.
// The registry is immutable, built once at package initialization, and
// total over the closed kind enumerations, so lookups never fail.
package schema

import "github.com/selka/planetcore/types"

// Domain classifies the legal range of a condition or effect subject.
type Domain int

const (
	// DomainNone means the kind takes no subject.
	DomainNone Domain = iota
	// DomainChoice means the subject must be a member of a choice-set.
	DomainChoice
	// DomainEntity means the subject references a live entity by ID.
	DomainEntity
)

// ConditionSchema declares the shape of one condition kind.
type ConditionSchema struct {
	Kind       types.ConditionKind
	Comparable bool // comparator + value required
	Domain     Domain
	Choices    []string         // when Domain == DomainChoice
	Entity     types.EntityKind // when Domain == DomainEntity
}

// EffectSchema declares the shape of one effect kind.
type EffectSchema struct {
	Kind    types.EffectKind
	Domain  Domain
	Choices []string
	Entity  types.EntityKind
	Params  []string // required named numeric parameters, exact match
}

// Canonical choice-sets. Every schema that ranges over one of these
// references the same slice, so extending a set extends every kind that
// ranges over it.
var (
	Outputs = []string{"Fuel", "Electricity", "PlantCalories", "AnimalCalories"}

	Resources = []string{"Land", "Water", "Electricity", "Fuel"}

	Feedstocks = []string{"Coal", "Oil", "NaturalGas", "Thorium", "Uranium", "Lithium"}

	Byproducts = []string{"CO2", "CH4", "N2O", "Biodiversity"}

	ProcessFeatures = []string{
		"IsSolar", "IsIntermittent", "CanMeltdown", "MakesNuclearWaste",
		"IsFossil", "UsesLivestock", "UsesPesticides", "UsesSynFertilizer",
		"IsCCS", "IsCombustion", "IsLaborIntensive",
	}

	WorldVariables = []string{
		"Year", "Temperature", "SeaLevelRise", "Emissions", "ExtinctionRate",
		"Precipitation", "WaterStress", "Outlook", "Contentedness",
		"PopulationGrowth",
	}

	LocalVariables = []string{"Outlook", "Habitability", "Population"}

	PlayerVariables = []string{
		"PoliticalCapital", "ResearchPoints", "MalthusianPoints",
		"HESPoints", "FALCPoints", "YearsToDeath",
	}
)

// Effect parameter names.
const (
	ParamChange        = "Change"
	ParamPercentChange = "PercentChange"
	ParamDelayMonths   = "DelayMonths"
)

var conditionTable = map[types.ConditionKind]ConditionSchema{}
var effectTable = map[types.EffectKind]EffectSchema{}

func init() {
	conditions := []ConditionSchema{
		{Kind: types.CondLocalVariable, Comparable: true, Domain: DomainChoice, Choices: LocalVariables},
		{Kind: types.CondWorldVariable, Comparable: true, Domain: DomainChoice, Choices: WorldVariables},
		{Kind: types.CondDemand, Comparable: true, Domain: DomainChoice, Choices: Outputs},
		{Kind: types.CondOutput, Comparable: true, Domain: DomainChoice, Choices: Outputs},
		{Kind: types.CondOutputDemandGap, Comparable: true, Domain: DomainChoice, Choices: Outputs},
		{Kind: types.CondResource, Comparable: true, Domain: DomainChoice, Choices: Resources},
		{Kind: types.CondResourceDemandGap, Comparable: true, Domain: DomainChoice, Choices: Resources},
		{Kind: types.CondProcessMixShare, Comparable: true, Domain: DomainEntity, Entity: types.EntityProcess},
		{Kind: types.CondProcessMixShareFeature, Comparable: true, Domain: DomainChoice, Choices: ProcessFeatures},
		{Kind: types.CondProjectActive, Domain: DomainEntity, Entity: types.EntityProject},
		{Kind: types.CondProjectInactive, Domain: DomainEntity, Entity: types.EntityProject},
		{Kind: types.CondProjectFinished, Domain: DomainEntity, Entity: types.EntityProject},
		{Kind: types.CondProjectStalled, Domain: DomainEntity, Entity: types.EntityProject},
		{Kind: types.CondProjectHalted, Domain: DomainEntity, Entity: types.EntityProject},
		{Kind: types.CondFlag, Domain: DomainEntity, Entity: types.EntityFlag},
		{Kind: types.CondRunsPlayed, Comparable: true, Domain: DomainNone},
	}
	for _, cs := range conditions {
		conditionTable[cs.Kind] = cs
	}

	effects := []EffectSchema{
		{Kind: types.EffLocalVariable, Domain: DomainChoice, Choices: LocalVariables, Params: []string{ParamChange}},
		{Kind: types.EffWorldVariable, Domain: DomainChoice, Choices: WorldVariables, Params: []string{ParamChange}},
		{Kind: types.EffPlayerVariable, Domain: DomainChoice, Choices: PlayerVariables, Params: []string{ParamChange}},
		{Kind: types.EffDemand, Domain: DomainChoice, Choices: Outputs, Params: []string{ParamPercentChange}},
		{Kind: types.EffOutput, Domain: DomainChoice, Choices: Outputs, Params: []string{ParamPercentChange}},
		{Kind: types.EffOutputForFeature, Domain: DomainChoice, Choices: ProcessFeatures, Params: []string{ParamPercentChange}},
		{Kind: types.EffResource, Domain: DomainChoice, Choices: Resources, Params: []string{ParamPercentChange}},
		{Kind: types.EffTriggerEvent, Domain: DomainEntity, Entity: types.EntityEvent, Params: []string{ParamDelayMonths}},
		{Kind: types.EffAddEvent, Domain: DomainEntity, Entity: types.EntityEvent},
		{Kind: types.EffUnlocksProject, Domain: DomainEntity, Entity: types.EntityProject},
		{Kind: types.EffUnlocksProcess, Domain: DomainEntity, Entity: types.EntityProcess},
		{Kind: types.EffSetFlag, Domain: DomainEntity, Entity: types.EntityFlag},
		{Kind: types.EffRegionLeave, Domain: DomainEntity, Entity: types.EntityRegion},
		{Kind: types.EffMigration, Domain: DomainEntity, Entity: types.EntityRegion},
	}
	for _, es := range effects {
		effectTable[es.Kind] = es
	}
}

// LookupCondition returns the schema for a condition kind. Lookups are
// total over the closed enumeration; interchange parsing rejects unknown
// tags via KnownConditionKind before reaching here.
func LookupCondition(kind types.ConditionKind) ConditionSchema {
	return conditionTable[kind]
}

// LookupEffect returns the schema for an effect kind.
func LookupEffect(kind types.EffectKind) EffectSchema {
	return effectTable[kind]
}

// KnownConditionKind reports whether kind is in the closed enumeration.
// Used when parsing untrusted interchange records.
func KnownConditionKind(kind types.ConditionKind) bool {
	_, ok := conditionTable[kind]
	return ok
}

// KnownEffectKind reports whether kind is in the closed enumeration.
func KnownEffectKind(kind types.EffectKind) bool {
	_, ok := effectTable[kind]
	return ok
}

// ConditionKinds enumerates the registry in stable order for editor UI
// population.
func ConditionKinds() []types.ConditionKind {
	return []types.ConditionKind{
		types.CondLocalVariable,
		types.CondWorldVariable,
		types.CondDemand,
		types.CondOutput,
		types.CondOutputDemandGap,
		types.CondResource,
		types.CondResourceDemandGap,
		types.CondProcessMixShare,
		types.CondProcessMixShareFeature,
		types.CondProjectActive,
		types.CondProjectInactive,
		types.CondProjectFinished,
		types.CondProjectStalled,
		types.CondProjectHalted,
		types.CondFlag,
		types.CondRunsPlayed,
	}
}

// EffectKinds enumerates the registry in stable order.
func EffectKinds() []types.EffectKind {
	return []types.EffectKind{
		types.EffLocalVariable,
		types.EffWorldVariable,
		types.EffPlayerVariable,
		types.EffDemand,
		types.EffOutput,
		types.EffOutputForFeature,
		types.EffResource,
		types.EffTriggerEvent,
		types.EffAddEvent,
		types.EffUnlocksProject,
		types.EffUnlocksProcess,
		types.EffSetFlag,
		types.EffRegionLeave,
		types.EffMigration,
	}
}

// InChoices reports whether value is a member of the choice-set.
func InChoices(choices []string, value string) bool {
	for _, c := range choices {
		if c == value {
			return true
		}
	}
	return false
}

// ProbabilityNames maps each tier to its serialized name, in tier order.
var ProbabilityNames = []string{
	"Impossible", "Improbable", "Rare", "Unlikely", "Random", "Likely", "Guaranteed",
}

// ProbabilityWeights maps each tier to its selection weight. Impossible
// and Guaranteed are absorbing.
var ProbabilityWeights = []float64{0, 0.0005, 0.005, 0.05, 0.25, 0.75, 1}

// ProbabilityName returns the serialized name of a tier.
func ProbabilityName(p types.Probability) string {
	if p < 0 || int(p) >= len(ProbabilityNames) {
		return "Impossible"
	}
	return ProbabilityNames[p]
}

// ParseProbability parses a serialized tier name.
func ParseProbability(name string) (types.Probability, bool) {
	for i, n := range ProbabilityNames {
		if n == name {
			return types.Probability(i), true
		}
	}
	return types.Impossible, false
}

// ProbabilityWeight returns the selection weight of a tier.
func ProbabilityWeight(p types.Probability) float64 {
	if p < 0 || int(p) >= len(ProbabilityWeights) {
		return 0
	}
	return ProbabilityWeights[p]
}
