// Package save implements JSON serialization of simulation state and
// the rule-definition interchange format shared with the editor.
package save

import (
	"encoding/json"

	"github.com/selka/planetcore/engine/rules"
	"github.com/selka/planetcore/engine/state"
	"github.com/selka/planetcore/types"
)

// SaveData is the JSON-serializable snapshot format.
type SaveData struct {
	Version        string                        `json:"version"`
	World          string                        `json:"world"`
	Tick           int                           `json:"tick"`
	Year           int                           `json:"year"`
	Scalars        map[string]float64            `json:"scalars"`
	Player         map[string]float64            `json:"player"`
	Demand         map[string]float64            `json:"demand"`
	Output         map[string]float64            `json:"output"`
	Resources      map[string]float64            `json:"resources"`
	ResourceDemand map[string]float64            `json:"resource_demand"`
	Regions        map[string]types.RegionState  `json:"regions"`
	Projects       map[string]types.EntityStatus `json:"projects"`
	ProjectLocked  map[string]bool               `json:"project_locked"`
	ProjectMonths  map[string]int                `json:"project_months"`
	Processes      map[string]types.ProcessState `json:"processes"`
	Flags          map[string]bool               `json:"flags"`
	RunsPlayed     int                           `json:"runs_played"`
	RNGSeed        int64                         `json:"rng_seed"`
	RNGPosition    int64                         `json:"rng_position"`
	EventLog       []string                      `json:"event_log"`
	ArmedEvents    []string                      `json:"armed_events"`
	EventQueue     []types.ScheduledEvent        `json:"event_queue"`
}

// Save serializes simulation state to JSON bytes. armed and queue come
// from the event pool.
func Save(s *types.State, defs *state.Defs, armed []string, queue []types.ScheduledEvent) ([]byte, error) {
	data := SaveData{
		Version:        defs.World.Version,
		World:          defs.World.Name,
		Tick:           s.Tick,
		Year:           s.Year,
		Scalars:        s.Scalars,
		Player:         s.Player,
		Demand:         s.Demand,
		Output:         s.Output,
		Resources:      s.Resources,
		ResourceDemand: s.ResourceDemand,
		Regions:        s.Regions,
		Projects:       s.Projects,
		ProjectLocked:  s.ProjectLocked,
		ProjectMonths:  s.ProjectMonths,
		Processes:      s.Processes,
		Flags:          s.Flags,
		RunsPlayed:     s.RunsPlayed,
		RNGSeed:        s.RNGSeed,
		RNGPosition:    s.RNGPosition,
		EventLog:       s.EventLog,
		ArmedEvents:    armed,
		EventQueue:     queue,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData. Maps are never nil after
// load.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Scalars == nil {
		sd.Scalars = map[string]float64{}
	}
	if sd.Player == nil {
		sd.Player = map[string]float64{}
	}
	if sd.Demand == nil {
		sd.Demand = map[string]float64{}
	}
	if sd.Output == nil {
		sd.Output = map[string]float64{}
	}
	if sd.Resources == nil {
		sd.Resources = map[string]float64{}
	}
	if sd.ResourceDemand == nil {
		sd.ResourceDemand = map[string]float64{}
	}
	if sd.Regions == nil {
		sd.Regions = map[string]types.RegionState{}
	}
	if sd.Projects == nil {
		sd.Projects = map[string]types.EntityStatus{}
	}
	if sd.ProjectLocked == nil {
		sd.ProjectLocked = map[string]bool{}
	}
	if sd.ProjectMonths == nil {
		sd.ProjectMonths = map[string]int{}
	}
	if sd.Processes == nil {
		sd.Processes = map[string]types.ProcessState{}
	}
	if sd.Flags == nil {
		sd.Flags = map[string]bool{}
	}
	return &sd, nil
}

// ApplySave applies loaded save data onto a state.
func ApplySave(s *types.State, sd *SaveData) {
	s.Tick = sd.Tick
	s.Year = sd.Year
	s.Scalars = sd.Scalars
	s.Player = sd.Player
	s.Demand = sd.Demand
	s.Output = sd.Output
	s.Resources = sd.Resources
	s.ResourceDemand = sd.ResourceDemand
	s.Regions = sd.Regions
	s.Projects = sd.Projects
	s.ProjectLocked = sd.ProjectLocked
	s.ProjectMonths = sd.ProjectMonths
	s.Processes = sd.Processes
	s.Flags = sd.Flags
	s.RunsPlayed = sd.RunsPlayed
	s.RNGSeed = sd.RNGSeed
	s.RNGPosition = sd.RNGPosition
	s.EventLog = sd.EventLog
}

// EncodeEvents serializes events in the interchange format the editor
// reads and writes. Round-trip with DecodeEvents is lossless.
func EncodeEvents(evs []types.Event) ([]byte, error) {
	recs := make([]types.EventRecord, 0, len(evs))
	for _, ev := range evs {
		recs = append(recs, rules.RecordEvent(ev))
	}
	return json.MarshalIndent(recs, "", "  ")
}

// DecodeEvents parses interchange records. Validation is the caller's
// choice: the editor keeps invalid drafts, the runtime compiles through
// rules.CompileEvent.
func DecodeEvents(data []byte) ([]types.EventRecord, error) {
	var recs []types.EventRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
