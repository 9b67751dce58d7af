package loader

import (
	"fmt"

	"github.com/selka/planetcore/engine/rules"
	"github.com/selka/planetcore/engine/state"
	"github.com/selka/planetcore/types"
	lua "github.com/yuin/gopher-lua"
)

// worldDraft holds compiled interchange records before validation.
// Rule instances only come into existence through the rules
// construction gate, in build, after validate has passed.
type worldDraft struct {
	defs      *state.Defs // entities with rule slices left empty
	projects  map[string]ruleDraft
	processes map[string]ruleDraft
	events    []eventDraft
	dupes     []string // duplicate declaration messages found while collapsing
}

// ruleDraft carries the unvalidated rule records of a project or
// process.
type ruleDraft struct {
	conditions []types.ConditionRecord // requires / available_when
	effects    []types.EffectRecord    // outcomes
}

// eventDraft is one event's unvalidated interchange form.
type eventDraft struct {
	rec types.EventRecord
}

// compile converts the collected Lua tables into a draft: plain structs
// for entities, interchange records for every condition and effect.
func compile(coll *collector) (*worldDraft, error) {
	if coll.world == nil {
		return nil, fmt.Errorf("no World {} declaration found")
	}

	defs := &state.Defs{
		World: types.World{
			Name:      getString(coll.world, "name"),
			Author:    getString(coll.world, "author"),
			Version:   getString(coll.world, "version"),
			StartYear: getInt(coll.world, "start_year"),
		},
		Regions:   map[string]types.Region{},
		Projects:  map[string]types.Project{},
		Processes: map[string]types.Process{},
		Events:    map[string]types.Event{},
		Flags:     map[string]bool{},

		StartScalars:        numberMap(getTable(coll.world, "scalars")),
		StartPlayer:         numberMap(getTable(coll.world, "player")),
		StartDemand:         numberMap(getTable(coll.world, "demand")),
		StartOutput:         numberMap(getTable(coll.world, "output")),
		StartResources:      numberMap(getTable(coll.world, "resources")),
		StartResourceDemand: numberMap(getTable(coll.world, "resource_demand")),
	}

	d := &worldDraft{
		defs:      defs,
		projects:  map[string]ruleDraft{},
		processes: map[string]ruleDraft{},
	}

	for _, raw := range coll.regions {
		if _, ok := defs.Regions[raw.id]; ok {
			d.dupes = append(d.dupes, fmt.Sprintf("duplicate region ID %q", raw.id))
		}
		defs.Regions[raw.id] = types.Region{
			ID:           raw.id,
			Name:         getString(raw.table, "name"),
			Population:   getNumber(raw.table, "population"),
			Outlook:      getNumber(raw.table, "outlook"),
			Habitability: getNumber(raw.table, "habitability"),
		}
	}

	for _, id := range coll.flags {
		if defs.Flags[id] {
			d.dupes = append(d.dupes, fmt.Sprintf("duplicate flag ID %q", id))
		}
		defs.Flags[id] = true
	}

	for _, raw := range coll.projects {
		if _, ok := defs.Projects[raw.id]; ok {
			d.dupes = append(d.dupes, fmt.Sprintf("duplicate project ID %q", raw.id))
		}
		defs.Projects[raw.id] = types.Project{
			ID:     raw.id,
			Name:   getString(raw.table, "name"),
			Group:  getString(raw.table, "group"),
			Years:  getInt(raw.table, "years"),
			Locked: getBool(raw.table, "locked", false),
		}
		d.projects[raw.id] = ruleDraft{
			conditions: condRecords(getTable(raw.table, "requires")),
			effects:    effRecords(getTable(raw.table, "outcomes")),
		}
	}

	for _, raw := range coll.processes {
		if _, ok := defs.Processes[raw.id]; ok {
			d.dupes = append(d.dupes, fmt.Sprintf("duplicate process ID %q", raw.id))
		}
		defs.Processes[raw.id] = types.Process{
			ID:       raw.id,
			Name:     getString(raw.table, "name"),
			Output:   getString(raw.table, "output"),
			MixShare: getNumber(raw.table, "mix_share"),
			Locked:   getBool(raw.table, "locked", false),
			Features: stringList(getTable(raw.table, "features")),
		}
		d.processes[raw.id] = ruleDraft{
			conditions: condRecords(getTable(raw.table, "available_when")),
		}
	}

	seenEvents := map[string]bool{}
	for _, raw := range coll.events {
		if seenEvents[raw.id] {
			d.dupes = append(d.dupes, fmt.Sprintf("duplicate event ID %q", raw.id))
		}
		seenEvents[raw.id] = true
		d.events = append(d.events, eventDraft{rec: types.EventRecord{
			ID:          raw.id,
			Name:        getString(raw.table, "name"),
			Region:      getString(raw.table, "region"),
			Probability: getString(raw.table, "probability"),
			Conditions:  condRecords(getTable(raw.table, "when")),
			Effects:     effRecords(getTable(raw.table, "effects")),
		}})
		defs.EventOrder = append(defs.EventOrder, raw.id)
	}

	return d, nil
}

// build passes every record through the rules construction gate and
// attaches the resulting instances to the defs. Called only after
// validate has passed, so failures here indicate a loader bug.
func build(d *worldDraft) (*state.Defs, error) {
	defs := d.defs

	for id, rd := range d.projects {
		p := defs.Projects[id]
		for _, cr := range rd.conditions {
			c, err := rules.CompileCondition(cr)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", id, err)
			}
			p.UnlockConditions = append(p.UnlockConditions, c)
		}
		for _, er := range rd.effects {
			e, err := rules.CompileEffect(er)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", id, err)
			}
			p.OutcomeEffects = append(p.OutcomeEffects, e)
		}
		defs.Projects[id] = p
	}

	for id, rd := range d.processes {
		p := defs.Processes[id]
		for _, cr := range rd.conditions {
			c, err := rules.CompileCondition(cr)
			if err != nil {
				return nil, fmt.Errorf("process %s: %w", id, err)
			}
			p.Availability = append(p.Availability, c)
		}
		defs.Processes[id] = p
	}

	for _, ed := range d.events {
		ev, err := rules.CompileEvent(ed.rec)
		if err != nil {
			return nil, err
		}
		defs.Events[ev.ID] = ev
	}

	return defs, nil
}

// condRecords converts a Lua array of Cond.* tables.
func condRecords(tbl *lua.LTable) []types.ConditionRecord {
	if tbl == nil {
		return nil
	}
	var out []types.ConditionRecord
	tbl.ForEach(func(_, v lua.LValue) {
		t, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		rec := types.ConditionRecord{
			Kind:       getString(t, "kind"),
			Subject:    getString(t, "subject"),
			Comparator: getString(t, "comparator"),
		}
		if n, ok := t.RawGetString("value").(lua.LNumber); ok {
			f := float64(n)
			rec.Value = &f
		}
		out = append(out, rec)
	})
	return out
}

// effRecords converts a Lua array of Eff.* tables.
func effRecords(tbl *lua.LTable) []types.EffectRecord {
	if tbl == nil {
		return nil
	}
	var out []types.EffectRecord
	tbl.ForEach(func(_, v lua.LValue) {
		t, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		rec := types.EffectRecord{
			Kind:    getString(t, "kind"),
			Subject: getString(t, "subject"),
		}
		if params := getTable(t, "params"); params != nil {
			rec.Params = map[string]any{}
			params.ForEach(func(k, pv lua.LValue) {
				key, ok := k.(lua.LString)
				if !ok {
					return
				}
				if n, ok := pv.(lua.LNumber); ok {
					rec.Params[string(key)] = float64(n)
				} else {
					rec.Params[string(key)] = pv.String()
				}
			})
		}
		out = append(out, rec)
	})
	return out
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// numberMap converts a Lua table of name = number pairs.
func numberMap(tbl *lua.LTable) map[string]float64 {
	m := map[string]float64{}
	if tbl == nil {
		return m
	}
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		if n, ok := v.(lua.LNumber); ok {
			m[string(key)] = float64(n)
		}
	})
	return m
}

// stringList converts a Lua array of strings.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	tbl.ForEach(func(_, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			out = append(out, string(s))
		}
	})
	return out
}
