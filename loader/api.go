package loader

import (
	"github.com/selka/planetcore/engine/schema"
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the content constructors and the Cond/Eff
// helper tables as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// World { name = "...", start_year = 2025, ... }
	L.SetGlobal("World", L.NewFunction(func(L *lua.LState) int {
		coll.world = L.CheckTable(1)
		return 0
	}))

	// Region "id" { ... } is curried: Region("id") returns a function
	// that takes the body table.
	registerCurried(L, "Region", func(e rawEntry) { coll.regions = append(coll.regions, e) })
	registerCurried(L, "Project", func(e rawEntry) { coll.projects = append(coll.projects, e) })
	registerCurried(L, "Process", func(e rawEntry) { coll.processes = append(coll.processes, e) })
	registerCurried(L, "Event", func(e rawEntry) { coll.events = append(coll.events, e) })

	// Flag "id" declares a flag entity.
	L.SetGlobal("Flag", L.NewFunction(func(L *lua.LState) int {
		coll.flags = append(coll.flags, L.CheckString(1))
		return 0
	}))

	registerCondHelpers(L)
	registerEffHelpers(L)
}

func registerCurried(L *lua.LState, name string, add func(rawEntry)) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			add(rawEntry{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))
}

// registerCondHelpers builds the Cond table: one constructor per
// condition kind, with an argument shape derived from the schema.
// Comparable kinds with a domain take (subject, comparator, value);
// RunsPlayed takes (comparator, value); status/flag checks take
// (subject).
func registerCondHelpers(L *lua.LState) {
	cond := L.NewTable()
	for _, kind := range schema.ConditionKinds() {
		cs := schema.LookupCondition(kind)
		kind := kind // capture
		cond.RawSetString(string(kind), L.NewFunction(func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("kind", lua.LString(kind))
			arg := 1
			if cs.Domain != schema.DomainNone {
				tbl.RawSetString("subject", lua.LString(L.CheckString(arg)))
				arg++
			}
			if cs.Comparable {
				tbl.RawSetString("comparator", lua.LString(L.CheckString(arg)))
				tbl.RawSetString("value", lua.LNumber(L.CheckNumber(arg+1)))
			}
			L.Push(tbl)
			return 1
		}))
	}
	L.SetGlobal("Cond", cond)
}

// registerEffHelpers builds the Eff table: one constructor per effect
// kind taking (subject, param...) per the schema's parameter list.
func registerEffHelpers(L *lua.LState) {
	eff := L.NewTable()
	for _, kind := range schema.EffectKinds() {
		es := schema.LookupEffect(kind)
		kind := kind // capture
		eff.RawSetString(string(kind), L.NewFunction(func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("kind", lua.LString(kind))
			arg := 1
			if es.Domain != schema.DomainNone {
				tbl.RawSetString("subject", lua.LString(L.CheckString(arg)))
				arg++
			}
			if len(es.Params) > 0 {
				params := L.NewTable()
				for _, name := range es.Params {
					params.RawSetString(name, lua.LNumber(L.CheckNumber(arg)))
					arg++
				}
				tbl.RawSetString("params", params)
			}
			L.Push(tbl)
			return 1
		}))
	}
	L.SetGlobal("Eff", eff)
}
