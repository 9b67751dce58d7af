// Package loader compiles Lua world content into immutable definitions.
// The Lua VM is discarded after loading; no Lua lives at runtime.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/selka/planetcore/engine/state"
	lua "github.com/yuin/gopher-lua"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	world     *lua.LTable
	regions   []rawEntry
	projects  []rawEntry
	processes []rawEntry
	events    []rawEntry
	flags     []string
}

// rawEntry holds one declared entity table before compilation.
type rawEntry struct {
	id    string
	table *lua.LTable
}

// Load reads all .lua files from dir, compiles them into world
// definitions, validates them exhaustively, and returns the immutable
// Defs.
func Load(dir string) (*state.Defs, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading world directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	sortWorldFirst(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	draft, err := compile(coll)
	if err != nil {
		return nil, err
	}
	if err := validate(draft); err != nil {
		return nil, err
	}
	return build(draft)
}

// sortWorldFirst orders world.lua before the rest (alphabetical), so
// metadata and start values are defined before content references them.
func sortWorldFirst(files []string) {
	sort.Slice(files, func(i, j int) bool {
		if files[i] == "world.lua" {
			return true
		}
		if files[j] == "world.lua" {
			return false
		}
		return files[i] < files[j]
	})
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes filesystem and code-loading globals so content files
// stay pure data.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal", "collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	// Remove math.randomseed to preserve determinism.
	if mathTbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		mathTbl.RawSetString("randomseed", lua.LNil)
	}
}
