// Package climate bridges to the external physics subsystem: a
// JavaScript model evaluated in an embedded runtime, consumed as an
// opaque function of time returning named scalar outputs. The engine
// treats the model as a collaborator; no climate math lives in Go.
package climate

import (
	"fmt"
	"os"

	"github.com/dop251/goja"
)

// Model wraps a loaded JS climate model. Not safe for concurrent use;
// the engine calls it from the single simulation goroutine.
type Model struct {
	vm   *goja.Runtime
	step goja.Callable
}

// Load compiles a model script and resolves its step function. The
// script must define `step(year, emissions)` returning an object of
// numeric outputs (e.g. Temperature, SeaLevelRise, Precipitation).
func Load(src string) (*Model, error) {
	vm := goja.New()
	if _, err := vm.RunString(src); err != nil {
		return nil, fmt.Errorf("evaluating climate model: %w", err)
	}

	stepVal := vm.Get("step")
	step, ok := goja.AssertFunction(stepVal)
	if !ok {
		return nil, fmt.Errorf("climate model does not define a step(year, emissions) function")
	}

	return &Model{vm: vm, step: step}, nil
}

// LoadFile reads and loads a model script from disk.
func LoadFile(path string) (*Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading climate model %s: %w", path, err)
	}
	return Load(string(src))
}

// Step invokes the model for one point in time and returns its named
// scalar outputs.
func (m *Model) Step(year, emissions float64) (map[string]float64, error) {
	v, err := m.step(goja.Undefined(), m.vm.ToValue(year), m.vm.ToValue(emissions))
	if err != nil {
		return nil, fmt.Errorf("climate step(%v): %w", year, err)
	}

	obj := v.ToObject(m.vm)
	if obj == nil {
		return nil, fmt.Errorf("climate step(%v): result is not an object", year)
	}

	out := map[string]float64{}
	for _, key := range obj.Keys() {
		out[key] = obj.Get(key).ToFloat()
	}
	return out, nil
}
