// Package events implements the per-tick event pool: triggerability
// checks, probability-weighted selection, and the scheduler queue the
// effect layer emits TriggerEvent/AddEvent intents into.
package events

import (
	"github.com/selka/planetcore/engine/rules"
	"github.com/selka/planetcore/engine/schema"
	"github.com/selka/planetcore/engine/state"
	"github.com/selka/planetcore/types"
)

// Rand is the slice of RNG behavior the pool needs.
type Rand interface {
	// Chance returns true with the given probability in [0, 1].
	Chance(p float64) bool
}

// Diagnostic records a condition that could not be resolved during a
// pool pass. Recoverable: the event is skipped for the tick.
type Diagnostic struct {
	EventID string
	Err     error
}

// Pool tracks which events are armed and which trigger intents are
// pending. Events fire at most once until re-armed by an AddEvent
// effect.
type Pool struct {
	defs  *state.Defs
	armed map[string]bool
	queue []types.ScheduledEvent
	tick  int
	diags []Diagnostic
}

// NewPool arms every declared event.
func NewPool(defs *state.Defs) *Pool {
	p := &Pool{defs: defs, armed: make(map[string]bool, len(defs.Events))}
	for id := range defs.Events {
		p.armed[id] = true
	}
	return p
}

// IsTriggerable reports whether an event's conditions all hold. An event
// with no conditions is always triggerable. An unresolved condition
// counts as false and is recorded as a diagnostic.
func (p *Pool) IsTriggerable(ev types.Event, s *types.State) bool {
	view := state.View{State: s, Defs: p.defs, Region: ev.Region}
	ok, err := rules.EvalAll(ev.Conditions, view)
	if err != nil {
		p.diags = append(p.diags, Diagnostic{EventID: ev.ID, Err: err})
		return false
	}
	return ok
}

// Advance moves the pool's clock to the given tick. The engine calls it
// at the start of every step so that trigger intents enqueued before
// the roll, such as project outcome effects, date their delay from the
// current tick rather than the previous one.
func (p *Pool) Advance(tick int) {
	p.tick = tick
}

// Roll advances the pool to the given tick and selects the events that
// fire: due scheduled triggers first (unconditionally, in enqueue
// order), then armed events whose conditions hold and whose probability
// roll succeeds. Fired events disarm. Iteration follows declaration
// order so identical seeds replay identically.
func (p *Pool) Roll(s *types.State, rng Rand) []types.Event {
	p.tick = s.Tick

	var fired []types.Event

	// Due trigger intents fire regardless of conditions.
	var pending []types.ScheduledEvent
	for _, sch := range p.queue {
		if sch.DueTick > s.Tick {
			pending = append(pending, sch)
			continue
		}
		if ev, ok := p.defs.Events[sch.EventID]; ok {
			fired = append(fired, ev)
		}
	}
	p.queue = pending

	for _, id := range p.defs.EventOrder {
		if !p.armed[id] {
			continue
		}
		ev := p.defs.Events[id]
		if !p.IsTriggerable(ev, s) {
			continue
		}
		if !rng.Chance(schema.ProbabilityWeight(ev.Probability)) {
			continue
		}
		p.armed[id] = false
		fired = append(fired, ev)
	}

	return fired
}

// TriggerEvent enqueues a delayed trigger intent. Part of the
// effects.Scheduler contract.
func (p *Pool) TriggerEvent(eventID string, delayMonths int) {
	p.queue = append(p.queue, types.ScheduledEvent{EventID: eventID, DueTick: p.tick + delayMonths})
}

// AddEvent re-arms an event for future pool rolls.
func (p *Pool) AddEvent(eventID string) {
	if _, ok := p.defs.Events[eventID]; ok {
		p.armed[eventID] = true
	}
}

// Drain returns and clears the diagnostics accumulated since the last
// call.
func (p *Pool) Drain() []Diagnostic {
	d := p.diags
	p.diags = nil
	return d
}

// Queue exposes the pending trigger intents, for saves and trace output.
func (p *Pool) Queue() []types.ScheduledEvent {
	return p.queue
}

// Armed reports whether an event is currently armed.
func (p *Pool) Armed(eventID string) bool {
	return p.armed[eventID]
}

// Restore rebuilds pool state from a save: armed set and pending queue.
func (p *Pool) Restore(armed []string, queue []types.ScheduledEvent) {
	p.armed = make(map[string]bool, len(armed))
	for _, id := range armed {
		if _, ok := p.defs.Events[id]; ok {
			p.armed[id] = true
		}
	}
	p.queue = append([]types.ScheduledEvent(nil), queue...)
}

// ArmedIDs returns the armed event IDs in declaration order.
func (p *Pool) ArmedIDs() []string {
	var ids []string
	for _, id := range p.defs.EventOrder {
		if p.armed[id] {
			ids = append(ids, id)
		}
	}
	return ids
}
