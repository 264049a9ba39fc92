package engine

import (
	"errors"

	"keyrx/pkg/keycode"
	"keyrx/pkg/krx"
)

// ErrRegistryFull is returned when a new tap-hold key is pressed while
// the registry already tracks MaxPending in-flight keys. Existing
// entries are never evicted; the caller decides what to do with the
// event (the resolver degrades that one key to plain pass-through).
var ErrRegistryFull = errors.New("engine: tap-hold registry full")

// MaxPending is the fixed capacity of the tap-hold registry. More
// simultaneously in-flight dual-role keys than this is not physically
// plausible on a keyboard.
const MaxPending = 16

// TapHoldPhase is the per-key state machine phase.
type TapHoldPhase uint8

const (
	// PhaseIdle: no activity; such keys have no registry entry.
	PhaseIdle TapHoldPhase = iota
	// PhasePending: key pressed, tap vs hold not yet decided.
	PhasePending
	// PhaseHold: key held past threshold or interrupted by another
	// press; its hold modifier is active until release.
	PhaseHold
)

// tapHoldEntry tracks one in-flight dual-role key.
type tapHoldEntry struct {
	key         keycode.KeyCode
	phase       TapHoldPhase
	pressTime   uint64
	tap         keycode.KeyCode
	holdMod     uint8
	thresholdUS uint64
}

func (e *tapHoldEntry) thresholdReached(nowUS uint64) bool {
	var elapsed uint64
	if nowUS > e.pressTime {
		elapsed = nowUS - e.pressTime
	}
	return elapsed >= e.thresholdUS
}

// tapHoldRegistry is a fixed-capacity set of in-flight tap-hold keys.
// Entries exist from press until the activation cycle resolves (tap
// emitted, or hold deactivated on release).
type tapHoldRegistry struct {
	entries [MaxPending]tapHoldEntry
	n       int
}

func (r *tapHoldRegistry) reset() { r.n = 0 }

func (r *tapHoldRegistry) find(key keycode.KeyCode) *tapHoldEntry {
	for i := 0; i < r.n; i++ {
		if r.entries[i].key == key {
			return &r.entries[i]
		}
	}
	return nil
}

// register adds a Pending entry for a freshly pressed tap-hold key.
func (r *tapHoldRegistry) register(decl *krx.TapHold, timestampUS uint64) error {
	if r.n >= MaxPending {
		return ErrRegistryFull
	}
	r.entries[r.n] = tapHoldEntry{
		key:         decl.From,
		phase:       PhasePending,
		pressTime:   timestampUS,
		tap:         decl.Tap,
		holdMod:     decl.HoldModifier,
		thresholdUS: decl.ThresholdUS,
	}
	r.n++
	return nil
}

func (r *tapHoldRegistry) remove(key keycode.KeyCode) {
	for i := 0; i < r.n; i++ {
		if r.entries[i].key == key {
			r.entries[i] = r.entries[r.n-1]
			r.n--
			return
		}
	}
}

// promotePending moves every Pending entry except skip to Hold,
// activating its hold modifier. This is the permissive-hold rule: any
// other key press decides all still-undecided keys immediately,
// regardless of elapsed time. Outputs are emitted before the
// interrupting key's own processing.
func (r *tapHoldRegistry) promotePending(skip keycode.KeyCode, mods *Bitset255, out *OutputBuffer) {
	for i := 0; i < r.n; i++ {
		e := &r.entries[i]
		if e.phase != PhasePending || e.key == skip {
			continue
		}
		e.phase = PhaseHold
		mods.Set(e.holdMod)
		out.push(Output{Kind: OutActivateModifier, ID: e.holdMod})
	}
}

// tick promotes Pending entries whose threshold has elapsed. The
// boundary is inclusive: elapsed == threshold resolves to Hold.
func (r *tapHoldRegistry) tick(nowUS uint64, mods *Bitset255, out *OutputBuffer) {
	for i := 0; i < r.n; i++ {
		e := &r.entries[i]
		if e.phase != PhasePending || !e.thresholdReached(nowUS) {
			continue
		}
		e.phase = PhaseHold
		mods.Set(e.holdMod)
		out.push(Output{Kind: OutActivateModifier, ID: e.holdMod})
	}
}

// release resolves the activation cycle of key at timestampUS.
//
//   - Pending below threshold: a tap; emits tap press then release.
//   - Pending at or past threshold: the key counts as held; its
//     modifier activates and immediately deactivates.
//   - Hold: deactivates the hold modifier.
//
// Returns false when key has no entry (not in flight).
func (r *tapHoldRegistry) release(key keycode.KeyCode, timestampUS uint64, mods *Bitset255, out *OutputBuffer) bool {
	e := r.find(key)
	if e == nil {
		return false
	}
	switch e.phase {
	case PhasePending:
		if e.thresholdReached(timestampUS) {
			out.push(Output{Kind: OutActivateModifier, ID: e.holdMod})
			out.push(Output{Kind: OutDeactivateModifier, ID: e.holdMod})
		} else {
			out.pushKey(e.tap, Press)
			out.pushKey(e.tap, Release)
		}
	case PhaseHold:
		mods.Clear(e.holdMod)
		out.push(Output{Kind: OutDeactivateModifier, ID: e.holdMod})
	}
	r.remove(key)
	return true
}
