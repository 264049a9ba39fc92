package engine

import (
	"keyrx/pkg/keycode"
	"keyrx/pkg/krx"
)

// Bounds for the pressed-key tracking table. Ten fingers rolling over
// every dual-role key is still far below 32.
const (
	maxPressedKeys     = 32
	maxOutputsPerInput = 5
)

type pressedAction uint8

const (
	actKeys pressedAction = iota
	actModifier
	actLock
)

// pressedEntry remembers what a press actually produced, so the matching
// release undoes exactly that even if the mapping has changed in between
// (modifier released mid-roll, config layer flipped). Without it a
// remapped key whose layer deactivates before release would stick.
type pressedEntry struct {
	input  keycode.KeyCode
	action pressedAction
	id     uint8
	keys   [maxOutputsPerInput]keycode.KeyCode
	nKeys  int
}

type pressedSet struct {
	entries [maxPressedKeys]pressedEntry
	n       int
}

func (p *pressedSet) reset() { p.n = 0 }

func (p *pressedSet) find(input keycode.KeyCode) *pressedEntry {
	for i := 0; i < p.n; i++ {
		if p.entries[i].input == input {
			return &p.entries[i]
		}
	}
	return nil
}

func (p *pressedSet) remove(input keycode.KeyCode) {
	for i := 0; i < p.n; i++ {
		if p.entries[i].input == input {
			p.entries[i] = p.entries[p.n-1]
			p.n--
			return
		}
	}
}

// record stores the outcome of a press. A repeated press of a tracked
// key overwrites its entry. When the table is full the press goes
// untracked; the release will re-resolve instead, which can mis-release
// under a mid-roll layer change but never loses the event.
func (p *pressedSet) record(e pressedEntry) {
	if existing := p.find(e.input); existing != nil {
		*existing = e
		return
	}
	if p.n >= maxPressedKeys {
		return
	}
	p.entries[p.n] = e
	p.n++
}

// lookupMapping finds the effective mapping for key: the most specific
// fully-matching conditional layer that overrides key wins, then the
// base mapping. Partial condition matches never apply. A matching layer
// without an override for this key does not shadow the base mapping.
func (g *Engine) lookupMapping(rs *compiledRuleSet, key keycode.KeyCode) *krx.Mapping {
	for _, l := range rs.layers {
		if l.overrides[key] == nil {
			continue
		}
		if g.conditionsMet(l.conds) {
			return l.overrides[key]
		}
	}
	return rs.base[key]
}

func (g *Engine) conditionsMet(conds []krx.Condition) bool {
	for _, c := range conds {
		switch c.Kind {
		case krx.CondModifier:
			if !g.mods.IsSet(c.ID) {
				return false
			}
		case krx.CondLock:
			if !g.locks.IsSet(c.ID) {
				return false
			}
		default:
			// Unknown kinds cannot match; the decoder rejects them, but
			// the hot path degrades rather than trusting that.
			return false
		}
	}
	return true
}

// applyPress executes a mapping for a press edge, mutating modifier/lock
// state and recording what the matching release must undo.
func (g *Engine) applyPress(m *krx.Mapping, key keycode.KeyCode, out *OutputBuffer) {
	switch m.Kind {
	case krx.MapSimple:
		out.pushKey(m.To, Press)
		g.pressed.record(pressedEntry{input: key, action: actKeys, keys: [maxOutputsPerInput]keycode.KeyCode{m.To}, nKeys: 1})
	case krx.MapModifier:
		if !g.mods.Set(m.ID) {
			out.pushKey(key, Press)
			return
		}
		out.push(Output{Kind: OutActivateModifier, ID: m.ID})
		g.pressed.record(pressedEntry{input: key, action: actModifier, id: m.ID})
	case krx.MapLock:
		if !g.locks.Toggle(m.ID) {
			out.pushKey(key, Press)
			return
		}
		out.push(Output{Kind: OutToggleLock, ID: m.ID})
		g.pressed.record(pressedEntry{input: key, action: actLock, id: m.ID})
	case krx.MapModifiedOutput:
		var e pressedEntry
		e.input = key
		e.action = actKeys
		var fks [4]keycode.KeyCode
		for _, fk := range fks[:flagKeys(m.Flags, &fks)] {
			out.pushKey(fk, Press)
			e.keys[e.nKeys] = fk
			e.nKeys++
		}
		out.pushKey(m.To, Press)
		e.keys[e.nKeys] = m.To
		e.nKeys++
		g.pressed.record(e)
	default:
		out.pushKey(key, Press)
	}
}

// applyRelease executes a mapping for a release edge with no tracked
// press (press predated the current configuration). Locks stay silent:
// they only toggle on the press edge.
func (g *Engine) applyRelease(m *krx.Mapping, key keycode.KeyCode, out *OutputBuffer) {
	switch m.Kind {
	case krx.MapSimple:
		out.pushKey(m.To, Release)
	case krx.MapModifier:
		g.mods.Clear(m.ID)
		out.push(Output{Kind: OutDeactivateModifier, ID: m.ID})
	case krx.MapLock:
		// press-edge only
	case krx.MapModifiedOutput:
		var fks [4]keycode.KeyCode
		n := flagKeys(m.Flags, &fks)
		out.pushKey(m.To, Release)
		for i := n - 1; i >= 0; i-- {
			out.pushKey(fks[i], Release)
		}
	default:
		out.pushKey(key, Release)
	}
}

// releaseTracked undoes a tracked press. Returns false when key was not
// tracked.
func (g *Engine) releaseTracked(key keycode.KeyCode, out *OutputBuffer) bool {
	e := g.pressed.find(key)
	if e == nil {
		return false
	}
	switch e.action {
	case actModifier:
		g.mods.Clear(e.id)
		out.push(Output{Kind: OutDeactivateModifier, ID: e.id})
	case actLock:
		// nothing to undo
	case actKeys:
		for i := e.nKeys - 1; i >= 0; i-- {
			out.pushKey(e.keys[i], Release)
		}
	}
	g.pressed.remove(key)
	return true
}

// flagKeys expands ModifiedOutput flag bits into the physical modifier
// keys to wrap around the output, in press order. Fills dst and returns
// the count; the caller owns the storage so nothing escapes to the heap.
func flagKeys(flags uint8, dst *[4]keycode.KeyCode) int {
	n := 0
	if flags&krx.FlagCtrl != 0 {
		dst[n] = keycode.KeyLeftCtrl
		n++
	}
	if flags&krx.FlagShift != 0 {
		dst[n] = keycode.KeyLeftShift
		n++
	}
	if flags&krx.FlagAlt != 0 {
		dst[n] = keycode.KeyLeftAlt
		n++
	}
	if flags&krx.FlagWin != 0 {
		dst[n] = keycode.KeyLeftGUI
		n++
	}
	return n
}
