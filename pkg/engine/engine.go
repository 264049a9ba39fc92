package engine

import (
	"sync"

	"keyrx/pkg/keycode"
	"keyrx/pkg/krx"
)

// WildcardDevice is the device identifier used when the host does not
// know which device produced an event; it resolves against the wildcard
// rule set.
const WildcardDevice = "*"

// Engine is the runtime remapping core. One mutex guards the modifier
// and lock state, the tap-hold registry, the pressed-key table and the
// active configuration pointer together: a configuration swap is
// observed atomically by concurrent event processing, an event never
// sees half of the old rules and half of the new.
//
// All methods are safe from any goroutine or foreign thread; none of
// them panic, block on I/O, or allocate on the event path.
type Engine struct {
	mu      sync.Mutex
	cfg     *compiledConfig
	mods    Bitset255
	locks   Bitset255
	tapHold tapHoldRegistry
	pressed pressedSet
}

// New returns an engine with no configuration loaded; until LoadConfig
// succeeds every event passes through unmodified.
func New() *Engine {
	return &Engine{}
}

// LoadConfig decodes, validates and atomically activates a compiled
// configuration blob. On any error the previously active configuration
// stays untouched. A successful swap resets all transient state
// (modifiers, locks, pending tap-holds, pressed-key tracking): modifier
// ids have no required meaning across configurations, stale bits must
// not leak into the new id space.
func (g *Engine) LoadConfig(data []byte) error {
	cfg, err := krx.Decode(data)
	if err != nil {
		return err
	}
	compiled := compile(cfg)

	g.mu.Lock()
	g.cfg = compiled
	g.resetLocked()
	g.mu.Unlock()
	return nil
}

// Reset clears modifier, lock, tap-hold and pressed-key state without
// touching the loaded configuration. Idempotent.
func (g *Engine) Reset() {
	g.mu.Lock()
	g.resetLocked()
	g.mu.Unlock()
}

func (g *Engine) resetLocked() {
	g.mods.Reset()
	g.locks.Reset()
	g.tapHold.reset()
	g.pressed.reset()
}

// ProcessEvent runs the hot path for an event with no originating
// device information (wildcard rule set).
func (g *Engine) ProcessEvent(sc keycode.ScanCode, edge Edge, timestampUS uint64) OutputBuffer {
	return g.ProcessDeviceEvent(WildcardDevice, sc, edge, timestampUS)
}

// ProcessDeviceEvent runs the hot path for one raw key edge from the
// identified device and returns the ordered outputs the host must emit.
// Unresolvable input degrades to pass-through, never to a dropped event
// or a panic: losing all keyboard input is worse than one unmapped key.
func (g *Engine) ProcessDeviceEvent(device string, sc keycode.ScanCode, edge Edge, timestampUS uint64) OutputBuffer {
	var out OutputBuffer

	g.mu.Lock()
	defer g.mu.Unlock()

	key, ok := keycode.FromScanCode(sc)
	if !ok {
		out.push(Output{Kind: OutPassThrough, Scan: sc, Edge: edge})
		return out
	}
	if g.cfg == nil {
		out.pushKey(key, edge)
		return out
	}
	rs := g.cfg.resolveRuleSet(device)
	if rs == nil {
		out.pushKey(key, edge)
		return out
	}

	if edge == Press {
		// Permissive hold: a new press decides every still-pending
		// tap-hold key first, so its hold modifier is visible to this
		// event's own layer resolution.
		g.tapHold.promotePending(key, &g.mods, &out)

		if decl := rs.tapHolds[key]; decl != nil {
			if g.tapHold.find(key) != nil {
				// Auto-repeat of an in-flight dual-role key.
				return out
			}
			if err := g.tapHold.register(decl, timestampUS); err != nil {
				// Registry full: this one key behaves as plain
				// pass-through until the registry drains.
				out.pushKey(key, Press)
			}
			return out
		}

		m := g.lookupMapping(rs, key)
		if m == nil {
			out.pushKey(key, Press)
			g.pressed.record(pressedEntry{input: key, action: actKeys, keys: [maxOutputsPerInput]keycode.KeyCode{key}, nKeys: 1})
			return out
		}
		g.applyPress(m, key, &out)
		return out
	}

	// Release edge. Tap-hold resolution first, then the tracked-press
	// table, then a best-effort re-resolve for presses that predate the
	// current configuration.
	if g.tapHold.release(key, timestampUS, &g.mods, &out) {
		return out
	}
	if g.releaseTracked(key, &out) {
		return out
	}
	if m := g.lookupMapping(rs, key); m != nil {
		g.applyRelease(m, key, &out)
		return out
	}
	out.pushKey(key, Release)
	return out
}

// Tick promotes pending tap-hold keys whose threshold has elapsed.
// The host must call it at a bounded interval (a few milliseconds) even
// when no input arrives; the engine runs no timer of its own.
func (g *Engine) Tick(timestampUS uint64) OutputBuffer {
	var out OutputBuffer
	g.mu.Lock()
	g.tapHold.tick(timestampUS, &g.mods, &out)
	g.mu.Unlock()
	return out
}

// ModifierActive reports whether a custom modifier is currently active.
func (g *Engine) ModifierActive(id uint8) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mods.IsSet(id)
}

// LockActive reports whether a custom lock is currently active.
func (g *Engine) LockActive(id uint8) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locks.IsSet(id)
}

// HasConfig reports whether a configuration is loaded.
func (g *Engine) HasConfig() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg != nil
}
