// Package engine implements the runtime key-remapping core: the
// modifier/lock state machine, the tap-hold processor and the per-event
// resolution pipeline, behind a single mutex-guarded handle that is safe
// to call from an OS input hook running on any thread.
//
// The hot path (ProcessEvent / Tick) performs no I/O and no heap
// allocation; every container it touches is fixed-capacity with explicit
// overflow signaling.
package engine

import (
	"fmt"

	"keyrx/pkg/keycode"
)

// Edge is the direction of a key transition.
type Edge uint8

const (
	// Press is the key-down edge.
	Press Edge = iota
	// Release is the key-up edge.
	Release
)

func (e Edge) String() string {
	if e == Press {
		return "press"
	}
	return "release"
}

// OutputKind discriminates the Output variants.
type OutputKind uint8

const (
	// OutKey emits a canonical key edge.
	OutKey OutputKind = iota
	// OutPassThrough re-emits an unresolved raw scan code unchanged.
	OutPassThrough
	// OutActivateModifier turns a custom modifier on.
	OutActivateModifier
	// OutDeactivateModifier turns a custom modifier off.
	OutDeactivateModifier
	// OutToggleLock flips a custom lock.
	OutToggleLock
)

// Output is one action the host must perform in order.
type Output struct {
	Kind OutputKind
	Key  keycode.KeyCode  // OutKey
	Scan keycode.ScanCode // OutPassThrough
	Edge Edge             // OutKey, OutPassThrough
	ID   uint8            // modifier/lock variants
}

// String renders the output in the MD_xx/LK_xx notation used by
// profile sources, e.g. "press Escape" or "activate MD_03".
func (o Output) String() string {
	switch o.Kind {
	case OutKey:
		return o.Edge.String() + " " + o.Key.String()
	case OutPassThrough:
		ext := ""
		if o.Scan.Extended {
			ext = " ext"
		}
		return fmt.Sprintf("%s scan 0x%04X%s", o.Edge, o.Scan.Code, ext)
	case OutActivateModifier:
		return fmt.Sprintf("activate MD_%02X", o.ID)
	case OutDeactivateModifier:
		return fmt.Sprintf("deactivate MD_%02X", o.ID)
	case OutToggleLock:
		return fmt.Sprintf("toggle LK_%02X", o.ID)
	default:
		return "unknown"
	}
}

// MaxOutputs bounds how many outputs a single event can produce. A full
// permissive-hold cascade plus a modified-output sequence stays well
// under it.
const MaxOutputs = 32

// OutputBuffer is a fixed-capacity, stack-resident list of outputs.
// It is returned by value; the hot path never allocates one.
type OutputBuffer struct {
	n     int
	items [MaxOutputs]Output
}

func (b *OutputBuffer) push(o Output) bool {
	if b.n >= MaxOutputs {
		return false
	}
	b.items[b.n] = o
	b.n++
	return true
}

func (b *OutputBuffer) pushKey(k keycode.KeyCode, e Edge) bool {
	return b.push(Output{Kind: OutKey, Key: k, Edge: e})
}

// Len returns the number of outputs produced.
func (b *OutputBuffer) Len() int { return b.n }

// At returns the i-th output.
func (b *OutputBuffer) At(i int) Output { return b.items[i] }

// Slice returns a view of the produced outputs. The view aliases the
// buffer; copy it if it must outlive the next engine call.
func (b *OutputBuffer) Slice() []Output { return b.items[:b.n] }
