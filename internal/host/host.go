// Package host attaches the remapping engine to the platform's input
// layer: it captures raw key edges from real devices, feeds them to the
// shared engine, and drives the periodic tap-hold tick.
//
// Output synthesis is delegated to an Emitter callback; what "emit"
// means (uinput injection, IPC to a privileged helper) is the
// integrator's choice, the engine only decides what must happen.
package host

import (
	"errors"
	"time"

	"keyrx/pkg/engine"
)

// Config controls the capture layer.
type Config struct {
	// Devices lists evdev device paths to capture. Empty means
	// autodetect every keyboard-capable device.
	Devices []string
	// Grab requests exclusive access so unmapped events are not
	// delivered twice (once raw, once synthesized).
	Grab bool
	// TickInterval bounds how stale a pending tap-hold key can get
	// before timeout promotion; the engine has no timer of its own.
	TickInterval time.Duration
}

// Emitter receives the ordered outputs of each processed edge or tick.
// It runs outside the engine's critical section.
type Emitter func(outputs []engine.Output)

// ErrUnsupported is returned on platforms without a capture backend.
var ErrUnsupported = errors.New("host: input capture not supported on this platform")
