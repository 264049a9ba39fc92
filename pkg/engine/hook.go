package engine

import (
	"sync"

	"keyrx/pkg/keycode"
)

// The process-wide engine handle. OS input hooks are invoked on an
// arbitrary, possibly-changing thread that the engine never created, so
// the state they reach must be a lazily-initialized global guarded by
// the engine's own mutex. Thread-local storage is explicitly wrong here:
// a slot initialized on the setup thread is invisible to a callback
// thread, and the hook then silently remaps nothing.
var (
	sharedOnce sync.Once
	shared     *Engine
)

// Shared returns the process-wide engine, creating it on first use.
// Safe to call from any thread, including inside the hook callback.
func Shared() *Engine {
	sharedOnce.Do(func() {
		shared = New()
	})
	return shared
}

// LoadConfig atomically swaps the shared engine's configuration.
func LoadConfig(data []byte) error {
	return Shared().LoadConfig(data)
}

// ProcessEvent runs the shared engine's hot path for a wildcard-device
// event. This is the function a hook callback calls.
func ProcessEvent(sc keycode.ScanCode, edge Edge, timestampUS uint64) OutputBuffer {
	return Shared().ProcessEvent(sc, edge, timestampUS)
}

// ProcessDeviceEvent runs the shared engine's hot path with an
// originating device identifier.
func ProcessDeviceEvent(device string, sc keycode.ScanCode, edge Edge, timestampUS uint64) OutputBuffer {
	return Shared().ProcessDeviceEvent(device, sc, edge, timestampUS)
}

// Tick drives tap-hold timeout promotion on the shared engine.
func Tick(timestampUS uint64) OutputBuffer {
	return Shared().Tick(timestampUS)
}

// Reset clears the shared engine's transient state.
func Reset() {
	Shared().Reset()
}
