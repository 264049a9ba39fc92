//go:build linux

package host

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MarinX/keylogger"
	"golang.org/x/sys/unix"

	"keyrx/internal/log"
	"keyrx/pkg/engine"
	"keyrx/pkg/keycode"
)

// Linux input event constants and layout (struct input_event on 64-bit:
// two 8-byte timeval fields, type, code, value).
const (
	evKey          = 0x01
	inputEventSize = 24

	// EVIOCGRAB = _IOW('E', 0x90, int); not exported by x/sys/unix.
	eviocgrab = 0x40044590

	valRelease = 0
	valPress   = 1
	valRepeat  = 2
)

// Run captures the configured devices until the context is canceled.
func Run(ctx context.Context, cfg Config, logger *slog.Logger, tracer log.TraceLogger, emit Emitter) error {
	paths := cfg.Devices
	if len(paths) == 0 {
		paths = keylogger.FindAllKeyboardDevices()
	}
	if len(paths) == 0 {
		return fmt.Errorf("no keyboard devices found (are you in the input group?)")
	}

	errCh := make(chan error, len(paths))
	for _, path := range paths {
		go func(path string) {
			errCh <- captureDevice(ctx, path, cfg.Grab, logger, tracer, emit)
		}(path)
	}

	interval := cfg.TickInterval
	if interval <= 0 {
		interval = 2 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	running := len(paths)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			out := engine.Tick(uint64(time.Now().UnixMicro()))
			if out.Len() > 0 {
				emit(out.Slice())
			}
		case err := <-errCh:
			running--
			if err != nil && ctx.Err() == nil {
				logger.Warn("device capture ended", "error", err)
			}
			if running == 0 {
				return fmt.Errorf("all capture devices gone")
			}
		}
	}
}

func captureDevice(ctx context.Context, path string, grab bool, logger *slog.Logger, tracer log.TraceLogger, emit Emitter) error {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	deviceID := deviceName(path)
	if grab {
		if err := unix.IoctlSetInt(int(f.Fd()), eviocgrab, 1); err != nil {
			// Capture still works ungrabbed, events are just seen twice.
			logger.Warn("exclusive grab failed", "device", deviceID, "error", err)
		} else {
			defer unix.IoctlSetInt(int(f.Fd()), eviocgrab, 0) //nolint:errcheck
		}
	}
	logger.Info("capturing device", "path", path, "device", deviceID)

	// Unblock the blocking read on shutdown.
	go func() {
		<-ctx.Done()
		_ = f.Close()
	}()

	buf := make([]byte, inputEventSize*64)
	for {
		n, err := f.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read %s: %w", path, err)
		}
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			handleRawEvent(deviceID, buf[off:off+inputEventSize], tracer, emit)
		}
	}
}

func handleRawEvent(deviceID string, raw []byte, tracer log.TraceLogger, emit Emitter) {
	typ := binary.LittleEndian.Uint16(raw[16:18])
	if typ != evKey {
		return
	}
	value := int32(binary.LittleEndian.Uint32(raw[20:24]))
	if value == valRepeat {
		// The engine resolves each physical press once; auto-repeat is
		// the output side's business.
		return
	}
	code := binary.LittleEndian.Uint16(raw[18:20])
	sec := binary.LittleEndian.Uint64(raw[0:8])
	usec := binary.LittleEndian.Uint64(raw[8:16])
	timestampUS := sec*1_000_000 + usec

	sc, ok := scanFromEvdev(code)
	if !ok {
		// No scan-code equivalent; let the engine's pass-through carry
		// the raw code so nothing is silently dropped.
		sc = keycode.ScanCode{Code: code}
	}
	edge := engine.Release
	if value == valPress {
		edge = engine.Press
	}

	tracer.Edge(deviceID, sc.Code, sc.Extended, edge == engine.Press, timestampUS)
	out := engine.ProcessDeviceEvent(deviceID, sc, edge, timestampUS)
	if out.Len() > 0 {
		emit(out.Slice())
		tracer.Outputs(out.Len(), summarizeOutputs(out))
	}
}

func summarizeOutputs(out engine.OutputBuffer) string {
	var b strings.Builder
	for i, o := range out.Slice() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(o.String())
	}
	return b.String()
}

// deviceName resolves the kernel device name for an event node, falling
// back to the node basename. Rule-set selectors match against this.
func deviceName(path string) string {
	base := filepath.Base(path)
	name, err := os.ReadFile("/sys/class/input/" + base + "/device/name")
	if err != nil {
		return base
	}
	if n := strings.TrimSpace(string(name)); n != "" {
		return n
	}
	return base
}

// evdevExtended maps the evdev key codes that correspond to E0-prefixed
// scan codes. The main block (codes up to 0x58) matches scan code set 1
// numerically and needs no table.
var evdevExtended = map[uint16]uint16{
	96:  0x1C, // KEY_KPENTER
	97:  0x1D, // KEY_RIGHTCTRL
	98:  0x35, // KEY_KPSLASH
	99:  0x37, // KEY_SYSRQ
	100: 0x38, // KEY_RIGHTALT
	102: 0x47, // KEY_HOME
	103: 0x48, // KEY_UP
	104: 0x49, // KEY_PAGEUP
	105: 0x4B, // KEY_LEFT
	106: 0x4D, // KEY_RIGHT
	107: 0x4F, // KEY_END
	108: 0x50, // KEY_DOWN
	109: 0x51, // KEY_PAGEDOWN
	110: 0x52, // KEY_INSERT
	111: 0x53, // KEY_DELETE
	125: 0x5B, // KEY_LEFTMETA
	126: 0x5C, // KEY_RIGHTMETA
	127: 0x5D, // KEY_COMPOSE
}

func scanFromEvdev(code uint16) (keycode.ScanCode, bool) {
	if code >= 1 && code <= 0x58 {
		return keycode.ScanCode{Code: code}, true
	}
	if base, ok := evdevExtended[code]; ok {
		return keycode.ScanCode{Code: base, Extended: true}, true
	}
	return keycode.ScanCode{}, false
}
