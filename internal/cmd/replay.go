package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"keyrx/pkg/engine"
	"keyrx/pkg/keycode"
)

// Replay drives a private engine instance from a scripted event file and
// prints the outputs, for debugging profiles without touching real
// input devices.
//
// Script grammar, one statement per line, '#' starts a comment:
//
//	load <path.krx>
//	device <id>              select the device id for following events
//	press <Key>[ @abs | +delta ]
//	release <Key>[ @abs | +delta ]
//	tick[ @abs | +delta ]
//	reset
//
// Keys are canonical names (see keycode.KeyName) or a hex scan code
// like 0x63 for exercising unmapped pass-through. Times are
// microseconds; without a time token the cursor advances 10ms per
// event.
type Replay struct {
	Script string `arg:"" help:"Path to the replay script."`
	Profile string `help:"Compiled .krx profile to load before the script runs."`
}

const replayDefaultStepUS = 10_000

func (r *Replay) Run() error {
	f, err := os.Open(r.Script)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	eng := engine.New()
	if r.Profile != "" {
		data, err := os.ReadFile(r.Profile)
		if err != nil {
			return fmt.Errorf("failed to read profile: %w", err)
		}
		if err := eng.LoadConfig(data); err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
	}

	var (
		now    uint64
		device = engine.WildcardDevice
	)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "load":
			if len(fields) != 2 {
				return scriptErr(lineNo, "load wants exactly one path")
			}
			data, err := os.ReadFile(fields[1])
			if err != nil {
				return scriptErr(lineNo, "%v", err)
			}
			if err := eng.LoadConfig(data); err != nil {
				return scriptErr(lineNo, "%v", err)
			}
			fmt.Printf("%8dus  loaded %s\n", now, fields[1])
		case "device":
			if len(fields) != 2 {
				return scriptErr(lineNo, "device wants exactly one id")
			}
			device = fields[1]
		case "press", "release":
			if len(fields) < 2 {
				return scriptErr(lineNo, "%s wants a key", fields[0])
			}
			sc, err := parseScriptKey(fields[1])
			if err != nil {
				return scriptErr(lineNo, "%v", err)
			}
			now = advance(now, fields[2:], replayDefaultStepUS)
			edge := engine.Press
			if fields[0] == "release" {
				edge = engine.Release
			}
			out := eng.ProcessDeviceEvent(device, sc, edge, now)
			printOutputs(now, fields[0]+" "+fields[1], out)
		case "tick":
			now = advance(now, fields[1:], replayDefaultStepUS)
			out := eng.Tick(now)
			printOutputs(now, "tick", out)
		case "reset":
			eng.Reset()
			fmt.Printf("%8dus  reset\n", now)
		default:
			return scriptErr(lineNo, "unknown statement %q", fields[0])
		}
	}
	return scanner.Err()
}

func scriptErr(line int, format string, args ...any) error {
	return fmt.Errorf("script line %d: %s", line, fmt.Sprintf(format, args...))
}

// advance applies an optional @abs / +delta time token.
func advance(now uint64, rest []string, defaultStep uint64) uint64 {
	if len(rest) == 0 {
		return now + defaultStep
	}
	tok := rest[0]
	switch {
	case strings.HasPrefix(tok, "@"):
		if v, err := strconv.ParseUint(tok[1:], 10, 64); err == nil {
			return v
		}
	case strings.HasPrefix(tok, "+"):
		if v, err := strconv.ParseUint(tok[1:], 10, 64); err == nil {
			return now + v
		}
	}
	return now + defaultStep
}

func parseScriptKey(tok string) (keycode.ScanCode, error) {
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		v, err := strconv.ParseUint(tok[2:], 16, 16)
		if err != nil {
			return keycode.ScanCode{}, fmt.Errorf("bad scan code %q", tok)
		}
		return keycode.ScanCode{Code: uint16(v)}, nil
	}
	k, ok := keycode.FromName(tok)
	if !ok {
		return keycode.ScanCode{}, fmt.Errorf("unknown key %q", tok)
	}
	sc, ok := keycode.ToScanCode(k)
	if !ok {
		return keycode.ScanCode{}, fmt.Errorf("key %q has no scan code", tok)
	}
	return sc, nil
}

func printOutputs(now uint64, input string, out engine.OutputBuffer) {
	if out.Len() == 0 {
		fmt.Printf("%8dus  %-20s (consumed)\n", now, input)
		return
	}
	for i, o := range out.Slice() {
		prefix := input
		if i > 0 {
			prefix = ""
		}
		fmt.Printf("%8dus  %-20s %s\n", now, prefix, o)
	}
}
