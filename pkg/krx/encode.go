package krx

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Encode serializes a Config into a blob Decode accepts.
//
// The engine itself only ever consumes blobs; this is the canonical
// encoder for the tooling side (verify fixtures, replay scripts, tests).
// Declaration order of rule sets, mappings and layers is preserved
// exactly, never re-sorted: the resolver's equal-specificity tie-break
// depends on it.
func Encode(cfg *Config) ([]byte, error) {
	var p bytes.Buffer

	if len(cfg.RuleSets) > 0xFFFF {
		return nil, fmt.Errorf("too many rule sets: %d", len(cfg.RuleSets))
	}
	writeU16(&p, uint16(len(cfg.RuleSets)))
	for i := range cfg.RuleSets {
		rs := &cfg.RuleSets[i]
		if err := encodeRuleSet(&p, rs); err != nil {
			return nil, fmt.Errorf("rule set %d (%q): %w", i, rs.Selector, err)
		}
	}

	payload := p.Bytes()
	digest := blake2b.Sum256(payload)

	out := make([]byte, 0, headerSize+len(payload))
	out = append(out, Magic[:]...)
	out = binary.LittleEndian.AppendUint32(out, FormatVersion)
	out = append(out, digest[:]...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	out = append(out, payload...)
	return out, nil
}

func encodeRuleSet(p *bytes.Buffer, rs *RuleSet) error {
	if rs.Selector == "" {
		return fmt.Errorf("empty selector")
	}
	if len(rs.Selector) > 0xFFFF {
		return fmt.Errorf("selector too long")
	}
	writeU16(p, uint16(len(rs.Selector)))
	p.WriteString(rs.Selector)

	if err := encodeMappings(p, rs.Mappings); err != nil {
		return err
	}

	writeU16(p, uint16(len(rs.Layers)))
	for i := range rs.Layers {
		l := &rs.Layers[i]
		if len(l.Conditions) == 0 || len(l.Conditions) > 0xFF {
			return fmt.Errorf("layer %d: condition set size %d", i, len(l.Conditions))
		}
		p.WriteByte(uint8(len(l.Conditions)))
		for _, c := range l.Conditions {
			if c.ID > MaxModifierID {
				return fmt.Errorf("layer %d: condition id %d out of range", i, c.ID)
			}
			p.WriteByte(uint8(c.Kind))
			p.WriteByte(c.ID)
		}
		if err := encodeMappings(p, l.Mappings); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}

	writeU16(p, uint16(len(rs.TapHolds)))
	for _, th := range rs.TapHolds {
		if th.HoldModifier > MaxModifierID {
			return fmt.Errorf("tap-hold %s: hold modifier %d out of range", th.From, th.HoldModifier)
		}
		writeU16(p, uint16(th.From))
		writeU16(p, uint16(th.Tap))
		p.WriteByte(th.HoldModifier)
		var th64 [8]byte
		binary.LittleEndian.PutUint64(th64[:], th.ThresholdUS)
		p.Write(th64[:])
	}
	return nil
}

func encodeMappings(p *bytes.Buffer, ms []Mapping) error {
	if len(ms) > 0xFFFF {
		return fmt.Errorf("too many mappings: %d", len(ms))
	}
	writeU16(p, uint16(len(ms)))
	for _, m := range ms {
		p.WriteByte(uint8(m.Kind))
		writeU16(p, uint16(m.From))
		switch m.Kind {
		case MapSimple:
			writeU16(p, uint16(m.To))
		case MapModifier, MapLock:
			if m.ID > MaxModifierID {
				return fmt.Errorf("mapping %s: id %d out of range", m.From, m.ID)
			}
			p.WriteByte(m.ID)
		case MapModifiedOutput:
			writeU16(p, uint16(m.To))
			p.WriteByte(m.Flags)
		default:
			return fmt.Errorf("mapping %s: unknown kind 0x%02X", m.From, uint8(m.Kind))
		}
	}
	return nil
}

func writeU16(p *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	p.Write(b[:])
}
