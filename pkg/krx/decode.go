package krx

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"keyrx/pkg/keycode"
)

// headerSize is magic[4] + version[4] + digest[32] + payloadLen[8].
const headerSize = 4 + 4 + blake2b.Size256 + 8

// Decode parses and validates a compiled configuration blob.
//
// Verification order: magic, version, payload digest, then structural
// decode. Any failure rejects the whole blob; there is no partial
// result.
func Decode(data []byte) (*Config, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformed, len(data))
	}
	if !bytes.Equal(data[0:4], Magic[:]) {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d, engine understands %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	var digest [blake2b.Size256]byte
	copy(digest[:], data[8:40])
	payloadLen := binary.LittleEndian.Uint64(data[40:48])
	payload := data[headerSize:]
	if uint64(len(payload)) != payloadLen {
		return nil, fmt.Errorf("%w: header declares %d payload bytes, %d present", ErrMalformed, payloadLen, len(payload))
	}
	actual := blake2b.Sum256(payload)
	if subtle.ConstantTimeCompare(actual[:], digest[:]) != 1 {
		return nil, ErrIntegrity
	}

	cfg, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	cfg.Version = version
	return cfg, nil
}

// reader walks the payload, remembering the first failure so decode
// logic stays linear.
type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
	}
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	if r.off+1 > len(r.b) {
		r.fail("truncated at offset %d", r.off)
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	if r.off+2 > len(r.b) {
		r.fail("truncated at offset %d", r.off)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.off+8 > len(r.b) {
		r.fail("truncated at offset %d", r.off)
		return 0
	}
	v := binary.LittleEndian.Uint64(r.b[r.off:])
	r.off += 8
	return v
}

func (r *reader) str() string {
	n := int(r.u16())
	if r.err != nil {
		return ""
	}
	if r.off+n > len(r.b) {
		r.fail("truncated string at offset %d", r.off)
		return ""
	}
	s := string(r.b[r.off : r.off+n])
	r.off += n
	return s
}

func (r *reader) key() keycode.KeyCode {
	k := keycode.KeyCode(r.u16())
	if r.err != nil {
		return 0
	}
	if !k.IsValid() {
		r.fail("unknown key code 0x%04X at offset %d", uint16(k), r.off-2)
		return 0
	}
	return k
}

func (r *reader) id() uint8 {
	id := r.u8()
	if r.err != nil {
		return 0
	}
	if id > MaxModifierID {
		r.fail("modifier/lock id %d out of range (max %d)", id, MaxModifierID)
		return 0
	}
	return id
}

func decodePayload(payload []byte) (*Config, error) {
	r := &reader{b: payload}

	ruleCount := int(r.u16())
	cfg := &Config{RuleSets: make([]RuleSet, 0, ruleCount)}
	for i := 0; i < ruleCount && r.err == nil; i++ {
		rs := RuleSet{Selector: r.str()}
		if r.err == nil && rs.Selector == "" {
			r.fail("rule set %d has an empty selector", i)
		}
		rs.Mappings = r.mappings()
		layerCount := int(r.u16())
		for l := 0; l < layerCount && r.err == nil; l++ {
			rs.Layers = append(rs.Layers, r.layer(l))
		}
		thCount := int(r.u16())
		for t := 0; t < thCount && r.err == nil; t++ {
			rs.TapHolds = append(rs.TapHolds, TapHold{
				From:         r.key(),
				Tap:          r.key(),
				HoldModifier: r.id(),
				ThresholdUS:  r.u64(),
			})
		}
		cfg.RuleSets = append(cfg.RuleSets, rs)
	}
	if r.err == nil && r.off != len(payload) {
		r.fail("%d trailing bytes after payload", len(payload)-r.off)
	}
	if r.err != nil {
		return nil, r.err
	}
	return cfg, nil
}

func (r *reader) mappings() []Mapping {
	count := int(r.u16())
	var out []Mapping
	for i := 0; i < count && r.err == nil; i++ {
		m := Mapping{Kind: MappingKind(r.u8()), From: r.key()}
		switch m.Kind {
		case MapSimple:
			m.To = r.key()
		case MapModifier, MapLock:
			m.ID = r.id()
		case MapModifiedOutput:
			m.To = r.key()
			m.Flags = r.u8()
			if r.err == nil && m.Flags&^(FlagShift|FlagCtrl|FlagAlt|FlagWin) != 0 {
				r.fail("unknown modified-output flags 0x%02X", m.Flags)
			}
		default:
			r.fail("unknown mapping kind 0x%02X", uint8(m.Kind))
		}
		out = append(out, m)
	}
	return out
}

func (r *reader) layer(idx int) Layer {
	condCount := int(r.u8())
	if r.err == nil && condCount == 0 {
		r.fail("layer %d has an empty condition set", idx)
	}
	var l Layer
	for c := 0; c < condCount && r.err == nil; c++ {
		cond := Condition{Kind: ConditionKind(r.u8())}
		if r.err == nil && cond.Kind != CondModifier && cond.Kind != CondLock {
			r.fail("unknown condition kind 0x%02X in layer %d", uint8(cond.Kind), idx)
		}
		cond.ID = r.id()
		l.Conditions = append(l.Conditions, cond)
	}
	l.Mappings = r.mappings()
	return l
}
