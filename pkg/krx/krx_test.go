package krx_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"keyrx/pkg/keycode"
	"keyrx/pkg/krx"
)

// wrap builds a container around a raw payload with a correct digest, so
// structural reject vectors can be crafted byte by byte.
func wrap(payload []byte) []byte {
	digest := blake2b.Sum256(payload)
	out := append([]byte{}, krx.Magic[:]...)
	out = binary.LittleEndian.AppendUint32(out, krx.FormatVersion)
	out = append(out, digest[:]...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	return append(out, payload...)
}

func u16(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

// p concatenates byte fragments into a payload.
func p(frags ...[]byte) []byte {
	var out []byte
	for _, f := range frags {
		out = append(out, f...)
	}
	return out
}

func fullConfig() *krx.Config {
	return &krx.Config{
		RuleSets: []krx.RuleSet{
			{
				Selector: "*",
				Mappings: []krx.Mapping{
					{Kind: krx.MapSimple, From: keycode.KeyA, To: keycode.KeyB},
					{Kind: krx.MapModifier, From: keycode.KeyCapsLock, ID: 0},
					{Kind: krx.MapLock, From: keycode.KeyScrollLock, ID: 3},
					{Kind: krx.MapModifiedOutput, From: keycode.Key2, To: keycode.Key2, Flags: krx.FlagShift},
				},
				Layers: []krx.Layer{
					{
						Conditions: []krx.Condition{{Kind: krx.CondModifier, ID: 0}},
						Mappings: []krx.Mapping{
							{Kind: krx.MapSimple, From: keycode.KeyH, To: keycode.KeyLeft},
							{Kind: krx.MapSimple, From: keycode.KeyL, To: keycode.KeyRight},
						},
					},
					{
						Conditions: []krx.Condition{
							{Kind: krx.CondModifier, ID: 0},
							{Kind: krx.CondLock, ID: 3},
						},
						Mappings: []krx.Mapping{
							{Kind: krx.MapSimple, From: keycode.KeyH, To: keycode.KeyHome},
						},
					},
				},
				TapHolds: []krx.TapHold{
					{From: keycode.KeySpace, Tap: keycode.KeySpace, HoldModifier: 1, ThresholdUS: 200_000},
				},
			},
			{
				Selector: "usb-*",
				Mappings: []krx.Mapping{
					{Kind: krx.MapSimple, From: keycode.KeyEscape, To: keycode.KeyGrave},
				},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cfg := fullConfig()
	blob, err := krx.Encode(cfg)
	require.NoError(t, err)

	decoded, err := krx.Decode(blob)
	require.NoError(t, err)

	assert.Equal(t, krx.FormatVersion, decoded.Version)
	require.Len(t, decoded.RuleSets, 2)
	assert.Equal(t, cfg.RuleSets[0].Mappings, decoded.RuleSets[0].Mappings)
	assert.Equal(t, cfg.RuleSets[0].Layers, decoded.RuleSets[0].Layers)
	assert.Equal(t, cfg.RuleSets[0].TapHolds, decoded.RuleSets[0].TapHolds)
	assert.Equal(t, cfg.RuleSets[1], decoded.RuleSets[1])
}

func TestDecodeEmptyConfig(t *testing.T) {
	cfg, err := krx.Decode(wrap(u16(0)))
	require.NoError(t, err)
	assert.Empty(t, cfg.RuleSets)
}

func TestDecodeRejectsHeader(t *testing.T) {
	good, err := krx.Encode(fullConfig())
	require.NoError(t, err)

	t.Run("too short", func(t *testing.T) {
		_, err := krx.Decode(good[:20])
		assert.ErrorIs(t, err, krx.ErrMalformed)
	})

	t.Run("bad magic", func(t *testing.T) {
		blob := append([]byte{}, good...)
		blob[0] = 'X'
		_, err := krx.Decode(blob)
		assert.ErrorIs(t, err, krx.ErrBadMagic)
	})

	t.Run("unsupported version", func(t *testing.T) {
		blob := append([]byte{}, good...)
		binary.LittleEndian.PutUint32(blob[4:8], 99)
		_, err := krx.Decode(blob)
		assert.ErrorIs(t, err, krx.ErrUnsupportedVersion)
	})

	t.Run("corrupted payload", func(t *testing.T) {
		blob := append([]byte{}, good...)
		blob[len(blob)-1] ^= 0xFF
		_, err := krx.Decode(blob)
		assert.ErrorIs(t, err, krx.ErrIntegrity)
	})

	t.Run("corrupted digest", func(t *testing.T) {
		blob := append([]byte{}, good...)
		blob[8] ^= 0xFF
		_, err := krx.Decode(blob)
		assert.ErrorIs(t, err, krx.ErrIntegrity)
	})

	t.Run("payload length mismatch", func(t *testing.T) {
		_, err := krx.Decode(good[:len(good)-1])
		assert.ErrorIs(t, err, krx.ErrMalformed)
	})
}

func TestDecodeRejectsPayload(t *testing.T) {
	ruleHeader := func(selector string) []byte {
		return p(u16(1), u16(uint16(len(selector))), []byte(selector))
	}
	noLayersNoTapHolds := p(u16(0), u16(0))

	cases := []struct {
		name    string
		payload []byte
	}{
		{
			name:    "trailing bytes",
			payload: p(u16(0), []byte{0xAA}),
		},
		{
			name:    "truncated mid rule set",
			payload: p(u16(1), u16(5), []byte("ab")),
		},
		{
			name:    "empty selector",
			payload: p(ruleHeader(""), u16(0), noLayersNoTapHolds),
		},
		{
			name: "unknown mapping kind",
			payload: p(ruleHeader("*"),
				u16(1), []byte{0x7F}, u16(uint16(keycode.KeyA)), u16(uint16(keycode.KeyB)),
				noLayersNoTapHolds),
		},
		{
			name: "unknown key code",
			payload: p(ruleHeader("*"),
				u16(1), []byte{uint8(krx.MapSimple)}, u16(0xABCD), u16(uint16(keycode.KeyB)),
				noLayersNoTapHolds),
		},
		{
			name: "modifier id out of range",
			payload: p(ruleHeader("*"),
				u16(1), []byte{uint8(krx.MapModifier)}, u16(uint16(keycode.KeyA)), []byte{0xFF},
				noLayersNoTapHolds),
		},
		{
			name: "unknown modified-output flags",
			payload: p(ruleHeader("*"),
				u16(1), []byte{uint8(krx.MapModifiedOutput)}, u16(uint16(keycode.KeyA)), u16(uint16(keycode.KeyB)), []byte{0x80},
				noLayersNoTapHolds),
		},
		{
			name: "empty layer condition set",
			payload: p(ruleHeader("*"), u16(0),
				u16(1), []byte{0x00}, u16(0),
				u16(0)),
		},
		{
			name: "unknown condition kind",
			payload: p(ruleHeader("*"), u16(0),
				u16(1), []byte{0x01, 0x7F, 0x00}, u16(0),
				u16(0)),
		},
		{
			name: "tap-hold id out of range",
			payload: p(ruleHeader("*"), u16(0), u16(0),
				u16(1), u16(uint16(keycode.KeySpace)), u16(uint16(keycode.KeySpace)), []byte{0xFF},
				[]byte{0, 0, 0, 0, 0, 0, 0, 0}),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := krx.Decode(wrap(tc.payload))
			assert.ErrorIs(t, err, krx.ErrMalformed)
		})
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		cfg  *krx.Config
	}{
		{
			name: "empty selector",
			cfg:  &krx.Config{RuleSets: []krx.RuleSet{{Selector: ""}}},
		},
		{
			name: "unknown mapping kind",
			cfg: &krx.Config{RuleSets: []krx.RuleSet{{
				Selector: "*",
				Mappings: []krx.Mapping{{Kind: 0x7F, From: keycode.KeyA}},
			}}},
		},
		{
			name: "id out of range",
			cfg: &krx.Config{RuleSets: []krx.RuleSet{{
				Selector: "*",
				Mappings: []krx.Mapping{{Kind: krx.MapModifier, From: keycode.KeyA, ID: 255}},
			}}},
		},
		{
			name: "empty condition set",
			cfg: &krx.Config{RuleSets: []krx.RuleSet{{
				Selector: "*",
				Layers:   []krx.Layer{{}},
			}}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := krx.Encode(tc.cfg)
			assert.Error(t, err)
		})
	}
}
