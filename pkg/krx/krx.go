// Package krx decodes the compiled binary configuration (".krx" blob)
// consumed by the remapping engine.
//
// The blob is produced by an external compiler and is immutable once
// decoded: the engine shares one *Config read-only between all event
// processing until the whole thing is replaced by another load.
//
// Container layout (all integers little-endian):
//
//	Bytes 0-3:   Magic "KRX1"
//	Bytes 4-7:   Format version (uint32)
//	Bytes 8-39:  BLAKE2b-256 digest of the payload
//	Bytes 40-47: Payload length (uint64)
//	Bytes 48+:   Payload
package krx

import "keyrx/pkg/keycode"

// Magic identifies a compiled configuration blob.
var Magic = [4]byte{'K', 'R', 'X', '1'}

// FormatVersion is the payload format version this engine understands.
// Any change to field order or width bumps it.
const FormatVersion uint32 = 1

// MaxModifierID is the largest valid custom modifier or lock ID.
// IDs 0-254 are usable; 255 is reserved and rejected.
const MaxModifierID uint8 = 0xFE

// MappingKind discriminates the base mapping variants.
type MappingKind uint8

const (
	// MapSimple remaps one key to another (A -> B).
	MapSimple MappingKind = 0x01
	// MapModifier makes a key drive a custom momentary modifier.
	MapModifier MappingKind = 0x02
	// MapLock makes a key toggle a custom lock on each press.
	MapLock MappingKind = 0x03
	// MapModifiedOutput emits a key together with physical modifiers
	// (Shift+2, Ctrl+C and the like).
	MapModifiedOutput MappingKind = 0x04
)

// ModifiedOutput flag bits.
const (
	FlagShift uint8 = 1 << 0
	FlagCtrl  uint8 = 1 << 1
	FlagAlt   uint8 = 1 << 2
	FlagWin   uint8 = 1 << 3
)

// Mapping is one base key mapping. Which fields are meaningful depends
// on Kind: To for MapSimple/MapModifiedOutput, ID for MapModifier/MapLock,
// Flags for MapModifiedOutput.
type Mapping struct {
	Kind  MappingKind
	From  keycode.KeyCode
	To    keycode.KeyCode
	ID    uint8
	Flags uint8
}

// ConditionKind discriminates layer condition items.
type ConditionKind uint8

const (
	// CondModifier requires a custom modifier to be active.
	CondModifier ConditionKind = 0x01
	// CondLock requires a custom lock to be active.
	CondLock ConditionKind = 0x02
)

// Condition is one item of a layer's AND-combined activation set.
type Condition struct {
	Kind ConditionKind
	ID   uint8
}

// Layer is a set of override mappings that applies only while every
// condition in its set is active. Layers keep the declaration order of
// the compiled payload; the resolver relies on it for tie-breaking.
type Layer struct {
	Conditions []Condition
	Mappings   []Mapping
}

// TapHold declares a dual-role key: tap output on quick release, custom
// modifier while held past the threshold.
type TapHold struct {
	From         keycode.KeyCode
	Tap          keycode.KeyCode
	HoldModifier uint8
	ThresholdUS  uint64
}

// RuleSet holds all rules for the devices matched by Selector.
type RuleSet struct {
	// Selector is matched against host device identifiers. "*" matches
	// every device; "usb-*", "*-numpad" and "*foo*" style globs are
	// supported, anything else is an exact match.
	Selector string
	Mappings []Mapping
	Layers   []Layer
	TapHolds []TapHold
}

// Config is a fully decoded, validated compiled configuration.
// It is never mutated after Decode returns it.
type Config struct {
	Version  uint32
	RuleSets []RuleSet
}

// MatchSelector reports whether a device identifier matches a rule-set
// selector pattern.
func MatchSelector(pattern, deviceID string) bool {
	return matchPattern(pattern, deviceID)
}
