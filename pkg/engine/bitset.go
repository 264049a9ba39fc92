package engine

import "keyrx/pkg/krx"

// Bitset255 tracks the activation state of the 255 custom modifier or
// lock slots (ids 0-254, id 255 reserved). Fixed 32-byte footprint, O(1)
// everything; the id space is always fully allocated no matter how many
// ids a configuration actually uses.
type Bitset255 struct {
	bits [32]uint8
}

func validID(id uint8) bool { return id <= krx.MaxModifierID }

// Set marks id active. Returns false for the reserved id 255.
func (b *Bitset255) Set(id uint8) bool {
	if !validID(id) {
		return false
	}
	b.bits[id/8] |= 1 << (id % 8)
	return true
}

// Clear marks id inactive. Returns false for the reserved id 255.
func (b *Bitset255) Clear(id uint8) bool {
	if !validID(id) {
		return false
	}
	b.bits[id/8] &^= 1 << (id % 8)
	return true
}

// Toggle flips id. Returns false for the reserved id 255.
func (b *Bitset255) Toggle(id uint8) bool {
	if !validID(id) {
		return false
	}
	b.bits[id/8] ^= 1 << (id % 8)
	return true
}

// IsSet reports whether id is active. The reserved id is never active.
func (b *Bitset255) IsSet(id uint8) bool {
	if !validID(id) {
		return false
	}
	return b.bits[id/8]&(1<<(id%8)) != 0
}

// Reset clears the whole set.
func (b *Bitset255) Reset() {
	b.bits = [32]uint8{}
}

// Any reports whether any id is active.
func (b *Bitset255) Any() bool {
	for _, v := range b.bits {
		if v != 0 {
			return true
		}
	}
	return false
}

// Snapshot appends the active ids in ascending order to dst and returns
// the extended slice. Callers on the hot path pass a stack-backed dst to
// keep this allocation-free.
func (b *Bitset255) Snapshot(dst []uint8) []uint8 {
	for i, v := range b.bits {
		if v == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if v&(1<<bit) != 0 {
				dst = append(dst, uint8(i*8+bit))
			}
		}
	}
	return dst
}
