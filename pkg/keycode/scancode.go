package keycode

// ScanCode is a raw platform key identifier as delivered by the host's
// input subsystem. Extended codes carry a prefix byte on the wire (the
// PC scan code set 1 E0 prefix); the flag keeps them distinct from base
// codes with the same numeric value.
type ScanCode struct {
	Code     uint16
	Extended bool
}

// Internal lookup index: base codes occupy [0x000,0x0FF], extended codes
// occupy [0x100,0x1FF]. The two ranges are disjoint so a single table
// serves both without collision.
const (
	extendedBit = 0x100
	tableSize   = 0x200
)

func (s ScanCode) index() (int, bool) {
	if s.Code >= extendedBit {
		return 0, false
	}
	idx := int(s.Code)
	if s.Extended {
		idx |= extendedBit
	}
	return idx, true
}

// scanEntry pairs a scan code with a presence marker; Code 0x00 is not a
// usable scan code, so the zero entry doubles as "unmapped".
type scanEntry struct {
	code     uint16
	extended bool
}

// scanToKey maps scan-code indices to canonical KeyCodes. Entries default
// to zero, i.e. unmapped.
var scanToKey [tableSize]KeyCode

// keyToScan is the reverse table, indexed by KeyCode (all canonical codes
// fit in 8 bits).
var keyToScan [0x100]scanEntry

// Scan code set 1 assignments. Base codes first, E0-prefixed codes after.
var scanCodeTable = []struct {
	key      KeyCode
	code     uint16
	extended bool
}{
	{KeyEscape, 0x01, false},
	{Key1, 0x02, false},
	{Key2, 0x03, false},
	{Key3, 0x04, false},
	{Key4, 0x05, false},
	{Key5, 0x06, false},
	{Key6, 0x07, false},
	{Key7, 0x08, false},
	{Key8, 0x09, false},
	{Key9, 0x0A, false},
	{Key0, 0x0B, false},
	{KeyMinus, 0x0C, false},
	{KeyEqual, 0x0D, false},
	{KeyBackspace, 0x0E, false},
	{KeyTab, 0x0F, false},
	{KeyQ, 0x10, false},
	{KeyW, 0x11, false},
	{KeyE, 0x12, false},
	{KeyR, 0x13, false},
	{KeyT, 0x14, false},
	{KeyY, 0x15, false},
	{KeyU, 0x16, false},
	{KeyI, 0x17, false},
	{KeyO, 0x18, false},
	{KeyP, 0x19, false},
	{KeyLeftBrace, 0x1A, false},
	{KeyRightBrace, 0x1B, false},
	{KeyEnter, 0x1C, false},
	{KeyLeftCtrl, 0x1D, false},
	{KeyA, 0x1E, false},
	{KeyS, 0x1F, false},
	{KeyD, 0x20, false},
	{KeyF, 0x21, false},
	{KeyG, 0x22, false},
	{KeyH, 0x23, false},
	{KeyJ, 0x24, false},
	{KeyK, 0x25, false},
	{KeyL, 0x26, false},
	{KeySemicolon, 0x27, false},
	{KeyApostrophe, 0x28, false},
	{KeyGrave, 0x29, false},
	{KeyLeftShift, 0x2A, false},
	{KeyBackslash, 0x2B, false},
	{KeyZ, 0x2C, false},
	{KeyX, 0x2D, false},
	{KeyC, 0x2E, false},
	{KeyV, 0x2F, false},
	{KeyB, 0x30, false},
	{KeyN, 0x31, false},
	{KeyM, 0x32, false},
	{KeyComma, 0x33, false},
	{KeyPeriod, 0x34, false},
	{KeySlash, 0x35, false},
	{KeyRightShift, 0x36, false},
	{KeyKpAsterisk, 0x37, false},
	{KeyLeftAlt, 0x38, false},
	{KeySpace, 0x39, false},
	{KeyCapsLock, 0x3A, false},
	{KeyF1, 0x3B, false},
	{KeyF2, 0x3C, false},
	{KeyF3, 0x3D, false},
	{KeyF4, 0x3E, false},
	{KeyF5, 0x3F, false},
	{KeyF6, 0x40, false},
	{KeyF7, 0x41, false},
	{KeyF8, 0x42, false},
	{KeyF9, 0x43, false},
	{KeyF10, 0x44, false},
	{KeyNumLock, 0x45, false},
	{KeyScrollLock, 0x46, false},
	{KeyKp7, 0x47, false},
	{KeyKp8, 0x48, false},
	{KeyKp9, 0x49, false},
	{KeyKpMinus, 0x4A, false},
	{KeyKp4, 0x4B, false},
	{KeyKp5, 0x4C, false},
	{KeyKp6, 0x4D, false},
	{KeyKpPlus, 0x4E, false},
	{KeyKp1, 0x4F, false},
	{KeyKp2, 0x50, false},
	{KeyKp3, 0x51, false},
	{KeyKp0, 0x52, false},
	{KeyKpDot, 0x53, false},
	{KeyF11, 0x57, false},
	{KeyF12, 0x58, false},

	// E0-prefixed
	{KeyKpEnter, 0x1C, true},
	{KeyRightCtrl, 0x1D, true},
	{KeyKpSlash, 0x35, true},
	{KeyPrintScreen, 0x37, true},
	{KeyRightAlt, 0x38, true},
	{KeyHome, 0x47, true},
	{KeyUp, 0x48, true},
	{KeyPageUp, 0x49, true},
	{KeyLeft, 0x4B, true},
	{KeyRight, 0x4D, true},
	{KeyEnd, 0x4F, true},
	{KeyDown, 0x50, true},
	{KeyPageDown, 0x51, true},
	{KeyInsert, 0x52, true},
	{KeyDelete, 0x53, true},
	{KeyLeftGUI, 0x5B, true},
	{KeyRightGUI, 0x5C, true},
	{KeyApplication, 0x5D, true},
}

func init() {
	for _, e := range scanCodeTable {
		idx := int(e.code)
		if e.extended {
			idx |= extendedBit
		}
		scanToKey[idx] = e.key
		keyToScan[e.key] = scanEntry{code: e.code, extended: e.extended}
	}
}

// FromScanCode resolves a raw scan code to its canonical KeyCode.
// Unknown codes return false; there is no default mapping, a silent
// wrong-key guess is worse than a pass-through.
func FromScanCode(s ScanCode) (KeyCode, bool) {
	idx, ok := s.index()
	if !ok {
		return 0, false
	}
	k := scanToKey[idx]
	return k, k != 0
}

// ToScanCode resolves a canonical KeyCode back to the scan code it was
// derived from.
func ToScanCode(k KeyCode) (ScanCode, bool) {
	if int(k) >= len(keyToScan) {
		return ScanCode{}, false
	}
	e := keyToScan[k]
	if e.code == 0 {
		return ScanCode{}, false
	}
	return ScanCode{Code: e.code, Extended: e.extended}, true
}
