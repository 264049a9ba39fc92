// Package keycode defines the canonical key identity space used by the
// remapping engine and its bidirectional mapping to raw hardware scan
// codes.
//
// KeyCode values follow the USB HID Keyboard/Keypad usage page so that
// compiled configurations stay meaningful across platforms; ScanCodes are
// what the host's input layer actually delivers.
package keycode

// KeyCode is a canonical, platform-independent key identity.
// The zero value means "no key" and is never a valid identity.
type KeyCode uint16

// HID usage codes for keyboard keys (USB HID Keyboard/Keypad usage page).
const (
	// Letters A-Z
	KeyA KeyCode = 0x04
	KeyB KeyCode = 0x05
	KeyC KeyCode = 0x06
	KeyD KeyCode = 0x07
	KeyE KeyCode = 0x08
	KeyF KeyCode = 0x09
	KeyG KeyCode = 0x0A
	KeyH KeyCode = 0x0B
	KeyI KeyCode = 0x0C
	KeyJ KeyCode = 0x0D
	KeyK KeyCode = 0x0E
	KeyL KeyCode = 0x0F
	KeyM KeyCode = 0x10
	KeyN KeyCode = 0x11
	KeyO KeyCode = 0x12
	KeyP KeyCode = 0x13
	KeyQ KeyCode = 0x14
	KeyR KeyCode = 0x15
	KeyS KeyCode = 0x16
	KeyT KeyCode = 0x17
	KeyU KeyCode = 0x18
	KeyV KeyCode = 0x19
	KeyW KeyCode = 0x1A
	KeyX KeyCode = 0x1B
	KeyY KeyCode = 0x1C
	KeyZ KeyCode = 0x1D

	// Numbers 1-0 (top row)
	Key1 KeyCode = 0x1E
	Key2 KeyCode = 0x1F
	Key3 KeyCode = 0x20
	Key4 KeyCode = 0x21
	Key5 KeyCode = 0x22
	Key6 KeyCode = 0x23
	Key7 KeyCode = 0x24
	Key8 KeyCode = 0x25
	Key9 KeyCode = 0x26
	Key0 KeyCode = 0x27

	// Special keys
	KeyEnter      KeyCode = 0x28
	KeyEscape     KeyCode = 0x29
	KeyBackspace  KeyCode = 0x2A
	KeyTab        KeyCode = 0x2B
	KeySpace      KeyCode = 0x2C
	KeyMinus      KeyCode = 0x2D
	KeyEqual      KeyCode = 0x2E
	KeyLeftBrace  KeyCode = 0x2F
	KeyRightBrace KeyCode = 0x30
	KeyBackslash  KeyCode = 0x31
	KeySemicolon  KeyCode = 0x33
	KeyApostrophe KeyCode = 0x34
	KeyGrave      KeyCode = 0x35
	KeyComma      KeyCode = 0x36
	KeyPeriod     KeyCode = 0x37
	KeySlash      KeyCode = 0x38
	KeyCapsLock   KeyCode = 0x39

	// Function keys
	KeyF1  KeyCode = 0x3A
	KeyF2  KeyCode = 0x3B
	KeyF3  KeyCode = 0x3C
	KeyF4  KeyCode = 0x3D
	KeyF5  KeyCode = 0x3E
	KeyF6  KeyCode = 0x3F
	KeyF7  KeyCode = 0x40
	KeyF8  KeyCode = 0x41
	KeyF9  KeyCode = 0x42
	KeyF10 KeyCode = 0x43
	KeyF11 KeyCode = 0x44
	KeyF12 KeyCode = 0x45

	// Control keys
	KeyPrintScreen KeyCode = 0x46
	KeyScrollLock  KeyCode = 0x47
	KeyInsert      KeyCode = 0x49
	KeyHome        KeyCode = 0x4A
	KeyPageUp      KeyCode = 0x4B
	KeyDelete      KeyCode = 0x4C
	KeyEnd         KeyCode = 0x4D
	KeyPageDown    KeyCode = 0x4E

	// Arrow keys
	KeyRight KeyCode = 0x4F
	KeyLeft  KeyCode = 0x50
	KeyDown  KeyCode = 0x51
	KeyUp    KeyCode = 0x52

	// Numpad
	KeyNumLock    KeyCode = 0x53
	KeyKpSlash    KeyCode = 0x54
	KeyKpAsterisk KeyCode = 0x55
	KeyKpMinus    KeyCode = 0x56
	KeyKpPlus     KeyCode = 0x57
	KeyKpEnter    KeyCode = 0x58
	KeyKp1        KeyCode = 0x59
	KeyKp2        KeyCode = 0x5A
	KeyKp3        KeyCode = 0x5B
	KeyKp4        KeyCode = 0x5C
	KeyKp5        KeyCode = 0x5D
	KeyKp6        KeyCode = 0x5E
	KeyKp7        KeyCode = 0x5F
	KeyKp8        KeyCode = 0x60
	KeyKp9        KeyCode = 0x61
	KeyKp0        KeyCode = 0x62
	KeyKpDot      KeyCode = 0x63

	// Additional
	KeyApplication KeyCode = 0x65

	// Modifier keys
	KeyLeftCtrl   KeyCode = 0xE0
	KeyLeftShift  KeyCode = 0xE1
	KeyLeftAlt    KeyCode = 0xE2
	KeyLeftGUI    KeyCode = 0xE3
	KeyRightCtrl  KeyCode = 0xE4
	KeyRightShift KeyCode = 0xE5
	KeyRightAlt   KeyCode = 0xE6
	KeyRightGUI   KeyCode = 0xE7
)

// KeyName maps KeyCodes to human-readable key names.
var KeyName = map[KeyCode]string{
	// Letters
	KeyA: "A", KeyB: "B", KeyC: "C", KeyD: "D", KeyE: "E", KeyF: "F", KeyG: "G",
	KeyH: "H", KeyI: "I", KeyJ: "J", KeyK: "K", KeyL: "L", KeyM: "M", KeyN: "N",
	KeyO: "O", KeyP: "P", KeyQ: "Q", KeyR: "R", KeyS: "S", KeyT: "T", KeyU: "U",
	KeyV: "V", KeyW: "W", KeyX: "X", KeyY: "Y", KeyZ: "Z",

	// Numbers
	Key1: "1", Key2: "2", Key3: "3", Key4: "4", Key5: "5",
	Key6: "6", Key7: "7", Key8: "8", Key9: "9", Key0: "0",

	// Special keys
	KeyEnter:      "Enter",
	KeyEscape:     "Escape",
	KeyBackspace:  "Backspace",
	KeyTab:        "Tab",
	KeySpace:      "Space",
	KeyMinus:      "Minus",
	KeyEqual:      "Equal",
	KeyLeftBrace:  "LeftBrace",
	KeyRightBrace: "RightBrace",
	KeyBackslash:  "Backslash",
	KeySemicolon:  "Semicolon",
	KeyApostrophe: "Apostrophe",
	KeyGrave:      "Grave",
	KeyComma:      "Comma",
	KeyPeriod:     "Period",
	KeySlash:      "Slash",
	KeyCapsLock:   "CapsLock",

	// Function keys
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5", KeyF6: "F6",
	KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",

	// Control keys
	KeyPrintScreen: "PrintScreen",
	KeyScrollLock:  "ScrollLock",
	KeyInsert:      "Insert",
	KeyHome:        "Home",
	KeyPageUp:      "PageUp",
	KeyDelete:      "Delete",
	KeyEnd:         "End",
	KeyPageDown:    "PageDown",

	// Arrow keys
	KeyRight: "Right",
	KeyLeft:  "Left",
	KeyDown:  "Down",
	KeyUp:    "Up",

	// Numpad
	KeyNumLock:    "NumLock",
	KeyKpSlash:    "Kp/",
	KeyKpAsterisk: "Kp*",
	KeyKpMinus:    "Kp-",
	KeyKpPlus:     "Kp+",
	KeyKpEnter:    "KpEnter",
	KeyKp1:        "Kp1",
	KeyKp2:        "Kp2",
	KeyKp3:        "Kp3",
	KeyKp4:        "Kp4",
	KeyKp5:        "Kp5",
	KeyKp6:        "Kp6",
	KeyKp7:        "Kp7",
	KeyKp8:        "Kp8",
	KeyKp9:        "Kp9",
	KeyKp0:        "Kp0",
	KeyKpDot:      "Kp.",

	// Additional
	KeyApplication: "Application",

	// Modifiers
	KeyLeftCtrl:   "LeftCtrl",
	KeyLeftShift:  "LeftShift",
	KeyLeftAlt:    "LeftAlt",
	KeyLeftGUI:    "LeftGUI",
	KeyRightCtrl:  "RightCtrl",
	KeyRightShift: "RightShift",
	KeyRightAlt:   "RightAlt",
	KeyRightGUI:   "RightGUI",
}

// keyByName is the reverse of KeyName, built once at init.
var keyByName = func() map[string]KeyCode {
	m := make(map[string]KeyCode, len(KeyName))
	for k, n := range KeyName {
		m[n] = k
	}
	return m
}()

// String returns the human-readable name for the key, or "Unknown(0xNN)"
// for codes outside the known set.
func (k KeyCode) String() string {
	if n, ok := KeyName[k]; ok {
		return n
	}
	return "Unknown(" + hex16(uint16(k)) + ")"
}

// FromName resolves a key name as used in KeyName back to its KeyCode.
func FromName(name string) (KeyCode, bool) {
	k, ok := keyByName[name]
	return k, ok
}

// IsValid reports whether k is one of the known canonical key identities.
func (k KeyCode) IsValid() bool {
	_, ok := KeyName[k]
	return ok
}

func hex16(v uint16) string {
	const digits = "0123456789ABCDEF"
	return "0x" + string([]byte{
		digits[v>>12&0xF], digits[v>>8&0xF], digits[v>>4&0xF], digits[v&0xF],
	})
}
