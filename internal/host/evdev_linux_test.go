//go:build linux

package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrx/pkg/keycode"
)

func TestScanFromEvdev(t *testing.T) {
	cases := []struct {
		name  string
		code  uint16
		want  keycode.KeyCode
		valid bool
	}{
		{name: "esc", code: 1, want: keycode.KeyEscape, valid: true},
		{name: "a", code: 30, want: keycode.KeyA, valid: true},
		{name: "capslock", code: 58, want: keycode.KeyCapsLock, valid: true},
		{name: "kp enter", code: 96, want: keycode.KeyKpEnter, valid: true},
		{name: "right ctrl", code: 97, want: keycode.KeyRightCtrl, valid: true},
		{name: "up arrow", code: 103, want: keycode.KeyUp, valid: true},
		{name: "delete", code: 111, want: keycode.KeyDelete, valid: true},
		{name: "left meta", code: 125, want: keycode.KeyLeftGUI, valid: true},
		{name: "reserved", code: 0, valid: false},
		{name: "unmapped", code: 240, valid: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc, ok := scanFromEvdev(tc.code)
			if !tc.valid {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			key, ok := keycode.FromScanCode(sc)
			require.True(t, ok)
			assert.Equal(t, tc.want, key)
		})
	}
}
