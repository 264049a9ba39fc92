package krx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrx/pkg/krx"
)

func TestMatchSelector(t *testing.T) {
	cases := []struct {
		pattern string
		id      string
		want    bool
	}{
		{"*", "anything", true},
		{"*", "", true},
		{"usb-kbd", "usb-kbd", true},
		{"usb-kbd", "usb-kbd2", false},
		{"usb-kbd", "USB-KBD", false},
		{"usb-*", "usb-kbd", true},
		{"usb-*", "usb-", true},
		{"usb-*", "ps2-kbd", false},
		{"*-numpad", "usb-numpad", true},
		{"*-numpad", "numpad", false},
		{"usb-*-kbd", "usb-foo-kbd", true},
		{"usb-*-kbd", "usb-kbd", false},
		{"*foo*", "a-foo-b", true},
		{"*foo*", "foo", true},
		{"*foo*", "bar", false},
		{"a*b*c", "aXbYc", true},
		{"a*b*c", "abc", true},
		{"a*b*c", "acb", false},
		{"ab*ab", "ab", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, krx.MatchSelector(tc.pattern, tc.id),
			"pattern %q vs %q", tc.pattern, tc.id)
	}
}

func TestSelectorSpecificity(t *testing.T) {
	wildcard := krx.SelectorSpecificity("*")
	shortGlob := krx.SelectorSpecificity("usb-*")
	longGlob := krx.SelectorSpecificity("usb-logitech-*")
	exact := krx.SelectorSpecificity("usb-kbd")

	assert.Less(t, wildcard, shortGlob)
	assert.Less(t, shortGlob, longGlob)
	assert.Less(t, longGlob, exact)
}

func TestResolveRuleSet(t *testing.T) {
	cfg := &krx.Config{
		RuleSets: []krx.RuleSet{
			{Selector: "*"},
			{Selector: "usb-*"},
			{Selector: "usb-kbd"},
		},
	}

	rs := cfg.ResolveRuleSet("usb-kbd")
	require.NotNil(t, rs)
	assert.Equal(t, "usb-kbd", rs.Selector)

	rs = cfg.ResolveRuleSet("usb-mouse")
	require.NotNil(t, rs)
	assert.Equal(t, "usb-*", rs.Selector)

	rs = cfg.ResolveRuleSet("ps2-kbd")
	require.NotNil(t, rs)
	assert.Equal(t, "*", rs.Selector)
}

func TestResolveRuleSetNoMatch(t *testing.T) {
	cfg := &krx.Config{
		RuleSets: []krx.RuleSet{{Selector: "usb-*"}},
	}
	assert.Nil(t, cfg.ResolveRuleSet("ps2-kbd"))
}

func TestResolveRuleSetDeclarationOrderTieBreak(t *testing.T) {
	cfg := &krx.Config{
		RuleSets: []krx.RuleSet{
			{Selector: "usb-*"},
			{Selector: "*-kbd"},
		},
	}
	// Equal specificity: the first declared set wins.
	rs := cfg.ResolveRuleSet("usb-kbd")
	require.NotNil(t, rs)
	assert.Equal(t, "usb-*", rs.Selector)
}
