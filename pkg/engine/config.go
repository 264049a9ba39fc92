package engine

import (
	"sort"

	"keyrx/pkg/krx"
)

// keySpace covers every canonical KeyCode (they all fit in 8 bits), so
// per-key lookups are plain array indexing on the hot path.
const keySpace = 0x100

// compiledLayer is a conditional layer with its overrides expanded into
// a direct-index table. Built once per config load, read-only afterward.
type compiledLayer struct {
	conds     []krx.Condition
	overrides [keySpace]*krx.Mapping
}

// compiledRuleSet is a device rule set with all lookups precomputed.
type compiledRuleSet struct {
	selector string
	base     [keySpace]*krx.Mapping
	tapHolds [keySpace]*krx.TapHold
	// layers ordered most-specific first (largest condition set);
	// payload declaration order breaks ties, which the stable sort
	// preserves.
	layers []*compiledLayer
}

// compiledConfig is the engine-side view of one decoded configuration.
// Exactly one is active at a time; it is swapped as a whole and never
// mutated in place.
type compiledConfig struct {
	src   *krx.Config
	rules []*compiledRuleSet
}

func compile(cfg *krx.Config) *compiledConfig {
	cc := &compiledConfig{src: cfg, rules: make([]*compiledRuleSet, 0, len(cfg.RuleSets))}
	for i := range cfg.RuleSets {
		rs := &cfg.RuleSets[i]
		crs := &compiledRuleSet{selector: rs.Selector}
		for m := range rs.Mappings {
			mp := &rs.Mappings[m]
			crs.base[mp.From] = mp
		}
		for l := range rs.Layers {
			layer := &rs.Layers[l]
			cl := &compiledLayer{conds: layer.Conditions}
			for m := range layer.Mappings {
				mp := &layer.Mappings[m]
				cl.overrides[mp.From] = mp
			}
			crs.layers = append(crs.layers, cl)
		}
		sort.SliceStable(crs.layers, func(a, b int) bool {
			return len(crs.layers[a].conds) > len(crs.layers[b].conds)
		})
		for t := range rs.TapHolds {
			th := &rs.TapHolds[t]
			crs.tapHolds[th.From] = th
		}
		cc.rules = append(cc.rules, crs)
	}
	return cc
}

// resolveRuleSet picks the most specific rule set matching the device,
// falling back to the wildcard set. Nil means pass-through.
func (c *compiledConfig) resolveRuleSet(deviceID string) *compiledRuleSet {
	var best *compiledRuleSet
	bestScore := -1
	for _, rs := range c.rules {
		if !krx.MatchSelector(rs.selector, deviceID) {
			continue
		}
		if score := krx.SelectorSpecificity(rs.selector); score > bestScore {
			best, bestScore = rs, score
		}
	}
	return best
}
