package krx

import "strings"

// matchPattern matches a device identifier against a selector pattern.
//
// Supported forms:
//   - "*"            matches everything
//   - "prefix*"      prefix match
//   - "*suffix"      suffix match
//   - "prefix*suffix"
//   - "*contains*"
//   - patterns with more stars require all literal parts in order
//   - anything without "*" is an exact match
func matchPattern(pattern, id string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == id
	}

	parts := strings.Split(pattern, "*")
	switch len(parts) {
	case 2:
		prefix, suffix := parts[0], parts[1]
		switch {
		case prefix == "" && suffix == "":
			return true
		case prefix == "":
			return strings.HasSuffix(id, suffix)
		case suffix == "":
			return strings.HasPrefix(id, prefix)
		default:
			return len(id) >= len(prefix)+len(suffix) &&
				strings.HasPrefix(id, prefix) && strings.HasSuffix(id, suffix)
		}
	case 3:
		prefix, middle, suffix := parts[0], parts[1], parts[2]
		if prefix == "" && suffix == "" {
			return strings.Contains(id, middle)
		}
		return strings.HasPrefix(id, prefix) && strings.HasSuffix(id, suffix) &&
			strings.Contains(id, middle)
	default:
		remaining := id
		for i, part := range parts {
			if part == "" {
				continue
			}
			switch {
			case i == 0:
				if !strings.HasPrefix(remaining, part) {
					return false
				}
				remaining = remaining[len(part):]
			case i == len(parts)-1:
				if !strings.HasSuffix(remaining, part) {
					return false
				}
			default:
				pos := strings.Index(remaining, part)
				if pos < 0 {
					return false
				}
				remaining = remaining[pos+len(part):]
			}
		}
		return true
	}
}

// SelectorSpecificity orders selectors for rule-set resolution: exact
// selectors beat globs, globs beat the bare wildcard, and among globs the
// one with more literal characters wins.
func SelectorSpecificity(pattern string) int {
	if pattern == "*" {
		return 0
	}
	if !strings.Contains(pattern, "*") {
		return 1 << 16
	}
	return 1 + len(strings.ReplaceAll(pattern, "*", ""))
}

// ResolveRuleSet picks the most specific rule set matching deviceID,
// falling back to the wildcard rule set. Returns nil when nothing
// matches; the caller treats that as pass-through.
func (c *Config) ResolveRuleSet(deviceID string) *RuleSet {
	var best *RuleSet
	bestScore := -1
	for i := range c.RuleSets {
		rs := &c.RuleSets[i]
		if !matchPattern(rs.Selector, deviceID) {
			continue
		}
		// Declaration order breaks ties.
		if score := SelectorSpecificity(rs.Selector); score > bestScore {
			best, bestScore = rs, score
		}
	}
	return best
}
