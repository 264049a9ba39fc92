package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"keyrx/pkg/krx"
)

// Inspect decodes a compiled .krx profile and prints a human-readable
// rendition of its rule sets.
type Inspect struct {
	Path   string `arg:"" help:"Path to the compiled .krx profile."`
	Format string `help:"Output format." enum:"json,yaml,toml" default:"json"`
}

type inspectDoc struct {
	Version  uint32           `json:"version" yaml:"version" toml:"version"`
	RuleSets []inspectRuleSet `json:"ruleSets" yaml:"ruleSets" toml:"ruleSets"`
}

type inspectRuleSet struct {
	Selector string           `json:"selector" yaml:"selector" toml:"selector"`
	Mappings []string         `json:"mappings,omitempty" yaml:"mappings,omitempty" toml:"mappings,omitempty"`
	Layers   []inspectLayer   `json:"layers,omitempty" yaml:"layers,omitempty" toml:"layers,omitempty"`
	TapHolds []inspectTapHold `json:"tapHolds,omitempty" yaml:"tapHolds,omitempty" toml:"tapHolds,omitempty"`
}

type inspectLayer struct {
	Conditions []string `json:"conditions" yaml:"conditions" toml:"conditions"`
	Mappings   []string `json:"mappings" yaml:"mappings" toml:"mappings"`
}

type inspectTapHold struct {
	From        string `json:"from" yaml:"from" toml:"from"`
	Tap         string `json:"tap" yaml:"tap" toml:"tap"`
	Hold        string `json:"hold" yaml:"hold" toml:"hold"`
	ThresholdUS uint64 `json:"thresholdUs" yaml:"thresholdUs" toml:"thresholdUs"`
}

func (c *Inspect) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	cfg, err := krx.Decode(data)
	if err != nil {
		return fmt.Errorf("profile rejected: %w", err)
	}

	doc := buildInspectDoc(cfg)

	var out []byte
	switch c.Format {
	case "json":
		out, err = json.MarshalIndent(doc, "", "  ")
	case "yaml":
		out, err = yaml.Marshal(doc)
	case "toml":
		out, err = toml.Marshal(doc)
	}
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}

func buildInspectDoc(cfg *krx.Config) inspectDoc {
	doc := inspectDoc{Version: cfg.Version}
	for _, rs := range cfg.RuleSets {
		irs := inspectRuleSet{Selector: rs.Selector}
		for _, m := range rs.Mappings {
			irs.Mappings = append(irs.Mappings, describeMapping(m))
		}
		for _, l := range rs.Layers {
			il := inspectLayer{}
			for _, cond := range l.Conditions {
				il.Conditions = append(il.Conditions, describeCondition(cond))
			}
			for _, m := range l.Mappings {
				il.Mappings = append(il.Mappings, describeMapping(m))
			}
			irs.Layers = append(irs.Layers, il)
		}
		for _, th := range rs.TapHolds {
			irs.TapHolds = append(irs.TapHolds, inspectTapHold{
				From:        th.From.String(),
				Tap:         th.Tap.String(),
				Hold:        fmt.Sprintf("MD_%02X", th.HoldModifier),
				ThresholdUS: th.ThresholdUS,
			})
		}
		doc.RuleSets = append(doc.RuleSets, irs)
	}
	return doc
}

func describeMapping(m krx.Mapping) string {
	switch m.Kind {
	case krx.MapSimple:
		return fmt.Sprintf("%s -> %s", m.From, m.To)
	case krx.MapModifier:
		return fmt.Sprintf("%s -> MD_%02X", m.From, m.ID)
	case krx.MapLock:
		return fmt.Sprintf("%s -> LK_%02X", m.From, m.ID)
	case krx.MapModifiedOutput:
		mods := ""
		if m.Flags&krx.FlagCtrl != 0 {
			mods += "Ctrl+"
		}
		if m.Flags&krx.FlagShift != 0 {
			mods += "Shift+"
		}
		if m.Flags&krx.FlagAlt != 0 {
			mods += "Alt+"
		}
		if m.Flags&krx.FlagWin != 0 {
			mods += "Win+"
		}
		return fmt.Sprintf("%s -> %s%s", m.From, mods, m.To)
	default:
		return fmt.Sprintf("%s -> ?", m.From)
	}
}

func describeCondition(c krx.Condition) string {
	if c.Kind == krx.CondLock {
		return fmt.Sprintf("LK_%02X", c.ID)
	}
	return fmt.Sprintf("MD_%02X", c.ID)
}
