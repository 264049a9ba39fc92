package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"keyrx/pkg/krx"
)

// Verify validates a compiled .krx profile without activating it:
// container framing, format version, content digest, structural decode.
type Verify struct {
	Path string `arg:"" help:"Path to the compiled .krx profile."`
}

func (v *Verify) Run(logger *slog.Logger) error {
	data, err := os.ReadFile(v.Path)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	cfg, err := krx.Decode(data)
	if err != nil {
		return fmt.Errorf("profile rejected: %w", err)
	}

	mappings, layers, tapHolds := 0, 0, 0
	for _, rs := range cfg.RuleSets {
		mappings += len(rs.Mappings)
		layers += len(rs.Layers)
		tapHolds += len(rs.TapHolds)
	}
	logger.Info("Profile OK",
		"path", v.Path,
		"version", cfg.Version,
		"rule_sets", len(cfg.RuleSets),
		"mappings", mappings,
		"layers", layers,
		"tap_holds", tapHolds,
	)
	return nil
}
