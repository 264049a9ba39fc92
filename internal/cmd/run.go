// Package cmd implements the keyrxd subcommands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keyrx/internal/configpaths"
	"keyrx/internal/host"
	"keyrx/internal/log"
	"keyrx/pkg/engine"
)

// Run captures keyboard input and feeds it through the shared remapping
// engine until interrupted.
type Run struct {
	Profile      string        `help:"Compiled .krx profile to load (defaults to the active profile)." env:"KEYRXD_PROFILE"`
	Devices      []string      `help:"Input device paths to capture (autodetected when empty)." env:"KEYRXD_DEVICES"`
	Grab         bool          `help:"Grab devices exclusively so unmapped events are not seen twice." default:"true" negatable:""`
	TickInterval time.Duration `help:"Tap-hold timeout promotion interval." default:"2ms" env:"KEYRXD_TICK_INTERVAL"`
}

// Run is called by kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, tracer log.TraceLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profile := r.Profile
	if profile == "" {
		p, err := configpaths.DefaultProfilePath()
		if err != nil {
			return fmt.Errorf("failed to resolve default profile path: %w", err)
		}
		profile = p
	}

	data, err := os.ReadFile(profile)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	if err := engine.LoadConfig(data); err != nil {
		return fmt.Errorf("failed to load profile %s: %w", profile, err)
	}
	logger.Info("Loaded compiled profile", "path", profile, "bytes", len(data))

	hostCfg := host.Config{
		Devices:      r.Devices,
		Grab:         r.Grab,
		TickInterval: r.TickInterval,
	}
	return host.Run(ctx, hostCfg, logger, tracer, func(outputs []engine.Output) {
		for _, o := range outputs {
			logger.Log(ctx, log.LevelTrace, "output", "action", o.String())
		}
	})
}
