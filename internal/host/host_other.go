//go:build !linux

package host

import (
	"context"
	"log/slog"

	"keyrx/internal/log"
)

// Run is unavailable outside Linux; the engine and tooling still work,
// only live capture is missing.
func Run(ctx context.Context, cfg Config, logger *slog.Logger, tracer log.TraceLogger, emit Emitter) error {
	return ErrUnsupported
}
