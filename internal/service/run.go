package service

import (
	"context"
	"log/slog"

	"github.com/CZERTAINLY/golden/internal/log"
	"github.com/CZERTAINLY/golden/internal/reconcile"
	"github.com/google/uuid"
)

// Run implements the run, record and update commands.
func Run(ctx context.Context, cfg Config, printer Printer) (reconcile.Summary, error) {
	ctx = log.ContextAttrs(ctx, slog.String("run_id", uuid.NewString()))
	svc, err := New(ctx, cfg)
	if err != nil {
		return reconcile.Summary{}, err
	}
	return svc.Do(ctx, printer)
}
