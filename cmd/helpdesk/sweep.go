package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one SLA sweep pass and exit",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	d, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	d.pool.Start(context.WithoutCancel(ctx))

	result, err := d.sweep.Run(ctx)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.App.ShutdownGrace())
	defer cancel()
	defer d.close(shutdownCtx)
	if err != nil {
		return fmt.Errorf("sla sweep: %w", err)
	}

	d.logger.Info("sweep complete",
		zap.Int("scanned", result.Scanned),
		zap.Int("warned", result.Warned),
		zap.Int("failed", result.Failed),
		zap.Bool("skipped", result.Skipped))
	return nil
}
