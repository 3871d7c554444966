package main

import (
	"context"
	"log/slog"
	"os"

	"booking-engine/cmd/bootstrap"
	"booking-engine/internal/worker"

	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// startWorkers runs the ticketing worker and the reconciliation sweeper until
// the app stops. A fatal worker error shuts the whole process down.
func startWorkers(lc fx.Lifecycle, sd fx.Shutdowner, ticketing *worker.TicketingWorker, sweeper *worker.Sweeper, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("Starting ticketing worker and sweeper")
			go func() {
				defer close(done)
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error { return ticketing.Run(gctx) })
				g.Go(func() error { return sweeper.Run(gctx) })
				if err := g.Wait(); err != nil {
					logger.Error("Worker stopped with error", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			logger.Info("Stopping workers")
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.WorkerModule,
		fx.Invoke(startWorkers),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("Failed to start worker", "error", err)
		os.Exit(1)
	}

	sig := <-app.Wait()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("Failed to stop worker cleanly", "error", err)
	}

	slog.Info("Worker stopped")
	os.Exit(sig.ExitCode)
}
