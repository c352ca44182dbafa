package reconciler_fx

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/fx"

	"coursepay/internal/gateways"
	"coursepay/internal/repositories"
	"coursepay/internal/services"
)

var Module = fx.Options(
	fx.Provide(provideReconcileService),
	fx.Invoke(startSweeper),
)

func provideReconcileService(
	paymentRepo repositories.IPaymentRepository,
	enrollment services.EnrollmentService,
	registry *gateways.Registry,
) services.ReconcileService {

	grace := 30 * time.Minute
	if raw := os.Getenv("RECONCILE_PENDING_GRACE"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			grace = parsed
		}
	}

	return services.NewReconcileService(paymentRepo, enrollment, registry, grace)
}

func startSweeper(lc fx.Lifecycle, reconciler services.ReconcileService) {

	interval := 5 * time.Minute
	if raw := os.Getenv("RECONCILE_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			interval = parsed
		}
	}

	sweepCtx, stop := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Printf("Starting reconciliation sweeper, interval %s", interval)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-sweepCtx.Done():
						return
					case <-ticker.C:
						reconciler.SweepOnce(sweepCtx)
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping reconciliation sweeper")
			stop()
			return nil
		},
	})
}
