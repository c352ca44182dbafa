package payment_fx

import (
	"os"
	"time"

	"go.uber.org/fx"

	"coursepay/internal/api/controllers"
	"coursepay/internal/gateways"
	"coursepay/internal/repositories"
	"coursepay/internal/services"
)

var Module = fx.Provide(
	providePaymentService,
	providePaymentController,
)

func providePaymentService(
	paymentRepo repositories.IPaymentRepository,
	courseRepo repositories.ICourseRepository,
	userRepo repositories.IUserRepository,
	enrollment services.EnrollmentService,
	registry *gateways.Registry,
) services.PaymentService {

	timeout := 15 * time.Second
	if raw := os.Getenv("GATEWAY_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			timeout = parsed
		}
	}

	return services.NewPaymentService(paymentRepo, courseRepo, userRepo, enrollment, registry, timeout)
}

func providePaymentController(paymentService services.PaymentService) *controllers.PaymentController {
	return controllers.NewPaymentController(paymentService)
}
