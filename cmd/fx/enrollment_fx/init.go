package enrollment_fx

import (
	"go.uber.org/fx"

	"coursepay/internal/services"
)

var Module = fx.Provide(
	services.NewEnrollmentService,
)
