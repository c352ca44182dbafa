package db_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"coursepay/internal/infra"
	"coursepay/internal/repositories"
)

var Module = fx.Provide(
	provideDB,
	repositories.NewPaymentRepository,
	repositories.NewCourseRepository,
	repositories.NewUserRepository,
	repositories.NewEnrollmentRepository,
)

func provideDB() *gorm.DB {
	return infra.InitPostgresql()
}
