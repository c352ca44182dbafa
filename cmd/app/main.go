package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"coursepay/cmd/fx/db_fx"
	"coursepay/cmd/fx/enrollment_fx"
	"coursepay/cmd/fx/gateway_fx"
	"coursepay/cmd/fx/payment_fx"
	"coursepay/cmd/fx/reconciler_fx"
	"coursepay/internal/api/controllers"
	"coursepay/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	app := fx.New(
		db_fx.Module,
		gateway_fx.Module,
		enrollment_fx.Module,
		payment_fx.Module,
		reconciler_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := os.Getenv("PORT")
				if port == "" {
					port = "8080"
				}
				log.Printf("Starting HTTP server at :%s", port)
				if err := engine.Run(":" + port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(paymentController *controllers.PaymentController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, paymentController)

	return r
}

func RegisterRoutes(r *gin.Engine, paymentController *controllers.PaymentController) {

	payments := r.Group("/payments")
	payments.Use(middleware.JWTAuthMiddleware())
	payments.POST("/prepare", paymentController.Prepare)
	payments.POST("/confirm", paymentController.Confirm)
	payments.POST("/cancel", paymentController.Cancel)
	payments.GET("/:orderId", paymentController.GetByOrderID)
}
