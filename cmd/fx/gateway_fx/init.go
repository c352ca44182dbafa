package gateway_fx

import (
	"os"

	"go.uber.org/fx"

	"coursepay/internal/gateways"
	"coursepay/internal/gateways/iamport"
	"coursepay/internal/gateways/toss"
)

var Module = fx.Provide(
	provideRegistry,
)

func provideRegistry() *gateways.Registry {

	tossAdapter := toss.NewAdapter(toss.Config{
		SecretKey:    os.Getenv("TOSS_SECRET_KEY"),
		ClientKeyVal: os.Getenv("TOSS_CLIENT_KEY"),
		BaseURL:      os.Getenv("TOSS_BASE_URL"),
	}, nil)

	iamportAdapter := iamport.NewAdapter(iamport.Config{
		APIKey:       os.Getenv("IAMPORT_API_KEY"),
		APISecret:    os.Getenv("IAMPORT_API_SECRET"),
		ClientKeyVal: os.Getenv("IAMPORT_MERCHANT_CODE"),
		BaseURL:      os.Getenv("IAMPORT_BASE_URL"),
	}, nil)

	return gateways.NewRegistry(tossAdapter, iamportAdapter)
}
