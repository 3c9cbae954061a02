// Package di provides dependency injection configuration for the Takeoff server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/takeoffapp/takeoff-server/internal/config"
	"github.com/takeoffapp/takeoff-server/internal/di/providers"
	"github.com/takeoffapp/takeoff-server/internal/logger"
	"github.com/takeoffapp/takeoff-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Business services
	do.Provide(injector, providers.ProvideProjectService)
	do.Provide(injector, providers.ProvidePlanService)
	do.Provide(injector, providers.ProvideDeviceService)
	do.Provide(injector, providers.ProvideLocationService)
	do.Provide(injector, providers.ProvideStampService)
	do.Provide(injector, providers.ProvideCountService)
	do.Provide(injector, providers.ProvideHistoryService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.ProjectService](injector)
	_ = do.MustInvoke[*service.PlanService](injector)
	_ = do.MustInvoke[*service.DeviceService](injector)
	_ = do.MustInvoke[*service.LocationService](injector)
	_ = do.MustInvoke[*service.StampService](injector)
	_ = do.MustInvoke[*service.CountService](injector)
	_ = do.MustInvoke[*service.HistoryService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
