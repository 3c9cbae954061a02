package providers

import (
	"github.com/samber/do/v2"

	"github.com/takeoffapp/takeoff-server/internal/logger"
	"github.com/takeoffapp/takeoff-server/internal/service"
)

// ProvideProjectService provides the project service.
func ProvideProjectService(i do.Injector) (*service.ProjectService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProjectService(storeHandle.Store, log.Logger), nil
}

// ProvidePlanService provides the plan service.
func ProvidePlanService(i do.Injector) (*service.PlanService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPlanService(storeHandle.Store, log.Logger), nil
}

// ProvideDeviceService provides the device catalog service.
func ProvideDeviceService(i do.Injector) (*service.DeviceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDeviceService(storeHandle.Store, log.Logger), nil
}

// ProvideLocationService provides the location service.
func ProvideLocationService(i do.Injector) (*service.LocationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLocationService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideStampService provides the stamp service.
func ProvideStampService(i do.Injector) (*service.StampService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStampService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideCountService provides the count cache service.
func ProvideCountService(i do.Injector) (*service.CountService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCountService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}

// ProvideHistoryService provides the undo history service.
func ProvideHistoryService(i do.Injector) (*service.HistoryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewHistoryService(storeHandle.Store, sseHandle.Manager, log.Logger), nil
}
