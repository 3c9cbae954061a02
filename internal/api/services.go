package api

import (
	"github.com/takeoffapp/takeoff-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Project  *service.ProjectService
	Plan     *service.PlanService
	Device   *service.DeviceService
	Location *service.LocationService
	Stamp    *service.StampService
	Count    *service.CountService
	History  *service.HistoryService
}
