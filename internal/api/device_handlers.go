package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takeoffapp/takeoff-server/internal/domain"
)

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createDevice",
		Method:      http.MethodPost,
		Path:        "/api/v1/projects/{id}/devices",
		Summary:     "Create device",
		Description: "Creates a device type within a project",
		Tags:        []string{"Devices"},
	}, s.handleCreateDevice)

	huma.Register(s.api, huma.Operation{
		OperationID: "listDevices",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}/devices",
		Summary:     "List devices",
		Description: "Returns a project's devices ordered by name",
		Tags:        []string{"Devices"},
	}, s.handleListDevices)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateDevice",
		Method:      http.MethodPatch,
		Path:        "/api/v1/devices/{id}",
		Summary:     "Update device",
		Description: "Updates a device's name, symbol, or color",
		Tags:        []string{"Devices"},
	}, s.handleUpdateDevice)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteDevice",
		Method:      http.MethodDelete,
		Path:        "/api/v1/devices/{id}",
		Summary:     "Delete device",
		Description: "Deletes a device and its stamps",
		Tags:        []string{"Devices"},
	}, s.handleDeleteDevice)
}

// === DTOs ===

// CreateDeviceRequest is the request body for creating a device.
type CreateDeviceRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=200" doc:"Device name, unique per project"`
	Symbol string `json:"symbol,omitempty" validate:"omitempty,max=10" doc:"Short plan symbol"`
	Color  string `json:"color,omitempty" validate:"omitempty,max=20" doc:"Display color"`
}

// CreateDeviceInput wraps the create device request for Huma.
type CreateDeviceInput struct {
	ProjectID string `path:"id" doc:"Project ID"`
	Body      CreateDeviceRequest
}

// DeviceOutput wraps a single device for Huma.
type DeviceOutput struct {
	Body *domain.Device
}

// ListDevicesInput contains parameters for listing a project's devices.
type ListDevicesInput struct {
	ProjectID string `path:"id" doc:"Project ID"`
}

// ListDevicesResponse contains a list of devices.
type ListDevicesResponse struct {
	Devices []*domain.Device `json:"devices" doc:"List of devices"`
}

// ListDevicesOutput wraps the list devices response for Huma.
type ListDevicesOutput struct {
	Body ListDevicesResponse
}

// UpdateDeviceRequest is the request body for updating a device.
type UpdateDeviceRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=200" doc:"Device name"`
	Symbol *string `json:"symbol,omitempty" validate:"omitempty,max=10" doc:"Short plan symbol"`
	Color  *string `json:"color,omitempty" validate:"omitempty,max=20" doc:"Display color"`
}

// UpdateDeviceInput wraps the update device request for Huma.
type UpdateDeviceInput struct {
	ID   string `path:"id" doc:"Device ID"`
	Body UpdateDeviceRequest
}

// DeleteDeviceInput contains parameters for deleting a device.
type DeleteDeviceInput struct {
	ID string `path:"id" doc:"Device ID"`
}

// === Handlers ===

func (s *Server) handleCreateDevice(ctx context.Context, input *CreateDeviceInput) (*DeviceOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	d, err := s.services.Device.CreateDevice(ctx, input.ProjectID, input.Body.Name, input.Body.Symbol, input.Body.Color)
	if err != nil {
		return nil, err
	}
	return &DeviceOutput{Body: d}, nil
}

func (s *Server) handleListDevices(ctx context.Context, input *ListDevicesInput) (*ListDevicesOutput, error) {
	devices, err := s.services.Device.ListDevices(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	return &ListDevicesOutput{Body: ListDevicesResponse{Devices: devices}}, nil
}

func (s *Server) handleUpdateDevice(ctx context.Context, input *UpdateDeviceInput) (*DeviceOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	d, err := s.services.Device.UpdateDevice(ctx, input.ID, input.Body.Name, input.Body.Symbol, input.Body.Color)
	if err != nil {
		return nil, err
	}
	return &DeviceOutput{Body: d}, nil
}

func (s *Server) handleDeleteDevice(ctx context.Context, input *DeleteDeviceInput) (*struct{}, error) {
	if err := s.services.Device.DeleteDevice(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
