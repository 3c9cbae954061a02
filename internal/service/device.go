package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	domainerrors "github.com/takeoffapp/takeoff-server/internal/errors"
	"github.com/takeoffapp/takeoff-server/internal/id"
	"github.com/takeoffapp/takeoff-server/internal/store/sqlite"
)

// DeviceService manages the device catalog of a project.
type DeviceService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewDeviceService creates a new device service.
func NewDeviceService(store *sqlite.Store, logger *slog.Logger) *DeviceService {
	return &DeviceService{store: store, logger: logger}
}

// CreateDevice adds a device type to a project's catalog. Device names
// are unique per project.
func (s *DeviceService) CreateDevice(ctx context.Context, projectID, name, symbol, color string) (*domain.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domainerrors.Validation("device name cannot be empty")
	}
	if symbol == "" {
		return nil, domainerrors.Validation("device symbol cannot be empty")
	}

	deviceID, err := id.Generate("dev")
	if err != nil {
		return nil, fmt.Errorf("generate device ID: %w", err)
	}

	now := time.Now()
	device := &domain.Device{
		CreatedAt: now,
		UpdatedAt: now,
		ID:        deviceID,
		ProjectID: projectID,
		Name:      name,
		Symbol:    symbol,
		Color:     color,
	}

	if err := s.store.CreateDevice(ctx, device); err != nil {
		if domainerrors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExistsf("device named %q already exists in this project", name)
		}
		return nil, fmt.Errorf("create device: %w", err)
	}

	s.logger.Info("device created",
		"device_id", deviceID,
		"project_id", projectID,
		"name", name,
	)

	return device, nil
}

// GetDevice retrieves a device by ID.
func (s *DeviceService) GetDevice(ctx context.Context, id string) (*domain.Device, error) {
	return s.store.GetDevice(ctx, id)
}

// ListDevices returns a project's devices ordered by name.
func (s *DeviceService) ListDevices(ctx context.Context, projectID string) ([]*domain.Device, error) {
	return s.store.ListDevicesByProject(ctx, projectID)
}

// UpdateDevice updates a device's name, symbol, or color. Nil fields are
// left unchanged.
func (s *DeviceService) UpdateDevice(ctx context.Context, deviceID string, name, symbol, color *string) (*domain.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	device, err := s.store.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if *name == "" {
			return nil, domainerrors.Validation("device name cannot be empty")
		}
		device.Name = *name
	}
	if symbol != nil {
		if *symbol == "" {
			return nil, domainerrors.Validation("device symbol cannot be empty")
		}
		device.Symbol = *symbol
	}
	if color != nil {
		device.Color = *color
	}
	device.UpdatedAt = time.Now()

	if err := s.store.UpdateDevice(ctx, device); err != nil {
		if domainerrors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExistsf("device named %q already exists in this project", device.Name)
		}
		return nil, fmt.Errorf("update device: %w", err)
	}

	s.logger.Info("device updated", "device_id", deviceID)
	return device, nil
}

// DeleteDevice removes a device and every stamp placed with it.
func (s *DeviceService) DeleteDevice(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.DeleteDevice(ctx, id); err != nil {
		return err
	}

	s.logger.Info("device deleted", "device_id", id)
	return nil
}
