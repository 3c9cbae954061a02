package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/takeoffapp/takeoff-server/internal/api"
	"github.com/takeoffapp/takeoff-server/internal/config"
	"github.com/takeoffapp/takeoff-server/internal/logger"
	"github.com/takeoffapp/takeoff-server/internal/service"
	"github.com/takeoffapp/takeoff-server/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Project:  do.MustInvoke[*service.ProjectService](i),
		Plan:     do.MustInvoke[*service.PlanService](i),
		Device:   do.MustInvoke[*service.DeviceService](i),
		Location: do.MustInvoke[*service.LocationService](i),
		Stamp:    do.MustInvoke[*service.StampService](i),
		Count:    do.MustInvoke[*service.CountService](i),
		History:  do.MustInvoke[*service.HistoryService](i),
	}

	sseHandler := sse.NewHandler(sseHandle.Manager, log.Logger)

	handler := api.NewServer(storeHandle.Store, services, sseHandler, sseHandle.Manager, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
