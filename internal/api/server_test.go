package api

import (
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takeoffapp/takeoff-server/internal/service"
	"github.com/takeoffapp/takeoff-server/internal/sse"
	"github.com/takeoffapp/takeoff-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := sqlite.Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	manager := sse.NewManager(logger)
	go manager.Start(ctx)
	t.Cleanup(func() {
		cancel()
		manager.Shutdown(context.Background())
	})
	sseHandler := sse.NewHandler(manager, logger)

	services := &Services{
		Project:  service.NewProjectService(st, logger),
		Plan:     service.NewPlanService(st, logger),
		Device:   service.NewDeviceService(st, logger),
		Location: service.NewLocationService(st, manager, logger),
		Stamp:    service.NewStampService(st, manager, logger),
		Count:    service.NewCountService(st, manager, logger),
		History:  service.NewHistoryService(st, manager, logger),
	}

	s := NewServer(st, services, sseHandler, manager, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// decodeData unmarshals an envelope body and returns its data.
func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success, "expected success envelope: %s", string(body))
	return envelope.Data
}

type projectData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type planData struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	PageNumber int    `json:"page_number"`
}

type deviceData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type locationData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Revision  int64  `json:"revision"`
	UpdatedAt string `json:"updated_at"`
}

type stampData struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	DeviceID   string `json:"device_id"`
	LocationID string `json:"location_id"`
	Revision   int64  `json:"revision"`
	UpdatedAt  string `json:"updated_at"`
}

type countsData struct {
	PlanID string `json:"plan_id"`
	Counts []struct {
		DeviceID   string `json:"device_id"`
		LocationID string `json:"location_id"`
		Total      int64  `json:"total"`
	} `json:"counts"`
	DeviceTotals []struct {
		DeviceID string `json:"device_id"`
		Total    int64  `json:"total"`
	} `json:"device_totals"`
}

// seedTakeoff creates a project, plan, and device through the API.
func (ts *testServer) seedTakeoff(t *testing.T) (project projectData, plan planData, device deviceData) {
	t.Helper()

	resp := ts.api.Post("/api/v1/projects", map[string]any{"name": "Office Tower"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	project = decodeData[projectData](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/projects/"+project.ID+"/plans", map[string]any{
		"name":        "First Floor",
		"page_number": 1,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	plan = decodeData[planData](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/projects/"+project.ID+"/devices", map[string]any{
		"name":   "Duplex Outlet",
		"symbol": "O",
		"color":  "#ff9900",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	device = decodeData[deviceData](t, resp.Body.Bytes())

	return project, plan, device
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	data := decodeData[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", data["status"])
}

func TestCreateProject_Validation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/projects", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestStampFlow_AutoClassifyAndCounts(t *testing.T) {
	ts := setupTestServer(t)
	_, plan, device := ts.seedTakeoff(t)

	resp := ts.api.Post("/api/v1/locations", map[string]any{
		"plan_id": plan.ID,
		"name":    "Kitchen",
		"type":    "rectangle",
		"bounds":  map[string]any{"x": 0, "y": 0, "width": 100, "height": 100},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	room := decodeData[locationData](t, resp.Body.Bytes())

	// A stamp placed inside the region gets assigned to it.
	resp = ts.api.Post("/api/v1/stamps", map[string]any{
		"plan_id":   plan.ID,
		"device_id": device.ID,
		"position":  map[string]any{"x": 50, "y": 50, "scale": 1},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	stamp := decodeData[stampData](t, resp.Body.Bytes())
	assert.Equal(t, room.ID, stamp.LocationID)

	resp = ts.api.Get("/api/v1/plans/" + plan.ID + "/counts")
	require.Equal(t, http.StatusOK, resp.Code)
	counts := decodeData[countsData](t, resp.Body.Bytes())
	require.Len(t, counts.Counts, 1)
	assert.Equal(t, device.ID, counts.Counts[0].DeviceID)
	assert.Equal(t, room.ID, counts.Counts[0].LocationID)
	assert.Equal(t, int64(1), counts.Counts[0].Total)
	require.Len(t, counts.DeviceTotals, 1)
	assert.Equal(t, int64(1), counts.DeviceTotals[0].Total)
}

func TestUpdateLocation_StaleWriteConflict(t *testing.T) {
	ts := setupTestServer(t)
	_, plan, _ := ts.seedTakeoff(t)

	resp := ts.api.Post("/api/v1/locations", map[string]any{
		"plan_id": plan.ID,
		"name":    "Kitchen",
		"type":    "rectangle",
		"bounds":  map[string]any{"x": 0, "y": 0, "width": 100, "height": 100},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	room := decodeData[locationData](t, resp.Body.Bytes())

	// First writer succeeds.
	resp = ts.api.Patch("/api/v1/locations/"+room.ID, map[string]any{
		"expected_updated_at": room.UpdatedAt,
		"name":                "Kitchen North",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Second writer with the original timestamp gets a conflict.
	resp = ts.api.Patch("/api/v1/locations/"+room.ID, map[string]any{
		"expected_updated_at": room.UpdatedAt,
		"name":                "Kitchen South",
	})
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
}

func TestUndoEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	project, plan, device := ts.seedTakeoff(t)

	resp := ts.api.Post("/api/v1/stamps", map[string]any{
		"plan_id":   plan.ID,
		"device_id": device.ID,
		"position":  map[string]any{"x": 10, "y": 10, "scale": 1},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	stamp := decodeData[stampData](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/projects/"+project.ID+"/undo")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decodeData[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, "stamp", result["kind"])
	assert.Equal(t, "create", result["undone"])

	resp = ts.api.Get("/api/v1/stamps/" + stamp.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// Nothing left to undo: a null result, not an error.
	resp = ts.api.Post("/api/v1/projects/"+project.ID+"/undo")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var envelope testEnvelope[any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Nil(t, envelope.Data)
}

func TestRecomputeEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	_, plan, device := ts.seedTakeoff(t)

	// Stamp placed before the region exists starts unassigned.
	resp := ts.api.Post("/api/v1/stamps", map[string]any{
		"plan_id":   plan.ID,
		"device_id": device.ID,
		"position":  map[string]any{"x": 50, "y": 50, "scale": 1},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	stamp := decodeData[stampData](t, resp.Body.Bytes())
	assert.Empty(t, stamp.LocationID)

	resp = ts.api.Post("/api/v1/locations", map[string]any{
		"plan_id": plan.ID,
		"name":    "Kitchen",
		"type":    "rectangle",
		"bounds":  map[string]any{"x": 0, "y": 0, "width": 100, "height": 100},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/plans/"+plan.ID+"/counts/recompute")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decodeData[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, float64(2), result["changed"])
}

func TestGetCount_QueryBucket(t *testing.T) {
	ts := setupTestServer(t)
	_, plan, device := ts.seedTakeoff(t)

	resp := ts.api.Post("/api/v1/stamps", map[string]any{
		"plan_id":   plan.ID,
		"device_id": device.ID,
		"position":  map[string]any{"x": 5, "y": 5, "scale": 1},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// No locations exist, so the stamp lands in the no-location bucket.
	resp = ts.api.Get("/api/v1/plans/" + plan.ID + "/counts/" + device.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	count := decodeData[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, float64(1), count["total"])
}

func TestErrorEnvelope(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/projects/no-such-project")
	require.Equal(t, http.StatusNotFound, resp.Code)

	var envelope testEnvelope[any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Error)
}
