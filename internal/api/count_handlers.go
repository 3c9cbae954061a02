package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takeoffapp/takeoff-server/internal/domain"
)

func (s *Server) registerCountRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPlanCounts",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans/{id}/counts",
		Summary:     "Get plan counts",
		Description: "Returns a plan's per-device/per-location counts plus device totals",
		Tags:        []string{"Counts"},
	}, s.handleGetPlanCounts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCount",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans/{id}/counts/{deviceID}",
		Summary:     "Get single count",
		Description: "Returns one count bucket; uncached buckets read as zero",
		Tags:        []string{"Counts"},
	}, s.handleGetCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "recomputeCounts",
		Method:      http.MethodPost,
		Path:        "/api/v1/plans/{id}/counts/recompute",
		Summary:     "Recompute counts",
		Description: "Reconciles the count cache from live stamps, re-classifying unassigned ones",
		Tags:        []string{"Counts"},
	}, s.handleRecomputeCounts)
}

// === DTOs ===

// GetPlanCountsInput contains parameters for reading a plan's counts.
type GetPlanCountsInput struct {
	PlanID string `path:"id" doc:"Plan ID"`
}

// PlanCountsOutput wraps the plan counts response for Huma.
type PlanCountsOutput struct {
	Body *domain.PlanCounts
}

// GetCountInput contains parameters for reading one count bucket.
type GetCountInput struct {
	PlanID     string `path:"id" doc:"Plan ID"`
	DeviceID   string `path:"deviceID" doc:"Device ID"`
	LocationID string `query:"locationId" doc:"Location bucket; empty for the no-location bucket"`
}

// CountResponse contains one count bucket.
type CountResponse struct {
	PlanID     string `json:"plan_id" doc:"Plan ID"`
	DeviceID   string `json:"device_id" doc:"Device ID"`
	LocationID string `json:"location_id" doc:"Location bucket, empty for unassigned"`
	Total      int64  `json:"total" doc:"Stamp count"`
}

// CountOutput wraps a single count for Huma.
type CountOutput struct {
	Body CountResponse
}

// RecomputeCountsInput contains parameters for reconciling a plan.
type RecomputeCountsInput struct {
	PlanID string `path:"id" doc:"Plan ID"`
}

// RecomputeCountsResponse reports how many count rows changed.
type RecomputeCountsResponse struct {
	Changed int64 `json:"changed" doc:"Number of count rows corrected"`
}

// RecomputeCountsOutput wraps the recompute response for Huma.
type RecomputeCountsOutput struct {
	Body RecomputeCountsResponse
}

// === Handlers ===

func (s *Server) handleGetPlanCounts(ctx context.Context, input *GetPlanCountsInput) (*PlanCountsOutput, error) {
	counts, err := s.services.Count.GetCountsForPlan(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}
	return &PlanCountsOutput{Body: counts}, nil
}

func (s *Server) handleGetCount(ctx context.Context, input *GetCountInput) (*CountOutput, error) {
	total, err := s.services.Count.GetCount(ctx, input.PlanID, input.DeviceID, input.LocationID)
	if err != nil {
		return nil, err
	}
	return &CountOutput{
		Body: CountResponse{
			PlanID:     input.PlanID,
			DeviceID:   input.DeviceID,
			LocationID: input.LocationID,
			Total:      total,
		},
	}, nil
}

func (s *Server) handleRecomputeCounts(ctx context.Context, input *RecomputeCountsInput) (*RecomputeCountsOutput, error) {
	changed, err := s.services.Count.Recompute(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}
	return &RecomputeCountsOutput{Body: RecomputeCountsResponse{Changed: changed}}, nil
}
