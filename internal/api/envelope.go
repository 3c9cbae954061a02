package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion identifies the response envelope format. Clients
// check this before parsing.
const envelopeVersion = 1

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the shared
// envelope. Error bodies keep their code/details; success bodies move
// under "data".
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if v == nil {
		return v, nil
	}

	if apiErr, ok := v.(*APIError); ok {
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if status >= "400" {
		return v, nil
	}

	return &Envelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
