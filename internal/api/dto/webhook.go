package dto

import (
	"github.com/sugu-inc/modern-billing/internal/domain/webhook"
)

// RegisterEndpointRequest is the input to POST /webhooks/endpoints.
type RegisterEndpointRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Events []string `json:"events" validate:"required,min=1"`
}

// EndpointResponse wraps the domain aggregate for JSON responses.
type EndpointResponse struct {
	*webhook.Endpoint
}

func NewEndpointResponse(e *webhook.Endpoint) *EndpointResponse {
	return &EndpointResponse{Endpoint: e}
}
