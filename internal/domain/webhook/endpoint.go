package webhook

import (
	"strings"

	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// Endpoint is the store-backed subscription-endpoint entity spec.md §9
// mandates in place of an in-process registry.
type Endpoint struct {
	ID     string
	URL    string
	Events []string // may contain "*", exact event types, or "{category}.*"
	Active bool

	types.BaseModel
}

func (e *Endpoint) Validate() error {
	if e.URL == "" {
		return ierr.NewError("webhook endpoint validation failed").
			WithHint("url is required").Mark(ierr.ErrValidation)
	}
	return nil
}

// Matches reports whether eventType should be delivered to this endpoint:
// "*" subscribes to everything; an exact event type match; or a
// "{category}.*" wildcard match (spec.md §4.8).
func (e *Endpoint) Matches(eventType types.EventType) bool {
	if !e.Active {
		return false
	}
	category := eventType.Category()
	for _, subscribed := range e.Events {
		if subscribed == "*" || subscribed == string(eventType) || subscribed == category {
			return true
		}
		if strings.HasSuffix(subscribed, ".*") && strings.HasPrefix(string(eventType), strings.TrimSuffix(subscribed, "*")) {
			return true
		}
	}
	return false
}
