package query

import (
	"context"
	"fmt"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/models"
)

// statusPayload is the wire shape of the per-study status endpoint.
type statusPayload struct {
	Status string `json:"status"`
}

// Enrollment resolves the session user's standing toward one study from the
// dedicated status endpoint. Review-based studies use this module; FCFS
// studies derive status from role sets instead and never call it.
type Enrollment struct {
	client   api
	cache    *cache.Queries
	policies Policies
}

// NewEnrollment constructs the enrollment status query module.
func NewEnrollment(client api, queries *cache.Queries, policies Policies) *Enrollment {
	return &Enrollment{client: client, cache: queries, policies: policies}
}

// Status returns the user's enrollment status for the study. Raw values are
// case-normalised; anything outside the known enum reads as no application.
func (e *Enrollment) Status(ctx context.Context, studyID int64) (models.EnrollmentStatus, error) {
	if err := validID(studyID); err != nil {
		return "", err
	}
	var payload statusPayload
	err := e.cache.Resolve(ctx, cache.Key("studies", studyID, "status"), e.policies.Status, &payload, func(ctx context.Context) (interface{}, error) {
		var out statusPayload
		if err := e.client.Get(ctx, fmt.Sprintf("studies/%d/status", studyID), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return models.ParseApplicationStatus(payload.Status), nil
}
