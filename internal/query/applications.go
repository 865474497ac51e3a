package query

import (
	"context"
	"fmt"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/models"
)

// Applications resolves application views: the instructor's review list and
// the session user's own application text.
type Applications struct {
	client   api
	cache    *cache.Queries
	policies Policies
}

// NewApplications constructs the application query module.
func NewApplications(client api, queries *cache.Queries, policies Policies) *Applications {
	return &Applications{client: client, cache: queries, policies: policies}
}

// ListForInstructor returns every application to the study, for review.
func (a *Applications) ListForInstructor(ctx context.Context, studyID int64) ([]models.Application, error) {
	if err := validID(studyID); err != nil {
		return nil, err
	}
	var apps []models.Application
	err := a.cache.Resolve(ctx, cache.Key("studies", studyID, "applications"), a.policies.List, &apps, func(ctx context.Context) (interface{}, error) {
		var out []models.Application
		if err := a.client.Get(ctx, fmt.Sprintf("studies/%d/applications-instructor", studyID), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return apps, err
}

// Own returns the session user's application to the study. The application
// text changes rarely, so it carries the longest staleness window.
func (a *Applications) Own(ctx context.Context, studyID int64) (*models.Application, error) {
	if err := validID(studyID); err != nil {
		return nil, err
	}
	var app models.Application
	err := a.cache.Resolve(ctx, cache.Key("studies", studyID, "user-application"), a.policies.Application, &app, func(ctx context.Context) (interface{}, error) {
		var out models.Application
		if err := a.client.Get(ctx, fmt.Sprintf("studies/%d/user-application", studyID), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}
