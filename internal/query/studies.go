package query

import (
	"context"
	"fmt"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/models"
)

// Studies resolves the study list and per-study detail views.
type Studies struct {
	client   api
	cache    *cache.Queries
	policies Policies
}

// NewStudies constructs the study query module.
func NewStudies(client api, queries *cache.Queries, policies Policies) *Studies {
	return &Studies{client: client, cache: queries, policies: policies}
}

// List returns all studies.
func (s *Studies) List(ctx context.Context) ([]models.StudySummary, error) {
	var list []models.StudySummary
	err := s.cache.Resolve(ctx, cache.Key("studies", "list"), s.policies.List, &list, func(ctx context.Context) (interface{}, error) {
		var out []models.StudySummary
		if err := s.client.Get(ctx, "studies", &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return list, err
}

// Detail returns one study.
func (s *Studies) Detail(ctx context.Context, studyID int64) (*models.Study, error) {
	if err := validID(studyID); err != nil {
		return nil, err
	}
	var study models.Study
	err := s.cache.Resolve(ctx, cache.Key("studies", studyID, "detail"), s.policies.Detail, &study, func(ctx context.Context) (interface{}, error) {
		var out models.Study
		if err := s.client.Get(ctx, fmt.Sprintf("studies/%d", studyID), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &study, nil
}

// Members returns the approved participants of one study.
func (s *Studies) Members(ctx context.Context, studyID int64) ([]models.Member, error) {
	if err := validID(studyID); err != nil {
		return nil, err
	}
	var members []models.Member
	err := s.cache.Resolve(ctx, cache.Key("studies", studyID, "members"), s.policies.Detail, &members, func(ctx context.Context) (interface{}, error) {
		var out []models.Member
		if err := s.client.Get(ctx, fmt.Sprintf("studies/%d/members", studyID), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return members, err
}
