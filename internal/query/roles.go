package query

import (
	"context"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/models"
)

// Roles resolves the session user's study role sets. The result is a
// singleton per session and is refreshed whenever a mutation changes
// membership state.
type Roles struct {
	client   api
	cache    *cache.Queries
	policies Policies
}

// NewRoles constructs the role query module.
func NewRoles(client api, queries *cache.Queries, policies Policies) *Roles {
	return &Roles{client: client, cache: queries, policies: policies}
}

// Get returns the three role-id sets for the current session.
func (r *Roles) Get(ctx context.Context) (*models.StudyRoles, error) {
	var roles models.StudyRoles
	err := r.cache.Resolve(ctx, cache.Key("roles"), r.policies.Roles, &roles, func(ctx context.Context) (interface{}, error) {
		var out models.StudyRoles
		if err := r.client.Get(ctx, "studies/roles", &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &roles, nil
}
