package query

import (
	"context"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/pkg/config"
	apperrors "github.com/dkuaegis/aegis-study-client/pkg/errors"
)

// api is the slice of the transport client the query modules consume.
type api interface {
	Get(ctx context.Context, path string, dest interface{}) error
}

// Policies carries per-resource freshness windows. List and detail views
// tolerate short staleness; application text is rarely edited; status and
// role lookups sit in between.
type Policies struct {
	List        cache.Policy
	Detail      cache.Policy
	Application cache.Policy
	Status      cache.Policy
	Roles       cache.Policy
}

// PoliciesFrom maps configuration onto cache policies.
func PoliciesFrom(cfg config.CacheConfig) Policies {
	return Policies{
		List:        cache.Policy{StaleTime: cfg.ListStale, EvictAfter: cfg.EvictAfter},
		Detail:      cache.Policy{StaleTime: cfg.DetailStale, EvictAfter: cfg.EvictAfter},
		Application: cache.Policy{StaleTime: cfg.ApplicationStale, EvictAfter: cfg.EvictAfter},
		Status:      cache.Policy{StaleTime: cfg.StatusStale, EvictAfter: cfg.EvictAfter},
		Roles:       cache.Policy{StaleTime: cfg.StatusStale, EvictAfter: cfg.EvictAfter},
	}
}

// validID gates query execution: non-positive ids disable the query instead
// of issuing a request.
func validID(id int64) error {
	if id <= 0 {
		return apperrors.ErrInvalidID
	}
	return nil
}
