package appstate

import (
	"context"

	"github.com/dkuaegis/aegis-study-client/internal/models"
	"github.com/dkuaegis/aegis-study-client/internal/roles"
)

// StatusResolver derives the user's enrollment status for one study. Call
// sites depend on this interface only; the data path underneath differs by
// recruitment method.
type StatusResolver interface {
	Resolve(ctx context.Context, studyID int64) (models.EnrollmentStatus, error)
}

// statusSource is the per-study status endpoint query.
type statusSource interface {
	Status(ctx context.Context, studyID int64) (models.EnrollmentStatus, error)
}

// rolesSource is the session role-set query.
type rolesSource interface {
	Get(ctx context.Context) (*models.StudyRoles, error)
}

// endpointResolver serves review-based studies from the dedicated status
// endpoint. Unknown status strings already read as "no application" at the
// query layer.
type endpointResolver struct {
	source statusSource
}

func (r endpointResolver) Resolve(ctx context.Context, studyID int64) (models.EnrollmentStatus, error) {
	return r.source.Status(ctx, studyID)
}

// roleInferredResolver serves first-come-first-served studies without any
// status round trip: membership in the applied or participant sets means
// approved. Role data must have loaded first, otherwise a transient false
// negative would leak out; a failed role fetch is an error, not a guest.
type roleInferredResolver struct {
	source rolesSource
}

func (r roleInferredResolver) Resolve(ctx context.Context, studyID int64) (models.EnrollmentStatus, error) {
	studyRoles, err := r.source.Get(ctx)
	if err != nil {
		return "", err
	}
	if roles.NewResolver(studyRoles).HasApplied(studyID) {
		return models.ApplicationStatusApproved, nil
	}
	return "", nil
}

// ResolverFor selects the derivation strategy for a recruitment method.
func ResolverFor(method models.RecruitmentMethod, status statusSource, rolesSrc rolesSource) StatusResolver {
	if method == models.RecruitmentFCFS {
		return roleInferredResolver{source: rolesSrc}
	}
	return endpointResolver{source: status}
}
