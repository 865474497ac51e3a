package roles

import (
	"context"

	"github.com/dkuaegis/aegis-study-client/internal/models"
)

// roleSource yields the session user's role sets, usually the cached role
// query module.
type roleSource interface {
	Get(ctx context.Context) (*models.StudyRoles, error)
}

// Resolver answers role lookups against one snapshot of the session user's
// role sets. Every lookup fails safe to guest/false while the snapshot is
// absent; nothing here ever errors.
type Resolver struct {
	roles  *models.StudyRoles
	loaded bool
}

// NewResolver wraps a snapshot. A nil snapshot yields an unloaded resolver.
func NewResolver(roles *models.StudyRoles) *Resolver {
	return &Resolver{roles: roles, loaded: roles != nil}
}

// Loaded reports whether role data is available. Status inference for
// first-come-first-served studies must wait for this to avoid a transient
// false negative.
func (r *Resolver) Loaded() bool {
	return r != nil && r.loaded
}

// RoleOf classifies the user's relationship to the study. Instructor wins
// over participant over applicant should stale caches briefly overlap.
func (r *Resolver) RoleOf(studyID int64) models.StudyRole {
	switch {
	case r.IsInstructor(studyID):
		return models.StudyRoleInstructor
	case r.IsParticipant(studyID):
		return models.StudyRoleParticipant
	case r.IsApplicant(studyID):
		return models.StudyRoleApplicant
	default:
		return models.StudyRoleGuest
	}
}

// IsInstructor reports whether the user owns the study.
func (r *Resolver) IsInstructor(studyID int64) bool {
	return r.Loaded() && contains(r.roles.InstructorStudyIDs, studyID)
}

// IsParticipant reports whether the user is an approved member.
func (r *Resolver) IsParticipant(studyID int64) bool {
	return r.Loaded() && contains(r.roles.ParticipantStudyIDs, studyID)
}

// IsApplicant reports whether the user has a pending application.
func (r *Resolver) IsApplicant(studyID int64) bool {
	return r.Loaded() && contains(r.roles.AppliedStudyIDs, studyID)
}

// HasApplied reports whether the user applied or already participates.
func (r *Resolver) HasApplied(studyID int64) bool {
	return r.IsApplicant(studyID) || r.IsParticipant(studyID)
}

// Snapshot returns the underlying role sets, nil while unloaded.
func (r *Resolver) Snapshot() *models.StudyRoles {
	if !r.Loaded() {
		return nil
	}
	return r.roles
}

// CanManageStudy gates the instructor-only surfaces.
func (r *Resolver) CanManageStudy(studyID int64) bool {
	return r.IsInstructor(studyID)
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Service resolves role snapshots on demand. Lookup errors collapse into an
// unloaded resolver so dependents degrade to guest instead of failing.
type Service struct {
	source roleSource
}

// NewService constructs a role resolution service.
func NewService(source roleSource) *Service {
	return &Service{source: source}
}

// Current returns a resolver over the latest cached role sets.
func (s *Service) Current(ctx context.Context) *Resolver {
	roles, err := s.source.Get(ctx)
	if err != nil {
		return NewResolver(nil)
	}
	return NewResolver(roles)
}
