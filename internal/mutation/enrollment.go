package mutation

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/models"
)

// Enrollment performs the applicant's self-service writes: apply, withdraw,
// and edit a pending application. Each write invalidates its fixed fan-out
// set; cached views are refetched rather than patched in place.
type Enrollment struct {
	client api
	cache  *cache.Queries
	logger *zap.Logger
}

// NewEnrollment constructs the enrollment mutation module.
func NewEnrollment(client api, queries *cache.Queries, logger *zap.Logger) *Enrollment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enrollment{client: client, cache: queries, logger: logger}
}

type applyRequest struct {
	Reason string `json:"applicationReason,omitempty"`
}

type applyResponse struct {
	Status string `json:"status"`
}

type updateApplicationRequest struct {
	Reason string `json:"applicationReason"`
}

var applyMessages = map[int]string{
	http.StatusBadRequest: "the application could not be submitted, check your input",
	http.StatusNotFound:   "study not found",
	http.StatusConflict:   "you have already applied to this study",
}

var cancelMessages = map[int]string{
	http.StatusBadRequest: "the enrollment could not be cancelled",
	http.StatusNotFound:   "no enrollment found for this study",
}

var updateMessages = map[int]string{
	http.StatusBadRequest: "the application could not be updated, check your input",
	http.StatusNotFound:   "no pending application found",
	http.StatusConflict:   "the application is no longer editable",
}

// membershipFanOut is the invalidation set for any write that changes
// enrollment state: the study's detail, status, application and member views,
// the study list, and the session role sets must converge together.
func membershipFanOut(studyID int64) []string {
	return []string{
		cache.Pattern("studies", studyID),
		cache.Key("studies", "list"),
		cache.Key("roles"),
	}
}

// Apply submits an enrollment for the study. Review-based studies carry the
// applicant's reason text; first-come-first-served studies apply with an
// empty body and are approved on the spot.
func (m *Enrollment) Apply(ctx context.Context, studyID int64, reason string) (models.EnrollmentStatus, error) {
	if err := validID(studyID); err != nil {
		return "", err
	}
	var resp applyResponse
	if err := m.client.Post(ctx, fmt.Sprintf("studies/%d/enrollment", studyID), applyRequest{Reason: reason}, &resp); err != nil {
		return "", mapError(err, applyMessages)
	}
	if err := m.cache.Invalidate(ctx, membershipFanOut(studyID)...); err != nil {
		m.logger.Warn("apply invalidation incomplete", zap.Int64("study_id", studyID), zap.Error(err))
	}
	return models.ParseApplicationStatus(resp.Status), nil
}

// Cancel withdraws the user's enrollment or pending application.
func (m *Enrollment) Cancel(ctx context.Context, studyID int64) error {
	if err := validID(studyID); err != nil {
		return err
	}
	if err := m.client.Delete(ctx, fmt.Sprintf("studies/%d/enrollment", studyID)); err != nil {
		return mapError(err, cancelMessages)
	}
	if err := m.cache.Invalidate(ctx, membershipFanOut(studyID)...); err != nil {
		m.logger.Warn("cancel invalidation incomplete", zap.Int64("study_id", studyID), zap.Error(err))
	}
	return nil
}

// UpdateApplication rewrites the reason text of a pending application. Only
// the user's own application view needs refreshing.
func (m *Enrollment) UpdateApplication(ctx context.Context, studyID int64, reason string) error {
	if err := validID(studyID); err != nil {
		return err
	}
	if err := m.client.Put(ctx, fmt.Sprintf("studies/%d/user-application", studyID), updateApplicationRequest{Reason: reason}, nil); err != nil {
		return mapError(err, updateMessages)
	}
	if err := m.cache.Invalidate(ctx, cache.Key("studies", studyID, "user-application")); err != nil {
		m.logger.Warn("application invalidation incomplete", zap.Int64("study_id", studyID), zap.Error(err))
	}
	return nil
}
