package mutation

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
)

// Review performs the instructor's application review writes.
type Review struct {
	client api
	cache  *cache.Queries
	logger *zap.Logger
}

// NewReview constructs the review mutation module.
func NewReview(client api, queries *cache.Queries, logger *zap.Logger) *Review {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Review{client: client, cache: queries, logger: logger}
}

var reviewMessages = map[int]string{
	http.StatusBadRequest: "the application could not be processed",
	http.StatusForbidden:  "only the study's instructor can review applications",
	http.StatusNotFound:   "application not found",
	http.StatusConflict:   "the application was already reviewed",
}

// Approve accepts an application. The study's application list, detail,
// member view, the list view and the applicant's role sets all change, so a
// decision fans out over the same membership views an enrollment write does.
func (m *Review) Approve(ctx context.Context, studyID, applicationID int64) error {
	return m.decide(ctx, studyID, applicationID, "approve")
}

// Reject declines an application.
func (m *Review) Reject(ctx context.Context, studyID, applicationID int64) error {
	return m.decide(ctx, studyID, applicationID, "reject")
}

func (m *Review) decide(ctx context.Context, studyID, applicationID int64, verb string) error {
	if err := validID(studyID); err != nil {
		return err
	}
	if err := validID(applicationID); err != nil {
		return err
	}
	path := fmt.Sprintf("studies/%d/applications/%d/%s", studyID, applicationID, verb)
	if err := m.client.Patch(ctx, path, nil, nil); err != nil {
		return mapError(err, reviewMessages)
	}
	if err := m.cache.Invalidate(ctx, membershipFanOut(studyID)...); err != nil {
		m.logger.Warn("review invalidation incomplete",
			zap.Int64("study_id", studyID),
			zap.Int64("application_id", applicationID),
			zap.Error(err))
	}
	return nil
}
