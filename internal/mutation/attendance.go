package mutation

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/models"
)

// Attendance performs attendance-code issuance and redemption.
type Attendance struct {
	client api
	cache  *cache.Queries
	logger *zap.Logger
}

// NewAttendance constructs the attendance mutation module.
func NewAttendance(client api, queries *cache.Queries, logger *zap.Logger) *Attendance {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Attendance{client: client, cache: queries, logger: logger}
}

type submitAttendanceRequest struct {
	Code string `json:"code"`
}

var issueMessages = map[int]string{
	http.StatusForbidden: "only the study's instructor can issue a code",
	http.StatusNotFound:  "study not found",
}

var submitMessages = map[int]string{
	http.StatusBadRequest: "that code is not valid",
	http.StatusNotFound:   "no attendance session is open",
	http.StatusConflict:   "attendance already recorded for this session",
	http.StatusGone:       "the code has expired",
}

// IssueCode opens an attendance session and returns its time-boxed code.
func (m *Attendance) IssueCode(ctx context.Context, studyID int64) (*models.AttendanceCode, error) {
	if err := validID(studyID); err != nil {
		return nil, err
	}
	var code models.AttendanceCode
	if err := m.client.Post(ctx, fmt.Sprintf("studies/%d/attendance-code", studyID), nil, &code); err != nil {
		return nil, mapError(err, issueMessages)
	}
	if err := m.cache.Invalidate(ctx, cache.Key("studies", studyID, "attendance")); err != nil {
		m.logger.Warn("attendance invalidation incomplete", zap.Int64("study_id", studyID), zap.Error(err))
	}
	return &code, nil
}

// Submit redeems a code for the current participant. Each participant can
// redeem once per session.
func (m *Attendance) Submit(ctx context.Context, studyID int64, code string) error {
	if err := validID(studyID); err != nil {
		return err
	}
	if err := m.client.Post(ctx, fmt.Sprintf("studies/%d/attendance", studyID), submitAttendanceRequest{Code: code}, nil); err != nil {
		return mapError(err, submitMessages)
	}
	if err := m.cache.Invalidate(ctx, cache.Key("studies", studyID, "attendance")); err != nil {
		m.logger.Warn("attendance invalidation incomplete", zap.Int64("study_id", studyID), zap.Error(err))
	}
	return nil
}
