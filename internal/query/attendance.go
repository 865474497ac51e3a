package query

import (
	"context"
	"fmt"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/models"
)

// Attendance resolves a study's attendance records for the instructor view.
type Attendance struct {
	client   api
	cache    *cache.Queries
	policies Policies
}

// NewAttendance constructs the attendance query module.
func NewAttendance(client api, queries *cache.Queries, policies Policies) *Attendance {
	return &Attendance{client: client, cache: queries, policies: policies}
}

// Records returns per-session check-ins for the study.
func (a *Attendance) Records(ctx context.Context, studyID int64) ([]models.AttendanceRecord, error) {
	if err := validID(studyID); err != nil {
		return nil, err
	}
	var records []models.AttendanceRecord
	err := a.cache.Resolve(ctx, cache.Key("studies", studyID, "attendance"), a.policies.Detail, &records, func(ctx context.Context) (interface{}, error) {
		var out []models.AttendanceRecord
		if err := a.client.Get(ctx, fmt.Sprintf("studies/%d/attendance", studyID), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return records, err
}
