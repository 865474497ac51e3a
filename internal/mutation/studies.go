package mutation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/models"
	apperrors "github.com/dkuaegis/aegis-study-client/pkg/errors"
)

// StudyPayload is the create/edit request body. List fields must arrive
// already filtered of blank items; the form container owns that projection.
type StudyPayload struct {
	Title             string                   `json:"title" validate:"required"`
	Category          string                   `json:"category" validate:"required"`
	Level             string                   `json:"level" validate:"required"`
	Introduction      string                   `json:"introduction" validate:"required"`
	Schedule          string                   `json:"schedule"`
	RecruitmentMethod models.RecruitmentMethod `json:"recruitmentMethod" validate:"required,oneof=FCFS APPLICATION"`
	MaxParticipants   int                      `json:"maxParticipants" validate:"min=0,max=50"`
	Curricula         []string                 `json:"curricula" validate:"min=1,dive,required"`
	Qualifications    []string                 `json:"qualifications" validate:"min=1,dive,required"`
}

type createStudyResponse struct {
	ID int64 `json:"studyId"`
}

// Studies performs the instructor's create and edit writes.
type Studies struct {
	client   api
	cache    *cache.Queries
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStudies constructs the study mutation module.
func NewStudies(client api, queries *cache.Queries, validate *validator.Validate, logger *zap.Logger) *Studies {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Studies{client: client, cache: queries, validate: validate, logger: logger}
}

var studyMessages = map[int]string{
	http.StatusBadRequest: "the study could not be saved, check your input",
	http.StatusForbidden:  "only the study's instructor can edit it",
	http.StatusNotFound:   "study not found",
}

// Create registers a new study and returns its id.
func (m *Studies) Create(ctx context.Context, payload StudyPayload) (int64, error) {
	if err := m.validate.Struct(payload); err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid study payload")
	}
	var resp createStudyResponse
	if err := m.client.Post(ctx, "studies", payload, &resp); err != nil {
		return 0, mapError(err, studyMessages)
	}
	fanOut := []string{cache.Key("studies", "list"), cache.Key("roles")}
	if err := m.cache.Invalidate(ctx, fanOut...); err != nil {
		m.logger.Warn("create invalidation incomplete", zap.Error(err))
	}
	return resp.ID, nil
}

// Update rewrites an existing study.
func (m *Studies) Update(ctx context.Context, studyID int64, payload StudyPayload) error {
	if err := validID(studyID); err != nil {
		return err
	}
	if err := m.validate.Struct(payload); err != nil {
		return apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid study payload")
	}
	if err := m.client.Put(ctx, fmt.Sprintf("studies/%d", studyID), payload, nil); err != nil {
		return mapError(err, studyMessages)
	}
	fanOut := []string{
		cache.Key("studies", studyID, "detail"),
		cache.Key("studies", "list"),
	}
	if err := m.cache.Invalidate(ctx, fanOut...); err != nil {
		m.logger.Warn("update invalidation incomplete", zap.Int64("study_id", studyID), zap.Error(err))
	}
	return nil
}
