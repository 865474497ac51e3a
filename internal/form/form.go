package form

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dkuaegis/aegis-study-client/internal/models"
	"github.com/dkuaegis/aegis-study-client/internal/mutation"
)

// CapacityMode selects between a bounded and an unlimited participant cap.
type CapacityMode string

const (
	CapacityLimited   CapacityMode = "LIMITED"
	CapacityUnlimited CapacityMode = "UNLIMITED"
)

// Phase is the submission gate. Validation moves the form from Editing to
// AwaitingConfirmation; only an explicit Confirm produces a payload.
type Phase string

const (
	PhaseEditing              Phase = "EDITING"
	PhaseAwaitingConfirmation Phase = "AWAITING_CONFIRMATION"
	PhaseSubmitting           Phase = "SUBMITTING"
)

// FieldError points an inline validation message at one field.
type FieldError struct {
	Field   string
	Message string
}

// scalarValues is the projection the validator runs over.
type scalarValues struct {
	Title        string `validate:"required"`
	Category     string `validate:"required"`
	Level        string `validate:"required"`
	Introduction string `validate:"required"`
}

// StudyForm manages the create/edit study form: fixed scalar fields plus the
// two dynamic list sections. Payload construction and the at-least-one-item
// checks run over the blank-filtered projections.
type StudyForm struct {
	Title             string
	Category          string
	Level             string
	Introduction      string
	Schedule          string
	RecruitmentMethod models.RecruitmentMethod
	Capacity          CapacityMode
	MaxParticipants   int
	Curriculum        *ListField
	Requirements      *ListField

	phase    Phase
	validate *validator.Validate
}

// New returns an empty form in the editing phase.
func New() *StudyForm {
	return &StudyForm{
		RecruitmentMethod: models.RecruitmentFCFS,
		Capacity:          CapacityUnlimited,
		Curriculum:        NewListField(),
		Requirements:      NewListField(),
		phase:             PhaseEditing,
		validate:          validator.New(),
	}
}

// FromStudy pre-fills the form for editing an existing study.
func FromStudy(study *models.Study) *StudyForm {
	f := New()
	f.Title = study.Title
	f.Category = study.Category
	f.Level = study.Level
	f.Introduction = study.Introduction
	f.Schedule = study.Schedule
	f.RecruitmentMethod = study.RecruitmentMethod
	if study.MaxParticipants > 0 {
		f.Capacity = CapacityLimited
		f.MaxParticipants = study.MaxParticipants
	}
	f.Curriculum = NewListField(study.Curricula...)
	f.Requirements = NewListField(study.Qualifications...)
	return f
}

// Phase returns the submission gate state.
func (f *StudyForm) Phase() Phase {
	return f.phase
}

// Validate checks the whole form and returns inline errors without touching
// the phase. Scalar requirements run through the validator; the dynamic
// lists and the conditional capacity bound are checked over their filtered
// projections.
func (f *StudyForm) Validate() []FieldError {
	var errs []FieldError

	scalars := scalarValues{
		Title:        f.Title,
		Category:     f.Category,
		Level:        f.Level,
		Introduction: f.Introduction,
	}
	if err := f.validate.Struct(scalars); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			for _, fe := range invalid {
				errs = append(errs, FieldError{Field: fe.Field(), Message: fmt.Sprintf("%s is required", fe.Field())})
			}
		} else {
			errs = append(errs, FieldError{Field: "form", Message: "validation failed"})
		}
	}

	if f.RecruitmentMethod != models.RecruitmentFCFS && f.RecruitmentMethod != models.RecruitmentApplication {
		errs = append(errs, FieldError{Field: "RecruitmentMethod", Message: "choose a recruitment method"})
	}

	if f.Capacity == CapacityLimited && (f.MaxParticipants < 1 || f.MaxParticipants > 50) {
		errs = append(errs, FieldError{Field: "MaxParticipants", Message: "participant limit must be between 1 and 50"})
	}

	if len(f.Curriculum.Filtered()) == 0 {
		errs = append(errs, FieldError{Field: "Curriculum", Message: "add at least one curriculum entry"})
	}
	if len(f.Requirements.Filtered()) == 0 {
		errs = append(errs, FieldError{Field: "Requirements", Message: "add at least one requirement"})
	}

	return errs
}

// RequestConfirmation validates and, when clean, pauses the form for the
// explicit go-ahead. Errors keep the form in the editing phase.
func (f *StudyForm) RequestConfirmation() []FieldError {
	errs := f.Validate()
	if len(errs) > 0 {
		f.phase = PhaseEditing
		return errs
	}
	f.phase = PhaseAwaitingConfirmation
	return nil
}

// CancelConfirmation returns to editing without submitting.
func (f *StudyForm) CancelConfirmation() {
	if f.phase == PhaseAwaitingConfirmation {
		f.phase = PhaseEditing
	}
}

// Confirm consumes the pending confirmation and builds the submission
// payload from the filtered projections. Calling it in any other phase is an
// error so the mutation can never fire without the confirmation step.
func (f *StudyForm) Confirm() (*mutation.StudyPayload, error) {
	if f.phase != PhaseAwaitingConfirmation {
		return nil, fmt.Errorf("form is not awaiting confirmation")
	}
	f.phase = PhaseSubmitting

	maxParticipants := 0
	if f.Capacity == CapacityLimited {
		maxParticipants = f.MaxParticipants
	}
	return &mutation.StudyPayload{
		Title:             f.Title,
		Category:          f.Category,
		Level:             f.Level,
		Introduction:      f.Introduction,
		Schedule:          f.Schedule,
		RecruitmentMethod: f.RecruitmentMethod,
		MaxParticipants:   maxParticipants,
		Curricula:         f.Curriculum.Filtered(),
		Qualifications:    f.Requirements.Filtered(),
	}, nil
}

// Reset returns a submitted or confirming form to the editing phase.
func (f *StudyForm) Reset() {
	f.phase = PhaseEditing
}
