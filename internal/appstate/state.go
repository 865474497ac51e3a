package appstate

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dkuaegis/aegis-study-client/internal/models"
	apperrors "github.com/dkuaegis/aegis-study-client/pkg/errors"
)

// Notifier surfaces non-blocking user-facing messages. The CLI logs them; a
// UI would toast them.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// enrollmentWriter is the slice of the enrollment mutation module the state
// machine consumes.
type enrollmentWriter interface {
	Apply(ctx context.Context, studyID int64, reason string) (models.EnrollmentStatus, error)
	Cancel(ctx context.Context, studyID int64) error
	UpdateApplication(ctx context.Context, studyID int64, reason string) error
}

// applicationReader lazily loads the user's existing application text.
type applicationReader interface {
	Own(ctx context.Context, studyID int64) (*models.Application, error)
}

// State tracks one user's application to one study and drives its lifecycle:
// none -> PENDING -> APPROVED or REJECTED, with REJECTED clearable back to
// none through a client-local re-apply and APPROVED clearable through cancel.
//
// Each action carries its own in-flight guard; re-entrant calls while a prior
// one is running are dropped. Distinct action types are not mutually
// exclusive: a cancel fired while an apply is still in flight can race. The
// source behavior leaves that precedence undefined, so it is preserved here
// rather than papered over.
type State struct {
	studyID  int64
	method   models.RecruitmentMethod
	resolver StatusResolver
	writer   enrollmentWriter
	reader   applicationReader
	notifier Notifier
	logger   *zap.Logger

	mu         sync.Mutex
	current    models.EnrollmentStatus
	reason     string
	editing    bool
	editText   string
	editLoaded bool
	applying   bool
	cancelling bool
	updating   bool
	reapplied  bool
}

// New constructs the state machine for one (user, study) pair.
func New(studyID int64, method models.RecruitmentMethod, resolver StatusResolver, writer enrollmentWriter, reader applicationReader, notifier Notifier, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		studyID:  studyID,
		method:   method,
		resolver: resolver,
		writer:   writer,
		reader:   reader,
		notifier: notifier,
		logger:   logger,
	}
}

// Refresh re-derives the status from the method's resolver. A resolver error
// leaves the current status untouched. The local re-apply override survives
// as long as the server still reports the rejection.
func (s *State) Refresh(ctx context.Context) error {
	status, err := s.resolver.Resolve(ctx, s.studyID)
	if err != nil {
		s.logger.Warn("status refresh failed", zap.Int64("study_id", s.studyID), zap.Error(err))
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if status != models.ApplicationStatusRejected {
		s.reapplied = false
	}
	if s.reapplied {
		s.current = ""
	} else {
		s.current = status
	}
	return nil
}

// Status returns the derived enrollment status; empty means no application.
func (s *State) Status() models.EnrollmentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetReason records the application input text.
func (s *State) SetReason(text string) {
	s.mu.Lock()
	s.reason = text
	s.mu.Unlock()
}

// Reason returns the current application input text.
func (s *State) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Editing reports whether the edit surface is open.
func (s *State) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// EditText returns the edit surface text.
func (s *State) EditText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editText
}

// SetEditText updates the edit surface text.
func (s *State) SetEditText(text string) {
	s.mu.Lock()
	s.editText = text
	s.mu.Unlock()
}

// Busy reports whether any action is in flight, for disabling controls.
func (s *State) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applying || s.cancelling || s.updating
}

// Apply submits the application. Re-entrant calls while one is in flight are
// no-ops. Review-based studies require non-blank trimmed reason text before
// any request is issued.
func (s *State) Apply(ctx context.Context) {
	s.mu.Lock()
	if s.applying {
		s.mu.Unlock()
		return
	}
	reason := strings.TrimSpace(s.reason)
	if s.method == models.RecruitmentApplication && reason == "" {
		s.mu.Unlock()
		s.notifier.Error("enter a reason for your application")
		return
	}
	s.applying = true
	s.mu.Unlock()
	defer s.clearFlag(&s.applying)

	status, err := s.writer.Apply(ctx, s.studyID, reason)
	if err != nil {
		s.notifier.Error(apperrors.FromError(err).Message)
		return
	}
	if status == "" {
		// Servers that answer with an empty body still approved FCFS
		// enrollments on the spot.
		if s.method == models.RecruitmentFCFS {
			status = models.ApplicationStatusApproved
		} else {
			status = models.ApplicationStatusPending
		}
	}

	s.mu.Lock()
	s.current = status
	s.reason = ""
	s.reapplied = false
	s.mu.Unlock()

	if status == models.ApplicationStatusApproved {
		s.notifier.Success("you have joined the study")
	} else {
		s.notifier.Success("application submitted, the instructor will review it")
	}
}

// Cancel withdraws the enrollment or pending application.
func (s *State) Cancel(ctx context.Context) {
	s.mu.Lock()
	if s.cancelling {
		s.mu.Unlock()
		return
	}
	s.cancelling = true
	s.mu.Unlock()
	defer s.clearFlag(&s.cancelling)

	if err := s.writer.Cancel(ctx, s.studyID); err != nil {
		s.notifier.Error(apperrors.FromError(err).Message)
		return
	}

	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	s.notifier.Success("enrollment cancelled")
}

// StartEdit opens the edit surface for a pending application, fetching the
// existing text on first use only. Outside the PENDING state of a
// review-based study it does nothing.
func (s *State) StartEdit(ctx context.Context) {
	s.mu.Lock()
	if s.editing || s.method != models.RecruitmentApplication || s.current != models.ApplicationStatusPending {
		s.mu.Unlock()
		return
	}
	loaded := s.editLoaded
	s.mu.Unlock()

	if !loaded {
		app, err := s.reader.Own(ctx, s.studyID)
		if err != nil {
			s.notifier.Error(apperrors.FromError(err).Message)
			return
		}
		s.mu.Lock()
		s.editText = app.Reason
		s.editLoaded = true
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.editing = true
	s.mu.Unlock()
}

// SubmitEdit saves the edited application text. Guarded like Apply: no
// concurrent duplicate submission, non-blank trimmed text required.
func (s *State) SubmitEdit(ctx context.Context) {
	s.mu.Lock()
	if s.updating {
		s.mu.Unlock()
		return
	}
	text := strings.TrimSpace(s.editText)
	if text == "" {
		s.mu.Unlock()
		s.notifier.Error("the application text cannot be empty")
		return
	}
	s.updating = true
	s.mu.Unlock()
	defer s.clearFlag(&s.updating)

	if err := s.writer.UpdateApplication(ctx, s.studyID, text); err != nil {
		s.notifier.Error(apperrors.FromError(err).Message)
		return
	}

	s.mu.Lock()
	s.editing = false
	s.editText = text
	s.mu.Unlock()
	s.notifier.Success("application updated")
}

// Reapply clears a rejection locally so the application form reappears. No
// request is made; whether the server accepts a fresh application is its
// call, surfaced as a conflict on the next Apply.
func (s *State) Reapply() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != models.ApplicationStatusRejected {
		return
	}
	s.current = ""
	s.reason = ""
	s.reapplied = true
}

// clearFlag resets an in-flight guard in the completion path, success or
// failure, so the surface never stays disabled.
func (s *State) clearFlag(flag *bool) {
	s.mu.Lock()
	*flag = false
	s.mu.Unlock()
}
