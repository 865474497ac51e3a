package appstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkuaegis/aegis-study-client/internal/models"
	apperrors "github.com/dkuaegis/aegis-study-client/pkg/errors"
)

type mockWriter struct {
	mu          sync.Mutex
	applyCalls  int
	cancelCalls int
	updateCalls int
	applyStatus models.EnrollmentStatus
	applyErr    error
	cancelErr   error
	updateErr   error
	lastReason  string
	release     chan struct{}
}

func (m *mockWriter) Apply(ctx context.Context, studyID int64, reason string) (models.EnrollmentStatus, error) {
	m.mu.Lock()
	m.applyCalls++
	m.lastReason = reason
	release := m.release
	m.mu.Unlock()
	if release != nil {
		<-release
	}
	return m.applyStatus, m.applyErr
}

func (m *mockWriter) Cancel(ctx context.Context, studyID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelCalls++
	return m.cancelErr
}

func (m *mockWriter) UpdateApplication(ctx context.Context, studyID int64, reason string) error {
	m.mu.Lock()
	m.updateCalls++
	m.lastReason = reason
	release := m.release
	m.mu.Unlock()
	if release != nil {
		<-release
	}
	return m.updateErr
}

func (m *mockWriter) applied() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyCalls
}

func (m *mockWriter) updated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCalls
}

type mockReader struct {
	calls int
	app   *models.Application
	err   error
}

func (m *mockReader) Own(ctx context.Context, studyID int64) (*models.Application, error) {
	m.calls++
	return m.app, m.err
}

type mockNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (m *mockNotifier) Success(msg string) {
	m.mu.Lock()
	m.successes = append(m.successes, msg)
	m.mu.Unlock()
}

func (m *mockNotifier) Error(msg string) {
	m.mu.Lock()
	m.errors = append(m.errors, msg)
	m.mu.Unlock()
}

type stubResolver struct {
	status models.EnrollmentStatus
	err    error
	calls  int
}

func (s *stubResolver) Resolve(ctx context.Context, studyID int64) (models.EnrollmentStatus, error) {
	s.calls++
	return s.status, s.err
}

type stubStatusSource struct {
	status models.EnrollmentStatus
	calls  int
}

func (s *stubStatusSource) Status(ctx context.Context, studyID int64) (models.EnrollmentStatus, error) {
	s.calls++
	return s.status, nil
}

type stubRolesSource struct {
	roles *models.StudyRoles
	err   error
}

func (s stubRolesSource) Get(ctx context.Context) (*models.StudyRoles, error) {
	return s.roles, s.err
}

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func newState(method models.RecruitmentMethod, resolver StatusResolver, writer *mockWriter, reader *mockReader, notifier *mockNotifier) *State {
	return New(7, method, resolver, writer, reader, notifier, nil)
}

func TestApplyReviewBasedStudy(t *testing.T) {
	writer := &mockWriter{applyStatus: models.ApplicationStatusPending}
	notifier := &mockNotifier{}
	s := newState(models.RecruitmentApplication, &stubResolver{}, writer, &mockReader{}, notifier)

	s.SetReason("  I want to learn Go  ")
	s.Apply(context.Background())

	assert.Equal(t, 1, writer.applied())
	assert.Equal(t, "I want to learn Go", writer.lastReason, "reason is trimmed before sending")
	assert.Equal(t, models.ApplicationStatusPending, s.Status())
	assert.Empty(t, s.Reason(), "input cleared after submission")
	require.Len(t, notifier.successes, 1)
	assert.Contains(t, notifier.successes[0], "review")
}

func TestApplyBlankReasonRejectedBeforeAnyRequest(t *testing.T) {
	writer := &mockWriter{}
	notifier := &mockNotifier{}
	s := newState(models.RecruitmentApplication, &stubResolver{}, writer, &mockReader{}, notifier)

	s.SetReason("   \n\t ")
	s.Apply(context.Background())

	assert.Zero(t, writer.applied())
	assert.Empty(t, s.Status())
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "enter a reason for your application", notifier.errors[0])
}

func TestApplyFCFSEmptyBodyMeansApproved(t *testing.T) {
	writer := &mockWriter{applyStatus: ""}
	notifier := &mockNotifier{}
	s := newState(models.RecruitmentFCFS, &stubResolver{}, writer, &mockReader{}, notifier)

	s.Apply(context.Background())

	assert.Equal(t, 1, writer.applied())
	assert.Equal(t, models.ApplicationStatusApproved, s.Status())
	require.Len(t, notifier.successes, 1)
	assert.Equal(t, "you have joined the study", notifier.successes[0])
}

func TestApplyInFlightGuardDropsReentrantCalls(t *testing.T) {
	writer := &mockWriter{applyStatus: models.ApplicationStatusPending, release: make(chan struct{})}
	notifier := &mockNotifier{}
	s := newState(models.RecruitmentApplication, &stubResolver{}, writer, &mockReader{}, notifier)
	s.SetReason("reason")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Apply(context.Background())
	}()

	// Wait for the first call to reach the writer, then pile on more.
	require.Eventually(t, func() bool { return writer.applied() == 1 }, waitFor, tick)
	assert.True(t, s.Busy())
	s.Apply(context.Background())
	s.Apply(context.Background())

	close(writer.release)
	wg.Wait()

	assert.Equal(t, 1, writer.applied(), "concurrent applies collapse to one request")
	assert.False(t, s.Busy())
}

func TestApplyErrorSurfacesMessageAndKeepsState(t *testing.T) {
	writer := &mockWriter{applyErr: apperrors.New("CONFLICT", 409, "you have already applied to this study")}
	notifier := &mockNotifier{}
	s := newState(models.RecruitmentApplication, &stubResolver{}, writer, &mockReader{}, notifier)
	s.SetReason("reason")

	s.Apply(context.Background())

	assert.Empty(t, s.Status())
	assert.Equal(t, "reason", s.Reason(), "input survives a failed submission")
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "you have already applied to this study", notifier.errors[0])
	assert.False(t, s.Busy(), "guard released after failure")
}

func TestCancelClearsStatus(t *testing.T) {
	writer := &mockWriter{applyStatus: models.ApplicationStatusApproved}
	notifier := &mockNotifier{}
	s := newState(models.RecruitmentFCFS, &stubResolver{}, writer, &mockReader{}, notifier)

	s.Apply(context.Background())
	require.Equal(t, models.ApplicationStatusApproved, s.Status())

	s.Cancel(context.Background())

	assert.Empty(t, s.Status())
	assert.Equal(t, 1, writer.cancelCalls)
	assert.Contains(t, notifier.successes, "enrollment cancelled")
}

func TestRefreshEndpointResolver(t *testing.T) {
	source := &stubStatusSource{status: models.ApplicationStatusApproved}
	resolver := ResolverFor(models.RecruitmentApplication, source, stubRolesSource{})
	s := newState(models.RecruitmentApplication, resolver, &mockWriter{}, &mockReader{}, &mockNotifier{})

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, models.ApplicationStatusApproved, s.Status())
	assert.Equal(t, 1, source.calls)
}

func TestRefreshFCFSInfersFromRolesWithoutStatusEndpoint(t *testing.T) {
	source := &stubStatusSource{status: models.ApplicationStatusPending}
	resolver := ResolverFor(models.RecruitmentFCFS, source, stubRolesSource{
		roles: &models.StudyRoles{ParticipantStudyIDs: []int64{7}},
	})
	s := newState(models.RecruitmentFCFS, resolver, &mockWriter{}, &mockReader{}, &mockNotifier{})

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, models.ApplicationStatusApproved, s.Status())
	assert.Zero(t, source.calls, "first-come-first-served never hits the status endpoint")
}

func TestRefreshFCFSRoleFetchFailureIsAnError(t *testing.T) {
	resolver := ResolverFor(models.RecruitmentFCFS, &stubStatusSource{}, stubRolesSource{err: errors.New("network down")})
	s := newState(models.RecruitmentFCFS, resolver, &mockWriter{}, &mockReader{}, &mockNotifier{})

	assert.Error(t, s.Refresh(context.Background()))
	assert.Empty(t, s.Status())
}

func TestRefreshErrorLeavesStatusUntouched(t *testing.T) {
	resolver := &stubResolver{status: models.ApplicationStatusPending}
	s := newState(models.RecruitmentApplication, resolver, &mockWriter{}, &mockReader{}, &mockNotifier{})

	require.NoError(t, s.Refresh(context.Background()))
	require.Equal(t, models.ApplicationStatusPending, s.Status())

	resolver.err = errors.New("timeout")
	assert.Error(t, s.Refresh(context.Background()))
	assert.Equal(t, models.ApplicationStatusPending, s.Status())
}

func TestReapplyClearsRejectionLocally(t *testing.T) {
	resolver := &stubResolver{status: models.ApplicationStatusRejected}
	writer := &mockWriter{}
	s := newState(models.RecruitmentApplication, resolver, writer, &mockReader{}, &mockNotifier{})

	require.NoError(t, s.Refresh(context.Background()))
	require.Equal(t, models.ApplicationStatusRejected, s.Status())

	s.Reapply()

	assert.Empty(t, s.Status(), "form reappears without any request")
	assert.Zero(t, writer.applied())

	// The server still reports REJECTED; the local override must hold.
	require.NoError(t, s.Refresh(context.Background()))
	assert.Empty(t, s.Status())

	// Once the server reports anything else the override drops away.
	resolver.status = models.ApplicationStatusPending
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, models.ApplicationStatusPending, s.Status())
}

func TestReapplyOutsideRejectionDoesNothing(t *testing.T) {
	resolver := &stubResolver{status: models.ApplicationStatusPending}
	s := newState(models.RecruitmentApplication, resolver, &mockWriter{}, &mockReader{}, &mockNotifier{})
	require.NoError(t, s.Refresh(context.Background()))

	s.Reapply()

	assert.Equal(t, models.ApplicationStatusPending, s.Status())
}

func TestStartEditFetchesExistingTextOnce(t *testing.T) {
	resolver := &stubResolver{status: models.ApplicationStatusPending}
	reader := &mockReader{app: &models.Application{Reason: "original text"}}
	s := newState(models.RecruitmentApplication, resolver, &mockWriter{}, reader, &mockNotifier{})
	require.NoError(t, s.Refresh(context.Background()))

	s.StartEdit(context.Background())

	assert.True(t, s.Editing())
	assert.Equal(t, "original text", s.EditText())
	assert.Equal(t, 1, reader.calls)

	// Closing and reopening must not refetch.
	s.mu.Lock()
	s.editing = false
	s.mu.Unlock()
	s.StartEdit(context.Background())
	assert.Equal(t, 1, reader.calls)
}

func TestStartEditIgnoredOutsidePendingReview(t *testing.T) {
	reader := &mockReader{app: &models.Application{Reason: "text"}}

	fcfs := newState(models.RecruitmentFCFS, &stubResolver{}, &mockWriter{}, reader, &mockNotifier{})
	fcfs.StartEdit(context.Background())
	assert.False(t, fcfs.Editing())

	noApp := newState(models.RecruitmentApplication, &stubResolver{}, &mockWriter{}, reader, &mockNotifier{})
	noApp.StartEdit(context.Background())
	assert.False(t, noApp.Editing())
	assert.Zero(t, reader.calls)
}

func TestSubmitEditSavesTrimmedText(t *testing.T) {
	writer := &mockWriter{}
	notifier := &mockNotifier{}
	s := newState(models.RecruitmentApplication, &stubResolver{}, writer, &mockReader{}, notifier)

	s.SetEditText("  revised text  ")
	s.SubmitEdit(context.Background())

	assert.Equal(t, 1, writer.updated())
	assert.Equal(t, "revised text", writer.lastReason)
	assert.False(t, s.Editing())
	assert.Contains(t, notifier.successes, "application updated")
}

func TestSubmitEditBlankTextRejected(t *testing.T) {
	writer := &mockWriter{}
	notifier := &mockNotifier{}
	s := newState(models.RecruitmentApplication, &stubResolver{}, writer, &mockReader{}, notifier)

	s.SetEditText("   ")
	s.SubmitEdit(context.Background())

	assert.Zero(t, writer.updated())
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "the application text cannot be empty", notifier.errors[0])
}

func TestSubmitEditInFlightGuard(t *testing.T) {
	writer := &mockWriter{release: make(chan struct{})}
	s := newState(models.RecruitmentApplication, &stubResolver{}, writer, &mockReader{}, &mockNotifier{})
	s.SetEditText("text")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SubmitEdit(context.Background())
	}()

	require.Eventually(t, func() bool { return writer.updated() == 1 }, waitFor, tick)
	s.SubmitEdit(context.Background())

	close(writer.release)
	wg.Wait()

	assert.Equal(t, 1, writer.updated())
}
