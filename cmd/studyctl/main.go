package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/dkuaegis/aegis-study-client/internal/appstate"
	"github.com/dkuaegis/aegis-study-client/internal/cache"
	"github.com/dkuaegis/aegis-study-client/internal/form"
	"github.com/dkuaegis/aegis-study-client/internal/metrics"
	"github.com/dkuaegis/aegis-study-client/internal/models"
	"github.com/dkuaegis/aegis-study-client/internal/mutation"
	"github.com/dkuaegis/aegis-study-client/internal/query"
	"github.com/dkuaegis/aegis-study-client/internal/roles"
	"github.com/dkuaegis/aegis-study-client/internal/transport"
	"github.com/dkuaegis/aegis-study-client/pkg/config"
	"github.com/dkuaegis/aegis-study-client/pkg/export"
	"github.com/dkuaegis/aegis-study-client/pkg/logger"
)

// printNotifier surfaces the non-blocking user messages on stdout.
type printNotifier struct{}

func (printNotifier) Success(msg string) { fmt.Println("ok:", msg) }
func (printNotifier) Error(msg string)   { fmt.Println("error:", msg) }

type app struct {
	auth        *transport.AuthState
	recorder    *metrics.Recorder
	studies     *query.Studies
	apps        *query.Applications
	enrollment  *query.Enrollment
	roles       *query.Roles
	attendance  *query.Attendance
	enrollWrite *mutation.Enrollment
	review      *mutation.Review
	studyWrite  *mutation.Studies
	attendWrite *mutation.Attendance
	logger      *zap.Logger
}

// studyInput carries the create/edit flag values into the form container.
// Empty scalars and nil lists mean "leave the prefilled value alone" on edit.
type studyInput struct {
	title           string
	category        string
	level           string
	introduction    string
	schedule        string
	method          string
	maxParticipants int
	curriculum      []string
	requirements    []string
	confirmed       bool
}

func main() {
	var (
		command       string
		studyID       int64
		applicationID int64
		reason        string
		code          string
		format        string
		outPath       string
		showStats     bool
		input         studyInput
		curriculum    string
		requirements  string
	)

	flag.StringVar(&command, "cmd", "list", "one of: list, detail, status, roles, apply, cancel, edit-application, create, edit, approve, reject, attendance-code, attend, roster, attendance-sheet")
	flag.Int64Var(&studyID, "study", 0, "study id")
	flag.Int64Var(&applicationID, "application", 0, "application id (approve/reject)")
	flag.StringVar(&reason, "reason", "", "application reason text")
	flag.StringVar(&code, "code", "", "attendance code (attend)")
	flag.StringVar(&format, "format", "csv", "export format: csv or pdf")
	flag.StringVar(&outPath, "out", "", "export output file")
	flag.BoolVar(&showStats, "stats", false, "print request/cache stats on exit")
	flag.StringVar(&input.title, "title", "", "study title (create/edit)")
	flag.StringVar(&input.category, "category", "", "study category (create/edit)")
	flag.StringVar(&input.level, "level", "", "study level (create/edit)")
	flag.StringVar(&input.introduction, "intro", "", "study introduction (create/edit)")
	flag.StringVar(&input.schedule, "schedule", "", "study schedule (create/edit)")
	flag.StringVar(&input.method, "method", "", "recruitment method: FCFS or APPLICATION (create/edit)")
	flag.IntVar(&input.maxParticipants, "max", 0, "participant limit, 0 for unlimited (create/edit)")
	flag.StringVar(&curriculum, "curriculum", "", "comma-separated curriculum entries (create/edit)")
	flag.StringVar(&requirements, "requirements", "", "comma-separated requirement entries (create/edit)")
	flag.BoolVar(&input.confirmed, "yes", false, "confirm the pending create/edit submission")
	flag.Parse()

	input.curriculum = splitList(curriculum)
	input.requirements = splitList(requirements)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	a, err := buildApp(cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to build client", "error", err)
	}

	ctx := context.Background()
	if err := a.run(ctx, command, studyID, applicationID, reason, code, format, outPath, input); err != nil {
		fmt.Println("error:", err)
	}
	if a.auth.Unauthorized() {
		fmt.Println("your session has expired, sign in again")
	}
	if showStats {
		stats := a.recorder.Stats()
		fmt.Printf("requests=%d avg=%.1fms cache hits=%d misses=%d ratio=%.2f\n",
			stats.Requests, stats.AvgRequestMillis, stats.CacheHits, stats.CacheMisses, stats.CacheHitRatio)
	}
}

func buildApp(cfg *config.Config, logr *zap.Logger) (*app, error) {
	recorder := metrics.NewRecorder()
	auth := transport.NewAuthState()

	client, err := transport.New(cfg.API, auth, recorder, logr)
	if err != nil {
		return nil, err
	}

	var store cache.Store
	if cfg.Cache.Store == config.StoreRedis {
		rdb, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect cache store: %w", err)
		}
		store = cache.NewRedisStore(rdb)
	} else {
		store = cache.NewMemoryStore()
	}
	queries := cache.NewQueries(store, recorder, logr)
	policies := query.PoliciesFrom(cfg.Cache)

	return &app{
		auth:        auth,
		recorder:    recorder,
		studies:     query.NewStudies(client, queries, policies),
		apps:        query.NewApplications(client, queries, policies),
		enrollment:  query.NewEnrollment(client, queries, policies),
		roles:       query.NewRoles(client, queries, policies),
		attendance:  query.NewAttendance(client, queries, policies),
		enrollWrite: mutation.NewEnrollment(client, queries, logr),
		review:      mutation.NewReview(client, queries, logr),
		studyWrite:  mutation.NewStudies(client, queries, nil, logr),
		attendWrite: mutation.NewAttendance(client, queries, logr),
		logger:      logr,
	}, nil
}

func (a *app) run(ctx context.Context, command string, studyID, applicationID int64, reason, code, format, outPath string, input studyInput) error {
	switch command {
	case "list":
		return a.list(ctx)
	case "detail":
		return a.detail(ctx, studyID)
	case "status":
		return a.status(ctx, studyID)
	case "roles":
		return a.printRoles(ctx)
	case "apply":
		return a.withState(ctx, studyID, func(state *appstate.State) {
			state.SetReason(reason)
			state.Apply(ctx)
		})
	case "cancel":
		return a.withState(ctx, studyID, func(state *appstate.State) {
			state.Cancel(ctx)
		})
	case "edit-application":
		return a.withState(ctx, studyID, func(state *appstate.State) {
			state.StartEdit(ctx)
			if reason != "" {
				state.SetEditText(reason)
			}
			state.SubmitEdit(ctx)
		})
	case "create":
		return a.createStudy(ctx, input)
	case "edit":
		return a.editStudy(ctx, studyID, input)
	case "approve":
		return a.review.Approve(ctx, studyID, applicationID)
	case "reject":
		return a.review.Reject(ctx, studyID, applicationID)
	case "attendance-code":
		issued, err := a.attendWrite.IssueCode(ctx, studyID)
		if err != nil {
			return err
		}
		fmt.Printf("code %s for session %d, valid until %s\n", issued.Code, issued.SessionID, issued.ExpiresAt.Format("15:04:05"))
		return nil
	case "attend":
		return a.attendWrite.Submit(ctx, studyID, code)
	case "roster":
		return a.exportRoster(ctx, studyID, format, outPath)
	case "attendance-sheet":
		return a.exportAttendance(ctx, studyID, format, outPath)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) list(ctx context.Context) error {
	list, err := a.studies.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range list {
		capacity := "unlimited"
		if s.MaxParticipants > 0 {
			capacity = fmt.Sprintf("%d/%d", s.ParticipantCount, s.MaxParticipants)
		}
		fmt.Printf("%4d  %-30s %-12s %-10s %s\n", s.ID, s.Title, s.Category, capacity, s.InstructorName)
	}
	return nil
}

func (a *app) detail(ctx context.Context, studyID int64) error {
	study, err := a.studies.Detail(ctx, studyID)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s, %s)\nrecruitment: %s\nschedule: %s\ninstructor: %s\n\n%s\n",
		study.Title, study.Category, study.Level, study.RecruitmentMethod,
		study.Schedule, study.InstructorName, study.Introduction)
	for _, c := range study.Curricula {
		fmt.Println("  *", c)
	}
	return nil
}

func (a *app) status(ctx context.Context, studyID int64) error {
	study, err := a.studies.Detail(ctx, studyID)
	if err != nil {
		return err
	}
	resolver := appstate.ResolverFor(study.RecruitmentMethod, a.enrollment, a.roles)
	status, err := resolver.Resolve(ctx, studyID)
	if err != nil {
		return err
	}
	if status == "" {
		fmt.Println("no application")
	} else {
		fmt.Println(string(status))
	}
	return nil
}

func (a *app) printRoles(ctx context.Context) error {
	resolver := roles.NewService(a.roles).Current(ctx)
	sets := resolver.Snapshot()
	if sets == nil {
		return fmt.Errorf("roles unavailable")
	}
	fmt.Printf("instructor: %v\nparticipant: %v\napplied: %v\n",
		sets.InstructorStudyIDs, sets.ParticipantStudyIDs, sets.AppliedStudyIDs)
	return nil
}

func (a *app) createStudy(ctx context.Context, input studyInput) error {
	f := form.New()
	applyInput(f, input)
	payload, err := a.submitForm(f, input.confirmed)
	if err != nil || payload == nil {
		return err
	}
	id, err := a.studyWrite.Create(ctx, *payload)
	if err != nil {
		return err
	}
	fmt.Printf("created study %d\n", id)
	return nil
}

func (a *app) editStudy(ctx context.Context, studyID int64, input studyInput) error {
	study, err := a.studies.Detail(ctx, studyID)
	if err != nil {
		return err
	}
	f := form.FromStudy(study)
	applyInput(f, input)
	payload, err := a.submitForm(f, input.confirmed)
	if err != nil || payload == nil {
		return err
	}
	if err := a.studyWrite.Update(ctx, studyID, *payload); err != nil {
		return err
	}
	fmt.Println("study updated")
	return nil
}

// submitForm walks the confirmation gate: validation errors are printed
// inline, an unconfirmed run shows what would be submitted and stops, and
// only a confirmed run yields a payload.
func (a *app) submitForm(f *form.StudyForm, confirmed bool) (*mutation.StudyPayload, error) {
	if errs := f.RequestConfirmation(); len(errs) > 0 {
		for _, fe := range errs {
			fmt.Printf("  %s: %s\n", fe.Field, fe.Message)
		}
		return nil, fmt.Errorf("the study form has errors")
	}
	if !confirmed {
		fmt.Printf("about to submit %q (%s, %s): re-run with -yes to confirm\n",
			f.Title, f.RecruitmentMethod, capacityLabel(f))
		f.CancelConfirmation()
		return nil, nil
	}
	return f.Confirm()
}

func capacityLabel(f *form.StudyForm) string {
	if f.Capacity == form.CapacityLimited {
		return fmt.Sprintf("up to %d participants", f.MaxParticipants)
	}
	return "unlimited"
}

// applyInput overlays the provided flag values onto the form. On create the
// form starts blank so everything applies; on edit only the flags the user
// set override the prefilled study.
func applyInput(f *form.StudyForm, input studyInput) {
	if input.title != "" {
		f.Title = input.title
	}
	if input.category != "" {
		f.Category = input.category
	}
	if input.level != "" {
		f.Level = input.level
	}
	if input.introduction != "" {
		f.Introduction = input.introduction
	}
	if input.schedule != "" {
		f.Schedule = input.schedule
	}
	if input.method != "" {
		f.RecruitmentMethod = models.RecruitmentMethod(strings.ToUpper(input.method))
	}
	if input.maxParticipants > 0 {
		f.Capacity = form.CapacityLimited
		f.MaxParticipants = input.maxParticipants
	}
	if len(input.curriculum) > 0 {
		f.Curriculum = form.NewListField(input.curriculum...)
	}
	if len(input.requirements) > 0 {
		f.Requirements = form.NewListField(input.requirements...)
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// withState builds the application state machine for one study and runs the
// action against it. The recruitment method decides the status derivation
// path, so the study detail is loaded first.
func (a *app) withState(ctx context.Context, studyID int64, action func(*appstate.State)) error {
	study, err := a.studies.Detail(ctx, studyID)
	if err != nil {
		return err
	}
	resolver := appstate.ResolverFor(study.RecruitmentMethod, a.enrollment, a.roles)
	state := appstate.New(studyID, study.RecruitmentMethod, resolver, a.enrollWrite, a.apps, printNotifier{}, a.logger)
	if err := state.Refresh(ctx); err != nil {
		a.logger.Warn("initial status unavailable", zap.Int64("study_id", studyID), zap.Error(err))
	}
	action(state)
	return nil
}

func (a *app) exportRoster(ctx context.Context, studyID int64, format, outPath string) error {
	study, err := a.studies.Detail(ctx, studyID)
	if err != nil {
		return err
	}
	members, err := a.studies.Members(ctx, studyID)
	if err != nil {
		return err
	}
	return writeExport(export.MemberRoster(study, members), format, outPath)
}

func (a *app) exportAttendance(ctx context.Context, studyID int64, format, outPath string) error {
	study, err := a.studies.Detail(ctx, studyID)
	if err != nil {
		return err
	}
	records, err := a.attendance.Records(ctx, studyID)
	if err != nil {
		return err
	}
	return writeExport(export.AttendanceSheet(study, records), format, outPath)
}

func writeExport(data export.Dataset, format, outPath string) error {
	var (
		payload []byte
		err     error
	)
	switch format {
	case "pdf":
		payload, err = export.RenderPDF(data)
	default:
		payload, err = export.RenderCSV(data)
	}
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err = os.Stdout.Write(payload)
		return err
	}
	return os.WriteFile(outPath, payload, 0o644)
}
