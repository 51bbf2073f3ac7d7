package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
	appErrors "github.com/Alnumo/IEP-Management-System-sub012/pkg/errors"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/lock"
)

type subscriptionReader interface {
	FindByID(ctx context.Context, id string) (*models.Subscription, error)
}

type templateReader interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleTemplate, error)
}

type ruleReader interface {
	ListActive(ctx context.Context) ([]models.OptimizationRule, error)
}

type sessionWriter interface {
	ListByStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.ScheduledSession, error)
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.ScheduledSession) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// SchedulingOptions tunes one service instance; zero values fall back to the
// pipeline defaults.
type SchedulingOptions struct {
	OverGenerationFactor int
	MaxSuggestions       int
	GenerationTimeout    time.Duration
	LockTTL              time.Duration
}

// SchedulingService orchestrates a generation run end to end: validate, lock,
// index, generate, score, assemble, persist, notify.
type SchedulingService struct {
	subscriptions subscriptionReader
	templates     templateReader
	rules         ruleReader
	sessions      sessionWriter
	indexes       *AvailabilityIndexService
	db            txProvider
	locker        lock.Locker
	cache         *CacheService
	notifier      Notifier
	metrics       *MetricsService
	opts          SchedulingOptions
	logger        *zap.Logger
}

// NewSchedulingService wires the orchestrator.
func NewSchedulingService(
	subscriptions subscriptionReader,
	templates templateReader,
	rules ruleReader,
	sessions sessionWriter,
	indexes *AvailabilityIndexService,
	db txProvider,
	locker lock.Locker,
	cache *CacheService,
	notifier Notifier,
	metrics *MetricsService,
	opts SchedulingOptions,
	logger *zap.Logger,
) *SchedulingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 30 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = time.Minute
	}
	return &SchedulingService{
		subscriptions: subscriptions,
		templates:     templates,
		rules:         rules,
		sessions:      sessions,
		indexes:       indexes,
		db:            db,
		locker:        locker,
		cache:         cache,
		notifier:      notifier,
		metrics:       metrics,
		opts:          opts,
		logger:        logger,
	}
}

// Validate runs the pure pre-submission checks without touching storage.
func (s *SchedulingService) Validate(req dto.SchedulingRequest) dto.ValidationResult {
	return ValidateSchedulingRequest(req)
}

// Generate turns a subscription into a conflict-free calendar. At most one
// generation or freeze runs per subscription at a time; a concurrent caller is
// rejected rather than interleaved.
func (s *SchedulingService) Generate(ctx context.Context, req dto.SchedulingRequest) (*dto.SchedulingResult, error) {
	started := time.Now()

	if validation := ValidateSchedulingRequest(req); !validation.IsValid {
		err := appErrors.Clone(appErrors.ErrValidation, "", "")
		err.Err = errors.New(validation.Errors[0].En)
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, "subscription:"+req.SubscriptionID, s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, appErrors.ErrOperationInProgress
		}
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to acquire subscription lock")
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	sub, err := s.subscriptions.FindByID(ctx, req.SubscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound,
				"subscription not found", "الاشتراك غير موجود")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load subscription")
	}
	if sub.Status != models.SubscriptionStatusActive {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			"subscription is not active", "الاشتراك غير نشط")
	}

	if err := s.applyTemplate(ctx, &req); err != nil {
		return nil, err
	}

	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load optimization rules")
	}

	from, _ := parseDate(req.StartDate)
	to, _ := parseDate(req.EndDate)

	therapistIDs, err := s.candidateTherapists(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &dto.SchedulingResult{}
	var indexes []*AvailabilityIndex
	utilization := make(map[string]float64, len(therapistIDs))
	buffers := make(map[string]int, len(therapistIDs))
	for _, id := range therapistIDs {
		idx, err := s.indexes.Build(ctx, id, from, to)
		if err != nil {
			return nil, err
		}
		result.Warnings = append(result.Warnings, idx.Warnings...)
		if len(idx.Days) == 0 {
			continue
		}
		indexes = append(indexes, idx)
		utilization[id] = idx.Utilization()
		buffers[id] = idx.BufferMinutes
	}

	detector := NewConflictDetector(buffers)
	studentBusy, err := s.sessions.ListByStudentRange(ctx, sub.StudentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load student sessions")
	}
	detector.Load(studentBusy)

	groups := GenerateCandidates(GeneratorParams{
		From:                 from,
		To:                   to,
		TotalSessions:        req.TotalSessions,
		DurationMinutes:      req.SessionDurationMinutes,
		PreferredDays:        req.PreferredDays,
		AvoidDays:            req.AvoidDays,
		PreferredTimes:       toClockWindows(req.PreferredTimes),
		AvoidTimes:           toClockWindows(req.AvoidTimes),
		RequiresConsecutive:  req.RequiresConsecutive,
		MaxSessionsPerDay:    maxSessionsPerDay(req),
		OverGenerationFactor: s.opts.OverGenerationFactor,
	}, indexes)

	scored := ScoreCandidates(groups, ScoringInputs{
		From:                   from,
		To:                     to,
		TotalSessions:          req.TotalSessions,
		PreferredDays:          req.PreferredDays,
		PreferredTimes:         toClockWindows(req.PreferredTimes),
		PriorityLevel:          req.PriorityLevel,
		FlexibilityScore:       req.FlexibilityScore,
		Category:               req.SessionCategory,
		UtilizationByTherapist: utilization,
		Rules:                  rules,
	})

	assembly := Assemble(scored, detector, AssemblyParams{
		SubscriptionID:  req.SubscriptionID,
		StudentID:       sub.StudentID,
		Category:        req.SessionCategory,
		Priority:        req.PriorityLevel,
		TotalSessions:   req.TotalSessions,
		SessionsPerWeek: req.SessionsPerWeek,
		MaxGapDays:      req.MaxGapDays,
		MaxSuggestions:  s.opts.MaxSuggestions,
	})

	if len(assembly.Sessions) > 0 {
		if err := s.persist(ctx, assembly.Sessions); err != nil {
			return nil, err
		}
		if s.cache.Enabled() {
			_ = s.cache.Invalidate(ctx, "availability:*")
		}
	}

	result.GeneratedSessions = assembly.Sessions
	result.UnscheduledSessions = assembly.Unscheduled
	result.Conflicts = assembly.Conflicts
	result.Suggestions = assembly.Suggestions
	result.OptimizationScore = assembly.MeanScore
	result.PreferenceScore = assembly.PreferenceScore
	result.UtilizationScore = meanUtilization(utilization) * 100
	result.Warnings = append(result.Warnings, assembly.Warnings...)
	result.GenerationTimeMs = time.Since(started).Milliseconds()

	if s.metrics != nil {
		s.metrics.ObserveGeneration(time.Since(started), len(assembly.Sessions), assembly.Unscheduled, len(assembly.Conflicts))
	}
	if s.notifier != nil && len(assembly.Sessions) > 0 {
		s.notifier.Notify(ctx, models.NotificationEvent{
			Type:           models.EventScheduleGenerated,
			SubscriptionID: req.SubscriptionID,
			Payload: map[string]any{
				"generated":   len(assembly.Sessions),
				"unscheduled": assembly.Unscheduled,
			},
		})
	}

	s.logger.Info("schedule generated",
		zap.String("subscription_id", req.SubscriptionID),
		zap.Int("generated", len(assembly.Sessions)),
		zap.Int("unscheduled", assembly.Unscheduled),
		zap.Int64("duration_ms", result.GenerationTimeMs))

	return result, nil
}

// applyTemplate merges template defaults into unset request fields. Explicit
// request values always win.
func (s *SchedulingService) applyTemplate(ctx context.Context, req *dto.SchedulingRequest) error {
	if req.TemplateID == nil || *req.TemplateID == "" {
		return nil
	}
	tpl, err := s.templates.FindByID(ctx, *req.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound,
				"schedule template not found", "قالب الجدولة غير موجود")
		}
		return appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load schedule template")
	}

	if req.SessionDurationMinutes <= 0 {
		req.SessionDurationMinutes = tpl.SessionDurationMinutes
	}
	if req.SessionsPerWeek <= 0 {
		req.SessionsPerWeek = tpl.SessionsPerWeek
	}
	if len(req.PreferredDays) == 0 && len(tpl.PreferredDays) > 0 {
		var days []int
		if err := json.Unmarshal(tpl.PreferredDays, &days); err == nil {
			req.PreferredDays = days
		}
	}
	if len(req.PreferredTimes) == 0 && len(tpl.PreferredTimes) > 0 {
		var windows []models.TemplateTimeWindow
		if err := json.Unmarshal(tpl.PreferredTimes, &windows); err == nil {
			for _, w := range windows {
				req.PreferredTimes = append(req.PreferredTimes, dto.TimeWindow{StartTime: w.StartTime, EndTime: w.EndTime})
			}
		}
	}
	if req.PreferredTherapistID == nil && tpl.PreferredTherapistID != nil {
		req.PreferredTherapistID = tpl.PreferredTherapistID
	}
	if req.MaxSessionsPerDay <= 0 {
		req.MaxSessionsPerDay = tpl.MaxSessionsPerDay
	}
	if !tpl.AllowWeekends {
		req.AvoidDays = appendMissingDays(req.AvoidDays, weekendDays...)
	}
	if !tpl.AllowEvenings {
		req.AvoidTimes = append(req.AvoidTimes, dto.TimeWindow{StartTime: eveningStart, EndTime: "23:59"})
	}
	return nil
}

// The center runs a Friday/Saturday weekend; evenings start at 17:00.
var weekendDays = []int{5, 6}

const eveningStart = "17:00"

func appendMissingDays(days []int, extra ...int) []int {
	present := daySet(days)
	for _, d := range extra {
		if !present[d] {
			days = append(days, d)
		}
	}
	return days
}

func (s *SchedulingService) candidateTherapists(ctx context.Context, req dto.SchedulingRequest) ([]string, error) {
	if req.PreferredTherapistID != nil && *req.PreferredTherapistID != "" {
		return []string{*req.PreferredTherapistID}, nil
	}
	return s.indexes.TherapistIDs(ctx)
}

func (s *SchedulingService) persist(ctx context.Context, sessions []models.ScheduledSession) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrProcessing, "failed to begin transaction")
	}
	if err := s.sessions.BulkCreateWithTx(ctx, tx, sessions); err != nil {
		_ = tx.Rollback()
		return appErrors.Wrap(err, appErrors.ErrConflict, "failed to persist generated sessions")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrProcessing, "failed to commit generated sessions")
	}
	return nil
}

func toClockWindows(windows []dto.TimeWindow) []clockWindow {
	result := make([]clockWindow, 0, len(windows))
	for _, w := range windows {
		start, startErr := parseClock(w.StartTime)
		end, endErr := parseClock(w.EndTime)
		if startErr != nil || endErr != nil || end <= start {
			continue
		}
		result = append(result, clockWindow{startMin: start, endMin: end})
	}
	return result
}

// maxSessionsPerDay caps daily load at one session unless the request (or its
// template) raises the cap, or demands consecutive sessions, which need room
// for the whole run.
func maxSessionsPerDay(req dto.SchedulingRequest) int {
	if req.RequiresConsecutive {
		return 0
	}
	if req.MaxSessionsPerDay > 0 {
		return req.MaxSessionsPerDay
	}
	return 1
}

func meanUtilization(byTherapist map[string]float64) float64 {
	if len(byTherapist) == 0 {
		return 0
	}
	var sum float64
	for _, u := range byTherapist {
		sum += u
	}
	return sum / float64(len(byTherapist))
}
