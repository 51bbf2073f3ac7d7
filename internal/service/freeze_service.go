package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
	appErrors "github.com/Alnumo/IEP-Management-System-sub012/pkg/errors"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/lock"
)

type frozenSessionStore interface {
	ListByStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.ScheduledSession, error)
	ListByTherapistRange(ctx context.Context, therapistID string, from, to time.Time) ([]models.ScheduledSession, error)
	ListByRoomRange(ctx context.Context, roomID string, from, to time.Time) ([]models.ScheduledSession, error)
	RescheduleWithTx(ctx context.Context, tx *sqlx.Tx, id string, date time.Time, startTime, endTime string) error
	UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.SessionStatus) error
}

type subscriptionFreezer interface {
	FindByID(ctx context.Context, id string) (*models.Subscription, error)
	ApplyFreezeWithTx(ctx context.Context, tx *sqlx.Tx, id string, endDate time.Time, freezeDaysUsed int, status models.SubscriptionStatus) error
}

type freezeRecordStore interface {
	AppendWithTx(ctx context.Context, tx *sqlx.Tx, record *models.FreezeRecord) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]models.FreezeRecord, error)
}

type billingWriter interface {
	InsertAdjustmentWithTx(ctx context.Context, tx *sqlx.Tx, adj *models.BillingAdjustment) error
}

// FreezeOptions bounds the reschedule search.
type FreezeOptions struct {
	RescheduleHorizonDays int
	LockTTL               time.Duration
}

// FreezeService coordinates subscription freezes: allowance accounting, date
// extension, best-effort rescheduling of affected sessions, billing credit and
// the immutable audit record, all inside one transaction.
type FreezeService struct {
	subscriptions subscriptionFreezer
	sessions      frozenSessionStore
	records       freezeRecordStore
	billing       billingWriter
	indexes       *AvailabilityIndexService
	db            txProvider
	locker        lock.Locker
	notifier      Notifier
	metrics       *MetricsService
	opts          FreezeOptions
	logger        *zap.Logger
}

// NewFreezeService wires the freeze coordinator.
func NewFreezeService(
	subscriptions subscriptionFreezer,
	sessions frozenSessionStore,
	records freezeRecordStore,
	billing billingWriter,
	indexes *AvailabilityIndexService,
	db txProvider,
	locker lock.Locker,
	notifier Notifier,
	metrics *MetricsService,
	opts FreezeOptions,
	logger *zap.Logger,
) *FreezeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RescheduleHorizonDays <= 0 {
		opts.RescheduleHorizonDays = 30
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = time.Minute
	}
	return &FreezeService{
		subscriptions: subscriptions,
		sessions:      sessions,
		records:       records,
		billing:       billing,
		indexes:       indexes,
		db:            db,
		locker:        locker,
		notifier:      notifier,
		metrics:       metrics,
		opts:          opts,
		logger:        logger,
	}
}

// reschedulePlan is the precomputed move for one affected session.
type reschedulePlan struct {
	session models.ScheduledSession
	date    time.Time
	start   int
	end     int
	found   bool
}

// Preview computes the effect of a freeze without committing anything.
func (s *FreezeService) Preview(ctx context.Context, subscriptionID string, req dto.FreezeRequest) (*dto.FreezePreview, error) {
	sub, window, err := s.loadAndCheck(ctx, subscriptionID, req)
	if err != nil {
		return nil, err
	}

	affected, err := s.affectedSessions(ctx, sub, window.from, window.to)
	if err != nil {
		return nil, err
	}
	plans, err := s.planReschedules(ctx, sub, affected, window.to)
	if err != nil {
		return nil, err
	}

	conflicts := 0
	for _, plan := range plans {
		if !plan.found {
			conflicts++
		}
	}
	return &dto.FreezePreview{
		AffectedSessionsCount: len(affected),
		NewEndDate:            dateKey(sub.EndDate.AddDate(0, 0, window.days)),
		ConflictsCount:        conflicts,
	}, nil
}

// Freeze applies the freeze. The hard preconditions are an active subscription
// and a sufficient allowance; a session that cannot be moved within the horizon
// is parked as pending_conflict rather than blocking the whole operation.
func (s *FreezeService) Freeze(ctx context.Context, subscriptionID, actor string, req dto.FreezeRequest) (*dto.FreezeResult, error) {
	release, err := s.locker.Acquire(ctx, "subscription:"+subscriptionID, s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, appErrors.ErrOperationInProgress
		}
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to acquire subscription lock")
	}
	defer release()

	sub, window, err := s.loadAndCheck(ctx, subscriptionID, req)
	if err != nil {
		return nil, err
	}

	affected, err := s.affectedSessions(ctx, sub, window.from, window.to)
	if err != nil {
		return nil, err
	}
	plans, err := s.planReschedules(ctx, sub, affected, window.to)
	if err != nil {
		return nil, err
	}

	newEndDate := truncateDate(sub.EndDate).AddDate(0, 0, window.days)
	credit := freezeCredit(sub, window.days)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to begin transaction")
	}

	rescheduled, pending := 0, 0
	for _, plan := range plans {
		if plan.found {
			if err := s.sessions.RescheduleWithTx(ctx, tx, plan.session.ID, plan.date, formatClock(plan.start), formatClock(plan.end)); err != nil {
				_ = tx.Rollback()
				return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to reschedule session")
			}
			rescheduled++
		} else {
			if err := s.sessions.UpdateStatusWithTx(ctx, tx, plan.session.ID, models.SessionStatusPendingConflict); err != nil {
				_ = tx.Rollback()
				return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to flag session")
			}
			pending++
		}
	}

	if err := s.subscriptions.ApplyFreezeWithTx(ctx, tx, sub.ID, newEndDate, sub.FreezeDaysUsed+window.days, models.SubscriptionStatusFrozen); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to update subscription")
	}

	record := &models.FreezeRecord{
		SubscriptionID:   sub.ID,
		StartDate:        window.from,
		EndDate:          window.to,
		FreezeDays:       window.days,
		Reason:           req.Reason,
		AffectedSessions: len(affected),
		CreatedBy:        actor,
	}
	if err := s.records.AppendWithTx(ctx, tx, record); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to append freeze record")
	}

	if credit > 0 {
		adj := &models.BillingAdjustment{
			SubscriptionID: sub.ID,
			Kind:           models.BillingAdjustmentKindFreezeCredit,
			Amount:         credit,
			Days:           window.days,
		}
		if err := s.billing.InsertAdjustmentWithTx(ctx, tx, adj); err != nil {
			_ = tx.Rollback()
			return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to record billing credit")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to commit freeze")
	}

	if s.metrics != nil {
		s.metrics.RecordFreeze()
	}
	notificationsSent := 0
	if s.notifier != nil {
		if s.notifier.Notify(ctx, models.NotificationEvent{
			Type:           models.EventSubscriptionFrozen,
			SubscriptionID: sub.ID,
			Payload: map[string]any{
				"freeze_days":  window.days,
				"new_end_date": dateKey(newEndDate),
				"rescheduled":  rescheduled,
			},
		}) {
			notificationsSent++
		}
	}

	s.logger.Info("subscription frozen",
		zap.String("subscription_id", sub.ID),
		zap.Int("freeze_days", window.days),
		zap.Int("rescheduled", rescheduled),
		zap.Int("pending_conflicts", pending))

	return &dto.FreezeResult{
		SubscriptionID:    sub.ID,
		FreezeDays:        window.days,
		FreezeDaysUsed:    sub.FreezeDaysUsed + window.days,
		NewEndDate:        dateKey(newEndDate),
		AffectedSessions:  len(affected),
		RescheduledCount:  rescheduled,
		PendingConflicts:  pending,
		FreezeRecordID:    record.ID,
		BillingCredit:     credit,
		NotificationsSent: notificationsSent,
	}, nil
}

// History returns the subscription's freeze records, newest first.
func (s *FreezeService) History(ctx context.Context, subscriptionID string) ([]models.FreezeRecord, error) {
	records, err := s.records.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load freeze history")
	}
	return records, nil
}

type freezeWindow struct {
	from, to time.Time
	days     int
}

func (s *FreezeService) loadAndCheck(ctx context.Context, subscriptionID string, req dto.FreezeRequest) (*models.Subscription, freezeWindow, error) {
	var window freezeWindow

	from, fromErr := parseDate(req.StartDate)
	to, toErr := parseDate(req.EndDate)
	if fromErr != nil || toErr != nil {
		return nil, window, appErrors.Clone(appErrors.ErrValidation,
			"freeze dates must be in YYYY-MM-DD format", "يجب أن تكون تواريخ التجميد بصيغة YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, window, appErrors.Clone(appErrors.ErrValidation,
			"freeze end date must not precede start date", "يجب ألا يسبق تاريخ نهاية التجميد تاريخ البداية")
	}
	window = freezeWindow{from: truncateDate(from), to: truncateDate(to), days: inclusiveDays(from, to)}

	sub, err := s.subscriptions.FindByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, window, appErrors.Clone(appErrors.ErrNotFound,
				"subscription not found", "الاشتراك غير موجود")
		}
		return nil, window, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load subscription")
	}
	if sub.Status != models.SubscriptionStatusActive {
		return nil, window, appErrors.Clone(appErrors.ErrConflict,
			"only an active subscription can be frozen", "لا يمكن تجميد اشتراك غير نشط")
	}

	if remaining := sub.RemainingFreezeDays(); window.days > remaining {
		return nil, window, appErrors.Clone(appErrors.ErrInsufficientAllowance,
			fmt.Sprintf("freeze of %d days exceeds the remaining allowance of %d", window.days, remaining),
			fmt.Sprintf("تجميد %d يوماً يتجاوز الرصيد المتبقي وهو %d يوماً", window.days, remaining))
	}
	return sub, window, nil
}

func (s *FreezeService) affectedSessions(ctx context.Context, sub *models.Subscription, from, to time.Time) ([]models.ScheduledSession, error) {
	sessions, err := s.sessions.ListByStudentRange(ctx, sub.StudentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load affected sessions")
	}
	filtered := sessions[:0]
	for _, session := range sessions {
		if session.SubscriptionID == sub.ID {
			filtered = append(filtered, session)
		}
	}
	return filtered, nil
}

// planReschedules finds a new slot for each affected session within the search
// horizon after the freeze window. Sessions without a free slot stay in the
// plan unmoved, marked not found.
func (s *FreezeService) planReschedules(ctx context.Context, sub *models.Subscription, affected []models.ScheduledSession, freezeEnd time.Time) ([]reschedulePlan, error) {
	if len(affected) == 0 {
		return nil, nil
	}
	horizonStart := truncateDate(freezeEnd).AddDate(0, 0, 1)
	horizonEnd := horizonStart.AddDate(0, 0, s.opts.RescheduleHorizonDays-1)

	indexes := make(map[string]*AvailabilityIndex)
	buffers := make(map[string]int)
	for _, therapistID := range uniqueTherapists(affected) {
		idx, err := s.indexes.Build(ctx, therapistID, horizonStart, horizonEnd)
		if err != nil {
			return nil, err
		}
		indexes[therapistID] = idx
		buffers[therapistID] = idx.BufferMinutes
	}

	detector := NewConflictDetector(buffers)
	for therapistID := range indexes {
		booked, err := s.sessions.ListByTherapistRange(ctx, therapistID, horizonStart, horizonEnd)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load therapist sessions")
		}
		detector.Load(booked)
	}
	for _, roomID := range uniqueRooms(affected) {
		booked, err := s.sessions.ListByRoomRange(ctx, roomID, horizonStart, horizonEnd)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load room sessions")
		}
		detector.Load(booked)
	}
	studentBusy, err := s.sessions.ListByStudentRange(ctx, sub.StudentID, horizonStart, horizonEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load student sessions")
	}
	detector.Load(studentBusy)

	plans := make([]reschedulePlan, 0, len(affected))
	for _, session := range affected {
		plan := reschedulePlan{session: session}
		idx := indexes[session.TherapistID]
		roomID := ""
		if session.RoomID != nil {
			roomID = *session.RoomID
		}

		duration := session.DurationMinutes
		if duration <= 0 {
			start, startErr := parseClock(session.StartTime)
			end, endErr := parseClock(session.EndTime)
			if startErr == nil && endErr == nil && end > start {
				duration = end - start
			}
		}
		if duration <= 0 {
			plans = append(plans, plan)
			continue
		}

	search:
		for day := horizonStart; !day.After(horizonEnd); day = day.AddDate(0, 0, 1) {
			for _, open := range idx.OpenOn(day) {
				for start := open.StartMin; start+duration <= open.EndMin; start += duration {
					end := start + duration
					if detector.Check(day, start, end, session.TherapistID, roomID, sub.StudentID) != nil {
						continue
					}
					detector.Commit(day, start, end, session.TherapistID, roomID, sub.StudentID)
					plan.date, plan.start, plan.end, plan.found = day, start, end, true
					break search
				}
			}
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// freezeCredit is the pro-rated value of the frozen days against the original
// subscription term, rounded to two decimals.
func freezeCredit(sub *models.Subscription, freezeDays int) float64 {
	termDays := inclusiveDays(sub.StartDate, sub.OriginalEndDate)
	if termDays <= 0 || sub.PriceTotal <= 0 {
		return 0
	}
	credit := sub.PriceTotal / float64(termDays) * float64(freezeDays)
	return math.Round(credit*100) / 100
}

func uniqueTherapists(sessions []models.ScheduledSession) []string {
	seen := make(map[string]bool, len(sessions))
	var ids []string
	for _, session := range sessions {
		if !seen[session.TherapistID] {
			seen[session.TherapistID] = true
			ids = append(ids, session.TherapistID)
		}
	}
	return ids
}

func uniqueRooms(sessions []models.ScheduledSession) []string {
	seen := make(map[string]bool, len(sessions))
	var ids []string
	for _, session := range sessions {
		if session.RoomID == nil || *session.RoomID == "" {
			continue
		}
		if !seen[*session.RoomID] {
			seen[*session.RoomID] = true
			ids = append(ids, *session.RoomID)
		}
	}
	return ids
}
