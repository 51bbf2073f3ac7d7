package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
	appErrors "github.com/Alnumo/IEP-Management-System-sub012/pkg/errors"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/lock"
)

type stubSubscriptionRepo struct {
	subs map[string]models.Subscription
}

func (s *stubSubscriptionRepo) FindByID(_ context.Context, id string) (*models.Subscription, error) {
	if sub, ok := s.subs[id]; ok {
		return &sub, nil
	}
	return nil, sql.ErrNoRows
}

type stubTemplateRepo struct {
	templates map[string]models.ScheduleTemplate
}

func (s *stubTemplateRepo) FindByID(_ context.Context, id string) (*models.ScheduleTemplate, error) {
	if tpl, ok := s.templates[id]; ok {
		return &tpl, nil
	}
	return nil, sql.ErrNoRows
}

type stubRuleRepo struct {
	rules []models.OptimizationRule
}

func (s *stubRuleRepo) ListActive(context.Context) ([]models.OptimizationRule, error) {
	return s.rules, nil
}

type stubSessionStore struct {
	byStudent   map[string][]models.ScheduledSession
	byTherapist map[string][]models.ScheduledSession
	byRoom      map[string][]models.ScheduledSession
	created     []models.ScheduledSession
	rescheduled []rescheduleCall
	statuses    map[string]models.SessionStatus
}

func (s *stubSessionStore) ListByStudentRange(_ context.Context, studentID string, _, _ time.Time) ([]models.ScheduledSession, error) {
	return s.byStudent[studentID], nil
}

func (s *stubSessionStore) ListByTherapistRange(_ context.Context, therapistID string, _, _ time.Time) ([]models.ScheduledSession, error) {
	return s.byTherapist[therapistID], nil
}

func (s *stubSessionStore) BulkCreateWithTx(_ context.Context, _ *sqlx.Tx, sessions []models.ScheduledSession) error {
	s.created = append(s.created, sessions...)
	return nil
}

type stubLocker struct {
	held bool
	keys []string
}

func (l *stubLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.held {
		return nil, lock.ErrHeld
	}
	l.keys = append(l.keys, key)
	return func() {}, nil
}

type stubNotifier struct {
	events []models.NotificationEvent
}

func (n *stubNotifier) Notify(_ context.Context, event models.NotificationEvent) bool {
	n.events = append(n.events, event)
	return true
}

func newTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func weekdayWindows(therapistID string, days ...int) []models.TherapistAvailability {
	rows := make([]models.TherapistAvailability, 0, len(days))
	for _, d := range days {
		rows = append(rows, models.TherapistAvailability{
			TherapistID:        therapistID,
			DayOfWeek:          d,
			StartTime:          "09:00",
			EndTime:            "12:00",
			IsRecurring:        true,
			MaxSessionsPerSlot: 4,
		})
	}
	return rows
}

func newSchedulingFixture(t *testing.T, mock sqlmock.Sqlmock, db *sqlx.DB) (*SchedulingService, *stubSessionStore, *stubNotifier, *stubLocker) {
	t.Helper()
	sessions := &stubSessionStore{}
	notifier := &stubNotifier{}
	locker := &stubLocker{}

	availability := &stubAvailabilityRepo{
		rows: map[string][]models.TherapistAvailability{"th-1": weekdayWindows("th-1", 1, 3)},
		ids:  []string{"th-1"},
	}
	indexes := NewAvailabilityIndexService(availability, &stubSessionReader{}, disabledCache(), 0, nil)

	subs := &stubSubscriptionRepo{subs: map[string]models.Subscription{"sub-1": {
		ID:        "sub-1",
		StudentID: "st-1",
		Status:    models.SubscriptionStatusActive,
	}}}

	svc := NewSchedulingService(
		subs, &stubTemplateRepo{}, &stubRuleRepo{}, sessions,
		indexes, db, locker, disabledCache(), notifier, nil,
		SchedulingOptions{}, nil)
	_ = mock
	return svc, sessions, notifier, locker
}

func TestGenerateFullDemandScheduled(t *testing.T) {
	db, mock := newTxDB(t)
	svc, sessions, notifier, locker := newSchedulingFixture(t, mock, db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.Generate(context.Background(), dto.SchedulingRequest{
		SubscriptionID:         "sub-1",
		StartDate:              "2024-06-02",
		EndDate:                "2024-06-29",
		TotalSessions:          8,
		SessionDurationMinutes: 45,
		SessionsPerWeek:        2,
		PreferredDays:          []int{1, 3},
		AvoidDays:              []int{5, 6},
	})
	require.NoError(t, err)

	assert.Len(t, result.GeneratedSessions, 8)
	assert.Equal(t, 0, result.UnscheduledSessions)
	assert.Len(t, sessions.created, 8)
	for _, session := range result.GeneratedSessions {
		weekday := int(session.Date.Weekday())
		assert.Contains(t, []int{1, 3}, weekday)
		assert.Equal(t, "st-1", session.StudentID)
		assert.Equal(t, "th-1", session.TherapistID)
	}
	assert.Greater(t, result.OptimizationScore, 0.0)
	assert.GreaterOrEqual(t, result.GenerationTimeMs, int64(0))

	require.Len(t, notifier.events, 1)
	assert.Equal(t, models.EventScheduleGenerated, notifier.events[0].Type)
	require.Len(t, locker.keys, 1)
	assert.Equal(t, "subscription:sub-1", locker.keys[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateRejectsWhenLockHeld(t *testing.T) {
	db, mock := newTxDB(t)
	svc, _, _, locker := newSchedulingFixture(t, mock, db)
	locker.held = true

	_, err := svc.Generate(context.Background(), dto.SchedulingRequest{
		SubscriptionID:         "sub-1",
		StartDate:              "2024-06-02",
		EndDate:                "2024-06-29",
		TotalSessions:          4,
		SessionDurationMinutes: 45,
		SessionsPerWeek:        2,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "OPERATION_IN_PROGRESS", appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestGenerateUnknownSubscription(t *testing.T) {
	db, mock := newTxDB(t)
	svc, _, _, _ := newSchedulingFixture(t, mock, db)

	_, err := svc.Generate(context.Background(), dto.SchedulingRequest{
		SubscriptionID:         "missing",
		StartDate:              "2024-06-02",
		EndDate:                "2024-06-29",
		TotalSessions:          4,
		SessionDurationMinutes: 45,
		SessionsPerWeek:        2,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.NotEmpty(t, appErr.MessageAr)
}

func TestGenerateInvalidRequest(t *testing.T) {
	db, mock := newTxDB(t)
	svc, sessions, _, _ := newSchedulingFixture(t, mock, db)

	_, err := svc.Generate(context.Background(), dto.SchedulingRequest{
		SubscriptionID: "sub-1",
		StartDate:      "2024-06-02",
		EndDate:        "2024-06-29",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
	assert.Empty(t, sessions.created)
}

func TestGenerateInactiveSubscription(t *testing.T) {
	db, mock := newTxDB(t)
	svc, _, _, _ := newSchedulingFixture(t, mock, db)
	frozen := &stubSubscriptionRepo{subs: map[string]models.Subscription{"sub-1": {
		ID:        "sub-1",
		StudentID: "st-1",
		Status:    models.SubscriptionStatusFrozen,
	}}}
	svc.subscriptions = frozen

	_, err := svc.Generate(context.Background(), dto.SchedulingRequest{
		SubscriptionID:         "sub-1",
		StartDate:              "2024-06-02",
		EndDate:                "2024-06-29",
		TotalSessions:          4,
		SessionDurationMinutes: 45,
		SessionsPerWeek:        2,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", appErrors.FromError(err).Code)
}

func TestGenerateAppliesTemplateLimits(t *testing.T) {
	db, mock := newTxDB(t)
	sessions := &stubSessionStore{}

	// The therapist also works Saturdays, but the template forbids weekends
	// and allows two sessions per day.
	availability := &stubAvailabilityRepo{
		rows: map[string][]models.TherapistAvailability{"th-1": weekdayWindows("th-1", 3, 6)},
		ids:  []string{"th-1"},
	}
	indexes := NewAvailabilityIndexService(availability, &stubSessionReader{}, disabledCache(), 0, nil)
	subs := &stubSubscriptionRepo{subs: map[string]models.Subscription{"sub-1": {
		ID:        "sub-1",
		StudentID: "st-1",
		Status:    models.SubscriptionStatusActive,
	}}}
	templates := &stubTemplateRepo{templates: map[string]models.ScheduleTemplate{"tpl-1": {
		ID:                "tpl-1",
		MaxSessionsPerDay: 2,
		AllowWeekends:     false,
		AllowEvenings:     true,
	}}}

	svc := NewSchedulingService(
		subs, templates, &stubRuleRepo{}, sessions,
		indexes, db, &stubLocker{}, disabledCache(), &stubNotifier{}, nil,
		SchedulingOptions{}, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	templateID := "tpl-1"
	result, err := svc.Generate(context.Background(), dto.SchedulingRequest{
		SubscriptionID:         "sub-1",
		TemplateID:             &templateID,
		StartDate:              "2024-06-02",
		EndDate:                "2024-06-15",
		TotalSessions:          4,
		SessionDurationMinutes: 45,
		SessionsPerWeek:        2,
	})
	require.NoError(t, err)

	require.Len(t, result.GeneratedSessions, 4)
	perDay := make(map[string]int)
	for _, session := range result.GeneratedSessions {
		assert.Equal(t, time.Wednesday, session.Date.Weekday())
		perDay[session.Date.Format("2006-01-02")]++
	}
	for _, count := range perDay {
		assert.Equal(t, 2, count)
	}
}

func TestGeneratePartialDemandReportsUnscheduled(t *testing.T) {
	db, mock := newTxDB(t)
	svc, _, _, _ := newSchedulingFixture(t, mock, db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	// Only four qualifying days exist in a two-week range.
	result, err := svc.Generate(context.Background(), dto.SchedulingRequest{
		SubscriptionID:         "sub-1",
		StartDate:              "2024-06-02",
		EndDate:                "2024-06-15",
		TotalSessions:          8,
		SessionDurationMinutes: 45,
		SessionsPerWeek:        2,
		PreferredDays:          []int{1, 3},
	})
	require.NoError(t, err)
	assert.Len(t, result.GeneratedSessions, 4)
	assert.Equal(t, 4, result.UnscheduledSessions)
}
