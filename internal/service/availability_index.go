package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
	appErrors "github.com/Alnumo/IEP-Management-System-sub012/pkg/errors"
)

// OpenInterval is a bookable window on a single day, tagged with the remaining
// session capacity of its source availability row and the buffer the therapist
// requires between sessions.
type OpenInterval struct {
	StartMin      int `json:"start_min"`
	EndMin        int `json:"end_min"`
	WindowStart   int `json:"window_start"`
	Capacity      int `json:"capacity"`
	BufferMinutes int `json:"buffer_minutes"`
}

// AvailabilityIndex answers "when is this therapist free" for a whole date
// range at once, so downstream steps stay O(candidates) instead of issuing one
// storage query per candidate.
type AvailabilityIndex struct {
	TherapistID   string
	From, To      time.Time
	Days          map[string][]OpenInterval
	BufferMinutes int
	Warnings      []models.LocalizedMessage

	openMinutes   int
	windowMinutes int
}

// OpenOn returns the open intervals for one date, empty when fully booked or off.
func (idx *AvailabilityIndex) OpenOn(date time.Time) []OpenInterval {
	return idx.Days[dateKey(date)]
}

// Utilization is the booked fraction of the therapist's total window minutes
// over the indexed range.
func (idx *AvailabilityIndex) Utilization() float64 {
	if idx.windowMinutes <= 0 {
		return 0
	}
	return float64(idx.windowMinutes-idx.openMinutes) / float64(idx.windowMinutes)
}

type availabilityReader interface {
	ListByTherapistRange(ctx context.Context, therapistID string, from, to time.Time) ([]models.TherapistAvailability, error)
	ListTherapistIDs(ctx context.Context) ([]string, error)
}

type bookedSessionReader interface {
	ListByTherapistRange(ctx context.Context, therapistID string, from, to time.Time) ([]models.ScheduledSession, error)
}

// AvailabilityIndexService builds per-therapist availability indexes, caching
// the slowly-changing recurring rows in Redis.
type AvailabilityIndexService struct {
	availability availabilityReader
	sessions     bookedSessionReader
	cache        *CacheService
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewAvailabilityIndexService wires the index builder.
func NewAvailabilityIndexService(availability availabilityReader, sessions bookedSessionReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *AvailabilityIndexService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AvailabilityIndexService{availability: availability, sessions: sessions, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// TherapistIDs lists therapists with any defined availability.
func (s *AvailabilityIndexService) TherapistIDs(ctx context.Context) ([]string, error) {
	ids, err := s.availability.ListTherapistIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to list therapists")
	}
	return ids, nil
}

// Build assembles the open-interval index for one therapist over [from, to].
// An unknown therapist degrades to an empty index with a bilingual warning
// rather than failing the whole run.
func (s *AvailabilityIndexService) Build(ctx context.Context, therapistID string, from, to time.Time) (*AvailabilityIndex, error) {
	rows, err := s.loadAvailability(ctx, therapistID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load therapist availability")
	}

	idx := &AvailabilityIndex{
		TherapistID: therapistID,
		From:        truncateDate(from),
		To:          truncateDate(to),
		Days:        make(map[string][]OpenInterval),
	}

	if len(rows) == 0 {
		idx.Warnings = append(idx.Warnings, models.LocalizedMessage{
			Field: "therapistId",
			En:    fmt.Sprintf("therapist %s has no availability defined", therapistID),
			Ar:    fmt.Sprintf("لا يوجد جدول توفر للمعالج %s", therapistID),
		})
		return idx, nil
	}

	for _, row := range rows {
		if row.BufferMinutes > idx.BufferMinutes {
			idx.BufferMinutes = row.BufferMinutes
		}
	}

	booked, err := s.sessions.ListByTherapistRange(ctx, therapistID, idx.From, idx.To)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load therapist sessions")
	}
	bookedByDay := make(map[string][]busySpan)
	for _, session := range booked {
		start, startErr := parseClock(session.StartTime)
		end, endErr := parseClock(session.EndTime)
		if startErr != nil || endErr != nil {
			continue
		}
		// The therapist owes a buffer after every existing session, so the
		// blocked span runs past the session end.
		key := dateKey(session.Date)
		bookedByDay[key] = append(bookedByDay[key], busySpan{start: start, end: end + idx.BufferMinutes})
	}

	for day := idx.From; !day.After(idx.To); day = day.AddDate(0, 0, 1) {
		key := dateKey(day)
		weekday := int(day.Weekday())

		var blocked []busySpan
		blocked = append(blocked, bookedByDay[key]...)
		for _, row := range rows {
			if !row.IsTimeOff || !rowApplies(row, day, weekday) {
				continue
			}
			start, startErr := parseClock(row.StartTime)
			end, endErr := parseClock(row.EndTime)
			if startErr != nil || endErr != nil {
				continue
			}
			blocked = append(blocked, busySpan{start: start, end: end})
		}

		for _, row := range rows {
			if row.IsTimeOff || !rowApplies(row, day, weekday) {
				continue
			}
			start, startErr := parseClock(row.StartTime)
			end, endErr := parseClock(row.EndTime)
			if startErr != nil || endErr != nil || end <= start {
				continue
			}
			capacity := row.MaxSessionsPerSlot - row.CurrentBookings
			if row.MaxSessionsPerSlot <= 0 {
				capacity = 1
			}
			if capacity <= 0 {
				continue
			}
			idx.windowMinutes += end - start
			for _, open := range subtractSpans(busySpan{start: start, end: end}, blocked) {
				idx.openMinutes += open.end - open.start
				idx.Days[key] = append(idx.Days[key], OpenInterval{
					StartMin:      open.start,
					EndMin:        open.end,
					WindowStart:   start,
					Capacity:      capacity,
					BufferMinutes: row.BufferMinutes,
				})
			}
		}
	}

	return idx, nil
}

func (s *AvailabilityIndexService) loadAvailability(ctx context.Context, therapistID string, from, to time.Time) ([]models.TherapistAvailability, error) {
	key := fmt.Sprintf("availability:%s:%s:%s", therapistID, dateKey(from), dateKey(to))
	var rows []models.TherapistAvailability
	if s.cache.Enabled() {
		if hit, err := s.cache.Get(ctx, key, &rows); err == nil && hit {
			return rows, nil
		}
	}
	rows, err := s.availability.ListByTherapistRange(ctx, therapistID, from, to)
	if err != nil {
		return nil, err
	}
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, rows, s.cacheTTL)
	}
	return rows, nil
}

func rowApplies(row models.TherapistAvailability, day time.Time, weekday int) bool {
	if row.SpecificDate != nil {
		return dateKey(*row.SpecificDate) == dateKey(day)
	}
	return row.IsRecurring && row.DayOfWeek == weekday
}

type busySpan struct {
	start, end int
}

// subtractSpans removes every blocked span from the window, returning the
// remaining open pieces in ascending order.
func subtractSpans(window busySpan, blocked []busySpan) []busySpan {
	open := []busySpan{window}
	for _, b := range blocked {
		var next []busySpan
		for _, o := range open {
			if !overlaps(o.start, o.end, b.start, b.end) {
				next = append(next, o)
				continue
			}
			if b.start > o.start {
				next = append(next, busySpan{start: o.start, end: b.start})
			}
			if b.end < o.end {
				next = append(next, busySpan{start: b.end, end: o.end})
			}
		}
		open = next
	}
	return open
}
