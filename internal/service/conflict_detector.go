package service

import (
	"time"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

const (
	resourceTherapist = "therapist"
	resourceRoom      = "room"
	resourceStudent   = "student"
)

type busyInterval struct {
	startMin, endMin int
	sessionID        string
}

// ConflictDetector decides overlap against committed sessions. It is loaded
// once per run with every session that could collide, indexed by resource and
// date, so a single check is a slice scan instead of a storage query.
// Therapist intervals are stored with the buffer already applied to their end.
type ConflictDetector struct {
	busy    map[string][]busyInterval
	buffers map[string]int
}

// NewConflictDetector builds an empty detector. buffers maps therapist id to
// the buffer minutes appended after each of their sessions.
func NewConflictDetector(buffers map[string]int) *ConflictDetector {
	if buffers == nil {
		buffers = make(map[string]int)
	}
	return &ConflictDetector{
		busy:    make(map[string][]busyInterval),
		buffers: buffers,
	}
}

// Load indexes committed sessions. Safe to call multiple times with disjoint sets.
func (d *ConflictDetector) Load(sessions []models.ScheduledSession) {
	for _, session := range sessions {
		start, startErr := parseClock(session.StartTime)
		end, endErr := parseClock(session.EndTime)
		if startErr != nil || endErr != nil {
			continue
		}
		roomID := ""
		if session.RoomID != nil {
			roomID = *session.RoomID
		}
		d.mark(session.Date, start, end, session.TherapistID, roomID, session.StudentID, session.ID)
	}
}

// Check returns the first conflict for the candidate interval, or nil when the
// slot is free for all three resources.
func (d *ConflictDetector) Check(date time.Time, startMin, endMin int, therapistID, roomID, studentID string) *dto.ConflictDetail {
	day := dateKey(date)
	probes := []struct {
		resource string
		id       string
	}{
		{resourceTherapist, therapistID},
		{resourceRoom, roomID},
		{resourceStudent, studentID},
	}
	for _, probe := range probes {
		if probe.id == "" {
			continue
		}
		for _, busy := range d.busy[probe.resource+":"+probe.id+":"+day] {
			if overlaps(startMin, endMin, busy.startMin, busy.endMin) {
				return &dto.ConflictDetail{
					Resource:   probe.resource,
					ResourceID: probe.id,
					Date:       day,
					StartTime:  formatClock(busy.startMin),
					EndTime:    formatClock(busy.endMin),
					SessionID:  busy.sessionID,
				}
			}
		}
	}
	return nil
}

// Commit marks the interval busy for the remainder of the run so later
// candidates in the same assembly cannot double-book it.
func (d *ConflictDetector) Commit(date time.Time, startMin, endMin int, therapistID, roomID, studentID string) {
	d.mark(date, startMin, endMin, therapistID, roomID, studentID, "")
}

func (d *ConflictDetector) mark(date time.Time, startMin, endMin int, therapistID, roomID, studentID, sessionID string) {
	day := dateKey(date)
	therapistEnd := endMin + d.buffers[therapistID]
	d.add(resourceTherapist, therapistID, day, busyInterval{startMin: startMin, endMin: therapistEnd, sessionID: sessionID})
	if roomID != "" {
		d.add(resourceRoom, roomID, day, busyInterval{startMin: startMin, endMin: endMin, sessionID: sessionID})
	}
	if studentID != "" {
		d.add(resourceStudent, studentID, day, busyInterval{startMin: startMin, endMin: endMin, sessionID: sessionID})
	}
}

func (d *ConflictDetector) add(resource, id, day string, interval busyInterval) {
	if id == "" {
		return
	}
	key := resource + ":" + id + ":" + day
	d.busy[key] = append(d.busy[key], interval)
}
