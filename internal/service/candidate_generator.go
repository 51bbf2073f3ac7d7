package service

import (
	"time"
)

// CandidateSlot is one feasible (date, start, end) pairing for a session.
type CandidateSlot struct {
	TherapistID   string
	Date          time.Time
	StartMin      int
	EndMin        int
	WindowStart   int
	Capacity      int
	BufferMinutes int
}

// CandidateGroup is the unit the assembler commits atomically. Groups hold a
// single slot unless the request demands consecutive sessions, in which case
// adjacent slots of one day travel together.
type CandidateGroup struct {
	Slots []CandidateSlot
}

type clockWindow struct {
	startMin, endMin int
}

// GeneratorParams drives candidate enumeration. Days of week are 0 (Sunday)
// through 6 (Saturday); an empty PreferredDays means every day not avoided.
type GeneratorParams struct {
	From, To             time.Time
	TotalSessions        int
	DurationMinutes      int
	PreferredDays        []int
	AvoidDays            []int
	PreferredTimes       []clockWindow
	AvoidTimes           []clockWindow
	RequiresConsecutive  bool
	ConsecutiveCount     int
	MaxSessionsPerDay    int
	OverGenerationFactor int
}

// GenerateCandidates walks every date in range across the supplied therapist
// indexes and emits candidate groups sized to the session duration. It
// over-generates relative to TotalSessions so the optimizer ranks a pool large
// enough to survive conflict rejections. The function is pure: it reads the
// prebuilt indexes and touches no storage.
func GenerateCandidates(params GeneratorParams, indexes []*AvailabilityIndex) []CandidateGroup {
	if params.TotalSessions <= 0 || params.DurationMinutes <= 0 || params.To.Before(params.From) {
		return nil
	}
	factor := params.OverGenerationFactor
	if factor <= 0 {
		factor = 3
	}
	maxGroups := params.TotalSessions * factor

	consecutive := 1
	if params.RequiresConsecutive {
		consecutive = params.ConsecutiveCount
		if consecutive < 2 {
			consecutive = 2
		}
	}

	preferred := daySet(params.PreferredDays)
	avoided := daySet(params.AvoidDays)

	var groups []CandidateGroup
	from := truncateDate(params.From)
	to := truncateDate(params.To)

	for day := from; !day.After(to) && len(groups) < maxGroups; day = day.AddDate(0, 0, 1) {
		weekday := int(day.Weekday())
		if avoided[weekday] {
			continue
		}
		if len(preferred) > 0 && !preferred[weekday] {
			continue
		}

		for _, idx := range indexes {
			if len(groups) >= maxGroups {
				break
			}
			perDay := 0
			var run []CandidateSlot

			for _, open := range idx.OpenOn(day) {
				for _, window := range intersectWindows(open, params.PreferredTimes) {
					start := window.startMin
					for start+params.DurationMinutes <= window.endMin {
						end := start + params.DurationMinutes
						if hitsAvoidTime(start, end, params.AvoidTimes) {
							start += params.DurationMinutes
							continue
						}
						if params.MaxSessionsPerDay > 0 && perDay >= params.MaxSessionsPerDay {
							break
						}
						slot := CandidateSlot{
							TherapistID:   idx.TherapistID,
							Date:          day,
							StartMin:      start,
							EndMin:        end,
							WindowStart:   open.WindowStart,
							Capacity:      open.Capacity,
							BufferMinutes: open.BufferMinutes,
						}
						perDay++

						if consecutive == 1 {
							groups = append(groups, CandidateGroup{Slots: []CandidateSlot{slot}})
						} else {
							if len(run) > 0 && run[len(run)-1].EndMin != slot.StartMin {
								run = nil
							}
							run = append(run, slot)
							if len(run) == consecutive {
								group := CandidateGroup{Slots: append([]CandidateSlot(nil), run...)}
								groups = append(groups, group)
								run = nil
							}
						}
						if len(groups) >= maxGroups {
							break
						}
						start = end
					}
					if len(groups) >= maxGroups {
						break
					}
				}
				if len(groups) >= maxGroups {
					break
				}
			}
		}
	}

	return groups
}

func daySet(days []int) map[int]bool {
	set := make(map[int]bool, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			set[d] = true
		}
	}
	return set
}

// intersectWindows clips an open interval to the preferred clock windows. With
// no preference the whole interval qualifies.
func intersectWindows(open OpenInterval, preferred []clockWindow) []clockWindow {
	if len(preferred) == 0 {
		return []clockWindow{{startMin: open.StartMin, endMin: open.EndMin}}
	}
	var result []clockWindow
	for _, p := range preferred {
		start := open.StartMin
		if p.startMin > start {
			start = p.startMin
		}
		end := open.EndMin
		if p.endMin < end {
			end = p.endMin
		}
		if end > start {
			result = append(result, clockWindow{startMin: start, endMin: end})
		}
	}
	return result
}

func hitsAvoidTime(start, end int, avoid []clockWindow) bool {
	for _, w := range avoid {
		if overlaps(start, end, w.startMin, w.endMin) {
			return true
		}
	}
	return false
}
