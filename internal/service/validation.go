package service

import (
	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
)

// ValidateSchedulingRequest checks a request before any storage access. It is
// a pure function: every failure is collected, so the caller can render the
// full bilingual error list in one round trip.
func ValidateSchedulingRequest(req dto.SchedulingRequest) dto.ValidationResult {
	var errs []models.LocalizedMessage

	if req.SubscriptionID == "" {
		errs = append(errs, models.LocalizedMessage{
			Field: "subscriptionId",
			En:    "subscription id is required",
			Ar:    "معرف الاشتراك مطلوب",
		})
	}

	start, startErr := parseDate(req.StartDate)
	if startErr != nil {
		errs = append(errs, models.LocalizedMessage{
			Field: "startDate",
			En:    "start date must be in YYYY-MM-DD format",
			Ar:    "يجب أن يكون تاريخ البداية بصيغة YYYY-MM-DD",
		})
	}
	end, endErr := parseDate(req.EndDate)
	if endErr != nil {
		errs = append(errs, models.LocalizedMessage{
			Field: "endDate",
			En:    "end date must be in YYYY-MM-DD format",
			Ar:    "يجب أن يكون تاريخ النهاية بصيغة YYYY-MM-DD",
		})
	}
	if startErr == nil && endErr == nil && !start.Before(end) {
		errs = append(errs, models.LocalizedMessage{
			Field: "endDate",
			En:    "end date must be after start date",
			Ar:    "يجب أن يكون تاريخ النهاية بعد تاريخ البداية",
		})
	}

	if req.TotalSessions <= 0 {
		errs = append(errs, models.LocalizedMessage{
			Field: "totalSessions",
			En:    "total sessions must be greater than zero",
			Ar:    "يجب أن يكون إجمالي الجلسات أكبر من صفر",
		})
	}
	if req.SessionDurationMinutes <= 0 {
		errs = append(errs, models.LocalizedMessage{
			Field: "sessionDurationMinutes",
			En:    "session duration must be greater than zero",
			Ar:    "يجب أن تكون مدة الجلسة أكبر من صفر",
		})
	}
	if req.SessionsPerWeek <= 0 {
		errs = append(errs, models.LocalizedMessage{
			Field: "sessionsPerWeek",
			En:    "sessions per week must be greater than zero",
			Ar:    "يجب أن يكون عدد الجلسات الأسبوعية أكبر من صفر",
		})
	}

	for _, d := range append(append([]int(nil), req.PreferredDays...), req.AvoidDays...) {
		if d < 0 || d > 6 {
			errs = append(errs, models.LocalizedMessage{
				Field: "preferredDays",
				En:    "days of week must be between 0 (Sunday) and 6 (Saturday)",
				Ar:    "يجب أن تكون أيام الأسبوع بين 0 (الأحد) و6 (السبت)",
			})
			break
		}
	}

	for _, window := range append(append([]dto.TimeWindow(nil), req.PreferredTimes...), req.AvoidTimes...) {
		startMin, sErr := parseClock(window.StartTime)
		endMin, eErr := parseClock(window.EndTime)
		if sErr != nil || eErr != nil || endMin <= startMin {
			errs = append(errs, models.LocalizedMessage{
				Field: "preferredTimes",
				En:    "time windows must use HH:MM with end after start",
				Ar:    "يجب أن تستخدم النوافذ الزمنية صيغة HH:MM مع نهاية بعد البداية",
			})
			break
		}
	}

	return dto.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
