package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
	appErrors "github.com/Alnumo/IEP-Management-System-sub012/pkg/errors"
)

// CapacityService validates single assignments against therapist availability
// and tracks post-assignment load.
type CapacityService struct {
	indexes *AvailabilityIndexService
	logger  *zap.Logger
}

// NewCapacityService wires the capacity validator.
func NewCapacityService(indexes *AvailabilityIndexService, logger *zap.Logger) *CapacityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityService{indexes: indexes, logger: logger}
}

// ValidateAssignment checks whether one proposed session fits the therapist's
// open availability on that date. The result always includes the therapist's
// utilization so callers can surface load alongside the verdict.
func (s *CapacityService) ValidateAssignment(ctx context.Context, req dto.CapacityCheckRequest) (*dto.CapacityCheckResult, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			"date must be in YYYY-MM-DD format", "يجب أن يكون التاريخ بصيغة YYYY-MM-DD")
	}
	startMin, err := parseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			"start time must be in HH:MM format", "يجب أن يكون وقت البداية بصيغة HH:MM")
	}
	endMin, err := parseClock(req.EndTime)
	if err != nil || endMin <= startMin {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			"end time must be in HH:MM format and after start time", "يجب أن يكون وقت النهاية بصيغة HH:MM وبعد وقت البداية")
	}

	idx, err := s.indexes.Build(ctx, req.TherapistID, date, date)
	if err != nil {
		return nil, err
	}

	result := &dto.CapacityCheckResult{Utilization: idx.Utilization()}
	for _, open := range idx.OpenOn(date) {
		if startMin >= open.StartMin && endMin <= open.EndMin && open.Capacity > 0 {
			result.Allowed = true
			booked := float64(idx.windowMinutes-idx.openMinutes) + float64(endMin-startMin)
			if idx.windowMinutes > 0 {
				result.Utilization = booked / float64(idx.windowMinutes)
			}
			return result, nil
		}
	}

	result.Reason = &models.LocalizedMessage{
		Field: "therapistId",
		En:    fmt.Sprintf("therapist %s is not available on %s between %s and %s", req.TherapistID, req.Date, req.StartTime, req.EndTime),
		Ar:    fmt.Sprintf("المعالج %s غير متاح في %s بين %s و%s", req.TherapistID, req.Date, req.StartTime, req.EndTime),
	}
	return result, nil
}
