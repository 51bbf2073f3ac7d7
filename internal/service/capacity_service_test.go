package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
	appErrors "github.com/Alnumo/IEP-Management-System-sub012/pkg/errors"
)

func newCapacityFixture(rows []models.TherapistAvailability, booked []models.ScheduledSession) *CapacityService {
	availability := &stubAvailabilityRepo{rows: map[string][]models.TherapistAvailability{"th-1": rows}}
	sessions := &stubSessionReader{sessions: map[string][]models.ScheduledSession{"th-1": booked}}
	indexes := NewAvailabilityIndexService(availability, sessions, disabledCache(), 0, nil)
	return NewCapacityService(indexes, nil)
}

func TestValidateAssignmentAllowed(t *testing.T) {
	svc := newCapacityFixture(weekdayWindows("th-1", 1), nil)

	result, err := svc.ValidateAssignment(context.Background(), dto.CapacityCheckRequest{
		TherapistID: "th-1",
		Date:        "2024-06-03",
		StartTime:   "09:00",
		EndTime:     "09:45",
	})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.InDelta(t, 0.25, result.Utilization, 1e-9)
	assert.Nil(t, result.Reason)
}

func TestValidateAssignmentOutsideAvailability(t *testing.T) {
	svc := newCapacityFixture(weekdayWindows("th-1", 1), nil)

	result, err := svc.ValidateAssignment(context.Background(), dto.CapacityCheckRequest{
		TherapistID: "th-1",
		Date:        "2024-06-04", // Tuesday, no window
		StartTime:   "09:00",
		EndTime:     "09:45",
	})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	require.NotNil(t, result.Reason)
	assert.NotEmpty(t, result.Reason.En)
	assert.NotEmpty(t, result.Reason.Ar)
}

func TestValidateAssignmentBookedSlot(t *testing.T) {
	svc := newCapacityFixture(weekdayWindows("th-1", 1), []models.ScheduledSession{{
		TherapistID: "th-1",
		Date:        day("2024-06-03"),
		StartTime:   "09:00",
		EndTime:     "10:00",
	}})

	result, err := svc.ValidateAssignment(context.Background(), dto.CapacityCheckRequest{
		TherapistID: "th-1",
		Date:        "2024-06-03",
		StartTime:   "09:30",
		EndTime:     "10:15",
	})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestValidateAssignmentBadInput(t *testing.T) {
	svc := newCapacityFixture(weekdayWindows("th-1", 1), nil)

	_, err := svc.ValidateAssignment(context.Background(), dto.CapacityCheckRequest{
		TherapistID: "th-1",
		Date:        "yesterday",
		StartTime:   "09:00",
		EndTime:     "09:45",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)

	_, err = svc.ValidateAssignment(context.Background(), dto.CapacityCheckRequest{
		TherapistID: "th-1",
		Date:        "2024-06-03",
		StartTime:   "10:00",
		EndTime:     "09:00",
	})
	require.Error(t, err)
}
