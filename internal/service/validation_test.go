package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
)

func validRequest() dto.SchedulingRequest {
	return dto.SchedulingRequest{
		SubscriptionID:         "sub-1",
		StartDate:              "2024-06-01",
		EndDate:                "2024-06-30",
		TotalSessions:          8,
		SessionDurationMinutes: 45,
		SessionsPerWeek:        2,
	}
}

func TestValidateSchedulingRequestValid(t *testing.T) {
	result := ValidateSchedulingRequest(validRequest())
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateSchedulingRequestCollectsAllErrors(t *testing.T) {
	req := dto.SchedulingRequest{
		StartDate: "June 1st",
		EndDate:   "2024-06-30",
	}
	result := ValidateSchedulingRequest(req)
	require.False(t, result.IsValid)

	fields := make(map[string]bool)
	for _, e := range result.Errors {
		fields[e.Field] = true
		assert.NotEmpty(t, e.En)
		assert.NotEmpty(t, e.Ar)
	}
	assert.True(t, fields["subscriptionId"])
	assert.True(t, fields["startDate"])
	assert.True(t, fields["totalSessions"])
	assert.True(t, fields["sessionDurationMinutes"])
	assert.True(t, fields["sessionsPerWeek"])
}

func TestValidateSchedulingRequestEndBeforeStart(t *testing.T) {
	req := validRequest()
	req.StartDate = "2024-06-30"
	req.EndDate = "2024-06-01"
	result := ValidateSchedulingRequest(req)
	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "endDate", result.Errors[0].Field)
}

func TestValidateSchedulingRequestDayRange(t *testing.T) {
	req := validRequest()
	req.AvoidDays = []int{7}
	result := ValidateSchedulingRequest(req)
	require.False(t, result.IsValid)
	assert.Equal(t, "preferredDays", result.Errors[0].Field)
}

func TestValidateSchedulingRequestTimeWindows(t *testing.T) {
	req := validRequest()
	req.PreferredTimes = []dto.TimeWindow{{StartTime: "10:00", EndTime: "09:00"}}
	result := ValidateSchedulingRequest(req)
	require.False(t, result.IsValid)
	assert.Equal(t, "preferredTimes", result.Errors[0].Field)
}
