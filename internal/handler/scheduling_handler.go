package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	appErrors "github.com/Alnumo/IEP-Management-System-sub012/pkg/errors"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/response"
)

var validate = validator.New()

type scheduler interface {
	Validate(req dto.SchedulingRequest) dto.ValidationResult
	Generate(ctx context.Context, req dto.SchedulingRequest) (*dto.SchedulingResult, error)
}

type capacityChecker interface {
	ValidateAssignment(ctx context.Context, req dto.CapacityCheckRequest) (*dto.CapacityCheckResult, error)
}

// SchedulingHandler exposes the schedule validation, generation and capacity
// endpoints.
type SchedulingHandler struct {
	scheduler scheduler
	capacity  capacityChecker
}

// NewSchedulingHandler constructs the handler.
func NewSchedulingHandler(scheduler scheduler, capacity capacityChecker) *SchedulingHandler {
	return &SchedulingHandler{scheduler: scheduler, capacity: capacity}
}

// Validate runs the pure request checks and returns the bilingual error list.
// A well-formed request with invalid content still answers 200; the verdict is
// in the body.
func (h *SchedulingHandler) Validate(c *gin.Context) {
	var req dto.SchedulingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid validation payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.scheduler.Validate(req))
}

// Generate runs a full schedule generation for the subscription in the payload.
func (h *SchedulingHandler) Generate(c *gin.Context) {
	var req dto.SchedulingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid generate payload"))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "generate payload failed validation"))
		return
	}
	if validation := h.scheduler.Validate(req); !validation.IsValid {
		response.JSON(c, http.StatusBadRequest, validation)
		return
	}
	result, err := h.scheduler.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// CheckCapacity validates a single proposed assignment.
func (h *SchedulingHandler) CheckCapacity(c *gin.Context) {
	var req dto.CapacityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid capacity payload"))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "capacity payload failed validation"))
		return
	}
	result, err := h.capacity.ValidateAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
