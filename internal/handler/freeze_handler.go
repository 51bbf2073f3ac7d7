package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/dto"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
	appErrors "github.com/Alnumo/IEP-Management-System-sub012/pkg/errors"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/response"
)

type freezeCoordinator interface {
	Preview(ctx context.Context, subscriptionID string, req dto.FreezeRequest) (*dto.FreezePreview, error)
	Freeze(ctx context.Context, subscriptionID, actor string, req dto.FreezeRequest) (*dto.FreezeResult, error)
	History(ctx context.Context, subscriptionID string) ([]models.FreezeRecord, error)
}

// FreezeHandler exposes subscription freeze endpoints.
type FreezeHandler struct {
	service freezeCoordinator
}

// NewFreezeHandler constructs the handler.
func NewFreezeHandler(service freezeCoordinator) *FreezeHandler {
	return &FreezeHandler{service: service}
}

// Preview performs a read-only dry run of a freeze.
func (h *FreezeHandler) Preview(c *gin.Context) {
	req := dto.FreezeRequest{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Reason:    c.Query("reason"),
	}
	preview, err := h.service.Preview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview)
}

// Freeze applies a freeze to the subscription.
func (h *FreezeHandler) Freeze(c *gin.Context) {
	var req dto.FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid freeze payload"))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "freeze payload failed validation"))
		return
	}
	actor := c.GetHeader("X-Actor-Id")
	result, err := h.service.Freeze(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// History lists the subscription's freeze records, newest first.
func (h *FreezeHandler) History(c *gin.Context) {
	records, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}
