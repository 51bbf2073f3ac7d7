package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Alnumo/IEP-Management-System-sub012/pkg/response"
)

type sessionExporter interface {
	ExportSessions(ctx context.Context, studentID, format string) ([]byte, string, error)
}

// ExportHandler streams session calendar exports.
type ExportHandler struct {
	service sessionExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(service sessionExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Sessions renders a student's session calendar as csv (default) or pdf.
func (h *ExportHandler) Sessions(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.ExportSessions(c.Request.Context(), c.Query("studentId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("sessions-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
