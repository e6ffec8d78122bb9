package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/api/middleware"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/services"
)

// ReportHandler serves CSV exports.
type ReportHandler struct {
	reportService services.IReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.IReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// BookingsCSV handles GET /v1/reports/bookings.csv. Hosts get their own
// listings' bookings; admins get everything. The same query filters as the
// booking list apply.
func (h *ReportHandler) BookingsCSV(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	filter, ok := bookingFilterFromQuery(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("bookings_%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.reportService.WriteBookingsCSV(c.Request.Context(), principal, filter, c.Writer); err != nil {
		// Headers may already be out; only write a JSON error if nothing
		// was flushed yet.
		if !c.Writer.Written() {
			writeError(c, err)
			return
		}
		c.Status(http.StatusInternalServerError)
	}
}
