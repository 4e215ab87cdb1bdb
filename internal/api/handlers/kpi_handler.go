// internal/api/handlers/kpi_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/farmakpi/backend-go/internal/domain"
	"github.com/farmakpi/backend-go/internal/service"
)

// KpiHandler serves the finalized KPI table. Reads go through KpiService;
// recomputation goes through ComputeService, which may be nil on read-only
// deployments.
type KpiHandler struct {
	kpis    *service.KpiService
	compute *service.ComputeService
}

func NewKpiHandler(kpis *service.KpiService, compute *service.ComputeService) *KpiHandler {
	return &KpiHandler{kpis: kpis, compute: compute}
}

// GetRecords returns the sorted record sequence for ?start=&end= (YYYY-MM-DD).
func (h *KpiHandler) GetRecords(c *gin.Context) {
	period, ok := parsePeriod(c)
	if !ok {
		return
	}

	records, err := h.kpis.GetRecords(c.Request.Context(), period)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get kpi records")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period_start": period.Start.Format("2006-01-02"),
		"period_end":   period.End.Format("2006-01-02"),
		"count":        len(records),
		"records":      records,
	})
}

// GetSummary returns class and flag counts for one period.
func (h *KpiHandler) GetSummary(c *gin.Context) {
	period, ok := parsePeriod(c)
	if !ok {
		return
	}

	summary, err := h.kpis.GetSummary(c.Request.Context(), period)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get kpi summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetPeriods lists the computed periods, newest first.
func (h *KpiHandler) GetPeriods(c *gin.Context) {
	periods, err := h.kpis.GetAvailablePeriods(c.Request.Context(), 30)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get available periods")
		return
	}

	out := make([]gin.H, 0, len(periods))
	for _, p := range periods {
		out = append(out, gin.H{
			"start": p.Start.Format("2006-01-02"),
			"end":   p.End.Format("2006-01-02"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"periods": out})
}

// Recompute re-runs the engine for one period and atomically replaces its
// rows. Concurrent recomputes of the same period are the caller's problem;
// disjoint periods are safe.
func (h *KpiHandler) Recompute(c *gin.Context) {
	if h.compute == nil {
		errorResponse(c, http.StatusServiceUnavailable, "recompute is not enabled on this deployment")
		return
	}

	period, ok := parsePeriod(c)
	if !ok {
		return
	}

	result, err := h.compute.ComputePeriod(c.Request.Context(), period)
	if err != nil {
		log.Error().Err(err).Msg("recompute failed")
		errorResponse(c, http.StatusInternalServerError, "recompute failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

func parsePeriod(c *gin.Context) (domain.Period, bool) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid or missing start date (YYYY-MM-DD)")
		return domain.Period{}, false
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid or missing end date (YYYY-MM-DD)")
		return domain.Period{}, false
	}
	if !start.Before(end) {
		errorResponse(c, http.StatusBadRequest, "start date must precede end date")
		return domain.Period{}, false
	}
	return domain.Period{Start: start, End: end}, true
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
