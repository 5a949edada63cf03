package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/reconciler"
)

// ReportHandler serves the derived aggregates: adherence, bleeding streaks,
// daily counts, and the badge number.
type ReportHandler struct {
	reconciler *reconciler.Reconciler
}

func NewReportHandler(rec *reconciler.Reconciler) *ReportHandler {
	return &ReportHandler{reconciler: rec}
}

func windowDays(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return 0, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "days must be a positive integer")
		return 0, false
	}
	return days, true
}

func (h *ReportHandler) HandleAdherence(c *gin.Context) {
	days, ok := windowDays(c)
	if !ok {
		return
	}

	report, err := h.reconciler.Adherence(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		if errors.Is(err, domain.ErrMedicationNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "medication not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to compute adherence")
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) HandleBleedingStatus(c *gin.Context) {
	days, ok := windowDays(c)
	if !ok {
		return
	}

	status, err := h.reconciler.Bleeding(c.Request.Context(), days)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to compute bleeding status")
		return
	}

	c.JSON(http.StatusOK, status)
}

type recordBleedingRequest struct {
	Day   string `json:"day"`
	Level string `json:"level"`
}

func (h *ReportHandler) HandleRecordBleeding(c *gin.Context) {
	var req recordBleedingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	err := h.reconciler.RecordBleeding(c.Request.Context(), req.Day, domain.Severity(req.Level))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSeverity):
			respondError(c, http.StatusBadRequest, "validation_error", "level must be one of none, light, moderate, heavy")
		case errors.Is(err, domain.ErrInvalidDayKey):
			respondError(c, http.StatusBadRequest, "validation_error", "day must be YYYY-MM-DD")
		default:
			respondError(c, http.StatusInternalServerError, "processing_error", "failed to record bleeding level")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"day": req.Day, "level": req.Level})
}

func (h *ReportHandler) HandleDailyCounts(c *gin.Context) {
	days, ok := windowDays(c)
	if !ok {
		return
	}

	counts, err := h.reconciler.DailyCounts(c.Request.Context(), days)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to compute daily counts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": counts})
}

func (h *ReportHandler) HandleBadge(c *gin.Context) {
	count, err := h.reconciler.UntakenToday(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to compute badge count")
		return
	}

	c.JSON(http.StatusOK, gin.H{"untaken_today": count})
}
