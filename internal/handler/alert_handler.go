package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/scheduler"
)

// AlertHandler receives user actions on presented alerts and routes them to
// the background scheduler.
type AlertHandler struct {
	scheduler *scheduler.Scheduler
}

func NewAlertHandler(sched *scheduler.Scheduler) *AlertHandler {
	return &AlertHandler{scheduler: sched}
}

type alertActionRequest struct {
	Tag    string `json:"tag"`
	Action string `json:"action"`
}

func (h *AlertHandler) HandleAction(c *gin.Context) {
	ctx := c.Request.Context()

	var req alertActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if req.Tag == "" || req.Action == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "tag and action are required")
		return
	}

	if err := h.scheduler.HandleAction(ctx, req.Tag, req.Action); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrUnknownAlert):
			respondError(c, http.StatusNotFound, "not_found", "no fired alert for tag")
		case errors.Is(err, scheduler.ErrUnknownAction):
			respondError(c, http.StatusBadRequest, "validation_error", "unknown alert action")
		default:
			respondError(c, http.StatusInternalServerError, "processing_error", "failed to handle alert action")
		}
		return
	}

	slog.InfoContext(ctx, "alert action handled",
		slog.String("tag", req.Tag),
		slog.String("action", req.Action),
	)

	c.JSON(http.StatusOK, gin.H{"tag": req.Tag, "action": req.Action})
}

func (h *AlertHandler) HandleJobs(c *gin.Context) {
	medicationID := c.Query("medication_id")
	if medicationID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "medication_id is required")
		return
	}

	tags := h.scheduler.ScheduledJobs(medicationID)
	if tags == nil {
		tags = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"medication_id": medicationID, "jobs": tags})
}
