package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yorunoha/okusuri-notification-scheduling/internal/domain"
	"github.com/yorunoha/okusuri-notification-scheduling/internal/reconciler"
)

type MedicationHandler struct {
	reconciler *reconciler.Reconciler
	store      domain.Store
}

func NewMedicationHandler(rec *reconciler.Reconciler, store domain.Store) *MedicationHandler {
	return &MedicationHandler{
		reconciler: rec,
		store:      store,
	}
}

type createMedicationRequest struct {
	Name     string   `json:"name"`
	Dosage   string   `json:"dosage"`
	Times    []string `json:"times"`
	Notes    string   `json:"notes"`
	Category string   `json:"category"`
}

type medicationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Times     []string  `json:"times"`
	Notes     string    `json:"notes,omitempty"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

func toMedicationResponse(med *domain.Medication) medicationResponse {
	return medicationResponse{
		ID:        med.ID,
		Name:      med.Name,
		Dosage:    med.Dosage,
		Times:     med.Times,
		Notes:     med.Notes,
		Category:  med.Category.String(),
		CreatedAt: med.CreatedAt,
	}
}

func (h *MedicationHandler) HandleCreate(c *gin.Context) {
	ctx := c.Request.Context()

	var req createMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	med, err := domain.NewMedication(req.Name, req.Dosage, req.Times, req.Notes, domain.Category(req.Category))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.reconciler.RegisterMedication(ctx, med); err != nil {
		slog.ErrorContext(ctx, "failed to register medication",
			slog.String("name", med.Name),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to register medication")
		return
	}

	slog.InfoContext(ctx, "medication registered",
		slog.String("medication_id", med.ID),
		slog.String("name", med.Name),
		slog.Int("dose_times", len(med.Times)),
	)

	c.JSON(http.StatusCreated, toMedicationResponse(med))
}

func (h *MedicationHandler) HandleList(c *gin.Context) {
	meds, err := h.store.ListMedications(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to list medications")
		return
	}

	resp := make([]medicationResponse, 0, len(meds))
	for _, med := range meds {
		resp = append(resp, toMedicationResponse(med))
	}
	c.JSON(http.StatusOK, gin.H{"medications": resp})
}

func (h *MedicationHandler) HandleGet(c *gin.Context) {
	med, err := h.store.GetMedication(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrMedicationNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "medication not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to load medication")
		return
	}

	c.JSON(http.StatusOK, toMedicationResponse(med))
}

func (h *MedicationHandler) HandleDelete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if err := h.reconciler.RemoveMedication(ctx, id); err != nil {
		if errors.Is(err, domain.ErrMedicationNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "medication not found")
			return
		}
		slog.ErrorContext(ctx, "failed to remove medication",
			slog.String("medication_id", id),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to remove medication")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

type markTakenRequest struct {
	Time string `json:"time"`
}

func (h *MedicationHandler) HandleMarkTaken(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req markTakenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}

	if err := h.reconciler.MarkTaken(ctx, id, req.Time); err != nil {
		switch {
		case errors.Is(err, domain.ErrMedicationNotFound):
			respondError(c, http.StatusNotFound, "not_found", "medication not found")
		case errors.Is(err, domain.ErrInvalidDoseTime):
			respondError(c, http.StatusBadRequest, "validation_error", "time must be HH:MM")
		default:
			respondError(c, http.StatusInternalServerError, "processing_error", "failed to record dose")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"medication_id": id, "recorded": true})
}
