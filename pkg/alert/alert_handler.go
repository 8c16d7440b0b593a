package alert

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/rest"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type AlertDTO struct {
	Id          int            `json:"id"`
	Type        string         `json:"type"`
	Message     string         `json:"message"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Read        bool           `json:"read"`
	TriggeredAt time.Time      `json:"triggeredAt"`
}

type Handler struct {
	service Service
}

func NewAlertHandler(service Service) *Handler {
	return &Handler{service}
}

// ListAlerts godoc
// @Summary List alerts
// @Description Latest 50 alerts of the current user, newest first
// @Tags Alert
// @Produce json
// @Success 200 {array} AlertDTO
// @Router /api/alert [get]
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing alerts")
	alerts, err := h.service.ListAlerts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]AlertDTO, 0, len(alerts))
	for _, alert := range alerts {
		dtos = append(dtos, ToDTO(alert))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// MarkRead godoc
// @Summary Mark an alert as read
// @Tags Alert
// @Param alertId path int true "Alert ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/alert/{alertId}/read [patch]
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["alertId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid alert id", "")
		return
	}
	log.Debugf("Marking alert %d as read", id)
	if err := h.service.MarkRead(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead godoc
// @Summary Mark all alerts as read
// @Tags Alert
// @Success 204 "No Content"
// @Router /api/alert/read [patch]
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	log.Debug("Marking all alerts as read")
	if err := h.service.MarkAllRead(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAlertNotFound):
		rest.WriteError(w, http.StatusNotFound, "Alert not found", "")
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
	default:
		log.Errorf("alert request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not process alerts", "")
	}
}

func ToDTO(alert Alert) AlertDTO {
	return AlertDTO{
		Id:          alert.Id,
		Type:        string(alert.Type),
		Message:     alert.Message,
		Metadata:    alert.Metadata,
		Read:        alert.Read,
		TriggeredAt: alert.TriggeredAt,
	}
}
