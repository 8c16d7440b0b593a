package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/rest"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	log "github.com/sirupsen/logrus"
)

type SettingsDTO struct {
	WarningLimitPercent          int    `json:"warningLimitPercent"`
	EmailNotificationsEnabled    bool   `json:"emailNotificationsEnabled"`
	Phone                        string `json:"phone,omitempty"`
	PhoneVerified                bool   `json:"phoneVerified"`
	WhatsappNotificationsEnabled bool   `json:"whatsappNotificationsEnabled"`
	IntegrationApiKey            string `json:"integrationApiKey,omitempty"`
}

type WarningLimitDTO struct {
	WarningLimitPercent int `json:"warningLimitPercent"`
}

type ToggleDTO struct {
	Enabled bool `json:"enabled"`
}

type PhoneDTO struct {
	Phone string `json:"phone"`
}

type VerificationCodeDTO struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ApiKeyDTO struct {
	ApiKey string `json:"apiKey"`
}

type Handler struct {
	service Service
}

func NewSettingsHandler(service Service) *Handler {
	return &Handler{service}
}

// GetSettings godoc
// @Summary Get settings
// @Description Returns stored settings or the defaults when none were saved
// @Tags Settings
// @Produce json
// @Success 200 {object} SettingsDTO
// @Router /api/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting settings")
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(settings))
}

// UpdateWarningLimit godoc
// @Summary Update warning limit
// @Tags Settings
// @Accept json
// @Produce json
// @Param body body WarningLimitDTO true "Warning limit (1-99)"
// @Success 200 {object} SettingsDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/settings/warning-limit [put]
func (h *Handler) UpdateWarningLimit(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating warning limit")
	var dto WarningLimitDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	settings, err := h.service.UpdateWarningLimit(r.Context(), dto.WarningLimitPercent)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(settings))
}

// UpdateEmailNotifications godoc
// @Summary Enable or disable email notifications
// @Tags Settings
// @Accept json
// @Produce json
// @Param body body ToggleDTO true "Toggle"
// @Success 200 {object} SettingsDTO
// @Router /api/settings/email-notifications [put]
func (h *Handler) UpdateEmailNotifications(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.UpdateEmailNotifications)
}

// UpdateWhatsappNotifications godoc
// @Summary Enable or disable WhatsApp notifications
// @Tags Settings
// @Accept json
// @Produce json
// @Param body body ToggleDTO true "Toggle"
// @Success 200 {object} SettingsDTO
// @Router /api/settings/whatsapp-notifications [put]
func (h *Handler) UpdateWhatsappNotifications(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.UpdateWhatsappNotifications)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, enabled bool) (Settings, error)) {
	var dto ToggleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	settings, err := apply(r.Context(), dto.Enabled)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(settings))
}

// UpdatePhone godoc
// @Summary Set or remove the phone number
// @Description Phone must use E.164 format. An empty phone removes it. Verification is reset.
// @Tags Settings
// @Accept json
// @Produce json
// @Param body body PhoneDTO true "Phone"
// @Success 200 {object} SettingsDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/settings/phone [put]
func (h *Handler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating phone")
	var dto PhoneDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	settings, err := h.service.UpdatePhone(r.Context(), dto.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(settings))
}

// RequestPhoneVerification godoc
// @Summary Issue a phone verification code
// @Tags Settings
// @Produce json
// @Success 200 {object} VerificationCodeDTO
// @Failure 400 {object} rest.ErrorResponse "No phone registered"
// @Router /api/settings/phone/verification [post]
func (h *Handler) RequestPhoneVerification(w http.ResponseWriter, r *http.Request) {
	log.Debug("Requesting phone verification")
	code, expiresAt, err := h.service.RequestPhoneVerification(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, VerificationCodeDTO{Code: code, ExpiresAt: expiresAt})
}

// GenerateApiKey godoc
// @Summary Generate a new integration API key
// @Description Replaces any previous key
// @Tags Settings
// @Produce json
// @Success 200 {object} ApiKeyDTO
// @Router /api/settings/api-key [post]
func (h *Handler) GenerateApiKey(w http.ResponseWriter, r *http.Request) {
	log.Debug("Generating integration api key")
	apiKey, err := h.service.GenerateIntegrationApiKey(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ApiKeyDTO{ApiKey: apiKey})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidWarningLimit), errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrPhoneRequired):
		rest.WriteError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
	default:
		log.Errorf("settings request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not update settings", "")
	}
}

func ToDTO(settings Settings) SettingsDTO {
	return SettingsDTO{
		WarningLimitPercent:          settings.WarningLimitPercent,
		EmailNotificationsEnabled:    settings.EmailNotificationsEnabled,
		Phone:                        settings.Phone,
		PhoneVerified:                settings.PhoneVerified,
		WhatsappNotificationsEnabled: settings.WhatsappNotificationsEnabled,
		IntegrationApiKey:            settings.IntegrationApiKey,
	}
}
