package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/budgetwatch/budgetwatch/internal/rest"
	"github.com/budgetwatch/budgetwatch/internal/validation"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/settings"
	"github.com/budgetwatch/budgetwatch/pkg/whatsapp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ExpenseRequestDTO struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	LogoUrl     string          `json:"logoUrl,omitempty"`
	Value       decimal.Decimal `json:"value"`
	Frequency   string          `json:"frequency"`
}

type ExpenseCreatedDTO struct {
	Success   bool    `json:"success"`
	Id        int     `json:"id"`
	Title     string  `json:"title"`
	Value     float64 `json:"value"`
	Frequency string  `json:"frequency"`
}

type CredentialsDTO struct {
	Valid  bool `json:"valid"`
	UserId int  `json:"userId,omitempty"`
}

type RequestCodeDTO struct {
	Phone string `json:"phone"`
}

type CodeIssuedDTO struct {
	Code             string `json:"code"`
	ExpiresInMinutes int    `json:"expiresInMinutes"`
	Sent             bool   `json:"sent"`
}

type VerifyCodeDTO struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type VerifiedDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handler serves the public API used by external automations. Callers authenticate
// with an integration API key or a verified phone number instead of a session.
type Handler struct {
	settings settings.Service
	expenses expense.Service
	whatsapp whatsapp.Client
}

func NewIntegrationHandler(settingsService settings.Service, expenseService expense.Service, whatsappClient whatsapp.Client) *Handler {
	return &Handler{settings: settingsService, expenses: expenseService, whatsapp: whatsappClient}
}

func apiKeyFrom(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// resolveOwner tries the API key first, then the X-Phone header. found is false when neither matches.
func (h *Handler) resolveOwner(r *http.Request) (userId int, found bool, err error) {
	if apiKey := apiKeyFrom(r); apiKey != "" {
		userId, err := h.settings.FindOwnerByApiKey(r.Context(), apiKey)
		if err == nil {
			return userId, true, nil
		}
		if !errors.Is(err, settings.ErrSettingsNotFound) {
			return 0, false, err
		}
	}
	if phone := strings.TrimSpace(r.Header.Get("X-Phone")); phone != "" {
		userId, err := h.settings.FindOwnerByVerifiedPhone(r.Context(), phone)
		if err == nil {
			return userId, true, nil
		}
		if !errors.Is(err, settings.ErrSettingsNotFound) {
			return 0, false, err
		}
	}
	return 0, false, nil
}

// CreateExpense godoc
// @Summary Create an expense from an integration
// @Description Authenticate with X-API-Key, Authorization: Bearer <key> or X-Phone (verified). Value may be a number or a numeric string.
// @Tags Integration
// @Accept json
// @Produce json
// @Param expense body ExpenseRequestDTO true "Expense"
// @Success 201 {object} ExpenseCreatedDTO
// @Failure 400 {object} rest.ValidationErrorResponse
// @Failure 401 {object} rest.ErrorResponse
// @Router /api/integrations/expenses [post]
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	log.Debug("Integration: creating expense")
	userId, found, err := h.resolveOwner(r)
	if err != nil {
		log.Errorf("integration credential lookup failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal error", "")
		return
	}
	if !found {
		rest.WriteError(w, http.StatusUnauthorized,
			"Unauthorized", "Send X-API-Key (or Authorization: Bearer <key>) or X-Phone with a verified phone")
		return
	}

	var dto ExpenseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense data", err.Error())
		return
	}

	created, err := h.expenses.CreateExpenseFor(r.Context(), userId, expense.Expense{
		Title:       dto.Title,
		Description: dto.Description,
		LogoUrl:     dto.LogoUrl,
		Value:       dto.Value,
		Frequency:   expense.Frequency(dto.Frequency),
	})
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			rest.WriteJSON(w, http.StatusBadRequest, rest.ValidationErrorResponse{Error: "Invalid expense data", Fields: verr.Fields})
			return
		}
		log.Errorf("integration expense creation failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal error", "")
		return
	}

	log.Infof("Integration expense %d created for user %d", created.Id, userId)
	rest.WriteJSON(w, http.StatusCreated, ExpenseCreatedDTO{
		Success:   true,
		Id:        created.Id,
		Title:     created.Title,
		Value:     created.Value.InexactFloat64(),
		Frequency: string(created.Frequency),
	})
}

// ValidateCredentials godoc
// @Summary Check integration credentials
// @Tags Integration
// @Produce json
// @Success 200 {object} CredentialsDTO
// @Router /api/integrations/expenses [get]
func (h *Handler) ValidateCredentials(w http.ResponseWriter, r *http.Request) {
	userId, found, err := h.resolveOwner(r)
	if err != nil {
		log.Errorf("integration credential lookup failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal error", "")
		return
	}
	if !found {
		rest.WriteJSON(w, http.StatusOK, CredentialsDTO{Valid: false})
		return
	}
	rest.WriteJSON(w, http.StatusOK, CredentialsDTO{Valid: true, UserId: userId})
}

// RequestWhatsappCode godoc
// @Summary Issue a phone verification code and send it over WhatsApp
// @Description When the WhatsApp gateway is unavailable the code is still returned with sent=false so the caller can deliver it.
// @Tags Integration
// @Accept json
// @Produce json
// @Param body body RequestCodeDTO true "Phone"
// @Success 200 {object} CodeIssuedDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse "Phone not registered"
// @Router /api/integrations/whatsapp/request-code [post]
func (h *Handler) RequestWhatsappCode(w http.ResponseWriter, r *http.Request) {
	var dto RequestCodeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid data", err.Error())
		return
	}
	phone := strings.TrimSpace(dto.Phone)
	if phone == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.ValidationErrorResponse{
			Error:  "Invalid data",
			Fields: map[string][]string{"phone": {"phone is required"}},
		})
		return
	}

	code, _, err := h.settings.IssueCodeForPhone(r.Context(), phone)
	if err != nil {
		if errors.Is(err, settings.ErrSettingsNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Phone not registered", "Register the phone in the platform settings first")
			return
		}
		log.Errorf("failed to issue verification code: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal error", "")
		return
	}

	minutes := int(settings.CodeExpiry.Minutes())
	message := fmt.Sprintf("Your verification code is: *%s*\n\nValid for %d minutes.", code, minutes)
	sent := true
	if err := h.whatsapp.SendText(r.Context(), phone, message); err != nil {
		log.Warnf("verification code not sent over whatsapp: %v", err)
		sent = false
	}

	rest.WriteJSON(w, http.StatusOK, CodeIssuedDTO{Code: code, ExpiresInMinutes: minutes, Sent: sent})
}

// VerifyWhatsappCode godoc
// @Summary Verify a phone with the code the user sent over WhatsApp
// @Tags Integration
// @Accept json
// @Produce json
// @Param body body VerifyCodeDTO true "Phone and code"
// @Success 200 {object} VerifiedDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid or expired code"
// @Router /api/integrations/whatsapp/verify [post]
func (h *Handler) VerifyWhatsappCode(w http.ResponseWriter, r *http.Request) {
	var dto VerifyCodeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid data", err.Error())
		return
	}
	verr := validation.New()
	if strings.TrimSpace(dto.Phone) == "" {
		verr.Add("phone", "phone is required")
	}
	if len(dto.Code) != 6 {
		verr.Add("code", "code must have 6 digits")
	}
	if verr.HasErrors() {
		rest.WriteJSON(w, http.StatusBadRequest, rest.ValidationErrorResponse{Error: "Invalid data", Fields: verr.Fields})
		return
	}

	err := h.settings.VerifyPhoneCode(r.Context(), strings.TrimSpace(dto.Phone), dto.Code)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidCode) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid or expired code", "Request a new code in the platform")
			return
		}
		log.Errorf("failed to verify phone: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal error", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, VerifiedDTO{Success: true, Message: "Phone verified."})
}
