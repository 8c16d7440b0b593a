package income

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/rest"
	"github.com/budgetwatch/budgetwatch/internal/validation"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type IncomeDTO struct {
	Id        int             `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Value     decimal.Decimal `json:"value"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Handler struct {
	service Service
}

func NewIncomeHandler(service Service) *Handler {
	return &Handler{service}
}

// ListIncomes godoc
// @Summary List incomes
// @Description Get all incomes of the current user, newest first
// @Tags Income
// @Produce json
// @Success 200 {array} IncomeDTO
// @Failure 401 {string} string "Unauthorized"
// @Router /api/income [get]
func (h *Handler) ListIncomes(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing incomes")
	incomes, err := h.service.ListIncomes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]IncomeDTO, 0, len(incomes))
	for _, income := range incomes {
		dtos = append(dtos, ToDTO(income))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateIncome godoc
// @Summary Create income
// @Tags Income
// @Accept json
// @Produce json
// @Param income body IncomeDTO true "Income"
// @Success 201 {object} IncomeDTO
// @Failure 400 {object} rest.ValidationErrorResponse
// @Router /api/income [post]
func (h *Handler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating income")
	var dto IncomeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	created, err := h.service.CreateIncome(r.Context(), FromDTO(dto))
	if err != nil {
		h.writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ToDTO(created))
}

// UpdateIncome godoc
// @Summary Update income
// @Tags Income
// @Accept json
// @Produce json
// @Param incomeId path int true "Income ID"
// @Param income body IncomeDTO true "Income"
// @Success 200 {object} IncomeDTO
// @Failure 400 {object} rest.ValidationErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/income/{incomeId} [put]
func (h *Handler) UpdateIncome(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating income")
	id, err := strconv.Atoi(mux.Vars(r)["incomeId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid income id", "")
		return
	}
	var dto IncomeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	income := FromDTO(dto)
	income.Id = id
	updated, err := h.service.UpdateIncome(r.Context(), income)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(updated))
}

// DeleteIncome godoc
// @Summary Delete income
// @Tags Income
// @Param incomeId path int true "Income ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/income/{incomeId} [delete]
func (h *Handler) DeleteIncome(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting income")
	id, err := strconv.Atoi(mux.Vars(r)["incomeId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid income id", "")
		return
	}
	if err := h.service.DeleteIncome(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		rest.WriteJSON(w, http.StatusBadRequest, rest.ValidationErrorResponse{Error: "Invalid income data", Fields: verr.Fields})
	case errors.Is(err, ErrIncomeNotFound):
		rest.WriteError(w, http.StatusNotFound, "Income not found", "")
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
	default:
		log.Errorf("income request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not process income", "")
	}
}

func ToDTO(income Income) IncomeDTO {
	return IncomeDTO{
		Id:        income.Id,
		Type:      string(income.Type),
		Title:     income.Title,
		Value:     income.Value,
		CreatedAt: income.CreatedAt,
	}
}

func FromDTO(dto IncomeDTO) Income {
	return Income{
		Id:    dto.Id,
		Type:  Type(dto.Type),
		Title: dto.Title,
		Value: dto.Value,
	}
}
