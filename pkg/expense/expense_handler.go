package expense

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

type ExpenseDTO struct {
	Id          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	LogoUrl     string          `json:"logoUrl,omitempty"`
	Value       decimal.Decimal `json:"value"`
	Frequency   string          `json:"frequency"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Handler struct {
	service Service
}

func NewExpenseHandler(service Service) *Handler {
	return &Handler{service}
}

// ListExpenses godoc
// @Summary List expenses
// @Description Get all expenses of the current user, newest first
// @Tags Expense
// @Produce json
// @Success 200 {array} ExpenseDTO
// @Failure 401 {string} string "Unauthorized"
// @Router /api/expense [get]
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing expenses")
	expenses, err := h.service.ListExpenses(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]ExpenseDTO, 0, len(expenses))
	for _, expense := range expenses {
		dtos = append(dtos, ToDTO(expense))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateExpense godoc
// @Summary Create expense
// @Tags Expense
// @Accept json
// @Produce json
// @Param expense body ExpenseDTO true "Expense"
// @Success 201 {object} ExpenseDTO
// @Failure 400 {object} rest.ValidationErrorResponse
// @Router /api/expense [post]
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating expense")
	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	created, err := h.service.CreateExpense(r.Context(), FromDTO(dto))
	if err != nil {
		h.writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ToDTO(created))
}

// UpdateExpense godoc
// @Summary Update expense
// @Tags Expense
// @Accept json
// @Produce json
// @Param expenseId path int true "Expense ID"
// @Param expense body ExpenseDTO true "Expense"
// @Success 200 {object} ExpenseDTO
// @Failure 400 {object} rest.ValidationErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/expense/{expenseId} [put]
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating expense")
	id, err := strconv.Atoi(mux.Vars(r)["expenseId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense id", "")
		return
	}
	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	expense := FromDTO(dto)
	expense.Id = id
	updated, err := h.service.UpdateExpense(r.Context(), expense)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(updated))
}

// DeleteExpense godoc
// @Summary Delete expense
// @Tags Expense
// @Param expenseId path int true "Expense ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/expense/{expenseId} [delete]
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting expense")
	id, err := strconv.Atoi(mux.Vars(r)["expenseId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense id", "")
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		rest.WriteJSON(w, http.StatusBadRequest, rest.ValidationErrorResponse{Error: "Invalid expense data", Fields: verr.Fields})
	case errors.Is(err, ErrExpenseNotFound):
		rest.WriteError(w, http.StatusNotFound, "Expense not found", "")
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
	default:
		log.Errorf("expense request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not process expense", "")
	}
}

func ToDTO(expense Expense) ExpenseDTO {
	return ExpenseDTO{
		Id:          expense.Id,
		Title:       expense.Title,
		Description: expense.Description,
		LogoUrl:     expense.LogoUrl,
		Value:       expense.Value,
		Frequency:   string(expense.Frequency),
		CreatedAt:   expense.CreatedAt,
	}
}

func FromDTO(dto ExpenseDTO) Expense {
	return Expense{
		Id:          dto.Id,
		Title:       dto.Title,
		Description: dto.Description,
		LogoUrl:     dto.LogoUrl,
		Value:       dto.Value,
		Frequency:   Frequency(dto.Frequency),
	}
}
