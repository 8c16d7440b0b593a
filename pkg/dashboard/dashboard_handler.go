package dashboard

import (
	"errors"
	"net/http"

	"github.com/budgetwatch/budgetwatch/internal/rest"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/income"
	"github.com/budgetwatch/budgetwatch/pkg/settings"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type DashboardDTO struct {
	Expenses            []expense.ExpenseDTO `json:"expenses"`
	Incomes             []income.IncomeDTO   `json:"incomes"`
	Settings            settings.SettingsDTO `json:"settings"`
	MonthlyIncome       decimal.Decimal      `json:"monthlyIncome"`
	Saved               decimal.Decimal      `json:"saved"`
	MonthlyExpenses     decimal.Decimal      `json:"monthlyExpenses"`
	Balance             decimal.Decimal      `json:"balance"`
	UsedPercent         float64              `json:"usedPercent"`
	RemainingPercent    float64              `json:"remainingPercent"`
	IsCritical          bool                 `json:"isCritical"`
	WarningLimitPercent int                  `json:"warningLimitPercent"`
}

type Handler struct {
	service Service
}

func NewDashboardHandler(service Service) *Handler {
	return &Handler{service}
}

// GetDashboard godoc
// @Summary Get dashboard
// @Description Totals, usage percentages and records of the current user. May raise a limit warning alert.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} DashboardDTO
// @Failure 401 {object} rest.ErrorResponse
// @Failure 503 {object} rest.ErrorResponse "No dashboard data"
// @Router /api/dashboard [get]
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	log.Debug("Loading dashboard")
	dashboard, err := h.service.GetDashboard(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNoUser):
			rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
		case errors.Is(err, ErrDashboardUnavailable):
			rest.WriteError(w, http.StatusServiceUnavailable, ErrDashboardUnavailable.Error(), "")
		default:
			log.Errorf("failed to load dashboard: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Could not load dashboard", "")
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(dashboard))
}

func ToDTO(d Dashboard) DashboardDTO {
	expenses := make([]expense.ExpenseDTO, 0, len(d.Expenses))
	for _, e := range d.Expenses {
		expenses = append(expenses, expense.ToDTO(e))
	}
	incomes := make([]income.IncomeDTO, 0, len(d.Incomes))
	for _, i := range d.Incomes {
		incomes = append(incomes, income.ToDTO(i))
	}
	used, remaining := d.Usage.Float()
	return DashboardDTO{
		Expenses:            expenses,
		Incomes:             incomes,
		Settings:            settings.ToDTO(d.Settings),
		MonthlyIncome:       d.MonthlyIncome,
		Saved:               d.Saved,
		MonthlyExpenses:     d.MonthlyExpenses,
		Balance:             d.Balance,
		UsedPercent:         used,
		RemainingPercent:    remaining,
		IsCritical:          d.Usage.IsCritical,
		WarningLimitPercent: d.WarningLimitPercent,
	}
}
