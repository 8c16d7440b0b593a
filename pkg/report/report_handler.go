package report

import (
	"errors"
	"net/http"

	"github.com/budgetwatch/budgetwatch/internal/rest"
	"github.com/budgetwatch/budgetwatch/pkg/dashboard"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type FrequencyTotalDTO struct {
	Frequency    string          `json:"frequency"`
	Count        int             `json:"count"`
	MonthlyValue decimal.Decimal `json:"monthlyValue"`
}

type IncomeTypeTotalDTO struct {
	Type  string          `json:"type"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type RankedExpenseDTO struct {
	Expense      expense.ExpenseDTO `json:"expense"`
	MonthlyValue decimal.Decimal    `json:"monthlyValue"`
}

type ReportDTO struct {
	MonthlyIncome       decimal.Decimal      `json:"monthlyIncome"`
	Saved               decimal.Decimal      `json:"saved"`
	MonthlyExpenses     decimal.Decimal      `json:"monthlyExpenses"`
	Balance             decimal.Decimal      `json:"balance"`
	UsedPercent         float64              `json:"usedPercent"`
	RemainingPercent    float64              `json:"remainingPercent"`
	ExpensesByFrequency []FrequencyTotalDTO  `json:"expensesByFrequency"`
	IncomesByType       []IncomeTypeTotalDTO `json:"incomesByType"`
	TopExpenses         []RankedExpenseDTO   `json:"topExpenses"`
}

type Handler struct {
	service     Service
	csvRenderer Renderer
}

func NewReportHandler(service Service, csvRenderer Renderer) *Handler {
	return &Handler{service, csvRenderer}
}

// GetReport godoc
// @Summary Get financial report
// @Description Totals, grouped figures and top expenses. Responds with CSV when Accept is text/csv.
// @Tags Report
// @Produce json
// @Produce text/csv
// @Success 200 {object} ReportDTO
// @Failure 503 {object} rest.ErrorResponse "No dashboard data"
// @Router /api/report [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Accept") == "text/csv" {
		h.GetReportCsv(w, r)
		return
	}
	log.Debug("Getting report")
	report, ok := h.load(w, r)
	if !ok {
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(report))
}

// GetReportCsv godoc
// @Summary Download the financial report as CSV
// @Tags Report
// @Produce text/csv
// @Success 200 {string} string "CSV"
// @Router /api/report/csv [get]
func (h *Handler) GetReportCsv(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting report as csv")
	report, ok := h.load(w, r)
	if !ok {
		return
	}
	csv, err := h.csvRenderer.Render(report)
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Could not render report", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="report.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Errorf("failed to write csv report: %v", err)
	}
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Report, bool) {
	report, err := h.service.GetReport(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNoUser):
			rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
		case errors.Is(err, dashboard.ErrDashboardUnavailable):
			rest.WriteError(w, http.StatusServiceUnavailable, dashboard.ErrDashboardUnavailable.Error(), "")
		default:
			log.Errorf("failed to build report: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Could not build report", "")
		}
		return Report{}, false
	}
	return report, true
}

func ToDTO(report Report) ReportDTO {
	used, remaining := report.Usage.Float()
	byFrequency := make([]FrequencyTotalDTO, 0, len(report.ExpensesByFrequency))
	for _, total := range report.ExpensesByFrequency {
		byFrequency = append(byFrequency, FrequencyTotalDTO{string(total.Frequency), total.Count, total.MonthlyValue})
	}
	byType := make([]IncomeTypeTotalDTO, 0, len(report.IncomesByType))
	for _, total := range report.IncomesByType {
		byType = append(byType, IncomeTypeTotalDTO{string(total.Type), total.Count, total.Total})
	}
	top := make([]RankedExpenseDTO, 0, len(report.TopExpenses))
	for _, ranked := range report.TopExpenses {
		top = append(top, RankedExpenseDTO{expense.ToDTO(ranked.Expense), ranked.MonthlyValue})
	}
	return ReportDTO{
		MonthlyIncome:       report.MonthlyIncome,
		Saved:               report.Saved,
		MonthlyExpenses:     report.MonthlyExpenses,
		Balance:             report.Balance,
		UsedPercent:         used,
		RemainingPercent:    remaining,
		ExpensesByFrequency: byFrequency,
		IncomesByType:       byType,
		TopExpenses:         top,
	}
}
