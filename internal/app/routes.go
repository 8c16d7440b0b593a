package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Auth
	r.HandleFunc("/api/auth/register", deps.UserHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/verify-email", deps.UserHandler.VerifyEmail).Methods("GET")
	r.HandleFunc("/api/auth/login", deps.UserHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", deps.UserHandler.Logout).Methods("POST")

	// Integrations authenticate with an API key or a verified phone
	r.HandleFunc("/api/integrations/expenses", deps.IntegrationHandler.CreateExpense).Methods("POST")
	r.HandleFunc("/api/integrations/expenses", deps.IntegrationHandler.ValidateCredentials).Methods("GET")
	r.HandleFunc("/api/integrations/whatsapp/request-code", deps.IntegrationHandler.RequestWhatsappCode).Methods("POST")
	r.HandleFunc("/api/integrations/whatsapp/verify", deps.IntegrationHandler.VerifyWhatsappCode).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(requireUser)

	// User
	api.HandleFunc("/user/current", deps.UserHandler.CurrentUser).Methods("GET")

	// Income
	api.HandleFunc("/income", deps.IncomeHandler.ListIncomes).Methods("GET")
	api.HandleFunc("/income", deps.IncomeHandler.CreateIncome).Methods("POST")
	api.HandleFunc("/income/{incomeId}", deps.IncomeHandler.UpdateIncome).Methods("PUT")
	api.HandleFunc("/income/{incomeId}", deps.IncomeHandler.DeleteIncome).Methods("DELETE")

	// Expense
	api.HandleFunc("/expense", deps.ExpenseHandler.ListExpenses).Methods("GET")
	api.HandleFunc("/expense", deps.ExpenseHandler.CreateExpense).Methods("POST")
	api.HandleFunc("/expense/{expenseId}", deps.ExpenseHandler.UpdateExpense).Methods("PUT")
	api.HandleFunc("/expense/{expenseId}", deps.ExpenseHandler.DeleteExpense).Methods("DELETE")

	// Dashboard and report
	api.HandleFunc("/dashboard", deps.DashboardHandler.GetDashboard).Methods("GET")
	api.HandleFunc("/report", deps.ReportHandler.GetReport).Methods("GET")
	api.HandleFunc("/report/csv", deps.ReportHandler.GetReportCsv).Methods("GET")

	// Alerts
	api.HandleFunc("/alert", deps.AlertHandler.ListAlerts).Methods("GET")
	api.HandleFunc("/alert/read", deps.AlertHandler.MarkAllRead).Methods("PATCH")
	api.HandleFunc("/alert/{alertId}/read", deps.AlertHandler.MarkRead).Methods("PATCH")

	// Settings
	api.HandleFunc("/settings", deps.SettingsHandler.GetSettings).Methods("GET")
	api.HandleFunc("/settings/warning-limit", deps.SettingsHandler.UpdateWarningLimit).Methods("PUT")
	api.HandleFunc("/settings/email-notifications", deps.SettingsHandler.UpdateEmailNotifications).Methods("PUT")
	api.HandleFunc("/settings/whatsapp-notifications", deps.SettingsHandler.UpdateWhatsappNotifications).Methods("PUT")
	api.HandleFunc("/settings/phone", deps.SettingsHandler.UpdatePhone).Methods("PUT")
	api.HandleFunc("/settings/phone/verification", deps.SettingsHandler.RequestPhoneVerification).Methods("POST")
	api.HandleFunc("/settings/api-key", deps.SettingsHandler.GenerateApiKey).Methods("POST")
}
