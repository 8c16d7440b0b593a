package app

import (
	"time"

	"github.com/budgetwatch/budgetwatch/internal/auth"
	"github.com/budgetwatch/budgetwatch/internal/config"
	"github.com/budgetwatch/budgetwatch/internal/event_bus"
	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/alert"
	"github.com/budgetwatch/budgetwatch/pkg/dashboard"
	"github.com/budgetwatch/budgetwatch/pkg/email"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/income"
	"github.com/budgetwatch/budgetwatch/pkg/integration"
	"github.com/budgetwatch/budgetwatch/pkg/notification"
	"github.com/budgetwatch/budgetwatch/pkg/report"
	"github.com/budgetwatch/budgetwatch/pkg/settings"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/budgetwatch/budgetwatch/pkg/whatsapp"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Tokens   *auth.TokenIssuer

	EmailSender    *email.Sender
	WhatsappClient whatsapp.Client
	Notifier       *notification.Notifier

	UserService user.Service
	UserHandler *user.Handler

	IncomeService income.Service
	IncomeHandler *income.Handler

	ExpenseService expense.Service
	ExpenseHandler *expense.Handler

	SettingsRepo    settings.Repository
	SettingsService settings.Service
	SettingsHandler *settings.Handler

	AlertService *alert.ServiceImpl
	AlertHandler *alert.Handler

	DashboardService dashboard.Service
	DashboardHandler *dashboard.Handler

	ReportService     report.Service
	CsvReportRenderer *report.CsvReportRendererImpl
	ReportHandler     *report.Handler

	IntegrationHandler *integration.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	deps.Tokens = auth.NewTokenIssuer(cfg.Auth.JwtSecret, time.Duration(cfg.Auth.SessionTtlHours)*time.Hour, deps.Clock)

	deps.EmailSender = email.NewSender(cfg.Email)
	if !cfg.Email.IsConfigured() {
		log.Warn("SMTP is not configured, emails will not be sent")
	}
	deps.WhatsappClient = whatsapp.NewEvolutionClient(cfg.Evolution)
	if !cfg.Evolution.IsConfigured() {
		log.Warn("Evolution API is not configured, WhatsApp messages will not be sent")
	}

	deps.UserService = user.NewUserService(user.NewUserRepo(db), deps.Tokens, deps.EmailSender, cfg.Host)
	deps.UserHandler = user.NewHandler(deps.UserService)

	incomeRepo := income.NewIncomeRepo(db)
	deps.IncomeService = income.NewIncomeService(incomeRepo)
	deps.IncomeHandler = income.NewIncomeHandler(deps.IncomeService)

	expenseRepo := expense.NewExpenseRepo(db)
	deps.ExpenseService = expense.NewExpenseService(expenseRepo)
	deps.ExpenseHandler = expense.NewExpenseHandler(deps.ExpenseService)

	deps.SettingsRepo = settings.NewSettingsRepo(db)
	deps.SettingsService = settings.NewSettingsService(deps.SettingsRepo)
	deps.SettingsHandler = settings.NewSettingsHandler(deps.SettingsService)

	deps.AlertService = alert.NewAlertService(alert.NewAlertRepo(db), deps.EventBus)
	deps.AlertHandler = alert.NewAlertHandler(deps.AlertService)

	deps.Notifier = notification.NewNotifier(deps.UserService, deps.SettingsService, deps.EmailSender, deps.WhatsappClient)
	deps.Notifier.Subscribe(deps.EventBus)

	deps.DashboardService = dashboard.NewDashboardService(expenseRepo, incomeRepo, deps.SettingsRepo, deps.AlertService)
	deps.DashboardHandler = dashboard.NewDashboardHandler(deps.DashboardService)

	deps.ReportService = report.NewReportService(deps.DashboardService)
	deps.CsvReportRenderer = report.NewCsvReportRenderer()
	deps.ReportHandler = report.NewReportHandler(deps.ReportService, deps.CsvReportRenderer)

	deps.IntegrationHandler = integration.NewIntegrationHandler(deps.SettingsService, deps.ExpenseService, deps.WhatsappClient)

	return deps
}
