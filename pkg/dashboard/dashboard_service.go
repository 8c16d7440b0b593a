package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/budgetwatch/budgetwatch/pkg/alert"
	"github.com/budgetwatch/budgetwatch/pkg/expense"
	"github.com/budgetwatch/budgetwatch/pkg/income"
	"github.com/budgetwatch/budgetwatch/pkg/settings"
	"github.com/budgetwatch/budgetwatch/pkg/usage"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrDashboardUnavailable = errors.New("no dashboard data")

type ExpenseStore interface {
	List(ctx context.Context, userId int) ([]expense.Expense, error)
}

type IncomeStore interface {
	List(ctx context.Context, userId int) ([]income.Income, error)
}

type SettingsStore interface {
	Get(ctx context.Context, userId int) (settings.Settings, bool, error)
}

type AlertCreator interface {
	CreateUnlessRecent(ctx context.Context, userId int, alertType alert.Type, message string, metadata map[string]any) (alert.Alert, bool, error)
}

type Service interface {
	GetDashboard(ctx context.Context) (Dashboard, error)
	Load(ctx context.Context, userId int) (Dashboard, error)
}

type ServiceImpl struct {
	expenses ExpenseStore
	incomes  IncomeStore
	settings SettingsStore
	alerts   AlertCreator
}

func NewDashboardService(expenses ExpenseStore, incomes IncomeStore, settings SettingsStore, alerts AlertCreator) *ServiceImpl {
	return &ServiceImpl{expenses: expenses, incomes: incomes, settings: settings, alerts: alerts}
}

func (s *ServiceImpl) GetDashboard(ctx context.Context) (Dashboard, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.Load(ctx, userId)
}

// Load fetches the user's records, computes usage and raises a limit warning when
// the remaining budget crossed the user's threshold.
func (s *ServiceImpl) Load(ctx context.Context, userId int) (Dashboard, error) {
	var (
		expenses      []expense.Expense
		incomes       []income.Income
		userSettings  settings.Settings
		settingsFound bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.List(gctx, userId)
		return err
	})
	g.Go(func() error {
		var err error
		incomes, err = s.incomes.List(gctx, userId)
		return err
	})
	g.Go(func() error {
		var err error
		userSettings, settingsFound, err = s.settings.Get(gctx, userId)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Errorf("failed to load dashboard for user %d: %v", userId, err)
		return Dashboard{}, fmt.Errorf("%w: %w", ErrDashboardUnavailable, err)
	}
	if !settingsFound {
		userSettings = settings.Defaults(userId)
	}

	warningLimit := userSettings.WarningLimitPercent
	result := usage.UsagePercent(incomes, expenses, warningLimit)

	if result.IsCritical && (len(incomes) > 0 || len(expenses) > 0) {
		s.raiseLimitWarning(ctx, userId, warningLimit, result)
	}

	return Dashboard{
		Expenses:            expenses,
		Incomes:             incomes,
		Settings:            userSettings,
		MonthlyIncome:       usage.TotalMonthlyIncome(incomes),
		Saved:               usage.TotalSaved(incomes),
		MonthlyExpenses:     usage.TotalMonthlyExpenses(expenses),
		Balance:             usage.RemainingBalance(incomes, expenses),
		Usage:               result,
		WarningLimitPercent: warningLimit,
	}, nil
}

// raiseLimitWarning never fails the dashboard; a lost alert only gets logged.
func (s *ServiceImpl) raiseLimitWarning(ctx context.Context, userId int, warningLimit int, result usage.Usage) {
	used, remaining := result.Float()
	message := fmt.Sprintf("Warning: you have reached %d%% of your limit. %s%% of your budget remains.",
		warningLimit, result.RemainingPercent.Round(0).String())
	metadata := map[string]any{
		"usedPercent":      used,
		"remainingPercent": remaining,
		"warningPercent":   warningLimit,
	}

	_, created, err := s.alerts.CreateUnlessRecent(ctx, userId, alert.LimitWarning, message, metadata)
	if err != nil {
		log.Errorf("failed to create limit warning for user %d: %v", userId, err)
		return
	}
	if !created {
		log.Debugf("limit warning for user %d suppressed, an unread one is recent", userId)
	}
}
