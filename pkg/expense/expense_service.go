package expense

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/budgetwatch/budgetwatch/internal/validation"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListExpenses(ctx context.Context) ([]Expense, error)
	CreateExpense(ctx context.Context, expense Expense) (Expense, error)
	// CreateExpenseFor stores an expense for an owner resolved outside the request identity,
	// e.g. by an integration credential.
	CreateExpenseFor(ctx context.Context, userId int, expense Expense) (Expense, error)
	UpdateExpense(ctx context.Context, expense Expense) (Expense, error)
	DeleteExpense(ctx context.Context, id int) error
}

type ServiceImpl struct {
	repo Repository
}

func NewExpenseService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func Validate(expense Expense) error {
	verr := validation.New()
	if strings.TrimSpace(expense.Title) == "" {
		verr.Add("title", "Title is required")
	}
	if !expense.Value.IsPositive() {
		verr.Add("value", "Value must be positive")
	}
	if !expense.Frequency.IsValid() {
		verr.Add("frequency", "Invalid frequency")
	}
	if expense.LogoUrl != "" && !isHttpUrl(expense.LogoUrl) {
		verr.Add("logoUrl", "Invalid URL")
	}
	return verr.OrNil()
}

func isHttpUrl(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func normalize(expense Expense) Expense {
	expense.Title = strings.TrimSpace(expense.Title)
	expense.Description = strings.TrimSpace(expense.Description)
	expense.LogoUrl = strings.TrimSpace(expense.LogoUrl)
	return expense
}

func (s *ServiceImpl) ListExpenses(ctx context.Context) ([]Expense, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) CreateExpense(ctx context.Context, expense Expense) (Expense, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Expense{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.CreateExpenseFor(ctx, userId, expense)
}

func (s *ServiceImpl) CreateExpenseFor(ctx context.Context, userId int, expense Expense) (Expense, error) {
	expense = normalize(expense)
	if err := Validate(expense); err != nil {
		return Expense{}, err
	}
	created, err := s.repo.Store(ctx, userId, expense)
	if err != nil {
		return Expense{}, err
	}
	log.Debugf("Expense %d created for user %d", created.Id, userId)
	return created, nil
}

func (s *ServiceImpl) UpdateExpense(ctx context.Context, expense Expense) (Expense, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Expense{}, fmt.Errorf("failed to get current user: %w", err)
	}
	expense = normalize(expense)
	if err := Validate(expense); err != nil {
		return Expense{}, err
	}
	return s.repo.Update(ctx, userId, expense)
}

func (s *ServiceImpl) DeleteExpense(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Delete(ctx, userId, id)
}
