package income

import (
	"context"
	"fmt"
	"strings"

	"github.com/budgetwatch/budgetwatch/internal/validation"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListIncomes(ctx context.Context) ([]Income, error)
	CreateIncome(ctx context.Context, income Income) (Income, error)
	UpdateIncome(ctx context.Context, income Income) (Income, error)
	DeleteIncome(ctx context.Context, id int) error
}

type ServiceImpl struct {
	repo Repository
}

func NewIncomeService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func Validate(income Income) error {
	verr := validation.New()
	if !income.Type.IsValid() {
		verr.Add("type", "Invalid income type")
	}
	if strings.TrimSpace(income.Title) == "" {
		verr.Add("title", "Title is required")
	}
	if !income.Value.IsPositive() {
		verr.Add("value", "Value must be positive")
	}
	return verr.OrNil()
}

func (s *ServiceImpl) ListIncomes(ctx context.Context) ([]Income, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) CreateIncome(ctx context.Context, income Income) (Income, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Income{}, fmt.Errorf("failed to get current user: %w", err)
	}
	income.Title = strings.TrimSpace(income.Title)
	if err := Validate(income); err != nil {
		return Income{}, err
	}
	created, err := s.repo.Store(ctx, userId, income)
	if err != nil {
		return Income{}, err
	}
	log.Debugf("Income %d created for user %d", created.Id, userId)
	return created, nil
}

func (s *ServiceImpl) UpdateIncome(ctx context.Context, income Income) (Income, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Income{}, fmt.Errorf("failed to get current user: %w", err)
	}
	income.Title = strings.TrimSpace(income.Title)
	if err := Validate(income); err != nil {
		return Income{}, err
	}
	return s.repo.Update(ctx, userId, income)
}

func (s *ServiceImpl) DeleteIncome(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Delete(ctx, userId, id)
}
