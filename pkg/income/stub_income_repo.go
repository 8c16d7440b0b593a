package income

import (
	"context"
	"sort"
	"sync"
	"time"
)

type StubIncomeRepo struct {
	mu      sync.RWMutex
	nextId  int
	incomes map[int]map[int]Income
	// Err, when set, is returned by every call.
	Err error
}

func NewStubIncomeRepo() *StubIncomeRepo {
	return &StubIncomeRepo{incomes: map[int]map[int]Income{}}
}

func (s *StubIncomeRepo) Store(ctx context.Context, userId int, income Income) (Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Income{}, s.Err
	}
	s.nextId++
	income.Id = s.nextId
	if income.CreatedAt.IsZero() {
		income.CreatedAt = time.Now()
	}
	if s.incomes[userId] == nil {
		s.incomes[userId] = map[int]Income{}
	}
	s.incomes[userId][income.Id] = income
	return income, nil
}

func (s *StubIncomeRepo) List(ctx context.Context, userId int) ([]Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	incomes := make([]Income, 0, len(s.incomes[userId]))
	for _, income := range s.incomes[userId] {
		incomes = append(incomes, income)
	}
	sort.Slice(incomes, func(i, j int) bool { return incomes[i].Id > incomes[j].Id })
	return incomes, nil
}

func (s *StubIncomeRepo) Update(ctx context.Context, userId int, income Income) (Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Income{}, s.Err
	}
	stored, ok := s.incomes[userId][income.Id]
	if !ok {
		return Income{}, ErrIncomeNotFound
	}
	income.CreatedAt = stored.CreatedAt
	s.incomes[userId][income.Id] = income
	return income, nil
}

func (s *StubIncomeRepo) Delete(ctx context.Context, userId int, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.incomes[userId][id]; !ok {
		return ErrIncomeNotFound
	}
	delete(s.incomes[userId], id)
	return nil
}

func (s *StubIncomeRepo) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId = 0
	s.incomes = map[int]map[int]Income{}
	s.Err = nil
}

var _ Repository = (*StubIncomeRepo)(nil)
