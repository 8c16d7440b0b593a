package expense

import (
	"context"
	"sort"
	"sync"
	"time"
)

type StubExpenseRepo struct {
	mu       sync.RWMutex
	nextId   int
	expenses map[int]map[int]Expense
	// Err, when set, is returned by every call.
	Err error
}

func NewStubExpenseRepo() *StubExpenseRepo {
	return &StubExpenseRepo{expenses: map[int]map[int]Expense{}}
}

func (s *StubExpenseRepo) Store(ctx context.Context, userId int, expense Expense) (Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Expense{}, s.Err
	}
	s.nextId++
	expense.Id = s.nextId
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now()
	}
	if s.expenses[userId] == nil {
		s.expenses[userId] = map[int]Expense{}
	}
	s.expenses[userId][expense.Id] = expense
	return expense, nil
}

func (s *StubExpenseRepo) List(ctx context.Context, userId int) ([]Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	expenses := make([]Expense, 0, len(s.expenses[userId]))
	for _, expense := range s.expenses[userId] {
		expenses = append(expenses, expense)
	}
	sort.Slice(expenses, func(i, j int) bool { return expenses[i].Id > expenses[j].Id })
	return expenses, nil
}

func (s *StubExpenseRepo) Update(ctx context.Context, userId int, expense Expense) (Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Expense{}, s.Err
	}
	stored, ok := s.expenses[userId][expense.Id]
	if !ok {
		return Expense{}, ErrExpenseNotFound
	}
	expense.CreatedAt = stored.CreatedAt
	s.expenses[userId][expense.Id] = expense
	return expense, nil
}

func (s *StubExpenseRepo) Delete(ctx context.Context, userId int, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.expenses[userId][id]; !ok {
		return ErrExpenseNotFound
	}
	delete(s.expenses[userId], id)
	return nil
}

func (s *StubExpenseRepo) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId = 0
	s.expenses = map[int]map[int]Expense{}
	s.Err = nil
}

var _ Repository = (*StubExpenseRepo)(nil)
