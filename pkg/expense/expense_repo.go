package expense

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrExpenseNotFound = errors.New("expense not found")

type Repository interface {
	Store(ctx context.Context, userId int, expense Expense) (Expense, error)
	List(ctx context.Context, userId int) ([]Expense, error)
	Update(ctx context.Context, userId int, expense Expense) (Expense, error)
	Delete(ctx context.Context, userId int, id int) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewExpenseRepo(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *RepositoryImpl) Store(ctx context.Context, userId int, expense Expense) (Expense, error) {
	query := `INSERT INTO expense (user_id, title, description, logo_url, value, frequency)
			  VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		userId,
		expense.Title,
		nullable(expense.Description),
		nullable(expense.LogoUrl),
		expense.Value,
		string(expense.Frequency),
	).Scan(&expense.Id, &expense.CreatedAt)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Expense{}, err
	}
	return expense, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int) ([]Expense, error) {
	query := `SELECT id, title, COALESCE(description, ''), COALESCE(logo_url, ''), value, frequency, created_at
			  FROM expense WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query expenses: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		var expense Expense
		var frequency string
		err := rows.Scan(
			&expense.Id,
			&expense.Title,
			&expense.Description,
			&expense.LogoUrl,
			&expense.Value,
			&frequency,
			&expense.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("could not scan expense: %w", err)
		}
		expense.Frequency = Frequency(frequency)
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, expense Expense) (Expense, error) {
	query := `UPDATE expense SET title = $1, description = $2, logo_url = $3, value = $4, frequency = $5
			  WHERE id = $6 AND user_id = $7 RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		expense.Title,
		nullable(expense.Description),
		nullable(expense.LogoUrl),
		expense.Value,
		string(expense.Frequency),
		expense.Id,
		userId,
	).Scan(&expense.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, ErrExpenseNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Expense{}, err
	}
	return expense, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expense WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}
