package income

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrIncomeNotFound = errors.New("income not found")

type Repository interface {
	Store(ctx context.Context, userId int, income Income) (Income, error)
	List(ctx context.Context, userId int) ([]Income, error)
	Update(ctx context.Context, userId int, income Income) (Income, error)
	Delete(ctx context.Context, userId int, id int) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewIncomeRepo(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, userId int, income Income) (Income, error) {
	query := `INSERT INTO income (user_id, type, title, value) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, userId, string(income.Type), income.Title, income.Value).
		Scan(&income.Id, &income.CreatedAt)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Income{}, err
	}
	return income, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int) ([]Income, error) {
	query := `SELECT id, type, title, value, created_at FROM income WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query incomes: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	incomes := make([]Income, 0)
	for rows.Next() {
		var income Income
		var incomeType string
		if err := rows.Scan(&income.Id, &incomeType, &income.Title, &income.Value, &income.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan income: %w", err)
		}
		income.Type = Type(incomeType)
		incomes = append(incomes, income)
	}
	return incomes, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, income Income) (Income, error) {
	query := `UPDATE income SET type = $1, title = $2, value = $3 WHERE id = $4 AND user_id = $5 RETURNING created_at`
	err := r.db.QueryRow(ctx, query, string(income.Type), income.Title, income.Value, income.Id, userId).
		Scan(&income.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Income{}, ErrIncomeNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Income{}, err
	}
	return income, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM income WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIncomeNotFound
	}
	return nil
}
