package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrAlertNotFound = errors.New("alert not found")

type Repository interface {
	Create(ctx context.Context, userId int, alert Alert) (Alert, error)
	// CreateIfNoRecentUnread stores alert unless the user already has an unread alert
	// of the same type triggered at or after since. Returns created=false when skipped.
	CreateIfNoRecentUnread(ctx context.Context, userId int, alert Alert, since time.Time) (Alert, bool, error)
	List(ctx context.Context, userId int, limit int) ([]Alert, error)
	MarkRead(ctx context.Context, userId int, id int) error
	MarkAllRead(ctx context.Context, userId int) (int64, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewAlertRepo(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insert(ctx context.Context, q querier, userId int, alert Alert) (Alert, error) {
	query := `INSERT INTO alert (user_id, type, message, metadata, triggered_at)
			  VALUES ($1, $2, $3, $4, $5) RETURNING id, read`
	alert.UserId = userId
	err := q.QueryRow(ctx, query,
		userId,
		string(alert.Type),
		alert.Message,
		alert.Metadata,
		alert.TriggeredAt,
	).Scan(&alert.Id, &alert.Read)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Alert{}, err
	}
	return alert, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, userId int, alert Alert) (Alert, error) {
	return insert(ctx, r.db, userId, alert)
}

func (r *RepositoryImpl) CreateIfNoRecentUnread(ctx context.Context, userId int, alert Alert, since time.Time) (Alert, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Alert{}, false, err
	}
	defer tx.Rollback(ctx)

	// serializes concurrent checks for the same user until commit
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('alert'), $1)`, userId); err != nil {
		err := fmt.Errorf("could not acquire alert lock: %w", err)
		log.Error(err)
		return Alert{}, false, err
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM alert WHERE user_id = $1 AND type = $2 AND NOT read AND triggered_at >= $3)`,
		userId, string(alert.Type), since,
	).Scan(&exists)
	if err != nil {
		err := fmt.Errorf("could not query recent alerts: %w", err)
		log.Error(err)
		return Alert{}, false, err
	}
	if exists {
		return Alert{}, false, nil
	}

	created, err := insert(ctx, tx, userId, alert)
	if err != nil {
		return Alert{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Alert{}, false, err
	}
	return created, true, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int, limit int) ([]Alert, error) {
	query := `SELECT id, user_id, type, message, COALESCE(metadata, '{}'::jsonb), read, triggered_at
			  FROM alert WHERE user_id = $1 ORDER BY triggered_at DESC, id DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userId, limit)
	if err != nil {
		err := fmt.Errorf("could not query alerts: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	alerts := make([]Alert, 0)
	for rows.Next() {
		var alert Alert
		var alertType string
		err := rows.Scan(
			&alert.Id,
			&alert.UserId,
			&alertType,
			&alert.Message,
			&alert.Metadata,
			&alert.Read,
			&alert.TriggeredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("could not scan alert: %w", err)
		}
		alert.Type = Type(alertType)
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (r *RepositoryImpl) MarkRead(ctx context.Context, userId int, id int) error {
	tag, err := r.db.Exec(ctx, `UPDATE alert SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func (r *RepositoryImpl) MarkAllRead(ctx context.Context, userId int) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE alert SET read = TRUE WHERE user_id = $1 AND NOT read`, userId)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}
