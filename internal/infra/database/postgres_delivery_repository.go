// internal/infra/database/postgres_delivery_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"homework_status_bot/internal/domain/notification"
)

var ErrInvalidLimit = fmt.Errorf("limit must be positive")

type PostgresDeliveryRepository struct {
	db *sql.DB
}

func NewPostgresDeliveryRepository(db *sql.DB) *PostgresDeliveryRepository {
	return &PostgresDeliveryRepository{db: db}
}

func (r *PostgresDeliveryRepository) CreateDelivery(ctx context.Context, d *notification.Delivery) error {
	query := `INSERT INTO homework_deliveries (chat_id, homework_name, status, message, from_date, sent_at)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query, d.ChatID, d.HomeworkName, d.Status, d.Message, d.Cursor, d.SentAt).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("error creating delivery: %w", err)
	}
	return nil
}

func (r *PostgresDeliveryRepository) ListRecentDeliveries(ctx context.Context, chatID int64, limit int) ([]*notification.Delivery, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	query := `SELECT id, chat_id, homework_name, status, message, from_date, sent_at
              FROM homework_deliveries
              WHERE chat_id = $1
              ORDER BY sent_at DESC, id DESC
              LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*notification.Delivery
	for rows.Next() {
		d := &notification.Delivery{}
		if err := rows.Scan(&d.ID, &d.ChatID, &d.HomeworkName, &d.Status, &d.Message, &d.Cursor, &d.SentAt); err != nil {
			return nil, fmt.Errorf("error scanning delivery row: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery rows: %w", err)
	}
	return deliveries, nil
}
