// internal/domain/notification/repository.go
package notification

import "context"

// Repository is a write-mostly journal of delivered messages.
type Repository interface {
	CreateDelivery(ctx context.Context, d *Delivery) error
	ListRecentDeliveries(ctx context.Context, chatID int64, limit int) ([]*Delivery, error)
}
