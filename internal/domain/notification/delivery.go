// internal/domain/notification/delivery.go
package notification

import "time"

// Delivery is one status message relayed to the chat.
// Corresponds to the 'homework_deliveries' table.
type Delivery struct {
	ID           int64
	ChatID       int64
	HomeworkName string
	Status       string // raw API value, may be empty for malformed records
	Message      string
	Cursor       int64 // from_date used for the poll that produced it
	SentAt       time.Time
}
