package homework

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRecord = errors.New("homework record has no homework_name")
	ErrUnknownStatus   = errors.New("homework record has an unknown status")
)

const (
	MessageMalformedRecord = "Неверный ответ сервера: у работы нет названия."
	MessageUnknownStatus   = "Неизвестный статус работы."

	announcementTemplate = "У вас проверили работу \"%s\"!\n\n%s"
	reviewingTemplate    = "Работа \"%s\" взята на ревью."

	verdictRejected = "К сожалению, в работе нашлись ошибки."
	verdictApproved = "Ревьюеру всё понравилось, можно приступать к следующему уроку."
)

// Describe builds the chat message for a record. It always returns a message;
// the error is non-nil when the record was malformed or carried an unknown
// status, and the message is then one of the fixed fallbacks.
func Describe(rec Record) (string, error) {
	if rec.Name == nil {
		return MessageMalformedRecord, ErrMalformedRecord
	}
	if rec.Status == nil {
		return MessageUnknownStatus, fmt.Errorf("%w: status is missing", ErrUnknownStatus)
	}
	status, ok := ParseStatus(*rec.Status)
	if !ok {
		return MessageUnknownStatus, fmt.Errorf("%w: %q", ErrUnknownStatus, *rec.Status)
	}

	name := *rec.Name
	switch status {
	case StatusReviewing:
		return fmt.Sprintf(reviewingTemplate, name), nil
	case StatusRejected:
		return fmt.Sprintf(announcementTemplate, name, verdictRejected), nil
	case StatusApproved:
		return fmt.Sprintf(announcementTemplate, name, verdictApproved), nil
	}
	return MessageUnknownStatus, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
}
