// internal/app/status_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"
	domainTelegram "homework_status_bot/internal/domain/telegram"
	"homework_status_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// ErrorKind classifies what part of an iteration failed.
type ErrorKind string

const (
	KindFetch  ErrorKind = "fetch"
	KindFormat ErrorKind = "format"
	KindSend   ErrorKind = "send"
	KindOther  ErrorKind = "other"
)

// IterationError is returned by RunIteration for any failure of one poll.
type IterationError struct {
	Kind ErrorKind
	Err  error
}

func (e *IterationError) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }

func (e *IterationError) Unwrap() error { return e.Err }

// KindOf reports the kind of err, or KindOther when err is not an IterationError.
func KindOf(err error) ErrorKind {
	var ie *IterationError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindOther
}

// Fetcher is the homework review API.
type Fetcher interface {
	FetchStatuses(ctx context.Context, fromDate int64) (*homework.Response, error)
}

// Snapshot is a read-only view of the poller state for status commands.
type Snapshot struct {
	Cursor      int64
	StartedAt   time.Time
	LastPollAt  time.Time // zero until the first successful iteration
	LastError   string
	LastErrorAt time.Time
	Delivered   int
}

// StatusService polls homework statuses and relays them to one chat.
// RunIteration and ReportError must be called from a single goroutine;
// Snapshot is safe to call concurrently.
type StatusService struct {
	fetcher        Fetcher
	telegramClient domainTelegram.Client
	journal        notification.Repository // nil disables journaling
	chatID         int64
	operatorChatID int64
	logger         *logrus.Entry
	now            func() time.Time

	mu           sync.Mutex
	state        Snapshot
	lastReported string // last error text relayed to the operator
}

func NewStatusService(
	f Fetcher,
	tc domainTelegram.Client,
	journal notification.Repository,
	chatID int64,
	operatorChatID int64,
	logger *logrus.Entry,
) *StatusService {
	return newStatusService(f, tc, journal, chatID, operatorChatID, logger, time.Now)
}

func newStatusService(
	f Fetcher,
	tc domainTelegram.Client,
	journal notification.Repository,
	chatID, operatorChatID int64,
	logger *logrus.Entry,
	now func() time.Time,
) *StatusService {
	started := now()
	s := &StatusService{
		fetcher:        f,
		telegramClient: tc,
		journal:        journal,
		chatID:         chatID,
		operatorChatID: operatorChatID,
		logger:         logger,
		now:            now,
		state:          Snapshot{Cursor: started.Unix(), StartedAt: started},
	}
	metrics.SetCursor(s.state.Cursor)
	return s
}

// Cursor returns the from_date used by the next poll.
func (s *StatusService) Cursor() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Cursor
}

func (s *StatusService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RunIteration performs one poll: fetch, relay the most recent homework if
// any, advance the cursor. The cursor is left untouched when the iteration
// fails, so the same update is fetched again on retry.
func (s *StatusService) RunIteration(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &IterationError{Kind: KindOther, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	cursor := s.Cursor()
	resp, err := s.fetcher.FetchStatuses(ctx, cursor)
	if err != nil {
		return &IterationError{Kind: KindFetch, Err: err}
	}

	if rec, ok := resp.First(); ok {
		if extra := len(resp.Homeworks) - 1; extra > 0 {
			s.logger.WithField("dropped", extra).Debug("Response carries more than one homework, only the first is relayed")
		}
		if err := s.deliver(ctx, rec, cursor); err != nil {
			return err
		}
	} else {
		s.logger.WithField("from_date", cursor).Debug("No homework updates")
	}

	next := resp.NextCursor(cursor)
	s.mu.Lock()
	s.state.Cursor = next
	s.state.LastPollAt = s.now()
	s.lastReported = ""
	s.mu.Unlock()
	metrics.SetCursor(next)
	return nil
}

func (s *StatusService) deliver(ctx context.Context, rec homework.Record, cursor int64) error {
	logCtx := s.logger.WithFields(logrus.Fields{
		"homework_name": rec.NameOrEmpty(),
		"status":        rec.StatusOrEmpty(),
	})

	message, fmtErr := homework.Describe(rec)
	if fmtErr != nil {
		logCtx.WithError(fmtErr).WithField("kind", KindFormat).Error("Unexpected homework record")
		metrics.IncIterationError(string(KindFormat))
	}

	if err := s.telegramClient.SendMessage(s.chatID, message); err != nil {
		return &IterationError{Kind: KindSend, Err: fmt.Errorf("send status message: %w", err)}
	}
	logCtx.Info("Status message sent")
	metrics.IncNotificationSent(rec.StatusOrEmpty())

	s.mu.Lock()
	s.state.Delivered++
	s.mu.Unlock()

	if s.journal == nil {
		return nil
	}
	d := &notification.Delivery{
		ChatID:       s.chatID,
		HomeworkName: rec.NameOrEmpty(),
		Status:       rec.StatusOrEmpty(),
		Message:      message,
		Cursor:       cursor,
		SentAt:       s.now(),
	}
	if err := s.journal.CreateDelivery(ctx, d); err != nil {
		logCtx.WithError(err).Warn("Failed to journal delivery")
	}
	return nil
}

// ReportError logs an iteration failure and relays it to the operator chat.
// An error identical to the previously relayed one is not sent again until
// an iteration succeeds.
func (s *StatusService) ReportError(err error) {
	kind := KindOf(err)
	text := err.Error()
	s.logger.WithError(err).WithField("kind", kind).Error("Poll iteration failed")

	s.mu.Lock()
	s.state.LastError = text
	s.state.LastErrorAt = s.now()
	duplicate := s.lastReported == text
	s.mu.Unlock()

	if duplicate {
		s.logger.WithField("kind", kind).Debug("Same error already reported to operator, skipping")
		return
	}

	if sendErr := s.telegramClient.SendMessage(s.operatorChatID, fmt.Sprintf("Бот столкнулся с ошибкой: %v", err)); sendErr != nil {
		s.logger.WithError(sendErr).Warn("Failed to relay error to operator chat")
		return
	}
	s.mu.Lock()
	s.lastReported = text
	s.mu.Unlock()
}

// RecentDeliveries returns the latest journaled deliveries for the chat.
func (s *StatusService) RecentDeliveries(ctx context.Context, limit int) ([]*notification.Delivery, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.ListRecentDeliveries(ctx, s.chatID, limit)
}

var ErrJournalDisabled = fmt.Errorf("delivery journal is not configured")
