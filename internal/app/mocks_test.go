package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type MockTelegramClient struct {
	Sent    []sentMessage
	SendErr error
	// FailChat, when non-zero, makes only sends to that chat fail with SendErr.
	FailChat int64
}

func (m *MockTelegramClient) SendMessage(chatID int64, text string) error {
	if m.SendErr != nil && (m.FailChat == 0 || m.FailChat == chatID) {
		return m.SendErr
	}
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

type MockFetcher struct {
	Calls     []int64
	Responses []*homework.Response
	Errs      []error
}

func (m *MockFetcher) FetchStatuses(ctx context.Context, fromDate int64) (*homework.Response, error) {
	i := len(m.Calls)
	m.Calls = append(m.Calls, fromDate)
	if i < len(m.Errs) && m.Errs[i] != nil {
		return nil, m.Errs[i]
	}
	if i < len(m.Responses) {
		return m.Responses[i], nil
	}
	return &homework.Response{}, nil
}

type MockJournal struct {
	mu        sync.Mutex
	Saved     []*notification.Delivery
	CreateErr error
}

func (m *MockJournal) CreateDelivery(ctx context.Context, d *notification.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	d.ID = int64(len(m.Saved) + 1)
	m.Saved = append(m.Saved, d)
	return nil
}

func (m *MockJournal) ListRecentDeliveries(ctx context.Context, chatID int64, limit int) ([]*notification.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*notification.Delivery
	for i := len(m.Saved) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Saved[i].ChatID == chatID {
			out = append(out, m.Saved[i])
		}
	}
	return out, nil
}

type panickingFetcher struct{}

func (panickingFetcher) FetchStatuses(context.Context, int64) (*homework.Response, error) {
	panic("boom")
}

var errNetwork = errors.New("connection refused")

func newTestLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func fixedClock(ts int64) func() time.Time {
	return func() time.Time { return time.Unix(ts, 0) }
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }
