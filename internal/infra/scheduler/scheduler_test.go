package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"homework_status_bot/internal/app"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

type fakePoller struct {
	results  []error
	calls    int
	reported []error
}

func (p *fakePoller) RunIteration(ctx context.Context) error {
	i := p.calls
	p.calls++
	if i < len(p.results) {
		return p.results[i]
	}
	return nil
}

func (p *fakePoller) ReportError(err error) { p.reported = append(p.reported, err) }

func newTestScheduler(t *testing.T, p Poller, spec string, stopAfter int) (*PollScheduler, *[]time.Duration, context.Context) {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	s, err := NewPollScheduler(p, spec, 5*time.Second, logrus.NewEntry(l))
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	waits := &[]time.Duration{}
	s.sleep = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		if len(*waits) >= stopAfter {
			cancel()
			return ctx.Err()
		}
		return nil
	}
	return s, waits, ctx
}

func TestRunWaitsScheduleOnSuccessAndRetryOnError(t *testing.T) {
	fetchErr := &app.IterationError{Kind: app.KindFetch, Err: errors.New("connection refused")}
	p := &fakePoller{results: []error{nil, fetchErr, fetchErr, nil}}
	s, waits, ctx := newTestScheduler(t, p, "@every 5m", 4)

	s.Run(ctx)

	want := []time.Duration{5 * time.Minute, 5 * time.Second, 5 * time.Second, 5 * time.Minute}
	if diff := cmp.Diff(want, *waits); diff != "" {
		t.Errorf("waits mismatch (-want +got):\n%s", diff)
	}
	if p.calls != 4 {
		t.Errorf("iterations = %d, want 4", p.calls)
	}
	if len(p.reported) != 2 {
		t.Errorf("reported errors = %d, want 2", len(p.reported))
	}
}

func TestRunSurvivesRepeatedFailures(t *testing.T) {
	failures := make([]error, 10)
	for i := range failures {
		failures[i] = errors.New("network is unreachable")
	}
	p := &fakePoller{results: failures}
	s, _, ctx := newTestScheduler(t, p, "@every 5m", 11)

	s.Run(ctx)

	if p.calls != 11 {
		t.Errorf("iterations = %d, want 11", p.calls)
	}
}

func TestRunCronExpression(t *testing.T) {
	p := &fakePoller{}
	s, waits, ctx := newTestScheduler(t, p, "CRON_TZ=UTC */10 * * * *", 1)

	s.Run(ctx)

	if diff := cmp.Diff([]time.Duration{10 * time.Minute}, *waits); diff != "" {
		t.Errorf("waits mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsWhenContextCancelledDuringIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &cancellingPoller{cancel: cancel}
	l := logrus.New()
	l.SetOutput(io.Discard)
	s, err := NewPollScheduler(p, "@every 5m", time.Second, logrus.NewEntry(l))
	if err != nil {
		t.Fatal(err)
	}

	s.Run(ctx)

	if p.reported {
		t.Error("errors caused by shutdown should not be reported")
	}
}

type cancellingPoller struct {
	cancel   context.CancelFunc
	reported bool
}

func (p *cancellingPoller) RunIteration(ctx context.Context) error {
	p.cancel()
	return ctx.Err()
}

func (p *cancellingPoller) ReportError(error) { p.reported = true }

func TestNewPollSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := NewPollScheduler(&fakePoller{}, "whenever", time.Second, logrus.NewEntry(logrus.New())); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepContext() = %v, want context.Canceled", err)
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleepContext() = %v", err)
	}
}
