package console

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
)

// QueueWindow is how many waiting students each department card shows;
// the rest collapse into an overflow count.
const QueueWindow = 3

type rosterAPI interface {
	Students(ctx context.Context, department, search string) ([]dto.StudentSummary, error)
}

// DepartmentQueue is one department's card on the dashboard.
type DepartmentQueue struct {
	Department string
	// Waiting holds at most QueueWindow students, oldest registration
	// first.
	Waiting  []dto.StudentSummary
	Overflow int
	Total    int
}

// BuildQueues projects a roster snapshot into the dashboard cards.
// Absent students and already-verified ones are excluded; each
// department's queue is ordered by registration time ascending and
// windowed to the first QueueWindow entries. Departments come back in
// name order for a stable render.
func BuildQueues(students []dto.StudentSummary) []DepartmentQueue {
	grouped := make(map[string][]dto.StudentSummary)
	for _, s := range students {
		if s.Attendance == models.AttendanceAbsent || s.Status == models.StatusVerified {
			continue
		}
		grouped[s.Department] = append(grouped[s.Department], s)
	}

	queues := make([]DepartmentQueue, 0, len(grouped))
	for department, waiting := range grouped {
		sort.Slice(waiting, func(i, j int) bool {
			return waiting[i].RegisteredAt.Before(waiting[j].RegisteredAt)
		})
		q := DepartmentQueue{Department: department, Total: len(waiting)}
		if len(waiting) > QueueWindow {
			q.Waiting = waiting[:QueueWindow]
			q.Overflow = len(waiting) - QueueWindow
		} else {
			q.Waiting = waiting
		}
		queues = append(queues, q)
	}
	sort.Slice(queues, func(i, j int) bool { return queues[i].Department < queues[j].Department })
	return queues
}

// QueueBoard is the read-only registration-queue dashboard. It polls
// the full roster on a fixed interval and keeps the latest projection;
// it never writes.
type QueueBoard struct {
	api      rosterAPI
	interval time.Duration
	log      *zap.Logger

	mu        sync.Mutex
	queues    []DepartmentQueue
	refreshed time.Time
	lastErr   error

	onUpdate func([]DepartmentQueue)
}

// NewQueueBoard builds a board polling at the given interval, 10s when
// zero.
func NewQueueBoard(api rosterAPI, interval time.Duration, log *zap.Logger) *QueueBoard {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QueueBoard{api: api, interval: interval, log: log}
}

// OnUpdate registers a callback invoked after every successful refresh.
// Safe to call while Run is polling.
func (b *QueueBoard) OnUpdate(fn func([]DepartmentQueue)) {
	b.mu.Lock()
	b.onUpdate = fn
	b.mu.Unlock()
}

// Refresh fetches the roster once and rebuilds the projection. A fetch
// failure keeps the previous cards on screen and records the error.
func (b *QueueBoard) Refresh(ctx context.Context) error {
	students, err := b.api.Students(ctx, "", "")
	if err != nil {
		b.mu.Lock()
		b.lastErr = err
		b.mu.Unlock()
		b.log.Warn("queue board refresh failed", zap.Error(err))
		return err
	}

	queues := BuildQueues(students)
	b.mu.Lock()
	b.queues = queues
	b.refreshed = time.Now()
	b.lastErr = nil
	onUpdate := b.onUpdate
	b.mu.Unlock()

	if onUpdate != nil {
		onUpdate(queues)
	}
	return nil
}

// Run refreshes immediately and then on every tick until the context is
// cancelled. The ticker stops on teardown; there is no leak when the
// board unmounts.
func (b *QueueBoard) Run(ctx context.Context) {
	_ = b.Refresh(ctx)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = b.Refresh(ctx)
		}
	}
}

// Queues returns the latest projection.
func (b *QueueBoard) Queues() []DepartmentQueue {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]DepartmentQueue, len(b.queues))
	copy(out, b.queues)
	return out
}

// LastRefreshed reports when the board last synced, zero before the
// first successful refresh.
func (b *QueueBoard) LastRefreshed() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshed
}

// LastError returns the error of the most recent failed refresh, nil
// after a success.
func (b *QueueBoard) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}
