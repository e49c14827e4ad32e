package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/vglazkov/euro-oracle/internal/platform/logging"
)

const notifySendTimeout = 10 * time.Second

// NotifyService fans scoring notifications out over a bounded worker
// pool. Delivery is best-effort: a failed send is logged and dropped.
type NotifyService struct {
	sender MessageSender
	pool   *ants.Pool
	log    *logging.Logger
}

func NewNotifyService(sender MessageSender, workers int, log *logging.Logger) (*NotifyService, error) {
	if workers < 1 {
		workers = 4
	}
	if log == nil {
		log = logging.NewNop()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create notification pool: %w", err)
	}
	return &NotifyService{sender: sender, pool: pool, log: log}, nil
}

// Dispatch sends every notification and waits for the batch to drain.
func (s *NotifyService) Dispatch(ctx context.Context, notifications []ResultNotification) {
	if len(notifications) == 0 {
		return
	}

	var delivered, failed atomic.Int32
	var workers sync.WaitGroup
	for _, n := range notifications {
		n := n
		workers.Add(1)
		if err := s.pool.Submit(func() {
			defer workers.Done()

			sendCtx, cancel := context.WithTimeout(ctx, notifySendTimeout)
			defer cancel()
			if err := s.sender.SendMessage(sendCtx, n.ChatID, n.Text, nil); err != nil {
				failed.Add(1)
				s.log.WarnContext(ctx, "notification delivery failed", "chat_id", n.ChatID, "error", err)
				return
			}
			delivered.Add(1)
		}); err != nil {
			workers.Done()
			failed.Add(1)
			s.log.WarnContext(ctx, "submit notification failed", "chat_id", n.ChatID, "error", err)
		}
	}
	workers.Wait()

	s.log.InfoContext(ctx, "notifications dispatched",
		"delivered", delivered.Load(),
		"failed", failed.Load(),
	)
}

func (s *NotifyService) Close() {
	s.pool.Release()
}
