package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type countingSender struct {
	mu     sync.Mutex
	sent   []int64
	failFn func(chatID int64) error
}

func (s *countingSender) SendMessage(_ context.Context, chatID int64, _ string, _ []string) error {
	if s.failFn != nil {
		if err := s.failFn(chatID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.sent = append(s.sent, chatID)
	s.mu.Unlock()
	return nil
}

func TestDispatchDeliversWholeBatch(t *testing.T) {
	sender := &countingSender{}
	svc, err := NewNotifyService(sender, 2, nil)
	if err != nil {
		t.Fatalf("NewNotifyService: %v", err)
	}
	defer svc.Close()

	batch := []ResultNotification{
		{ChatID: 1, Text: "a"},
		{ChatID: 2, Text: "b"},
		{ChatID: 3, Text: "c"},
	}
	svc.Dispatch(context.Background(), batch)

	if len(sender.sent) != 3 {
		t.Fatalf("delivered %d messages, want 3", len(sender.sent))
	}
}

func TestDispatchContinuesPastFailedSend(t *testing.T) {
	sender := &countingSender{failFn: func(chatID int64) error {
		if chatID == 2 {
			return errors.New("blocked by user")
		}
		return nil
	}}
	svc, err := NewNotifyService(sender, 2, nil)
	if err != nil {
		t.Fatalf("NewNotifyService: %v", err)
	}
	defer svc.Close()

	svc.Dispatch(context.Background(), []ResultNotification{
		{ChatID: 1, Text: "a"},
		{ChatID: 2, Text: "b"},
		{ChatID: 3, Text: "c"},
	})

	if len(sender.sent) != 2 {
		t.Fatalf("delivered %d messages, want 2", len(sender.sent))
	}
}

func TestDispatchEmptyBatchIsNoop(t *testing.T) {
	svc, err := NewNotifyService(&countingSender{}, 1, nil)
	if err != nil {
		t.Fatalf("NewNotifyService: %v", err)
	}
	defer svc.Close()

	svc.Dispatch(context.Background(), nil)
}
