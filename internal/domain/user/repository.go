package user

import "context"

// Repository persists players and their conversation state.
type Repository interface {
	GetByChatID(ctx context.Context, chatID int64) (User, bool, error)
	Upsert(ctx context.Context, u *User) error
	SetChatStage(ctx context.Context, chatID int64, stage ChatStage, payload string) error
	SetNotify(ctx context.Context, chatID int64, notify bool) error
}
