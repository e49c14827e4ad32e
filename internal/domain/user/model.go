package user

import "time"

// ChatStage is the persisted conversation state for a chat. Simple
// means no prompt is pending; the Awaiting stages mean the next plain
// message is the answer to an earlier prompt.
type ChatStage int

const (
	StageSimple        ChatStage = 0
	StageEnteringScore ChatStage = 10
	StageAwaitingGroup ChatStage = 20
	StageAwaitingStage ChatStage = 30
	StageAwaitingMatch ChatStage = 40
)

// User is one player of the prediction game, identified by the chat id
// of their private conversation with the bot.
type User struct {
	ID               int64
	ChatID           int64
	FirstName        string
	UserName         string
	ChatStage        ChatStage
	ChatStagePayload string
	Notify           bool
	CreatedAt        time.Time
}

// DisplayName prefers the first name and falls back to the handle.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return "игрок"
}
