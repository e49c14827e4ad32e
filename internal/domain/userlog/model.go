package userlog

import "time"

const maxResponseLen = 255

// Entry records one inbound message and, once delivered, the reply
// sent for it.
type Entry struct {
	ID        int64
	UserID    int64
	UserName  string
	Request   string
	Response  string
	CreatedAt time.Time
}

// TruncateResponse bounds stored reply text; long listings would
// otherwise bloat the audit table.
func TruncateResponse(text string) string {
	runes := []rune(text)
	if len(runes) > maxResponseLen {
		return string(runes[:maxResponseLen])
	}
	return text
}
