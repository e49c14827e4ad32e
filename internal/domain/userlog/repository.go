package userlog

import "context"

// Repository persists conversation audit entries. Insert fills in the
// entry's ID so the response can be attached after delivery.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	SetResponse(ctx context.Context, id int64, response string) error
}
