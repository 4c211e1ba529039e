package domain

import "context"

// PostAction names the mutation carried by a PostEvent.
type PostAction string

const (
	PostCreated PostAction = "create"
	PostUpdated PostAction = "update"
	PostDeleted PostAction = "delete"
)

// PostEvent is broadcast to every connected subscriber after a post mutation.
type PostEvent struct {
	Action PostAction
	Post   FeedPost
}

// Notifier delivers post events. Delivery is fire-and-forget: there is no
// acknowledgment and no replay for subscribers that were not connected.
type Notifier interface {
	Publish(ctx context.Context, event PostEvent) error
}
