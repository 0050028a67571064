// Package events publishes post creation events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/VitaminP8/tweed/internal/model"
)

const (
	SubjectRootCreated  = "tweed.posts.created"
	SubjectReplyCreated = "tweed.replies.created"
)

type PostEvent struct {
	EventID      string    `json:"event_id"`
	Subject      string    `json:"subject"`
	PostID       string    `json:"post_id"`
	ThreadID     string    `json:"thread_id"`
	ParentPostID string    `json:"parent_post_id,omitempty"`
	AuthorID     string    `json:"author_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher delivers events fire-and-forget: failures are logged by the
// implementation and never reach the caller.
type Publisher interface {
	Publish(ctx context.Context, ev PostEvent)
}

func NewPostEvent(subject string, p *model.Post) PostEvent {
	ev := PostEvent{
		EventID:    uuid.NewString(),
		Subject:    subject,
		PostID:     p.ID,
		AuthorID:   p.AuthorID,
		OccurredAt: time.Now().UTC(),
	}
	if p.ThreadID != nil {
		ev.ThreadID = *p.ThreadID
	}
	if p.ParentPostID != nil {
		ev.ParentPostID = *p.ParentPostID
	}
	return ev
}
