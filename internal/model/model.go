package model

import "time"

// MaxPostLength is the maximum number of runes in a post text.
const MaxPostLength = 280

type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
	ParentPostID *string   `json:"parent_post_id,omitempty"`
	ThreadID     *string   `json:"thread_id,omitempty"`
}

func (p *Post) IsRoot() bool {
	return p.ParentPostID == nil
}

// Clone returns a copy that shares no pointers with p.
func (p *Post) Clone() *Post {
	c := *p
	if p.ParentPostID != nil {
		parent := *p.ParentPostID
		c.ParentPostID = &parent
	}
	if p.ThreadID != nil {
		threadID := *p.ThreadID
		c.ThreadID = &threadID
	}
	return &c
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Follow records that FollowerID follows LeaderID.
type Follow struct {
	FollowerID string    `json:"follower_id"`
	LeaderID   string    `json:"leader_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type Like struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func StringPtr(s string) *string {
	return &s
}
