package models

import "time"

// Comment is a reply embedded in exactly one Post. Its id is unique only within that post.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
