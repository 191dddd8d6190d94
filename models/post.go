package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post represents a blog post. The post row owns its comments, which are
// serialized into a single column so that a post is written as one document.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AuthorID  string    `gorm:"size:36;index;not null" json:"authorId"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Comments  []Comment `gorm:"serializer:json;type:longtext" json:"comments"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	// UpdatedAt is owned by the caller; the database never stamps it.
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// BeforeCreate hook assigns an id and fills missing timestamps.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	return nil
}

// CommentIndex returns the position of the comment with the given id, or -1.
func (p *Post) CommentIndex(id string) int {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no comment storage with p.
func (p Post) Clone() Post {
	out := p
	out.Comments = make([]Comment, len(p.Comments))
	copy(out.Comments, p.Comments)
	return out
}
