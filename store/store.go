// Package store defines the persistence contracts for users and posts.
//
// A post is persisted as one document together with its embedded comments:
// SavePost replaces the whole document, so concurrent read-modify-write
// sequences on the same post resolve with last-writer-wins semantics.
package store

import (
	"context"
	"errors"

	"github.com/cppla/blogapi/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserStore persists user credentials.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUsersByIDs returns the users that exist among ids, in no particular order.
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// PostStore persists posts with their embedded comments.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// ListPosts returns at most limit posts, newest first by creation time.
	ListPosts(ctx context.Context, limit int) ([]models.Post, error)
	SavePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	// NewCommentID allocates an id for a comment about to be appended to a post.
	NewCommentID() string
}

// Store is a complete backend.
type Store interface {
	UserStore
	PostStore
	Close() error
}
