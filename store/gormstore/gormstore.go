// Package gormstore persists users and posts through GORM on MySQL or SQLite.
// Comments live in a JSON column of their post row.
package gormstore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/store"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Comments == nil {
			posts[i].Comments = []models.Comment{}
		}
	}
	return posts, nil
}

// SavePost rewrites the mutable columns of the post row, comments included.
func (s *Store) SavePost(ctx context.Context, post *models.Post) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Post{ID: post.ID}).
		Select("title", "content", "comments", "updated_at").
		Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when nothing changed
		var n int64
		if err := db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) NewCommentID() string {
	return uuid.NewString()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
