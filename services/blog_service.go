package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/store"
	"github.com/cppla/blogapi/utils"
)

// ListLimit caps the number of posts returned by ListPosts.
const ListLimit = 50

type CreatePostInput struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// UpdatePostInput distinguishes an omitted field (nil) from an explicit empty string.
type UpdatePostInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type CommentInput struct {
	Content string `json:"content" validate:"required"`
}

// BlogService manages posts and their embedded comments. Only a post's author
// may change or delete it; a comment may be removed by its author or by the
// author of the enclosing post.
type BlogService struct {
	posts store.PostStore
	users store.UserStore
	now   func() time.Time
}

type BlogOption func(*BlogService)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) BlogOption {
	return func(s *BlogService) { s.now = now }
}

func NewBlogService(posts store.PostStore, users store.UserStore, opts ...BlogOption) *BlogService {
	s := &BlogService{
		posts: posts,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPosts returns the newest posts with their authors; comment authors stay unexpanded.
func (s *BlogService) ListPosts(ctx context.Context) ([]PostView, error) {
	posts, err := s.posts.ListPosts(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	ids := make([]string, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].AuthorID)
	}
	users, err := s.resolveUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]PostView, 0, len(posts))
	for i := range posts {
		out = append(out, postView(&posts[i], users, false))
	}
	return out, nil
}

// GetPost returns one post with every comment author expanded.
func (s *BlogService) GetPost(ctx context.Context, id string) (*PostView, error) {
	post, err := s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, post)
}

func (s *BlogService) CreatePost(ctx context.Context, callerID string, in CreatePostInput) (*PostView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = utils.StripTags(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	author, err := s.users.GetUserByID(ctx, callerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errUserGone
	}
	if err != nil {
		return nil, fmt.Errorf("lookup author: %w", err)
	}

	now := s.now()
	post := &models.Post{
		AuthorID:  author.ID,
		Title:     in.Title,
		Content:   in.Content,
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	v := postView(post, map[string]models.User{author.ID: *author}, true)
	return &v, nil
}

// UpdatePost applies the fields present in the request. An explicit empty string overwrites.
func (s *BlogService) UpdatePost(ctx context.Context, callerID, id string, in UpdatePostInput) (*PostView, error) {
	post, err := s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		return nil, errNotPostAuthor
	}

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = utils.StripTags(*in.Content)
	}
	post.UpdatedAt = s.now()
	if err := s.save(ctx, post); err != nil {
		return nil, err
	}
	return s.expand(ctx, post)
}

func (s *BlogService) DeletePost(ctx context.Context, callerID, id string) error {
	post, err := s.loadPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID {
		return errNotPostAuthor
	}
	// comments are embedded and go with the post
	if err := s.posts.DeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// AddComment prepends a comment and returns it as stored, author expanded.
func (s *BlogService) AddComment(ctx context.Context, callerID, postID string, in CommentInput) (*CommentView, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        s.posts.NewCommentID(),
		AuthorID:  callerID,
		Content:   in.Content,
		CreatedAt: s.now(),
	}
	post.Comments = append([]models.Comment{comment}, post.Comments...)
	if err := s.save(ctx, post); err != nil {
		return nil, err
	}

	stored, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	idx := stored.CommentIndex(comment.ID)
	if idx < 0 {
		return nil, errCommentNotFound
	}
	users, err := s.resolveUsers(ctx, []string{stored.Comments[idx].AuthorID})
	if err != nil {
		return nil, err
	}
	v := commentView(stored.Comments[idx], users)
	return &v, nil
}

// DeleteComment removes a comment, keeping the order of the remaining ones.
func (s *BlogService) DeleteComment(ctx context.Context, callerID, postID, commentID string) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	idx := post.CommentIndex(commentID)
	if idx < 0 {
		return errCommentNotFound
	}
	if post.Comments[idx].AuthorID != callerID && post.AuthorID != callerID {
		return errNotCommentEditor
	}

	post.Comments = append(post.Comments[:idx:idx], post.Comments[idx+1:]...)
	return s.save(ctx, post)
}

func (s *BlogService) loadPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.GetPost(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load post %s: %w", id, err)
	}
	return post, nil
}

func (s *BlogService) save(ctx context.Context, post *models.Post) error {
	if err := s.posts.SavePost(ctx, post); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errPostNotFound
		}
		return fmt.Errorf("save post %s: %w", post.ID, err)
	}
	return nil
}

func (s *BlogService) expand(ctx context.Context, post *models.Post) (*PostView, error) {
	ids := make([]string, 0, len(post.Comments)+1)
	ids = append(ids, post.AuthorID)
	for _, c := range post.Comments {
		ids = append(ids, c.AuthorID)
	}
	users, err := s.resolveUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	v := postView(post, users, true)
	return &v, nil
}

func (s *BlogService) resolveUsers(ctx context.Context, ids []string) (map[string]models.User, error) {
	ids = utils.UniqueStrings(ids)
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve authors: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
