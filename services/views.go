package services

import (
	"time"

	"github.com/cppla/blogapi/models"
)

// UserView is the public projection of a user. The password hash never leaves the service.
type UserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthorView references a user; Name and Email are empty when the author is not expanded.
type AuthorView struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type CommentView struct {
	ID        string     `json:"id"`
	Author    AuthorView `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
}

type PostView struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Author    AuthorView    `json:"author"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

func userView(u *models.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func authorView(id string, users map[string]models.User) AuthorView {
	if u, ok := users[id]; ok {
		return AuthorView{ID: id, Name: u.Name, Email: u.Email}
	}
	return AuthorView{ID: id}
}

func commentView(c models.Comment, users map[string]models.User) CommentView {
	return CommentView{
		ID:        c.ID,
		Author:    authorView(c.AuthorID, users),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

// postView projects p. Comment authors are expanded only when expandComments is set.
func postView(p *models.Post, users map[string]models.User, expandComments bool) PostView {
	v := PostView{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Author:    authorView(p.AuthorID, users),
		Comments:  make([]CommentView, 0, len(p.Comments)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, c := range p.Comments {
		if expandComments {
			v.Comments = append(v.Comments, commentView(c, users))
		} else {
			v.Comments = append(v.Comments, commentView(c, nil))
		}
	}
	return v
}
