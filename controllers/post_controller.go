package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// PostController manages CRUD operations for posts and comments.
type PostController struct {
	blogs *services.BlogService
}

// NewPostController creates a new PostController instance.
func NewPostController(blogs *services.BlogService) *PostController {
	return &PostController{blogs: blogs}
}

// ListPosts returns the newest posts including author information.
func (p *PostController) ListPosts(ctx *gin.Context) {
	posts, err := p.blogs.ListPosts(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, posts)
}

// GetPost returns a single post with comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.blogs.GetPost(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, post)
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	uid, ok := callerID(ctx)
	if !ok {
		return
	}
	var req services.CreatePostInput
	if !bindJSON(ctx, &req) {
		return
	}
	post, err := p.blogs.CreatePost(ctx.Request.Context(), uid, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, post)
}

// UpdatePost allows the author to update their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	uid, ok := callerID(ctx)
	if !ok {
		return
	}
	var req services.UpdatePostInput
	if !bindJSON(ctx, &req) {
		return
	}
	post, err := p.blogs.UpdatePost(ctx.Request.Context(), uid, ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, post)
}

// DeletePost allows the author to delete their post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	uid, ok := callerID(ctx)
	if !ok {
		return
	}
	if err := p.blogs.DeletePost(ctx.Request.Context(), uid, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Message(ctx, http.StatusOK, "Blog removed")
}

// CreateComment allows authenticated users to comment on posts.
func (p *PostController) CreateComment(ctx *gin.Context) {
	uid, ok := callerID(ctx)
	if !ok {
		return
	}
	var req services.CommentInput
	if !bindJSON(ctx, &req) {
		return
	}
	comment, err := p.blogs.AddComment(ctx.Request.Context(), uid, ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, comment)
}

// DeleteComment allows the comment author or the post author to delete a comment.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	uid, ok := callerID(ctx)
	if !ok {
		return
	}
	if err := p.blogs.DeleteComment(ctx.Request.Context(), uid, ctx.Param("id"), ctx.Param("commentId")); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Message(ctx, http.StatusOK, "Comment deleted")
}
