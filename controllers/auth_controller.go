package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// AuthController handles registration, login and session endpoints.
type AuthController struct {
	accounts  *services.AccountService
	tokens    middleware.TokenParser
	blacklist *utils.TokenBlacklist
}

// NewAuthController creates an AuthController.
func NewAuthController(accounts *services.AccountService, tokens middleware.TokenParser, blacklist *utils.TokenBlacklist) *AuthController {
	return &AuthController{accounts: accounts, tokens: tokens, blacklist: blacklist}
}

// Register handles local account registration.
func (a *AuthController) Register(ctx *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := a.accounts.Register(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, res)
}

// Login exchanges email and password for a token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req services.LoginInput
	if !bindJSON(ctx, &req) {
		return
	}
	res, err := a.accounts.Login(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, res)
}

// Logout invalidates the presented token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token, ok := middleware.BearerToken(ctx.GetHeader("Authorization"))
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.ErrNoToken.Message)
		return
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, middleware.ErrInvalidToken.Message)
		return
	}

	expiresAt := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := a.blacklist.Revoke(ctx.Request.Context(), token, expiresAt); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Message(ctx, http.StatusOK, "Logged out")
}

// Me returns the caller's public profile.
func (a *AuthController) Me(ctx *gin.Context) {
	uid, ok := callerID(ctx)
	if !ok {
		return
	}
	me, err := a.accounts.Me(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusOK, me)
}
