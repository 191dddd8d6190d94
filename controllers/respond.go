package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// StatusFor maps a service error kind to its HTTP status.
func StatusFor(kind services.Kind) int {
	switch kind {
	case services.KindInvalidInput, services.KindConflict, services.KindInvalidCredentials:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err to the client. Unexpected errors are logged and
// answered with a generic message.
func respondError(ctx *gin.Context, err error) {
	var e *services.Error
	if errors.As(err, &e) {
		if e.Kind == services.KindInvalidInput && len(e.Fields) > 0 {
			utils.ValidationError(ctx, e.Fields)
			return
		}
		utils.Error(ctx, StatusFor(e.Kind), e.Message)
		return
	}
	utils.Logger.Error("request failed",
		zap.Error(err),
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
	)
	utils.Error(ctx, http.StatusInternalServerError, "Server error")
}

// bindJSON decodes the request body into dst. An empty body leaves dst zero
// so that field validation reports what is missing.
func bindJSON(ctx *gin.Context, dst interface{}) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func callerID(ctx *gin.Context) (string, bool) {
	id, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, middleware.ErrNoToken.Message)
	}
	return id, ok
}
