package utils

import "github.com/gin-gonic/gin"

// MessageResponse is the body of every non-validation error and of confirmations.
type MessageResponse struct {
	Message string `json:"message"`
}

// FieldError addresses one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResponse is the body of a 400 caused by field validation.
type ValidationResponse struct {
	Errors []FieldError `json:"errors"`
}

// Respond writes data as JSON with the given status code.
func Respond(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, data)
}

// Message writes a {message} body.
func Message(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, MessageResponse{Message: message})
}

// Error writes a {message} body and aborts the handler chain.
func Error(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, MessageResponse{Message: message})
}

// ValidationError writes a 400 {errors:[...]} body and aborts the handler chain.
func ValidationError(ctx *gin.Context, errs []FieldError) {
	ctx.AbortWithStatusJSON(400, ValidationResponse{Errors: errs})
}
