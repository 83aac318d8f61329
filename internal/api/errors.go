package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"moviebox/internal/services"
)

func statusForError(err error) int {
	switch services.Kind(err) {
	case "not_found":
		return http.StatusNotFound
	case "validation":
		return http.StatusBadRequest
	case "configuration", "external":
		return http.StatusBadGateway
	case "timeout":
		return http.StatusGatewayTimeout
	case "transient":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as an ErrorResponse and stops the handler chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	resp := ErrorResponse{Error: err.Error(), Kind: services.Kind(err)}
	if id, ok := services.RequestIDFromContext(c.Request.Context()); ok {
		resp.RequestID = id
	}
	c.AbortWithStatusJSON(statusForError(err), resp)
}

// abortBindError reports a request body that failed to bind or validate.
func abortBindError(c *gin.Context, err error) {
	abortBadRequest(c, bindingMessage(err))
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body: " + err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, field+" must be at most "+fe.Param()+" characters")
		default:
			msgs = append(msgs, field+" failed "+fe.Tag()+" validation")
		}
	}
	return strings.Join(msgs, "; ")
}

func abortBadRequest(c *gin.Context, message string) {
	abortWithError(c, services.Wrap(services.ErrValidation, "api", c.FullPath(), message, nil))
}
