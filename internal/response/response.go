package response

import (
	"errors"
	"net/http"

	"github.com/PulseFit-Club/service-scheduling/internal/domain"
	"github.com/gin-gonic/gin"
)

// envelope is the uniform response body shape.
type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Data: data})
}

// Created writes a 201 with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Data: data})
}

// Paginated writes a 200 with items and pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"data":  items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// BadRequest writes a 400 with a validation error body.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Error: &errorBody{
		Code:    string(domain.CodeValidation),
		Message: message,
	}})
}

// Error maps a domain error to its transport status: 400 validation,
// 403 forbidden, 404 not found, 409 for every conflict subcode, 500 for
// store errors. Store error details are never leaked to callers.
func Error(c *gin.Context, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, envelope{Error: &errorBody{
			Code:    string(domain.CodeStore),
			Message: "internal error",
		}})
		return
	}

	status := http.StatusInternalServerError
	message := de.Message
	switch de.Code {
	case domain.CodeValidation:
		status = http.StatusBadRequest
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeForbidden:
		status = http.StatusForbidden
	case domain.CodeStore:
		message = "internal error"
	default:
		if domain.IsConflict(de) {
			status = http.StatusConflict
		}
	}

	c.JSON(status, envelope{Error: &errorBody{
		Code:    string(de.Code),
		Message: message,
	}})
}
