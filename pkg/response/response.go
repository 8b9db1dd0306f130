// Package response writes the JSON envelope shared by every API route:
// {success, data, error{code,message}, meta}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/scribekeys/pkg/errors"
)

// Response is the envelope.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo is the client-visible part of an AppError.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta describes one page of a listing.
type Meta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// NewMeta fills in TotalPages from the page size. A zero page size yields no page count.
func NewMeta(page, perPage int, total int64) *Meta {
	meta := &Meta{Page: page, PerPage: perPage, Total: int(total)}
	if perPage > 0 {
		meta.TotalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return meta
}

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func SuccessWithMeta(c *gin.Context, status int, data any, meta *Meta) {
	c.JSON(status, Response{Success: true, Data: data, Meta: meta})
}

// Acknowledge answers a command that returns no payload.
func Acknowledge(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true})
}

// Error renders err through its AppError. Server-side failures get the generic
// message, and their cause is attached to the gin context for the access log.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr == nil {
		appErr = appErrors.ErrInternalServer
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	info := &ErrorInfo{Code: appErr.Code, Message: appErr.Message}
	if status >= http.StatusInternalServerError {
		info.Message = appErrors.ErrInternalServer.Message
		if appErr.Internal != nil {
			_ = c.Error(appErr.Internal)
		}
	}

	c.JSON(status, Response{Error: info})
}
