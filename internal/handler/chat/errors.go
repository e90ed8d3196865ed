package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/zhouzirui/medassist/backend/internal/service/consult"
	"github.com/zhouzirui/medassist/backend/internal/service/location"

	chatService "github.com/zhouzirui/medassist/backend/internal/service/chat"
)

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	var deviceErr *location.DeviceError
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, consult.ErrEmptyMessage),
		errors.Is(err, location.ErrEmptyQuery),
		errors.Is(err, chatService.ErrEmptyContent),
		errors.Is(err, chatService.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrLocationRequired):
		return http.StatusPreconditionFailed
	case errors.Is(err, chatService.ErrLocationAlreadySet),
		errors.Is(err, chatService.ErrRequestPending):
		return http.StatusConflict
	case errors.As(err, &deviceErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, location.ErrLookupFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
