package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewTicketNotFound reports a missing ticket record for the acting channel.
func NewTicketNotFound(channelID string) error {
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    "ticket not found for channel",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"channel_id": channelID},
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewPermissionDenied reports a failed capability check; the operation aborts.
func NewPermissionDenied(message string) error {
	return NewDomainError("PERMISSION_DENIED", message, http.StatusForbidden, nil)
}

// NewEmptySelection reports zero helpers chosen at completion confirmation.
func NewEmptySelection() error {
	return NewDomainError("EMPTY_SELECTION", "no helpers were selected", http.StatusBadRequest, nil)
}

// NewArchiveFailure wraps a transcript retrieval error. Closure proceeds
// without a transcript when this is returned.
func NewArchiveFailure(err error) error {
	return &DomainError{
		Code:       "ARCHIVE_FAILURE",
		Message:    "transcript retrieval failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDeliveryFailure wraps a rejected transcript delivery (DM or log upload).
func NewDeliveryFailure(target string, err error) error {
	return &DomainError{
		Code:       "DELIVERY_FAILURE",
		Message:    fmt.Sprintf("transcript delivery to %s failed", target),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewChannelDeletionFailure wraps a rejected or redundant channel deletion.
func NewChannelDeletionFailure(channelID string, err error) error {
	return &DomainError{
		Code:       "CHANNEL_DELETION_FAILURE",
		Message:    "channel deletion failed",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"channel_id": channelID},
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
