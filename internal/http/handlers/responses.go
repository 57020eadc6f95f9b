package handlers

import (
	stderrors "errors"
	"log"
	"net/http"

	"github.com/policynav/policynav/internal/http/respond"
	"github.com/policynav/policynav/pkg/errors"
)

var statusByError = map[error]int{
	errors.ErrInvalidCredentials:  http.StatusUnauthorized,
	errors.ErrUserNotFound:        http.StatusNotFound,
	errors.ErrUserAlreadyExists:   http.StatusConflict,
	errors.ErrUnauthorized:        http.StatusForbidden,
	errors.ErrAccountLocked:       http.StatusForbidden,
	errors.ErrWrongSecurityAnswer: http.StatusUnauthorized,
	errors.ErrInvalidInput:        http.StatusBadRequest,
	errors.ErrWeakPassword:        http.StatusBadRequest,
	errors.ErrInvalidEmail:        http.StatusBadRequest,
	errors.ErrInvalidUsername:     http.StatusBadRequest,
	errors.ErrPasswordReused:      http.StatusBadRequest,
	errors.ErrOtpNotFound:         http.StatusNotFound,
	errors.ErrOtpExpired:          http.StatusGone,
	errors.ErrOtpInvalid:          http.StatusBadRequest,
	errors.ErrOtpInvalidFormat:    http.StatusBadRequest,
	errors.ErrOtpBlocked:          http.StatusForbidden,
	errors.ErrOtpTooSoon:          http.StatusTooManyRequests,
	errors.ErrInvalidToken:        http.StatusUnauthorized,
	errors.ErrWrongPurpose:        http.StatusUnauthorized,
	errors.ErrEmailSendFailed:     http.StatusBadGateway,
	errors.ErrRateLimitExceeded:   http.StatusTooManyRequests,
}

// serviceError translates service-layer errors into the response envelope.
// AppError carries its own status code and user-facing message; bare
// sentinels map through statusByError.
func serviceError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		respond.Error(w, appErr.Code, appErr.Message)
		return
	}

	for sentinel, status := range statusByError {
		if stderrors.Is(err, sentinel) {
			respond.Error(w, status, sentinel.Error())
			return
		}
	}

	log.Printf("internal error: %v", err)
	respond.Error(w, http.StatusInternalServerError, "internal server error")
}
