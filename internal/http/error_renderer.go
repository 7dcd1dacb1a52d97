package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/qldt/qldt-api/internal/errors"
	obserrors "github.com/qldt/qldt-api/internal/observability/errors"
)

// ErrorStatus maps an application error to its HTTP status. Errors that carry no
// AppError are internal.
func ErrorStatus(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeTenantNotFound, apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeIdentityNotFound, apperrors.ErrCodeRestrictedIdentifierNotFound:
		return http.StatusUnauthorized
	case apperrors.ErrCodePoolConnectionFailed, apperrors.ErrCodeDirectoryUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError writes err as a JSON error. Only the AppError message reaches the
// client; the cause, which may name servers or carry driver detail, is logged.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := ErrorStatus(err)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal("internal error")
	}

	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logger.Log(r.Context(), level, "request failed",
		"path", r.URL.Path,
		"status", status,
		"error_type", obserrors.Classify(err),
		"error", err,
	)

	code := string(appErr.Code)
	if code == "" {
		code = errCodeInternal
	}
	WriteJSON(w, status, errorBody{Error: code, Message: appErr.Message, Field: appErr.Field})
}
