package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kityk/wms-order-service/internal/apperr"
	"github.com/kityk/wms-order-service/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// writeError translates any error into the common error envelope. This is
// the only place domain errors are logged: the envelope's trace id goes to
// both the response and the log line so the two can be correlated.
func (h *HTTPHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err)
	}

	if ae.Rewrapped {
		// A domain error wrapping another domain error means a layer
		// re-classified what was already classified. The trace id was
		// preserved; the event itself must be visible.
		h.logger.ErrorContext(ctx, "SEVERE: domain error was re-wrapped, this must not happen",
			slog.String("error_id", ae.TraceID), slog.Any("error", ae.Err))
	}

	status := ae.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed",
			slog.String("error_id", ae.TraceID), slog.Any("error", err))
	} else {
		h.logger.WarnContext(ctx, "request failed",
			slog.String("error_id", ae.TraceID), slog.String("detail", ae.Detail))
	}

	errorResponses.WithLabelValues(strconv.Itoa(status)).Inc()
	utils.WriteJSON(w, ae.Envelope(), status)
}

// writeValidationError aggregates every field failure into one envelope
// rather than reporting only the first.
func (h *HTTPHandler) writeValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		h.writeError(ctx, w, apperr.Invalid("Invalid request body"))
		return
	}

	fieldDetail := func(fe validator.FieldError) string {
		return fmt.Sprintf("Validation error for field '%s': %s", fe.Field(), fe.Tag())
	}

	var ae *apperr.Error
	if len(ve) == 1 {
		ae = apperr.Invalid(fieldDetail(ve[0]))
	} else {
		ae = apperr.Invalid("Multiple validation errors occurred")
		for _, fe := range ve {
			ae.SubDetails = append(ae.SubDetails, fieldDetail(fe))
		}
	}
	ae.Suggestion = "Please check your input and correct the validation errors"

	h.writeError(ctx, w, ae)
}
