package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/bistro-pos/internal/domain/apperr"
	"github.com/xenking/bistro-pos/internal/domain/menu"
	"github.com/xenking/bistro-pos/internal/domain/order"
)

// statusOf maps a domain error to its HTTP status code.
func statusOf(err error) int {
	var (
		badReq     *badRequestError
		transition *order.InvalidTransitionError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest
	case apperr.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &transition),
		errors.Is(err, menu.ErrDuplicateName),
		errors.Is(err, menu.ErrItemInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// message returns the client facing text of err. Wrapping context is
// stripped so internal call chains do not leak.
func message(err error, status int) string {
	var (
		validation *apperr.ValidationError
		transition *order.InvalidTransitionError
	)
	switch {
	case status == http.StatusInternalServerError:
		return "internal error"
	case errors.As(err, &validation):
		return validation.Error()
	case errors.As(err, &transition):
		return transition.Error()
	case errors.Is(err, apperr.ErrNotFound):
		return "not found"
	case errors.Is(err, menu.ErrDuplicateName):
		return menu.ErrDuplicateName.Error()
	case errors.Is(err, menu.ErrItemInUse):
		return menu.ErrItemInUse.Error()
	default:
		return err.Error()
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	msg := message(err, status)
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}
