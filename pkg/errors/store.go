package errors

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"

	"github.com/lib/pq"
)

// ClassifyStore maps a database error onto a Kind using SQLSTATE classes.
func ClassifyStore(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	if errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, sql.ErrConnDone) {
		return KindTransient
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "28", "42":
			if pqErr.Code == "42501" || pqErr.Code.Class() == "28" {
				return KindUnauthorized
			}
			return KindUnknown
		case "23":
			if pqErr.Code == "23505" {
				return KindConflict
			}
			return KindValidation
		case "22":
			return KindValidation
		case "08", "40", "53", "57":
			return KindTransient
		}
		return KindUnknown
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindUnknown
}

// FromStore wraps a repository error with the sentinel matching its kind.
func FromStore(err error, message string) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	var base *Error
	switch ClassifyStore(err) {
	case KindNotFound:
		base = ErrNotFound
	case KindUnauthorized:
		base = ErrForbidden
	case KindConflict:
		base = ErrConflict
	case KindValidation:
		base = ErrValidation
	case KindTransient:
		base = ErrTransient
	default:
		base = ErrInternal
	}
	wrapped := Wrap(err, base.Code, base.Status, message)
	wrapped.Kind = base.Kind
	if base == ErrInternal {
		wrapped.Status = http.StatusInternalServerError
	}
	return wrapped
}
