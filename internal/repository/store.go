package repository

import (
	"fmt"

	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

// storeErr annotates err with op and classifies it. err must be non-nil.
func storeErr(err error, op string) error {
	return appErrors.FromStore(fmt.Errorf("%s: %w", op, err), op)
}

// notFound builds the error returned when a targeted row does not exist.
func notFound(what string) error {
	return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
}
