package service

import (
	"errors"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// storeErr converts a store failure into an apperr kind.  Errors that are
// already classified pass through untouched.
func storeErr(resource, key string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(resource, key)
	case errors.Is(err, repository.ErrVersionConflict):
		return apperr.Conflict("%s %s was modified concurrently, reload and retry", resource, key)
	}
	return apperr.Internal("load "+resource, err)
}

// optional returns (nil, nil) for ErrNotFound so callers can treat a
// missing pre-order or order as empty.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
