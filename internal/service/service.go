// Package service holds the FindShroom business logic. Handlers call
// services; services call the store and the external clients.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/store"
	"github.com/findshroom/findshroom-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// storeError maps store errors onto domain errors. Anything unrecognized is
// wrapped with op and surfaces as INTERNAL.
func storeError(err error, op string) error {
	var storeErr *store.Error
	switch {
	case errors.Is(err, store.ErrNotFound):
		if errors.As(err, &storeErr) {
			return domainerrors.NotFound(storeErr.Message)
		}
		return domainerrors.ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		if errors.As(err, &storeErr) {
			return domainerrors.AlreadyExists(storeErr.Message)
		}
		return domainerrors.ErrAlreadyExists
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(err.Error())
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
