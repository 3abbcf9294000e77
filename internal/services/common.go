// Package services holds helpers shared by the admin domain services.
package services

import (
	"errors"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/models"
	"estate-admin/internal/store"

	"github.com/google/uuid"
)

// RequireActor rejects calls that carry no authenticated user.
func RequireActor(actor models.Actor) error {
	if actor.UserID == "" {
		return stderrors.NewUnauthorizedError("no authenticated session")
	}
	return nil
}

// RequireAdmin rejects unauthenticated and non-admin callers.
func RequireAdmin(actor models.Actor) error {
	if err := RequireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return stderrors.NewForbiddenError("admin role required")
	}
	return nil
}

// ReadError maps a store read failure onto the error taxonomy.
func ReadError(err error, resource, id, op string) error {
	return mapStoreError(err, resource, id, op, false)
}

// WriteError maps a store write failure onto the error taxonomy.
func WriteError(err error, resource, id, op string) error {
	return mapStoreError(err, resource, id, op, true)
}

func mapStoreError(err error, resource, id, op string, write bool) error {
	if err == nil {
		return nil
	}
	if _, ok := stderrors.AsStandard(err); ok {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return stderrors.NewNotFoundError(resource, id)
	case errors.Is(err, store.ErrReferenceMissing):
		return stderrors.NewValidationError(resource + " references a record that does not exist")
	case store.IsMalformedValue(err):
		// An addressed id that is not a uuid matches no row; any other
		// malformed parameter is a caller error.
		if _, parseErr := uuid.Parse(id); id != "" && parseErr != nil {
			return stderrors.NewNotFoundError(resource, id)
		}
		return stderrors.NewValidationError(resource + " request carries a malformed identifier")
	case write:
		return stderrors.NewDatabaseUpdateError(op, err)
	default:
		return stderrors.NewDatabaseQueryError(op, err)
	}
}
