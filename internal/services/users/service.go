// Package users is admin user management.
package users

import (
	"context"
	"fmt"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/validation"
	"estate-admin/internal/models"
	"estate-admin/internal/services"
	"estate-admin/internal/services/activity"
	"estate-admin/internal/store"
)

type Service struct {
	store    *store.Store
	activity *activity.Log
	logger   logger.Logger
}

func NewService(st *store.Store, act *activity.Log, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{store: st, activity: act, logger: log}
}

func (s *Service) List(ctx context.Context, actor models.Actor, f models.UserFilter) ([]models.User, error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, stderrors.NewValidationError(fmt.Sprintf("unknown role %q", f.Role))
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, stderrors.NewValidationError(fmt.Sprintf("unknown user status %q", f.Status))
	}
	out, err := s.store.ListUsers(ctx, f)
	if err != nil {
		return nil, services.ReadError(err, "user", "", "list_users")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor models.Actor, id string) (*models.User, error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, services.ReadError(err, "user", id, "get_user")
	}
	return u, nil
}

// Update applies the given fields. An admin cannot demote or suspend themselves.
func (s *Service) Update(ctx context.Context, actor models.Actor, id string, upd models.UserUpdate) (*models.User, error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateUpdate(upd); err != nil {
		return nil, err
	}
	if id == actor.UserID {
		if (upd.Role != nil && *upd.Role != models.RoleAdmin) || (upd.Status != nil && *upd.Status != models.UserActive) {
			return nil, stderrors.NewForbiddenError("admins cannot demote or suspend themselves")
		}
	}

	u, err := s.store.UpdateUser(ctx, id, upd)
	if err != nil {
		return nil, services.WriteError(err, "user", id, "update_user")
	}

	details := map[string]interface{}{}
	if upd.Role != nil {
		details["role"] = *upd.Role
	}
	if upd.Status != nil {
		details["status"] = *upd.Status
	}
	if upd.FullName != nil {
		details["full_name_changed"] = true
	}
	if upd.Phone != nil {
		details["phone_changed"] = true
	}
	if err := s.activity.Record(ctx, &models.AuditEvent{
		EventType:    models.EventUserUpdated,
		ResourceType: "user",
		ResourceID:   id,
		ActorID:      actor.UserID,
		Details:      details,
	}); err != nil {
		s.logger.Warn("user audit failed", map[string]interface{}{"user_id": id, "error": err.Error()})
	}
	return u, nil
}

func validateUpdate(upd models.UserUpdate) error {
	switch {
	case upd.Empty():
		return stderrors.NewValidationError("at least one of role, status, full_name or phone is required")
	case upd.Role != nil && !upd.Role.Valid():
		return stderrors.NewValidationError(fmt.Sprintf("unknown role %q", *upd.Role))
	case upd.Status != nil && !upd.Status.Valid():
		return stderrors.NewValidationError(fmt.Sprintf("unknown user status %q", *upd.Status))
	case upd.FullName != nil && validation.IsBlank(*upd.FullName):
		return stderrors.NewValidationError("full_name cannot be blank")
	case upd.Phone != nil && *upd.Phone != "" && !validation.ValidatePhone(*upd.Phone):
		return stderrors.NewValidationError("phone is not a valid number")
	}
	return nil
}
