package api

import (
	"net/http"

	"estate-admin/internal/models"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	page, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	q := r.URL.Query()
	f := models.UserFilter{
		Role:   models.Role(q.Get("role")),
		Status: models.UserStatus(q.Get("status")),
		Page:   page,
	}
	out, err := s.svc.Users.List(r.Context(), actor, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, listBody("users", out, page))
	return nil
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	u, err := s.svc.Users.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": u})
	return nil
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	var upd models.UserUpdate
	if err := decodeJSON(r, &upd); err != nil {
		return err
	}
	u, err := s.svc.Users.Update(r.Context(), actor, r.PathValue("id"), upd)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": u})
	return nil
}
