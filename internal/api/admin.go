package api

import (
	"net/http"

	"estate-admin/internal/models"
	"estate-admin/internal/notify"
)

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	stats, err := s.svc.Stats.Dashboard(r.Context(), actor)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}

func (s *Server) searchActivity(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	page, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	q := models.ActivityQuery{Query: r.URL.Query().Get("q"), Page: page}
	events, err := s.svc.Activity.Search(r.Context(), actor, q)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, listBody("events", events, page))
	return nil
}

func (s *Server) sendEmail(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	var msg notify.Message
	if err := decodeJSON(r, &msg); err != nil {
		return err
	}
	res, err := s.svc.Messages.SendEmail(r.Context(), actor, msg)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    res.Delivered,
		"message_id": res.MessageID,
		"provider":   res.Provider,
		"sent_at":    res.SentAt,
	})
	return nil
}
