package api

import (
	"net/http"

	"estate-admin/internal/models"
	"estate-admin/internal/services/leads"
)

type leadStatusRequest struct {
	Status models.LeadStatus `json:"status"`
}

type leadActivityRequest struct {
	ActivityType models.ActivityType `json:"activity_type"`
	Description  string              `json:"description"`
}

type leadNoteRequest struct {
	Content string `json:"content"`
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	page, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	q := r.URL.Query()
	f := models.LeadFilter{
		AgentID: q.Get("agent_id"),
		Status:  models.LeadStatus(q.Get("status")),
		Page:    page,
	}
	out, err := s.svc.Leads.List(r.Context(), actor, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, listBody("leads", out, page))
	return nil
}

func (s *Server) createLead(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	var in leads.NewLead
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	lead, err := s.svc.Leads.Create(r.Context(), actor, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"lead": lead})
	return nil
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	lead, err := s.svc.Leads.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lead": lead})
	return nil
}

func (s *Server) updateLeadStatus(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	var req leadStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	lead, err := s.svc.Leads.UpdateStatus(r.Context(), actor, r.PathValue("id"), req.Status)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lead": lead})
	return nil
}

func (s *Server) listLeadActivities(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	page, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	out, err := s.svc.Leads.ListActivities(r.Context(), actor, r.PathValue("id"), page)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, listBody("activities", out, page))
	return nil
}

func (s *Server) addLeadActivity(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	var req leadActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	a, err := s.svc.Leads.AddActivity(r.Context(), actor, r.PathValue("id"), req.ActivityType, req.Description)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"activity": a})
	return nil
}

func (s *Server) listLeadNotes(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	page, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	out, err := s.svc.Leads.ListNotes(r.Context(), actor, r.PathValue("id"), page)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, listBody("notes", out, page))
	return nil
}

func (s *Server) addLeadNote(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	var req leadNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	n, err := s.svc.Leads.AddNote(r.Context(), actor, r.PathValue("id"), req.Content)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"note": n})
	return nil
}
