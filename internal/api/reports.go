package api

import (
	"net/http"

	"estate-admin/internal/models"
)

type reportStatusRequest struct {
	Status     models.ReportStatus `json:"status"`
	AdminNotes *string             `json:"admin_notes"`
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	page, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	f := models.ReportFilter{
		Status: models.ReportStatus(r.URL.Query().Get("status")),
		Page:   page,
	}
	out, err := s.svc.Reports.List(r.Context(), actor, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, listBody("reports", out, page))
	return nil
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	rep, err := s.svc.Reports.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": rep})
	return nil
}

func (s *Server) updateReport(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	var req reportStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	rep, err := s.svc.Reports.SetStatus(r.Context(), actor, r.PathValue("id"), req.Status, req.AdminNotes)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": rep})
	return nil
}
