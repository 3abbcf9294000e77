package api

import (
	"net/http"

	"estate-admin/internal/models"
)

type decisionRequest struct {
	VerificationID string `json:"verification_id"`
	ReviewNotes    string `json:"review_notes"`
}

func (s *Server) listVerifications(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	page, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	f := models.VerificationFilter{
		Status: models.VerificationStatus(r.URL.Query().Get("status")),
		Page:   page,
	}
	out, err := s.svc.Verifications.List(r.Context(), actor, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, listBody("verifications", out, page))
	return nil
}

func (s *Server) getVerification(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	v, err := s.svc.Verifications.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"verification": v})
	return nil
}

func (s *Server) approveVerification(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	res, err := s.svc.Verifications.Approve(r.Context(), actor, req.VerificationID, req.ReviewNotes)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (s *Server) rejectVerification(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	res, err := s.svc.Verifications.Reject(r.Context(), actor, req.VerificationID, req.ReviewNotes)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}
