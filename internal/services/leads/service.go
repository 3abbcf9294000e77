// Package leads is the agent-facing CRM: leads, their status pipeline,
// activities and notes. Agents see only their own leads; admins see all.
package leads

import (
	"context"
	"errors"
	"fmt"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/metrics"
	"estate-admin/internal/common/observability"
	"estate-admin/internal/common/validation"
	"estate-admin/internal/models"
	"estate-admin/internal/services"
	"estate-admin/internal/services/activity"
	"estate-admin/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

// NewLead is the input of Create. Zero Status, Priority and LeadScore take
// their defaults.
type NewLead struct {
	AgentID    string              `json:"agent_id"`
	PropertyID *string             `json:"property_id,omitempty"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Phone      string              `json:"phone"`
	Status     models.LeadStatus   `json:"status,omitempty"`
	Priority   models.LeadPriority `json:"priority,omitempty"`
	LeadScore  *int                `json:"lead_score,omitempty"`
	Source     string              `json:"source"`
}

type Service struct {
	store    *store.Store
	activity *activity.Log
	strict   bool
	logger   logger.Logger
}

func NewService(st *store.Store, act *activity.Log, strictTransitions bool, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{store: st, activity: act, strict: strictTransitions, logger: log}
}

// scope resolves the caller's agent id. Admins get "" and no restriction.
func (s *Service) scope(ctx context.Context, st *store.Store, actor models.Actor) (string, error) {
	if err := services.RequireActor(actor); err != nil {
		return "", err
	}
	if actor.IsAdmin() {
		return "", nil
	}
	agentID, err := st.AgentIDForUser(ctx, actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return "", stderrors.NewForbiddenError("caller has no agent profile")
	}
	if err != nil {
		return "", services.ReadError(err, "agent", actor.UserID, "agent_for_user")
	}
	return agentID, nil
}

func authorize(agentID string, lead *models.Lead) error {
	if agentID != "" && lead.AgentID != agentID {
		return stderrors.NewForbiddenError("lead belongs to another agent")
	}
	return nil
}

// loadLead fetches a lead the caller may access. Leads owned by other agents
// are reported as forbidden.
func (s *Service) loadLead(ctx context.Context, actor models.Actor, leadID string) (*models.Lead, error) {
	if validation.IsBlank(leadID) {
		return nil, stderrors.NewValidationError("lead_id is required")
	}
	agentID, err := s.scope(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, services.ReadError(err, "lead", leadID, "get_lead")
	}
	if err := authorize(agentID, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *Service) Create(ctx context.Context, actor models.Actor, in NewLead) (*models.Lead, error) {
	if in.Status == "" {
		in.Status = models.LeadNew
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	score := 0
	if in.LeadScore != nil {
		score = *in.LeadScore
	}
	if err := validateNewLead(in, score); err != nil {
		return nil, err
	}

	agentID, err := s.scope(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	switch {
	case agentID != "" && in.AgentID != "" && in.AgentID != agentID:
		return nil, stderrors.NewForbiddenError("agents may only create their own leads")
	case agentID != "":
		in.AgentID = agentID
	case in.AgentID == "":
		return nil, stderrors.NewValidationError("agent_id is required")
	}

	lead, err := s.store.CreateLead(ctx, models.Lead{
		AgentID:    in.AgentID,
		PropertyID: in.PropertyID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Status:     in.Status,
		Priority:   in.Priority,
		LeadScore:  score,
		Source:     in.Source,
	})
	if err != nil {
		return nil, services.WriteError(err, "lead", "", "create_lead")
	}

	if err := s.activity.Record(ctx, &models.AuditEvent{
		EventType:    models.EventLeadCreated,
		ResourceType: "lead",
		ResourceID:   lead.ID,
		ActorID:      actor.UserID,
		Details:      map[string]interface{}{"agent_id": lead.AgentID, "status": lead.Status, "source": lead.Source},
	}); err != nil {
		s.logger.Warn("lead audit failed", map[string]interface{}{"lead_id": lead.ID, "error": err.Error()})
	}
	return lead, nil
}

func validateNewLead(in NewLead, score int) error {
	switch {
	case validation.IsBlank(in.Name):
		return stderrors.NewValidationError("name is required")
	case in.Email != "" && !validation.ValidateEmail(in.Email):
		return stderrors.NewValidationError("email is not a valid address")
	case !in.Status.Valid():
		return stderrors.NewValidationError(fmt.Sprintf("unknown lead status %q", in.Status))
	case !in.Priority.Valid():
		return stderrors.NewValidationError(fmt.Sprintf("unknown lead priority %q", in.Priority))
	case score < models.MinLeadScore || score > models.MaxLeadScore:
		return stderrors.NewValidationError(fmt.Sprintf("lead_score must be between %d and %d", models.MinLeadScore, models.MaxLeadScore))
	}
	return nil
}

// UpdateStatus moves a lead through the pipeline and logs a status_change
// activity. Entering closed_won or closed_lost stamps closed_at.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, leadID string, status models.LeadStatus) (lead *models.Lead, err error) {
	if err := services.RequireActor(actor); err != nil {
		return nil, err
	}
	if validation.IsBlank(leadID) {
		return nil, stderrors.NewValidationError("lead_id is required")
	}
	if !status.Valid() {
		return nil, stderrors.NewValidationError(fmt.Sprintf("unknown lead status %q", status))
	}

	ctx, span := observability.StartSpan(ctx, "lead.update_status",
		attribute.String("lead.id", leadID),
		attribute.String("lead.status", string(status)))
	defer func() { observability.EndSpan(span, err) }()

	var event *models.AuditEvent
	err = s.store.InTx(ctx, func(tx *store.Store) error {
		agentID, err := s.scope(ctx, tx, actor)
		if err != nil {
			return err
		}
		current, err := tx.LockLead(ctx, leadID)
		if err != nil {
			return services.ReadError(err, "lead", leadID, "lock_lead")
		}
		if err := authorize(agentID, current); err != nil {
			return err
		}
		if s.strict && !models.LeadTransitions.Allows(current.Status, status) {
			return stderrors.NewInvalidTransitionError("lead", string(current.Status), string(status))
		}

		lead, err = tx.UpdateLeadStatus(ctx, leadID, status)
		if err != nil {
			return services.WriteError(err, "lead", leadID, "update_lead_status")
		}

		createdBy := actor.UserID
		if _, err := tx.AddLeadActivity(ctx, models.LeadActivity{
			LeadID:       leadID,
			ActivityType: models.ActivityStatusChange,
			Description:  fmt.Sprintf("Status changed from %s to %s", current.Status, status),
			CreatedBy:    &createdBy,
		}); err != nil {
			return services.WriteError(err, "lead_activity", leadID, "add_lead_activity")
		}

		event = &models.AuditEvent{
			EventType:    models.EventLeadStatusChanged,
			ResourceType: "lead",
			ResourceID:   leadID,
			ActorID:      actor.UserID,
			Details:      map[string]interface{}{"previous_status": current.Status, "status": status},
		}
		return s.activity.Write(ctx, tx, event)
	})
	if err != nil {
		return nil, services.WriteError(err, "lead", leadID, "commit_lead_status")
	}

	metrics.StatusChanges.WithLabelValues("lead", string(status)).Inc()
	s.activity.Index(ctx, *event)
	return lead, nil
}

func (s *Service) AddActivity(ctx context.Context, actor models.Actor, leadID string, kind models.ActivityType, description string) (*models.LeadActivity, error) {
	if !kind.Valid() {
		return nil, stderrors.NewValidationError(fmt.Sprintf("unknown activity type %q", kind))
	}
	if validation.IsBlank(description) {
		return nil, stderrors.NewValidationError("description is required")
	}
	if _, err := s.loadLead(ctx, actor, leadID); err != nil {
		return nil, err
	}

	createdBy := actor.UserID
	a, err := s.store.AddLeadActivity(ctx, models.LeadActivity{
		LeadID:       leadID,
		ActivityType: kind,
		Description:  description,
		CreatedBy:    &createdBy,
	})
	if err != nil {
		return nil, services.WriteError(err, "lead_activity", leadID, "add_lead_activity")
	}
	return a, nil
}

func (s *Service) AddNote(ctx context.Context, actor models.Actor, leadID, content string) (*models.LeadNote, error) {
	if validation.IsBlank(content) {
		return nil, stderrors.NewValidationError("content is required")
	}
	if _, err := s.loadLead(ctx, actor, leadID); err != nil {
		return nil, err
	}

	createdBy := actor.UserID
	n, err := s.store.AddLeadNote(ctx, models.LeadNote{LeadID: leadID, Content: content, CreatedBy: &createdBy})
	if err != nil {
		return nil, services.WriteError(err, "lead_note", leadID, "add_lead_note")
	}
	return n, nil
}

func (s *Service) ListActivities(ctx context.Context, actor models.Actor, leadID string, page models.Page) ([]models.LeadActivity, error) {
	if _, err := s.loadLead(ctx, actor, leadID); err != nil {
		return nil, err
	}
	out, err := s.store.ListLeadActivities(ctx, leadID, page)
	if err != nil {
		return nil, services.ReadError(err, "lead_activity", leadID, "list_lead_activities")
	}
	return out, nil
}

func (s *Service) ListNotes(ctx context.Context, actor models.Actor, leadID string, page models.Page) ([]models.LeadNote, error) {
	if _, err := s.loadLead(ctx, actor, leadID); err != nil {
		return nil, err
	}
	out, err := s.store.ListLeadNotes(ctx, leadID, page)
	if err != nil {
		return nil, services.ReadError(err, "lead_note", leadID, "list_lead_notes")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor models.Actor, leadID string) (*models.Lead, error) {
	return s.loadLead(ctx, actor, leadID)
}

// List returns leads. Agents are always scoped to their own agent id.
func (s *Service) List(ctx context.Context, actor models.Actor, f models.LeadFilter) ([]models.Lead, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, stderrors.NewValidationError(fmt.Sprintf("unknown lead status %q", f.Status))
	}
	agentID, err := s.scope(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	if agentID != "" {
		f.AgentID = agentID
	}
	out, err := s.store.ListLeads(ctx, f)
	if err != nil {
		return nil, services.ReadError(err, "lead", "", "list_leads")
	}
	return out, nil
}
