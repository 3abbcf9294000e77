// Package verification applies admin approve/reject decisions to agent and
// property verification requests and notifies the owner.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estate-admin/internal/common/config"
	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/metrics"
	"estate-admin/internal/common/observability"
	"estate-admin/internal/common/validation"
	"estate-admin/internal/models"
	"estate-admin/internal/notify"
	"estate-admin/internal/services"
	"estate-admin/internal/services/activity"
	"estate-admin/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

const defaultReminderBatch = 100

// Notifier is the part of notify.Service used here.
type Notifier interface {
	SendTemplate(ctx context.Context, to string, name notify.TemplateName, data map[string]string) notify.Result
	SendSMS(ctx context.Context, phone, text string) notify.Result
	SMSEnabled() bool
}

type Options struct {
	// DecisionMode is config.DecisionModeTransactional or config.DecisionModeSequential.
	DecisionMode      string
	StrictTransitions bool
	ReminderAfter     time.Duration
	ReminderBatch     int
}

// OptionsFromConfig reads the workflow section.
func OptionsFromConfig(w config.WorkflowConfig) Options {
	return Options{
		DecisionMode:      w.DecisionMode,
		StrictTransitions: w.StrictTransitions,
		ReminderAfter:     w.ReminderAfter(),
		ReminderBatch:     defaultReminderBatch,
	}
}

type Service struct {
	store    *store.Store
	notifier Notifier
	activity *activity.Log
	opts     Options
	logger   logger.Logger
}

func NewService(st *store.Store, n Notifier, act *activity.Log, opts Options, log logger.Logger) *Service {
	if opts.DecisionMode == "" {
		opts.DecisionMode = config.DecisionModeTransactional
	}
	if opts.ReminderBatch <= 0 {
		opts.ReminderBatch = defaultReminderBatch
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{store: st, notifier: n, activity: act, opts: opts, logger: log}
}

// Approve marks the verification approved and its entity verified.
func (s *Service) Approve(ctx context.Context, actor models.Actor, verificationID, reviewNotes string) (*models.DecisionResult, error) {
	return s.Decide(ctx, actor, models.Decision{
		VerificationID: verificationID,
		Status:         models.VerificationApproved,
		ReviewNotes:    reviewNotes,
	})
}

// Reject marks the verification and its entity rejected. reviewNotes is required.
func (s *Service) Reject(ctx context.Context, actor models.Actor, verificationID, reviewNotes string) (*models.DecisionResult, error) {
	return s.Decide(ctx, actor, models.Decision{
		VerificationID: verificationID,
		Status:         models.VerificationRejected,
		ReviewNotes:    reviewNotes,
	})
}

// Decide applies d on behalf of actor. The reviewer is always the actor.
func (s *Service) Decide(ctx context.Context, actor models.Actor, d models.Decision) (result *models.DecisionResult, err error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	d.ReviewerID = actor.UserID
	if err := validateDecision(d); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "verification.decide",
		attribute.String("verification.id", d.VerificationID),
		attribute.String("verification.status", string(d.Status)),
		attribute.String("decision.mode", s.opts.DecisionMode))
	defer func() { observability.EndSpan(span, err) }()

	var (
		updated *models.Verification
		event   *models.AuditEvent
	)
	if s.opts.DecisionMode == config.DecisionModeSequential {
		updated, event, err = s.applySequential(ctx, d)
	} else {
		updated, event, err = s.applyTransactional(ctx, d)
	}
	if err != nil {
		s.logger.Warn("verification decision failed", map[string]interface{}{
			"verification_id": d.VerificationID,
			"status":          d.Status,
			"mode":            s.opts.DecisionMode,
			"error":           err.Error(),
		})
		return nil, err
	}

	if event == nil {
		s.logger.Info("verification decision already applied", map[string]interface{}{
			"verification_id": updated.ID,
			"status":          updated.Status,
			"reviewer_id":     d.ReviewerID,
		})
		return &models.DecisionResult{
			Verification: updated,
			EntityStatus: d.Status.EntityStatus(),
			Replayed:     true,
		}, nil
	}

	metrics.VerificationDecisions.WithLabelValues(string(updated.EntityType), string(d.Status)).Inc()
	s.activity.Index(ctx, *event)

	result = &models.DecisionResult{
		Verification: updated,
		EntityStatus: d.Status.EntityStatus(),
	}
	res := s.notifyOwner(ctx, updated)
	result.NotificationSent = res.Delivered
	result.NotificationError = res.ErrorMessage()

	s.logger.Info("verification decided", map[string]interface{}{
		"verification_id":   updated.ID,
		"entity_type":       updated.EntityType,
		"entity_id":         updated.EntityID,
		"status":            updated.Status,
		"reviewer_id":       d.ReviewerID,
		"notification_sent": result.NotificationSent,
	})
	return result, nil
}

func validateDecision(d models.Decision) error {
	if validation.IsBlank(d.VerificationID) {
		return stderrors.NewValidationError("verification_id is required")
	}
	switch d.Status {
	case models.VerificationApproved:
	case models.VerificationRejected:
		if validation.IsBlank(d.ReviewNotes) {
			return stderrors.NewValidationError("review_notes is required when rejecting")
		}
	default:
		return stderrors.NewValidationError(fmt.Sprintf("decision status must be approved or rejected, got %q", d.Status))
	}
	return nil
}

// applyTransactional locks the verification and commits the decision, the
// entity status and the audit row together.
func (s *Service) applyTransactional(ctx context.Context, d models.Decision) (*models.Verification, *models.AuditEvent, error) {
	var (
		updated *models.Verification
		event   *models.AuditEvent
	)
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		current, err := tx.LockVerification(ctx, d.VerificationID)
		if err != nil {
			return services.ReadError(err, "verification", d.VerificationID, "lock_verification")
		}
		updated, event, err = s.apply(ctx, tx, current, d)
		return err
	})
	if err != nil {
		return nil, nil, services.WriteError(err, "verification", d.VerificationID, "commit_decision")
	}
	return updated, event, nil
}

// applySequential issues the verification and entity writes independently.
// A failed entity write leaves the verification decided.
func (s *Service) applySequential(ctx context.Context, d models.Decision) (*models.Verification, *models.AuditEvent, error) {
	current, err := s.store.GetVerification(ctx, d.VerificationID)
	if err != nil {
		return nil, nil, services.ReadError(err, "verification", d.VerificationID, "get_verification")
	}
	return s.apply(ctx, s.store, current, d)
}

// apply writes d over current. A nil event with a nil error means current
// already carries d and nothing was written.
func (s *Service) apply(ctx context.Context, st *store.Store, current *models.Verification, d models.Decision) (*models.Verification, *models.AuditEvent, error) {
	if s.opts.StrictTransitions && sameDecision(current, d) {
		return current, nil, nil
	}
	if s.opts.StrictTransitions && !models.VerificationTransitions.Allows(current.Status, d.Status) {
		return nil, nil, stderrors.NewInvalidTransitionError("verification", string(current.Status), string(d.Status))
	}

	updated, err := st.DecideVerification(ctx, d)
	if err != nil {
		return nil, nil, services.WriteError(err, "verification", d.VerificationID, "decide_verification")
	}

	if err := st.SetEntityStatus(ctx, updated.Entity, d.Status.EntityStatus()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, stderrors.NewEntityMissingError(string(updated.EntityType), updated.EntityID)
		}
		return nil, nil, services.WriteError(err, string(updated.EntityType), updated.EntityID, "set_entity_status")
	}

	event := &models.AuditEvent{
		EventType:    decisionEvent(d.Status),
		ResourceType: "verification",
		ResourceID:   updated.ID,
		ActorID:      d.ReviewerID,
		Details: map[string]interface{}{
			"entity_type":     updated.EntityType,
			"entity_id":       updated.EntityID,
			"previous_status": current.Status,
			"status":          updated.Status,
			"review_notes":    d.ReviewNotes,
		},
	}
	if err := s.activity.Write(ctx, st, event); err != nil {
		return nil, nil, err
	}
	return updated, event, nil
}

// sameDecision reports whether current was decided by the same reviewer
// with the same outcome and notes.
func sameDecision(current *models.Verification, d models.Decision) bool {
	if current.Status != d.Status || current.ReviewedBy == nil || *current.ReviewedBy != d.ReviewerID {
		return false
	}
	notes := ""
	if current.ReviewNotes != nil {
		notes = *current.ReviewNotes
	}
	return notes == d.ReviewNotes
}

func decisionEvent(status models.VerificationStatus) string {
	if status == models.VerificationApproved {
		return models.EventVerificationApproved
	}
	return models.EventVerificationRejected
}

// notifyOwner emails the entity owner and, when enabled, texts them. Only
// the email outcome is reported.
func (s *Service) notifyOwner(ctx context.Context, v *models.Verification) notify.Result {
	owner, err := s.store.EntityOwner(ctx, v.Entity)
	if err != nil {
		return notify.Result{Err: fmt.Errorf("owner lookup failed: %w", err)}
	}
	if validation.IsBlank(owner.Email) {
		return notify.Result{Err: errors.New("owner has no email address")}
	}

	tmpl := notify.TemplateVerificationApproved
	if v.Status == models.VerificationRejected {
		tmpl = notify.TemplateVerificationRejected
	}
	res := s.notifier.SendTemplate(ctx, owner.Email, tmpl, templateData(v, owner))

	if s.notifier.SMSEnabled() && owner.Phone != "" {
		sms := s.notifier.SendSMS(ctx, owner.Phone,
			fmt.Sprintf("Your %s verification was %s. Check your email for details.", entityLabel(v.EntityType), v.Status))
		if sms.Err != nil {
			s.logger.Warn("decision sms failed", map[string]interface{}{
				"verification_id": v.ID,
				"error":           sms.ErrorMessage(),
			})
		}
	}
	return res
}

func templateData(v *models.Verification, owner *models.Owner) map[string]string {
	data := map[string]string{
		"name":          owner.FullName,
		"entity_label":  entityLabel(v.EntityType),
		"document_type": v.DocumentType,
		"submitted_at":  v.CreatedAt.Format("2 Jan 2006"),
	}
	if v.ReviewNotes != nil {
		data["review_notes"] = *v.ReviewNotes
	}
	return data
}

func entityLabel(t models.EntityType) string {
	if t == models.EntityProperty {
		return "property listing"
	}
	return "agent profile"
}

// Get returns one verification request.
func (s *Service) Get(ctx context.Context, actor models.Actor, id string) (*models.Verification, error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	v, err := s.store.GetVerification(ctx, id)
	if err != nil {
		return nil, services.ReadError(err, "verification", id, "get_verification")
	}
	return v, nil
}

// List returns verification requests, optionally filtered by status.
func (s *Service) List(ctx context.Context, actor models.Actor, f models.VerificationFilter) ([]models.Verification, error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, stderrors.NewValidationError(fmt.Sprintf("unknown verification status %q", f.Status))
	}
	out, err := s.store.ListVerifications(ctx, f)
	if err != nil {
		return nil, services.ReadError(err, "verification", "", "list_verifications")
	}
	return out, nil
}

// SendReminders emails the owners of verifications that have been pending
// longer than olderThan. Zero uses the configured threshold.
func (s *Service) SendReminders(ctx context.Context, olderThan time.Duration) (*models.ReminderResult, error) {
	if olderThan <= 0 {
		olderThan = s.opts.ReminderAfter
	}
	cutoff := s.store.Now().Add(-olderThan)

	stale, err := s.store.ListStalePending(ctx, cutoff, s.opts.ReminderBatch)
	if err != nil {
		return nil, services.ReadError(err, "verification", "", "list_stale_pending")
	}

	result := &models.ReminderResult{Checked: len(stale)}
	for i := range stale {
		v := &stale[i]
		owner, err := s.store.EntityOwner(ctx, v.Entity)
		if err != nil || validation.IsBlank(owner.Email) {
			result.Failed = append(result.Failed, v.ID)
			continue
		}
		res := s.notifier.SendTemplate(ctx, owner.Email, notify.TemplateVerificationReminder, templateData(v, owner))
		if !res.Delivered {
			result.Failed = append(result.Failed, v.ID)
			continue
		}
		result.Sent++
	}

	s.logger.Info("verification reminders sent", map[string]interface{}{
		"checked": result.Checked,
		"sent":    result.Sent,
		"failed":  len(result.Failed),
		"cutoff":  cutoff.Format(time.RFC3339),
	})
	return result, nil
}
