// Package api is the admin HTTP surface. Handlers decode requests, resolve
// the caller from the bearer token and delegate to the domain services.
package api

import (
	"context"
	"net/http"
	"time"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/observability"
	"estate-admin/internal/models"
	"estate-admin/internal/notify"
	"estate-admin/internal/services/leads"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Actor, error)
}

type VerificationService interface {
	Approve(ctx context.Context, actor models.Actor, verificationID, reviewNotes string) (*models.DecisionResult, error)
	Reject(ctx context.Context, actor models.Actor, verificationID, reviewNotes string) (*models.DecisionResult, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Verification, error)
	List(ctx context.Context, actor models.Actor, f models.VerificationFilter) ([]models.Verification, error)
}

type ReportService interface {
	SetStatus(ctx context.Context, actor models.Actor, reportID string, status models.ReportStatus, adminNotes *string) (*models.Report, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Report, error)
	List(ctx context.Context, actor models.Actor, f models.ReportFilter) ([]models.Report, error)
}

type UserService interface {
	List(ctx context.Context, actor models.Actor, f models.UserFilter) ([]models.User, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.User, error)
	Update(ctx context.Context, actor models.Actor, id string, upd models.UserUpdate) (*models.User, error)
}

type StatsService interface {
	Dashboard(ctx context.Context, actor models.Actor) (*models.DashboardStats, error)
}

type ActivityService interface {
	Search(ctx context.Context, actor models.Actor, q models.ActivityQuery) ([]models.AuditEvent, error)
}

type MessageService interface {
	SendEmail(ctx context.Context, actor models.Actor, msg notify.Message) (notify.Result, error)
}

type LeadService interface {
	Create(ctx context.Context, actor models.Actor, in leads.NewLead) (*models.Lead, error)
	UpdateStatus(ctx context.Context, actor models.Actor, leadID string, status models.LeadStatus) (*models.Lead, error)
	AddActivity(ctx context.Context, actor models.Actor, leadID string, kind models.ActivityType, description string) (*models.LeadActivity, error)
	AddNote(ctx context.Context, actor models.Actor, leadID, content string) (*models.LeadNote, error)
	ListActivities(ctx context.Context, actor models.Actor, leadID string, page models.Page) ([]models.LeadActivity, error)
	ListNotes(ctx context.Context, actor models.Actor, leadID string, page models.Page) ([]models.LeadNote, error)
	Get(ctx context.Context, actor models.Actor, leadID string) (*models.Lead, error)
	List(ctx context.Context, actor models.Actor, f models.LeadFilter) ([]models.Lead, error)
}

// Checker is a named readiness probe, e.g. a database ping.
type Checker func(ctx context.Context) error

// Services groups the domain services behind the routes.
type Services struct {
	Verifications VerificationService
	Reports       ReportService
	Users         UserService
	Stats         StatsService
	Activity      ActivityService
	Messages      MessageService
	Leads         LeadService
}

type Options struct {
	Logger        logger.Logger
	Observability *observability.Observability
	Checks        map[string]Checker
	// CheckTimeout bounds each readiness probe.
	CheckTimeout time.Duration
	Version      string
}

type Server struct {
	svc    Services
	auth   Authenticator
	logger logger.Logger
	obs    *observability.Observability
	checks map[string]Checker

	checkTimeout time.Duration
	version      string
	now          func() time.Time
}

func NewServer(svc Services, auth Authenticator, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 2 * time.Second
	}
	return &Server{
		svc:          svc,
		auth:         auth,
		logger:       opts.Logger,
		obs:          opts.Observability,
		checks:       opts.Checks,
		checkTimeout: opts.CheckTimeout,
		version:      opts.Version,
		now:          time.Now,
	}
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("GET /verifications", s.authed(s.listVerifications))
	mux.Handle("GET /verifications/{id}", s.authed(s.getVerification))
	mux.Handle("POST /verifications/approve", s.authed(s.approveVerification))
	mux.Handle("POST /verifications/reject", s.authed(s.rejectVerification))

	mux.Handle("GET /reports", s.authed(s.listReports))
	mux.Handle("GET /reports/{id}", s.authed(s.getReport))
	mux.Handle("PATCH /reports/{id}", s.authed(s.updateReport))

	mux.Handle("GET /users", s.authed(s.listUsers))
	mux.Handle("GET /users/{id}", s.authed(s.getUser))
	mux.Handle("PATCH /users/{id}", s.authed(s.updateUser))

	mux.Handle("GET /stats", s.authed(s.dashboard))
	mux.Handle("GET /activity", s.authed(s.searchActivity))
	mux.Handle("POST /messages/send-email", s.authed(s.sendEmail))

	mux.Handle("GET /leads", s.authed(s.listLeads))
	mux.Handle("POST /leads", s.authed(s.createLead))
	mux.Handle("GET /leads/{id}", s.authed(s.getLead))
	mux.Handle("PATCH /leads/{id}/status", s.authed(s.updateLeadStatus))
	mux.Handle("GET /leads/{id}/activities", s.authed(s.listLeadActivities))
	mux.Handle("POST /leads/{id}/activities", s.authed(s.addLeadActivity))
	mux.Handle("GET /leads/{id}/notes", s.authed(s.listLeadNotes))
	mux.Handle("POST /leads/{id}/notes", s.authed(s.addLeadNote))

	return s.instrument(s.recoverer(mux))
}
