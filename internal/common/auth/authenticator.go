package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
	"estate-admin/internal/store"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "auth:token:"

// Introspector is implemented by KeycloakClient.
type Introspector interface {
	Introspect(ctx context.Context, token string) (*TokenInfo, error)
}

// AccountResolver maps an identity provider subject to its users row.
// *store.Store implements it; a miss is store.ErrNotFound.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, subject, email string) (*models.User, error)
}

// Authenticator turns bearer tokens into Actors. Introspection results are
// cached in Redis until the token expires, bounded by the configured TTL.
type Authenticator struct {
	introspector Introspector
	accounts     AccountResolver
	cache        redis.Cmdable
	ttl          time.Duration
	adminRole    string
	agentRole    string
	now          func() time.Time
	logger       logger.Logger
}

type AuthenticatorOptions struct {
	AdminRole string
	AgentRole string
	CacheTTL  time.Duration
	// Accounts, when set, replaces the token subject with the caller's
	// users.id so that actor ids can be written to reviewed_by and
	// created_by columns.
	Accounts AccountResolver
	Logger   logger.Logger
}

// NewAuthenticator builds an Authenticator. cache may be nil.
func NewAuthenticator(in Introspector, cache redis.Cmdable, opts AuthenticatorOptions) *Authenticator {
	if opts.AdminRole == "" {
		opts.AdminRole = string(models.RoleAdmin)
	}
	if opts.AgentRole == "" {
		opts.AgentRole = string(models.RoleAgent)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Authenticator{
		introspector: in,
		accounts:     opts.Accounts,
		cache:        cache,
		ttl:          opts.CacheTTL,
		adminRole:    opts.AdminRole,
		agentRole:    opts.AgentRole,
		now:          time.Now,
		logger:       opts.Logger,
	}
}

// Authenticate validates token and returns the caller.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	if token == "" {
		return models.Actor{}, stderrors.NewUnauthorizedError("missing bearer token")
	}
	key := cachePrefix + hashToken(token)

	if actor, ok := a.cached(ctx, key); ok {
		return actor, nil
	}

	info, err := a.introspector.Introspect(ctx, token)
	if err != nil {
		return models.Actor{}, err
	}
	if info.Sub == "" {
		return models.Actor{}, stderrors.NewUnauthorizedError("token has no subject")
	}

	actor := models.Actor{UserID: info.Sub, Email: info.Email, Role: a.roleOf(info)}
	if a.accounts != nil {
		if actor.UserID, err = a.resolveAccount(ctx, info); err != nil {
			return models.Actor{}, err
		}
	}
	a.remember(ctx, key, actor, info.Exp)
	return actor, nil
}

func (a *Authenticator) resolveAccount(ctx context.Context, info *TokenInfo) (string, error) {
	u, err := a.accounts.ResolveAccount(ctx, info.Sub, info.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.logger.Warn("token subject has no account", map[string]interface{}{"subject": info.Sub})
		return "", stderrors.NewForbiddenError("no marketplace account for this identity")
	case err != nil:
		return "", stderrors.NewDatabaseQueryError("resolve_account", err)
	case u.Status == models.UserSuspended:
		return "", stderrors.NewForbiddenError("account is suspended")
	}
	return u.ID, nil
}

func (a *Authenticator) roleOf(info *TokenInfo) models.Role {
	switch {
	case info.HasRole(a.adminRole):
		return models.RoleAdmin
	case info.HasRole(a.agentRole):
		return models.RoleAgent
	default:
		return models.RoleUser
	}
}

func (a *Authenticator) cached(ctx context.Context, key string) (models.Actor, bool) {
	if a.cache == nil || a.ttl <= 0 {
		return models.Actor{}, false
	}
	raw, err := a.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			a.logger.Warn("token cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return models.Actor{}, false
	}
	var actor models.Actor
	if err := json.Unmarshal(raw, &actor); err != nil || actor.UserID == "" {
		return models.Actor{}, false
	}
	return actor, true
}

func (a *Authenticator) remember(ctx context.Context, key string, actor models.Actor, exp int64) {
	if a.cache == nil || a.ttl <= 0 {
		return
	}
	ttl := a.ttl
	if exp > 0 {
		if remaining := time.Unix(exp, 0).Sub(a.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl < time.Second {
		return
	}
	raw, err := json.Marshal(actor)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		a.logger.Warn("token cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
