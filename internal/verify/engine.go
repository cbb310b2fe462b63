// Package verify implements the verification state machine: three
// alternative paths (login redirect, membership-order lookup, manual
// committee review) converging on an at-most-once promotion to a member
// record plus role grants. The engine is stateless between steps; resumable
// state lives in the roster store and the step token.
package verify

import (
	"context"
	"log/slog"

	"gatehouse/internal/audit"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/platform/metrics"
	"gatehouse/internal/roster"
	"gatehouse/internal/rosterclient"
)

//go:generate mockgen -source=engine.go -destination=mocks/collaborators.go -package=mocks

// RoleGateway grants and revokes access roles on the chat surface. Grant
// and Revoke are idempotent at the gateway; failures are retryable by the
// user, the engine never retries internally.
type RoleGateway interface {
	Grant(ctx context.Context, id roster.Identity, role string) error
	Revoke(ctx context.Context, id roster.Identity, role string) error
	Roles(ctx context.Context, id roster.Identity) ([]string, error)
}

// Notifier posts and updates committee review prompts and public welcomes.
type Notifier interface {
	PostReviewPrompt(ctx context.Context, prompt ReviewPrompt) (ref string, err error)
	UpdateReviewPrompt(ctx context.Context, ref string, outcome ReviewOutcome) error
	Welcome(ctx context.Context, id roster.Identity, fresher roster.FresherStatus) error
}

// RosterClient lists current paid memberships.
type RosterClient interface {
	List(ctx context.Context) ([]rosterclient.Entry, error)
}

// Session identifies the user behind an interaction.
type Session struct {
	Identity roster.Identity
	Username string
}

// Config carries the engine's knobs: the role names it grants and revokes
// and the external login URL the login path links to.
type Config struct {
	Roles    config.RoleConfig
	LoginURL string
}

// Engine drives the verification state machine.
type Engine struct {
	store   roster.Store
	gateway RoleGateway
	notify  Notifier
	members RosterClient
	cfg     Config

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Publisher
}

// Option customizes an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithAudit(p audit.Publisher) Option {
	return func(e *Engine) { e.audit = p }
}

func New(store roster.Store, gateway RoleGateway, notify Notifier, members RosterClient, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		gateway: gateway,
		notify:  notify,
		members: members,
		cfg:     cfg,
		logger:  slog.Default(),
		audit:   audit.NewLogPublisher(slog.Default()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// tierRole maps a fresher tier to its role name, empty for none.
func (e *Engine) tierRole(f roster.FresherStatus) string {
	switch f {
	case roster.FresherUndergraduate:
		return e.cfg.Roles.Undergrad
	case roster.FresherPostgraduate:
		return e.cfg.Roles.Postgrad
	}
	return ""
}
