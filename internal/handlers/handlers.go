package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/squadwatch/pubg-tracker/internal/logic"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// SchemaInstaller creates the relational schema
type SchemaInstaller interface {
	EnsureSchema(ctx context.Context) error
}

type Config struct {
	Players   logic.PlayerService
	Matches   logic.MatchService
	Installer SchemaInstaller
	// Checks are the dependencies reported by /ready, keyed by name
	Checks map[string]Pinger
	// AdminToken guards the system routes. Empty disables them.
	AdminToken        string
	AllowedOrigins    []string
	RequestsPerSecond float64
	RequestBurst      int
	Logger            *zap.Logger
}

type Handler struct {
	players        logic.PlayerService
	matches        logic.MatchService
	installer      SchemaInstaller
	checks         map[string]Pinger
	adminTokenHash string
	allowedOrigins []string
	limiter        *clientLimiter
	logger         *zap.SugaredLogger
	validator      *validator.Validate
}

func New(cfg Config) *Handler {
	h := &Handler{
		players:        cfg.Players,
		matches:        cfg.Matches,
		installer:      cfg.Installer,
		checks:         cfg.Checks,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         cfg.Logger.Sugar(),
		validator:      validator.New(),
	}
	if cfg.AdminToken != "" {
		h.adminTokenHash = hashToken(cfg.AdminToken)
	}
	if cfg.RequestsPerSecond > 0 {
		h.limiter = newClientLimiter(cfg.RequestsPerSecond, cfg.RequestBurst)
	}
	return h
}
