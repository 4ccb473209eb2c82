// Package api exposes the mintledger engine over HTTP.
//
// Reads are public. Mutations require an HMAC bearer token whose subject
// is the caller address and are rate limited per caller.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/mintledger/account"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/types"
)

// Ledger is the engine surface the API serves. *mintledger.Engine
// satisfies it.
type Ledger interface {
	Ping(ctx context.Context) error

	Owner() types.Address
	TotalSupply() types.Amount
	EthToTokenRatio() types.Amount
	MaxDailyMintPerAccount() types.Amount
	TreasuryBalance() types.Amount
	Sequence() uint64
	Holders() int
	MintDay() int64
	Account(addr types.Address) account.Account
	Events(ctx context.Context, opts event.ListOpts) ([]*event.Event, error)
	QuoteMint(caller types.Address, payment types.Amount) (*account.Admission, error)

	Transfer(ctx context.Context, caller, to types.Address, amount types.Amount) (*event.Event, error)
	Mint(ctx context.Context, caller types.Address, payment types.Amount) (*event.Event, error)
	SetEthToTokenRatio(ctx context.Context, caller types.Address, ratio types.Amount) (*event.Event, error)
	SetDailyMintLimit(ctx context.Context, caller types.Address, limit types.Amount) (*event.Event, error)
	WithdrawETH(ctx context.Context, caller types.Address) (*event.Event, error)
}

// Server routes HTTP requests to a Ledger.
type Server struct {
	ledger  Ledger
	cfg     Config
	logger  *slog.Logger
	auth    *Authenticator
	limiter *RateLimiter
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer builds the router for l.
func NewServer(l Ledger, cfg Config, opts ...Option) *Server {
	defaults := DefaultConfig()
	if cfg.MaxEventsPage <= 0 {
		cfg.MaxEventsPage = defaults.MaxEventsPage
	}

	s := &Server{
		ledger:  l,
		cfg:     cfg,
		logger:  slog.Default(),
		auth:    NewAuthenticator(cfg.Auth),
		limiter: NewRateLimiter(cfg.RateLimit),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(withLogger(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/token", s.handleToken)
		r.Get("/accounts/{address}", s.handleAccount)
		r.Get("/accounts/{address}/mint-quote", s.handleMintQuote)
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Use(s.limiter.Middleware)

			r.Post("/transfers", s.handleTransfer)
			r.Post("/mints", s.handleMint)
			r.Put("/config/ratio", s.handleSetRatio)
			r.Put("/config/daily-limit", s.handleSetLimit)
			r.Post("/treasury/withdrawals", s.handleWithdraw)
		})
	})
	return r
}
