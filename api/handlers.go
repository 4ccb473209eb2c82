package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/types"
)

const maxBodyBytes = 1 << 16

// TokenResponse describes the ledger's global state.
type TokenResponse struct {
	Owner                  types.Address `json:"owner"`
	TotalSupply            types.Amount  `json:"total_supply"`
	EthToTokenRatio        types.Amount  `json:"eth_to_token_ratio"`
	MaxDailyMintPerAccount types.Amount  `json:"max_daily_mint_per_account"`
	Treasury               types.Amount  `json:"treasury"`
	Sequence               uint64        `json:"sequence"`
	Holders                int           `json:"holders"`
	MintDay                int64         `json:"mint_day"`
}

// EventsResponse is one page of the event log.
type EventsResponse struct {
	Events    []*event.Event `json:"events"`
	NextAfter uint64         `json:"next_after"`
}

// TransferRequest is the body of POST /v1/transfers.
type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// MintRequest is the body of POST /v1/mints.
type MintRequest struct {
	Payment string `json:"payment"`
}

// ValueRequest is the body of the configuration routes.
type ValueRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Ping(r.Context()); err != nil {
		writeStatus(w, r, http.StatusServiceUnavailable, err, "Unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToken(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TokenResponse{
		Owner:                  s.ledger.Owner(),
		TotalSupply:            s.ledger.TotalSupply(),
		EthToTokenRatio:        s.ledger.EthToTokenRatio(),
		MaxDailyMintPerAccount: s.ledger.MaxDailyMintPerAccount(),
		Treasury:               s.ledger.TreasuryBalance(),
		Sequence:               s.ledger.Sequence(),
		Holders:                s.ledger.Holders(),
		MintDay:                s.ledger.MintDay(),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.Account(addr))
}

func (s *Server) handleMintQuote(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	payment, err := parseAmount("payment", r.URL.Query().Get("payment"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	quote, err := s.ledger.QuoteMint(addr, payment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseListOpts(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := s.ledger.Events(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := EventsResponse{Events: events, NextAfter: opts.AfterSeq}
	if n := len(events); n > 0 {
		resp.NextAfter = events[n-1].Seq
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	caller, _ := CallerFrom(r.Context())
	evt, err := s.ledger.Transfer(r.Context(), caller, to, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, evt)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	payment, err := parseAmount("payment", req.Payment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	caller, _ := CallerFrom(r.Context())
	evt, err := s.ledger.Mint(r.Context(), caller, payment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, evt)
}

func (s *Server) handleSetRatio(w http.ResponseWriter, r *http.Request) {
	s.handleConfig(w, r, s.ledger.SetEthToTokenRatio)
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	s.handleConfig(w, r, s.ledger.SetDailyMintLimit)
}

type configSetter func(ctx context.Context, caller types.Address, value types.Amount) (*event.Event, error)

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request, set configSetter) {
	var req ValueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	value, err := parseAmount("value", req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}

	caller, _ := CallerFrom(r.Context())
	evt, err := set(r.Context(), caller, value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evt)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	evt, err := s.ledger.WithdrawETH(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, evt)
}

// ──────────────────────────────────────────────────
// Request parsing
// ──────────────────────────────────────────────────

func (s *Server) parseListOpts(r *http.Request) (event.ListOpts, error) {
	q := r.URL.Query()
	opts := event.ListOpts{Limit: s.cfg.MaxEventsPage}

	for _, raw := range q["kind"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			k, ok := event.ParseKind(part)
			if !ok {
				return opts, mintledger.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", part)}
			}
			opts.Kinds = append(opts.Kinds, k)
		}
	}
	if raw := q.Get("account"); raw != "" {
		addr, err := parseAddress("account", raw)
		if err != nil {
			return opts, err
		}
		opts.Account = addr
	}
	if raw := q.Get("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return opts, mintledger.ValidationError{Field: "after", Message: "must be a non-negative integer"}
		}
		opts.AfterSeq = after
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return opts, mintledger.ValidationError{Field: "limit", Message: "must be a positive integer"}
		}
		if limit < opts.Limit {
			opts.Limit = limit
		}
	}
	return opts, nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return mintledger.ValidationError{Field: "body", Message: "empty request body"}
		}
		return mintledger.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func parseAddress(field, raw string) (types.Address, error) {
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return types.ZeroAddress, mintledger.ValidationError{Field: field, Message: fmt.Sprintf("%q is not a hex address", raw)}
	}
	return addr, nil
}

func parseAmount(field, raw string) (types.Amount, error) {
	a, err := types.ParseAmount(raw)
	if err != nil {
		return types.Zero, mintledger.ValidationError{Field: field, Message: fmt.Sprintf("%q is not a non-negative integer", raw)}
	}
	return a, nil
}
