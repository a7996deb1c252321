package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	apiCommon "github.com/vestlock/vestlock/api/common"
	"github.com/vestlock/vestlock/common"
	"github.com/vestlock/vestlock/vault"
)

// signedTarget is the request body shared by the withdraw and revoke
// endpoints: who is calling, and which holding receives the tokens.
type signedTarget struct {
	Signer      common.Address `json:"signer"`
	Destination common.Address `json:"destination"`
}

func decodeBody(r *http.Request, into interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return fmt.Errorf("%w: %s", apiCommon.ErrBadRequest, err)
	}
	return nil
}

func addressParam(r *http.Request) (common.Address, error) {
	address, err := common.AddressFromHex(chi.URLParam(r, "address"))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s", apiCommon.ErrBadRequest, err)
	}
	return address, nil
}

// InitializeAccount creates a new vesting arrangement.
func (h *Handler) InitializeAccount(w http.ResponseWriter, r *http.Request) {
	var req vault.InitializeRequest
	if err := decodeBody(r, &req); err != nil {
		h.replyError(r, w, "failed to decode initialize request", err)
		return
	}

	result, err := h.service.Initialize(r.Context(), &req)
	if err != nil {
		h.replyError(r, w, "initialize failed", err)
		return
	}
	h.replyJSON(r, w, result)
}

// GetAccount returns the vesting account at the given address.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	address, err := addressParam(r)
	if err != nil {
		h.replyError(r, w, "malformed account address", err)
		return
	}

	account, err := h.service.Account(r.Context(), address)
	if err != nil {
		h.replyError(r, w, "failed to get account", err)
		return
	}
	h.replyJSON(r, w, account)
}

// Withdraw releases the currently-releasable amount to the beneficiary.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	address, err := addressParam(r)
	if err != nil {
		h.replyError(r, w, "malformed account address", err)
		return
	}
	var body signedTarget
	if err := decodeBody(r, &body); err != nil {
		h.replyError(r, w, "failed to decode withdraw request", err)
		return
	}

	result, err := h.service.Withdraw(r.Context(), &vault.WithdrawRequest{
		Signer:      body.Signer,
		Account:     address,
		Destination: body.Destination,
	})
	if err != nil {
		h.replyError(r, w, "withdraw failed", err)
		return
	}
	h.replyJSON(r, w, result)
}

// Revoke claws back the custodial balance to the owner.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	address, err := addressParam(r)
	if err != nil {
		h.replyError(r, w, "malformed account address", err)
		return
	}
	var body signedTarget
	if err := decodeBody(r, &body); err != nil {
		h.replyError(r, w, "failed to decode revoke request", err)
		return
	}

	result, err := h.service.Revoke(r.Context(), &vault.RevokeRequest{
		Signer:      body.Signer,
		Account:     address,
		Destination: body.Destination,
	})
	if err != nil {
		h.replyError(r, w, "revoke failed", err)
		return
	}
	h.replyJSON(r, w, result)
}

// CreateHolding creates an empty token holding on the reference ledger.
func (h *Handler) CreateHolding(w http.ResponseWriter, r *http.Request) {
	var req vault.CreateHoldingRequest
	if err := decodeBody(r, &req); err != nil {
		h.replyError(r, w, "failed to decode holding request", err)
		return
	}

	if err := h.service.CreateHolding(r.Context(), &req); err != nil {
		h.replyError(r, w, "failed to create holding", err)
		return
	}
	h.replyJSON(r, w, map[string]common.Address{"address": req.Address})
}

// GetHolding returns the holding at the given address.
func (h *Handler) GetHolding(w http.ResponseWriter, r *http.Request) {
	address, err := addressParam(r)
	if err != nil {
		h.replyError(r, w, "malformed holding address", err)
		return
	}

	holding, err := h.service.Holding(r.Context(), address)
	if err != nil {
		h.replyError(r, w, "failed to get holding", err)
		return
	}
	h.replyJSON(r, w, holding)
}

// Mint credits freshly issued tokens to a holding on the reference ledger.
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	address, err := addressParam(r)
	if err != nil {
		h.replyError(r, w, "malformed holding address", err)
		return
	}
	var req vault.MintRequest
	if err := decodeBody(r, &req); err != nil {
		h.replyError(r, w, "failed to decode mint request", err)
		return
	}
	req.Holding = address

	if err := h.service.Mint(r.Context(), &req); err != nil {
		h.replyError(r, w, "failed to mint", err)
		return
	}
	h.replyJSON(r, w, map[string]common.Address{"holding": req.Holding})
}

func (h *Handler) replyJSON(r *http.Request, w http.ResponseWriter, res interface{}) {
	ctx := r.Context()

	resp, err := json.Marshal(res)
	if err != nil {
		h.logAndReply(ctx, "failed to marshal response", w, err)
		h.metrics.RequestCounter(r.URL.Path, "failure", "serde_error").Inc()
		return
	}

	w.Header().Set("content-type", "application/json")
	if _, err := w.Write(resp); err != nil {
		h.logger.Error("failed to write response",
			"request_id", ctx.Value(RequestIDContextKey),
			"error", err,
		)
		h.metrics.RequestCounter(r.URL.Path, "failure", "http_error").Inc()
	} else {
		h.metrics.RequestCounter(r.URL.Path, "success").Inc()
	}
}

func (h *Handler) replyError(r *http.Request, w http.ResponseWriter, msg string, err error) {
	h.logAndReply(r.Context(), msg, w, err)
	h.metrics.RequestCounter(r.URL.Path, "failure", apiCommon.ErrorCause(err)).Inc()
}

func (h *Handler) logAndReply(ctx context.Context, msg string, w http.ResponseWriter, err error) {
	h.logger.Warn(msg,
		"request_id", ctx.Value(RequestIDContextKey),
		"error", err,
	)
	apiCommon.ReplyWithError(w, err)
}
