package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/vestlock/vestlock/common"
	"github.com/vestlock/vestlock/ledger"
)

// The guard checks below run strictly before any transfer or state change.
// Any mismatch aborts the operation with no mutation.

// checkSigner verifies the caller identity against the role the operation
// requires.
func checkSigner(signer, required common.Address) error {
	if !signer.Equal(required) {
		return fmt.Errorf("%w: signer %s does not match %s", ErrUnauthorized, signer, required)
	}
	return nil
}

// checkHoldingOwnership verifies that a holding belongs to the expected
// identity and carries the expected token kind.
func checkHoldingOwnership(h *ledger.Holding, owner, token common.Address) error {
	if !h.Owner.Equal(owner) {
		return fmt.Errorf("%w: holding %s is not owned by %s", ErrUnauthorized, h.Address, owner)
	}
	if !h.Token.Equal(token) {
		return fmt.Errorf("%w: holding %s is not a %s holding", ErrUnauthorized, h.Address, token)
	}
	return nil
}

// sourceHolding loads a holding that will fund a deposit. A missing holding
// is an authorization failure: the caller referenced an account that is not
// theirs to spend from.
func (s *Service) sourceHolding(ctx context.Context, address, owner, token common.Address) (*ledger.Holding, error) {
	h, err := s.backend.Holding(ctx, address)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrHoldingNotFound):
		return nil, fmt.Errorf("%w: no holding at %s", ErrUnauthorized, address)
	default:
		return nil, err
	}
	if err := checkHoldingOwnership(h, owner, token); err != nil {
		return nil, err
	}
	return h, nil
}

// destinationHolding loads a holding that will receive a transfer. A missing
// destination surfaces as a ledger transfer failure, matching what the token
// ledger itself would report.
func (s *Service) destinationHolding(ctx context.Context, address, owner, token common.Address) (*ledger.Holding, error) {
	h, err := s.backend.Holding(ctx, address)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrHoldingNotFound):
		return nil, fmt.Errorf("%w: destination holding %s does not exist", ErrLedgerTransferFailed, address)
	default:
		return nil, err
	}
	if err := checkHoldingOwnership(h, owner, token); err != nil {
		return nil, err
	}
	return h, nil
}
