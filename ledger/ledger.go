// Package ledger models the fungible-token ledger that physically holds
// balances. The vault service only ever touches the ledger through the
// Gateway interface and staged mutations, so the backing implementation can
// be swapped for a test double.
package ledger

import (
	"context"
	"errors"

	"github.com/vestlock/vestlock/common"
)

var (
	// ErrHoldingNotFound is returned when no holding exists at an address.
	ErrHoldingNotFound = errors.New("ledger: holding not found")
	// ErrHoldingExists is returned when creating a holding at an occupied address.
	ErrHoldingExists = errors.New("ledger: holding already exists")
	// ErrInsufficientBalance is returned when a debit exceeds the holding's balance.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
)

// Holding is a token account on the ledger: a balance of one token kind,
// controlled by its owner.
type Holding struct {
	Address common.Address `json:"address"`
	Owner   common.Address `json:"owner"`
	Token   common.Address `json:"token"`
	Balance common.BigInt  `json:"balance"`
}

// Transfer moves Amount tokens from one holding to another.
type Transfer struct {
	From   common.Address
	To     common.Address
	Amount common.BigInt
}

// Mint credits Amount freshly issued tokens to a holding. Only used for
// bootstrapping accounts; the vault operations themselves conserve tokens.
type Mint struct {
	To     common.Address
	Amount common.BigInt
}

// Gateway is the read side of the ledger.
type Gateway interface {
	// Holding returns the holding at the given address, or ErrHoldingNotFound.
	Holding(ctx context.Context, address common.Address) (*Holding, error)
}
