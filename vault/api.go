// Package vault implements the vesting vault: the vesting account state
// machine and its release arithmetic.
package vault

import (
	"context"
	"time"

	"github.com/vestlock/vestlock/common"
	"github.com/vestlock/vestlock/ledger"
)

// VestingAccount is the record of one vesting arrangement. It is created by
// Initialize, mutated by Withdraw and Revoke, and never deleted. Apart from
// Released and Revoked every field is immutable after creation.
type VestingAccount struct {
	Address     common.Address `json:"address"`
	Owner       common.Address `json:"owner"`
	Beneficiary common.Address `json:"beneficiary"`
	Token       common.Address `json:"token"`

	// BeneficiaryHolding is the beneficiary's token holding the account was
	// keyed by at creation.
	BeneficiaryHolding common.Address `json:"beneficiary_holding"`
	// CustodialHolding physically holds the locked tokens. It is owned by the
	// vault authority, never by an end user.
	CustodialHolding common.Address `json:"custodial_holding"`

	TotalDeposited common.BigInt `json:"total_deposited"`
	Released       common.BigInt `json:"released"`

	StartTime int64 `json:"start_time"`
	CliffTime int64 `json:"cliff_time"`
	Duration  int64 `json:"duration"`

	Revocable bool `json:"revocable"`
	Revoked   bool `json:"revoked"`
}

// InitializeRequest creates a new vesting arrangement. The signer must be the
// owner; the deposit moves from OwnerHolding into a custodial holding derived
// from BeneficiaryHolding.
type InitializeRequest struct {
	Signer common.Address `json:"signer"`

	Owner              common.Address `json:"owner"`
	Beneficiary        common.Address `json:"beneficiary"`
	Token              common.Address `json:"token"`
	OwnerHolding       common.Address `json:"owner_holding"`
	BeneficiaryHolding common.Address `json:"beneficiary_holding"`

	Amount    common.BigInt `json:"amount"`
	StartTime int64         `json:"start_time"`
	CliffTime int64         `json:"cliff_time"`
	Duration  int64         `json:"duration"`
	Revocable bool          `json:"revocable"`
}

// InitializeResult reports the derived addresses of the new arrangement.
type InitializeResult struct {
	Account          common.Address `json:"account"`
	CustodialHolding common.Address `json:"custodial_holding"`
}

// WithdrawRequest releases the currently-releasable amount to Destination,
// which must be a holding owned by the account's beneficiary.
type WithdrawRequest struct {
	Signer      common.Address `json:"signer"`
	Account     common.Address `json:"account"`
	Destination common.Address `json:"destination"`
}

// WithdrawResult reports the amount moved to the beneficiary.
type WithdrawResult struct {
	TransferredAmount common.BigInt `json:"transferred_amount"`
}

// RevokeRequest claws back the entire custodial balance to Destination, which
// must be a holding owned by the account's owner.
type RevokeRequest struct {
	Signer      common.Address `json:"signer"`
	Account     common.Address `json:"account"`
	Destination common.Address `json:"destination"`
}

// RevokeResult reports the amount reclaimed by the owner.
type RevokeResult struct {
	ReclaimedAmount common.BigInt `json:"reclaimed_amount"`
}

// CreateHoldingRequest creates an empty token holding. This is a reference
// ledger bootstrap operation, not a vault operation.
type CreateHoldingRequest struct {
	Address common.Address `json:"address"`
	Owner   common.Address `json:"owner"`
	Token   common.Address `json:"token"`
}

// MintRequest credits freshly issued tokens to a holding. Bootstrap only.
type MintRequest struct {
	Holding common.Address `json:"holding"`
	Amount  common.BigInt  `json:"amount"`
}

// AccountUpdate is the mutable slice of a VestingAccount.
type AccountUpdate struct {
	Address  common.Address
	Released common.BigInt
	Revoked  bool
}

// Mutation is the unit of work of one operation: every listed change is
// committed atomically or not at all.
type Mutation struct {
	CreateHoldings []ledger.Holding
	Mints          []ledger.Mint
	Transfers      []ledger.Transfer
	CreateAccount  *VestingAccount
	UpdateAccount  *AccountUpdate
}

// Backend persists vesting accounts and the token ledger they settle against.
type Backend interface {
	ledger.Gateway

	// VestingAccount returns the account at the given address, or
	// ErrAccountNotFound.
	VestingAccount(ctx context.Context, address common.Address) (*VestingAccount, error)

	// Commit applies a mutation atomically.
	Commit(ctx context.Context, mut *Mutation) error
}

// Clock supplies the operation timestamp. It is read exactly once per
// operation so the schedule evaluation is self-consistent within a call.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock in unix seconds.
type SystemClock struct{}

// Now implements the Clock interface.
func (SystemClock) Now() int64 {
	return time.Now().Unix()
}
