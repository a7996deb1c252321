package vault

import "errors"

var (
	// ErrUnauthorized is returned when the signer does not match the role the
	// operation requires, or when a referenced holding does not belong to the
	// expected identity.
	ErrUnauthorized = errors.New("vault: unauthorized")

	// ErrInvalidSchedule is returned when a schedule is created with a
	// non-positive amount or duration.
	ErrInvalidSchedule = errors.New("vault: invalid vesting schedule")

	// ErrAlreadyInitialized is returned when a vesting account already exists
	// at the derived address.
	ErrAlreadyInitialized = errors.New("vault: vesting account already initialized")

	// ErrAccountNotFound is returned when no vesting account exists at the
	// given address.
	ErrAccountNotFound = errors.New("vault: vesting account not found")

	// ErrAlreadyRevoked is returned when operating on a revoked account.
	ErrAlreadyRevoked = errors.New("vault: vesting account already revoked")

	// ErrNotRevocable is returned when revoking an account created with
	// revocable=false.
	ErrNotRevocable = errors.New("vault: vesting account is not revocable")

	// ErrNothingToRelease is returned when a withdrawal finds a zero
	// releasable amount. This is an expected condition; callers should retry
	// once more time has elapsed.
	ErrNothingToRelease = errors.New("vault: nothing to release")

	// ErrArithmeticOverflow is returned when the release bookkeeping would
	// exceed the deposited total. The operation aborts rather than saturate.
	ErrArithmeticOverflow = errors.New("vault: arithmetic overflow")

	// ErrInsufficientFunds is returned when the owner's holding cannot cover
	// the deposit at creation.
	ErrInsufficientFunds = errors.New("vault: insufficient funds")

	// ErrLedgerTransferFailed is returned when the token ledger rejects a
	// transfer, e.g. because the destination holding does not exist.
	ErrLedgerTransferFailed = errors.New("vault: ledger transfer failed")
)
