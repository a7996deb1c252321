package vault_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vestlock/vestlock/common"
	"github.com/vestlock/vestlock/log"
	"github.com/vestlock/vestlock/vault"
	"github.com/vestlock/vestlock/vault/mem"
)

const (
	startTime = int64(1_700_000_000)
	duration  = int64(100)
)

var depositAmount = common.NewBigInt(1_000_000 * 1_000_000_000)

// manualClock lets tests drive time explicitly.
type manualClock struct {
	now int64
}

func (c *manualClock) Now() int64 { return c.now }

type testEnv struct {
	service *vault.Service
	clock   *manualClock

	owner       common.Address
	beneficiary common.Address
	token       common.Address

	ownerHolding       common.Address
	beneficiaryHolding common.Address
}

func newTestEnv(t *testing.T) *testEnv {
	ctx := context.Background()
	env := &testEnv{
		clock:       &manualClock{now: startTime},
		owner:       common.NewAddress("test: identity", []byte("owner")),
		beneficiary: common.NewAddress("test: identity", []byte("beneficiary")),
		token:       common.NewAddress("test: token", []byte("tok")),
	}
	env.ownerHolding = common.NewAddress("test: holding", env.owner[:])
	env.beneficiaryHolding = common.NewAddress("test: holding", env.beneficiary[:])
	env.service = vault.NewService(mem.NewBackend(), env.clock, log.NewDefaultLogger("test"))

	for _, h := range []struct {
		address common.Address
		owner   common.Address
	}{
		{env.ownerHolding, env.owner},
		{env.beneficiaryHolding, env.beneficiary},
	} {
		require.NoError(t, env.service.CreateHolding(ctx, &vault.CreateHoldingRequest{
			Address: h.address,
			Owner:   h.owner,
			Token:   env.token,
		}))
	}
	require.NoError(t, env.service.Mint(ctx, &vault.MintRequest{
		Holding: env.ownerHolding,
		Amount:  depositAmount,
	}))
	return env
}

func (env *testEnv) initializeRequest() *vault.InitializeRequest {
	return &vault.InitializeRequest{
		Signer:             env.owner,
		Owner:              env.owner,
		Beneficiary:        env.beneficiary,
		Token:              env.token,
		OwnerHolding:       env.ownerHolding,
		BeneficiaryHolding: env.beneficiaryHolding,
		Amount:             depositAmount,
		StartTime:          startTime,
		CliffTime:          0,
		Duration:           duration,
		Revocable:          true,
	}
}

func (env *testEnv) balance(t *testing.T, address common.Address) common.BigInt {
	h, err := env.service.Holding(context.Background(), address)
	require.NoError(t, err)
	return h.Balance
}

// requireConservation checks that no tokens were created or destroyed across
// the three holdings of an arrangement.
func (env *testEnv) requireConservation(t *testing.T, custodial common.Address) {
	sum := env.balance(t, env.ownerHolding).
		Plus(env.balance(t, env.beneficiaryHolding)).
		Plus(env.balance(t, custodial))
	require.True(t, sum.Eq(depositAmount), "token conservation violated: total is %s", sum.String())
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// Initialize: deposit moves from the owner into custody.
	result, err := env.service.Initialize(ctx, env.initializeRequest())
	require.NoError(t, err)
	require.Equal(t, vault.VestingAccountAddress(env.beneficiaryHolding), result.Account)
	require.Equal(t, vault.CustodialHoldingAddress(env.beneficiaryHolding), result.CustodialHolding)

	require.True(t, env.balance(t, env.ownerHolding).IsZero())
	require.True(t, env.balance(t, result.CustodialHolding).Eq(depositAmount))
	env.requireConservation(t, result.CustodialHolding)

	custodial, err := env.service.Holding(ctx, result.CustodialHolding)
	require.NoError(t, err)
	require.Equal(t, vault.VaultAuthorityAddress(), custodial.Owner, "custody must be bound to the vault authority")

	account, err := env.service.Account(ctx, result.Account)
	require.NoError(t, err)
	require.Equal(t, env.owner, account.Owner)
	require.Equal(t, env.beneficiary, account.Beneficiary)
	require.Equal(t, env.token, account.Token)
	require.True(t, account.TotalDeposited.Eq(depositAmount))
	require.True(t, account.Released.IsZero())
	require.Equal(t, startTime, account.StartTime)
	require.Equal(t, duration, account.Duration)
	require.True(t, account.Revocable)
	require.False(t, account.Revoked)

	// Two time units later: 2% is releasable.
	env.clock.now = startTime + 2
	withdrawal, err := env.service.Withdraw(ctx, &vault.WithdrawRequest{
		Signer:      env.beneficiary,
		Account:     result.Account,
		Destination: env.beneficiaryHolding,
	})
	require.NoError(t, err)

	released := common.NewBigInt(2 * 1_000_000 * 1_000_000_000 / 100)
	remaining := depositAmount.Minus(released)
	require.True(t, withdrawal.TransferredAmount.Eq(released))
	require.True(t, env.balance(t, env.beneficiaryHolding).Eq(released))
	require.True(t, env.balance(t, result.CustodialHolding).Eq(remaining))
	env.requireConservation(t, result.CustodialHolding)

	account, err = env.service.Account(ctx, result.Account)
	require.NoError(t, err)
	require.True(t, account.Released.Eq(released))

	// Revoke: the whole custodial balance returns to the owner, including the
	// vested-but-unwithdrawn portion.
	revocation, err := env.service.Revoke(ctx, &vault.RevokeRequest{
		Signer:      env.owner,
		Account:     result.Account,
		Destination: env.ownerHolding,
	})
	require.NoError(t, err)
	require.True(t, revocation.ReclaimedAmount.Eq(remaining))
	require.True(t, env.balance(t, result.CustodialHolding).IsZero())
	require.True(t, env.balance(t, env.ownerHolding).Eq(remaining))
	env.requireConservation(t, result.CustodialHolding)

	account, err = env.service.Account(ctx, result.Account)
	require.NoError(t, err)
	require.True(t, account.Revoked)
	require.True(t, account.Released.Eq(released), "revocation must not touch the released counter")

	// The account is now terminal.
	_, err = env.service.Withdraw(ctx, &vault.WithdrawRequest{
		Signer:      env.beneficiary,
		Account:     result.Account,
		Destination: env.beneficiaryHolding,
	})
	require.ErrorIs(t, err, vault.ErrAlreadyRevoked)

	_, err = env.service.Revoke(ctx, &vault.RevokeRequest{
		Signer:      env.owner,
		Account:     result.Account,
		Destination: env.ownerHolding,
	})
	require.ErrorIs(t, err, vault.ErrAlreadyRevoked)
}

func TestWithdrawNoProgress(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	result, err := env.service.Initialize(ctx, env.initializeRequest())
	require.NoError(t, err)

	withdraw := &vault.WithdrawRequest{
		Signer:      env.beneficiary,
		Account:     result.Account,
		Destination: env.beneficiaryHolding,
	}

	env.clock.now = startTime + 5
	_, err = env.service.Withdraw(ctx, withdraw)
	require.NoError(t, err)

	// No time has elapsed since the last withdrawal.
	_, err = env.service.Withdraw(ctx, withdraw)
	require.ErrorIs(t, err, vault.ErrNothingToRelease)
	env.requireConservation(t, result.CustodialHolding)
}

func TestWithdrawBeforeCliff(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	req := env.initializeRequest()
	req.CliffTime = startTime + 50
	result, err := env.service.Initialize(ctx, req)
	require.NoError(t, err)

	env.clock.now = startTime + 49
	_, err = env.service.Withdraw(ctx, &vault.WithdrawRequest{
		Signer:      env.beneficiary,
		Account:     result.Account,
		Destination: env.beneficiaryHolding,
	})
	require.ErrorIs(t, err, vault.ErrNothingToRelease)
}

func TestWithdrawFullyVested(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	result, err := env.service.Initialize(ctx, env.initializeRequest())
	require.NoError(t, err)

	withdraw := &vault.WithdrawRequest{
		Signer:      env.beneficiary,
		Account:     result.Account,
		Destination: env.beneficiaryHolding,
	}

	// Far past the horizon the entire deposit is released in one call.
	env.clock.now = startTime + duration*1000
	withdrawal, err := env.service.Withdraw(ctx, withdraw)
	require.NoError(t, err)
	require.True(t, withdrawal.TransferredAmount.Eq(depositAmount))
	require.True(t, env.balance(t, result.CustodialHolding).IsZero())
	env.requireConservation(t, result.CustodialHolding)

	// Withdraw stays callable after full vesting, with zero effect.
	_, err = env.service.Withdraw(ctx, withdraw)
	require.ErrorIs(t, err, vault.ErrNothingToRelease)
}

func TestWithdrawSumBoundedByDeposit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	result, err := env.service.Initialize(ctx, env.initializeRequest())
	require.NoError(t, err)

	withdraw := &vault.WithdrawRequest{
		Signer:      env.beneficiary,
		Account:     result.Account,
		Destination: env.beneficiaryHolding,
	}

	transferred := common.NewBigInt(0)
	for _, offset := range []int64{1, 7, 13, 13, 42, 99, 100, 250} {
		env.clock.now = startTime + offset
		withdrawal, err := env.service.Withdraw(ctx, withdraw)
		if err != nil {
			require.ErrorIs(t, err, vault.ErrNothingToRelease)
			continue
		}
		transferred = transferred.Plus(withdrawal.TransferredAmount)
		require.True(t, transferred.Int.Cmp(&depositAmount.Int) <= 0,
			"withdrawals must never exceed the deposit")
		env.requireConservation(t, result.CustodialHolding)
	}
	require.True(t, transferred.Eq(depositAmount))

	account, err := env.service.Account(ctx, result.Account)
	require.NoError(t, err)
	require.True(t, account.Released.Eq(transferred))
}

func TestInitializeRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("ZeroDuration", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.initializeRequest()
		req.Duration = 0
		_, err := env.service.Initialize(ctx, req)
		require.ErrorIs(t, err, vault.ErrInvalidSchedule)

		// No account, no transfer.
		_, err = env.service.Account(ctx, vault.VestingAccountAddress(env.beneficiaryHolding))
		require.ErrorIs(t, err, vault.ErrAccountNotFound)
		require.True(t, env.balance(t, env.ownerHolding).Eq(depositAmount))
	})

	t.Run("ZeroAmount", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.initializeRequest()
		req.Amount = common.NewBigInt(0)
		_, err := env.service.Initialize(ctx, req)
		require.ErrorIs(t, err, vault.ErrInvalidSchedule)
	})

	t.Run("WrongSigner", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.initializeRequest()
		req.Signer = env.beneficiary
		_, err := env.service.Initialize(ctx, req)
		require.ErrorIs(t, err, vault.ErrUnauthorized)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.initializeRequest()
		req.Amount = depositAmount.Plus(common.NewBigInt(1))
		_, err := env.service.Initialize(ctx, req)
		require.ErrorIs(t, err, vault.ErrInsufficientFunds)
	})

	t.Run("AlreadyInitialized", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.initializeRequest()
		req.Amount = common.NewBigInt(1000)
		_, err := env.service.Initialize(ctx, req)
		require.NoError(t, err)
		_, err = env.service.Initialize(ctx, req)
		require.ErrorIs(t, err, vault.ErrAlreadyInitialized)
	})
}

func TestWithdrawAuthorization(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	result, err := env.service.Initialize(ctx, env.initializeRequest())
	require.NoError(t, err)
	env.clock.now = startTime + 10

	t.Run("WrongSigner", func(t *testing.T) {
		_, err := env.service.Withdraw(ctx, &vault.WithdrawRequest{
			Signer:      env.owner,
			Account:     result.Account,
			Destination: env.beneficiaryHolding,
		})
		require.ErrorIs(t, err, vault.ErrUnauthorized)
	})

	t.Run("ForeignDestination", func(t *testing.T) {
		// The destination holding exists but belongs to the owner, not the
		// beneficiary.
		_, err := env.service.Withdraw(ctx, &vault.WithdrawRequest{
			Signer:      env.beneficiary,
			Account:     result.Account,
			Destination: env.ownerHolding,
		})
		require.ErrorIs(t, err, vault.ErrUnauthorized)
	})

	t.Run("MissingDestination", func(t *testing.T) {
		_, err := env.service.Withdraw(ctx, &vault.WithdrawRequest{
			Signer:      env.beneficiary,
			Account:     result.Account,
			Destination: common.NewAddress("test: holding", []byte("nowhere")),
		})
		require.ErrorIs(t, err, vault.ErrLedgerTransferFailed)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		_, err := env.service.Withdraw(ctx, &vault.WithdrawRequest{
			Signer:      env.beneficiary,
			Account:     common.NewAddress("test: account", []byte("nowhere")),
			Destination: env.beneficiaryHolding,
		})
		require.ErrorIs(t, err, vault.ErrAccountNotFound)
	})

	// None of the rejections moved tokens.
	env.requireConservation(t, result.CustodialHolding)
}

func TestRevokeAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("WrongSigner", func(t *testing.T) {
		env := newTestEnv(t)
		result, err := env.service.Initialize(ctx, env.initializeRequest())
		require.NoError(t, err)

		_, err = env.service.Revoke(ctx, &vault.RevokeRequest{
			Signer:      env.beneficiary,
			Account:     result.Account,
			Destination: env.ownerHolding,
		})
		require.ErrorIs(t, err, vault.ErrUnauthorized)
	})

	t.Run("NotRevocable", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.initializeRequest()
		req.Revocable = false
		result, err := env.service.Initialize(ctx, req)
		require.NoError(t, err)

		_, err = env.service.Revoke(ctx, &vault.RevokeRequest{
			Signer:      env.owner,
			Account:     result.Account,
			Destination: env.ownerHolding,
		})
		require.ErrorIs(t, err, vault.ErrNotRevocable)
	})

	t.Run("ForeignDestination", func(t *testing.T) {
		env := newTestEnv(t)
		result, err := env.service.Initialize(ctx, env.initializeRequest())
		require.NoError(t, err)

		_, err = env.service.Revoke(ctx, &vault.RevokeRequest{
			Signer:      env.owner,
			Account:     result.Account,
			Destination: env.beneficiaryHolding,
		})
		require.ErrorIs(t, err, vault.ErrUnauthorized)
	})
}
