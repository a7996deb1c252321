package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vestlock/vestlock/common"
	"github.com/vestlock/vestlock/ledger"
	"github.com/vestlock/vestlock/log"
	"github.com/vestlock/vestlock/vesting"
)

const moduleName = "vault"

// Service drives vesting accounts through their state machine:
// uninitialized -> active -> revoked. Operations targeting the same account
// are serialized; distinct accounts proceed in parallel. Every operation is a
// finite sequence of validation, arithmetic and a single atomic commit; on
// any failure state is left unchanged.
type Service struct {
	backend Backend
	clock   Clock
	logger  *log.Logger

	mu    sync.Mutex
	locks map[common.Address]*sync.Mutex
}

// NewService creates a vault service over the given backend.
func NewService(backend Backend, clock Clock, logger *log.Logger) *Service {
	return &Service{
		backend: backend,
		clock:   clock,
		logger:  logger.WithModule(moduleName),
		locks:   make(map[common.Address]*sync.Mutex),
	}
}

// accountLock returns the mutex serializing operations on one account.
func (s *Service) accountLock(address common.Address) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[address]
	if !ok {
		l = &sync.Mutex{}
		s.locks[address] = l
	}
	return l
}

// Initialize creates a vesting arrangement: it creates the custodial holding
// bound to the vault authority, moves the deposit into it, and writes the
// vesting account record, all in one commit.
func (s *Service) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	if req.Amount.Sign() <= 0 || req.Duration <= 0 {
		return nil, fmt.Errorf("%w: amount and duration must be positive", ErrInvalidSchedule)
	}
	if err := checkSigner(req.Signer, req.Owner); err != nil {
		return nil, err
	}

	account := VestingAccountAddress(req.BeneficiaryHolding)
	custodial := CustodialHoldingAddress(req.BeneficiaryHolding)

	lock := s.accountLock(account)
	lock.Lock()
	defer lock.Unlock()

	switch _, err := s.backend.VestingAccount(ctx, account); {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, account)
	case errors.Is(err, ErrAccountNotFound):
	default:
		return nil, err
	}

	ownerHolding, err := s.sourceHolding(ctx, req.OwnerHolding, req.Owner, req.Token)
	if err != nil {
		return nil, err
	}
	if ownerHolding.Balance.Int.Cmp(&req.Amount.Int) < 0 {
		return nil, fmt.Errorf("%w: holding %s has %s, need %s",
			ErrInsufficientFunds, ownerHolding.Address, ownerHolding.Balance.String(), req.Amount.String())
	}
	if _, err = s.sourceHolding(ctx, req.BeneficiaryHolding, req.Beneficiary, req.Token); err != nil {
		return nil, err
	}

	mut := &Mutation{
		CreateHoldings: []ledger.Holding{{
			Address: custodial,
			Owner:   VaultAuthorityAddress(),
			Token:   req.Token,
			Balance: common.NewBigInt(0),
		}},
		Transfers: []ledger.Transfer{{
			From:   req.OwnerHolding,
			To:     custodial,
			Amount: req.Amount,
		}},
		CreateAccount: &VestingAccount{
			Address:            account,
			Owner:              req.Owner,
			Beneficiary:        req.Beneficiary,
			Token:              req.Token,
			BeneficiaryHolding: req.BeneficiaryHolding,
			CustodialHolding:   custodial,
			TotalDeposited:     req.Amount,
			Released:           common.NewBigInt(0),
			StartTime:          req.StartTime,
			CliffTime:          req.CliffTime,
			Duration:           req.Duration,
			Revocable:          req.Revocable,
		},
	}
	if err := s.backend.Commit(ctx, mut); err != nil {
		return nil, err
	}

	s.logger.Info("vesting account initialized",
		"account", account,
		"owner", req.Owner,
		"beneficiary", req.Beneficiary,
		"amount", req.Amount.String(),
		"duration", req.Duration,
		"revocable", req.Revocable,
	)
	return &InitializeResult{
		Account:          account,
		CustodialHolding: custodial,
	}, nil
}

// Withdraw releases the currently-releasable amount to the beneficiary's
// destination holding and advances the released counter.
func (s *Service) Withdraw(ctx context.Context, req *WithdrawRequest) (*WithdrawResult, error) {
	lock := s.accountLock(req.Account)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.backend.VestingAccount(ctx, req.Account)
	if err != nil {
		return nil, err
	}
	if account.Revoked {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRevoked, account.Address)
	}
	if err = checkSigner(req.Signer, account.Beneficiary); err != nil {
		return nil, err
	}
	if _, err = s.destinationHolding(ctx, req.Destination, account.Beneficiary, account.Token); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	vested := vesting.VestedAmount(now, account.StartTime, account.CliffTime, account.Duration, account.TotalDeposited)
	releasable := vested.Minus(account.Released)
	if releasable.Sign() <= 0 {
		return nil, fmt.Errorf("%w: account %s at time %d", ErrNothingToRelease, account.Address, now)
	}

	released := account.Released.Plus(releasable)
	// The schedule engine bounds vested by the deposit, so this can only trip
	// if the stored record was corrupted. Abort rather than saturate.
	if released.Int.Cmp(&account.TotalDeposited.Int) > 0 {
		return nil, fmt.Errorf("%w: released %s exceeds deposit %s",
			ErrArithmeticOverflow, released.String(), account.TotalDeposited.String())
	}

	mut := &Mutation{
		Transfers: []ledger.Transfer{{
			From:   account.CustodialHolding,
			To:     req.Destination,
			Amount: releasable,
		}},
		UpdateAccount: &AccountUpdate{
			Address:  account.Address,
			Released: released,
			Revoked:  false,
		},
	}
	if err := s.backend.Commit(ctx, mut); err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal released",
		"account", account.Address,
		"amount", releasable.String(),
		"released_total", released.String(),
		"time", now,
	)
	return &WithdrawResult{TransferredAmount: releasable}, nil
}

// Revoke returns the entire current custodial balance, including any
// vested-but-unwithdrawn portion, to the owner's destination holding and
// marks the account revoked. The released counter is left unchanged.
func (s *Service) Revoke(ctx context.Context, req *RevokeRequest) (*RevokeResult, error) {
	lock := s.accountLock(req.Account)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.backend.VestingAccount(ctx, req.Account)
	if err != nil {
		return nil, err
	}
	if err = checkSigner(req.Signer, account.Owner); err != nil {
		return nil, err
	}
	if account.Revoked {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRevoked, account.Address)
	}
	if !account.Revocable {
		return nil, fmt.Errorf("%w: %s", ErrNotRevocable, account.Address)
	}
	if _, err = s.destinationHolding(ctx, req.Destination, account.Owner, account.Token); err != nil {
		return nil, err
	}

	remaining := account.TotalDeposited.Minus(account.Released)
	if remaining.Sign() < 0 {
		return nil, fmt.Errorf("%w: released %s exceeds deposit %s",
			ErrArithmeticOverflow, account.Released.String(), account.TotalDeposited.String())
	}

	mut := &Mutation{
		UpdateAccount: &AccountUpdate{
			Address:  account.Address,
			Released: account.Released,
			Revoked:  true,
		},
	}
	if remaining.Sign() > 0 {
		mut.Transfers = []ledger.Transfer{{
			From:   account.CustodialHolding,
			To:     req.Destination,
			Amount: remaining,
		}}
	}
	if err := s.backend.Commit(ctx, mut); err != nil {
		return nil, err
	}

	s.logger.Info("vesting account revoked",
		"account", account.Address,
		"reclaimed", remaining.String(),
	)
	return &RevokeResult{ReclaimedAmount: remaining}, nil
}

// Account returns the vesting account at the given address.
func (s *Service) Account(ctx context.Context, address common.Address) (*VestingAccount, error) {
	return s.backend.VestingAccount(ctx, address)
}

// CreateHolding creates an empty token holding on the reference ledger.
func (s *Service) CreateHolding(ctx context.Context, req *CreateHoldingRequest) error {
	mut := &Mutation{
		CreateHoldings: []ledger.Holding{{
			Address: req.Address,
			Owner:   req.Owner,
			Token:   req.Token,
			Balance: common.NewBigInt(0),
		}},
	}
	return s.backend.Commit(ctx, mut)
}

// Mint credits freshly issued tokens to a holding on the reference ledger.
func (s *Service) Mint(ctx context.Context, req *MintRequest) error {
	if req.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: mint amount must be positive", ErrInvalidSchedule)
	}
	if _, err := s.backend.Holding(ctx, req.Holding); err != nil {
		return err
	}
	mut := &Mutation{
		Mints: []ledger.Mint{{To: req.Holding, Amount: req.Amount}},
	}
	return s.backend.Commit(ctx, mut)
}

// Holding returns the holding at the given address.
func (s *Service) Holding(ctx context.Context, address common.Address) (*ledger.Holding, error) {
	return s.backend.Holding(ctx, address)
}
