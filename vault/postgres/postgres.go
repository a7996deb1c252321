// Package postgres implements the vault backend on top of PostgreSQL target
// storage. One operation maps onto one query batch, so every mutation of the
// vesting account and the ledger commits atomically.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vestlock/vestlock/common"
	"github.com/vestlock/vestlock/ledger"
	"github.com/vestlock/vestlock/log"
	"github.com/vestlock/vestlock/storage"
	"github.com/vestlock/vestlock/vault"
)

const moduleName = "vault_postgres"

const (
	queryVestingAccount = `
		SELECT owner_addr, beneficiary, token, beneficiary_holding, custodial_holding,
				total_deposited, released, start_time, cliff_time, duration, revocable, revoked
			FROM chain.vesting_accounts
			WHERE address = $1`
	queryCreateVestingAccount = `
		INSERT INTO chain.vesting_accounts (address, owner_addr, beneficiary, token,
				beneficiary_holding, custodial_holding, total_deposited, released,
				start_time, cliff_time, duration, revocable, revoked)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE)`
	queryUpdateVestingAccount = `
		UPDATE chain.vesting_accounts
			SET released = $2, revoked = $3
			WHERE address = $1`
)

// Postgres error codes that map onto vault error kinds.
const (
	pgCodeUniqueViolation = "23505"
	pgCodeCheckViolation  = "23514"
)

// Backend persists vault state in the chain schema of target storage.
type Backend struct {
	target storage.TargetStorage
	ledger *ledger.PostgresLedger
	logger *log.Logger
}

// NewBackend creates a Postgres vault backend.
func NewBackend(target storage.TargetStorage, logger *log.Logger) *Backend {
	return &Backend{
		target: target,
		ledger: ledger.NewPostgresLedger(target),
		logger: logger.WithModule(moduleName),
	}
}

// Holding implements the ledger.Gateway interface.
func (b *Backend) Holding(ctx context.Context, address common.Address) (*ledger.Holding, error) {
	return b.ledger.Holding(ctx, address)
}

// VestingAccount implements the vault.Backend interface.
func (b *Backend) VestingAccount(ctx context.Context, address common.Address) (*vault.VestingAccount, error) {
	account := vault.VestingAccount{Address: address}
	err := b.target.QueryRow(ctx, queryVestingAccount, address).Scan(
		&account.Owner,
		&account.Beneficiary,
		&account.Token,
		&account.BeneficiaryHolding,
		&account.CustodialHolding,
		&account.TotalDeposited,
		&account.Released,
		&account.StartTime,
		&account.CliffTime,
		&account.Duration,
		&account.Revocable,
		&account.Revoked,
	)
	switch {
	case err == nil:
		return &account, nil
	case errors.Is(err, storage.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", vault.ErrAccountNotFound, address)
	default:
		return nil, fmt.Errorf("read vesting account %s: %w", address, err)
	}
}

// Commit implements the vault.Backend interface.
func (b *Backend) Commit(ctx context.Context, mut *vault.Mutation) error {
	batch := &storage.QueryBatch{}
	for _, h := range mut.CreateHoldings {
		ledger.QueueCreateHolding(batch, h)
	}
	for _, m := range mut.Mints {
		ledger.QueueMint(batch, m)
	}
	for _, t := range mut.Transfers {
		ledger.QueueTransfer(batch, t)
	}
	if a := mut.CreateAccount; a != nil {
		batch.Queue(queryCreateVestingAccount,
			a.Address, a.Owner, a.Beneficiary, a.Token,
			a.BeneficiaryHolding, a.CustodialHolding, a.TotalDeposited, a.Released,
			a.StartTime, a.CliffTime, a.Duration, a.Revocable,
		)
	}
	if u := mut.UpdateAccount; u != nil {
		batch.Queue(queryUpdateVestingAccount, u.Address, u.Released, u.Revoked)
	}

	if err := b.target.SendBatch(ctx, batch); err != nil {
		return b.mapCommitError(mut, err)
	}
	return nil
}

// mapCommitError translates constraint violations reported by Postgres into
// the vault error kinds the state machine defends against. The guards make
// these unreachable in normal operation; the constraints are the last line
// holding the conservation invariant.
func (b *Backend) mapCommitError(mut *vault.Mutation, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeUniqueViolation:
			if mut.CreateAccount != nil {
				return fmt.Errorf("%w: %s", vault.ErrAlreadyInitialized, mut.CreateAccount.Address)
			}
			return fmt.Errorf("%w: %s", ledger.ErrHoldingExists, pgErr.Detail)
		case pgCodeCheckViolation:
			return fmt.Errorf("%w: %s", vault.ErrLedgerTransferFailed, pgErr.Message)
		}
	}
	b.logger.Error("commit failed", "error", err)
	return fmt.Errorf("commit: %w", err)
}
