// Package mem implements the vault backend entirely in memory, backed by the
// in-memory reference ledger. Used by tests and local development.
package mem

import (
	"context"
	"fmt"
	"sync"

	"github.com/vestlock/vestlock/common"
	"github.com/vestlock/vestlock/ledger"
	"github.com/vestlock/vestlock/vault"
)

// Backend keeps vesting accounts in a map and balances in a MemLedger.
type Backend struct {
	mu       sync.RWMutex
	ledger   *ledger.MemLedger
	accounts map[common.Address]*vault.VestingAccount
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		ledger:   ledger.NewMemLedger(),
		accounts: make(map[common.Address]*vault.VestingAccount),
	}
}

// Holding implements the ledger.Gateway interface.
func (b *Backend) Holding(ctx context.Context, address common.Address) (*ledger.Holding, error) {
	return b.ledger.Holding(ctx, address)
}

// VestingAccount implements the vault.Backend interface.
func (b *Backend) VestingAccount(_ context.Context, address common.Address) (*vault.VestingAccount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	account, ok := b.accounts[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vault.ErrAccountNotFound, address)
	}
	cp := *account
	return &cp, nil
}

// Commit implements the vault.Backend interface. Account changes are
// validated first, then the ledger applies its part all-or-nothing, then the
// account map is updated; the account changes cannot fail after the ledger
// has committed.
func (b *Backend) Commit(_ context.Context, mut *vault.Mutation) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if mut.CreateAccount != nil {
		if _, ok := b.accounts[mut.CreateAccount.Address]; ok {
			return fmt.Errorf("%w: %s", vault.ErrAlreadyInitialized, mut.CreateAccount.Address)
		}
	}
	if mut.UpdateAccount != nil {
		if _, ok := b.accounts[mut.UpdateAccount.Address]; !ok {
			return fmt.Errorf("%w: %s", vault.ErrAccountNotFound, mut.UpdateAccount.Address)
		}
	}

	if err := b.ledger.Apply(mut.CreateHoldings, mut.Mints, mut.Transfers); err != nil {
		if mut.Transfers != nil {
			return fmt.Errorf("%w: %s", vault.ErrLedgerTransferFailed, err)
		}
		return err
	}

	if mut.CreateAccount != nil {
		cp := *mut.CreateAccount
		b.accounts[cp.Address] = &cp
	}
	if mut.UpdateAccount != nil {
		account := b.accounts[mut.UpdateAccount.Address]
		account.Released = mut.UpdateAccount.Released
		account.Revoked = mut.UpdateAccount.Revoked
	}
	return nil
}
