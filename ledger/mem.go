package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/vestlock/vestlock/common"
)

// MemLedger is an in-memory ledger. It backs the memory storage backend and
// the test suites; a deployment would normally point the service at the
// Postgres-backed ledger instead.
type MemLedger struct {
	mu       sync.RWMutex
	holdings map[common.Address]*Holding
}

// NewMemLedger creates an empty in-memory ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{
		holdings: make(map[common.Address]*Holding),
	}
}

// Holding implements the Gateway interface.
func (l *MemLedger) Holding(_ context.Context, address common.Address) (*Holding, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	h, ok := l.holdings[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHoldingNotFound, address)
	}
	cp := *h
	return &cp, nil
}

// Apply validates and applies a set of holding creations, mints and transfers
// as one unit. Either every mutation is applied or none is.
func (l *MemLedger) Apply(creates []Holding, mints []Mint, transfers []Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Validate everything against a scratch view of the balances before
	// touching the real state.
	scratch := make(map[common.Address]common.BigInt, len(l.holdings))
	for addr, h := range l.holdings {
		scratch[addr] = h.Balance
	}
	for _, c := range creates {
		if _, ok := scratch[c.Address]; ok {
			return fmt.Errorf("%w: %s", ErrHoldingExists, c.Address)
		}
		scratch[c.Address] = c.Balance
	}
	for _, m := range mints {
		balance, ok := scratch[m.To]
		if !ok {
			return fmt.Errorf("%w: %s", ErrHoldingNotFound, m.To)
		}
		scratch[m.To] = balance.Plus(m.Amount)
	}
	for _, t := range transfers {
		from, ok := scratch[t.From]
		if !ok {
			return fmt.Errorf("%w: %s", ErrHoldingNotFound, t.From)
		}
		if _, ok := scratch[t.To]; !ok {
			return fmt.Errorf("%w: %s", ErrHoldingNotFound, t.To)
		}
		remaining := from.Minus(t.Amount)
		if remaining.Sign() < 0 {
			return fmt.Errorf("%w: %s", ErrInsufficientBalance, t.From)
		}
		scratch[t.From] = remaining
		scratch[t.To] = scratch[t.To].Plus(t.Amount)
	}

	for _, c := range creates {
		cp := c
		cp.Balance = scratch[c.Address]
		l.holdings[c.Address] = &cp
	}
	for addr, h := range l.holdings {
		h.Balance = scratch[addr]
	}
	return nil
}
