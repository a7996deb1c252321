package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/vestlock/vestlock/common"
	"github.com/vestlock/vestlock/storage"
)

const (
	queryHolding = `
		SELECT owner_addr, token, balance
			FROM chain.holdings
			WHERE address = $1`
	queryCreateHolding = `
		INSERT INTO chain.holdings (address, owner_addr, token, balance)
			VALUES ($1, $2, $3, $4)`
	queryDebit = `
		UPDATE chain.holdings
			SET balance = balance - $2
			WHERE address = $1`
	queryCredit = `
		UPDATE chain.holdings
			SET balance = balance + $2
			WHERE address = $1`
)

// PostgresLedger reads holdings from the chain.holdings table. Mutations are
// staged into query batches with the Queue* helpers so they commit atomically
// with the rest of the operation.
type PostgresLedger struct {
	target storage.TargetStorage
}

// NewPostgresLedger creates a ledger gateway over target storage.
func NewPostgresLedger(target storage.TargetStorage) *PostgresLedger {
	return &PostgresLedger{target: target}
}

// Holding implements the Gateway interface.
func (l *PostgresLedger) Holding(ctx context.Context, address common.Address) (*Holding, error) {
	h := Holding{Address: address}
	err := l.target.QueryRow(ctx, queryHolding, address).Scan(&h.Owner, &h.Token, &h.Balance)
	switch {
	case err == nil:
		return &h, nil
	case errors.Is(err, storage.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", ErrHoldingNotFound, address)
	default:
		return nil, fmt.Errorf("ledger: read holding %s: %w", address, err)
	}
}

// QueueCreateHolding stages the creation of a holding.
func QueueCreateHolding(batch *storage.QueryBatch, h Holding) {
	batch.Queue(queryCreateHolding, h.Address, h.Owner, h.Token, h.Balance)
}

// QueueMint stages a credit of freshly issued tokens to a holding.
func QueueMint(batch *storage.QueryBatch, m Mint) {
	batch.Queue(queryCredit, m.To, m.Amount)
}

// QueueTransfer stages a balance movement between two holdings. The debit
// relies on the non-negative balance constraint on chain.holdings to abort
// the batch if the source holding is short.
func QueueTransfer(batch *storage.QueryBatch, t Transfer) {
	batch.Queue(queryDebit, t.From, t.Amount)
	batch.Queue(queryCredit, t.To, t.Amount)
}
