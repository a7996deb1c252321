package common

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// Address is the location of an account: one version byte followed by the
// first 20 bytes of a SHA-512/256 digest over a domain-separation context and
// the seeds that name the account. Deriving an address is a pure function of
// the account's logical identity, so clients never store addresses out of
// band.
type Address [21]byte

const addressVersion = 0x56

// NewAddress derives an address from a domain-separation context and seeds.
// Distinct contexts can never produce colliding addresses.
func NewAddress(context string, seeds ...[]byte) Address {
	h := sha512.New512_256()
	_, _ = h.Write([]byte(context))
	for _, seed := range seeds {
		_, _ = h.Write(seed)
	}
	digest := h.Sum(nil)

	var a Address
	a[0] = addressVersion
	copy(a[1:], digest[:20])
	return a
}

// AddressFromHex parses an address from its hex form.
func AddressFromHex(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("common: malformed address %q: %w", s, err)
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("common: malformed address %q: expected %d bytes, got %d", s, len(a), len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// IsZero returns true for the all-zero (unset) address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Equal returns true if both addresses are the same.
func (a Address) Equal(other Address) bool {
	return a == other
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := AddressFromHex(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ScanText implements pgtype.TextScanner so a TEXT column can be scanned
// directly into an Address.
func (a *Address) ScanText(v pgtype.Text) error {
	if !v.Valid {
		return fmt.Errorf("common: NULL values can't be decoded into an Address")
	}
	return a.UnmarshalText([]byte(v.String))
}

// TextValue implements pgtype.TextValuer.
func (a Address) TextValue() (pgtype.Text, error) {
	return pgtype.Text{String: a.String(), Valid: true}, nil
}
