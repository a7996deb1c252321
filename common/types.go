// Package common contains the shared value types of the vault service.
package common

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// BigInt is an arbitrary-precision integer. It is a wrapper around big.Int
// that marshals to/from a quoted decimal string in JSON and maps onto the
// NUMERIC type in Postgres. All token quantities in the service use BigInt so
// that schedule arithmetic never overflows a machine word.
type BigInt struct {
	big.Int
}

// NewBigInt creates a BigInt from an int64.
func NewBigInt(v int64) BigInt {
	return BigInt{*big.NewInt(v)}
}

// Plus returns b + other without mutating either operand.
func (b BigInt) Plus(other BigInt) BigInt {
	var sum big.Int
	sum.Add(&b.Int, &other.Int)
	return BigInt{sum}
}

// Minus returns b - other without mutating either operand.
func (b BigInt) Minus(other BigInt) BigInt {
	var diff big.Int
	diff.Sub(&b.Int, &other.Int)
	return BigInt{diff}
}

// Eq returns true if b and other represent the same integer.
func (b BigInt) Eq(other BigInt) bool {
	return b.Int.Cmp(&other.Int) == 0
}

// IsZero returns true if b is zero.
func (b BigInt) IsZero() bool {
	return b.Int.Sign() == 0
}

func (b BigInt) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BigInt) UnmarshalText(text []byte) error {
	return b.Int.UnmarshalText(text)
}

func (b BigInt) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, b.String())), nil
}

func (b *BigInt) UnmarshalJSON(text []byte) error {
	v := strings.Trim(string(text), "\"")
	return b.Int.UnmarshalJSON([]byte(v))
}

// ScanNumeric implements pgtype.NumericScanner so a NUMERIC column can be
// scanned directly into a BigInt.
func (b *BigInt) ScanNumeric(n pgtype.Numeric) error {
	if !n.Valid {
		return errors.New("common: NULL values can't be decoded; scan into a **BigInt to handle NULLs")
	}
	bigInt, err := numericToBigInt(n)
	if err != nil {
		return err
	}
	*b = bigInt
	return nil
}

// NumericValue implements pgtype.NumericValuer.
func (b BigInt) NumericValue() (pgtype.Numeric, error) {
	return pgtype.Numeric{Int: &b.Int, Exp: 0, Valid: true}, nil
}

// numericToBigInt converts a pgtype.Numeric to a BigInt. Only integral
// numerics convert; a numeric with a fractional part is rejected.
func numericToBigInt(n pgtype.Numeric) (BigInt, error) {
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return BigInt{}, fmt.Errorf("common: cannot convert %v to integer", n)
	}
	if n.Exp == 0 {
		return BigInt{Int: *n.Int}, nil
	}

	big10 := big.NewInt(10)
	var bi big.Int
	bi.Set(n.Int)
	if n.Exp > 0 {
		var mul big.Int
		mul.Exp(big10, big.NewInt(int64(n.Exp)), nil)
		bi.Mul(&bi, &mul)
		return BigInt{Int: bi}, nil
	}

	var div, remainder big.Int
	div.Exp(big10, big.NewInt(int64(-n.Exp)), nil)
	bi.DivMod(&bi, &div, &remainder)
	if remainder.Sign() != 0 {
		return BigInt{}, fmt.Errorf("common: cannot convert %v to integer", n)
	}
	return BigInt{Int: bi}, nil
}
