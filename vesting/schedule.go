// Package vesting implements the linear release-schedule arithmetic.
package vesting

import (
	"math/big"

	"github.com/vestlock/vestlock/common"
)

// VestedAmount returns the cumulative amount unlocked at time now for a
// linear schedule: zero before the later of start and cliff, the full deposit
// once duration time units have elapsed since start, and a time-proportional
// share in between, truncated toward zero.
//
// The function is pure, performs no I/O, and is safe to call with speculative
// timestamps. For any fixed schedule with duration > 0 the result is monotone
// non-decreasing in now and bounded by [0, total]. A cliff earlier than start
// has no effect beyond the start time itself.
func VestedAmount(now, start, cliff, duration int64, total common.BigInt) common.BigInt {
	if now < start || now < cliff {
		return common.NewBigInt(0)
	}

	// elapsed >= 0 from the check above; comparing against duration rather
	// than start+duration avoids overflowing the schedule horizon.
	elapsed := now - start
	if elapsed >= duration {
		return total
	}

	// The multiplication is carried out in arbitrary precision, so the
	// intermediate product cannot overflow before the division.
	var v big.Int
	v.Mul(&total.Int, big.NewInt(elapsed))
	v.Quo(&v, big.NewInt(duration))
	return common.BigInt{Int: v}
}
