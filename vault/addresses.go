package vault

import "github.com/vestlock/vestlock/common"

// Derivation contexts. Each account family gets its own context so addresses
// from different families can never collide.
const (
	addressContextAuthority = "vestlock/address: vault-authority"
	addressContextCustody   = "vestlock/address: token-vault"
	addressContextVesting   = "vestlock/address: vesting-account"
)

// VaultAuthorityAddress returns the address of the shared vault authority,
// the sole permitted mover of funds out of custodial holdings. It takes no
// seed: there is one authority for the whole service.
func VaultAuthorityAddress() common.Address {
	return common.NewAddress(addressContextAuthority)
}

// CustodialHoldingAddress returns the address of the holding that custodies
// locked tokens for the vesting arrangement keyed by the given beneficiary
// holding.
func CustodialHoldingAddress(beneficiaryHolding common.Address) common.Address {
	return common.NewAddress(addressContextCustody, beneficiaryHolding[:])
}

// VestingAccountAddress returns the address of the vesting account record
// keyed by the given beneficiary holding.
func VestingAccountAddress(beneficiaryHolding common.Address) common.Address {
	return common.NewAddress(addressContextVesting, beneficiaryHolding[:])
}
