package gasless_vault

import "strconv"

type VaultError uint32

const (
	// Unauthorized access
	ErrUnauthorized VaultError = iota + 0x1770

	// Invalid token account
	ErrInvalidTokenAccount

	// Address not whitelisted
	ErrNotWhitelisted

	// Insufficient funds in vault
	ErrInsufficientFunds

	// Amount must be greater than zero
	ErrInvalidAmount

	// Math overflow
	ErrMathOverflow

	// Invalid recipient
	ErrInvalidRecipient

	// Distribution amount must be divisible by 3
	ErrInvalidDistributionAmount

	// Address already whitelisted
	ErrAlreadyWhitelisted

	// Whitelist is at capacity
	ErrWhitelistFull

	// Borrower ledger is at capacity
	ErrBorrowerLedgerFull
)

func (e VaultError) Error() string {
	switch e {
	case ErrUnauthorized:
		return "unauthorized access"
	case ErrInvalidTokenAccount:
		return "invalid token account"
	case ErrNotWhitelisted:
		return "address not whitelisted"
	case ErrInsufficientFunds:
		return "insufficient funds in vault"
	case ErrInvalidAmount:
		return "amount must be greater than zero"
	case ErrMathOverflow:
		return "math overflow"
	case ErrInvalidRecipient:
		return "invalid recipient"
	case ErrInvalidDistributionAmount:
		return "distribution amount must be divisible by 3"
	case ErrAlreadyWhitelisted:
		return "address already whitelisted"
	case ErrWhitelistFull:
		return "whitelist is at capacity"
	case ErrBorrowerLedgerFull:
		return "borrower ledger is at capacity"
	}
	return "custom program error: 0x" + strconv.FormatUint(uint64(e), 16)
}
