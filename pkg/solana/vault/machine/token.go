package machine

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"math"

	"github.com/mr-tron/base58"
)

var (
	ErrMintExists           = errors.New("mint already exists")
	ErrMintNotFound         = errors.New("mint not found")
	ErrMintMismatch         = errors.New("token account mint mismatch")
	ErrTokenAccountExists   = errors.New("token account already exists")
	ErrTokenAccountNotFound = errors.New("token account not found")
	ErrInsufficientBalance  = errors.New("insufficient token balance")
	ErrBalanceOverflow      = errors.New("token balance overflow")
)

// TokenAccount is a fungible token holding: a balance of one mint with a
// single owner.
type TokenAccount struct {
	Address ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
	Amount  uint64
}

// TokenLedger is the machine's stand-in for the SPL token program: mints and
// token accounts with debit/credit semantics. It performs the balance and
// mint checks the token-transfer primitive is responsible for.
type TokenLedger struct {
	mints    map[string]struct{}
	accounts map[string]*TokenAccount
}

func NewTokenLedger() *TokenLedger {
	return &TokenLedger{
		mints:    make(map[string]struct{}),
		accounts: make(map[string]*TokenAccount),
	}
}

func (l *TokenLedger) InitializeMint(mint ed25519.PublicKey) error {
	key := base58.Encode(mint)
	if _, ok := l.mints[key]; ok {
		return ErrMintExists
	}
	l.mints[key] = struct{}{}
	return nil
}

func (l *TokenLedger) CreateAccount(address, mint, owner ed25519.PublicKey) error {
	if _, ok := l.mints[base58.Encode(mint)]; !ok {
		return ErrMintNotFound
	}

	key := base58.Encode(address)
	if _, ok := l.accounts[key]; ok {
		return ErrTokenAccountExists
	}

	l.accounts[key] = &TokenAccount{
		Address: append(ed25519.PublicKey{}, address...),
		Mint:    append(ed25519.PublicKey{}, mint...),
		Owner:   append(ed25519.PublicKey{}, owner...),
	}
	return nil
}

// MintTo credits freshly issued tokens to a token account. Used to fund
// depositors when setting up an execution environment.
func (l *TokenLedger) MintTo(address ed25519.PublicKey, amount uint64) error {
	account, ok := l.accounts[base58.Encode(address)]
	if !ok {
		return ErrTokenAccountNotFound
	}

	if account.Amount > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	account.Amount += amount
	return nil
}

// Transfer moves amount between two accounts of the same mint.
func (l *TokenLedger) Transfer(source, destination ed25519.PublicKey, amount uint64) error {
	from, ok := l.accounts[base58.Encode(source)]
	if !ok {
		return ErrTokenAccountNotFound
	}
	to, ok := l.accounts[base58.Encode(destination)]
	if !ok {
		return ErrTokenAccountNotFound
	}

	if !bytes.Equal(from.Mint, to.Mint) {
		return ErrMintMismatch
	}
	if from.Amount < amount {
		return ErrInsufficientBalance
	}
	if to.Amount > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}

	from.Amount -= amount
	to.Amount += amount
	return nil
}

func (l *TokenLedger) GetAccount(address ed25519.PublicKey) (*TokenAccount, error) {
	account, ok := l.accounts[base58.Encode(address)]
	if !ok {
		return nil, ErrTokenAccountNotFound
	}

	cloned := *account
	return &cloned, nil
}

func (l *TokenLedger) Balance(address ed25519.PublicKey) (uint64, error) {
	account, ok := l.accounts[base58.Encode(address)]
	if !ok {
		return 0, ErrTokenAccountNotFound
	}
	return account.Amount, nil
}

func (l *TokenLedger) Clone() *TokenLedger {
	cloned := NewTokenLedger()
	for key := range l.mints {
		cloned.mints[key] = struct{}{}
	}
	for key, account := range l.accounts {
		copied := *account
		cloned.accounts[key] = &copied
	}
	return cloned
}
