// Package machine executes gasless vault program instructions against an
// in-process account state, mirroring the single-threaded, atomic execution
// model of the on-chain runtime. Each Execute call either applies all of an
// instruction's effects or none of them.
package machine

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/mr-tron/base58"

	vault "github.com/gasless-labs/vault-server/pkg/solana/vault"
)

var (
	ErrIncorrectProgram      = errors.New("instruction is not for the vault program")
	ErrMissingSignature      = errors.New("missing required signature")
	ErrAccountNotFound       = errors.New("account not found")
	ErrAlreadyInitialized    = errors.New("vault already initialized")
	ErrAlreadyRegistered     = errors.New("mint already registered")
	ErrInvalidAccountAddress = errors.New("account does not match derived address")
)

// Committed is one successfully executed instruction, as recorded in the
// machine's history.
type Committed struct {
	Slot        uint64
	Signature   string
	Instruction vault.Instruction
}

// Machine holds the program's account state and a token ledger, and applies
// one instruction at a time.
type Machine struct {
	mu       sync.Mutex
	accounts map[string][]byte
	tokens   *TokenLedger
	history  []Committed
	slot     uint64
}

func New() *Machine {
	return &Machine{
		accounts: make(map[string][]byte),
		tokens:   NewTokenLedger(),
	}
}

// Tokens exposes the token ledger for environment setup (creating mints,
// funding depositors). Instruction execution goes through Execute. Do not
// retain the returned pointer across Execute calls: a commit replaces the
// ledger with its staged clone, leaving earlier pointers stale.
func (m *Machine) Tokens() *TokenLedger {
	return m.tokens
}

// Execute verifies signatures and applies one instruction. Mutations are
// staged on a copy of the state and committed only if the handler succeeds,
// so a failed instruction has no observable effect.
func (m *Machine) Execute(instruction vault.Instruction, signers ...ed25519.PublicKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !ed25519.PublicKey(instruction.Program).Equal(vault.PROGRAM_ID) {
		return ErrIncorrectProgram
	}

	signerSet := make(map[string]struct{}, len(signers))
	for _, signer := range signers {
		signerSet[base58.Encode(signer)] = struct{}{}
	}
	for _, meta := range instruction.Accounts {
		if !meta.IsSigner {
			continue
		}
		if _, ok := signerSet[base58.Encode(meta.PublicKey)]; !ok {
			return ErrMissingSignature
		}
	}

	command, err := vault.GetCommand(instruction.Data)
	if err != nil {
		return err
	}

	staged := m.stage()

	switch command {
	case vault.CommandInitialize:
		err = staged.initialize(instruction)
	case vault.CommandAddToWhitelist:
		err = staged.addToWhitelist(instruction)
	case vault.CommandRemoveFromWhitelist:
		err = staged.removeFromWhitelist(instruction)
	case vault.CommandAddToken:
		err = staged.addToken(instruction)
	case vault.CommandDepositTokens:
		err = staged.depositTokens(instruction)
	case vault.CommandBorrowAndDistribute:
		err = staged.borrowAndDistribute(instruction)
	default:
		err = vault.ErrInvalidInstructionData
	}
	if err != nil {
		return err
	}

	m.commit(staged, instruction)
	return nil
}

// History returns the committed instructions in execution order.
func (m *Machine) History() []Committed {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]Committed, len(m.history))
	copy(history, m.history)
	return history
}

func (m *Machine) GetVault(address ed25519.PublicKey) (*vault.VaultAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var account vault.VaultAccount
	if err := m.unmarshalAccount(address, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (m *Machine) GetWhitelist(address ed25519.PublicKey) (*vault.WhitelistAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var account vault.WhitelistAccount
	if err := m.unmarshalAccount(address, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (m *Machine) GetTokenVault(address ed25519.PublicKey) (*vault.TokenVaultAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var account vault.TokenVaultAccount
	if err := m.unmarshalAccount(address, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (m *Machine) GetBorrowerAccount(address ed25519.PublicKey) (*vault.BorrowerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var account vault.BorrowerAccount
	if err := m.unmarshalAccount(address, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

type unmarshaller interface {
	Unmarshal(data []byte) error
}

func (m *Machine) unmarshalAccount(address ed25519.PublicKey, account unmarshaller) error {
	data, ok := m.accounts[base58.Encode(address)]
	if !ok {
		return ErrAccountNotFound
	}
	return account.Unmarshal(data)
}

// state is the staged copy of machine state a handler mutates. Committing
// it replaces the machine's state wholesale.
type state struct {
	accounts map[string][]byte
	tokens   *TokenLedger
}

func (m *Machine) stage() *state {
	accounts := make(map[string][]byte, len(m.accounts))
	for key, data := range m.accounts {
		accounts[key] = append([]byte{}, data...)
	}
	return &state{
		accounts: accounts,
		tokens:   m.tokens.Clone(),
	}
}

func (m *Machine) commit(staged *state, instruction vault.Instruction) {
	m.accounts = staged.accounts
	m.tokens = staged.tokens
	m.slot++
	m.history = append(m.history, Committed{
		Slot:        m.slot,
		Signature:   syntheticSignature(m.slot, instruction.Data),
		Instruction: instruction,
	})
}

// syntheticSignature derives a unique, deterministic identifier for a
// committed instruction, standing in for the transaction signature a real
// cluster would assign.
func syntheticSignature(slot uint64, data []byte) string {
	var slotBytes [8]byte
	binary.LittleEndian.PutUint64(slotBytes[:], slot)

	hash := sha256.Sum256(append(slotBytes[:], data...))
	return base58.Encode(hash[:])
}
