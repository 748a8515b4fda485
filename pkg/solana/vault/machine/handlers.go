package machine

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"

	vault "github.com/gasless-labs/vault-server/pkg/solana/vault"
)

// requireSigners verifies the instruction metas for the handler's signer
// roles are flagged as signers. Execute only demands signatures for flagged
// metas, so a cleared flag would otherwise bypass the signature check.
func requireSigners(instruction vault.Instruction, indexes ...int) error {
	for _, index := range indexes {
		if !instruction.Accounts[index].IsSigner {
			return ErrMissingSignature
		}
	}
	return nil
}

func (st *state) initialize(instruction vault.Instruction) error {
	accounts, err := vault.InitializeInstructionFromBinary(instruction)
	if err != nil {
		return err
	}

	if err := requireSigners(instruction, 0); err != nil {
		return err
	}

	vaultAddress, vaultBump, err := vault.GetVaultAddress()
	if err != nil {
		return err
	}
	if !bytes.Equal(accounts.Vault, vaultAddress) {
		return ErrInvalidAccountAddress
	}

	whitelistAddress, whitelistBump, err := vault.GetWhitelistAddress(&vault.GetWhitelistAddressArgs{
		Vault: vaultAddress,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(accounts.Whitelist, whitelistAddress) {
		return ErrInvalidAccountAddress
	}

	if st.exists(vaultAddress) {
		return ErrAlreadyInitialized
	}

	st.store(vaultAddress, (&vault.VaultAccount{
		Authority:  accounts.Authority,
		TokenCount: 0,
		Bump:       vaultBump,
	}).Marshal())

	st.store(whitelistAddress, (&vault.WhitelistAccount{
		Vault: vaultAddress,
		Bump:  whitelistBump,
	}).Marshal())

	return nil
}

func (st *state) addToWhitelist(instruction vault.Instruction) error {
	args, accounts, err := vault.AddToWhitelistInstructionFromBinary(instruction)
	if err != nil {
		return err
	}

	if err := requireSigners(instruction, 0); err != nil {
		return err
	}

	vaultAccount, err := st.loadVault(accounts.Vault)
	if err != nil {
		return err
	}
	if !bytes.Equal(vaultAccount.Authority, accounts.Authority) {
		return vault.ErrUnauthorized
	}

	whitelist, err := st.loadWhitelist(accounts.Whitelist, accounts.Vault)
	if err != nil {
		return err
	}

	if whitelist.Contains(args.Address) {
		return vault.ErrAlreadyWhitelisted
	}
	if len(whitelist.Addresses) >= vault.MaxWhitelistedAddresses {
		return vault.ErrWhitelistFull
	}

	whitelist.Addresses = append(whitelist.Addresses, args.Address)
	st.store(accounts.Whitelist, whitelist.Marshal())

	return nil
}

func (st *state) removeFromWhitelist(instruction vault.Instruction) error {
	args, accounts, err := vault.RemoveFromWhitelistInstructionFromBinary(instruction)
	if err != nil {
		return err
	}

	if err := requireSigners(instruction, 0); err != nil {
		return err
	}

	vaultAccount, err := st.loadVault(accounts.Vault)
	if err != nil {
		return err
	}
	if !bytes.Equal(vaultAccount.Authority, accounts.Authority) {
		return vault.ErrUnauthorized
	}

	whitelist, err := st.loadWhitelist(accounts.Whitelist, accounts.Vault)
	if err != nil {
		return err
	}

	// Removing an address that isn't a member is a no-op.
	for i, address := range whitelist.Addresses {
		if bytes.Equal(address, args.Address) {
			whitelist.Addresses = append(whitelist.Addresses[:i], whitelist.Addresses[i+1:]...)
			st.store(accounts.Whitelist, whitelist.Marshal())
			break
		}
	}

	return nil
}

func (st *state) addToken(instruction vault.Instruction) error {
	accounts, err := vault.AddTokenInstructionFromBinary(instruction)
	if err != nil {
		return err
	}

	// The custody token account keypair co-signs its own creation.
	if err := requireSigners(instruction, 0, 4); err != nil {
		return err
	}

	vaultAccount, err := st.loadVault(accounts.Vault)
	if err != nil {
		return err
	}
	if !bytes.Equal(vaultAccount.Authority, accounts.Authority) {
		return vault.ErrUnauthorized
	}

	tokenVaultAddress, tokenVaultBump, err := vault.GetTokenVaultAddress(&vault.GetTokenVaultAddressArgs{
		Vault: accounts.Vault,
		Mint:  accounts.Mint,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(accounts.TokenVault, tokenVaultAddress) {
		return ErrInvalidAccountAddress
	}

	if st.exists(tokenVaultAddress) {
		return ErrAlreadyRegistered
	}

	// The custody token account is created here, owned by the token vault
	// PDA so only the program can debit it.
	if err := st.tokens.CreateAccount(accounts.TokenAccount, accounts.Mint, tokenVaultAddress); err != nil {
		return err
	}

	if vaultAccount.TokenCount == math.MaxUint64 {
		return vault.ErrMathOverflow
	}
	vaultAccount.TokenCount++

	st.store(tokenVaultAddress, (&vault.TokenVaultAccount{
		Mint:         accounts.Mint,
		TokenAccount: accounts.TokenAccount,
		Vault:        accounts.Vault,
		Bump:         tokenVaultBump,
	}).Marshal())
	st.store(accounts.Vault, vaultAccount.Marshal())

	return nil
}

func (st *state) depositTokens(instruction vault.Instruction) error {
	args, accounts, err := vault.DepositTokensInstructionFromBinary(instruction)
	if err != nil {
		return err
	}

	if err := requireSigners(instruction, 0); err != nil {
		return err
	}

	if args.Amount == 0 {
		return vault.ErrInvalidAmount
	}

	if _, err := st.loadVault(accounts.Vault); err != nil {
		return err
	}

	tokenVault, err := st.loadTokenVault(accounts.TokenVault, accounts.Vault, accounts.Mint)
	if err != nil {
		return err
	}
	if !bytes.Equal(accounts.VaultTokenAccount, tokenVault.TokenAccount) {
		return vault.ErrInvalidTokenAccount
	}

	source, err := st.tokens.GetAccount(accounts.DepositorTokenAccount)
	if err != nil {
		return vault.ErrInvalidTokenAccount
	}
	if !bytes.Equal(source.Mint, accounts.Mint) || !bytes.Equal(source.Owner, accounts.Depositor) {
		return vault.ErrInvalidTokenAccount
	}

	if source.Amount < args.Amount {
		return vault.ErrInsufficientFunds
	}

	return st.tokens.Transfer(accounts.DepositorTokenAccount, accounts.VaultTokenAccount, args.Amount)
}

func (st *state) borrowAndDistribute(instruction vault.Instruction) error {
	args, accounts, err := vault.BorrowAndDistributeInstructionFromBinary(instruction)
	if err != nil {
		return err
	}

	// Both the borrower and the fee sponsor must sign.
	if err := requireSigners(instruction, 0, 10); err != nil {
		return err
	}

	// Precondition order: amount validity, whitelist membership, custody
	// balance. The first failure aborts with no effect.
	if args.Amount == 0 {
		return vault.ErrInvalidAmount
	}
	if args.Amount%3 != 0 {
		return vault.ErrInvalidDistributionAmount
	}

	if _, err := st.loadVault(accounts.Vault); err != nil {
		return err
	}

	whitelist, err := st.loadWhitelist(accounts.Whitelist, accounts.Vault)
	if err != nil {
		return err
	}
	if !whitelist.Contains(accounts.Borrower) {
		return vault.ErrNotWhitelisted
	}

	tokenVault, err := st.loadTokenVault(accounts.TokenVault, accounts.Vault, accounts.Mint)
	if err != nil {
		return err
	}
	if !bytes.Equal(accounts.VaultTokenAccount, tokenVault.TokenAccount) {
		return vault.ErrInvalidTokenAccount
	}

	custodyBalance, err := st.tokens.Balance(accounts.VaultTokenAccount)
	if err != nil {
		return vault.ErrInvalidTokenAccount
	}
	if custodyBalance < args.Amount {
		return vault.ErrInsufficientFunds
	}

	borrowerAddress, borrowerBump, err := vault.GetBorrowerAccountAddress(&vault.GetBorrowerAccountAddressArgs{
		Vault:    accounts.Vault,
		Borrower: accounts.Borrower,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(accounts.BorrowerAccount, borrowerAddress) {
		return ErrInvalidAccountAddress
	}

	borrowerAccount := &vault.BorrowerAccount{
		Borrower: accounts.Borrower,
		Vault:    accounts.Vault,
		Bump:     borrowerBump,
	}
	if st.exists(borrowerAddress) {
		if err := st.load(borrowerAddress, borrowerAccount); err != nil {
			return err
		}
	}

	if record := borrowerAccount.RecordFor(accounts.Mint); record != nil {
		if record.Amount > math.MaxUint64-args.Amount {
			return vault.ErrMathOverflow
		}
		record.Amount += args.Amount
	} else {
		if len(borrowerAccount.BorrowedAmounts) >= vault.MaxBorrowRecords {
			return vault.ErrBorrowerLedgerFull
		}
		borrowerAccount.BorrowedAmounts = append(borrowerAccount.BorrowedAmounts, vault.BorrowRecord{
			Mint:   accounts.Mint,
			Amount: args.Amount,
		})
	}

	split := args.Amount / 3
	recipients := []ed25519.PublicKey{
		accounts.RecipientTokenAccount1,
		accounts.RecipientTokenAccount2,
		accounts.RecipientTokenAccount3,
	}
	for _, recipient := range recipients {
		destination, err := st.tokens.GetAccount(recipient)
		if err != nil {
			return vault.ErrInvalidTokenAccount
		}
		if !bytes.Equal(destination.Mint, accounts.Mint) {
			return vault.ErrInvalidTokenAccount
		}
	}
	for _, recipient := range recipients {
		if err := st.tokens.Transfer(accounts.VaultTokenAccount, recipient, split); err != nil {
			return err
		}
	}

	st.store(borrowerAddress, borrowerAccount.Marshal())

	return nil
}

func (st *state) exists(address ed25519.PublicKey) bool {
	_, ok := st.accounts[base58.Encode(address)]
	return ok
}

func (st *state) store(address ed25519.PublicKey, data []byte) {
	st.accounts[base58.Encode(address)] = data
}

func (st *state) load(address ed25519.PublicKey, account unmarshaller) error {
	data, ok := st.accounts[base58.Encode(address)]
	if !ok {
		return ErrAccountNotFound
	}
	return account.Unmarshal(data)
}

func (st *state) loadVault(address ed25519.PublicKey) (*vault.VaultAccount, error) {
	vaultAddress, _, err := vault.GetVaultAddress()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(address, vaultAddress) {
		return nil, ErrInvalidAccountAddress
	}

	var account vault.VaultAccount
	if err := st.load(address, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (st *state) loadWhitelist(address, vaultAddress ed25519.PublicKey) (*vault.WhitelistAccount, error) {
	expected, _, err := vault.GetWhitelistAddress(&vault.GetWhitelistAddressArgs{
		Vault: vaultAddress,
	})
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(address, expected) {
		return nil, ErrInvalidAccountAddress
	}

	var account vault.WhitelistAccount
	if err := st.load(address, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (st *state) loadTokenVault(address, vaultAddress, mint ed25519.PublicKey) (*vault.TokenVaultAccount, error) {
	expected, _, err := vault.GetTokenVaultAddress(&vault.GetTokenVaultAddressArgs{
		Vault: vaultAddress,
		Mint:  mint,
	})
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(address, expected) {
		return nil, ErrInvalidAccountAddress
	}

	var account vault.TokenVaultAccount
	if err := st.load(address, &account); err != nil {
		return nil, err
	}
	if !bytes.Equal(account.Mint, mint) {
		return nil, vault.ErrInvalidTokenAccount
	}
	return &account, nil
}
