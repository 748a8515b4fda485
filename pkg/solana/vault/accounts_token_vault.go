package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
	"strconv"

	"github.com/mr-tron/base58"
)

// TokenVaultAccount binds a registered mint to the custody token account
// holding its deposits. One per (vault, mint).
type TokenVaultAccount struct {
	Mint         ed25519.PublicKey
	TokenAccount ed25519.PublicKey
	Vault        ed25519.PublicKey
	Bump         uint8
}

const TokenVaultAccountSize = (8 + // discriminator
	32 + // mint
	32 + // token_account
	32 + // vault
	1) // bump

var tokenVaultAccountDiscriminator = accountDiscriminator("TokenVault")

func (obj *TokenVaultAccount) Clone() *TokenVaultAccount {
	return &TokenVaultAccount{
		Mint:         append(ed25519.PublicKey{}, obj.Mint...),
		TokenAccount: append(ed25519.PublicKey{}, obj.TokenAccount...),
		Vault:        append(ed25519.PublicKey{}, obj.Vault...),
		Bump:         obj.Bump,
	}
}

func (obj *TokenVaultAccount) String() string {
	var mint, tokenAccount, vault string

	if obj.Mint != nil {
		mint = base58.Encode(obj.Mint)
	}
	if obj.TokenAccount != nil {
		tokenAccount = base58.Encode(obj.TokenAccount)
	}
	if obj.Vault != nil {
		vault = base58.Encode(obj.Vault)
	}

	return "TokenVaultAccount {" +
		"  mint='" + mint + "'" +
		", token_account='" + tokenAccount + "'" +
		", vault='" + vault + "'" +
		", bump='" + strconv.Itoa(int(obj.Bump)) + "'" +
		"}"
}

func (obj *TokenVaultAccount) Marshal() []byte {
	data := make([]byte, TokenVaultAccountSize)

	var offset int

	putDiscriminator(data, tokenVaultAccountDiscriminator, &offset)
	putKey(data, obj.Mint, &offset)
	putKey(data, obj.TokenAccount, &offset)
	putKey(data, obj.Vault, &offset)
	putUint8(data, obj.Bump, &offset)

	return data
}

func (obj *TokenVaultAccount) Unmarshal(data []byte) error {
	if len(data) < TokenVaultAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, tokenVaultAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Mint, &offset)
	getKey(data, &obj.TokenAccount, &offset)
	getKey(data, &obj.Vault, &offset)
	getUint8(data, &obj.Bump, &offset)

	return nil
}
