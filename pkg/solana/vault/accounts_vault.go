package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
	"strconv"

	"github.com/mr-tron/base58"
)

// VaultAccount is the singleton record naming the vault administrator and
// the number of registered mints.
type VaultAccount struct {
	Authority  ed25519.PublicKey
	TokenCount uint64
	Bump       uint8
}

const VaultAccountSize = (8 + // discriminator
	32 + // authority
	8 + // token_count
	1) // bump

var vaultAccountDiscriminator = accountDiscriminator("Vault")

func (obj *VaultAccount) Clone() *VaultAccount {
	return &VaultAccount{
		Authority:  append(ed25519.PublicKey{}, obj.Authority...),
		TokenCount: obj.TokenCount,
		Bump:       obj.Bump,
	}
}

func (obj *VaultAccount) String() string {
	var authority string
	if obj.Authority != nil {
		authority = base58.Encode(obj.Authority)
	}

	return "VaultAccount {" +
		"  authority='" + authority + "'" +
		", token_count='" + strconv.FormatUint(obj.TokenCount, 10) + "'" +
		", bump='" + strconv.Itoa(int(obj.Bump)) + "'" +
		"}"
}

func (obj *VaultAccount) Marshal() []byte {
	data := make([]byte, VaultAccountSize)

	var offset int

	putDiscriminator(data, vaultAccountDiscriminator, &offset)
	putKey(data, obj.Authority, &offset)
	putUint64(data, obj.TokenCount, &offset)
	putUint8(data, obj.Bump, &offset)

	return data
}

func (obj *VaultAccount) Unmarshal(data []byte) error {
	if len(data) < VaultAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, vaultAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Authority, &offset)
	getUint64(data, &obj.TokenCount, &offset)
	getUint8(data, &obj.Bump, &offset)

	return nil
}
