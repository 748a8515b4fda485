package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
	"strconv"

	"github.com/mr-tron/base58"
)

// MaxWhitelistedAddresses is the number of borrower addresses the whitelist
// account is allocated to hold.
const MaxWhitelistedAddresses = 50

// WhitelistAccount is the set of borrower addresses permitted to draw from
// the vault. Bound 1:1 to a VaultAccount.
type WhitelistAccount struct {
	Addresses []ed25519.PublicKey
	Vault     ed25519.PublicKey
	Bump      uint8
}

const WhitelistAccountSize = (8 + // discriminator
	4 + (32 * MaxWhitelistedAddresses) + // addresses
	32 + // vault
	1) // bump

var whitelistAccountDiscriminator = accountDiscriminator("Whitelist")

func (obj *WhitelistAccount) Clone() *WhitelistAccount {
	addresses := make([]ed25519.PublicKey, len(obj.Addresses))
	for i, address := range obj.Addresses {
		addresses[i] = append(ed25519.PublicKey{}, address...)
	}

	return &WhitelistAccount{
		Addresses: addresses,
		Vault:     append(ed25519.PublicKey{}, obj.Vault...),
		Bump:      obj.Bump,
	}
}

// Contains reports whether address is a member of the whitelist.
func (obj *WhitelistAccount) Contains(address ed25519.PublicKey) bool {
	for _, entry := range obj.Addresses {
		if bytes.Equal(entry, address) {
			return true
		}
	}
	return false
}

func (obj *WhitelistAccount) String() string {
	var vault string
	if obj.Vault != nil {
		vault = base58.Encode(obj.Vault)
	}

	addressesStr := "["
	for _, address := range obj.Addresses {
		addressesStr += "'" + base58.Encode(address) + "', "
	}
	addressesStr += "]"

	return "WhitelistAccount {" +
		"  addresses=" + addressesStr + "" +
		", vault='" + vault + "'" +
		", bump='" + strconv.Itoa(int(obj.Bump)) + "'" +
		"}"
}

func (obj *WhitelistAccount) Marshal() []byte {
	data := make([]byte, WhitelistAccountSize)

	var offset int

	putDiscriminator(data, whitelistAccountDiscriminator, &offset)

	putUint32(data, uint32(len(obj.Addresses)), &offset)
	for _, address := range obj.Addresses {
		putKey(data, address, &offset)
	}

	putKey(data, obj.Vault, &offset)
	putUint8(data, obj.Bump, &offset)

	// The account is allocated at full capacity; the tail beyond the
	// serialized fields stays zeroed.
	return data
}

func (obj *WhitelistAccount) Unmarshal(data []byte) error {
	if len(data) < 8+4+32+1 {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, whitelistAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	var count uint32
	getUint32(data, &count, &offset)
	if count > MaxWhitelistedAddresses || len(data) < 8+4+32*int(count)+32+1 {
		return ErrInvalidAccountData
	}

	obj.Addresses = make([]ed25519.PublicKey, count)
	for i := uint32(0); i < count; i++ {
		getKey(data, &obj.Addresses[i], &offset)
	}

	getKey(data, &obj.Vault, &offset)
	getUint8(data, &obj.Bump, &offset)

	return nil
}
