package gasless_vault

import (
	"bytes"
	"crypto/ed25519"
	"strconv"

	"github.com/mr-tron/base58"
)

// MaxBorrowRecords is the number of distinct mints a borrower's ledger
// account is allocated to track.
const MaxBorrowRecords = 10

// BorrowRecord is the cumulative amount a borrower has drawn for one mint.
type BorrowRecord struct {
	Mint   ed25519.PublicKey
	Amount uint64
}

const BorrowRecordSize = (32 + // mint
	8) // amount

// The account allocates 64 bytes of space per record; the tail beyond the
// serialized fields stays zeroed.
const borrowRecordSpace = 64

// BorrowerAccount accumulates borrowed amounts per mint for one borrower.
// Created lazily on the borrower's first successful distribution.
type BorrowerAccount struct {
	Borrower        ed25519.PublicKey
	BorrowedAmounts []BorrowRecord
	Vault           ed25519.PublicKey
	Bump            uint8
}

const BorrowerAccountSize = (8 + // discriminator
	32 + // borrower
	4 + (borrowRecordSpace * MaxBorrowRecords) + // borrowed_amounts
	32 + // vault
	1) // bump

var borrowerAccountDiscriminator = accountDiscriminator("BorrowerAccount")

func (obj *BorrowerAccount) Clone() *BorrowerAccount {
	borrowedAmounts := make([]BorrowRecord, len(obj.BorrowedAmounts))
	for i, record := range obj.BorrowedAmounts {
		borrowedAmounts[i] = BorrowRecord{
			Mint:   append(ed25519.PublicKey{}, record.Mint...),
			Amount: record.Amount,
		}
	}

	return &BorrowerAccount{
		Borrower:        append(ed25519.PublicKey{}, obj.Borrower...),
		BorrowedAmounts: borrowedAmounts,
		Vault:           append(ed25519.PublicKey{}, obj.Vault...),
		Bump:            obj.Bump,
	}
}

// RecordFor returns the borrow record for mint, or nil if the borrower has
// never drawn that mint.
func (obj *BorrowerAccount) RecordFor(mint ed25519.PublicKey) *BorrowRecord {
	for i := range obj.BorrowedAmounts {
		if bytes.Equal(obj.BorrowedAmounts[i].Mint, mint) {
			return &obj.BorrowedAmounts[i]
		}
	}
	return nil
}

func (obj *BorrowerAccount) String() string {
	var borrower, vault string

	if obj.Borrower != nil {
		borrower = base58.Encode(obj.Borrower)
	}
	if obj.Vault != nil {
		vault = base58.Encode(obj.Vault)
	}

	borrowedAmountsStr := "["
	for _, record := range obj.BorrowedAmounts {
		borrowedAmountsStr += "{mint='" + base58.Encode(record.Mint) + "', amount='" + strconv.FormatUint(record.Amount, 10) + "'}, "
	}
	borrowedAmountsStr += "]"

	return "BorrowerAccount {" +
		"  borrower='" + borrower + "'" +
		", borrowed_amounts=" + borrowedAmountsStr + "" +
		", vault='" + vault + "'" +
		", bump='" + strconv.Itoa(int(obj.Bump)) + "'" +
		"}"
}

func (obj *BorrowerAccount) Marshal() []byte {
	data := make([]byte, BorrowerAccountSize)

	var offset int

	putDiscriminator(data, borrowerAccountDiscriminator, &offset)
	putKey(data, obj.Borrower, &offset)

	putUint32(data, uint32(len(obj.BorrowedAmounts)), &offset)
	for _, record := range obj.BorrowedAmounts {
		putKey(data, record.Mint, &offset)
		putUint64(data, record.Amount, &offset)
	}

	putKey(data, obj.Vault, &offset)
	putUint8(data, obj.Bump, &offset)

	// The account is allocated at full capacity; the tail beyond the
	// serialized fields stays zeroed.
	return data
}

func (obj *BorrowerAccount) Unmarshal(data []byte) error {
	if len(data) < 8+32+4+32+1 {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, borrowerAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Borrower, &offset)

	var count uint32
	getUint32(data, &count, &offset)
	if count > MaxBorrowRecords || len(data) < 8+32+4+BorrowRecordSize*int(count)+32+1 {
		return ErrInvalidAccountData
	}

	obj.BorrowedAmounts = make([]BorrowRecord, count)
	for i := uint32(0); i < count; i++ {
		getKey(data, &obj.BorrowedAmounts[i].Mint, &offset)
		getUint64(data, &obj.BorrowedAmounts[i].Amount, &offset)
	}

	getKey(data, &obj.Vault, &offset)
	getUint8(data, &obj.Bump, &offset)

	return nil
}
