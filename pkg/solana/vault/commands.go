package gasless_vault

import "bytes"

type Command uint8

const (
	CommandUnknown Command = iota
	CommandInitialize
	CommandAddToWhitelist
	CommandRemoveFromWhitelist
	CommandAddToken
	CommandDepositTokens
	CommandBorrowAndDistribute
)

// GetCommand resolves the instruction discriminator to one of the program's
// six instructions.
func GetCommand(data []byte) (Command, error) {
	if len(data) < 8 {
		return CommandUnknown, ErrInvalidInstructionData
	}

	for command, discriminator := range map[Command][]byte{
		CommandInitialize:          initializeInstructionDiscriminator,
		CommandAddToWhitelist:      addToWhitelistInstructionDiscriminator,
		CommandRemoveFromWhitelist: removeFromWhitelistInstructionDiscriminator,
		CommandAddToken:            addTokenInstructionDiscriminator,
		CommandDepositTokens:       depositTokensInstructionDiscriminator,
		CommandBorrowAndDistribute: borrowAndDistributeInstructionDiscriminator,
	} {
		if bytes.Equal(data[:8], discriminator) {
			return command, nil
		}
	}

	return CommandUnknown, ErrInvalidInstructionData
}
