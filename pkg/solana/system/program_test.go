package system

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana"
)

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		keys[i] = pub
	}

	return keys
}

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := Transfer(keys[0], keys[1], 123456789)

	command := make([]byte, 4)
	binary.LittleEndian.PutUint32(command, commandTransfer)
	lamports := make([]byte, 8)
	binary.LittleEndian.PutUint64(lamports, 123456789)

	assert.Equal(t, command, instruction.Data[0:4])
	assert.Equal(t, lamports, instruction.Data[4:12])

	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)

	var tx solana.Transaction
	require.NoError(t, tx.Unmarshal(solana.NewTransaction(keys[0], instruction).Marshal()))

	decompiled, err := DecompileTransfer(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Source)
	assert.Equal(t, keys[1], decompiled.Destination)
	assert.EqualValues(t, 123456789, decompiled.Amount)
}

func TestDecompileNonTransfer(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := Transfer(keys[0], keys[1], 12345)

	instruction.Accounts = instruction.Accounts[:1]
	_, err := DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	binary.LittleEndian.PutUint32(instruction.Data, commandAssign)
	_, err = DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = make([]byte, 3)
	_, err = DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}
