package blockchain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
)

func TestParseSignature(t *testing.T) {
	name, types, err := ParseSignature("transfer(address, uint256)")
	require.NoError(t, err)
	assert.Equal(t, "transfer", name)
	assert.Equal(t, []string{"address", "uint256"}, types)

	name, types, err = ParseSignature("pause()")
	require.NoError(t, err)
	assert.Equal(t, "pause", name)
	assert.Empty(t, types)

	for _, bad := range []string{"", "pause", "(uint256)", "pause(uint256"} {
		_, _, err := ParseSignature(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter, bad)
	}
}

func TestEncodeCall(t *testing.T) {
	to := "0x2222222222222222222222222222222222222222"

	data, err := EncodeCall("transfer(address,uint256)", []string{to, "100"})
	require.NoError(t, err)
	require.Len(t, data, 4+64)
	assert.Equal(t, "a9059cbb", common.Bytes2Hex(data[:4]))
	assert.Equal(t, common.LeftPadBytes(common.HexToAddress(to).Bytes(), 32), data[4:36])
	assert.Equal(t, byte(100), data[67])

	t.Run("small integer types", func(t *testing.T) {
		data, err := EncodeCall("setFee(uint8,bool)", []string{"7", "true"})
		require.NoError(t, err)
		assert.Equal(t, byte(7), data[35])
		assert.Equal(t, byte(1), data[67])
	})

	t.Run("argument count mismatch", func(t *testing.T) {
		_, err := EncodeCall("transfer(address,uint256)", []string{to})
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := EncodeCall("setFee(uint8)", []string{"256"})
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})

	t.Run("bad address", func(t *testing.T) {
		_, err := EncodeCall("setOwner(address)", []string{"0x1234"})
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
}
