package blockchain

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/storage"
)

const (
	treasury = "0x1000000000000000000000000000000000000001"
	alice    = "0x2000000000000000000000000000000000000002"
)

func newLocalChain(t *testing.T) *LocalChain {
	t.Helper()
	st, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	chain, err := NewLocalChain(st, treasury)
	require.NoError(t, err)
	return chain
}

func TestLocalChainFundAndSend(t *testing.T) {
	ctx := context.Background()
	chain := newLocalChain(t)

	require.NoError(t, chain.Fund(ctx, treasury, big.NewInt(1000)))

	supply, err := chain.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), supply.Int64())

	receipt, err := chain.SendTransaction(ctx, alice, big.NewInt(250))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.BlockNumber)
	assert.NotEmpty(t, receipt.TxHash)

	b, err := chain.Balance(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(250), b.Int64())

	b, err = chain.Balance(ctx, treasury)
	require.NoError(t, err)
	assert.Equal(t, int64(750), b.Int64())

	_, err = chain.SendTransaction(ctx, alice, big.NewInt(751))
	assert.Error(t, err)

	supply, err = chain.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), supply.Int64())
}

func TestLocalChainCallContract(t *testing.T) {
	ctx := context.Background()
	chain := newLocalChain(t)

	receipt, err := chain.CallContract(ctx, alice, "setFee(uint256)", []string{"42"})
	require.NoError(t, err)

	call, err := chain.Call(ctx, receipt.TxHash)
	require.NoError(t, err)
	assert.Equal(t, "setFee(uint256)", call.Function)
	assert.Equal(t, []string{"42"}, call.Args)
	assert.Equal(t, receipt.BlockNumber, call.BlockNumber)

	_, err = chain.CallContract(ctx, alice, "setFee(uint256)", []string{"abc"})
	assert.Error(t, err)
}

func TestNewLocalChainRejectsBadSender(t *testing.T) {
	st, err := storage.NewMemory()
	require.NoError(t, err)
	defer st.Close()

	_, err = NewLocalChain(st, "not-an-address")
	assert.Error(t, err)
}
