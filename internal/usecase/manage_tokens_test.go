package usecase_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

func TestManageTokens(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.tokens.Create(env.ctx, usecase.CreateTokenParams{
		Symbol:        "grt",
		Name:          "Grant Token",
		Decimals:      6,
		InitialSupply: big.NewInt(1000),
		Holder:        alice,
	})
	require.NoError(t, err)
	assert.Equal(t, "GRT", token.Symbol)
	assert.Equal(t, uint8(6), token.Decimals)
	assert.Equal(t, int64(1000), token.TotalSupply.Int64())
	assert.Equal(t, int64(1000), env.balance(t, "GRT", alice))

	t.Run("duplicate symbol", func(t *testing.T) {
		_, err := env.tokens.Create(env.ctx, usecase.CreateTokenParams{Symbol: "GRT", Name: "Again"})
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("governance symbol is taken", func(t *testing.T) {
		_, err := env.tokens.Create(env.ctx, usecase.CreateTokenParams{Symbol: "atom", Name: "Shadow"})
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("mint and burn", func(t *testing.T) {
		token, err := env.tokens.Mint(env.ctx, "GRT", bob, big.NewInt(50))
		require.NoError(t, err)
		assert.Equal(t, int64(1050), token.TotalSupply.Int64())

		token, err = env.tokens.Burn(env.ctx, "GRT", alice, big.NewInt(200))
		require.NoError(t, err)
		assert.Equal(t, int64(850), token.TotalSupply.Int64())

		_, err = env.tokens.Burn(env.ctx, "GRT", bob, big.NewInt(51))
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})

	t.Run("governance supply is managed on chain", func(t *testing.T) {
		_, err := env.tokens.Mint(env.ctx, "ATOM", bob, big.NewInt(1))
		assert.ErrorIs(t, err, domain.ErrNotSupported)
	})

	t.Run("transfer", func(t *testing.T) {
		tr, err := env.tokens.Transfer(env.ctx, "grt", alice, carol, big.NewInt(300))
		require.NoError(t, err)
		assert.Equal(t, "GRT", tr.Symbol)
		assert.NotEmpty(t, tr.TxHash)
		assert.Equal(t, int64(500), env.balance(t, "GRT", alice))
		assert.Equal(t, int64(300), env.balance(t, "GRT", carol))

		_, err = env.tokens.Transfer(env.ctx, "GRT", carol, alice, big.NewInt(301))
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		assert.Equal(t, int64(300), env.balance(t, "GRT", carol))
	})

	t.Run("list", func(t *testing.T) {
		tokens, err := env.tokens.List(env.ctx)
		require.NoError(t, err)
		require.Len(t, tokens, 2)
		assert.Equal(t, "ATOM", tokens[0].Symbol)
		assert.Equal(t, "GRT", tokens[1].Symbol)
	})

	t.Run("unknown token balance", func(t *testing.T) {
		_, err := env.tokens.Balance(env.ctx, "ZZZ", alice)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCreateTokenDefaultsHolderToTreasury(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.tokens.Create(env.ctx, usecase.CreateTokenParams{
		Symbol:        "OPS",
		Name:          "Ops Credit",
		InitialSupply: big.NewInt(75),
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(18), token.Decimals)
	assert.Equal(t, int64(75), env.balance(t, "OPS", treasuryAddr))
}
