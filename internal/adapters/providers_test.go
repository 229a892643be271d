package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/blockchain"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/storage"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
)

func TestVerifyTreasurySender(t *testing.T) {
	st, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	const signing = "0x1000000000000000000000000000000000000001"
	chain, err := blockchain.NewLocalChain(st, signing)
	require.NoError(t, err)

	t.Run("matching key", func(t *testing.T) {
		cfg := &config.RuntimeConfig{Treasury: config.TreasuryConfig{Address: signing}}
		assert.NoError(t, verifyTreasurySender(cfg, chain))
	})

	t.Run("key for another account", func(t *testing.T) {
		cfg := &config.RuntimeConfig{Treasury: config.TreasuryConfig{Address: "0x2000000000000000000000000000000000000002"}}
		assert.ErrorIs(t, verifyTreasurySender(cfg, chain), domain.ErrInvalidParameter)
	})
}
