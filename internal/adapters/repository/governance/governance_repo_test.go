package governance

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/storage"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

const (
	alice = "0x2000000000000000000000000000000000000002"
	bob   = "0x3000000000000000000000000000000000000003"
	carol = "0x4000000000000000000000000000000000000004"
)

func newStore(t *testing.T) *storage.LevelDBBackend {
	t.Helper()
	st, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestProposalRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProposalRepository(newStore(t))
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// saved out of order, listed by creation time
	require.NoError(t, repo.SaveProposal(ctx, &models.Proposal{ID: "p2", Title: "second", Proposer: bob, State: models.ProposalStateVoting, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.SaveProposal(ctx, &models.Proposal{ID: "p1", Title: "first", Proposer: alice, State: models.ProposalStateDraft, CreatedAt: base}))

	all, err := repo.ListProposals(ctx, domain.ProposalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p1", all[0].ID)
	assert.Equal(t, "p2", all[1].ID)

	voting, err := repo.ListProposals(ctx, domain.ProposalFilter{State: models.ProposalStateVoting})
	require.NoError(t, err)
	require.Len(t, voting, 1)
	assert.Equal(t, "p2", voting[0].ID)

	_, err = repo.GetProposal(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	t.Run("update commits", func(t *testing.T) {
		updated, err := repo.UpdateProposal(ctx, "p1", func(p *models.Proposal) error {
			p.State = models.ProposalStateVoting
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, models.ProposalStateVoting, updated.State)

		got, err := repo.GetProposal(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.ProposalStateVoting, got.State)
	})

	t.Run("mutate error discards changes", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := repo.UpdateProposal(ctx, "p2", func(p *models.Proposal) error {
			p.Title = "changed"
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := repo.GetProposal(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, "second", got.Title)
	})

	t.Run("update of missing id", func(t *testing.T) {
		_, err := repo.UpdateProposal(ctx, "missing", func(*models.Proposal) error { return nil })
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDelegationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDelegationRepository(newStore(t))
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveDelegation(ctx, &models.Delegation{Delegator: alice, Delegate: carol, Amount: big.NewInt(100), CreatedAt: base}))
	require.NoError(t, repo.SaveDelegation(ctx, &models.Delegation{Delegator: bob, Delegate: carol, Amount: big.NewInt(50), CreatedAt: base.Add(time.Minute)}))
	// same pair replaces the earlier row
	require.NoError(t, repo.SaveDelegation(ctx, &models.Delegation{Delegator: alice, Delegate: carol, Amount: big.NewInt(70), CreatedAt: base.Add(2 * time.Minute)}))
	require.NoError(t, repo.SaveDelegation(ctx, &models.Delegation{Delegator: alice, Delegate: bob, Amount: big.NewInt(10), CreatedAt: base}))

	to, err := repo.ListDelegationsTo(ctx, carol)
	require.NoError(t, err)
	require.Len(t, to, 2)
	assert.Equal(t, bob, to[0].Delegator)
	assert.Equal(t, int64(70), to[1].Amount.Int64())

	from, err := repo.ListDelegationsFrom(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, from, 2)

	require.NoError(t, repo.DeleteDelegation(ctx, alice, carol))
	require.NoError(t, repo.DeleteDelegation(ctx, alice, carol))

	to, err = repo.ListDelegationsTo(ctx, carol)
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, bob, to[0].Delegator)
}
