package interactive

import (
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

func TestFormatProposalOptions(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	options := FormatProposalOptions([]*models.Proposal{{
		ID:      "0c9a4e1f-1111-2222-3333-444444444444",
		Title:   "Fund the grants round",
		State:   models.ProposalStateVoting,
		Payload: models.NewTextPayload(nil),
	}})
	require.Len(t, options, 1)
	assert.Equal(t, "0c9a4e1f [voting] Fund the grants round (text)", options[0])
}

func TestFuzzySearch(t *testing.T) {
	search := createFuzzySearchFunc([]string{"Fund the grants round", "Raise quorum"})

	assert.True(t, search("", 0))
	assert.True(t, search("grants", 0))
	assert.True(t, search("fgr", 0))
	assert.False(t, search("grants", 1))
}

func TestSelectorNonInteractive(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
	ctx := context.Background()

	_, err := s.SelectProposal(ctx, []*models.Proposal{{ID: "a"}, {ID: "b"}}, "pick")
	assert.Error(t, err)

	ok, err := s.Confirm(ctx, "sure?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSelectorSingleProposal(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{})
	only := &models.Proposal{ID: "only"}

	got, err := s.SelectProposal(context.Background(), []*models.Proposal{only}, "pick")
	require.NoError(t, err)
	assert.Same(t, only, got)
}
