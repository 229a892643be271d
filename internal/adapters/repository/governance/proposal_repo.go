package governance

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/storage"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const proposalPrefix = "proposal/"

// ProposalRepository stores proposals in LevelDB
type ProposalRepository struct {
	store *storage.LevelDBBackend
}

// NewProposalRepository creates a new LevelDB-backed proposal repository
func NewProposalRepository(store *storage.LevelDBBackend) *ProposalRepository {
	return &ProposalRepository{store: store}
}

func proposalKey(id string) string {
	return proposalPrefix + id
}

func getProposal(st *storage.LevelDBBackend, id string) (*models.Proposal, error) {
	var p models.Proposal
	if err := st.Get(proposalKey(id), &p); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, domain.NotFound("proposal", id)
		}
		return nil, err
	}
	return &p, nil
}

// GetProposal retrieves a proposal by id
func (r *ProposalRepository) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getProposal(r.store, id)
}

// ListProposals returns proposals matching filter, oldest first
func (r *ProposalRepository) ListProposals(ctx context.Context, filter domain.ProposalFilter) ([]*models.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*models.Proposal
	err := r.store.Walk(proposalPrefix, func(key string, value []byte) error {
		var p models.Proposal
		if err := json.Unmarshal(value, &p); err != nil {
			return domain.PersistenceError("decode "+key, err)
		}
		if filter.Matches(&p) {
			out = append(out, &p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SaveProposal inserts or replaces a proposal
func (r *ProposalRepository) SaveProposal(ctx context.Context, proposal *models.Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.Put(proposalKey(proposal.ID), proposal)
}

// UpdateProposal applies mutate inside a LevelDB transaction
func (r *ProposalRepository) UpdateProposal(ctx context.Context, id string, mutate func(*models.Proposal) error) (*models.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *models.Proposal
	err := r.store.Update(func(tx *storage.LevelDBBackend) error {
		p, err := getProposal(tx, id)
		if err != nil {
			return err
		}
		if err := mutate(p); err != nil {
			return err
		}
		if err := tx.Put(proposalKey(id), p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

var _ usecase.ProposalRepository = (*ProposalRepository)(nil)
