package resolvers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// ProposalResolver turns a user-supplied reference into a proposal
type ProposalResolver struct {
	config   *config.RuntimeConfig
	repo     usecase.ProposalRepository
	selector usecase.InteractiveSelector
}

// NewProposalResolver creates a new proposal resolver
func NewProposalResolver(
	cfg *config.RuntimeConfig,
	repo usecase.ProposalRepository,
	selector usecase.InteractiveSelector,
) *ProposalResolver {
	return &ProposalResolver{
		config:   cfg,
		repo:     repo,
		selector: selector,
	}
}

// ResolveProposal resolves ref as an exact id, an id prefix or a fuzzy title
// match, in that order.
func (r *ProposalResolver) ResolveProposal(ctx context.Context, ref string) (*models.Proposal, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.InvalidParameter("proposal reference must not be empty")
	}

	matches, err := r.findProposals(ctx, ref)
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, domain.NotFound("proposal", ref)
	case 1:
		return matches[0], nil
	}

	// Multiple matches - use interactive selector if available
	if r.selector != nil && !r.config.NonInteractive {
		selected, err := r.selector.SelectProposal(ctx, matches, fmt.Sprintf("Multiple proposals match '%s'. Select one:", ref))
		if err != nil {
			return nil, fmt.Errorf("proposal selection failed: %w", err)
		}
		return selected, nil
	}

	return nil, domain.AmbiguousProposalErr{Ref: ref, Matches: matches}
}

func (r *ProposalResolver) findProposals(ctx context.Context, ref string) ([]*models.Proposal, error) {
	// 1. Exact id
	p, err := r.repo.GetProposal(ctx, ref)
	if err == nil {
		return []*models.Proposal{p}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	all, err := r.repo.ListProposals(ctx, domain.ProposalFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	// 2. Id prefix
	var byPrefix []*models.Proposal
	lower := strings.ToLower(ref)
	for _, p := range all {
		if strings.HasPrefix(strings.ToLower(p.ID), lower) {
			byPrefix = append(byPrefix, p)
		}
	}
	if len(byPrefix) > 0 {
		return byPrefix, nil
	}

	// 3. Title, exact (case-insensitive) before fuzzy
	var byTitle []*models.Proposal
	for _, p := range all {
		if strings.EqualFold(p.Title, ref) {
			byTitle = append(byTitle, p)
		}
	}
	if len(byTitle) > 0 {
		return byTitle, nil
	}

	titles := make([]string, len(all))
	for i, p := range all {
		titles[i] = p.Title
	}
	var byFuzzy []*models.Proposal
	for _, m := range fuzzy.Find(ref, titles) {
		byFuzzy = append(byFuzzy, all[m.Index])
	}
	return byFuzzy, nil
}
