package domain

import (
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// ProposalFilter defines filtering options for proposals
type ProposalFilter struct {
	State    models.ProposalState
	Proposer string
	Kind     models.ProposalKind
}

// Matches reports whether p satisfies every non-empty field of the filter.
func (f ProposalFilter) Matches(p *models.Proposal) bool {
	if f.State != "" && p.State != f.State {
		return false
	}
	if f.Proposer != "" && !SameAddress(f.Proposer, p.Proposer) {
		return false
	}
	if f.Kind != "" && p.Payload.Kind != f.Kind {
		return false
	}
	return true
}

// TransactionFilter defines filtering options for treasury transactions
type TransactionFilter struct {
	Status models.TransactionStatus
	Token  string
	To     string
}

// Matches reports whether tx satisfies every non-empty field of the filter.
func (f TransactionFilter) Matches(tx *models.TreasuryTransaction) bool {
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if f.Token != "" && tx.Token != f.Token {
		return false
	}
	if f.To != "" && !SameAddress(f.To, tx.To) {
		return false
	}
	return true
}
