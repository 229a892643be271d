package models

import (
	"math/big"
	"time"
)

// ProposalState represents the lifecycle state of a proposal
type ProposalState string

const (
	ProposalStateDraft     ProposalState = "draft"
	ProposalStateVoting    ProposalState = "voting"
	ProposalStateApproved  ProposalState = "approved"
	ProposalStateRejected  ProposalState = "rejected"
	ProposalStateExecuting ProposalState = "executing" // claimed while the external effect runs
	ProposalStateExecuted  ProposalState = "executed"
	ProposalStateCancelled ProposalState = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s ProposalState) IsTerminal() bool {
	switch s {
	case ProposalStateRejected, ProposalStateExecuted, ProposalStateCancelled:
		return true
	}
	return false
}

// ProposalKind identifies which payload variant a proposal carries
type ProposalKind string

const (
	ProposalKindTransfer        ProposalKind = "transfer"
	ProposalKindContractCall    ProposalKind = "contract_call"
	ProposalKindParameterChange ProposalKind = "parameter_change"
	ProposalKindText            ProposalKind = "text"
)

// ProposalPayload is a tagged union; exactly the field matching Kind is set.
type ProposalPayload struct {
	Kind            ProposalKind            `json:"kind"`
	Transfer        *TransferPayload        `json:"transfer,omitempty"`
	ContractCall    *ContractCallPayload    `json:"contractCall,omitempty"`
	ParameterChange *ParameterChangePayload `json:"parameterChange,omitempty"`
	Text            *TextPayload            `json:"text,omitempty"`
}

// TransferPayload moves Amount of Token from the treasury to To
type TransferPayload struct {
	To     string   `json:"to"`
	Amount *big.Int `json:"amount"`
	Token  string   `json:"token"`
}

// ContractCallPayload invokes Function (a signature such as "setFee(uint256)") on Target
type ContractCallPayload struct {
	Target   string   `json:"target"`
	Function string   `json:"function"`
	Args     []string `json:"args,omitempty"`
}

// ParameterChangePayload sets a governance parameter
type ParameterChangePayload struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// TextPayload carries no executable effect
type TextPayload struct {
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewTransferPayload builds a transfer payload.
func NewTransferPayload(to string, amount *big.Int, token string) ProposalPayload {
	return ProposalPayload{Kind: ProposalKindTransfer, Transfer: &TransferPayload{To: to, Amount: amount, Token: token}}
}

// NewContractCallPayload builds a contract call payload.
func NewContractCallPayload(target, function string, args []string) ProposalPayload {
	return ProposalPayload{Kind: ProposalKindContractCall, ContractCall: &ContractCallPayload{Target: target, Function: function, Args: args}}
}

// NewParameterChangePayload builds a parameter change payload.
func NewParameterChangePayload(name string, value any) ProposalPayload {
	return ProposalPayload{Kind: ProposalKindParameterChange, ParameterChange: &ParameterChangePayload{Name: name, Value: value}}
}

// NewTextPayload builds a text-only payload.
func NewTextPayload(metadata map[string]any) ProposalPayload {
	return ProposalPayload{Kind: ProposalKindText, Text: &TextPayload{Metadata: metadata}}
}

// Proposal is a request for collective action and its voting record
type Proposal struct {
	// Identification
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Proposer    string          `json:"proposer"`
	Payload     ProposalPayload `json:"payload"`
	State       ProposalState   `json:"state"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Voting window, set by StartVoting
	VotingStartsAt *time.Time `json:"votingStartsAt,omitempty"`
	VotingEndsAt   *time.Time `json:"votingEndsAt,omitempty"`

	// Execution details (when executed)
	ExecutedAt    *time.Time `json:"executedAt,omitempty"`
	ExecutionHash string     `json:"executionHash,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`

	// Running weighted tallies
	YesVotes     *big.Int `json:"yesVotes"`
	NoVotes      *big.Int `json:"noVotes"`
	AbstainVotes *big.Int `json:"abstainVotes"`

	Votes []Vote `json:"votes"`
}

// ShortID returns the first eight characters of the id for display.
func (p *Proposal) ShortID() string {
	if len(p.ID) > 8 {
		return p.ID[:8]
	}
	return p.ID
}

// TotalVotes returns yes + no + abstain.
func (p *Proposal) TotalVotes() *big.Int {
	total := new(big.Int)
	for _, v := range []*big.Int{p.YesVotes, p.NoVotes, p.AbstainVotes} {
		if v != nil {
			total.Add(total, v)
		}
	}
	return total
}

// HasVoted reports whether voter already has a recorded vote.
// Voter addresses are stored checksummed, so exact comparison is enough.
func (p *Proposal) HasVoted(voter string) bool {
	for _, v := range p.Votes {
		if v.Voter == voter {
			return true
		}
	}
	return false
}

// RecordVote appends the vote and adds its weight to the matching tally.
func (p *Proposal) RecordVote(v Vote) {
	p.Votes = append(p.Votes, v)
	switch v.Choice {
	case VoteYes:
		p.YesVotes = addInto(p.YesVotes, v.Weight)
	case VoteNo:
		p.NoVotes = addInto(p.NoVotes, v.Weight)
	case VoteAbstain:
		p.AbstainVotes = addInto(p.AbstainVotes, v.Weight)
	}
}

// VotingOpen reports whether at falls inside [VotingStartsAt, VotingEndsAt].
func (p *Proposal) VotingOpen(at time.Time) bool {
	if p.VotingStartsAt == nil || p.VotingEndsAt == nil {
		return false
	}
	return !at.Before(*p.VotingStartsAt) && !at.After(*p.VotingEndsAt)
}

// VotingEnded reports whether the voting window closed before at.
func (p *Proposal) VotingEnded(at time.Time) bool {
	return p.VotingEndsAt != nil && at.After(*p.VotingEndsAt)
}

func addInto(total, w *big.Int) *big.Int {
	if total == nil {
		total = new(big.Int)
	}
	return total.Add(total, w)
}
