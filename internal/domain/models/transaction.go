package models

import (
	"math/big"
	"time"
)

// TransactionStatus represents the status of a treasury transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusApproved  TransactionStatus = "approved"
	TransactionStatusExecuting TransactionStatus = "executing"
	TransactionStatusExecuted  TransactionStatus = "executed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRejected  TransactionStatus = "rejected"
)

// IsTerminal reports whether no further transition is possible.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusExecuted, TransactionStatusFailed, TransactionStatusRejected:
		return true
	}
	return false
}

// TreasuryTransaction is a multi-approval request to move treasury funds
type TreasuryTransaction struct {
	// Identification
	ID          string            `json:"id"`
	Description string            `json:"description"`
	To          string            `json:"to"`
	Token       string            `json:"token"`
	Amount      *big.Int          `json:"amount"`
	Status      TransactionStatus `json:"status"`

	// Approval details
	RequiredApprovals int        `json:"requiredApprovals"`
	Approvals         []Approval `json:"approvals"`
	RejectedBy        string     `json:"rejectedBy,omitempty"`
	CreatedBy         string     `json:"createdBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Execution details
	ExecutedAt    *time.Time        `json:"executedAt,omitempty"`
	ExecutionHash string            `json:"executionHash,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Approval represents one signer's approval of a treasury transaction
type Approval struct {
	Signer     string    `json:"signer"`
	ApprovedAt time.Time `json:"approvedAt"`
}

// CurrentApprovals returns the number of distinct approvals recorded.
func (tx *TreasuryTransaction) CurrentApprovals() int {
	return len(tx.Approvals)
}

// HasApproved reports whether signer already approved.
func (tx *TreasuryTransaction) HasApproved(signer string) bool {
	for _, a := range tx.Approvals {
		if a.Signer == signer {
			return true
		}
	}
	return false
}

// ThresholdReached reports whether enough approvals were collected.
func (tx *TreasuryTransaction) ThresholdReached() bool {
	return tx.CurrentApprovals() >= tx.RequiredApprovals
}

// ShortID returns the first eight characters of the id for display.
func (tx *TreasuryTransaction) ShortID() string {
	if len(tx.ID) > 8 {
		return tx.ID[:8]
	}
	return tx.ID
}
