package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// Error kinds shared by every manager. Callers match them with errors.Is.
var (
	// ErrInvalidParameter covers bad input and transitions requested from the wrong state
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnauthorized is returned for insufficient balance, wrong role, non-signers
	// and votes cast outside the voting window
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when trying to create something that already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotSupported is returned for operations that have no implementation yet
	ErrNotSupported = errors.New("not supported")

	// ErrBlockchain wraps failures reported by the balance oracle or the chain
	ErrBlockchain = errors.New("blockchain error")

	// ErrPersistence wraps failures reported by the storage layer
	ErrPersistence = errors.New("persistence error")
)

// InvalidParameter builds an ErrInvalidParameter with a formatted reason.
func InvalidParameter(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// Unauthorized builds an ErrUnauthorized with a formatted reason.
func Unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

// NotFound reports a missing entity of the given kind.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

// AlreadyExists builds an ErrAlreadyExists with a formatted reason.
func AlreadyExists(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAlreadyExists, fmt.Sprintf(format, args...))
}

// NotSupported builds an ErrNotSupported with a formatted reason.
func NotSupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotSupported, fmt.Sprintf(format, args...))
}

// BlockchainError wraps an oracle or RPC failure, keeping the cause.
func BlockchainError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBlockchain, op, err)
}

// PersistenceError wraps a storage failure, keeping the cause.
func PersistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// AmbiguousProposalErr is returned when a reference matches several proposals
// and no interactive selection is possible.
type AmbiguousProposalErr struct {
	Ref     string
	Matches []*models.Proposal
}

func (e AmbiguousProposalErr) Error() string {
	sorted := make([]*models.Proposal, len(e.Matches))
	copy(sorted, e.Matches)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var suggestions []string
	for _, p := range sorted {
		suggestions = append(suggestions, fmt.Sprintf("  - %s %q (%s)", p.ShortID(), p.Title, p.State))
	}

	return fmt.Sprintf("multiple proposals match %q - use a longer id prefix to disambiguate:\n%s",
		e.Ref, strings.Join(suggestions, "\n"))
}
