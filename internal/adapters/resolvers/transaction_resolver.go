package resolvers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// TransactionResolver resolves treasury transaction references
type TransactionResolver struct {
	repo usecase.TransactionRepository
}

// NewTransactionResolver creates a new transaction resolver
func NewTransactionResolver(repo usecase.TransactionRepository) *TransactionResolver {
	return &TransactionResolver{repo: repo}
}

// ResolveTransaction accepts a full id or a unique id prefix
func (r *TransactionResolver) ResolveTransaction(ctx context.Context, ref string) (*models.TreasuryTransaction, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.InvalidParameter("transaction reference must not be empty")
	}

	tx, err := r.repo.GetTransaction(ctx, ref)
	if err == nil {
		return tx, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	all, err := r.repo.ListTransactions(ctx, domain.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var matches []*models.TreasuryTransaction
	lower := strings.ToLower(ref)
	for _, tx := range all {
		if strings.HasPrefix(strings.ToLower(tx.ID), lower) {
			matches = append(matches, tx)
		}
	}

	switch len(matches) {
	case 0:
		return nil, domain.NotFound("transaction", ref)
	case 1:
		return matches[0], nil
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ShortID()
	}
	return nil, domain.InvalidParameter("transaction reference %q is ambiguous: %s", ref, strings.Join(ids, ", "))
}
