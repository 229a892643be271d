package treasury

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

const transactionPrefix = "treasury-tx/"

// TransactionRepository stores treasury transactions in LevelDB
type TransactionRepository struct {
	store *storage.LevelDBBackend
}

// NewTransactionRepository creates a new LevelDB-backed transaction repository
func NewTransactionRepository(store *storage.LevelDBBackend) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func transactionKey(id string) string {
	return transactionPrefix + id
}

func getTransaction(st *storage.LevelDBBackend, id string) (*models.TreasuryTransaction, error) {
	var tx models.TreasuryTransaction
	if err := st.Get(transactionKey(id), &tx); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, domain.NotFound("transaction", id)
		}
		return nil, err
	}
	return &tx, nil
}

// GetTransaction retrieves a transaction by id
func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (*models.TreasuryTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getTransaction(r.store, id)
}

// ListTransactions returns transactions matching filter, oldest first
func (r *TransactionRepository) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*models.TreasuryTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*models.TreasuryTransaction
	err := r.store.Walk(transactionPrefix, func(key string, value []byte) error {
		var tx models.TreasuryTransaction
		if err := json.Unmarshal(value, &tx); err != nil {
			return domain.PersistenceError("decode "+key, err)
		}
		if filter.Matches(&tx) {
			out = append(out, &tx)
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

// SaveTransaction inserts or replaces a transaction
func (r *TransactionRepository) SaveTransaction(ctx context.Context, tx *models.TreasuryTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.Put(transactionKey(tx.ID), tx)
}

// UpdateTransaction applies mutate inside a LevelDB transaction
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, id string, mutate func(*models.TreasuryTransaction) error) (*models.TreasuryTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *models.TreasuryTransaction
	err := r.store.Update(func(st *storage.LevelDBBackend) error {
		tx, err := getTransaction(st, id)
		if err != nil {
			return err
		}
		if err := mutate(tx); err != nil {
			return err
		}
		if err := st.Put(transactionKey(id), tx); err != nil {
			return err
		}
		updated = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

var _ usecase.TransactionRepository = (*TransactionRepository)(nil)
