package governance

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/storage"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// delegations are keyed delegation/<delegate>/<delegator> so that the
// power delegated to one address is a single prefix scan
const delegationPrefix = "delegation/"

// DelegationRepository stores delegations in LevelDB
type DelegationRepository struct {
	store *storage.LevelDBBackend
}

// NewDelegationRepository creates a new LevelDB-backed delegation repository
func NewDelegationRepository(store *storage.LevelDBBackend) *DelegationRepository {
	return &DelegationRepository{store: store}
}

func delegationKey(delegate, delegator string) string {
	return delegationPrefix + delegate + "/" + delegator
}

// SaveDelegation inserts or replaces the delegation for its pair
func (r *DelegationRepository) SaveDelegation(ctx context.Context, d *models.Delegation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.Put(delegationKey(d.Delegate, d.Delegator), d)
}

// DeleteDelegation removes the delegation for the pair; absent rows are ignored
func (r *DelegationRepository) DeleteDelegation(ctx context.Context, delegator, delegate string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// LevelDB deletes of missing keys succeed
	return r.store.Remove(delegationKey(delegate, delegator))
}

// ListDelegationsTo returns every delegation pointing at delegate
func (r *DelegationRepository) ListDelegationsTo(ctx context.Context, delegate string) ([]*models.Delegation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.walk(delegationPrefix+delegate+"/", func(*models.Delegation) bool { return true })
}

// ListDelegationsFrom returns every delegation made by delegator
func (r *DelegationRepository) ListDelegationsFrom(ctx context.Context, delegator string) ([]*models.Delegation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.walk(delegationPrefix, func(d *models.Delegation) bool { return d.Delegator == delegator })
}

func (r *DelegationRepository) walk(prefix string, keep func(*models.Delegation) bool) ([]*models.Delegation, error) {
	var out []*models.Delegation
	err := r.store.Walk(prefix, func(key string, value []byte) error {
		var d models.Delegation
		if err := json.Unmarshal(value, &d); err != nil {
			return domain.PersistenceError("decode "+key, err)
		}
		if keep(&d) {
			out = append(out, &d)
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

var _ usecase.DelegationRepository = (*DelegationRepository)(nil)
