// Package ledger implements the token ledger on LevelDB. The governance token
// lives on chain, so its balances and transfers go through the balance oracle;
// every other token is tracked locally.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/storage"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const (
	tokenPrefix    = "token/"
	balancePrefix  = "balance/"
	transferPrefix = "transfer/"
)

// DefaultDecimals is used for tokens created without explicit decimals
const DefaultDecimals uint8 = 18

// Ledger tracks token balances
type Ledger struct {
	store      *storage.LevelDBBackend
	oracle     usecase.BalanceOracle
	clock      usecase.Clock
	governance models.Token
}

// NewLedger creates a new ledger. cfg.DAO names the governance token.
func NewLedger(cfg *config.RuntimeConfig, store *storage.LevelDBBackend, oracle usecase.BalanceOracle, clock usecase.Clock) *Ledger {
	return &Ledger{
		store:  store,
		oracle: oracle,
		clock:  clock,
		governance: models.Token{
			Symbol:   normalizeSymbol(cfg.DAO.TokenSymbol),
			Name:     cfg.DAO.Name + " governance token",
			Decimals: cfg.DAO.TokenDecimals,
		},
	}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (l *Ledger) isGovernance(symbol string) bool {
	return symbol == l.governance.Symbol
}

func tokenKey(symbol string) string            { return tokenPrefix + symbol }
func balanceKey(symbol, address string) string { return balancePrefix + symbol + "/" + address }

// TokenExists reports whether symbol is the governance token or a created token
func (l *Ledger) TokenExists(ctx context.Context, symbol string) (bool, error) {
	symbol = normalizeSymbol(symbol)
	if l.isGovernance(symbol) {
		return true, nil
	}
	return l.store.Has(tokenKey(symbol))
}

// GetToken returns the token definition. The governance token's supply is
// read from the chain.
func (l *Ledger) GetToken(ctx context.Context, symbol string) (*models.Token, error) {
	symbol = normalizeSymbol(symbol)
	if l.isGovernance(symbol) {
		token := l.governance
		supply, err := l.oracle.TotalSupply(ctx)
		switch {
		case errors.Is(err, domain.ErrNotSupported):
			// native currency has no readable supply
		case err != nil:
			return nil, domain.BlockchainError("total supply lookup", err)
		default:
			token.TotalSupply = supply
		}
		return &token, nil
	}

	var token models.Token
	if err := l.store.Get(tokenKey(symbol), &token); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, domain.NotFound("token", symbol)
		}
		return nil, err
	}
	return &token, nil
}

// ListTokens returns the governance token followed by created tokens by symbol
func (l *Ledger) ListTokens(ctx context.Context) ([]*models.Token, error) {
	gov, err := l.GetToken(ctx, l.governance.Symbol)
	if err != nil {
		return nil, err
	}

	var created []*models.Token
	err = l.store.Walk(tokenPrefix, func(key string, value []byte) error {
		var t models.Token
		if err := json.Unmarshal(value, &t); err != nil {
			return domain.PersistenceError("decode "+key, err)
		}
		created = append(created, &t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(created, func(i, j int) bool { return created[i].Symbol < created[j].Symbol })

	return append([]*models.Token{gov}, created...), nil
}

// GetBalance returns address's balance of symbol
func (l *Ledger) GetBalance(ctx context.Context, symbol, address string) (*big.Int, error) {
	symbol = normalizeSymbol(symbol)
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if l.isGovernance(symbol) {
		b, err := l.oracle.Balance(ctx, addr)
		if err != nil {
			return nil, domain.BlockchainError("balance lookup", err)
		}
		return b, nil
	}

	exists, err := l.store.Has(tokenKey(symbol))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound("token", symbol)
	}
	return readBalance(l.store, symbol, addr)
}

func readBalance(st *storage.LevelDBBackend, symbol, address string) (*big.Int, error) {
	b := new(big.Int)
	if err := st.Get(balanceKey(symbol, address), b); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return new(big.Int), nil
		}
		return nil, err
	}
	return b, nil
}

// Transfer moves amount of symbol from one address to another. Local tokens
// are debited, credited and recorded in one LevelDB transaction.
func (l *Ledger) Transfer(ctx context.Context, symbol, from, to string, amount *big.Int) (*models.TokenTransfer, error) {
	symbol = normalizeSymbol(symbol)
	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.InvalidParameter("transfer amount must be greater than zero")
	}
	fromAddr, err := domain.NormalizeAddress(from)
	if err != nil {
		return nil, err
	}
	toAddr, err := domain.NormalizeAddress(to)
	if err != nil {
		return nil, err
	}

	record := &models.TokenTransfer{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		From:      fromAddr,
		To:        toAddr,
		Amount:    new(big.Int).Set(amount),
		Timestamp: l.clock.Now(),
	}

	if l.isGovernance(symbol) {
		return l.transferOnChain(ctx, record)
	}

	record.TxHash = crypto.Keccak256Hash([]byte(record.ID)).Hex()
	err = l.store.Update(func(tx *storage.LevelDBBackend) error {
		exists, err := tx.Has(tokenKey(symbol))
		if err != nil {
			return err
		}
		if !exists {
			return domain.InvalidParameter("token %s does not exist", symbol)
		}

		fromBalance, err := readBalance(tx, symbol, fromAddr)
		if err != nil {
			return err
		}
		if fromBalance.Cmp(amount) < 0 {
			return domain.InvalidParameter("insufficient %s balance: have %s, need %s", symbol, fromBalance, amount)
		}
		if err := tx.Put(balanceKey(symbol, fromAddr), fromBalance.Sub(fromBalance, amount)); err != nil {
			return err
		}

		toBalance, err := readBalance(tx, symbol, toAddr)
		if err != nil {
			return err
		}
		if err := tx.Put(balanceKey(symbol, toAddr), toBalance.Add(toBalance, amount)); err != nil {
			return err
		}

		return tx.Put(transferKey(record), record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (l *Ledger) transferOnChain(ctx context.Context, record *models.TokenTransfer) (*models.TokenTransfer, error) {
	if sender := l.oracle.Sender(); !strings.EqualFold(sender, record.From) {
		return nil, domain.Unauthorized("%s transfers can only be sent from the signing account %s, not %s", record.Symbol, sender, record.From)
	}
	balance, err := l.oracle.Balance(ctx, record.From)
	if err != nil {
		return nil, domain.BlockchainError("balance lookup", err)
	}
	if balance.Cmp(record.Amount) < 0 {
		return nil, domain.InvalidParameter("insufficient %s balance: have %s, need %s", record.Symbol, balance, record.Amount)
	}

	receipt, err := l.oracle.SendTransaction(ctx, record.To, record.Amount)
	if err != nil {
		return nil, domain.BlockchainError("send transaction", err)
	}
	record.TxHash = receipt.TxHash

	if err := l.store.Put(transferKey(record), record); err != nil {
		return nil, fmt.Errorf("transfer %s sent but not recorded: %w", receipt.TxHash, err)
	}
	return record, nil
}

func transferKey(t *models.TokenTransfer) string {
	// fixed-width timestamps keep one token's records in time order
	return transferPrefix + t.Symbol + "/" + t.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z") + "/" + t.ID
}

// Transfers returns the recorded transfers of symbol, oldest first
func (l *Ledger) Transfers(ctx context.Context, symbol string) ([]*models.TokenTransfer, error) {
	symbol = normalizeSymbol(symbol)
	var out []*models.TokenTransfer
	err := l.store.Walk(transferPrefix+symbol+"/", func(key string, value []byte) error {
		var t models.TokenTransfer
		if err := json.Unmarshal(value, &t); err != nil {
			return domain.PersistenceError("decode "+key, err)
		}
		out = append(out, &t)
		return nil
	})
	return out, err
}

// CreateToken registers a new local token with zero supply
func (l *Ledger) CreateToken(ctx context.Context, token *models.Token) error {
	symbol := normalizeSymbol(token.Symbol)
	if symbol == "" {
		return domain.InvalidParameter("token symbol must not be empty")
	}
	if strings.TrimSpace(token.Name) == "" {
		return domain.InvalidParameter("token name must not be empty")
	}
	if l.isGovernance(symbol) {
		return domain.AlreadyExists("token %s is the governance token", symbol)
	}

	stored := *token
	stored.Symbol = symbol
	stored.TotalSupply = new(big.Int)
	if stored.Decimals == 0 {
		stored.Decimals = DefaultDecimals
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = l.clock.Now()
	}

	if err := l.store.New(tokenKey(symbol), &stored); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.AlreadyExists("token %s", symbol)
		}
		return err
	}
	*token = stored
	return nil
}

// Mint credits amount of a local token to address and grows its supply
func (l *Ledger) Mint(ctx context.Context, symbol, to string, amount *big.Int) error {
	return l.adjustSupply(symbol, to, amount, 1)
}

// Burn debits amount of a local token from address and shrinks its supply
func (l *Ledger) Burn(ctx context.Context, symbol, from string, amount *big.Int) error {
	return l.adjustSupply(symbol, from, amount, -1)
}

func (l *Ledger) adjustSupply(symbol, address string, amount *big.Int, sign int) error {
	symbol = normalizeSymbol(symbol)
	if amount == nil || amount.Sign() <= 0 {
		return domain.InvalidParameter("amount must be greater than zero")
	}
	if l.isGovernance(symbol) {
		return domain.NotSupported("the governance token supply is managed on chain")
	}
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return err
	}

	return l.store.Update(func(tx *storage.LevelDBBackend) error {
		var token models.Token
		if err := tx.Get(tokenKey(symbol), &token); err != nil {
			if errors.Is(err, storage.ErrRecordNotFound) {
				return domain.NotFound("token", symbol)
			}
			return err
		}
		balance, err := readBalance(tx, symbol, addr)
		if err != nil {
			return err
		}
		if token.TotalSupply == nil {
			token.TotalSupply = new(big.Int)
		}

		if sign > 0 {
			balance.Add(balance, amount)
			token.TotalSupply.Add(token.TotalSupply, amount)
		} else {
			if balance.Cmp(amount) < 0 {
				return domain.InvalidParameter("insufficient %s balance to burn: have %s, need %s", symbol, balance, amount)
			}
			balance.Sub(balance, amount)
			token.TotalSupply.Sub(token.TotalSupply, amount)
		}

		if err := tx.Put(balanceKey(symbol, addr), balance); err != nil {
			return err
		}
		return tx.Put(tokenKey(symbol), &token)
	})
}

var _ usecase.TokenLedger = (*Ledger)(nil)
