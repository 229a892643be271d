package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/storage"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const (
	chainBalancePrefix = "chain/balance/"
	chainSupplyKey     = "chain/supply"
	chainHeightKey     = "chain/height"
	chainCallPrefix    = "chain/call/"
)

// ContractCall is a call recorded by the local chain
type ContractCall struct {
	Target      string   `json:"target"`
	Function    string   `json:"function"`
	Args        []string `json:"args"`
	Calldata    string   `json:"calldata"`
	BlockNumber uint64   `json:"blockNumber"`
}

// LocalChain is a single-account development chain kept in LevelDB. Every
// block holds exactly one transaction sent by sender.
type LocalChain struct {
	store  *storage.LevelDBBackend
	sender string
}

// NewLocalChain creates a local chain whose signing account is sender
func NewLocalChain(store *storage.LevelDBBackend, sender string) (*LocalChain, error) {
	addr, err := domain.NormalizeAddress(sender)
	if err != nil {
		return nil, fmt.Errorf("invalid local chain sender: %w", err)
	}
	return &LocalChain{store: store, sender: addr}, nil
}

// Sender returns the account transactions are sent from
func (c *LocalChain) Sender() string {
	return c.sender
}

func readAmount(st *storage.LevelDBBackend, key string) (*big.Int, error) {
	v := new(big.Int)
	if err := st.Get(key, v); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return new(big.Int), nil
		}
		return nil, err
	}
	return v, nil
}

// Balance returns the governance token balance of address
func (c *LocalChain) Balance(ctx context.Context, address string) (*big.Int, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return readAmount(c.store, chainBalancePrefix+addr)
}

// TotalSupply returns the sum of all funded amounts
func (c *LocalChain) TotalSupply(ctx context.Context) (*big.Int, error) {
	return readAmount(c.store, chainSupplyKey)
}

func (c *LocalChain) IsValidAddress(address string) bool {
	return domain.IsValidAddress(address)
}

// Fund mints amount to address, growing the total supply
func (c *LocalChain) Fund(ctx context.Context, address string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.InvalidParameter("amount must be greater than zero")
	}
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return err
	}

	return c.store.Update(func(tx *storage.LevelDBBackend) error {
		balance, err := readAmount(tx, chainBalancePrefix+addr)
		if err != nil {
			return err
		}
		supply, err := readAmount(tx, chainSupplyKey)
		if err != nil {
			return err
		}
		if err := tx.Put(chainBalancePrefix+addr, balance.Add(balance, amount)); err != nil {
			return err
		}
		return tx.Put(chainSupplyKey, supply.Add(supply, amount))
	})
}

// SendTransaction moves amount from the sender to to
func (c *LocalChain) SendTransaction(ctx context.Context, to string, amount *big.Int) (*models.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.InvalidParameter("amount must be greater than zero")
	}
	recipient, err := domain.NormalizeAddress(to)
	if err != nil {
		return nil, err
	}

	var receipt *models.Receipt
	err = c.store.Update(func(tx *storage.LevelDBBackend) error {
		fromBalance, err := readAmount(tx, chainBalancePrefix+c.sender)
		if err != nil {
			return err
		}
		if fromBalance.Cmp(amount) < 0 {
			return fmt.Errorf("insufficient funds: have %s, need %s", fromBalance, amount)
		}
		if err := tx.Put(chainBalancePrefix+c.sender, fromBalance.Sub(fromBalance, amount)); err != nil {
			return err
		}
		toBalance, err := readAmount(tx, chainBalancePrefix+recipient)
		if err != nil {
			return err
		}
		if err := tx.Put(chainBalancePrefix+recipient, toBalance.Add(toBalance, amount)); err != nil {
			return err
		}

		height, err := nextBlock(tx)
		if err != nil {
			return err
		}
		receipt = &models.Receipt{
			TxHash:      txHash(height, c.sender, recipient, amount.String()),
			BlockNumber: height,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// CallContract encodes the call and records it. No code is executed.
func (c *LocalChain) CallContract(ctx context.Context, address, function string, args []string) (*models.Receipt, error) {
	target, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	data, err := EncodeCall(function, args)
	if err != nil {
		return nil, err
	}

	var receipt *models.Receipt
	err = c.store.Update(func(tx *storage.LevelDBBackend) error {
		height, err := nextBlock(tx)
		if err != nil {
			return err
		}
		receipt = &models.Receipt{
			TxHash:      txHash(height, c.sender, target, common.Bytes2Hex(data)),
			BlockNumber: height,
		}
		return tx.Put(chainCallPrefix+receipt.TxHash, &ContractCall{
			Target:      target,
			Function:    function,
			Args:        args,
			Calldata:    "0x" + common.Bytes2Hex(data),
			BlockNumber: height,
		})
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Call returns a recorded contract call by transaction hash
func (c *LocalChain) Call(ctx context.Context, hash string) (*ContractCall, error) {
	var call ContractCall
	if err := c.store.Get(chainCallPrefix+hash, &call); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, domain.NotFound("contract call", hash)
		}
		return nil, err
	}
	return &call, nil
}

func nextBlock(tx *storage.LevelDBBackend) (uint64, error) {
	var height uint64
	if err := tx.Get(chainHeightKey, &height); err != nil && !errors.Is(err, storage.ErrRecordNotFound) {
		return 0, err
	}
	height++
	return height, tx.Put(chainHeightKey, height)
}

func txHash(height uint64, parts ...string) string {
	data := []byte(strconv.FormatUint(height, 10))
	for _, p := range parts {
		data = append(data, '/')
		data = append(data, p...)
	}
	return crypto.Keccak256Hash(data).Hex()
}

var _ usecase.BalanceOracle = (*LocalChain)(nil)
