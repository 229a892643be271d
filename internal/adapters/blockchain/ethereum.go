package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function","stateMutability":"view"},
	{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function","stateMutability":"view"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function","stateMutability":"nonpayable"}
]`

const (
	rpcTimeout          = 10 * time.Second
	receiptPollInterval = 2 * time.Second
)

// EthereumOracle reads governance token balances over JSON-RPC and signs
// outgoing transactions with the configured key. Without a token contract the
// native coin is used.
type EthereumOracle struct {
	client  *ethclient.Client
	chainID *big.Int
	token   common.Address
	key     *ecdsa.PrivateKey
	erc20   abi.ABI
}

// NewEthereumOracle connects to cfg.RPCURL and verifies the chain ID
func NewEthereumOracle(ctx context.Context, cfg config.BlockchainConfig) (*EthereumOracle, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	networkChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if cfg.ChainID != 0 && networkChainID.Uint64() != cfg.ChainID {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", cfg.ChainID, networkChainID.Uint64())
	}

	o := &EthereumOracle{
		client:  client,
		chainID: networkChainID,
		erc20:   parsed,
	}

	if cfg.TokenContract != "" {
		if !common.IsHexAddress(cfg.TokenContract) {
			client.Close()
			return nil, domain.InvalidParameter("invalid token contract address %q", cfg.TokenContract)
		}
		o.token = common.HexToAddress(cfg.TokenContract)
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		o.key = key
	}

	return o, nil
}

// Close releases the RPC connection
func (o *EthereumOracle) Close() {
	o.client.Close()
}

// Sender returns the signing account, or the empty string when no key is set
func (o *EthereumOracle) Sender() string {
	if o.key == nil {
		return ""
	}
	return crypto.PubkeyToAddress(o.key.PublicKey).Hex()
}

func (o *EthereumOracle) native() bool {
	return o.token == (common.Address{})
}

// Balance returns the governance token balance of address
func (o *EthereumOracle) Balance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, domain.InvalidParameter("invalid address %q", address)
	}
	addr := common.HexToAddress(address)

	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	if o.native() {
		return o.client.BalanceAt(ctx, addr, nil)
	}
	return o.callUint(ctx, "balanceOf", addr)
}

// TotalSupply returns the token contract's total supply
func (o *EthereumOracle) TotalSupply(ctx context.Context) (*big.Int, error) {
	if o.native() {
		return nil, domain.NotSupported("total supply requires blockchain.token_contract")
	}

	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	return o.callUint(ctx, "totalSupply")
}

func (o *EthereumOracle) callUint(ctx context.Context, method string, args ...any) (*big.Int, error) {
	data, err := o.erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	out, err := o.client.CallContract(ctx, ethereum.CallMsg{To: &o.token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	values, err := o.erc20.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected %s result", method)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, values[0])
	}
	return v, nil
}

// IsValidAddress reports whether address is a 20-byte hex address
func (o *EthereumOracle) IsValidAddress(address string) bool {
	return common.IsHexAddress(address)
}

// SendTransaction transfers amount of the governance token to to
func (o *EthereumOracle) SendTransaction(ctx context.Context, to string, amount *big.Int) (*models.Receipt, error) {
	if !common.IsHexAddress(to) {
		return nil, domain.InvalidParameter("invalid address %q", to)
	}
	recipient := common.HexToAddress(to)

	if o.native() {
		return o.send(ctx, recipient, amount, nil)
	}
	data, err := o.erc20.Pack("transfer", recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer: %w", err)
	}
	return o.send(ctx, o.token, new(big.Int), data)
}

// CallContract sends a transaction invoking function on address. function is a
// signature such as "setFee(uint256)" and args are its arguments in text form.
func (o *EthereumOracle) CallContract(ctx context.Context, address, function string, args []string) (*models.Receipt, error) {
	if !common.IsHexAddress(address) {
		return nil, domain.InvalidParameter("invalid contract address %q", address)
	}
	data, err := EncodeCall(function, args)
	if err != nil {
		return nil, err
	}
	return o.send(ctx, common.HexToAddress(address), new(big.Int), data)
}

func (o *EthereumOracle) send(ctx context.Context, to common.Address, value *big.Int, data []byte) (*models.Receipt, error) {
	if o.key == nil {
		return nil, domain.NotSupported("sending transactions requires blockchain.private_key")
	}
	from := crypto.PubkeyToAddress(o.key.PublicKey)

	nonce, err := o.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := o.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	gas, err := o.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(o.chainID), o.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := o.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := o.waitMined(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}

	return &models.Receipt{
		TxHash:      signed.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}

func (o *EthereumOracle) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := o.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

var _ usecase.BalanceOracle = (*EthereumOracle)(nil)
