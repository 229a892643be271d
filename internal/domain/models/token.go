package models

import (
	"math/big"
	"time"
)

// Token is a ledger-tracked asset
type Token struct {
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Decimals    uint8     `json:"decimals"`
	TotalSupply *big.Int  `json:"totalSupply"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TokenTransfer is the record written for every ledger movement
type TokenTransfer struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    *big.Int  `json:"amount"`
	TxHash    string    `json:"txHash"`
	Timestamp time.Time `json:"timestamp"`
}

// Receipt is what the chain reports back for a sent transaction or contract call
type Receipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	Result      []byte `json:"result,omitempty"`
}
