package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// CreateTokenParams contains parameters for registering a local token
type CreateTokenParams struct {
	Symbol        string
	Name          string
	Decimals      uint8
	InitialSupply *big.Int
	// Holder receives the initial supply; the treasury when empty
	Holder string
}

// ManageTokens handles local token administration
type ManageTokens struct {
	treasury string
	ledger   TokenLedger
	log      *slog.Logger
}

// NewManageTokens creates a new ManageTokens use case
func NewManageTokens(cfg *config.RuntimeConfig, ledger TokenLedger, log *slog.Logger) *ManageTokens {
	return &ManageTokens{
		treasury: cfg.Treasury.Address,
		ledger:   ledger,
		log:      log.With("component", "tokens"),
	}
}

// Create registers a token and mints its initial supply
func (uc *ManageTokens) Create(ctx context.Context, params CreateTokenParams) (*models.Token, error) {
	holder := params.Holder
	if holder == "" {
		holder = uc.treasury
	}
	if params.InitialSupply != nil && params.InitialSupply.Sign() < 0 {
		return nil, domain.InvalidParameter("initial supply must not be negative")
	}

	token := &models.Token{
		Symbol:   params.Symbol,
		Name:     params.Name,
		Decimals: params.Decimals,
	}
	if err := uc.ledger.CreateToken(ctx, token); err != nil {
		return nil, err
	}
	uc.log.Info("token created", "symbol", token.Symbol, "decimals", token.Decimals)

	if params.InitialSupply != nil && params.InitialSupply.Sign() > 0 {
		if err := uc.ledger.Mint(ctx, token.Symbol, holder, params.InitialSupply); err != nil {
			return nil, fmt.Errorf("token %s created but initial mint failed: %w", token.Symbol, err)
		}
	}
	return uc.ledger.GetToken(ctx, token.Symbol)
}

// Mint credits amount of symbol to address
func (uc *ManageTokens) Mint(ctx context.Context, symbol, to string, amount *big.Int) (*models.Token, error) {
	if err := uc.ledger.Mint(ctx, symbol, to, amount); err != nil {
		return nil, err
	}
	uc.log.Info("tokens minted", "symbol", symbol, "to", to, "amount", amount)
	return uc.ledger.GetToken(ctx, symbol)
}

// Burn debits amount of symbol from address
func (uc *ManageTokens) Burn(ctx context.Context, symbol, from string, amount *big.Int) (*models.Token, error) {
	if err := uc.ledger.Burn(ctx, symbol, from, amount); err != nil {
		return nil, err
	}
	uc.log.Info("tokens burned", "symbol", symbol, "from", from, "amount", amount)
	return uc.ledger.GetToken(ctx, symbol)
}

// Transfer moves amount of symbol between two addresses
func (uc *ManageTokens) Transfer(ctx context.Context, symbol, from, to string, amount *big.Int) (*models.TokenTransfer, error) {
	return uc.ledger.Transfer(ctx, symbol, from, to, amount)
}

// Balance returns address's balance of symbol
func (uc *ManageTokens) Balance(ctx context.Context, symbol, address string) (*big.Int, error) {
	return uc.ledger.GetBalance(ctx, symbol, address)
}

// List returns every known token, governance token first
func (uc *ManageTokens) List(ctx context.Context) ([]*models.Token, error) {
	return uc.ledger.ListTokens(ctx)
}
