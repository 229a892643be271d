package config

import (
	"math/big"
	"time"
)

// DAOFileConfig represents the dao.toml file.
type DAOFileConfig struct {
	DAO         DAOConfig         `toml:"dao"`
	Governance  GovernanceConfig  `toml:"governance"`
	Treasury    TreasuryConfig    `toml:"treasury"`
	Blockchain  BlockchainConfig  `toml:"blockchain"`
	Storage     StorageConfig     `toml:"storage"`
	Daemon      DaemonConfig      `toml:"daemon"`
	Members     map[string]string `toml:"members"`
	Permissions PermissionsConfig `toml:"permissions"`
}

// DAOConfig represents the [dao] section.
type DAOConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description,omitempty"`
	// TokenSymbol is the governance token; its balances come from the chain
	TokenSymbol   string `toml:"token_symbol"`
	TokenDecimals uint8  `toml:"token_decimals"`
}

// GovernanceConfig represents the [governance] section.
type GovernanceConfig struct {
	Strategy           string        `toml:"strategy"`
	ProposalThreshold  *big.Int      `toml:"proposal_threshold"`
	VotingPeriod       time.Duration `toml:"voting_period"`
	QuorumPercentage   uint64        `toml:"quorum_percentage"`
	MajorityPercentage uint64        `toml:"majority_percentage"`
	QuorumBasis        string        `toml:"quorum_basis"` // "cast" or "supply"
	ConvictionFactor   uint64        `toml:"conviction_factor,omitempty"`
	MaxConviction      uint64        `toml:"max_conviction,omitempty"`
}

// TreasuryConfig represents the [treasury] section.
type TreasuryConfig struct {
	Address           string   `toml:"address"`
	Signers           []string `toml:"signers"`
	RequiredApprovals int      `toml:"required_approvals"`
}

// BlockchainConfig represents the [blockchain] section.
// An empty RPCURL selects the local offline chain.
type BlockchainConfig struct {
	RPCURL        string `toml:"rpc_url,omitempty"`
	ChainID       uint64 `toml:"chain_id,omitempty"`
	TokenContract string `toml:"token_contract,omitempty"`
	PrivateKey    string `toml:"private_key,omitempty"` //nolint:gosec // holds env var reference, not a literal secret
}

// StorageConfig represents the [storage] section.
type StorageConfig struct {
	// Scheme is "file" or "memory"
	Scheme string `toml:"scheme"`
	Path   string `toml:"path,omitempty"`
}

// DaemonConfig represents the [daemon] section.
type DaemonConfig struct {
	SweepInterval time.Duration `toml:"sweep_interval"`
	MetricsListen string        `toml:"metrics_listen,omitempty"`
}

// PermissionsConfig represents the [permissions] section.
type PermissionsConfig struct {
	File string `toml:"file,omitempty"`
}
