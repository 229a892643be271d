package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string
	ConfigFile  string // path of dao.toml, empty when running on defaults

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration

	// Actor is the address the CLI acts as (--as)
	Actor string

	// Resolved configurations
	DAO        DAOConfig
	Governance GovernanceConfig
	Treasury   TreasuryConfig
	Blockchain BlockchainConfig
	Storage    StorageConfig
	Daemon     DaemonConfig

	// Members maps checksummed address -> role name
	Members map[string]string

	// PermissionsFile is the resolved path of the permission overrides file
	PermissionsFile string
}

// IsLocalChain reports whether balances come from the offline chain.
func (c *RuntimeConfig) IsLocalChain() bool {
	return c.Blockchain.RPCURL == ""
}
