package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
)

// DAOFileName is the project configuration file
const DAOFileName = "dao.toml"

// Defaults applied to settings dao.toml leaves out
const (
	DefaultStrategy           = "token"
	DefaultQuorumPercentage   = 20
	DefaultMajorityPercentage = 50
	DefaultQuorumBasis        = "cast"
	DefaultVotingPeriod       = 72 * time.Hour
	DefaultRequiredApprovals  = 1
	DefaultTokenSymbol        = "ATOM"
	DefaultTokenDecimals      = 18
	DefaultSweepInterval      = time.Minute
	DefaultMetricsListen      = "127.0.0.1:9464"
)

// loadEnvFiles loads .env then .env.local from projectRoot. Variables
// already present in the environment win.
func loadEnvFiles(projectRoot string) error {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// LoadDAOFile decodes dao.toml and expands ${VAR} references in string
// values. A missing file yields an empty config.
func LoadDAOFile(path string) (*config.DAOFileConfig, error) {
	var cfg config.DAOFileConfig
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", filepath.Base(path), undecoded)
	}

	expandEnv(&cfg)
	return &cfg, nil
}

func expandEnv(cfg *config.DAOFileConfig) {
	cfg.DAO.Name = os.ExpandEnv(cfg.DAO.Name)
	cfg.Treasury.Address = os.ExpandEnv(cfg.Treasury.Address)
	for i, s := range cfg.Treasury.Signers {
		cfg.Treasury.Signers[i] = os.ExpandEnv(s)
	}
	cfg.Blockchain.RPCURL = os.ExpandEnv(cfg.Blockchain.RPCURL)
	cfg.Blockchain.TokenContract = os.ExpandEnv(cfg.Blockchain.TokenContract)
	cfg.Blockchain.PrivateKey = os.ExpandEnv(cfg.Blockchain.PrivateKey)
	cfg.Storage.Path = os.ExpandEnv(cfg.Storage.Path)
	cfg.Permissions.File = os.ExpandEnv(cfg.Permissions.File)
}

// applyDefaults fills every zero setting with its default
func applyDefaults(cfg *config.DAOFileConfig) {
	if cfg.DAO.Name == "" {
		cfg.DAO.Name = "DAO"
	}
	if cfg.DAO.TokenSymbol == "" {
		cfg.DAO.TokenSymbol = DefaultTokenSymbol
	}
	if cfg.DAO.TokenDecimals == 0 {
		cfg.DAO.TokenDecimals = DefaultTokenDecimals
	}

	g := &cfg.Governance
	if g.Strategy == "" {
		g.Strategy = DefaultStrategy
	}
	if g.ProposalThreshold == nil {
		g.ProposalThreshold = new(big.Int)
	}
	if g.VotingPeriod == 0 {
		g.VotingPeriod = DefaultVotingPeriod
	}
	if g.QuorumPercentage == 0 {
		g.QuorumPercentage = DefaultQuorumPercentage
	}
	if g.MajorityPercentage == 0 {
		g.MajorityPercentage = DefaultMajorityPercentage
	}
	if g.QuorumBasis == "" {
		g.QuorumBasis = DefaultQuorumBasis
	}

	if cfg.Treasury.RequiredApprovals == 0 {
		cfg.Treasury.RequiredApprovals = DefaultRequiredApprovals
	}

	if cfg.Storage.Scheme == "" {
		cfg.Storage.Scheme = "file"
	}
	if cfg.Daemon.SweepInterval == 0 {
		cfg.Daemon.SweepInterval = DefaultSweepInterval
	}
	if cfg.Daemon.MetricsListen == "" {
		cfg.Daemon.MetricsListen = DefaultMetricsListen
	}
}
