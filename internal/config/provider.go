package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
)

// DataDirName is the per-project state directory
const DataDirName = ".atomsi"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	// Get project root from viper
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	if err := loadEnvFiles(projectRoot); err != nil {
		return nil, err
	}

	configFile := filepath.Join(projectRoot, DAOFileName)
	fileCfg, err := LoadDAOFile(configFile)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(configFile); err != nil {
		configFile = ""
	}
	applyDefaults(fileCfg)

	// env and flags override the file
	if rpc := v.GetString("rpc_url"); rpc != "" {
		fileCfg.Blockchain.RPCURL = rpc
	}
	if scheme := v.GetString("storage"); scheme != "" {
		fileCfg.Storage.Scheme = scheme
	}

	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		dataDir = filepath.Join(projectRoot, DataDirName)
	}
	dataDir = resolvePath(projectRoot, dataDir)

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        dataDir,
		ConfigFile:     configFile,
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		Actor:          strings.TrimSpace(v.GetString("actor")),
		DAO:            fileCfg.DAO,
		Governance:     fileCfg.Governance,
		Treasury:       fileCfg.Treasury,
		Blockchain:     fileCfg.Blockchain,
		Storage:        fileCfg.Storage,
		Daemon:         fileCfg.Daemon,
		Members:        fileCfg.Members,
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(dataDir, "db")
	} else {
		cfg.Storage.Path = resolvePath(projectRoot, cfg.Storage.Path)
	}

	if fileCfg.Permissions.File != "" {
		cfg.PermissionsFile = resolvePath(projectRoot, fileCfg.Permissions.File)
	} else {
		cfg.PermissionsFile = filepath.Join(dataDir, "permissions.yaml")
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", DAOFileName, err)
	}
	return cfg, nil
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func validate(cfg *config.RuntimeConfig) error {
	if cfg.Treasury.Address == "" {
		return domain.InvalidParameter("treasury.address is required")
	}
	if !domain.IsValidAddress(cfg.Treasury.Address) {
		return domain.InvalidParameter("treasury.address %q is not a valid address", cfg.Treasury.Address)
	}
	for _, s := range cfg.Treasury.Signers {
		if !domain.IsValidAddress(s) {
			return domain.InvalidParameter("treasury signer %q is not a valid address", s)
		}
	}
	if n := len(cfg.Treasury.Signers); n > 0 && cfg.Treasury.RequiredApprovals > n {
		return domain.InvalidParameter("treasury.required_approvals (%d) exceeds the number of signers (%d)", cfg.Treasury.RequiredApprovals, n)
	}
	for addr := range cfg.Members {
		if !domain.IsValidAddress(addr) {
			return domain.InvalidParameter("member %q is not a valid address", addr)
		}
	}
	if cfg.Actor != "" && !domain.IsValidAddress(cfg.Actor) {
		return domain.InvalidParameter("actor %q is not a valid address", cfg.Actor)
	}
	if !cfg.IsLocalChain() && cfg.Blockchain.PrivateKey == "" {
		return domain.InvalidParameter("blockchain.private_key is required when rpc_url is set")
	}
	return nil
}

// FindProjectRoot walks up from current directory to find dao.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, DAOFileName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a DAO project (%s not found)", DAOFileName)
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string) *viper.Viper {
	v := viper.New()

	// Set up config file
	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	// Set up environment variables
	v.SetEnvPrefix("ATOMSI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("json", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	return v
}
