package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
)

// InitOptions contains the values written into a fresh dao.toml
type InitOptions struct {
	Name        string
	TokenSymbol string
	Treasury    string
	Signers     []string
}

// InitStep represents a step in the initialization process
type InitStep struct {
	Name    string
	Success bool
	Message string
}

// InitResult contains the result of project initialization
type InitResult struct {
	AlreadyInitialized bool
	Steps              []InitStep
}

var daoTomlTemplate = template.Must(template.New("dao.toml").Parse(`# dao.toml - atomsi configuration

[dao]
name = {{ printf "%q" .Name }}
token_symbol = "{{ .TokenSymbol }}"
token_decimals = 18

[governance]
# token, quadratic or conviction
strategy = "token"
proposal_threshold = "0"
voting_period = "72h"
quorum_percentage = 20
majority_percentage = 50
# "cast": quorum over votes cast, "supply": over the token's total supply
quorum_basis = "cast"

[treasury]
address = "{{ .Treasury }}"
signers = [{{ range $i, $s := .Signers }}{{ if $i }}, {{ end }}"{{ $s }}"{{ end }}]
required_approvals = {{ .Required }}

# Without rpc_url balances come from a local ledger under .atomsi/.
# [blockchain]
# rpc_url = "${ATOMSI_RPC_URL}"
# token_contract = "0x..."
# private_key = "${ATOMSI_PRIVATE_KEY}"

[storage]
scheme = "file"

[daemon]
sweep_interval = "1m"
metrics_listen = "127.0.0.1:9464"

# [members]
# "0x..." = "council"
`))

// InitProject writes dao.toml and the data directory into root. An existing
// dao.toml is left untouched.
func InitProject(root string, opts InitOptions) (*InitResult, error) {
	result := &InitResult{}

	treasury, err := domain.NormalizeAddress(opts.Treasury)
	if err != nil {
		return nil, fmt.Errorf("invalid treasury address: %w", err)
	}
	signers := make([]string, 0, len(opts.Signers))
	for _, s := range opts.Signers {
		addr, err := domain.NormalizeAddress(s)
		if err != nil {
			return nil, fmt.Errorf("invalid signer: %w", err)
		}
		signers = append(signers, addr)
	}
	if opts.Name == "" {
		opts.Name = "DAO"
	}
	if opts.TokenSymbol == "" {
		opts.TokenSymbol = DefaultTokenSymbol
	}

	configPath := filepath.Join(root, DAOFileName)
	if _, err := os.Stat(configPath); err == nil {
		result.AlreadyInitialized = true
		result.Steps = append(result.Steps, InitStep{Name: "Create " + DAOFileName, Success: true, Message: DAOFileName + " already exists"})
	} else {
		var buf bytes.Buffer
		err := daoTomlTemplate.Execute(&buf, map[string]any{
			"Name":        opts.Name,
			"TokenSymbol": strings.ToUpper(opts.TokenSymbol),
			"Treasury":    treasury,
			"Signers":     signers,
			"Required":    DefaultRequiredApprovals,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", DAOFileName, err)
		}
		if err := os.WriteFile(configPath, buf.Bytes(), 0o644); err != nil { //nolint:gosec // project config, not secret
			return nil, fmt.Errorf("failed to write %s: %w", DAOFileName, err)
		}
		result.Steps = append(result.Steps, InitStep{Name: "Create " + DAOFileName, Success: true, Message: "Created " + DAOFileName})
	}

	if err := os.MkdirAll(filepath.Join(root, DataDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", DataDirName, err)
	}
	result.Steps = append(result.Steps, InitStep{Name: "Create data directory", Success: true, Message: DataDirName + "/"})

	if err := ensureGitignoreEntry(root, DataDirName+"/"); err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, InitStep{Name: "Update .gitignore", Success: true})

	return result, nil
}

// ensureGitignoreEntry adds an entry to .gitignore if not already present
func ensureGitignoreEntry(projectRoot, entry string) error {
	gitignorePath := filepath.Join(projectRoot, ".gitignore")

	data, err := os.ReadFile(gitignorePath) //nolint:gosec // internal path
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .gitignore: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry {
			return nil
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // internal path
	if err != nil {
		return fmt.Errorf("failed to open .gitignore: %w", err)
	}
	defer f.Close()

	prefix := ""
	if len(data) > 0 && data[len(data)-1] != '\n' {
		prefix = "\n"
	}
	if _, err := fmt.Fprintf(f, "%s%s\n", prefix, entry); err != nil {
		return fmt.Errorf("failed to write to .gitignore: %w", err)
	}
	return nil
}
