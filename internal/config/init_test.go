package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProject(t *testing.T) {
	root := t.TempDir()
	signer := "0x2000000000000000000000000000000000000002"

	result, err := InitProject(root, InitOptions{
		Name:        `Atom "Labs"`,
		TokenSymbol: "atm",
		Treasury:    testTreasury,
		Signers:     []string{signer},
	})
	require.NoError(t, err)
	assert.False(t, result.AlreadyInitialized)
	assert.Len(t, result.Steps, 3)
	assert.DirExists(t, filepath.Join(root, DataDirName))

	// the generated file must load without unknown keys
	cfg, err := Provider(newViper(root))
	require.NoError(t, err)
	assert.Equal(t, `Atom "Labs"`, cfg.DAO.Name)
	assert.Equal(t, "ATM", cfg.DAO.TokenSymbol)
	assert.Equal(t, testTreasury, cfg.Treasury.Address)
	assert.Equal(t, []string{signer}, cfg.Treasury.Signers)
	assert.Equal(t, 72*time.Hour, cfg.Governance.VotingPeriod)
	assert.Equal(t, time.Minute, cfg.Daemon.SweepInterval)
	assert.Equal(t, int64(0), cfg.Governance.ProposalThreshold.Int64())
}

func TestInitProjectKeepsExistingConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, DAOFileName, "[treasury]\naddress = \""+testTreasury+"\"\n")
	writeFile(t, root, ".gitignore", "node_modules/")

	result, err := InitProject(root, InitOptions{Treasury: testTreasury})
	require.NoError(t, err)
	assert.True(t, result.AlreadyInitialized)

	data, err := os.ReadFile(filepath.Join(root, DAOFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "[governance]")

	_, err = InitProject(root, InitOptions{Treasury: testTreasury})
	require.NoError(t, err)

	gitignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "node_modules/\n.atomsi/\n", string(gitignore))
	assert.Equal(t, 1, strings.Count(string(gitignore), DataDirName))
}

func TestInitProjectRejectsBadAddresses(t *testing.T) {
	_, err := InitProject(t.TempDir(), InitOptions{Treasury: "not-an-address"})
	require.Error(t, err)

	_, err = InitProject(t.TempDir(), InitOptions{Treasury: testTreasury, Signers: []string{"0x12"}})
	require.Error(t, err)
}
