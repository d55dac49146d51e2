package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"scmcore/config"
	"scmcore/store"
)

// writeConfig points a config file at a fresh data directory.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	cfg := config.Defaults()
	cfg.Store.DataDir = dataDir
	cfg.Log.Mode = "production"
	path := filepath.Join(dir, "scmcore.yaml")
	require.NoError(t, cfg.Save(path))
	return path, dataDir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckHealthyStore(t *testing.T) {
	path, _ := writeConfig(t)
	out, err := run(t, "", "--config", path, "check")
	require.NoError(t, err)
	for _, table := range []string{"suppliers", "shipments", "inventory", "predictions", "routes"} {
		assert.Contains(t, out, table)
	}
	assert.NotContains(t, out, "FAIL")
}

func TestCheckFailsOnCorruptTable(t *testing.T) {
	path, dataDir := writeConfig(t)
	_, err := run(t, "", "--config", path, "check")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "routes.csv"), []byte("bogus,header\n"), 0644))
	out, err := run(t, "", "--config", path, "check")
	require.Error(t, err)
	assert.Contains(t, out, "FAIL  routes")
}

func TestStatsAndRanking(t *testing.T) {
	path, dataDir := writeConfig(t)
	st, err := store.Open(&config.StoreConfig{Driver: "csv", DataDir: dataDir})
	require.NoError(t, err)
	_, err = st.SaveSupplier(&store.Supplier{SupplierID: "low", ReliabilityScore: store.Ptr(0.2)})
	require.NoError(t, err)
	_, err = st.SaveSupplier(&store.Supplier{SupplierID: "high", ReliabilityScore: store.Ptr(0.9)})
	require.NoError(t, err)
	st.Close()

	out, err := run(t, "", "--config", path, "stats")
	require.NoError(t, err)
	var stats store.Statistics
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.TotalSuppliers)

	out, err = run(t, "", "--config", path, "ranking", "--top", "1")
	require.NoError(t, err)
	var ranking struct {
		Suppliers []store.Supplier `json:"suppliers"`
		Count     int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ranking))
	require.Equal(t, 1, ranking.Count)
	assert.Equal(t, "high", ranking.Suppliers[0].SupplierID)
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "hunter2\n", "hash-password")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))

	_, err = run(t, "", "hash-password")
	assert.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scmcore.yaml")
	out, err := run(t, "", "--config", path, "init-config")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Store.Driver)

	_, err = run(t, "", "--config", path, "init-config")
	assert.Error(t, err, "existing file is kept without --force")

	_, err = run(t, "", "--config", path, "init-config", "--force")
	assert.NoError(t, err)
}
