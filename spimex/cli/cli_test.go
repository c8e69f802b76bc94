package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importDoc = `[
	{"exchange_product_id": "A592ACH005A", "exchange_product_name": "Бензин (АИ-92-К5)",
	 "oil_id": "A592", "delivery_basis_id": "ACH", "delivery_basis_name": "Ачинский НПЗ",
	 "delivery_type_id": "A", "volume": 60, "total": 3900000, "count": 1, "date": "2025-07-01"},
	{"exchange_product_id": "DT10ANK060W", "exchange_product_name": "ДТ ЕВРО",
	 "oil_id": "DT10", "delivery_basis_id": "ANK", "delivery_basis_name": "Ангарск",
	 "delivery_type_id": "W", "volume": 120, "total": 7200000, "count": 2, "date": "2025-07-02"}
]`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CACHE_STORAGE_TIME", "51060")
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(dir, "spimex.db"))
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 2 migration(s)")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 0 migration(s)")
}

func TestImportCommand(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "trades.json")
	require.NoError(t, os.WriteFile(file, []byte(importDoc), 0o644))

	out, err := run(t, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 trade(s)")
}

func TestImportCommandRejectsInvalidFile(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "trades.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"oil_id": "A592"}]`), 0o644))

	_, err := run(t, "import", file)
	assert.Error(t, err)

	_, err = run(t, "import", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestMissingCutoffIsFatal(t *testing.T) {
	setupEnv(t)
	t.Setenv("CACHE_STORAGE_TIME", "")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
