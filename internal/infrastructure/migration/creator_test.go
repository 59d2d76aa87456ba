package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add refunds table", "add_refunds_table"},
		{"Add-Refunds-Table", "add_refunds_table"},
		{"ADD__REFUNDS", "add_refunds"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersAfterExisting(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"000001_ledger.up.sql", "000001_ledger.down.sql", "000003_outbox.up.sql", "000003_outbox.down.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("--"), 0o644))
	}

	mf, err := CreateMigration(dir, "add refunds", "Refund movements")
	require.NoError(t, err)

	assert.Equal(t, "000004", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000004_add_refunds.up.sql"), mf.UpPath)
	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Refund movements")
	_, err = os.Stat(mf.DownPath)
	assert.NoError(t, err)
}

func TestCreateMigration_NewDirectoryAndBadName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"000002_b.up.sql", "000002_b.down.sql", "000001_a.up.sql", "000001_a.down.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "x.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a", "000002_b"}, migrations)

	missing, err := ListMigrations(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}
