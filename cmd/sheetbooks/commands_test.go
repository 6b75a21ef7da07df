package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/sheetbooks/internal/backup"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useSQLite points every loader at a throwaway data directory and selects
// the SQLite backend.
func useSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("store.backend", "sqlite")
	return filepath.Join(dir, "sheetbooks")
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOpenSession_SQLiteProvisionsTables(t *testing.T) {
	dataDir := useSQLite(t)
	ctx := context.Background()

	s, err := openSession(ctx)
	require.NoError(t, err)
	defer s.close()

	assert.FileExists(t, filepath.Join(dataDir, "sheetbooks.db"))
	assert.Equal(t, filepath.Join(dataDir, "backups"), s.backup.Dir)

	suppliers, err := s.tables.Read(ctx, model.TableSuppliers, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Outros"}, suppliers.Column(model.ColSupplier))

	revenues, err := s.tables.Read(ctx, model.TableRevenues, false)
	require.NoError(t, err)
	assert.Equal(t, model.RevenueColumns, revenues.Columns)
	assert.True(t, revenues.Empty())
}

func TestOpenSession_InvalidBackend(t *testing.T) {
	useSQLite(t)
	viper.Set("store.backend", "excel")

	_, err := openSession(context.Background())
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestTablesAddAndRead(t *testing.T) {
	useSQLite(t)

	out, err := run(t, tablesAddCmd(), model.TableClients, "--set", "Nome=Maria Silva", "--set", "Contato=11999")
	require.NoError(t, err)
	assert.Contains(t, out, "Row added to Clientes")

	out, err = run(t, tablesReadCmd(), model.TableClients)
	require.NoError(t, err)
	assert.Contains(t, out, "Clientes (1 rows)")
	assert.Contains(t, out, "Maria Silva")
	assert.Contains(t, out, "11999")

	_, err = run(t, tablesAddCmd(), model.TableClients)
	assert.ErrorAs(t, err, new(*common.UserError))
}

func TestTablesDelete(t *testing.T) {
	useSQLite(t)

	for _, name := range []string{"A", "B", "C"} {
		_, err := run(t, tablesAddCmd(), model.TableClients, "--set", "Nome="+name)
		require.NoError(t, err)
	}

	out, err := run(t, tablesDeleteCmd(), model.TableClients, "--rows", "1,3", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 row(s)")

	s, err := openSession(context.Background())
	require.NoError(t, err)
	defer s.close()
	frame, err := s.tables.Read(context.Background(), model.TableClients, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, frame.Column(model.ColName))
}

func TestTablesVerifyAndVocabulary(t *testing.T) {
	useSQLite(t)

	out, err := run(t, tablesVerifyCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "8 tables verified")

	_, err = run(t, tablesVocabularyCmd(), "add", model.TableExpenseCategories, "Material")
	require.NoError(t, err)
	_, err = run(t, tablesVocabularyCmd(), "add", model.TableExpenseCategories, "material")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	out, err = run(t, tablesVocabularyCmd(), "list", model.TableExpenseCategories)
	require.NoError(t, err)
	assert.Contains(t, out, "Outros")
	assert.Contains(t, out, "Material")
}

func TestInstallmentsCommand(t *testing.T) {
	useSQLite(t)

	out, err := run(t, installmentsCmd(),
		"--date", "31/01/2024", "--total", "100", "--count", "3", "--description", "Notebook")
	require.NoError(t, err)
	assert.Contains(t, out, "1/3  31/01/2024  R$ 33,33")
	assert.Contains(t, out, "2/3  29/02/2024  R$ 33,33")
	assert.Contains(t, out, "3/3  31/03/2024  R$ 33,33")

	_, err = run(t, installmentsCmd(), "--date", "ontem", "--total", "100")
	assert.ErrorAs(t, err, new(*common.UserError))
}

func TestSummaryAndReport(t *testing.T) {
	useSQLite(t)

	_, err := run(t, tablesAddCmd(), model.TableRevenues, "--set", "DataRecebimento=05/03/2024", "--set", "ValorTotal=1500.50")
	require.NoError(t, err)
	_, err = run(t, tablesAddCmd(), model.TableExpenses, "--set", "DataPagamento=10/03/2024", "--set", "ValorTotal=500")
	require.NoError(t, err)

	out, err := run(t, summaryCmd(), "--month", "3", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "R$ 1.500,50")
	assert.Contains(t, out, "R$ 500,00")
	assert.Contains(t, out, "R$ 1.000,50")
	assert.Contains(t, out, "2024-03")

	_, err = run(t, summaryCmd(), "--month", "13")
	assert.ErrorAs(t, err, new(*common.UserError))

	output := filepath.Join(t.TempDir(), "out", "relatorio.xlsx")
	_, err = run(t, reportCmd(), "--output", output)
	require.NoError(t, err)
	assert.FileExists(t, output)
}

func TestProductivityCommand(t *testing.T) {
	useSQLite(t)
	viper.Set("roster", []map[string]any{{"name": "Ana", "rate": "0.5"}})

	_, err := run(t, tablesAddCmd(), model.TableProjects,
		"--set", "Projeto=P-1", "--set", "DataInicio=02/03/2024", "--set", "m2=120",
		"--set", "ResponsávelModelagem=Ana", "--set", "ResponsávelDetalhamento=Ana")
	require.NoError(t, err)

	out, err := run(t, productivityCmd(), "--month", "3", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "240")
	assert.Contains(t, out, "R$ 120,00")
}

func TestBackupCommands(t *testing.T) {
	dataDir := useSQLite(t)

	_, err := run(t, tablesAddCmd(), model.TableClients, "--set", "Nome=Maria")
	require.NoError(t, err)

	out, err := run(t, backupCmd(), "create")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written to")

	infos, err := backup.List(filepath.Join(dataDir, "backups"))
	require.NoError(t, err)
	require.Len(t, infos, 1)

	out, err = run(t, backupCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, infos[0].Name)

	_, err = run(t, tablesDeleteCmd(), model.TableClients, "--rows", "1", "--yes")
	require.NoError(t, err)

	out, err = run(t, backupCmd(), "restore", infos[0].Name, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 8 tables")

	s, err := openSession(context.Background())
	require.NoError(t, err)
	defer s.close()
	frame, err := s.tables.Read(context.Background(), model.TableClients, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Maria"}, frame.Column(model.ColName))
}

func TestBackupPrune(t *testing.T) {
	dataDir := useSQLite(t)
	dir := filepath.Join(dataDir, "backups")
	require.NoError(t, os.MkdirAll(dir, 0750))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		name := backup.FileName(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0600))
	}

	_, err := run(t, backupPruneCmd(), "--keep", "1")
	require.NoError(t, err)

	infos, err := backup.List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, backup.FileName(base.Add(2*time.Hour)), infos[0].Name)
}

func TestParseHelpers(t *testing.T) {
	values, err := parseAssignments([]string{"Nome=Maria", "Obs=a=b", "Vazio="})
	require.NoError(t, err)
	assert.Equal(t, model.Values{"Nome": "Maria", "Obs": "a=b", "Vazio": ""}, values)

	_, err = parseAssignments([]string{"semigual"})
	assert.ErrorAs(t, err, new(*common.UserError))

	rows, err := parseRows("1, 3,,5")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, rows)

	_, err = parseRows("0")
	assert.ErrorAs(t, err, new(*common.UserError))

	period, err := parsePeriod([]int{1, 12}, []int{2024})
	require.NoError(t, err)
	assert.Equal(t, []time.Month{time.January, time.December}, period.Months)
	assert.Equal(t, []int{2024}, period.Years)
}
