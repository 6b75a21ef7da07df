package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTables struct {
	frames  map[string]model.Frame
	fail    map[string]error
	written map[string][]model.Values
}

func (f *fakeTables) Read(_ context.Context, table string, force bool) (model.Frame, error) {
	if !force {
		return model.Frame{}, errors.New("backups must force a reload")
	}
	if err := f.fail[table]; err != nil {
		return model.Frame{}, err
	}
	return f.frames[table], nil
}

func (f *fakeTables) WriteReplace(_ context.Context, table string, rows []model.Values) error {
	if err := f.fail[table]; err != nil {
		return err
	}
	if f.written == nil {
		f.written = make(map[string][]model.Values)
	}
	f.written[table] = rows
	return nil
}

var stamp = time.Date(2024, 3, 5, 14, 30, 15, 0, time.Local)

func TestCreateAndRestore(t *testing.T) {
	dir := t.TempDir()
	tables := &fakeTables{
		frames: map[string]model.Frame{
			"Receitas": {
				Columns: []string{"Descrição", "ValorTotal"},
				Records: []model.Record{{"Descrição": "Projeto A", "ValorTotal": "150.5"}},
			},
			"Clientes": model.NewFrame([]string{"Nome"}),
		},
		fail: map[string]error{"Despesas": errors.New("quota exceeded")},
	}

	result, err := Create(context.Background(), tables, []string{"Receitas", "Clientes", "Despesas"}, dir, stamp)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "backup_20240305_143015.json"), result.Path)
	assert.Equal(t, map[string]int{"Receitas": 1, "Clientes": 0}, result.Rows)
	assert.Contains(t, result.Skipped, "Despesas")

	snapshot, err := Restore(result.Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Clientes", "Receitas"}, snapshot.Tables())
	assert.Equal(t, []model.Record{{"Descrição": "Projeto A", "ValorTotal": "150.5"}}, snapshot["Receitas"].Records)
	assert.True(t, snapshot["Clientes"].Empty())
}

func TestCreate_AllTablesFail(t *testing.T) {
	tables := &fakeTables{fail: map[string]error{"Receitas": errors.New("offline")}}

	_, err := Create(context.Background(), tables, []string{"Receitas"}, t.TempDir(), stamp)
	assert.Error(t, err)
}

func TestRestore_TypedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup_20240101_000000.json")
	raw := `{"Despesas": [{"ValorTotal": 89.9, "Parcelas": null, "Descrição": "Cimento", "NF": true}]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0600))

	snapshot, err := Restore(path)
	require.NoError(t, err)
	assert.Equal(t, model.Record{"ValorTotal": "89.9", "Parcelas": "", "Descrição": "Cimento", "NF": "true"},
		snapshot["Despesas"].Records[0])
	assert.Equal(t, []string{"Descrição", "NF", "Parcelas", "ValorTotal"}, snapshot["Despesas"].Columns)
}

func TestRestore_Missing(t *testing.T) {
	_, err := Restore(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrNoBackup)
}

func TestApply(t *testing.T) {
	tables := &fakeTables{fail: map[string]error{"Despesas": errors.New("write failed")}}
	snapshot := Snapshot{
		"Receitas": {Records: []model.Record{{"Descrição": "A"}}},
		"Despesas": {Records: []model.Record{{"Descrição": "B"}}},
	}

	restored, err := Apply(context.Background(), tables, snapshot)
	assert.Equal(t, 1, restored)
	assert.ErrorContains(t, err, "restore Despesas")
	assert.Equal(t, []model.Values{{"Descrição": "A"}}, tables.written["Receitas"])
}

func TestListAndPrune(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"backup_20240101_000000.json",
		"backup_20240301_120000.json",
		"backup_20240201_080000.json",
		"notes.txt",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0600))
	}

	infos, err := List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "backup_20240301_120000.json", infos[0].Name)
	assert.Equal(t, "backup_20240101_000000.json", infos[2].Name)
	assert.Equal(t, 2024, infos[0].CreatedAt.Year())
	assert.Equal(t, time.March, infos[0].CreatedAt.Month())

	removed, err := Prune(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "backup_20240101_000000.json")}, removed)

	missing, err := List(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestWriteDriftCSV(t *testing.T) {
	dir := t.TempDir()
	rows := [][]string{
		{"Descrição", "", "Extra"},
		{"Projeto A", "x"},
		{"Projeto B", "y", "z"},
	}

	path, err := WriteDriftCSV(dir, "Receitas", rows, stamp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Receitas_before_20240305_143015.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "Descrição,col_2,Extra")
	assert.Contains(t, content, "Projeto B,y,z")

	empty, err := WriteDriftCSV(dir, "Vazia", nil, stamp)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want Frequency
		next time.Time
	}{
		{in: "diária", want: Daily, next: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)},
		{in: "Semanal", want: Weekly, next: time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC)},
		// AddDate normalizes Jan 30 + 1 month to Mar 1.
		{in: "monthly", want: Monthly, next: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	base := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		got, err := ParseFrequency(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.next, got.Next(base))
	}

	_, err := ParseFrequency("hourly")
	assert.Error(t, err)
}

func TestScheduler_RunOnceAppliesRetention(t *testing.T) {
	dir := t.TempDir()
	tables := &fakeTables{frames: map[string]model.Frame{"Receitas": model.NewFrame([]string{"A"})}}

	clock := stamp
	var hooked int
	s := NewScheduler(tables, []string{"Receitas"}, dir, Daily,
		WithRetention(1),
		WithSchedulerClock(func() time.Time { return clock }),
		WithBackupHook(func(*Result, error) { hooked++ }),
	)

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)

	infos, err := List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, FileName(clock), infos[0].Name)
	assert.Equal(t, 2, hooked)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	tables := &fakeTables{}
	s := NewScheduler(tables, []string{"Receitas"}, t.TempDir(), Daily)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}
