package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("update append delete", func(t *testing.T) {
		m := NewMemoryStore()
		ws := m.Seed(1, "T", []string{"A", "B"})

		require.NoError(t, m.UpdateRange(ctx, ws, 2, [][]string{{"1", "x"}, {"2", "y"}, {"3", "z"}}))
		require.NoError(t, m.AppendRow(ctx, ws, []string{"4", "w"}))
		require.NoError(t, m.DeleteRows(ctx, ws, 3, 2))

		rows, err := m.ReadAll(ctx, ws)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"A", "B"}, {"1", "x"}, {"4", "w"}}, rows)
	})

	t.Run("used range trims empty cells and rows", func(t *testing.T) {
		m := NewMemoryStore()
		ws := m.Seed(1, "T", []string{"A", "B"}, []string{"1", ""}, []string{"", ""})

		rows, err := m.ReadAll(ctx, ws)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"A", "B"}, {"1"}}, rows)
	})

	t.Run("append after clear starts at the top", func(t *testing.T) {
		m := NewMemoryStore()
		ws := m.Seed(1, "T", []string{"A"}, []string{"1"})

		require.NoError(t, m.Clear(ctx, ws))
		require.NoError(t, m.AppendRow(ctx, ws, []string{"A"}))
		assert.Equal(t, [][]string{{"A"}}, m.Rows("T"))
	})

	t.Run("add worksheet", func(t *testing.T) {
		m := NewMemoryStore()
		m.Seed(1, "T")

		ws, err := m.AddWorksheet(ctx, "U")
		require.NoError(t, err)
		assert.Equal(t, "U", ws.Title)

		_, err = m.AddWorksheet(ctx, "U")
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)

		list, err := m.ListWorksheets(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("rename keeps id", func(t *testing.T) {
		m := NewMemoryStore()
		m.Seed(9, "Old")
		m.Rename(9, "New")

		ws, err := m.WorksheetByID(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, "New", ws.Title)

		_, err = m.WorksheetByName(ctx, "Old")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("fault injection", func(t *testing.T) {
		m := NewMemoryStore()
		ws := m.Seed(1, "T", []string{"A"})
		boom := errors.New("quota")
		m.SetFault(FailFrom(OpAppend, 2, boom))

		assert.NoError(t, m.AppendRow(ctx, ws, []string{"1"}))
		assert.ErrorIs(t, m.AppendRow(ctx, ws, []string{"2"}), boom)
		assert.Equal(t, 2, m.Calls(OpAppend))
		assert.Equal(t, [][]string{{"A"}, {"1"}}, m.Rows("T"))
	})
}
