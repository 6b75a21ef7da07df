package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("stable id wins over name", func(t *testing.T) {
		store := NewMemoryStore()
		store.Seed(42, "Despesas")
		store.Seed(7, "Receitas")

		// The configured id points at a tab whose title differs from the
		// table name, while another tab carries the name.
		ws, err := Resolve(ctx, store, schema.Table{Name: "Despesas", GID: "7"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), ws.ID)
		assert.Equal(t, 0, store.Calls(OpByName))
	})

	t.Run("gid zero is a valid id", func(t *testing.T) {
		store := NewMemoryStore()
		store.Seed(0, "Renamed")

		ws, err := Resolve(ctx, store, schema.Table{Name: "Receitas", GID: "0"})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", ws.Title)
	})

	t.Run("falls back to name", func(t *testing.T) {
		store := NewMemoryStore()
		store.Seed(5, "Clientes")

		ws, err := Resolve(ctx, store, schema.Table{Name: "Clientes", GID: "999"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), ws.ID)
	})

	t.Run("no id configured", func(t *testing.T) {
		store := NewMemoryStore()
		store.Seed(5, "Clientes")

		ws, err := Resolve(ctx, store, schema.Table{Name: "Clientes"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), ws.ID)
		assert.Equal(t, 0, store.Calls(OpByID))
	})

	t.Run("miss on both", func(t *testing.T) {
		_, err := Resolve(ctx, NewMemoryStore(), schema.Table{Name: "Projetos", GID: "1"})
		assert.ErrorIs(t, err, common.ErrResolution)
	})

	t.Run("transport error is not a miss", func(t *testing.T) {
		store := NewMemoryStore()
		store.Seed(1, "Projetos")
		boom := errors.New("boom")
		store.SetFault(FailAlways(OpByID, boom))

		_, err := Resolve(ctx, store, schema.Table{Name: "Projetos", GID: "1"})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, common.ErrResolution)
	})
}
