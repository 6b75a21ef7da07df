package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	bodies []string
	mu     sync.Mutex
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies = append(f.bodies, r.Method+" "+r.URL.Path+" "+string(body))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/spreadsheets/sheet-1"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sheets": []any{
				map[string]any{"properties": map[string]any{
					"sheetId": 0, "title": "Receitas",
					"gridProperties": map[string]any{"rowCount": 1000, "columnCount": 26},
				}},
				map[string]any{"properties": map[string]any{"sheetId": 2095402559, "title": "Despesas"}},
			},
		})
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":  "Receitas!A1:G3",
			"values": [][]any{{"DataRecebimento", "ValorTotal"}, {"10/02/2024", "150.5"}, {"11/02/2024"}},
		})
	case strings.HasSuffix(r.URL.Path, "/spreadsheets/missing"):
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"Requested entity was not found."}}`)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func newTestClient(t *testing.T, spreadsheetID string) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.SpreadsheetID = spreadsheetID
	cfg.RetryDelay = 0
	client, err := newClientWithHTTP(context.Background(), cfg, srv.URL+"/", srv.Client())
	require.NoError(t, err)
	return client, api
}

func TestClient_ListAndResolve(t *testing.T) {
	client, _ := newTestClient(t, "sheet-1")
	ctx := context.Background()

	list, err := client.ListWorksheets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, Worksheet{ID: 0, Title: "Receitas", RowCount: 1000, ColumnCount: 26}, list[0])

	ws, err := client.WorksheetByID(ctx, 2095402559)
	require.NoError(t, err)
	assert.Equal(t, "Despesas", ws.Title)

	_, err = client.WorksheetByName(ctx, "Projetos")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestClient_ReadAll(t *testing.T) {
	client, _ := newTestClient(t, "sheet-1")

	rows, err := client.ReadAll(context.Background(), Worksheet{ID: 0, Title: "Receitas"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"DataRecebimento", "ValorTotal"}, {"10/02/2024", "150.5"}, {"11/02/2024"}}, rows)
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	client, api := newTestClient(t, "missing")

	_, err := client.ListWorksheets(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Len(t, api.bodies, 1)
}

func TestClient_AppendRowUsesRawInsert(t *testing.T) {
	client, api := newTestClient(t, "sheet-1")

	err := client.AppendRow(context.Background(), Worksheet{ID: 0, Title: "Receitas"}, []string{"10/02/2024", "150.5"})
	require.NoError(t, err)

	require.Len(t, api.bodies, 1)
	assert.Contains(t, api.bodies[0], ":append")
	assert.Contains(t, api.bodies[0], `"10/02/2024"`)
}

func TestA1Helpers(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "Z", columnLetter(26))
	assert.Equal(t, "AA", columnLetter(27))
	assert.Equal(t, "'Receitas'!A2:G4", a1Range("Receitas", 2, 3, 7))
	assert.Equal(t, "'It''s'", quoteTitle("It's"))
}
