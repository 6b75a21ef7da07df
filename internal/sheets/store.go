// Package sheets talks to the remote spreadsheet that backs every logical
// table: connection reuse, worksheet resolution and the raw value operations.
package sheets

import "context"

// Worksheet is a handle to one physical tab of the spreadsheet.
type Worksheet struct {
	Title string
	// ID is the store-assigned id that survives renames.
	ID int64
	// RowCount and ColumnCount describe the grid size when the store knows it.
	RowCount    int
	ColumnCount int
}

// Store is the set of remote operations the sync layer depends on. Rows are
// 1-based, row 1 being the header row.
type Store interface {
	ListWorksheets(ctx context.Context) ([]Worksheet, error)
	// WorksheetByID and WorksheetByName return an error wrapping
	// common.ErrNotFound when no worksheet matches.
	WorksheetByID(ctx context.Context, id int64) (Worksheet, error)
	WorksheetByName(ctx context.Context, name string) (Worksheet, error)
	// ReadAll returns the used range, header included. Trailing empty cells
	// of a row may be omitted.
	ReadAll(ctx context.Context, ws Worksheet) ([][]string, error)
	// UpdateRange overwrites the block starting at column A of startRow.
	UpdateRange(ctx context.Context, ws Worksheet, startRow int, values [][]string) error
	AppendRow(ctx context.Context, ws Worksheet, row []string) error
	Clear(ctx context.Context, ws Worksheet) error
	// DeleteRows removes count rows beginning at startRow.
	DeleteRows(ctx context.Context, ws Worksheet, startRow, count int) error
	// AddWorksheet creates a new empty tab.
	AddWorksheet(ctx context.Context, title string) (Worksheet, error)
}

// findWorksheet looks a worksheet up in a listing.
func findWorksheet(list []Worksheet, match func(Worksheet) bool) (Worksheet, bool) {
	for _, ws := range list {
		if match(ws) {
			return ws, true
		}
	}
	return Worksheet{}, false
}
