package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw = "RAW"
	insertRows    = "INSERT_ROWS"
	dimensionRows = "ROWS"
	dimensionCols = "COLUMNS"
)

// Client implements Store on the Google Sheets API.
type Client struct {
	service *sheets.Service
	logger  *slog.Logger
	limiter *rateLimiter
	config  Config
}

// NewClient creates a Google Sheets client. It does not contact the API.
func NewClient(ctx context.Context, config Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		config:  config,
		service: service,
		logger:  logger,
		limiter: newRateLimiter(config.RequestsPerMinute),
	}, nil
}

// newClientWithHTTP builds a client that talks to endpoint with a plain HTTP
// client, skipping authentication.
func newClientWithHTTP(ctx context.Context, config Config, endpoint string, httpClient *http.Client) (*Client, error) {
	service, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient), option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return &Client{
		config:  config,
		service: service,
		logger:  slog.Default(),
		limiter: newRateLimiter(config.RequestsPerMinute),
	}, nil
}

// createSheetsService creates a Google Sheets API service. TLS verification
// always uses the system trust store.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.HasServiceAccount() {
		jsonKey := []byte(config.CredentialsJSON)
		if config.ServiceAccountPath != "" {
			var err error
			jsonKey, err = os.ReadFile(config.ServiceAccountPath) // #nosec G304
			if err != nil {
				return nil, fmt.Errorf("unable to read service account key file: %w", err)
			}
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope, sheets.DriveScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	httpClient.Timeout = config.Timeout

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// ListWorksheets implements Store.
func (c *Client) ListWorksheets(ctx context.Context) ([]Worksheet, error) {
	var spreadsheet *sheets.Spreadsheet
	err := c.do(ctx, "list worksheets", func() error {
		var err error
		spreadsheet, err = c.service.Spreadsheets.Get(c.config.SpreadsheetID).
			Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	list := make([]Worksheet, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties == nil {
			continue
		}
		list = append(list, worksheetFromProperties(sheet.Properties))
	}
	return list, nil
}

// WorksheetByID implements Store.
func (c *Client) WorksheetByID(ctx context.Context, id int64) (Worksheet, error) {
	list, err := c.ListWorksheets(ctx)
	if err != nil {
		return Worksheet{}, err
	}
	ws, ok := findWorksheet(list, func(ws Worksheet) bool { return ws.ID == id })
	if !ok {
		return Worksheet{}, fmt.Errorf("worksheet id %d: %w", id, common.ErrNotFound)
	}
	return ws, nil
}

// WorksheetByName implements Store.
func (c *Client) WorksheetByName(ctx context.Context, name string) (Worksheet, error) {
	list, err := c.ListWorksheets(ctx)
	if err != nil {
		return Worksheet{}, err
	}
	ws, ok := findWorksheet(list, func(ws Worksheet) bool { return ws.Title == name })
	if !ok {
		return Worksheet{}, fmt.Errorf("worksheet %q: %w", name, common.ErrNotFound)
	}
	return ws, nil
}

// ReadAll implements Store.
func (c *Client) ReadAll(ctx context.Context, ws Worksheet) ([][]string, error) {
	var resp *sheets.ValueRange
	err := c.do(ctx, "read "+ws.Title, func() error {
		var err error
		resp, err = c.service.Spreadsheets.Values.Get(c.config.SpreadsheetID, quoteTitle(ws.Title)).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toStrings(resp.Values), nil
}

// UpdateRange implements Store.
func (c *Client) UpdateRange(ctx context.Context, ws Worksheet, startRow int, values [][]string) error {
	if len(values) == 0 {
		return nil
	}
	if err := c.ensureGrid(ctx, ws, startRow-1+len(values), widest(values)); err != nil {
		return err
	}

	rng := a1Range(ws.Title, startRow, len(values), widest(values))
	body := &sheets.ValueRange{Values: toCells(values)}
	return c.do(ctx, "update "+ws.Title, func() error {
		_, err := c.service.Spreadsheets.Values.Update(c.config.SpreadsheetID, rng, body).
			ValueInputOption(valueInputRaw).Context(ctx).Do()
		return err
	})
}

// AppendRow implements Store.
func (c *Client) AppendRow(ctx context.Context, ws Worksheet, row []string) error {
	body := &sheets.ValueRange{Values: toCells([][]string{row})}
	return c.do(ctx, "append "+ws.Title, func() error {
		_, err := c.service.Spreadsheets.Values.Append(c.config.SpreadsheetID, quoteTitle(ws.Title)+"!A1", body).
			ValueInputOption(valueInputRaw).
			InsertDataOption(insertRows).
			Context(ctx).Do()
		return err
	})
}

// Clear implements Store.
func (c *Client) Clear(ctx context.Context, ws Worksheet) error {
	return c.do(ctx, "clear "+ws.Title, func() error {
		_, err := c.service.Spreadsheets.Values.Clear(c.config.SpreadsheetID, quoteTitle(ws.Title), &sheets.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
}

// DeleteRows implements Store.
func (c *Client) DeleteRows(ctx context.Context, ws Worksheet, startRow, count int) error {
	if count <= 0 {
		return nil
	}
	req := &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:         ws.ID,
				Dimension:       dimensionRows,
				StartIndex:      int64(startRow - 1),
				EndIndex:        int64(startRow - 1 + count),
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}
	_, err := c.batchUpdate(ctx, "delete rows from "+ws.Title, req)
	return err
}

// AddWorksheet implements Store.
func (c *Client) AddWorksheet(ctx context.Context, title string) (Worksheet, error) {
	req := &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{Title: title},
		},
	}
	resp, err := c.batchUpdate(ctx, "add worksheet "+title, req)
	if err != nil {
		return Worksheet{}, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return Worksheet{}, fmt.Errorf("add worksheet %q: empty reply", title)
	}

	ws := worksheetFromProperties(resp.Replies[0].AddSheet.Properties)
	c.logger.Info("created worksheet", "title", ws.Title, "id", ws.ID)
	return ws, nil
}

// ensureGrid grows the worksheet so a write of rows x cols fits. Value
// updates beyond the grid are rejected by the API.
func (c *Client) ensureGrid(ctx context.Context, ws Worksheet, rows, cols int) error {
	// Handles may carry a stale grid size after rows were deleted.
	fresh, err := c.WorksheetByID(ctx, ws.ID)
	if err != nil {
		return err
	}
	ws = fresh

	var reqs []*sheets.Request
	if rows > ws.RowCount {
		reqs = append(reqs, &sheets.Request{AppendDimension: &sheets.AppendDimensionRequest{
			SheetId:         ws.ID,
			Dimension:       dimensionRows,
			Length:          int64(rows - ws.RowCount),
			ForceSendFields: []string{"SheetId"},
		}})
	}
	if cols > ws.ColumnCount {
		reqs = append(reqs, &sheets.Request{AppendDimension: &sheets.AppendDimensionRequest{
			SheetId:         ws.ID,
			Dimension:       dimensionCols,
			Length:          int64(cols - ws.ColumnCount),
			ForceSendFields: []string{"SheetId"},
		}})
	}
	if len(reqs) == 0 {
		return nil
	}

	c.logger.Debug("growing worksheet grid", "title", ws.Title, "rows", rows, "cols", cols)
	_, err = c.batchUpdate(ctx, "grow "+ws.Title, reqs...)
	return err
}

func (c *Client) batchUpdate(ctx context.Context, what string, reqs ...*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	var resp *sheets.BatchUpdateSpreadsheetResponse
	err := c.do(ctx, what, func() error {
		var err error
		resp, err = c.service.Spreadsheets.BatchUpdate(c.config.SpreadsheetID,
			&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
		return err
	})
	return resp, err
}

// do runs one API call with retry, classifying API errors so that client
// mistakes are not retried. Every attempt waits for the request quota.
func (c *Client) do(ctx context.Context, what string, call func() error) error {
	err := common.WithRetry(ctx, func() error {
		if err := c.limiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		return classify(call())
	}, c.config.retryOptions())
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code == http.StatusNotFound:
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrNotFound, err), Retryable: false}
	case apiErr.Code >= 500:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}

func worksheetFromProperties(p *sheets.SheetProperties) Worksheet {
	ws := Worksheet{ID: p.SheetId, Title: p.Title}
	if p.GridProperties != nil {
		ws.RowCount = int(p.GridProperties.RowCount)
		ws.ColumnCount = int(p.GridProperties.ColumnCount)
	}
	return ws
}

// quoteTitle renders a worksheet title as an A1 range prefix.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toStrings(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = codec.FormatValue(v)
		}
		out[i] = cells
	}
	return out
}

func toCells(values [][]string) [][]any {
	out := make([][]any, len(values))
	for i, row := range values {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func widest(values [][]string) int {
	width := 0
	for _, row := range values {
		width = max(width, len(row))
	}
	return width
}

// columnLetter converts a 1-based column number to its A1 letters.
func columnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// a1Range renders the rectangle of rows x cols starting at startRow.
func a1Range(title string, startRow, rows, cols int) string {
	return quoteTitle(title) + "!A" + strconv.Itoa(startRow) + ":" +
		columnLetter(max(cols, 1)) + strconv.Itoa(startRow+max(rows, 1)-1)
}
