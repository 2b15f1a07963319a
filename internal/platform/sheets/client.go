package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/torunhut/api/internal/platform/config"
)

// valuesAPI is the slice of the Sheets values surface the client needs.
type valuesAPI interface {
	Get(ctx context.Context, readRange string) (*sheetsapi.ValueRange, error)
	Update(ctx context.Context, writeRange string, values *sheetsapi.ValueRange) error
	Append(ctx context.Context, appendRange string, values *sheetsapi.ValueRange) error
}

type googleValuesAPI struct {
	spreadsheetID string
	values        *sheetsapi.SpreadsheetsValuesService
}

func (g *googleValuesAPI) Get(ctx context.Context, readRange string) (*sheetsapi.ValueRange, error) {
	return g.values.Get(g.spreadsheetID, readRange).Context(ctx).Do()
}

func (g *googleValuesAPI) Update(ctx context.Context, writeRange string, values *sheetsapi.ValueRange) error {
	_, err := g.values.Update(g.spreadsheetID, writeRange, values).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (g *googleValuesAPI) Append(ctx context.Context, appendRange string, values *sheetsapi.ValueRange) error {
	_, err := g.values.Append(g.spreadsheetID, appendRange, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// Client appends order rows to the configured spreadsheet. It satisfies
// services.SheetAppender.
type Client struct {
	api       valuesAPI
	sheetName string
}

// NewClient constructs a Sheets client from configuration. Credentials fall
// back to application default credentials when none are configured.
func NewClient(ctx context.Context, cfg config.SheetsConfig) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		return nil, errors.New("sheets: sheet name is required")
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: initialise service: %w", err)
	}

	return &Client{
		api: &googleValuesAPI{
			spreadsheetID: cfg.SpreadsheetID,
			values:        svc.Spreadsheets.Values,
		},
		sheetName: sheetName,
	}, nil
}

// EnsureHeader writes the header row when the first row of the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context, header []string) error {
	if c == nil || c.api == nil {
		return errors.New("sheets: client not initialised")
	}
	if len(header) == 0 {
		return errors.New("sheets: header is empty")
	}

	headerRange := fmt.Sprintf("'%s'!1:1", c.sheetName)
	existing, err := c.api.Get(ctx, headerRange)
	if err != nil {
		return fmt.Errorf("sheets: read header: %w", err)
	}
	if existing != nil && len(existing.Values) > 0 && len(existing.Values[0]) > 0 {
		return nil
	}

	row := make([]interface{}, len(header))
	for i, column := range header {
		row[i] = column
	}
	if err := c.api.Update(ctx, headerRange, &sheetsapi.ValueRange{Values: [][]interface{}{row}}); err != nil {
		return fmt.Errorf("sheets: write header: %w", err)
	}
	return nil
}

// AppendRows appends the rows after the last populated row of the sheet.
func (c *Client) AppendRows(ctx context.Context, rows [][]any) error {
	if c == nil || c.api == nil {
		return errors.New("sheets: client not initialised")
	}
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = row
	}
	appendRange := fmt.Sprintf("'%s'", c.sheetName)
	if err := c.api.Append(ctx, appendRange, &sheetsapi.ValueRange{Values: values}); err != nil {
		return fmt.Errorf("sheets: append rows: %w", err)
	}
	return nil
}
