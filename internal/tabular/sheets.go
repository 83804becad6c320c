package tabular

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	insertDataInsertRows  = "INSERT_ROWS"
)

// Credentials selects how the Sheets client authenticates.
type Credentials struct {
	// JSON holds an inline service-account key. It takes precedence over File.
	JSON string
	// File is the path of a service-account key file.
	File string
}

// ClientOptions converts the credentials into Google API client options.
func (c Credentials) ClientOptions() ([]option.ClientOption, error) {
	switch {
	case c.JSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(c.JSON))}, nil
	case c.File != "":
		return []option.ClientOption{option.WithCredentialsFile(c.File)}, nil
	default:
		return nil, fmt.Errorf("google credentials not found: set GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS")
	}
}

// SheetsClient implements Client against the Google Sheets v4 API.
type SheetsClient struct {
	service  *sheets.Service
	location Location
}

// NewSheetsClient wraps an existing Sheets service.
func NewSheetsClient(service *sheets.Service, location Location) *SheetsClient {
	return &SheetsClient{service: service, location: location}
}

// NewSheetsOpener returns an Opener that builds a new authenticated Sheets service per call.
func NewSheetsOpener(location Location, opts ...option.ClientOption) Opener {
	return func(ctx context.Context) (Client, error) {
		all := append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
		service, err := sheets.NewService(ctx, all...)
		if err != nil {
			return nil, fmt.Errorf("%w: create sheets service: %w", ErrUnavailable, err)
		}
		return NewSheetsClient(service, location), nil
	}
}

// ReadRange reads the values of r.
func (c *SheetsClient) ReadRange(ctx context.Context, r Range) ([][]string, error) {
	resp, err := c.service.Spreadsheets.Values.
		Get(c.location.SpreadsheetID, r.A1(c.location.SheetName)).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("read range", err, false)
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			if cell != nil {
				row[j] = fmt.Sprint(cell)
			}
		}
		rows[i] = row
	}
	return trimRows(rows), nil
}

// AppendRows appends rows after the last populated row, inserting new rows.
func (c *SheetsClient) AppendRows(ctx context.Context, r Range, rows [][]string) error {
	_, err := c.service.Spreadsheets.Values.
		Append(c.location.SpreadsheetID, r.A1(c.location.SheetName), valueRange(rows)).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertDataInsertRows).
		Context(ctx).
		Do()
	if err != nil {
		return classify("append rows", err, true)
	}
	return nil
}

// UpdateRange overwrites the cells of r in place.
func (c *SheetsClient) UpdateRange(ctx context.Context, r Range, rows [][]string) error {
	_, err := c.service.Spreadsheets.Values.
		Update(c.location.SpreadsheetID, r.A1(c.location.SheetName), valueRange(rows)).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).
		Do()
	if err != nil {
		return classify("update range", err, true)
	}
	return nil
}

// DeleteRows removes the 0-based rows [start, endExclusive) with a deleteDimension request.
func (c *SheetsClient) DeleteRows(ctx context.Context, start, endExclusive int) error {
	if start < 0 || endExclusive <= start {
		return fmt.Errorf("%w: invalid row span [%d, %d)", ErrWriteRejected, start, endExclusive)
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "ROWS",
						StartIndex: int64(start),
						EndIndex:   int64(endExclusive),
						// Zero is a valid sheet id and start index.
						ForceSendFields: []string{"SheetId", "StartIndex"},
					},
				},
			},
		},
	}

	if _, err := c.service.Spreadsheets.BatchUpdate(c.location.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify("delete rows", err, true)
	}
	return nil
}

// sheetID returns the configured numeric tab id, resolving it by name when negative.
func (c *SheetsClient) sheetID(ctx context.Context) (int64, error) {
	if c.location.SheetID >= 0 {
		return c.location.SheetID, nil
	}

	ss, err := c.service.Spreadsheets.Get(c.location.SpreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return 0, classify("resolve sheet id", err, false)
	}
	for _, sheet := range ss.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == c.location.SheetName {
			c.location.SheetID = sheet.Properties.SheetId
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("%w: sheet %q not found in spreadsheet", ErrWriteRejected, c.location.SheetName)
}

func valueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return &sheets.ValueRange{MajorDimension: "ROWS", Values: values}
}

// classify maps a Google API failure onto the package sentinels. Only a 400 on a
// write counts as a rejection; auth failures and everything else mean the store
// cannot be used right now.
func classify(op string, err error, write bool) error {
	var apiErr *googleapi.Error
	if write && errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
		return fmt.Errorf("%w: %s: %w", ErrWriteRejected, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
