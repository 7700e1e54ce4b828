package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for the upload.
var sheetScopes = []string{
	sheets.SpreadsheetsScope,
	sheets.DriveFileScope,
}

// SheetWriter replaces the contents of a spreadsheet with a table. The
// interface exists so tests can swap out the Sheets API.
type SheetWriter interface {
	Replace(ctx context.Context, spreadsheetID string, values [][]string) error
}

// SheetsClient writes to Google Sheets.
type SheetsClient struct {
	srv    *sheets.Service
	logger *slog.Logger
}

// NewSheetsClient builds a Sheets client from an installed-app OAuth
// credentials file, caching the token at tokenPath. When no cached token
// exists the auth URL is printed and the code read from stdin.
func NewSheetsClient(ctx context.Context, credentialsPath, tokenPath string, logger *slog.Logger) (*SheetsClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	config, err := google.ConfigFromJSON(b, sheetScopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		tok, err = tokenFromPrompt(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenPath, tok); err != nil {
			logger.Warn("export.token.save_error", "path", tokenPath, "error", err)
		}
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("build sheets service: %w", err)
	}
	return &SheetsClient{srv: srv, logger: logger}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func tokenFromPrompt(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(tok)
}

// Replace clears the spreadsheet's first sheet, writes values from A1 and
// freezes the header row.
func (c *SheetsClient) Replace(ctx context.Context, spreadsheetID string, values [][]string) error {
	meta, err := c.srv.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	if len(meta.Sheets) == 0 {
		return fmt.Errorf("spreadsheet %s has no sheets", spreadsheetID)
	}
	title := meta.Sheets[0].Properties.Title
	sheetID := meta.Sheets[0].Properties.SheetId

	if _, err := c.srv.Spreadsheets.Values.Clear(spreadsheetID, title, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	cells := make([][]any, len(values))
	for i, row := range values {
		cells[i] = make([]any, len(row))
		for j, v := range row {
			cells[i][j] = v
		}
	}
	vr := &sheets.ValueRange{Values: cells}
	if _, err := c.srv.Spreadsheets.Values.Update(spreadsheetID, title+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}

	freeze := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		}},
	}
	if _, err := c.srv.Spreadsheets.BatchUpdate(spreadsheetID, freeze).Context(ctx).Do(); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	c.logger.Info("export.sheet.ok", "spreadsheet_id", spreadsheetID, "rows", len(values))
	return nil
}
