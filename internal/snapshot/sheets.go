package snapshot

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"insights/internal/logger"
	"insights/pkg/models"
)

// Worksheet names the sheets source reads.
const (
	clientsSheet  = "Clients"
	itemsSheet    = "Items"
	invoicesSheet = "Invoices"
)

// SheetsSource reads a snapshot from a Google spreadsheet with Clients,
// Items and Invoices worksheets.
//
// Expected columns:
//
//	Clients:  A=ID, B=Name, C=Email, D=Phone, E=Address, F=Status
//	Items:    A=ID, B=Name, C=UnitPrice, D=Quantity, E=Status
//	Invoices: A=ID, B=InvoiceNumber, C=ClientID, D=ItemIDs (comma separated),
//	          E=Total, F=Status, G=IssueDate, H=DueDate
//
// Required environment variables:
//
//	GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
//	GOOGLE_CREDENTIALS - Inline JSON credentials string
type SheetsSource struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewSheetsSource creates a snapshot source backed by a Google spreadsheet.
func NewSheetsSource(ctx context.Context, sheetURL string) (*SheetsSource, error) {
	const op = "NewSheetsSource"

	log := logger.WithComponent("snapshot-sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	client := config.Client(ctx)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &SheetsSource{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	re := regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	matches := re.FindStringSubmatch(url)

	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}

	return matches[1], nil
}

// Fetch reads all three worksheets and resolves invoice references.
// Rows that cannot be parsed are skipped with a warning.
func (ss *SheetsSource) Fetch(ctx context.Context) (*Snapshot, error) {
	const op = "Fetch"

	snap := &Snapshot{}

	clientRows, err := ss.readRange(ctx, clientsSheet+"!A2:F")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, clientsSheet, err)
	}
	clients := make(map[string]*models.Client)
	for i, row := range clientRows {
		rowNum := i + 2
		id := getString(row, 0)
		if id == "" {
			ss.log.Warn().Int("row", rowNum).Str("sheet", clientsSheet).Msg("Skipping client row without id")
			continue
		}
		snap.Clients = append(snap.Clients, models.Client{
			ID:      id,
			Name:    getString(row, 1),
			Email:   getString(row, 2),
			Phone:   getString(row, 3),
			Address: getString(row, 4),
			Status:  getString(row, 5),
		})
	}
	for i := range snap.Clients {
		clients[snap.Clients[i].ID] = &snap.Clients[i]
	}

	itemRows, err := ss.readRange(ctx, itemsSheet+"!A2:E")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, itemsSheet, err)
	}
	items := make(map[string]models.Item)
	for i, row := range itemRows {
		rowNum := i + 2
		id := getString(row, 0)
		if id == "" {
			ss.log.Warn().Int("row", rowNum).Str("sheet", itemsSheet).Msg("Skipping item row without id")
			continue
		}
		price, err := parseAmount(getString(row, 2))
		if err != nil {
			ss.log.Warn().Err(err).Int("row", rowNum).Str("sheet", itemsSheet).Msg("Invalid unit price, skipping item row")
			continue
		}
		quantity, _ := strconv.Atoi(getString(row, 3))
		item := models.Item{
			ID:        id,
			Name:      getString(row, 1),
			UnitPrice: price,
			Quantity:  quantity,
			Status:    getString(row, 4),
		}
		snap.Items = append(snap.Items, item)
		items[item.ID] = item
	}

	invoiceRows, err := ss.readRange(ctx, invoicesSheet+"!A2:H")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, invoicesSheet, err)
	}
	for i, row := range invoiceRows {
		rowNum := i + 2
		inv, ok := ss.parseInvoiceRow(row, rowNum, clients, items)
		if !ok {
			continue
		}
		snap.Invoices = append(snap.Invoices, inv)
	}

	ss.log.Info().
		Int("invoices", len(snap.Invoices)).
		Int("clients", len(snap.Clients)).
		Int("items", len(snap.Items)).
		Msg("Snapshot loaded from Google Sheets")

	return snap, nil
}

// parseInvoiceRow parses one invoice row and resolves its references.
func (ss *SheetsSource) parseInvoiceRow(row []interface{}, rowNum int, clients map[string]*models.Client, items map[string]models.Item) (models.Invoice, bool) {
	id := getString(row, 0)
	if id == "" {
		ss.log.Warn().Int("row", rowNum).Str("sheet", invoicesSheet).Msg("Skipping invoice row without id")
		return models.Invoice{}, false
	}

	total, err := parseAmount(getString(row, 4))
	if err != nil {
		ss.log.Warn().Err(err).Int("row", rowNum).Str("sheet", invoicesSheet).Msg("Invalid invoice total, skipping row")
		return models.Invoice{}, false
	}

	inv := models.Invoice{
		ID:            id,
		InvoiceNumber: getString(row, 1),
		Total:         total,
		Status:        getString(row, 5),
		IssueDate:     parseDate(getString(row, 6)),
		DueDate:       parseDate(getString(row, 7)),
	}

	clientID := getString(row, 2)
	if client, ok := clients[clientID]; ok {
		inv.Client = client
	} else {
		ss.log.Warn().
			Int("row", rowNum).
			Str("client_id", clientID).
			Msg("Invoice references unknown client, keeping with unresolved reference")
	}

	for _, itemID := range strings.Split(getString(row, 3), ",") {
		itemID = strings.TrimSpace(itemID)
		if itemID == "" {
			continue
		}
		if item, ok := items[itemID]; ok {
			inv.Items = append(inv.Items, item)
		} else {
			ss.log.Warn().
				Int("row", rowNum).
				Str("item_id", itemID).
				Msg("Invoice references unknown item, skipping line")
		}
	}

	return inv, true
}

// readRange reads values from a specified range in the spreadsheet
func (ss *SheetsSource) readRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "readRange"

	ss.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := ss.sheetsService.Spreadsheets.Values.Get(ss.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	return resp.Values, nil
}

// parseAmount parses a decimal currency amount into cents.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	// Tolerate a comma decimal separator from locale-formatted sheets.
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse amount: %s", s)
	}
	return toCents(amount), nil
}

// getString safely extracts a string value from a row slice
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
