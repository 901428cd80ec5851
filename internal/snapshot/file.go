package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"insights/internal/logger"
	"insights/pkg/models"
)

// FileSource reads a snapshot from a JSON document on disk. Amounts are
// decimal currency values in the document and are converted to cents;
// dates are RFC 3339 or plain YYYY-MM-DD.
type FileSource struct {
	path string
	log  zerolog.Logger
}

// NewFileSource creates a snapshot source backed by the given JSON file.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path: path,
		log:  logger.WithComponent("snapshot-file"),
	}
}

// snapshotDocument is the on-disk JSON shape, with references by id.
type snapshotDocument struct {
	Clients  []clientRecord  `json:"clients"`
	Items    []itemRecord    `json:"items"`
	Invoices []invoiceRecord `json:"invoices"`
}

type clientRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Status  string `json:"status"`
}

type itemRecord struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Status    string  `json:"status"`
}

type invoiceRecord struct {
	ID            string   `json:"id"`
	InvoiceNumber string   `json:"invoice_number"`
	ClientID      string   `json:"client_id"`
	ItemIDs       []string `json:"item_ids"`
	Total         float64  `json:"total"`
	Status        string   `json:"status"`
	IssueDate     string   `json:"issue_date"`
	DueDate       string   `json:"due_date"`
}

// Fetch reads and parses the snapshot file, resolving invoice references
// against the client list and item catalogue. Malformed records are
// skipped with a warning, never fatal.
func (fs *FileSource) Fetch(ctx context.Context) (*Snapshot, error) {
	const op = "Fetch"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read snapshot file %s: %w", op, fs.path, err)
	}

	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: failed to parse snapshot file %s: %w", op, fs.path, err)
	}

	snap := fs.resolve(&doc)

	fs.log.Info().
		Str("path", fs.path).
		Int("invoices", len(snap.Invoices)).
		Int("clients", len(snap.Clients)).
		Int("items", len(snap.Items)).
		Msg("Snapshot loaded from file")

	return snap, nil
}

// resolve turns the id-referenced document into a snapshot with resolved
// records.
func (fs *FileSource) resolve(doc *snapshotDocument) *Snapshot {
	snap := &Snapshot{}

	clients := make(map[string]*models.Client, len(doc.Clients))
	for _, rec := range doc.Clients {
		if rec.ID == "" {
			fs.log.Warn().Str("name", rec.Name).Msg("Client record without id, skipping")
			continue
		}
		client := models.Client{
			ID:      rec.ID,
			Name:    rec.Name,
			Email:   rec.Email,
			Phone:   rec.Phone,
			Address: rec.Address,
			Status:  rec.Status,
		}
		snap.Clients = append(snap.Clients, client)
	}
	for i := range snap.Clients {
		clients[snap.Clients[i].ID] = &snap.Clients[i]
	}

	items := make(map[string]models.Item, len(doc.Items))
	for _, rec := range doc.Items {
		if rec.ID == "" {
			fs.log.Warn().Str("name", rec.Name).Msg("Item record without id, skipping")
			continue
		}
		item := models.Item{
			ID:        rec.ID,
			Name:      rec.Name,
			UnitPrice: toCents(rec.UnitPrice),
			Quantity:  rec.Quantity,
			Status:    rec.Status,
		}
		snap.Items = append(snap.Items, item)
		items[item.ID] = item
	}

	for _, rec := range doc.Invoices {
		if rec.ID == "" {
			fs.log.Warn().Str("invoice_number", rec.InvoiceNumber).Msg("Invoice record without id, skipping")
			continue
		}

		inv := models.Invoice{
			ID:            rec.ID,
			InvoiceNumber: rec.InvoiceNumber,
			Total:         toCents(rec.Total),
			Status:        rec.Status,
			IssueDate:     parseDate(rec.IssueDate),
			DueDate:       parseDate(rec.DueDate),
		}

		if client, ok := clients[rec.ClientID]; ok {
			inv.Client = client
		} else {
			fs.log.Warn().
				Str("invoice_id", rec.ID).
				Str("client_id", rec.ClientID).
				Msg("Invoice references unknown client, keeping with unresolved reference")
		}

		for _, itemID := range rec.ItemIDs {
			if item, ok := items[itemID]; ok {
				inv.Items = append(inv.Items, item)
			} else {
				fs.log.Warn().
					Str("invoice_id", rec.ID).
					Str("item_id", itemID).
					Msg("Invoice references unknown item, skipping line")
			}
		}

		snap.Invoices = append(snap.Invoices, inv)
	}

	return snap
}

// toCents converts a decimal currency amount to cents.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
// Unparseable dates become the zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, format := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
