// Package models defines the snapshot record types consumed by the
// analytics engine: invoices, clients and catalogue items as supplied by
// the storage collaborator, with client and item references already
// resolved to full records.
package models

import "time"

// Invoice status values.
const (
	InvoiceStatusPaid   = "paid"
	InvoiceStatusUnpaid = "unpaid"
)

// Client status values.
const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
)

// Item status values.
const (
	ItemStatusInStock    = "in-stock"
	ItemStatusOutOfStock = "out-of-stock"
)

// Invoice represents a single invoice with resolved references.
// Immutable once created except Status.
type Invoice struct {
	ID            string
	InvoiceNumber string // Human-readable invoice number

	Client *Client // Resolved client reference (nil if the client was deleted)
	Items  []Item  // Ordered resolved line item references

	// Total is the invoice total in cents/smallest currency unit to avoid
	// float issues. Equals the sum of line item unit prices at creation time.
	Total int64

	Status    string // "paid" or "unpaid"
	IssueDate time.Time
	DueDate   time.Time
}

// IsPaid reports whether the invoice has been paid.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsOverdue reports whether the invoice is unpaid and past its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return !i.IsPaid() && i.DueDate.Before(now)
}

// DaysOverdue returns how many whole days the invoice is past due at now.
// Returns 0 for invoices that are paid or not yet due.
func (i *Invoice) DaysOverdue(now time.Time) int {
	if !i.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(i.DueDate).Hours() / 24)
}

// Client represents a client record. Only active clients participate
// in analytics.
type Client struct {
	ID      string
	Name    string
	Email   string // Optional
	Phone   string // Optional
	Address string // Optional

	Status string // "active" or "inactive"
}

// IsActive reports whether the client participates in analytics.
func (c *Client) IsActive() bool {
	return c.Status == ClientStatusActive
}

// Item represents a catalogue item record.
type Item struct {
	ID   string
	Name string

	// UnitPrice in cents/smallest currency unit.
	UnitPrice int64

	Quantity int    // Units on hand
	Status   string // "in-stock" or "out-of-stock"
}
