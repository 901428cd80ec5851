// Package snapshot loads the flat data snapshot the analytics engine
// operates on: invoices with resolved client and item references, the
// active client list and the item catalogue. A snapshot is fetched fresh
// for every analytics request; nothing is cached between fetches.
package snapshot

import (
	"context"

	"insights/pkg/models"
)

// Snapshot is the in-memory copy of current data used for one analytics
// request.
type Snapshot struct {
	Invoices []models.Invoice
	Clients  []models.Client
	Items    []models.Item
}

// ActiveClients returns the clients that participate in analytics.
func (s *Snapshot) ActiveClients() []models.Client {
	var active []models.Client
	for _, c := range s.Clients {
		if c.IsActive() {
			active = append(active, c)
		}
	}
	return active
}

// Source supplies snapshots from the storage collaborator. Fetch is the
// only I/O-bound step in query processing; implementations own their
// consistency guarantees.
type Source interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}
