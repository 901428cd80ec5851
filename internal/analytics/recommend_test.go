package analytics_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/internal/analytics"
	"insights/pkg/models"
)

func purchaseInvoice(id string, client *models.Client, items ...models.Item) models.Invoice {
	var total int64
	for _, it := range items {
		total += it.UnitPrice
	}
	return models.Invoice{
		ID: id, Client: client, Items: items, Total: total,
		Status: models.InvoiceStatusPaid, IssueDate: daysAgo(30),
	}
}

func TestRecommendProductsOverlappingClients(t *testing.T) {
	// A bought {P1,P2}, B bought {P2,P3}, target C bought {P2}.
	// Similarity(A,C) = 1/max(1,2) = 0.5, Similarity(B,C) = 0.5.
	p1 := item("P1", "Paper", 1000)
	p2 := item("P2", "Pens", 500)
	p3 := item("P3", "Pencils", 300)
	catalogue := []models.Item{p1, p2, p3}

	clientA := activeClient("a", "Anna Ltd")
	clientB := activeClient("b", "Bern Co")
	clientC := activeClient("c", "Cara Inc")

	invoices := []models.Invoice{
		purchaseInvoice("i1", clientA, p1, p2),
		purchaseInvoice("i2", clientB, p2, p3),
		purchaseInvoice("i3", clientC, p2),
	}

	recommendations := analytics.RecommendProducts("c", invoices, catalogue)
	require.Len(t, recommendations, 2)

	// Equal scores fall back to item id order: P1 before P3.
	first := recommendations[0]
	assert.Equal(t, "P1", first.ItemID)
	assert.Equal(t, "Paper", first.ItemName)
	assert.Equal(t, int64(1000), first.UnitPrice)
	assert.InDelta(t, 0.5, first.Score, 0.001)
	require.Len(t, first.Reasons, 1)
	assert.Contains(t, first.Reasons[0], "Anna Ltd")

	second := recommendations[1]
	assert.Equal(t, "P3", second.ItemID)
	assert.InDelta(t, 0.5, second.Score, 0.001)
	require.Len(t, second.Reasons, 1)
	assert.Contains(t, second.Reasons[0], "Bern Co")
}

func TestRecommendProductsNeverReturnsOwnedItems(t *testing.T) {
	p1 := item("P1", "Paper", 1000)
	p2 := item("P2", "Pens", 500)

	clientA := activeClient("a", "Anna Ltd")
	clientC := activeClient("c", "Cara Inc")

	invoices := []models.Invoice{
		purchaseInvoice("i1", clientA, p1, p2),
		purchaseInvoice("i2", clientC, p1, p2),
	}

	recommendations := analytics.RecommendProducts("c", invoices, []models.Item{p1, p2})
	assert.Empty(t, recommendations)
}

func TestRecommendProductsCapsAtFiveSortedDescending(t *testing.T) {
	shared := item("S", "Shared", 100)
	catalogue := []models.Item{shared}
	clientC := activeClient("c", "Cara Inc")

	invoices := []models.Invoice{purchaseInvoice("target", clientC, shared)}

	// Eight similar clients, each contributing one distinct candidate
	// item on top of the shared one. Clients with more items have lower
	// similarity, so candidate scores differ.
	for i := 0; i < 8; i++ {
		peer := activeClient(fmt.Sprintf("peer%d", i), fmt.Sprintf("Peer %d", i))
		lineItems := []models.Item{shared}
		for j := 0; j <= i; j++ {
			extra := item(fmt.Sprintf("X%d-%d", i, j), fmt.Sprintf("Extra %d-%d", i, j), 100)
			catalogue = append(catalogue, extra)
			lineItems = append(lineItems, extra)
		}
		invoices = append(invoices, purchaseInvoice(fmt.Sprintf("i%d", i), peer, lineItems...))
	}

	recommendations := analytics.RecommendProducts("c", invoices, catalogue)
	require.Len(t, recommendations, analytics.MaxRecommendations)

	for i := 1; i < len(recommendations); i++ {
		assert.GreaterOrEqual(t, recommendations[i-1].Score, recommendations[i].Score)
	}
	for _, rec := range recommendations {
		assert.NotEqual(t, "S", rec.ItemID)
	}
}

func TestRecommendProductsFallsBackForDeletedItems(t *testing.T) {
	p1 := item("P1", "Paper", 1000)
	ghost := item("P9", "Ghost", 700)

	clientA := activeClient("a", "Anna Ltd")
	clientC := activeClient("c", "Cara Inc")

	invoices := []models.Invoice{
		purchaseInvoice("i1", clientA, p1, ghost),
		purchaseInvoice("i2", clientC, p1),
	}

	// P9 was purchased but has since been deleted from the catalogue.
	recommendations := analytics.RecommendProducts("c", invoices, []models.Item{p1})
	require.Len(t, recommendations, 1)
	assert.Equal(t, "P9", recommendations[0].ItemID)
	assert.Equal(t, "Unknown Item", recommendations[0].ItemName)
	assert.Equal(t, "unknown", recommendations[0].Status)
	assert.Equal(t, int64(0), recommendations[0].UnitPrice)
}

func TestRecommendProductsNoPurchaseHistory(t *testing.T) {
	p1 := item("P1", "Paper", 1000)
	clientA := activeClient("a", "Anna Ltd")

	invoices := []models.Invoice{purchaseInvoice("i1", clientA, p1)}

	assert.Empty(t, analytics.RecommendProducts("nobody", invoices, []models.Item{p1}))
}

func TestRecommendProductsAccumulatesAcrossSimilarClients(t *testing.T) {
	p1 := item("P1", "Paper", 1000)
	p2 := item("P2", "Pens", 500)

	clientA := activeClient("a", "Anna Ltd")
	clientB := activeClient("b", "Bern Co")
	clientC := activeClient("c", "Cara Inc")

	// Both A and B bought exactly {P1,P2}; C bought {P1}. Each peer has
	// similarity 0.5 and P2 accumulates both contributions.
	invoices := []models.Invoice{
		purchaseInvoice("i1", clientA, p1, p2),
		purchaseInvoice("i2", clientB, p1, p2),
		purchaseInvoice("i3", clientC, p1),
	}

	recommendations := analytics.RecommendProducts("c", invoices, []models.Item{p1, p2})
	require.Len(t, recommendations, 1)
	assert.Equal(t, "P2", recommendations[0].ItemID)
	assert.InDelta(t, 1.0, recommendations[0].Score, 0.001)
	assert.Len(t, recommendations[0].Reasons, 2)
}
