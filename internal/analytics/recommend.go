package analytics

import (
	"fmt"
	"sort"

	"insights/pkg/models"
)

// MaxRecommendations caps the recommendation list per client.
const MaxRecommendations = 5

// Catalogue fallbacks for items that were deleted after being purchased.
const (
	unknownItemName   = "Unknown Item"
	unknownItemStatus = "unknown"
)

// Recommendation is a single ranked product suggestion for a client.
type Recommendation struct {
	ItemID    string   `json:"item_id"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`
	ItemName  string   `json:"item_name"`
	UnitPrice int64    `json:"unit_price"`
	Status    string   `json:"status"`
}

// RecommendProducts ranks up to MaxRecommendations items the target client
// has not yet purchased, using item-based collaborative filtering: for
// every other active client with overlapping purchase history, similarity
// is the overlap ratio |T∩S| / max(|T|, |S|), and each of that client's
// items accumulates the similarity as its score. Ties are broken by item
// id so the ordering is deterministic.
func RecommendProducts(clientID string, invoices []models.Invoice, items []models.Item) []*Recommendation {
	// Purchased item-id sets per client, plus names for the reasons.
	purchases := make(map[string]map[string]struct{})
	clientNames := make(map[string]string)

	for _, inv := range invoices {
		if inv.Client == nil {
			continue
		}
		if inv.Client.ID != clientID && !inv.Client.IsActive() {
			continue
		}
		set, ok := purchases[inv.Client.ID]
		if !ok {
			set = make(map[string]struct{})
			purchases[inv.Client.ID] = set
			clientNames[inv.Client.ID] = inv.Client.Name
		}
		for _, item := range inv.Items {
			set[item.ID] = struct{}{}
		}
	}

	target, ok := purchases[clientID]
	if !ok || len(target) == 0 {
		return nil
	}

	// Stable iteration order over the other clients keeps the accumulated
	// reasons deterministic.
	otherIDs := make([]string, 0, len(purchases))
	for id := range purchases {
		if id != clientID {
			otherIDs = append(otherIDs, id)
		}
	}
	sort.Strings(otherIDs)

	type candidate struct {
		score   float64
		reasons []string
	}
	candidates := make(map[string]*candidate)

	for _, otherID := range otherIDs {
		other := purchases[otherID]

		overlap := 0
		for id := range target {
			if _, ok := other[id]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		denom := len(target)
		if len(other) > denom {
			denom = len(other)
		}
		similarity := float64(overlap) / float64(denom)
		reason := fmt.Sprintf("Purchased by %s, whose buying history overlaps this client's (similarity %.2f)",
			clientNames[otherID], similarity)

		for itemID := range other {
			if _, owned := target[itemID]; owned {
				continue
			}
			c, ok := candidates[itemID]
			if !ok {
				c = &candidate{}
				candidates[itemID] = c
			}
			c.score += similarity
			c.reasons = append(c.reasons, reason)
		}
	}

	catalogue := make(map[string]models.Item, len(items))
	for _, item := range items {
		catalogue[item.ID] = item
	}

	recommendations := make([]*Recommendation, 0, len(candidates))
	for itemID, c := range candidates {
		rec := &Recommendation{
			ItemID:    itemID,
			Score:     c.score,
			Reasons:   c.reasons,
			ItemName:  unknownItemName,
			UnitPrice: 0,
			Status:    unknownItemStatus,
		}
		if item, ok := catalogue[itemID]; ok {
			rec.ItemName = item.Name
			rec.UnitPrice = item.UnitPrice
			rec.Status = item.Status
		}
		recommendations = append(recommendations, rec)
	}

	sort.Slice(recommendations, func(i, j int) bool {
		if recommendations[i].Score != recommendations[j].Score {
			return recommendations[i].Score > recommendations[j].Score
		}
		return recommendations[i].ItemID < recommendations[j].ItemID
	})

	if len(recommendations) > MaxRecommendations {
		recommendations = recommendations[:MaxRecommendations]
	}
	return recommendations
}
