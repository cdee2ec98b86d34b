package cart

import "github.com/marchelocal/marchelocal-backend/pkg/db/models"

// recomputeTotals reconciles every line total against quantity and the stored
// unit price snapshot, and returns the resulting cart total. Every mutation
// runs through this before anything is persisted, so the stored aggregate can
// never drift from its lines.
func recomputeTotals(items []models.CartItem) int {
	total := 0
	for i := range items {
		items[i].LineTotalCents = items[i].Quantity * items[i].UnitPriceCents
		total += items[i].LineTotalCents
	}
	return total
}
