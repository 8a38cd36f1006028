package domain

// Product is the catalog snapshot a transfer is validated against.
type Product struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
}

// RevalidateSelection re-checks a client-reported product selection against
// the catalog snapshot: every selected product must exist, belong to
// sellerID, and the summed prices must equal the client-reported total.
// Client-echoed totals are never trusted; this runs before any debit.
func RevalidateSelection(catalog []Product, sellerID string, productIDs []string, reportedTotal int64) error {
	if len(productIDs) == 0 {
		return ErrProductValidation
	}
	byID := make(map[string]Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}
	var total int64
	for _, id := range productIDs {
		p, ok := byID[id]
		if !ok || p.SellerID != sellerID {
			return ErrProductValidation
		}
		total += p.Price
	}
	if total != reportedTotal {
		return ErrProductValidation
	}
	return nil
}
