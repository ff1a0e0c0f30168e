package receipt

import (
	"github.com/tabsplit/tabsplit/internal/money"
)

// PersonShare is one claimant's computed share of a receipt.
type PersonShare struct {
	Subtotal   float64 `json:"subtotal"`
	Proportion float64 `json:"proportion"`
	TaxShare   float64 `json:"tax_share"`
	TipShare   float64 `json:"tip_share"`
	Total      float64 `json:"total"`
	Items      []Item  `json:"items"`
}

// Split is the full breakdown of a receipt across its claimants.
type Split struct {
	// PerPerson maps claimant name to their share. Order lists the same
	// names in first-claim order, for stable iteration and display.
	PerPerson map[string]*PersonShare `json:"per_person"`
	Order     []string                `json:"order"`

	// Unclaimed lists items nobody has claimed. They count toward
	// TotalItemsValue but toward nobody's share.
	Unclaimed []Item `json:"unclaimed"`

	TotalItemsValue float64 `json:"total_items_value"`
	TotalBill       float64 `json:"total_bill"`
}

// ComputeSplit computes each claimant's subtotal, proportional tax and tip
// shares, and total obligation.
//
// An item claimed by several people contributes its full price to each
// claimant's subtotal; it is not divided by the number of claimers. This is
// the product's established behavior and changing it would alter everyone's
// totals, so it is preserved deliberately.
func ComputeSplit(r *Receipt) *Split {
	split := &Split{
		PerPerson: make(map[string]*PersonShare),
		Order:     []string{},
		Unclaimed: []Item{},
	}

	for _, item := range r.Items {
		split.TotalItemsValue += item.Price
		if len(item.ClaimedBy) == 0 {
			split.Unclaimed = append(split.Unclaimed, item)
			continue
		}
		for _, person := range item.ClaimedBy {
			share, ok := split.PerPerson[person]
			if !ok {
				share = &PersonShare{Items: []Item{}}
				split.PerPerson[person] = share
				split.Order = append(split.Order, person)
			}
			share.Subtotal += item.Price
			share.Items = append(share.Items, item)
		}
	}

	split.TotalBill = split.TotalItemsValue + r.Tax + r.Tip

	for _, share := range split.PerPerson {
		// Guard: a receipt of zero-value items yields zero proportions.
		if split.TotalItemsValue > 0 {
			share.Proportion = share.Subtotal / split.TotalItemsValue
		}
		share.TaxShare = money.Scale(r.Tax, share.Proportion)
		share.TipShare = money.Scale(r.Tip, share.Proportion)
		share.Total = share.Subtotal + share.TaxShare + share.TipShare
	}

	return split
}
