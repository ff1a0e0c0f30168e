// Package receipt implements shared-receipt bill splitting: a host enters
// line items plus tax and tip, guests claim the items they ordered, and each
// claimant owes their subtotal plus a proportional share of tax and tip.
package receipt

import (
	"time"
)

// DefaultName is used when a receipt is published without a name.
const DefaultName = "Untitled Receipt"

// Receipt is the aggregate root. Hosts mutate items, tax, and tip while the
// receipt is a draft; after publication both host and guests mutate claims,
// payments, and confirmations. Concurrent edits are resolved last-write-wins
// at the store; no merge is attempted.
type Receipt struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	Items []Item  `json:"items"`
	Tax   float64 `json:"tax"`
	Tip   float64 `json:"tip"`

	// Payments maps claimant name to the amount paid so far. Names are
	// case-sensitive opaque strings; a missing key means zero paid.
	Payments map[string]float64 `json:"payments,omitempty"`

	// ConfirmedGuests holds advisory "these are my final items" snapshots.
	// A snapshot can go stale if items change afterward; that is a display
	// inconsistency, not an error.
	ConfirmedGuests map[string]Confirmation `json:"confirmedGuests,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Item is one receipt line. Price must be strictly positive.
type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`

	// ClaimedBy lists claimant names without duplicates. Claiming twice by
	// the same name removes it (toggle semantics). Order is incidental claim
	// order, preserved for display only.
	ClaimedBy []string `json:"claimedBy"`
}

// ClaimedByPerson reports whether the named guest has claimed this item.
func (i *Item) ClaimedByPerson(name string) bool {
	for _, n := range i.ClaimedBy {
		if n == name {
			return true
		}
	}
	return false
}

// Confirmation is a guest's snapshot of their selection at confirm time.
type Confirmation struct {
	ConfirmedAt time.Time `json:"confirmedAt"`
	Items       []string  `json:"items"`
	Total       float64   `json:"total"`
}

// New returns an empty draft receipt.
func New() *Receipt {
	return &Receipt{Items: []Item{}}
}

// AddItem appends a line item. The name must be non-empty and the price
// strictly positive.
func (r *Receipt) AddItem(id, name string, price float64) (*Item, error) {
	if name == "" {
		return nil, &ValidationError{Message: "item name is required"}
	}
	if price <= 0 {
		return nil, &ValidationError{Message: "item price must be greater than zero"}
	}
	r.Items = append(r.Items, Item{
		ID:        id,
		Name:      name,
		Price:     price,
		ClaimedBy: []string{},
	})
	return &r.Items[len(r.Items)-1], nil
}

// DeleteItem removes the item with the given ID. Deleting an unknown ID is a
// no-op, matching the tolerant behavior of the host form.
func (r *Receipt) DeleteItem(itemID string) {
	items := r.Items[:0]
	for _, item := range r.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	r.Items = items
}

// Item returns the item with the given ID.
func (r *Receipt) Item(itemID string) (*Item, bool) {
	for i := range r.Items {
		if r.Items[i].ID == itemID {
			return &r.Items[i], true
		}
	}
	return nil, false
}

// SetDetails updates the receipt name, tax, and tip. Tax and tip are
// absolute amounts, not percentages, and may not be negative.
func (r *Receipt) SetDetails(name string, tax, tip float64) error {
	if tax < 0 {
		return &ValidationError{Message: "tax must not be negative"}
	}
	if tip < 0 {
		return &ValidationError{Message: "tip must not be negative"}
	}
	r.Name = name
	r.Tax = tax
	r.Tip = tip
	return nil
}

// ToggleClaim flips the named guest's membership in an item's claim set and
// clears any confirmation that guest had recorded, since their totals just
// changed.
func (r *Receipt) ToggleClaim(itemID, person string) error {
	if person == "" {
		return &ValidationError{Message: "claimant name is required"}
	}
	item, ok := r.Item(itemID)
	if !ok {
		return &NotFoundError{Kind: "item", ID: itemID}
	}
	for i, name := range item.ClaimedBy {
		if name == person {
			item.ClaimedBy = append(item.ClaimedBy[:i], item.ClaimedBy[i+1:]...)
			r.ClearConfirmation(person)
			return nil
		}
	}
	item.ClaimedBy = append(item.ClaimedBy, person)
	r.ClearConfirmation(person)
	return nil
}

// RecordPayment sets the amount the named guest has paid so far. Negative
// input is clamped to zero rather than rejected. Overpayment is allowed.
func (r *Receipt) RecordPayment(person string, amount float64) error {
	if person == "" {
		return &ValidationError{Message: "claimant name is required"}
	}
	if amount < 0 {
		amount = 0
	}
	if r.Payments == nil {
		r.Payments = make(map[string]float64)
	}
	r.Payments[person] = amount
	return nil
}

// Confirm records the named guest's selection snapshot: their claimed item
// names and computed total at this moment. The guest must have claimed at
// least one item.
func (r *Receipt) Confirm(person string, at time.Time) error {
	if person == "" {
		return &ValidationError{Message: "claimant name is required"}
	}
	split := ComputeSplit(r)
	share, ok := split.PerPerson[person]
	if !ok || len(share.Items) == 0 {
		return &ValidationError{Message: "no items selected"}
	}
	names := make([]string, len(share.Items))
	for i, item := range share.Items {
		names[i] = item.Name
	}
	if r.ConfirmedGuests == nil {
		r.ConfirmedGuests = make(map[string]Confirmation)
	}
	r.ConfirmedGuests[person] = Confirmation{
		ConfirmedAt: at,
		Items:       names,
		Total:       share.Total,
	}
	return nil
}

// ClearConfirmation removes the named guest's confirmation snapshot, if any.
func (r *Receipt) ClearConfirmation(person string) {
	delete(r.ConfirmedGuests, person)
}
