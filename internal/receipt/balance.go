package receipt

import (
	"github.com/tabsplit/tabsplit/internal/money"
)

// Status classifies a claimant's payment state against their obligation.
type Status string

const (
	StatusPaid    Status = "PAID"
	StatusPartial Status = "PARTIAL"
	StatusUnpaid  Status = "UNPAID"
)

// PersonBalance is one claimant's obligation reconciled against payments.
type PersonBalance struct {
	Total   float64 `json:"total"`
	Paid    float64 `json:"paid"`
	Balance float64 `json:"balance"`
	Status  Status  `json:"status"`
}

// OwedEntry pairs a claimant with their outstanding balance.
type OwedEntry struct {
	Person  string  `json:"person"`
	Balance float64 `json:"balance"`
}

// Balances reconciles every claimant's payments against their computed
// obligation.
type Balances struct {
	PerPerson map[string]PersonBalance `json:"per_person"`

	TotalOwed        float64 `json:"total_owed"`
	TotalPaid        float64 `json:"total_paid"`
	RemainingBalance float64 `json:"remaining_balance"`

	// Owing lists claimants who still owe more than the settlement
	// tolerance, in the split's claim order.
	Owing []OwedEntry `json:"owing"`
}

// ComputeBalances merges a receipt's payment records against the computed
// split. A balance within money.Epsilon counts as paid; overpayment never
// breaks the computation.
func ComputeBalances(r *Receipt, split *Split) *Balances {
	balances := &Balances{
		PerPerson: make(map[string]PersonBalance),
		Owing:     []OwedEntry{},
	}

	for _, person := range split.Order {
		share := split.PerPerson[person]
		paid := r.Payments[person]
		balance := share.Total - paid

		status := StatusUnpaid
		switch {
		case balance < 0 || money.IsZero(balance):
			status = StatusPaid
		case paid > 0:
			status = StatusPartial
		}

		balances.PerPerson[person] = PersonBalance{
			Total:   share.Total,
			Paid:    paid,
			Balance: balance,
			Status:  status,
		}
		balances.TotalOwed += share.Total
		balances.TotalPaid += paid

		if balance > money.Epsilon {
			balances.Owing = append(balances.Owing, OwedEntry{
				Person:  person,
				Balance: balance,
			})
		}
	}

	balances.RemainingBalance = balances.TotalOwed - balances.TotalPaid
	return balances
}
