package counterparties

import "time"

// Kind distinguishes vendors from customers.
type Kind string

const (
	KindVendor   Kind = "vendor"
	KindCustomer Kind = "customer"
)

// Kinds lists every counterparty kind in sync order.
var Kinds = []Kind{KindVendor, KindCustomer}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindVendor || k == KindCustomer
}

// DimensionName is the dimension whose active values define the kind's roster.
func (k Kind) DimensionName() string {
	if k == KindCustomer {
		return "Customer"
	}
	return "Vendor"
}

func (k Kind) table() string {
	if k == KindCustomer {
		return "customers"
	}
	return "vendors"
}

// Counterparty is a vendor or customer of a company. Display names are unique
// per company among active rows and among inactive rows.
type Counterparty struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Kind        Kind      `json:"kind"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SyncResult counts the changes one sync applied.
type SyncResult struct {
	Created     int `json:"created"`
	Reactivated int `json:"reactivated"`
	Deactivated int `json:"deactivated"`
	Unchanged   int `json:"unchanged"`
}

func (r *SyncResult) add(o SyncResult) {
	r.Created += o.Created
	r.Reactivated += o.Reactivated
	r.Deactivated += o.Deactivated
	r.Unchanged += o.Unchanged
}
