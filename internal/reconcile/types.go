// Package reconcile implements the per-customer purchase reconciliation engine.
// It joins CRM leads to their contacts, orders them by shipment time and
// derives running aggregates: clean purchase total strictly before each event,
// time since the previous purchase and time since attestation.
package reconcile

import "time"

// Lead is a CRM deal record decoded at the client boundary.
// CleanPrice, LastBuy and TimeFromAttestation are derived by the engine and
// written once per run; they carry no meaning on input.
type Lead struct {
	ID         int64
	Price      *float64
	CreatedAt  *time.Time
	ClosedAt   *time.Time
	ContactID  *int64
	ShipmentAt *time.Time

	CleanPrice          float64
	LastBuy             *time.Duration
	TimeFromAttestation *time.Duration
}

// Contact is a CRM person record linked to at most one customer.
type Contact struct {
	ID         int64
	CustomerID *int64
	AttestedAt *time.Time
}

// Record pairs one lead with its owning contact. The ordering anchor is the
// lead's shipment time.
type Record struct {
	Lead    Lead
	Contact Contact
}

// Anchor returns the record's chronological anchor, nil when absent.
func (r Record) Anchor() *time.Time {
	return r.Lead.ShipmentAt
}
