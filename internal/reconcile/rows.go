package reconcile

import "time"

// sheetTimeLayout is the datetime format the spreadsheet sink expects.
const sheetTimeLayout = "02-01-2006 15:04:05"

const hoursPerDay = 24

// Row is one flattened export line, one per reconciled lead.
type Row struct {
	LeadID          int64    `json:"lead_id"`
	ContactID       int64    `json:"contact_id"`
	CustomerID      *int64   `json:"customer_id,omitempty"`
	Price           float64  `json:"price"`
	CreatedAt       string   `json:"created_at,omitempty"`
	ClosedAt        string   `json:"closed_at,omitempty"`
	ShipmentAt      string   `json:"shipment_at,omitempty"`
	CleanPrice      float64  `json:"clean_price"`
	LastBuyDays     *float64 `json:"last_buy_days,omitempty"`
	AttestationDays *float64 `json:"attestation_days,omitempty"`
}

// Rows flattens reconciled records into export rows.
func Rows(records []Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row{
			LeadID:          rec.Lead.ID,
			ContactID:       rec.Contact.ID,
			CustomerID:      rec.Contact.CustomerID,
			Price:           ToAmount(rec.Lead.Price),
			CreatedAt:       FormatInstant(rec.Lead.CreatedAt),
			ClosedAt:        FormatInstant(rec.Lead.ClosedAt),
			ShipmentAt:      FormatInstant(rec.Lead.ShipmentAt),
			CleanPrice:      rec.Lead.CleanPrice,
			LastBuyDays:     durationDays(rec.Lead.LastBuy),
			AttestationDays: durationDays(rec.Lead.TimeFromAttestation),
		})
	}
	return rows
}

// FormatInstant renders an instant in the sheet layout, empty for nil.
func FormatInstant(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(sheetTimeLayout)
}

func durationDays(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	days := d.Hours() / hoursPerDay
	return &days
}
