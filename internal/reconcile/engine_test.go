package reconcile

import (
	"testing"
	"time"

	"crmhub_backend/platform/logger"
)

func testEngine() *Engine {
	return NewEngine(logger.New("development"))
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrFloat(v float64) *float64    { return &v }
func ptrInt64(v int64) *int64        { return &v }

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

func shippedLead(id int64, contactID int64, price float64, shippedAt time.Time) Lead {
	return Lead{
		ID:         id,
		Price:      ptrFloat(price),
		ContactID:  ptrInt64(contactID),
		ShipmentAt: ptrTime(shippedAt),
	}
}

func TestJoinMatchesByContact(t *testing.T) {
	leads := []Lead{
		shippedLead(1, 100, 50, day(1)),
		shippedLead(2, 200, 70, day(2)),
		{ID: 3, Price: ptrFloat(30)}, // no contact link
	}
	contacts := []Contact{
		{ID: 100, CustomerID: ptrInt64(7)},
		{ID: 999},
	}

	records := Join(leads, contacts)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Lead.ID != 1 || records[0].Contact.ID != 100 {
		t.Fatalf("unexpected pairing: lead %d contact %d", records[0].Lead.ID, records[0].Contact.ID)
	}
}

func TestJoinPreservesMultiplicity(t *testing.T) {
	leads := []Lead{shippedLead(1, 100, 50, day(1))}
	contacts := []Contact{{ID: 100}, {ID: 100}}

	records := Join(leads, contacts)
	if len(records) != 2 {
		t.Fatalf("a lead matching two same-ID contacts must yield two records, got %d", len(records))
	}
}

func TestReconcileDropsAnchorless(t *testing.T) {
	records := []Record{
		{Lead: Lead{ID: 1, Price: ptrFloat(10)}, Contact: Contact{ID: 100}},
		{Lead: shippedLead(2, 100, 20, day(1)), Contact: Contact{ID: 100}},
	}

	result := testEngine().Reconcile(records)
	if len(result) != 1 {
		t.Fatalf("expected 1 record after dropping anchorless, got %d", len(result))
	}
	if result[0].Lead.ID != 2 {
		t.Fatalf("wrong record kept: %d", result[0].Lead.ID)
	}
}

func TestReconcileRunningTotalExcludesCurrent(t *testing.T) {
	customer := ptrInt64(7)
	records := []Record{
		{Lead: shippedLead(1, 100, 50, day(1)), Contact: Contact{ID: 100, CustomerID: customer}},
		{Lead: shippedLead(2, 100, 70, day(2)), Contact: Contact{ID: 100, CustomerID: customer}},
		{Lead: shippedLead(3, 100, 30, day(3)), Contact: Contact{ID: 100, CustomerID: customer}},
	}

	result := testEngine().Reconcile(records)
	wantTotals := []float64{0, 50, 120}
	for i, want := range wantTotals {
		if result[i].Lead.CleanPrice != want {
			t.Fatalf("record %d: expected running total %v, got %v", i, want, result[i].Lead.CleanPrice)
		}
	}
}

func TestReconcileTiedAnchorsReadPreGroupTotal(t *testing.T) {
	customer := ptrInt64(7)
	tied := day(2)
	base := []Record{
		{Lead: shippedLead(1, 100, 50, day(1)), Contact: Contact{ID: 100, CustomerID: customer}},
		{Lead: shippedLead(2, 100, 70, tied), Contact: Contact{ID: 100, CustomerID: customer}},
		{Lead: shippedLead(3, 100, 30, tied), Contact: Contact{ID: 100, CustomerID: customer}},
		{Lead: shippedLead(4, 100, 10, day(3)), Contact: Contact{ID: 100, CustomerID: customer}},
	}
	swapped := []Record{base[0], base[2], base[1], base[3]}

	engine := testEngine()
	forOrder := func(input []Record) map[int64]float64 {
		out := engine.Reconcile(input)
		totals := make(map[int64]float64, len(out))
		for _, rec := range out {
			totals[rec.Lead.ID] = rec.Lead.CleanPrice
		}
		return totals
	}

	first := forOrder(base)
	second := forOrder(swapped)

	// Both tied records see the total as of before the tie.
	if first[2] != 50 || first[3] != 50 {
		t.Fatalf("tied records must read pre-group total 50, got %v and %v", first[2], first[3])
	}
	// The record after the tie sees both tied prices folded in.
	if first[4] != 150 {
		t.Fatalf("post-tie record must read 150, got %v", first[4])
	}
	for id, total := range first {
		if second[id] != total {
			t.Fatalf("tie order changed result for lead %d: %v vs %v", id, total, second[id])
		}
	}
}

func TestReconcileLastBuy(t *testing.T) {
	customer := ptrInt64(7)
	records := []Record{
		{Lead: shippedLead(1, 100, 50, day(1)), Contact: Contact{ID: 100, CustomerID: customer}},
		{Lead: shippedLead(2, 100, 70, day(4)), Contact: Contact{ID: 100, CustomerID: customer}},
	}

	result := testEngine().Reconcile(records)
	if result[0].Lead.LastBuy != nil {
		t.Fatalf("first purchase must have no last-buy gap, got %v", result[0].Lead.LastBuy)
	}
	if result[1].Lead.LastBuy == nil {
		t.Fatalf("second purchase must have a last-buy gap")
	}
	if *result[1].Lead.LastBuy != 72*time.Hour {
		t.Fatalf("expected 72h gap, got %v", *result[1].Lead.LastBuy)
	}
}

func TestReconcileLastBuyZeroWithinTie(t *testing.T) {
	customer := ptrInt64(7)
	tied := day(2)
	records := []Record{
		{Lead: shippedLead(1, 100, 50, tied), Contact: Contact{ID: 100, CustomerID: customer}},
		{Lead: shippedLead(2, 100, 70, tied), Contact: Contact{ID: 100, CustomerID: customer}},
	}

	result := testEngine().Reconcile(records)
	if result[0].Lead.LastBuy != nil {
		t.Fatalf("first of the tie must have no gap")
	}
	if result[1].Lead.LastBuy == nil || *result[1].Lead.LastBuy != 0 {
		t.Fatalf("second of the tie must read a zero gap, got %v", result[1].Lead.LastBuy)
	}
}

func TestReconcileAttestationStrictlyBefore(t *testing.T) {
	attested := day(2)
	records := []Record{
		{Lead: shippedLead(1, 100, 50, day(1)), Contact: Contact{ID: 100, AttestedAt: ptrTime(attested)}},
		{Lead: shippedLead(2, 100, 50, day(2)), Contact: Contact{ID: 100, AttestedAt: ptrTime(attested)}},
		{Lead: shippedLead(3, 100, 50, day(5)), Contact: Contact{ID: 100, AttestedAt: ptrTime(attested)}},
	}

	result := testEngine().Reconcile(records)
	if result[0].Lead.TimeFromAttestation != nil {
		t.Fatalf("purchase before attestation must read nil")
	}
	if result[1].Lead.TimeFromAttestation != nil {
		t.Fatalf("purchase at the attestation instant must read nil")
	}
	if result[2].Lead.TimeFromAttestation == nil || *result[2].Lead.TimeFromAttestation != 72*time.Hour {
		t.Fatalf("expected 72h since attestation, got %v", result[2].Lead.TimeFromAttestation)
	}
}

func TestReconcilePoolsMissingCustomers(t *testing.T) {
	records := []Record{
		{Lead: shippedLead(1, 100, 50, day(1)), Contact: Contact{ID: 100}},
		{Lead: shippedLead(2, 200, 70, day(2)), Contact: Contact{ID: 200}},
	}

	result := testEngine().Reconcile(records)
	// Both contacts lack a customer, so they accumulate together.
	if result[1].Lead.CleanPrice != 50 {
		t.Fatalf("customerless contacts must pool totals, got %v", result[1].Lead.CleanPrice)
	}
}

func TestReconcileNilPriceCountsAsZero(t *testing.T) {
	customer := ptrInt64(7)
	records := []Record{
		{Lead: Lead{ID: 1, ContactID: ptrInt64(100), ShipmentAt: ptrTime(day(1))}, Contact: Contact{ID: 100, CustomerID: customer}},
		{Lead: shippedLead(2, 100, 70, day(2)), Contact: Contact{ID: 100, CustomerID: customer}},
	}

	result := testEngine().Reconcile(records)
	if result[1].Lead.CleanPrice != 0 {
		t.Fatalf("nil price must contribute 0 to the total, got %v", result[1].Lead.CleanPrice)
	}
}
