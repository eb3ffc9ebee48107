package reconcile

import (
	"sort"
	"time"

	"crmhub_backend/platform/logger"
)

// Engine derives the per-customer running aggregates over joined records.
type Engine struct {
	log *logger.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

// Join pairs every lead with every contact whose ID matches the lead's main
// contact. Leads without a contact link and contacts without a matching lead
// are dropped. The nested scan is deliberate: CRM pages are small (hundreds
// to low thousands) and the multiplicity is part of the contract — a lead
// matching N same-ID contacts yields N records.
func Join(leads []Lead, contacts []Contact) []Record {
	var result []Record
	for _, lead := range leads {
		if lead.ContactID == nil {
			continue
		}
		for _, contact := range contacts {
			if contact.ID == *lead.ContactID {
				result = append(result, Record{Lead: lead, Contact: contact})
			}
		}
	}
	return result
}

// Reconcile orders records by shipment anchor and computes, per record:
// the customer's clean purchase total strictly before the record's instant,
// the time since the customer's previous purchase, and the time since the
// contact's attestation.
//
// Records without an anchor are dropped before sorting. Records sharing an
// identical anchor all read the running total as it stood before the tied
// group, so input order within a tie cannot change the result. LastBuy is
// sequential, not tie-grouped: the second of two same-instant purchases
// reads a zero gap.
func (e *Engine) Reconcile(records []Record) []Record {
	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Anchor() == nil || rec.Anchor().IsZero() {
			e.log.Debug("dropping record without shipment anchor", "lead_id", rec.Lead.ID)
			continue
		}
		kept = append(kept, rec)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return anchorLess(kept[i].Anchor(), kept[j].Anchor())
	})

	totals := make(map[int64]float64)
	lastAnchor := make(map[int64]time.Time)

	for start := 0; start < len(kept); {
		end := start + 1
		for end < len(kept) && kept[end].Anchor().Equal(*kept[start].Anchor()) {
			end++
		}

		// Every member of the tied group reads the pre-group totals.
		for k := start; k < end; k++ {
			rec := &kept[k]
			key := customerKey(rec.Contact)
			anchor := *rec.Anchor()

			rec.Lead.CleanPrice = totals[key]
			rec.Lead.TimeFromAttestation = timeFromAttestation(anchor, rec.Contact.AttestedAt)

			if prev, seen := lastAnchor[key]; seen {
				gap := anchor.Sub(prev)
				rec.Lead.LastBuy = &gap
			}
			lastAnchor[key] = anchor
		}

		// The group's own prices join the running totals only after all
		// members have read them.
		for k := start; k < end; k++ {
			rec := kept[k]
			totals[customerKey(rec.Contact)] += e.priceOf(rec.Lead)
		}

		start = end
	}

	return kept
}

// anchorLess orders instants ascending with nil anchors last.
func anchorLess(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.Before(*b)
}

// customerKey pools contacts without a customer under a shared zero key,
// matching the historical accumulation behavior.
func customerKey(contact Contact) int64 {
	if contact.CustomerID == nil {
		return 0
	}
	return *contact.CustomerID
}

func (e *Engine) priceOf(lead Lead) float64 {
	if lead.Price == nil {
		e.log.BadValue("lead_price", lead.ID)
		return 0
	}
	return *lead.Price
}

func timeFromAttestation(anchor time.Time, attestedAt *time.Time) *time.Duration {
	if attestedAt == nil || !anchor.After(*attestedAt) {
		return nil
	}
	d := anchor.Sub(*attestedAt)
	return &d
}
