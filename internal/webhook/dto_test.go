package webhook

import (
	"net/url"
	"testing"
)

func ledgerForm() url.Values {
	form := url.Values{}
	form.Set("catalogs[add][0][id]", "555")
	form.Set(ledgerFieldKey(0), "7")
	form.Set(ledgerFieldKey(1), "1000,50")
	form.Set(ledgerFieldKey(2), "100")
	form.Set(ledgerFieldKey(3), "Отгрузка")
	return form
}

func TestParseLedgerForm(t *testing.T) {
	entry, err := parseLedgerForm(ledgerForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.EntryID != 555 || entry.CustomerID != 7 {
		t.Fatalf("ids not decoded: %+v", entry)
	}
	if entry.Price != 1000.5 {
		t.Fatalf("comma-decimal price expected 1000.5, got %v", entry.Price)
	}
	if entry.Bonus != 100 {
		t.Fatalf("expected bonus 100, got %v", entry.Bonus)
	}
	if entry.DocumentType != "Отгрузка" {
		t.Fatalf("unexpected document type: %q", entry.DocumentType)
	}
}

func TestParseLedgerFormMissingBonus(t *testing.T) {
	form := ledgerForm()
	form.Del(ledgerFieldKey(2))

	entry, err := parseLedgerForm(form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Bonus != 0 {
		t.Fatalf("missing bonus must read as 0, got %v", entry.Bonus)
	}
}

func TestParseLedgerFormRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(url.Values)
	}{
		{"missing id", func(f url.Values) { f.Del("catalogs[add][0][id]") }},
		{"bad id", func(f url.Values) { f.Set("catalogs[add][0][id]", "abc") }},
		{"bad customer", func(f url.Values) { f.Set(ledgerFieldKey(0), "x") }},
		{"bad price", func(f url.Values) { f.Set(ledgerFieldKey(1), "x") }},
		{"bad bonus", func(f url.Values) { f.Set(ledgerFieldKey(2), "x") }},
		{"missing type", func(f url.Values) { f.Set(ledgerFieldKey(3), "  ") }},
	}
	for _, tc := range cases {
		form := ledgerForm()
		tc.mutate(form)
		if _, err := parseLedgerForm(form); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
